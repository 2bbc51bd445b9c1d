package cartridge

// uxBanking is the bank-switching core shared by mapper 0 (NROM) and
// mapper 2 (UxROM): $8000-$BFFF selects a 16 KiB
// bank (mod bankCount); $C000-$FFFF is always the last bank. NROM never
// lets writes change selectBank, so it stays permanently fixed at 0.
type uxBanking struct {
	cart       *Cartridge
	selectBank uint8
	bankCount  uint8
	writable   bool // false for NROM: writes to $8000-$FFFF are ignored
}

func newUxBanking(cart *Cartridge, writable bool) *uxBanking {
	return &uxBanking{
		cart:      cart,
		bankCount: uint8(len(cart.prgROM) / 0x4000),
		writable:  writable,
	}
}

func (u *uxBanking) readPRG(address uint16) uint8 {
	if address >= 0x8000 {
		offset := address - 0x8000
		var bank uint8
		if offset < 0x4000 {
			bank = u.selectBank
		} else {
			bank = u.bankCount - 1
			offset -= 0x4000
		}
		idx := int(bank)*0x4000 + int(offset)
		if idx < len(u.cart.prgROM) {
			return u.cart.prgROM[idx]
		}
		return 0
	}
	if address >= 0x6000 {
		return u.cart.sram[address-0x6000]
	}
	return 0
}

func (u *uxBanking) writePRG(address uint16, value uint8) {
	if address >= 0x8000 {
		if u.writable && u.bankCount > 0 {
			u.selectBank = value % u.bankCount
		}
		return
	}
	if address >= 0x6000 {
		u.cart.sram[address-0x6000] = value
	}
}

func (u *uxBanking) readCHR(address uint16) uint8 {
	if address < 0x2000 && int(address) < len(u.cart.chrROM) {
		return u.cart.chrROM[address]
	}
	return 0
}

func (u *uxBanking) writeCHR(address uint16, value uint8) {
	if u.cart.chrRAM && address < 0x2000 && int(address) < len(u.cart.chrROM) {
		u.cart.chrROM[address] = value
	}
}

// Mapper000 implements NROM: no bank switching, 16 or 32 KiB PRG, 8 KiB
// CHR ROM or RAM, optional 8 KiB SRAM at $6000-$7FFF.
type Mapper000 struct {
	banking *uxBanking
}

// NewMapper000 creates a new NROM mapper.
func NewMapper000(cart *Cartridge) *Mapper000 {
	return &Mapper000{banking: newUxBanking(cart, false)}
}

func (m *Mapper000) ReadPRG(address uint16) uint8 { return m.banking.readPRG(address) }
func (m *Mapper000) WritePRG(address uint16, value uint8) { m.banking.writePRG(address, value) }
func (m *Mapper000) ReadCHR(address uint16) uint8 { return m.banking.readCHR(address) }
func (m *Mapper000) WriteCHR(address uint16, value uint8) { m.banking.writeCHR(address, value) }
func (m *Mapper000) Step(scanline, cycle int, renderingEnabled bool) {}
func (m *Mapper000) IRQPending() bool { return false }
func (m *Mapper000) ClearIRQ() {}
