package cartridge

// Mapper002 implements UxROM: fixed last 16 KiB bank at $C000-$FFFF,
// switchable 16 KiB bank at $8000-$BFFF selected by any write to
// $8000-$FFFF, modulo the bank count. CHR is always treated as RAM.
type Mapper002 struct {
	banking *uxBanking
}

// NewMapper002 creates a new UxROM mapper.
func NewMapper002(cart *Cartridge) *Mapper002 {
	return &Mapper002{banking: newUxBanking(cart, true)}
}

func (m *Mapper002) ReadPRG(address uint16) uint8 { return m.banking.readPRG(address) }
func (m *Mapper002) WritePRG(address uint16, value uint8) { m.banking.writePRG(address, value) }
func (m *Mapper002) ReadCHR(address uint16) uint8 { return m.banking.readCHR(address) }
func (m *Mapper002) WriteCHR(address uint16, value uint8) {
	chr := m.banking.cart.chrROM
	if address < 0x2000 && int(address) < len(chr) {
		chr[address] = value
	}
}
func (m *Mapper002) Step(scanline, cycle int, renderingEnabled bool) {}
func (m *Mapper002) IRQPending() bool { return false }
func (m *Mapper002) ClearIRQ() {}
