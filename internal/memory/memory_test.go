package memory

import (
	"testing"

	"github.com/nes-emu/gones/internal/cartridge"
)

type mockPPU struct {
	reads  []uint16
	writes map[uint16]uint8
}

func newMockPPU() *mockPPU { return &mockPPU{writes: make(map[uint16]uint8)} }

func (m *mockPPU) ReadRegister(address uint16) uint8 {
	m.reads = append(m.reads, address)
	return 0x55
}
func (m *mockPPU) WriteRegister(address uint16, value uint8) { m.writes[address] = value }

type mockAPU struct {
	writes map[uint16]uint8
	status uint8
}

func newMockAPU() *mockAPU { return &mockAPU{writes: make(map[uint16]uint8)} }

func (m *mockAPU) WriteRegister(address uint16, value uint8) { m.writes[address] = value }
func (m *mockAPU) ReadStatus() uint8 { return m.status }

type mockInput struct {
	lastWriteAddr uint16
	lastWriteVal  uint8
	readValue     uint8
}

func (m *mockInput) Read(address uint16) uint8 { return m.readValue }
func (m *mockInput) Write(address uint16, value uint8) {
	m.lastWriteAddr = address
	m.lastWriteVal = value
}

type mockCartridge struct {
	prg    [0x10000]uint8
	chr    [0x2000]uint8
	mirror cartridge.MirrorMode
}

func (m *mockCartridge) ReadPRG(address uint16) uint8 { return m.prg[address] }
func (m *mockCartridge) WritePRG(address uint16, value uint8) { m.prg[address] = value }
func (m *mockCartridge) ReadCHR(address uint16) uint8 { return m.chr[address] }
func (m *mockCartridge) WriteCHR(address uint16, value uint8) { m.chr[address] = value }
func (m *mockCartridge) MirrorMode() cartridge.MirrorMode { return m.mirror }

func TestRAMMirroring(t *testing.T) {
	mem := New(newMockPPU(), newMockAPU(), &mockCartridge{})
	mem.Write(0x0000, 0x42)

	for _, mirror := range []uint16{0x0000, 0x0800, 0x1000, 0x1800} {
		if got := mem.Read(mirror); got != 0x42 {
			t.Errorf("Read(%#04x) = %#02x, want 0x42 (RAM mirrors every 0x800)", mirror, got)
		}
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	ppu := newMockPPU()
	mem := New(ppu, newMockAPU(), &mockCartridge{})

	mem.Read(0x2000)
	mem.Read(0x2008) // mirrors 0x2000

	if len(ppu.reads) != 2 || ppu.reads[0] != 0x2000 || ppu.reads[1] != 0x2000 {
		t.Errorf("PPU register reads = %v, want both decoded to 0x2000", ppu.reads)
	}
}

func TestAPUStatusRead(t *testing.T) {
	apu := newMockAPU()
	apu.status = 0x1F
	mem := New(newMockPPU(), apu, &mockCartridge{})

	if got := mem.Read(0x4015); got != 0x1F {
		t.Errorf("Read(0x4015) = %#02x, want 0x1F", got)
	}
}

func TestControllerReadWrite(t *testing.T) {
	in := &mockInput{readValue: 1}
	mem := New(newMockPPU(), newMockAPU(), &mockCartridge{})
	mem.SetInputSystem(in)

	mem.Write(0x4016, 0x01)
	if in.lastWriteAddr != 0x4016 || in.lastWriteVal != 0x01 {
		t.Errorf("controller write not forwarded: addr=%#04x val=%#02x", in.lastWriteAddr, in.lastWriteVal)
	}
	if got := mem.Read(0x4016); got != 1 {
		t.Errorf("Read(0x4016) = %d, want 1", got)
	}
}

func TestOpenBusFallsBackToLastReadValue(t *testing.T) {
	cart := &mockCartridge{}
	mem := New(newMockPPU(), newMockAPU(), cart)
	cart.prg[0x8000] = 0x99

	mem.Read(0x8000)            // latches 0x99 as open bus
	got := mem.Read(0x4018)      // unmapped APU/IO test register
	if got != 0x99 {
		t.Errorf("Read(0x4018) = %#02x, want 0x99 (open bus)", got)
	}
}

func TestDMACallbackPreferredOverFallback(t *testing.T) {
	mem := New(newMockPPU(), newMockAPU(), &mockCartridge{})
	var gotPage uint8 = 0xFF
	mem.SetDMACallback(func(page uint8) { gotPage = page })

	mem.Write(0x4014, 0x02)

	if gotPage != 0x02 {
		t.Errorf("DMA callback page = %#02x, want 0x02", gotPage)
	}
}

func TestPPUMemoryPatternTableGoesToCartridge(t *testing.T) {
	cart := &mockCartridge{}
	cart.chr[0x0010] = 0x7A
	pm := NewPPUMemory(cart)

	if got := pm.Read(0x0010); got != 0x7A {
		t.Errorf("Read(0x0010) = %#02x, want 0x7A", got)
	}
}

func TestPPUMemoryHorizontalMirroring(t *testing.T) {
	cart := &mockCartridge{mirror: cartridge.MirrorHorizontal}
	pm := NewPPUMemory(cart)

	pm.Write(0x2000, 0x11) // nametable 0
	pm.Write(0x2800, 0x22) // nametable 2, the second physical bank under horizontal mirroring

	if got := pm.Read(0x2400); got != 0x11 {
		t.Errorf("Read(0x2400) = %#02x, want 0x11 (nametable 1 mirrors nametable 0)", got)
	}
	if got := pm.Read(0x2C00); got != 0x22 {
		t.Errorf("Read(0x2C00) = %#02x, want 0x22 (nametable 3 mirrors nametable 2)", got)
	}
}

func TestPPUMemoryPaletteMirroring(t *testing.T) {
	pm := NewPPUMemory(&mockCartridge{mirror: cartridge.MirrorVertical})

	pm.Write(0x3F00, 0x0F)
	if got := pm.Read(0x3F10); got != 0x0F {
		t.Errorf("Read(0x3F10) = %#02x, want 0x0F (sprite palette 0 background mirrors universal background)", got)
	}
}

func TestPPUMemoryMirroringTracksCartridgeAtRuntime(t *testing.T) {
	cart := &mockCartridge{mirror: cartridge.MirrorHorizontal}
	pm := NewPPUMemory(cart)

	pm.Write(0x2000, 0x11) // bank 0 under horizontal mirroring
	pm.Write(0x2800, 0x22) // bank 1 under horizontal mirroring
	if got := pm.Read(0x2400); got != 0x11 {
		t.Errorf("Read(0x2400) under horizontal mirroring = %#02x, want 0x11", got)
	}

	// Mappers 1, 4, and 7 can flip a cartridge's mirroring mode after
	// the PPU memory map has already been constructed around it.
	cart.mirror = cartridge.MirrorVertical
	if got := pm.Read(0x2400); got != 0x22 {
		t.Errorf("Read(0x2400) after runtime switch to vertical mirroring = %#02x, want 0x22 (live lookup, not cached)", got)
	}
}

func TestPPUMemoryNametableMirrorRegion(t *testing.T) {
	cart := &mockCartridge{mirror: cartridge.MirrorVertical}
	pm := NewPPUMemory(cart)

	pm.Write(0x2000, 0x33)
	if got := pm.Read(0x3000); got != 0x33 {
		t.Errorf("Read(0x3000) = %#02x, want 0x33 ($3000-$3EFF mirrors $2000-$2EFF)", got)
	}
}
