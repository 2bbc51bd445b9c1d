package ppu

import (
	"testing"

	"github.com/nes-emu/gones/internal/cartridge"
	"github.com/nes-emu/gones/internal/memory"
)

type stubCartridge struct {
	chr [0x2000]uint8
}

func (s *stubCartridge) ReadPRG(address uint16) uint8 { return 0 }
func (s *stubCartridge) WritePRG(address uint16, value uint8) {}
func (s *stubCartridge) ReadCHR(address uint16) uint8 { return s.chr[address] }
func (s *stubCartridge) WriteCHR(address uint16, value uint8) { s.chr[address] = value }
func (s *stubCartridge) MirrorMode() cartridge.MirrorMode { return cartridge.MirrorHorizontal }

type mockCPU struct{ nmiCount int }

func (m *mockCPU) TriggerNMI() { m.nmiCount++ }

func newTestPPU() *PPU {
	p := New()
	p.SetMemory(memory.NewPPUMemory(&stubCartridge{}))
	return p
}

func TestResetStartsOnPreRenderLine(t *testing.T) {
	p := New()
	if p.Scanline() != preRenderLine {
		t.Errorf("initial scanline = %d, want %d", p.Scanline(), preRenderLine)
	}
}

func TestPPUStatusReadClearsVBlankAndLatch(t *testing.T) {
	p := newTestPPU()
	p.nmiOccurred = true
	p.w = true

	status := p.ReadRegister(0x2002)
	if status&0x80 == 0 {
		t.Error("PPUSTATUS read should report vblank when nmiOccurred is set")
	}
	if p.nmiOccurred {
		t.Error("PPUSTATUS read should clear nmiOccurred as a side effect")
	}
	if p.w {
		t.Error("PPUSTATUS read should clear the address-latch flag")
	}
}

func TestPPUScrollTwoWriteLatch(t *testing.T) {
	p := newTestPPU()

	p.WriteRegister(0x2005, 0x7D) // first write: coarse X + fine X
	if !p.w {
		t.Fatal("write latch should be set after the first PPUSCROLL write")
	}
	p.WriteRegister(0x2005, 0x5E) // second write: coarse Y + fine Y
	if p.w {
		t.Error("write latch should clear after the second PPUSCROLL write")
	}
}

func TestPPUAddrTwoWriteSetsV(t *testing.T) {
	p := newTestPPU()

	p.WriteRegister(0x2006, 0x21)
	p.WriteRegister(0x2006, 0x08)

	if p.v != 0x2108 {
		t.Errorf("v = %#04x, want 0x2108", p.v)
	}
}

func TestPPUDataIncrementByOneOrThirtyTwo(t *testing.T) {
	p := newTestPPU()
	p.v = 0x2000

	p.WriteRegister(0x2007, 0x11)
	if p.v != 0x2001 {
		t.Errorf("v after write = %#04x, want 0x2001 (increment 1)", p.v)
	}

	p.ppuCtrl |= 0x04
	p.WriteRegister(0x2007, 0x22)
	if p.v != 0x2021 {
		t.Errorf("v after write = %#04x, want 0x2021 (increment 32)", p.v)
	}
}

func TestPPUDataReadIsBufferedExceptForPalette(t *testing.T) {
	p := newTestPPU()
	p.memory.Write(0x2000, 0xAB)
	p.v = 0x2000

	first := p.ReadRegister(0x2007)
	if first != 0 {
		t.Errorf("first buffered read = %#02x, want 0 (stale buffer)", first)
	}
	second := p.ReadRegister(0x2007)
	if second != 0xAB {
		t.Errorf("second read = %#02x, want 0xAB", second)
	}

	p.v = 0x3F00
	direct := p.ReadRegister(0x2007)
	if direct != p.memory.Read(0x3F00) {
		t.Error("palette reads should return data immediately, not the stale buffer")
	}
}

func TestOAMDataReadMasksAttributeBits(t *testing.T) {
	p := newTestPPU()
	p.oamAddr = 2
	p.oam[2] = 0xFF

	if got := p.ReadRegister(0x2004); got != 0xE3 {
		t.Errorf("OAM attribute byte read = %#02x, want 0xE3 (unimplemented bits read back 0)", got)
	}
}

func TestNMITriggersAfterFifteenCycleDelay(t *testing.T) {
	p := newTestPPU()
	cpu := &mockCPU{}
	p.SetCPU(cpu)
	p.nmiOutput = true

	p.scanline = vblankStartLine
	p.cycle = 0
	p.Step() // cycle 0 -> 1: sets nmiOccurred, schedules the delay

	for i := 0; i < 15; i++ {
		if cpu.nmiCount != 0 {
			t.Fatalf("NMI fired after only %d cycles, want 15", i)
		}
		p.Step()
	}
	if cpu.nmiCount != 1 {
		t.Errorf("nmiCount = %d, want 1 after the 15-cycle delay elapses", cpu.nmiCount)
	}
}

func TestBackgroundPixelAlignmentAtScrollZero(t *testing.T) {
	p := newTestPPU()

	// Tile 0, row 0: leftmost pixel color 1, the rest color 0.
	p.memory.Write(0x0000, 0x80) // low bit plane
	p.memory.Write(0x0008, 0x00) // high bit plane
	p.memory.Write(0x3F01, 0x21) // background palette 0, color 1

	p.WriteRegister(0x2001, 0x0A) // show background, including the left column

	// Run from the pre-render line through the first eight dots of
	// scanline 0; the two tiles prefetched during cycles 321-336 feed
	// those dots.
	for i := 0; i < 341+8; i++ {
		p.Step()
	}

	if got, want := p.frameBuffer[0], nesColorPalette[0x21]&0x00FFFFFF; got != want {
		t.Errorf("frameBuffer[0] = %#06x, want %#06x (tile 0 pixel 0 at screen x=0)", got, want)
	}
	for x := 1; x < 8; x++ {
		if got := p.frameBuffer[x]; got != 0 {
			t.Errorf("frameBuffer[%d] = %#06x, want 0 (backdrop); background is horizontally misaligned", x, got)
		}
	}
}

func TestPreRenderSpriteEvaluationAndLineOneSprite(t *testing.T) {
	p := newTestPPU()

	// Sprite 0 at the top-left corner: OAM y=0 puts its first row on
	// scanline 1, and no sprite can ever appear on scanline 0.
	p.oam[0] = 0 // y
	p.oam[1] = 1 // tile
	p.oam[2] = 0 // attributes
	p.oam[3] = 0 // x

	// Tile 1, row 0: leftmost pixel color 1.
	p.memory.Write(0x0010, 0x80)
	p.memory.Write(0x3F11, 0x16) // sprite palette 0, color 1

	// Stale secondary OAM left over from the previous frame's last
	// evaluated line; the pre-render evaluation must clear it before
	// scanline 0 renders.
	p.secondaryOAM[0] = spriteSlot{low: 0xFF, high: 0xFF, x: 0, attrs: 0, index: 3}
	p.spriteCount = 1

	p.WriteRegister(0x2001, 0x14) // show sprites, including the left column

	// Pre-render line, scanline 0, then the first two dots of
	// scanline 1.
	for i := 0; i < 341*2+2; i++ {
		p.Step()
	}

	if got := p.frameBuffer[0]; got != 0 {
		t.Errorf("frameBuffer[0] = %#06x, want 0 (stale sprite state leaked onto scanline 0)", got)
	}
	if got, want := p.frameBuffer[1*screenWidth], nesColorPalette[0x16]&0x00FFFFFF; got != want {
		t.Errorf("frameBuffer[256] = %#06x, want %#06x (sprite 0 pixel 0 on scanline 1)", got, want)
	}
}

func TestSeekOverridesTiming(t *testing.T) {
	p := newTestPPU()
	p.Seek(42, 100)

	if p.Scanline() != 42 || p.Cycle() != 100 {
		t.Errorf("Scanline/Cycle = %d/%d, want 42/100", p.Scanline(), p.Cycle())
	}
}

func TestMapperStepCalledOncePerPPUTick(t *testing.T) {
	p := newTestPPU()
	calls := 0
	p.SetMapper(mapperStepFunc(func(scanline, cycle int, rendering bool) { calls++ }))

	p.Step()
	p.Step()

	if calls != 2 {
		t.Errorf("mapper.Step called %d times for 2 PPU ticks, want 2", calls)
	}
}

type mapperStepFunc func(scanline, cycle int, renderingEnabled bool)

func (f mapperStepFunc) Step(scanline, cycle int, renderingEnabled bool) {
	f(scanline, cycle, renderingEnabled)
}
