package bus

import (
	"testing"

	"github.com/nes-emu/gones/internal/input"
)

// makeNROM builds a minimal iNES image: one 16 KiB PRG bank (mirrored
// into both CPU halves by NROM) and one 8 KiB CHR bank, with the given
// PRG offsets patched.
func makeNROM(patch map[int]uint8) []byte {
	rom := make([]byte, 16+16384+8192)
	copy(rom, []byte{0x4E, 0x45, 0x53, 0x1A, 0x01, 0x01})
	for offset, value := range patch {
		rom[16+offset] = value
	}
	return rom
}

func TestConsoleResetVector(t *testing.T) {
	// $FFFC/$FFFD sit at PRG offset $3FFC/$3FFD in a 16 KiB bank.
	c, err := New(makeNROM(map[int]uint8{
		0x3FFC: 0x34,
		0x3FFD: 0x12,
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if c.CPU.PC != 0x1234 {
		t.Errorf("PC = %#04x, want 0x1234", c.CPU.PC)
	}
	if c.CPU.SP != 0xFD {
		t.Errorf("SP = %#02x, want 0xFD", c.CPU.SP)
	}
	if got := c.CPU.GetStatusByte(); got != 0x24 {
		t.Errorf("status = %#02x, want 0x24", got)
	}
	if c.CPU.Cycles() != 0 {
		t.Errorf("cycles = %d, want 0", c.CPU.Cycles())
	}
}

func TestNestestFirstTraceLine(t *testing.T) {
	// JMP $C5F5 at $C000, which NROM-128 maps to PRG offset 0.
	c, err := New(makeNROM(map[int]uint8{
		0x0000: 0x4C,
		0x0001: 0xF5,
		0x0002: 0xC5,
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var first string
	c.Nestest(func(line string) {
		if first == "" {
			first = line
		}
	})

	want := "C000  4C F5 C5  JMP $C5F5                       A:00 X:00 Y:00 P:24 SP:FD PPU:  0, 21 CYC:7"
	if first != want {
		t.Errorf("first trace line mismatch\n got: %q\nwant: %q", first, want)
	}
}

func TestControllerStrobeThroughCPUBus(t *testing.T) {
	c, err := New(makeNROM(nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.ButtonDown(1, input.ButtonA)
	c.cpuMemory.Write(0x4016, 0x01)
	c.cpuMemory.Write(0x4016, 0x00)

	want := []uint8{1, 0, 0, 0, 0, 0, 0, 0}
	for i, w := range want {
		if got := c.cpuMemory.Read(0x4016) & 1; got != w {
			t.Errorf("read %d = %d, want %d", i, got, w)
		}
	}
	for i := 0; i < 3; i++ {
		if got := c.cpuMemory.Read(0x4016) & 1; got != 1 {
			t.Errorf("read past 8th bit = %d, want 1", got)
		}
	}
}

func TestStepRunsThreePPUTicksPerCPUCycle(t *testing.T) {
	// NOP at $8000 (PRG offset 0), reset vector pointing at it.
	c, err := New(makeNROM(map[int]uint8{
		0x0000: 0xEA,
		0x3FFC: 0x00,
		0x3FFD: 0x80,
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	startCycle := c.PPU.Cycle()
	cycles := c.Step()
	if cycles != 2 {
		t.Fatalf("NOP consumed %d cycles, want 2", cycles)
	}
	if got := c.PPU.Cycle() - startCycle; got != 6 {
		t.Errorf("PPU advanced %d ticks, want 6 (3 per CPU cycle)", got)
	}
}

func TestOAMDMAStallsCPU(t *testing.T) {
	c, err := New(makeNROM(nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := uint16(0); i < 256; i++ {
		c.cpuMemory.Write(0x0200+i, uint8(i))
	}
	c.cpuMemory.Write(0x2003, 0x00)
	c.cpuMemory.Write(0x4014, 0x02)

	// The copy lands in OAM immediately; verify through the OAMDATA
	// cursor.
	c.cpuMemory.Write(0x2003, 0x05)
	if got := c.cpuMemory.Read(0x2004); got != 0x05 {
		t.Errorf("OAM[5] = %#02x, want 0x05", got)
	}

	// The DMA began on an even CPU cycle, so the stall is exactly 513
	// cycles, consumed one per Step before the next instruction runs.
	for i := 0; i < 513; i++ {
		if got := c.CPU.Step(); got != 1 {
			t.Fatalf("stall step %d consumed %d cycles, want 1", i, got)
		}
	}
	if got := c.CPU.Step(); got == 1 {
		t.Error("CPU still stalled after 513 cycles")
	}
}

func TestRunForSecondsAdvancesClock(t *testing.T) {
	c, err := New(makeNROM(nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.RunForSeconds(0.001)

	if got := c.CPU.Cycles(); got < CPUFrequency/1000 {
		t.Errorf("cycles after 1ms = %d, want >= %d", got, CPUFrequency/1000)
	}
}
