// Package bus wires the CPU, PPU, APU, cartridge, and controllers
// into the single-threaded, cooperatively-stepped NES console.
package bus

import (
	"bytes"

	"github.com/nes-emu/gones/internal/apu"
	"github.com/nes-emu/gones/internal/cartridge"
	"github.com/nes-emu/gones/internal/cpu"
	"github.com/nes-emu/gones/internal/input"
	"github.com/nes-emu/gones/internal/memory"
	"github.com/nes-emu/gones/internal/ppu"
)

// CPUFrequency is the NTSC CPU clock rate, used by RunForSeconds.
const CPUFrequency = apu.CPUFrequency

// Console owns every NES component and wires them together in New.
// The components then hold direct references to one another: the PPU
// holds the CPU (NMI) and the cartridge (mapper ticks), and the CPU
// memory map holds the PPU, APU, cartridge, and controllers. Only the
// APU's DMC reads reach the CPU bus through the Console, via
// cpuBusAdapter; other cross-component calls do not pass through it.
type Console struct {
	CPU       *cpu.CPU
	PPU       *ppu.PPU
	APU       *apu.APU
	Cartridge *cartridge.Cartridge
	Input     *input.InputState

	cpuMemory *memory.Memory
	ppuMemory *memory.PPUMemory

	cycles uint64

	writePixel func(offset int, r, g, b uint8)
}

// cpuBusAdapter satisfies apu.CPUBus: DMC sample reads go through the
// CPU's own address space and charge the CPU's stall counter, exactly
// like OAMDMA.
type cpuBusAdapter struct {
	console *Console
}

func (a cpuBusAdapter) Read(address uint16) uint8 { return a.console.cpuMemory.Read(address) }
func (a cpuBusAdapter) AddStall(cycles uint64) { a.console.CPU.AddStall(cycles) }

// New parses rom as an iNES image and builds a fully wired Console.
func New(rom []byte) (*Console, error) {
	cart, err := cartridge.LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		return nil, err
	}

	c := &Console{
		PPU:       ppu.New(),
		APU:       apu.New(),
		Cartridge: cart,
		Input:     input.NewInputState(),
	}

	c.ppuMemory = memory.NewPPUMemory(cart)
	c.PPU.SetMemory(c.ppuMemory)
	c.PPU.SetMapper(cart)

	c.cpuMemory = memory.New(c.PPU, c.APU, cart)
	c.cpuMemory.SetInputSystem(c.Input)
	c.cpuMemory.SetDMACallback(c.triggerOAMDMA)

	c.CPU = cpu.New(c.cpuMemory)
	c.PPU.SetCPU(c.CPU)
	c.APU.SetCPUBus(cpuBusAdapter{console: c})

	c.PPU.SetWritePixelCallback(func(x, y int, rgb uint32) {
		if c.writePixel == nil {
			return
		}
		r := uint8(rgb >> 16)
		g := uint8(rgb >> 8)
		b := uint8(rgb)
		c.writePixel(y*256+x, r, g, b)
	})

	c.Reset()
	return c, nil
}

// SetWritePixelCallback wires the host's framebuffer sink, called once
// per pixel as the PPU renders each dot of the 240 visible scanlines
// (not as a batch flush at vblank).
func (c *Console) SetWritePixelCallback(fn func(offset int, r, g, b uint8)) {
	c.writePixel = fn
}

// SetAudioSampleCallback wires the host's audio sink, called ~44,100
// times per emulated second.
func (c *Console) SetAudioSampleCallback(fn func(sample float64)) {
	c.APU.SetSampleCallback(fn)
}

// Reset resets the CPU, PPU, APU, and controllers to their power-on
// state.
func (c *Console) Reset() {
	c.CPU.Reset()
	c.PPU.Reset()
	c.APU.Reset()
	c.Input.Reset()
}

// Step runs exactly one CPU instruction, then 3x that many PPU+mapper
// ticks, then that many APU ticks, and returns the CPU cycles consumed.
func (c *Console) Step() uint32 {
	cpuCycles := c.CPU.Step()
	c.cycles += cpuCycles

	for i := uint64(0); i < cpuCycles*3; i++ {
		c.PPU.Step()
	}

	for i := uint64(0); i < cpuCycles; i++ {
		c.APU.Step()
	}

	c.CPU.SetIRQ(c.Cartridge.IRQPending() || c.APU.IRQPending())

	return uint32(cpuCycles)
}

// RunForSeconds steps the console until floor(CPU_FREQUENCY*seconds)
// cycles have elapsed. The host is expected to clamp seconds to at
// most 200ms per call.
func (c *Console) RunForSeconds(seconds float64) {
	target := uint64(CPUFrequency * seconds)
	var elapsed uint64
	for elapsed < target {
		elapsed += uint64(c.Step())
	}
}

// ButtonDown presses the given button on the given player's
// controller (1 or 2).
func (c *Console) ButtonDown(player int, button input.Button) {
	c.controller(player).SetButton(button, true)
}

// ButtonUp releases the given button on the given player's
// controller.
func (c *Console) ButtonUp(player int, button input.Button) {
	c.controller(player).SetButton(button, false)
}

func (c *Console) controller(player int) *input.Controller {
	if player == 2 {
		return c.Input.Controller2
	}
	return c.Input.Controller1
}

// FrameBuffer returns the PPU's current back buffer, row-major,
// 256x240, packed 0x00RRGGBB per pixel.
func (c *Console) FrameBuffer() [256 * 240]uint32 {
	return c.PPU.GetFrameBuffer()
}

// SRAM returns the cartridge's battery-backed save RAM, if any.
func (c *Console) SRAM() []uint8 {
	return c.Cartridge.SRAM()
}

// triggerOAMDMA implements $4014: copy 256 bytes from CPU page
// page<<8 into OAM through the OAMDATA register (so writes honor the
// current OAMADDR cursor and wrap correctly), charging the CPU 513
// cycles, +1 if the DMA began on an odd CPU cycle.
func (c *Console) triggerOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		value := c.cpuMemory.Read(base + i)
		c.PPU.WriteRegister(0x2004, value)
	}

	stall := uint64(513)
	if c.CPU.Cycles()%2 == 1 {
		stall++
	}
	c.CPU.AddStall(stall)
}

// Nestest runs the nestest.nes automated test ROM's non-interactive
// mode: 8991 instructions from $C000 with the PPU/CPU state the test
// harness expects, emitting one trace line per instruction through
// sink before executing it.
func (c *Console) Nestest(sink func(line string)) {
	c.CPU.ResetForTest(0xC000, 7)
	c.PPU.Seek(0, 21)

	for i := 0; i < 8991; i++ {
		if sink != nil {
			sink(c.CPU.TraceLine(c.PPU.Scanline(), c.PPU.Cycle()))
		}

		cpuCycles := c.CPU.Step()
		for j := uint64(0); j < cpuCycles*3; j++ {
			c.PPU.Step()
		}
	}
}
