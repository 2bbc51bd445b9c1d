// Package ppu implements the NES Picture Processing Unit (2C02): the
// 341x262 cycle/scanline timing grid, the background shift-register
// pipeline, sprite evaluation, and the NMI delay line.
package ppu

import "github.com/nes-emu/gones/internal/memory"

const (
	cyclesPerScanline = 341
	scanlinesPerFrame = 262
	visibleScanlines  = 240
	postRenderLine    = 240
	vblankStartLine   = 241
	preRenderLine     = 261

	screenWidth  = 256
	screenHeight = 240
)

// CPU is the subset of cpu.CPU the PPU needs: requesting an NMI.
type CPU interface {
	TriggerNMI()
}

type spriteSlot struct {
	low   uint8
	high  uint8
	x     uint8
	attrs uint8
	index int
}

// PPU is the NES 2C02.
type PPU struct {
	ppuCtrl   uint8
	ppuMask   uint8
	ppuStatus uint8
	oamAddr   uint8

	v uint16
	t uint16
	x uint8
	w bool

	readBuffer uint8
	openBus    uint8

	memory *memory.PPUMemory
	mapper interface {
		Step(scanline, cycle int, renderingEnabled bool)
	}

	scanline int
	cycle    int
	frame    uint64
	oddFrame bool

	// Background pipeline.
	tileData     uint64
	ntByte       uint8
	attrByte     uint8
	lowTileByte  uint8
	highTileByte uint8

	// Sprite pipeline.
	oam            [256]uint8
	secondaryOAM   [8]spriteSlot
	spriteCount    int
	spriteOverflow bool

	// NMI occurred/output/previous/delay line model.
	nmiOccurred bool
	nmiOutput   bool
	nmiPrevious bool
	nmiDelay    int

	cpu CPU

	frameBuffer [screenWidth * screenHeight]uint32

	writePixel    func(x, y int, rgb uint32)
	frameComplete func()
}

// New creates a PPU. SetMemory and SetCPU must be called before Step.
func New() *PPU {
	p := &PPU{scanline: preRenderLine}
	return p
}

// SetMemory wires the PPU's 14-bit address space (pattern tables via
// mapper, nametables, palette RAM).
func (p *PPU) SetMemory(mem *memory.PPUMemory) { p.memory = mem }

// SetCPU wires the CPU that receives TriggerNMI calls.
func (p *PPU) SetCPU(cpu CPU) { p.cpu = cpu }

// SetMapper wires the mapper hook driven once per PPU tick, used by
// MMC3's scanline IRQ counter.
func (p *PPU) SetMapper(mapper interface {
	Step(scanline, cycle int, renderingEnabled bool)
}) {
	p.mapper = mapper
}

// SetWritePixelCallback wires the host's framebuffer sink.
func (p *PPU) SetWritePixelCallback(fn func(x, y int, rgb uint32)) { p.writePixel = fn }

// SetFrameCompleteCallback wires the host's vsync notification.
func (p *PPU) SetFrameCompleteCallback(fn func()) { p.frameComplete = fn }

// Reset returns the PPU to its post-power-on state.
func (p *PPU) Reset() {
	p.ppuCtrl, p.ppuMask, p.ppuStatus = 0, 0, 0
	p.oamAddr = 0
	p.v, p.t, p.x = 0, 0, 0
	p.w = false
	p.readBuffer = 0
	p.scanline = preRenderLine
	p.cycle = 0
	p.frame = 0
	p.oddFrame = false
	p.tileData = 0
	p.spriteCount = 0
	p.spriteOverflow = false
	p.nmiOccurred, p.nmiOutput, p.nmiPrevious = false, false, false
	p.nmiDelay = 0
	for i := range p.oam {
		p.oam[i] = 0
	}
	for i := range p.frameBuffer {
		p.frameBuffer[i] = 0
	}
}

func (p *PPU) backgroundEnabled() bool { return p.ppuMask&0x08 != 0 }
func (p *PPU) spritesEnabled() bool { return p.ppuMask&0x10 != 0 }
func (p *PPU) renderingEnabled() bool { return p.backgroundEnabled() || p.spritesEnabled() }

// ReadRegister reads a CPU-visible PPU register ($2000-$2007).
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address & 7 {
	case 0, 1, 3, 5, 6:
		return p.openBus & 0x1F
	case 2:
		status := p.openBus & 0x1F
		if p.spriteOverflow {
			status |= 0x20
		}
		if p.ppuStatus&0x40 != 0 {
			status |= 0x40
		}
		if p.nmiOccurred {
			status |= 0x80
		}
		p.nmiOccurred = false
		p.w = false
		return status
	case 4:
		value := p.oam[p.oamAddr]
		if p.oamAddr&0x03 == 2 {
			value &= 0xE3
		}
		return value
	case 7:
		return p.readPPUData()
	}
	return 0
}

// WriteRegister writes a CPU-visible PPU register ($2000-$2007).
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.openBus = value
	switch address & 7 {
	case 0:
		p.ppuCtrl = value
		p.t = (p.t & 0xF3FF) | ((uint16(value) & 0x03) << 10)
		p.nmiOutput = value&0x80 != 0
	case 1:
		p.ppuMask = value
	case 2:
		// read-only
	case 3:
		p.oamAddr = value
	case 4:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 5:
		p.writePPUScroll(value)
	case 6:
		p.writePPUAddr(value)
	case 7:
		p.writePPUData(value)
	}
}

// WriteOAM writes OAM at the given index, bypassing OAMADDR. $4014
// OAMDMA does not use it; it writes through $2004 instead.
func (p *PPU) WriteOAM(address uint8, value uint8) { p.oam[address] = value }

func (p *PPU) writePPUScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | (uint16(value) >> 3)
		p.x = value & 0x07
		p.w = true
	} else {
		p.t = (p.t & 0x8FFF) | ((uint16(value) & 0x07) << 12)
		p.t = (p.t & 0xFC1F) | ((uint16(value) & 0xF8) << 2)
		p.w = false
	}
}

func (p *PPU) writePPUAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | ((uint16(value) & 0x3F) << 8)
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
		p.w = false
	}
}

func (p *PPU) readPPUData() uint8 {
	var data uint8
	if p.v&0x3FFF >= 0x3F00 {
		data = p.memory.Read(p.v)
		p.readBuffer = p.memory.Read(p.v & 0x2FFF)
	} else {
		data = p.readBuffer
		p.readBuffer = p.memory.Read(p.v)
	}
	p.incrementVRAMAddress()
	return data
}

func (p *PPU) writePPUData(value uint8) {
	p.memory.Write(p.v, value)
	p.incrementVRAMAddress()
}

func (p *PPU) incrementVRAMAddress() {
	if p.ppuCtrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x3FFF
}

// Step advances the PPU by one PPU cycle.
func (p *PPU) Step() {
	p.tick()

	rendering := p.renderingEnabled()
	if p.mapper != nil {
		p.mapper.Step(p.scanline, p.cycle, rendering)
	}

	// The pixel for this dot is composed from the shift registers as
	// they stand, before renderStep slides them for the next dot.
	if p.scanline < visibleScanlines && p.cycle >= 1 && p.cycle <= screenWidth {
		p.emitPixel()
	}
	isRenderLine := p.scanline < visibleScanlines || p.scanline == preRenderLine
	if isRenderLine && rendering {
		p.renderStep()
	}

	p.updateNMI()
}

// tick advances cycle/scanline/frame, handling the odd-frame cycle-339
// skip and the vblank set/clear edges.
func (p *PPU) tick() {
	if p.scanline == preRenderLine && p.cycle == 339 && p.oddFrame && p.renderingEnabled() {
		p.cycle = 0
		p.scanline = 0
		p.frame++
		p.oddFrame = !p.oddFrame
		return
	}

	p.cycle++
	if p.cycle >= cyclesPerScanline {
		p.cycle = 0
		p.scanline++
		if p.scanline >= scanlinesPerFrame {
			p.scanline = 0
			p.frame++
			p.oddFrame = !p.oddFrame
		}
	}

	if p.scanline == vblankStartLine && p.cycle == 1 {
		p.nmiOccurred = true
		if p.frameComplete != nil {
			p.frameComplete()
		}
	}
	if p.scanline == preRenderLine && p.cycle == 1 {
		p.nmiOccurred = false
		p.ppuStatus &^= 0x40
		p.spriteOverflow = false
	}
}

// updateNMI implements the occurred/output/previous/delay line model:
// a 0->1 transition of (output && occurred) schedules CPU.TriggerNMI
// 15 PPU ticks later.
func (p *PPU) updateNMI() {
	nmi := p.nmiOutput && p.nmiOccurred
	if p.nmiDelay > 0 {
		p.nmiDelay--
		if p.nmiDelay == 0 && nmi && p.cpu != nil {
			p.cpu.TriggerNMI()
		}
	}
	if nmi && !p.nmiPrevious {
		p.nmiDelay = 15
	}
	p.nmiPrevious = nmi
}

// renderStep drives the background pipeline and scroll-register
// arithmetic for render lines: cycles 1-256 and 321-336 shift the
// tile-data register, then fetch (shift-then-store order); 257 copies
// x and evaluates sprites for the next scanline (the pre-render line
// evaluates for line 0); 280-304 of the pre-line copy y.
func (p *PPU) renderStep() {
	fetchCycle := (p.cycle >= 1 && p.cycle <= 256) || (p.cycle >= 321 && p.cycle <= 336)
	if fetchCycle {
		p.tileData <<= 4
		switch p.cycle % 8 {
		case 1:
			p.ntByte = p.memory.Read(0x2000 | (p.v & 0x0FFF))
		case 3:
			addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
			p.attrByte = p.memory.Read(addr)
		case 5:
			table := uint16(0)
			if p.ppuCtrl&0x10 != 0 {
				table = 0x1000
			}
			fineY := (p.v >> 12) & 0x07
			p.lowTileByte = p.memory.Read(table + uint16(p.ntByte)*16 + fineY)
		case 7:
			table := uint16(0)
			if p.ppuCtrl&0x10 != 0 {
				table = 0x1000
			}
			fineY := (p.v >> 12) & 0x07
			p.highTileByte = p.memory.Read(table + uint16(p.ntByte)*16 + fineY + 8)
		case 0:
			p.loadTileShift()
			p.incrementX()
		}
	}

	if p.cycle == 256 {
		p.incrementY()
	}
	if p.cycle == 257 {
		p.copyX()
		if p.scanline < visibleScanlines || p.scanline == preRenderLine {
			p.evaluateSprites()
		}
	}
	if p.scanline == preRenderLine && p.cycle >= 280 && p.cycle <= 304 {
		p.copyY()
	}
}

// loadTileShift packs the just-fetched tile's 8 pixels (2 pattern bits
// + 2 attribute bits each) into a 32-bit slice and feeds it into the
// low half of the 64-bit tile-data register; the per-cycle left shift
// carries it up into the high half over the next 8 cycles.
func (p *PPU) loadTileShift() {
	attrShift := ((p.v >> 4) & 4) | (p.v & 2)
	paletteBits := uint32((p.attrByte>>attrShift)&0x03) << 2

	var slice uint32
	for bit := 7; bit >= 0; bit-- {
		lowBit := (p.lowTileByte >> uint(bit)) & 1
		highBit := (p.highTileByte >> uint(bit)) & 1
		pixel := uint32(highBit)<<1 | uint32(lowBit)
		slice = (slice << 4) | (paletteBits | pixel)
	}
	p.tileData |= uint64(slice)
}

func (p *PPU) incrementX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

func (p *PPU) copyX() {
	p.v = (p.v & 0xFBE0) | (p.t & 0x041F)
}

func (p *PPU) copyY() {
	p.v = (p.v & 0x841F) | (p.t & 0x7BE0)
}

// evaluateSprites scans the 64 OAM entries for the scanline about to
// be rendered next, keeping up to 8 and setting overflow past that.
func (p *PPU) evaluateSprites() {
	for i := range p.secondaryOAM {
		p.secondaryOAM[i] = spriteSlot{}
	}
	p.spriteCount = 0

	height := 8
	if p.ppuCtrl&0x20 != 0 {
		height = 16
	}

	targetLine := p.scanline + 1
	if p.scanline == preRenderLine {
		targetLine = 0
	}
	found := 0
	for i := 0; i < 64; i++ {
		base := i * 4
		y := int(p.oam[base])
		if targetLine < y+1 || targetLine >= y+1+height {
			continue
		}
		if found >= 8 {
			p.spriteOverflow = true
			p.ppuStatus |= 0x20
			break
		}

		tile := p.oam[base+1]
		attrs := p.oam[base+2]
		x := p.oam[base+3]
		row := targetLine - (y + 1)
		if attrs&0x80 != 0 {
			row = height - 1 - row
		}

		var table uint16
		patternTile := tile
		if height == 16 {
			if tile&1 != 0 {
				table = 0x1000
			}
			patternTile &^= 1
			if row >= 8 {
				patternTile++
				row -= 8
			}
		} else if p.ppuCtrl&0x08 != 0 {
			table = 0x1000
		}

		addr := table + uint16(patternTile)*16 + uint16(row)
		low := p.memory.Read(addr)
		high := p.memory.Read(addr + 8)
		if attrs&0x40 != 0 {
			low = reverseBits(low)
			high = reverseBits(high)
		}

		p.secondaryOAM[found] = spriteSlot{low: low, high: high, x: x, attrs: attrs, index: i}
		found++
	}
	p.spriteCount = found
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// emitPixel composes the background and sprite pixel for the dot at
// (cycle-1, scanline) and writes the resolved color to the frame
// buffer per the 2C02 priority and sprite-0-hit rules.
func (p *PPU) emitPixel() {
	x := p.cycle - 1
	y := p.scanline

	var bg uint8
	if p.backgroundEnabled() && !(x < 8 && p.ppuMask&0x02 == 0) {
		high32 := uint32(p.tileData >> 32)
		bg = uint8((high32 >> uint((7-p.x)*4)) & 0xF)
	}

	var sprite uint8
	var spriteIdx int = -1
	var spritePriority bool
	if p.spritesEnabled() && !(x < 8 && p.ppuMask&0x04 == 0) {
		for i := 0; i < p.spriteCount; i++ {
			slot := p.secondaryOAM[i]
			offset := x - int(slot.x)
			if offset < 0 || offset > 7 {
				continue
			}
			bit := 7 - offset
			lowBit := (slot.low >> uint(bit)) & 1
			highBit := (slot.high >> uint(bit)) & 1
			colorIndex := highBit<<1 | lowBit
			if colorIndex == 0 {
				continue
			}
			sprite = (slot.attrs&0x03)<<2 | colorIndex
			spriteIdx = slot.index
			spritePriority = slot.attrs&0x20 != 0
			break
		}
	}

	var color uint8
	bgOpaque := bg&0x03 != 0
	spOpaque := sprite&0x03 != 0

	switch {
	case !bgOpaque && !spOpaque:
		color = 0
	case !bgOpaque && spOpaque:
		color = sprite | 0x10
	case bgOpaque && !spOpaque:
		color = bg
	default:
		if spriteIdx == 0 && x < 255 {
			p.ppuStatus |= 0x40
		}
		if !spritePriority {
			color = sprite | 0x10
		} else {
			color = bg
		}
	}

	paletteValue := p.memory.Read(0x3F00 + uint16(color))
	if p.ppuMask&0x01 != 0 {
		paletteValue &= 0x30
	} else {
		paletteValue &= 0x3F
	}
	rgb := nesColorPalette[paletteValue&0x3F] & 0x00FFFFFF

	p.frameBuffer[y*screenWidth+x] = rgb
	if p.writePixel != nil {
		p.writePixel(x, y, rgb)
	}
}

// GetFrameBuffer returns a copy of the frame buffer as it stands. Each
// dot is written in place as it renders, so a copy taken during the
// visible scanlines mixes the frame in progress with the previous one.
func (p *PPU) GetFrameBuffer() [screenWidth * screenHeight]uint32 { return p.frameBuffer }

// FrameCount returns the number of frames completed.
func (p *PPU) FrameCount() uint64 { return p.frame }

// Scanline and Cycle expose current PPU timing state for the nestest
// trace formatter and for mapper IRQ bookkeeping.
func (p *PPU) Scanline() int { return p.scanline }
func (p *PPU) Cycle() int { return p.cycle }

// Seek forces the scanline/cycle timing state directly, used only by
// the nestest harness to match the test ROM's documented starting
// point (scanline 0, cycle 21) instead of the normal post-power-on
// pre-render line.
func (p *PPU) Seek(scanline, cycle int) {
	p.scanline = scanline
	p.cycle = cycle
}

var nesColorPalette = [64]uint32{
	0xFF666666, 0xFF002A88, 0xFF1412A7, 0xFF3B00A4, 0xFF5C007E, 0xFF6E0040, 0xFF6C0600, 0xFF561D00,
	0xFF333500, 0xFF0B4800, 0xFF005200, 0xFF004F08, 0xFF00404D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFADADAD, 0xFF155FD9, 0xFF4240FF, 0xFF7527FE, 0xFFA01ACC, 0xFFB71E7B, 0xFFB53120, 0xFF994E00,
	0xFF6B6D00, 0xFF388700, 0xFF0C9300, 0xFF008F32, 0xFF007C8D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFF64B0FF, 0xFF9290FF, 0xFFC676FF, 0xFFF36AFF, 0xFFFE6ECC, 0xFFFE8170, 0xFFEA9E22,
	0xFFBCBE00, 0xFF88D800, 0xFF5CE430, 0xFF45E082, 0xFF48CDDE, 0xFF4F4F4F, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFFC0DFFF, 0xFFD3D2FF, 0xFFE8C8FF, 0xFFFBC2FF, 0xFFFEC4EA, 0xFFFECCC5, 0xFFF7D8A5,
	0xFFE4E594, 0xFFCFF29B, 0xFFBEFBB3, 0xFFB8F8D8, 0xFFB8F8F8, 0xFF000000, 0xFF000000, 0xFF000000,
}
