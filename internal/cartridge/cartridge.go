// Package cartridge implements iNES ROM loading, mirroring, and the
// cartridge memory mappers (0, 1, 2, 3, 4, 7).
package cartridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Error kinds from the core's error taxonomy. BusAddressUnmapped is not
// modeled as an error here: unmapped cartridge reads/writes are handled
// silently (open bus / dropped write) by the mappers themselves.
var (
	ErrInvalidRom        = errors.New("cartridge: invalid iNES rom")
	ErrUnsupportedMapper = errors.New("cartridge: unsupported mapper")
	ErrMapperBusFault    = errors.New("cartridge: mapper bus fault")
)

// Cartridge owns PRG-ROM, CHR-ROM/RAM, battery-backed SRAM, and the
// mapper that bank-switches them. It is immutable after load except for
// CHR-RAM, SRAM, and the mirroring mode (which mappers 1, 4, and 7 may
// rewrite at runtime).
type Cartridge struct {
	prgROM []uint8
	chrROM []uint8
	chrRAM bool // true when chrROM is actually writable RAM

	mapperID uint8
	mapper   Mapper

	mirror     MirrorMode
	hasBattery bool
	sram       [0x2000]uint8
}

// MirrorMode is the nametable mirroring mode, the single mirroring enum
// used throughout the module (ppu and memory both reference this type
// directly rather than keeping their own copies).
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

// nametableLookup is the fixed nametable mirroring table: for each
// mode, which of the four 0x400-byte VRAM banks each of the four
// nametables maps to.
var nametableLookup = [5][4]uint16{
	MirrorHorizontal:    {0, 0, 1, 1},
	MirrorVertical:      {0, 1, 0, 1},
	MirrorSingleScreen0: {0, 0, 0, 0},
	MirrorSingleScreen1: {1, 1, 1, 1},
	MirrorFourScreen:    {0, 1, 2, 3},
}

// MirrorAddress maps a PPU nametable address ($2000-$2FFF, or any
// address congruent to it mod $1000) to its canonical $2000-based
// address after mirroring.
func MirrorAddress(mode MirrorMode, addr uint16) uint16 {
	addr &= 0x0FFF
	nametable := addr / 0x400
	offset := addr & 0x3FF
	return 0x2000 + nametableLookup[mode][nametable]*0x400 + offset
}

// Mapper is implemented by every cartridge mapper variant. Step is
// called once per PPU tick, with the PPU's current scanline/cycle and
// whether rendering is enabled, so mapper 4 can drive its scanline IRQ.
type Mapper interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
	Step(scanline int, cycle int, renderingEnabled bool)
	IRQPending() bool
	ClearIRQ()
}

type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8
	CHRROMSize uint8
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

// LoadFromFile loads a cartridge from an iNES file on disk.
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader parses an iNES v1 image.
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	var header iNESHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRom, err)
	}

	if string(header.Magic[:]) != "NES\x1A" {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidRom)
	}
	if header.PRGROMSize == 0 {
		return nil, fmt.Errorf("%w: prg rom size is zero", ErrInvalidRom)
	}

	cart := &Cartridge{
		mapperID:   (header.Flags6 >> 4) | (header.Flags7 & 0xF0),
		hasBattery: (header.Flags6 & 0x02) != 0,
	}

	switch {
	case header.Flags6&0x08 != 0:
		cart.mirror = MirrorFourScreen
	case header.Flags6&0x01 != 0:
		cart.mirror = MirrorVertical
	default:
		cart.mirror = MirrorHorizontal
	}

	if header.Flags6&0x04 != 0 {
		trainer := make([]uint8, 512)
		if _, err := io.ReadFull(r, trainer); err != nil {
			return nil, fmt.Errorf("%w: short trainer: %v", ErrInvalidRom, err)
		}
	}

	prgSize := int(header.PRGROMSize) * 16384
	cart.prgROM = make([]uint8, prgSize)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, fmt.Errorf("%w: short prg rom: %v", ErrInvalidRom, err)
	}

	chrSize := int(header.CHRROMSize) * 8192
	if chrSize > 0 {
		cart.chrROM = make([]uint8, chrSize)
		if _, err := io.ReadFull(r, cart.chrROM); err != nil {
			return nil, fmt.Errorf("%w: short chr rom: %v", ErrInvalidRom, err)
		}
	} else {
		cart.chrROM = make([]uint8, 8192)
		cart.chrRAM = true
	}

	mapper, err := createMapper(cart.mapperID, cart)
	if err != nil {
		return nil, err
	}
	cart.mapper = mapper

	return cart, nil
}

// ReadPRG reads from PRG ROM/RAM through the mapper.
func (c *Cartridge) ReadPRG(address uint16) uint8 { return c.mapper.ReadPRG(address) }

// WritePRG writes to PRG RAM or a mapper control register.
func (c *Cartridge) WritePRG(address uint16, value uint8) { c.mapper.WritePRG(address, value) }

// ReadCHR reads from CHR ROM/RAM through the mapper.
func (c *Cartridge) ReadCHR(address uint16) uint8 { return c.mapper.ReadCHR(address) }

// WriteCHR writes to CHR RAM through the mapper.
func (c *Cartridge) WriteCHR(address uint16, value uint8) { c.mapper.WriteCHR(address, value) }

// Step clocks the mapper once per PPU tick (only mapper 4 uses this).
func (c *Cartridge) Step(scanline, cycle int, renderingEnabled bool) {
	c.mapper.Step(scanline, cycle, renderingEnabled)
}

// IRQPending reports whether the mapper is asserting its IRQ line.
func (c *Cartridge) IRQPending() bool { return c.mapper.IRQPending() }

// ClearIRQ lowers the mapper's IRQ line.
func (c *Cartridge) ClearIRQ() { c.mapper.ClearIRQ() }

// MirrorMode returns the current nametable mirroring mode, which
// mappers 1, 4, and 7 may change at runtime.
func (c *Cartridge) MirrorMode() MirrorMode { return c.mirror }

// HasBattery reports whether the cartridge has battery-backed SRAM.
func (c *Cartridge) HasBattery() bool { return c.hasBattery }

// SRAM returns the 8 KiB battery-backed save-RAM buffer for the host to
// persist; the core never persists it itself.
func (c *Cartridge) SRAM() []uint8 { return c.sram[:] }

func createMapper(id uint8, cart *Cartridge) (Mapper, error) {
	switch id {
	case 0:
		return NewMapper000(cart), nil
	case 1:
		return NewMapper001(cart), nil
	case 2:
		return NewMapper002(cart), nil
	case 3:
		return NewMapper003(cart), nil
	case 4:
		return NewMapper004(cart), nil
	case 7:
		return NewMapper007(cart), nil
	default:
		return nil, fmt.Errorf("%w: mapper %d", ErrUnsupportedMapper, id)
	}
}
