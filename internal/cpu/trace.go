package cpu

import "fmt"

var mnemonicTable = [256]string{
	0x00: "BRK", 0x01: "ORA", 0x02: "KIL", 0x03: "SLO", 0x04: "NOP", 0x05: "ORA", 0x06: "ASL", 0x07: "SLO",
	0x08: "PHP", 0x09: "ORA", 0x0A: "ASL", 0x0B: "ANC", 0x0C: "NOP", 0x0D: "ORA", 0x0E: "ASL", 0x0F: "SLO",
	0x10: "BPL", 0x11: "ORA", 0x12: "KIL", 0x13: "SLO", 0x14: "NOP", 0x15: "ORA", 0x16: "ASL", 0x17: "SLO",
	0x18: "CLC", 0x19: "ORA", 0x1A: "NOP", 0x1B: "SLO", 0x1C: "NOP", 0x1D: "ORA", 0x1E: "ASL", 0x1F: "SLO",
	0x20: "JSR", 0x21: "AND", 0x22: "KIL", 0x23: "RLA", 0x24: "BIT", 0x25: "AND", 0x26: "ROL", 0x27: "RLA",
	0x28: "PLP", 0x29: "AND", 0x2A: "ROL", 0x2B: "ANC", 0x2C: "BIT", 0x2D: "AND", 0x2E: "ROL", 0x2F: "RLA",
	0x30: "BMI", 0x31: "AND", 0x32: "KIL", 0x33: "RLA", 0x34: "NOP", 0x35: "AND", 0x36: "ROL", 0x37: "RLA",
	0x38: "SEC", 0x39: "AND", 0x3A: "NOP", 0x3B: "RLA", 0x3C: "NOP", 0x3D: "AND", 0x3E: "ROL", 0x3F: "RLA",
	0x40: "RTI", 0x41: "EOR", 0x42: "KIL", 0x43: "SRE", 0x44: "NOP", 0x45: "EOR", 0x46: "LSR", 0x47: "SRE",
	0x48: "PHA", 0x49: "EOR", 0x4A: "LSR", 0x4B: "ALR", 0x4C: "JMP", 0x4D: "EOR", 0x4E: "LSR", 0x4F: "SRE",
	0x50: "BVC", 0x51: "EOR", 0x52: "KIL", 0x53: "SRE", 0x54: "NOP", 0x55: "EOR", 0x56: "LSR", 0x57: "SRE",
	0x58: "CLI", 0x59: "EOR", 0x5A: "NOP", 0x5B: "SRE", 0x5C: "NOP", 0x5D: "EOR", 0x5E: "LSR", 0x5F: "SRE",
	0x60: "RTS", 0x61: "ADC", 0x62: "KIL", 0x63: "RRA", 0x64: "NOP", 0x65: "ADC", 0x66: "ROR", 0x67: "RRA",
	0x68: "PLA", 0x69: "ADC", 0x6A: "ROR", 0x6B: "ARR", 0x6C: "JMP", 0x6D: "ADC", 0x6E: "ROR", 0x6F: "RRA",
	0x70: "BVS", 0x71: "ADC", 0x72: "KIL", 0x73: "RRA", 0x74: "NOP", 0x75: "ADC", 0x76: "ROR", 0x77: "RRA",
	0x78: "SEI", 0x79: "ADC", 0x7A: "NOP", 0x7B: "RRA", 0x7C: "NOP", 0x7D: "ADC", 0x7E: "ROR", 0x7F: "RRA",
	0x80: "NOP", 0x81: "STA", 0x82: "NOP", 0x83: "SAX", 0x84: "STY", 0x85: "STA", 0x86: "STX", 0x87: "SAX",
	0x88: "DEY", 0x89: "NOP", 0x8A: "TXA", 0x8B: "XAA", 0x8C: "STY", 0x8D: "STA", 0x8E: "STX", 0x8F: "SAX",
	0x90: "BCC", 0x91: "STA", 0x92: "KIL", 0x93: "AHX", 0x94: "STY", 0x95: "STA", 0x96: "STX", 0x97: "SAX",
	0x98: "TYA", 0x99: "STA", 0x9A: "TXS", 0x9B: "TAS", 0x9C: "SHY", 0x9D: "STA", 0x9E: "SHX", 0x9F: "AHX",
	0xA0: "LDY", 0xA1: "LDA", 0xA2: "LDX", 0xA3: "LAX", 0xA4: "LDY", 0xA5: "LDA", 0xA6: "LDX", 0xA7: "LAX",
	0xA8: "TAY", 0xA9: "LDA", 0xAA: "TAX", 0xAB: "LAX", 0xAC: "LDY", 0xAD: "LDA", 0xAE: "LDX", 0xAF: "LAX",
	0xB0: "BCS", 0xB1: "LDA", 0xB2: "KIL", 0xB3: "LAX", 0xB4: "LDY", 0xB5: "LDA", 0xB6: "LDX", 0xB7: "LAX",
	0xB8: "CLV", 0xB9: "LDA", 0xBA: "TSX", 0xBB: "LAS", 0xBC: "LDY", 0xBD: "LDA", 0xBE: "LDX", 0xBF: "LAX",
	0xC0: "CPY", 0xC1: "CMP", 0xC2: "NOP", 0xC3: "DCP", 0xC4: "CPY", 0xC5: "CMP", 0xC6: "DEC", 0xC7: "DCP",
	0xC8: "INY", 0xC9: "CMP", 0xCA: "DEX", 0xCB: "AXS", 0xCC: "CPY", 0xCD: "CMP", 0xCE: "DEC", 0xCF: "DCP",
	0xD0: "BNE", 0xD1: "CMP", 0xD2: "KIL", 0xD3: "DCP", 0xD4: "NOP", 0xD5: "CMP", 0xD6: "DEC", 0xD7: "DCP",
	0xD8: "CLD", 0xD9: "CMP", 0xDA: "NOP", 0xDB: "DCP", 0xDC: "NOP", 0xDD: "CMP", 0xDE: "DEC", 0xDF: "DCP",
	0xE0: "CPX", 0xE1: "SBC", 0xE2: "NOP", 0xE3: "ISB", 0xE4: "CPX", 0xE5: "SBC", 0xE6: "INC", 0xE7: "ISB",
	0xE8: "INX", 0xE9: "SBC", 0xEA: "NOP", 0xEB: "SBC", 0xEC: "CPX", 0xED: "SBC", 0xEE: "INC", 0xEF: "ISB",
	0xF0: "BEQ", 0xF1: "SBC", 0xF2: "KIL", 0xF3: "ISB", 0xF4: "NOP", 0xF5: "SBC", 0xF6: "INC", 0xF7: "ISB",
	0xF8: "SED", 0xF9: "SBC", 0xFA: "NOP", 0xFB: "ISB", 0xFC: "NOP", 0xFD: "SBC", 0xFE: "INC", 0xFF: "ISB",
}

// officialMnemonics is the set of opcodes considered documented; every
// other table entry is prefixed with "*" in the trace, matching the
// nestest log convention.
var officialMnemonics = map[uint8]bool{
	0x00: true, 0x01: true, 0x05: true, 0x06: true, 0x08: true, 0x09: true, 0x0A: true, 0x0D: true, 0x0E: true,
	0x10: true, 0x11: true, 0x15: true, 0x16: true, 0x18: true, 0x19: true, 0x1D: true, 0x1E: true,
	0x20: true, 0x21: true, 0x24: true, 0x25: true, 0x26: true, 0x28: true, 0x29: true, 0x2A: true, 0x2C: true, 0x2D: true, 0x2E: true,
	0x30: true, 0x31: true, 0x35: true, 0x36: true, 0x38: true, 0x39: true, 0x3D: true, 0x3E: true,
	0x40: true, 0x41: true, 0x45: true, 0x46: true, 0x48: true, 0x49: true, 0x4A: true, 0x4C: true, 0x4D: true, 0x4E: true,
	0x50: true, 0x51: true, 0x55: true, 0x56: true, 0x58: true, 0x59: true, 0x5D: true, 0x5E: true,
	0x60: true, 0x61: true, 0x65: true, 0x66: true, 0x68: true, 0x69: true, 0x6A: true, 0x6C: true, 0x6D: true, 0x6E: true,
	0x70: true, 0x71: true, 0x75: true, 0x76: true, 0x78: true, 0x79: true, 0x7D: true, 0x7E: true,
	0x81: true, 0x84: true, 0x85: true, 0x86: true, 0x88: true, 0x8A: true, 0x8C: true, 0x8D: true, 0x8E: true,
	0x90: true, 0x91: true, 0x94: true, 0x95: true, 0x96: true, 0x98: true, 0x99: true, 0x9A: true, 0x9D: true,
	0xA0: true, 0xA1: true, 0xA2: true, 0xA4: true, 0xA5: true, 0xA6: true, 0xA8: true, 0xA9: true, 0xAA: true, 0xAC: true, 0xAD: true, 0xAE: true,
	0xB0: true, 0xB1: true, 0xB4: true, 0xB5: true, 0xB6: true, 0xB8: true, 0xB9: true, 0xBA: true, 0xBC: true, 0xBD: true, 0xBE: true,
	0xC0: true, 0xC1: true, 0xC4: true, 0xC5: true, 0xC6: true, 0xC8: true, 0xC9: true, 0xCA: true, 0xCC: true, 0xCD: true, 0xCE: true,
	0xD0: true, 0xD1: true, 0xD5: true, 0xD6: true, 0xD8: true, 0xD9: true, 0xDD: true, 0xDE: true,
	0xE0: true, 0xE1: true, 0xE4: true, 0xE5: true, 0xE6: true, 0xE8: true, 0xE9: true, 0xEA: true, 0xEC: true, 0xED: true, 0xEE: true,
	0xF0: true, 0xF1: true, 0xF5: true, 0xF6: true, 0xF8: true, 0xF9: true, 0xFD: true, 0xFE: true,
}

var modeTable [256]AddressingMode
var bytesTable [256]uint8

// nopMemory backs the throwaway CPU used only to read its own
// dispatch table; the trace formatter decodes against the same table
// Step executes against, so the two can never drift.
type nopMemory struct{}

func (nopMemory) Read(uint16) uint8 { return 0 }
func (nopMemory) Write(uint16, uint8) {}

func init() {
	stub := New(nopMemory{})
	for i, instr := range stub.instructions {
		if instr == nil {
			bytesTable[i] = 1
			continue
		}
		modeTable[i] = instr.Mode
		bytesTable[i] = instr.Bytes
	}
}

func instructionBytes(opcode uint8) uint8 {
	return bytesTable[opcode]
}

// TraceLine renders one nestest-format trace line for the instruction
// about to execute at the CPU's current PC. It must be called before
// Step so the displayed bytes/operand reflect the not-yet-executed
// instruction.
func (cpu *CPU) TraceLine(ppuScanline, ppuCycle int) string {
	pc := cpu.PC
	opcode := cpu.memory.Read(pc)
	size := instructionBytes(opcode)
	mode := modeTable[opcode]

	var raw [3]uint8
	raw[0] = opcode
	for i := uint8(1); i < size && i < 3; i++ {
		raw[i] = cpu.memory.Read(pc + uint16(i))
	}

	bytesHex := ""
	for i := uint8(0); i < size && i < 3; i++ {
		if i > 0 {
			bytesHex += " "
		}
		bytesHex += fmt.Sprintf("%02X", raw[i])
	}

	// The "*" marking an unofficial opcode occupies the column just
	// before the mnemonic, so the mnemonic column itself never moves.
	prefix := " "
	if !officialMnemonics[opcode] {
		prefix = "*"
	}

	operand := cpu.traceOperand(opcode, mode, pc, raw)
	disasm := mnemonicTable[opcode]
	if operand != "" {
		disasm += " " + operand
	}

	return fmt.Sprintf("%04X  %-8s %s%-32sA:%02X X:%02X Y:%02X P:%02X SP:%02X PPU:%3d,%3d CYC:%d",
		pc, bytesHex, prefix, disasm, cpu.A, cpu.X, cpu.Y, cpu.GetStatusByte(), cpu.SP,
		ppuScanline, ppuCycle, cpu.cycles)
}

// traceOperand renders the operand text for the disassembly column,
// following the classic nestest-log conventions: absolute targets of
// JMP/JSR show just the address, indirect JMP shows the pointer and the
// address it resolves to, while modes that actually
// read or write memory also show "= VV" (or the full indirection
// chain for indexed-indirect modes).
func (cpu *CPU) traceOperand(opcode uint8, mode AddressingMode, pc uint16, raw [3]uint8) string {
	isJump := opcode == 0x4C || opcode == 0x6C || opcode == 0x20

	switch mode {
	case Implied:
		return ""
	case Accumulator:
		return "A"
	case Immediate:
		return fmt.Sprintf("#$%02X", raw[1])
	case ZeroPage:
		value := cpu.memory.Read(uint16(raw[1]))
		return fmt.Sprintf("$%02X = %02X", raw[1], value)
	case ZeroPageX:
		eff := (raw[1] + cpu.X) & 0xFF
		value := cpu.memory.Read(uint16(eff))
		return fmt.Sprintf("$%02X,X @ %02X = %02X", raw[1], eff, value)
	case ZeroPageY:
		eff := (raw[1] + cpu.Y) & 0xFF
		value := cpu.memory.Read(uint16(eff))
		return fmt.Sprintf("$%02X,Y @ %02X = %02X", raw[1], eff, value)
	case Relative:
		offset := int8(raw[1])
		target := uint16(int32(pc+2) + int32(offset))
		return fmt.Sprintf("$%04X", target)
	case Absolute:
		address := uint16(raw[1]) | uint16(raw[2])<<8
		if isJump {
			return fmt.Sprintf("$%04X", address)
		}
		value := cpu.memory.Read(address)
		return fmt.Sprintf("$%04X = %02X", address, value)
	case AbsoluteX:
		base := uint16(raw[1]) | uint16(raw[2])<<8
		eff := base + uint16(cpu.X)
		value := cpu.memory.Read(eff)
		return fmt.Sprintf("$%04X,X @ %04X = %02X", base, eff, value)
	case AbsoluteY:
		base := uint16(raw[1]) | uint16(raw[2])<<8
		eff := base + uint16(cpu.Y)
		value := cpu.memory.Read(eff)
		return fmt.Sprintf("$%04X,Y @ %04X = %02X", base, eff, value)
	case Indirect:
		ptr := uint16(raw[1]) | uint16(raw[2])<<8
		var low, high uint16
		if ptr&0xFF == 0xFF {
			low = uint16(cpu.memory.Read(ptr))
			high = uint16(cpu.memory.Read(ptr & 0xFF00))
		} else {
			low = uint16(cpu.memory.Read(ptr))
			high = uint16(cpu.memory.Read(ptr + 1))
		}
		target := (high << 8) | low
		return fmt.Sprintf("($%04X) = %04X", ptr, target)
	case IndexedIndirect:
		zp := (raw[1] + cpu.X) & 0xFF
		low := uint16(cpu.memory.Read(uint16(zp)))
		high := uint16(cpu.memory.Read(uint16((zp + 1) & 0xFF)))
		address := (high << 8) | low
		value := cpu.memory.Read(address)
		return fmt.Sprintf("($%02X,X) @ %02X = %04X = %02X", raw[1], zp, address, value)
	case IndirectIndexed:
		low := uint16(cpu.memory.Read(uint16(raw[1])))
		high := uint16(cpu.memory.Read(uint16((raw[1] + 1) & 0xFF)))
		base := (high << 8) | low
		eff := base + uint16(cpu.Y)
		value := cpu.memory.Read(eff)
		return fmt.Sprintf("($%02X),Y = %04X @ %04X = %02X", raw[1], base, eff, value)
	default:
		return ""
	}
}
