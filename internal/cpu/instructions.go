package cpu

// initInstructions populates the 256-entry dispatch table with each
// opcode's size, base cycle count, and addressing mode. Execution
// itself happens in executeInstruction's opcode switch; this table
// only drives operand fetching, cycle accounting, and the trace
// formatter.
func (cpu *CPU) initInstructions() {
	add := func(opcode uint8, name string, bytes, cycles uint8, mode AddressingMode, unofficial bool) {
		cpu.instructions[opcode] = &Instruction{
			Name: name, Opcode: opcode, Bytes: bytes, Cycles: cycles, Mode: mode, Unofficial: unofficial,
		}
	}

	// Official opcodes.
	add(0x00, "BRK", 1, 7, Implied, false)
	add(0x01, "ORA", 2, 6, IndexedIndirect, false)
	add(0x05, "ORA", 2, 3, ZeroPage, false)
	add(0x06, "ASL", 2, 5, ZeroPage, false)
	add(0x08, "PHP", 1, 3, Implied, false)
	add(0x09, "ORA", 2, 2, Immediate, false)
	add(0x0A, "ASL", 1, 2, Accumulator, false)
	add(0x0D, "ORA", 3, 4, Absolute, false)
	add(0x0E, "ASL", 3, 6, Absolute, false)

	add(0x10, "BPL", 2, 2, Relative, false)
	add(0x11, "ORA", 2, 5, IndirectIndexed, false)
	add(0x15, "ORA", 2, 4, ZeroPageX, false)
	add(0x16, "ASL", 2, 6, ZeroPageX, false)
	add(0x18, "CLC", 1, 2, Implied, false)
	add(0x19, "ORA", 3, 4, AbsoluteY, false)
	add(0x1D, "ORA", 3, 4, AbsoluteX, false)
	add(0x1E, "ASL", 3, 7, AbsoluteX, false)

	add(0x20, "JSR", 3, 6, Absolute, false)
	add(0x21, "AND", 2, 6, IndexedIndirect, false)
	add(0x24, "BIT", 2, 3, ZeroPage, false)
	add(0x25, "AND", 2, 3, ZeroPage, false)
	add(0x26, "ROL", 2, 5, ZeroPage, false)
	add(0x28, "PLP", 1, 4, Implied, false)
	add(0x29, "AND", 2, 2, Immediate, false)
	add(0x2A, "ROL", 1, 2, Accumulator, false)
	add(0x2C, "BIT", 3, 4, Absolute, false)
	add(0x2D, "AND", 3, 4, Absolute, false)
	add(0x2E, "ROL", 3, 6, Absolute, false)

	add(0x30, "BMI", 2, 2, Relative, false)
	add(0x31, "AND", 2, 5, IndirectIndexed, false)
	add(0x35, "AND", 2, 4, ZeroPageX, false)
	add(0x36, "ROL", 2, 6, ZeroPageX, false)
	add(0x38, "SEC", 1, 2, Implied, false)
	add(0x39, "AND", 3, 4, AbsoluteY, false)
	add(0x3D, "AND", 3, 4, AbsoluteX, false)
	add(0x3E, "ROL", 3, 7, AbsoluteX, false)

	add(0x40, "RTI", 1, 6, Implied, false)
	add(0x41, "EOR", 2, 6, IndexedIndirect, false)
	add(0x45, "EOR", 2, 3, ZeroPage, false)
	add(0x46, "LSR", 2, 5, ZeroPage, false)
	add(0x48, "PHA", 1, 3, Implied, false)
	add(0x49, "EOR", 2, 2, Immediate, false)
	add(0x4A, "LSR", 1, 2, Accumulator, false)
	add(0x4C, "JMP", 3, 3, Absolute, false)
	add(0x4D, "EOR", 3, 4, Absolute, false)
	add(0x4E, "LSR", 3, 6, Absolute, false)

	add(0x50, "BVC", 2, 2, Relative, false)
	add(0x51, "EOR", 2, 5, IndirectIndexed, false)
	add(0x55, "EOR", 2, 4, ZeroPageX, false)
	add(0x56, "LSR", 2, 6, ZeroPageX, false)
	add(0x58, "CLI", 1, 2, Implied, false)
	add(0x59, "EOR", 3, 4, AbsoluteY, false)
	add(0x5D, "EOR", 3, 4, AbsoluteX, false)
	add(0x5E, "LSR", 3, 7, AbsoluteX, false)

	add(0x60, "RTS", 1, 6, Implied, false)
	add(0x61, "ADC", 2, 6, IndexedIndirect, false)
	add(0x65, "ADC", 2, 3, ZeroPage, false)
	add(0x66, "ROR", 2, 5, ZeroPage, false)
	add(0x68, "PLA", 1, 4, Implied, false)
	add(0x69, "ADC", 2, 2, Immediate, false)
	add(0x6A, "ROR", 1, 2, Accumulator, false)
	add(0x6C, "JMP", 3, 5, Indirect, false)
	add(0x6D, "ADC", 3, 4, Absolute, false)
	add(0x6E, "ROR", 3, 6, Absolute, false)

	add(0x70, "BVS", 2, 2, Relative, false)
	add(0x71, "ADC", 2, 5, IndirectIndexed, false)
	add(0x75, "ADC", 2, 4, ZeroPageX, false)
	add(0x76, "ROR", 2, 6, ZeroPageX, false)
	add(0x78, "SEI", 1, 2, Implied, false)
	add(0x79, "ADC", 3, 4, AbsoluteY, false)
	add(0x7D, "ADC", 3, 4, AbsoluteX, false)
	add(0x7E, "ROR", 3, 7, AbsoluteX, false)

	add(0x81, "STA", 2, 6, IndexedIndirect, false)
	add(0x84, "STY", 2, 3, ZeroPage, false)
	add(0x85, "STA", 2, 3, ZeroPage, false)
	add(0x86, "STX", 2, 3, ZeroPage, false)
	add(0x88, "DEY", 1, 2, Implied, false)
	add(0x8A, "TXA", 1, 2, Implied, false)
	add(0x8C, "STY", 3, 4, Absolute, false)
	add(0x8D, "STA", 3, 4, Absolute, false)
	add(0x8E, "STX", 3, 4, Absolute, false)

	add(0x90, "BCC", 2, 2, Relative, false)
	add(0x91, "STA", 2, 6, IndirectIndexed, false)
	add(0x94, "STY", 2, 4, ZeroPageX, false)
	add(0x95, "STA", 2, 4, ZeroPageX, false)
	add(0x96, "STX", 2, 4, ZeroPageY, false)
	add(0x98, "TYA", 1, 2, Implied, false)
	add(0x99, "STA", 3, 5, AbsoluteY, false)
	add(0x9A, "TXS", 1, 2, Implied, false)
	add(0x9D, "STA", 3, 5, AbsoluteX, false)

	add(0xA0, "LDY", 2, 2, Immediate, false)
	add(0xA1, "LDA", 2, 6, IndexedIndirect, false)
	add(0xA2, "LDX", 2, 2, Immediate, false)
	add(0xA4, "LDY", 2, 3, ZeroPage, false)
	add(0xA5, "LDA", 2, 3, ZeroPage, false)
	add(0xA6, "LDX", 2, 3, ZeroPage, false)
	add(0xA8, "TAY", 1, 2, Implied, false)
	add(0xA9, "LDA", 2, 2, Immediate, false)
	add(0xAA, "TAX", 1, 2, Implied, false)
	add(0xAC, "LDY", 3, 4, Absolute, false)
	add(0xAD, "LDA", 3, 4, Absolute, false)
	add(0xAE, "LDX", 3, 4, Absolute, false)

	add(0xB0, "BCS", 2, 2, Relative, false)
	add(0xB1, "LDA", 2, 5, IndirectIndexed, false)
	add(0xB4, "LDY", 2, 4, ZeroPageX, false)
	add(0xB5, "LDA", 2, 4, ZeroPageX, false)
	add(0xB6, "LDX", 2, 4, ZeroPageY, false)
	add(0xB8, "CLV", 1, 2, Implied, false)
	add(0xB9, "LDA", 3, 4, AbsoluteY, false)
	add(0xBA, "TSX", 1, 2, Implied, false)
	add(0xBC, "LDY", 3, 4, AbsoluteX, false)
	add(0xBD, "LDA", 3, 4, AbsoluteX, false)
	add(0xBE, "LDX", 3, 4, AbsoluteY, false)

	add(0xC0, "CPY", 2, 2, Immediate, false)
	add(0xC1, "CMP", 2, 6, IndexedIndirect, false)
	add(0xC4, "CPY", 2, 3, ZeroPage, false)
	add(0xC5, "CMP", 2, 3, ZeroPage, false)
	add(0xC6, "DEC", 2, 5, ZeroPage, false)
	add(0xC8, "INY", 1, 2, Implied, false)
	add(0xC9, "CMP", 2, 2, Immediate, false)
	add(0xCA, "DEX", 1, 2, Implied, false)
	add(0xCC, "CPY", 3, 4, Absolute, false)
	add(0xCD, "CMP", 3, 4, Absolute, false)
	add(0xCE, "DEC", 3, 6, Absolute, false)

	add(0xD0, "BNE", 2, 2, Relative, false)
	add(0xD1, "CMP", 2, 5, IndirectIndexed, false)
	add(0xD5, "CMP", 2, 4, ZeroPageX, false)
	add(0xD6, "DEC", 2, 6, ZeroPageX, false)
	add(0xD8, "CLD", 1, 2, Implied, false)
	add(0xD9, "CMP", 3, 4, AbsoluteY, false)
	add(0xDD, "CMP", 3, 4, AbsoluteX, false)
	add(0xDE, "DEC", 3, 7, AbsoluteX, false)

	add(0xE0, "CPX", 2, 2, Immediate, false)
	add(0xE1, "SBC", 2, 6, IndexedIndirect, false)
	add(0xE4, "CPX", 2, 3, ZeroPage, false)
	add(0xE5, "SBC", 2, 3, ZeroPage, false)
	add(0xE6, "INC", 2, 5, ZeroPage, false)
	add(0xE8, "INX", 1, 2, Implied, false)
	add(0xE9, "SBC", 2, 2, Immediate, false)
	add(0xEA, "NOP", 1, 2, Implied, false)
	add(0xEB, "SBC", 2, 2, Immediate, true)
	add(0xEC, "CPX", 3, 4, Absolute, false)
	add(0xED, "SBC", 3, 4, Absolute, false)
	add(0xEE, "INC", 3, 6, Absolute, false)

	add(0xF0, "BEQ", 2, 2, Relative, false)
	add(0xF1, "SBC", 2, 5, IndirectIndexed, false)
	add(0xF5, "SBC", 2, 4, ZeroPageX, false)
	add(0xF6, "INC", 2, 6, ZeroPageX, false)
	add(0xF8, "SED", 1, 2, Implied, false)
	add(0xF9, "SBC", 3, 4, AbsoluteY, false)
	add(0xFD, "SBC", 3, 4, AbsoluteX, false)
	add(0xFE, "INC", 3, 7, AbsoluteX, false)

	// Unofficial NOPs.
	for _, opcode := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		add(opcode, "NOP", 1, 2, Implied, true)
	}
	for _, opcode := range []uint8{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		add(opcode, "NOP", 2, 2, Immediate, true)
	}
	for _, opcode := range []uint8{0x04, 0x44, 0x64} {
		add(opcode, "NOP", 2, 3, ZeroPage, true)
	}
	for _, opcode := range []uint8{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		add(opcode, "NOP", 2, 4, ZeroPageX, true)
	}
	add(0x0C, "NOP", 3, 4, Absolute, true)
	for _, opcode := range []uint8{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		add(opcode, "NOP", 3, 4, AbsoluteX, true)
	}

	// Documented unofficial opcodes.
	add(0xA3, "LAX", 2, 6, IndexedIndirect, true)
	add(0xA7, "LAX", 2, 3, ZeroPage, true)
	add(0xAB, "LAX", 2, 2, Immediate, true)
	add(0xAF, "LAX", 3, 4, Absolute, true)
	add(0xB3, "LAX", 2, 5, IndirectIndexed, true)
	add(0xB7, "LAX", 2, 4, ZeroPageY, true)
	add(0xBF, "LAX", 3, 4, AbsoluteY, true)

	add(0x83, "SAX", 2, 6, IndexedIndirect, true)
	add(0x87, "SAX", 2, 3, ZeroPage, true)
	add(0x8F, "SAX", 3, 4, Absolute, true)
	add(0x97, "SAX", 2, 4, ZeroPageY, true)

	add(0xC3, "DCP", 2, 8, IndexedIndirect, true)
	add(0xC7, "DCP", 2, 5, ZeroPage, true)
	add(0xCF, "DCP", 3, 6, Absolute, true)
	add(0xD3, "DCP", 2, 8, IndirectIndexed, true)
	add(0xD7, "DCP", 2, 6, ZeroPageX, true)
	add(0xDB, "DCP", 3, 7, AbsoluteY, true)
	add(0xDF, "DCP", 3, 7, AbsoluteX, true)

	add(0xE3, "ISB", 2, 8, IndexedIndirect, true)
	add(0xE7, "ISB", 2, 5, ZeroPage, true)
	add(0xEF, "ISB", 3, 6, Absolute, true)
	add(0xF3, "ISB", 2, 8, IndirectIndexed, true)
	add(0xF7, "ISB", 2, 6, ZeroPageX, true)
	add(0xFB, "ISB", 3, 7, AbsoluteY, true)
	add(0xFF, "ISB", 3, 7, AbsoluteX, true)

	add(0x03, "SLO", 2, 8, IndexedIndirect, true)
	add(0x07, "SLO", 2, 5, ZeroPage, true)
	add(0x0F, "SLO", 3, 6, Absolute, true)
	add(0x13, "SLO", 2, 8, IndirectIndexed, true)
	add(0x17, "SLO", 2, 6, ZeroPageX, true)
	add(0x1B, "SLO", 3, 7, AbsoluteY, true)
	add(0x1F, "SLO", 3, 7, AbsoluteX, true)

	add(0x23, "RLA", 2, 8, IndexedIndirect, true)
	add(0x27, "RLA", 2, 5, ZeroPage, true)
	add(0x2F, "RLA", 3, 6, Absolute, true)
	add(0x33, "RLA", 2, 8, IndirectIndexed, true)
	add(0x37, "RLA", 2, 6, ZeroPageX, true)
	add(0x3B, "RLA", 3, 7, AbsoluteY, true)
	add(0x3F, "RLA", 3, 7, AbsoluteX, true)

	add(0x43, "SRE", 2, 8, IndexedIndirect, true)
	add(0x47, "SRE", 2, 5, ZeroPage, true)
	add(0x4F, "SRE", 3, 6, Absolute, true)
	add(0x53, "SRE", 2, 8, IndirectIndexed, true)
	add(0x57, "SRE", 2, 6, ZeroPageX, true)
	add(0x5B, "SRE", 3, 7, AbsoluteY, true)
	add(0x5F, "SRE", 3, 7, AbsoluteX, true)

	add(0x63, "RRA", 2, 8, IndexedIndirect, true)
	add(0x67, "RRA", 2, 5, ZeroPage, true)
	add(0x6F, "RRA", 3, 6, Absolute, true)
	add(0x73, "RRA", 2, 8, IndirectIndexed, true)
	add(0x77, "RRA", 2, 6, ZeroPageX, true)
	add(0x7B, "RRA", 3, 7, AbsoluteY, true)
	add(0x7F, "RRA", 3, 7, AbsoluteX, true)

	// Stub-only unofficial opcodes: no behavioral model, logged once
	// and treated as a no-op that still consumes the size and base
	// cycles listed here.
	add(0x0B, "ANC", 2, 2, Immediate, true)
	add(0x2B, "ANC", 2, 2, Immediate, true)
	add(0x4B, "ALR", 2, 2, Immediate, true)
	add(0x6B, "ARR", 2, 2, Immediate, true)
	add(0xCB, "AXS", 2, 2, Immediate, true)
	add(0xBB, "LAS", 3, 4, AbsoluteY, true)
	add(0x9C, "SHY", 3, 5, AbsoluteX, true)
	add(0x9E, "SHX", 3, 5, AbsoluteY, true)
	add(0x9B, "TAS", 3, 5, AbsoluteY, true)
	add(0x93, "AHX", 2, 6, IndirectIndexed, true)
	add(0x9F, "AHX", 3, 5, AbsoluteY, true)
	add(0x8B, "XAA", 2, 2, Immediate, true)
	for _, opcode := range []uint8{0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2} {
		add(opcode, "KIL", 1, 2, Implied, true)
	}
}
