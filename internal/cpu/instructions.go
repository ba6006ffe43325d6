package cpu

import "fmt"

// AddressingMode identifies how an instruction computes its operand address.
type AddressingMode uint8

// Addressing modes, numbered the way the opcode tables below reference them.
const (
	modeInvalid AddressingMode = iota
	Absolute
	AbsoluteX
	AbsoluteY
	Accumulator
	Immediate
	Implied
	IndexedIndirect // (zp,X)
	Indirect
	IndirectIndexed // (zp),Y
	Relative
	ZeroPage
	ZeroPageX
	ZeroPageY
)

var modeNames = [...]string{
	modeInvalid:     "invalid",
	Absolute:        "absolute",
	AbsoluteX:       "absolute,X",
	AbsoluteY:       "absolute,Y",
	Accumulator:     "accumulator",
	Immediate:       "immediate",
	Implied:         "implied",
	IndexedIndirect: "(indirect,X)",
	Indirect:        "indirect",
	IndirectIndexed: "(indirect),Y",
	Relative:        "relative",
	ZeroPage:        "zeropage",
	ZeroPageX:       "zeropage,X",
	ZeroPageY:       "zeropage,Y",
}

func (m AddressingMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// operandSize is the number of bytes following the opcode for a mode.
func (m AddressingMode) operandSize() uint8 {
	switch m {
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 2
	case Immediate, IndexedIndirect, IndirectIndexed, Relative, ZeroPage, ZeroPageX, ZeroPageY:
		return 1
	default:
		return 0
	}
}

// Mnemonic is the closed set of instruction names, official and undocumented.
type Mnemonic uint8

const (
	ADC Mnemonic = iota
	AHX
	ALR
	ANC
	AND
	ARR
	ASL
	AXS
	BCC
	BCS
	BEQ
	BIT
	BMI
	BNE
	BPL
	BRK
	BVC
	BVS
	CLC
	CLD
	CLI
	CLV
	CMP
	CPX
	CPY
	DCP
	DEC
	DEX
	DEY
	EOR
	INC
	INX
	INY
	ISC
	JMP
	JSR
	KIL
	LAS
	LAX
	LDA
	LDX
	LDY
	LSR
	NOP
	ORA
	PHA
	PHP
	PLA
	PLP
	RLA
	ROL
	ROR
	RRA
	RTI
	RTS
	SAX
	SBC
	SEC
	SED
	SEI
	SHX
	SHY
	SLO
	SRE
	STA
	STX
	STY
	TAS
	TAX
	TAY
	TSX
	TXA
	TXS
	TYA
	XAA
	mnemonicCount
)

var mnemonicNames = [mnemonicCount]string{
	"ADC", "AHX", "ALR", "ANC", "AND", "ARR", "ASL", "AXS",
	"BCC", "BCS", "BEQ", "BIT", "BMI", "BNE", "BPL", "BRK",
	"BVC", "BVS", "CLC", "CLD", "CLI", "CLV", "CMP", "CPX",
	"CPY", "DCP", "DEC", "DEX", "DEY", "EOR", "INC", "INX",
	"INY", "ISC", "JMP", "JSR", "KIL", "LAS", "LAX", "LDA",
	"LDX", "LDY", "LSR", "NOP", "ORA", "PHA", "PHP", "PLA",
	"PLP", "RLA", "ROL", "ROR", "RRA", "RTI", "RTS", "SAX",
	"SBC", "SEC", "SED", "SEI", "SHX", "SHY", "SLO", "SRE",
	"STA", "STX", "STY", "TAS", "TAX", "TAY", "TSX", "TXA",
	"TXS", "TYA", "XAA",
}

func (m Mnemonic) String() string {
	if m < mnemonicCount {
		return mnemonicNames[m]
	}
	return fmt.Sprintf("???(%d)", uint8(m))
}

// Instruction describes one opcode. Entries are immutable once built.
type Instruction struct {
	Opcode     uint8
	Mnemonic   Mnemonic
	Mode       AddressingMode
	Size       uint8 // encoded size in bytes, opcode included
	Cycles     uint8 // base cost
	PageCycles uint8 // extra cost when operand resolution crosses a page
}

// Name returns the three letter mnemonic.
func (i Instruction) Name() string { return i.Mnemonic.String() }

// Instructions is indexed by opcode and covers every byte value.
var Instructions = buildInstructions()

// Lookup returns the instruction for an opcode. Only the low byte is used,
// so Lookup(o) and Lookup(o+256) agree.
func Lookup(opcode int) Instruction {
	return Instructions[opcode&0xFF]
}

func buildInstructions() [256]Instruction {
	var table [256]Instruction
	for op := range table {
		mode := opcodeModes[op]
		table[op] = Instruction{
			Opcode:     uint8(op),
			Mnemonic:   opcodeMnemonics[op],
			Mode:       mode,
			Size:       1 + mode.operandSize(),
			Cycles:     opcodeCycles[op],
			PageCycles: opcodePageCycles[op],
		}
	}
	return table
}

const (
	abs = Absolute
	abx = AbsoluteX
	aby = AbsoluteY
	acc = Accumulator
	imm = Immediate
	imp = Implied
	izx = IndexedIndirect
	ind = Indirect
	izy = IndirectIndexed
	rel = Relative
	zp  = ZeroPage
	zpx = ZeroPageX
	zpy = ZeroPageY
)

var opcodeModes = [256]AddressingMode{
	imp, izx, imp, izx, zp, zp, zp, zp, imp, imm, acc, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpx, zpx, imp, aby, imp, aby, abx, abx, abx, abx,
	abs, izx, imp, izx, zp, zp, zp, zp, imp, imm, acc, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpx, zpx, imp, aby, imp, aby, abx, abx, abx, abx,
	imp, izx, imp, izx, zp, zp, zp, zp, imp, imm, acc, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpx, zpx, imp, aby, imp, aby, abx, abx, abx, abx,
	imp, izx, imp, izx, zp, zp, zp, zp, imp, imm, acc, imm, ind, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpx, zpx, imp, aby, imp, aby, abx, abx, abx, abx,
	imm, izx, imm, izx, zp, zp, zp, zp, imp, imm, imp, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpy, zpy, imp, aby, imp, aby, abx, abx, aby, aby,
	imm, izx, imm, izx, zp, zp, zp, zp, imp, imm, imp, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpy, zpy, imp, aby, imp, aby, abx, abx, aby, aby,
	imm, izx, imm, izx, zp, zp, zp, zp, imp, imm, imp, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpx, zpx, imp, aby, imp, aby, abx, abx, abx, abx,
	imm, izx, imm, izx, zp, zp, zp, zp, imp, imm, imp, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpx, zpx, imp, aby, imp, aby, abx, abx, abx, abx,
}

var opcodeCycles = [256]uint8{
	7, 6, 2, 8, 3, 3, 5, 5, 3, 2, 2, 2, 4, 4, 6, 6,
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	6, 6, 2, 8, 3, 3, 5, 5, 4, 2, 2, 2, 4, 4, 6, 6,
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	6, 6, 2, 8, 3, 3, 5, 5, 3, 2, 2, 2, 3, 4, 6, 6,
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	6, 6, 2, 8, 3, 3, 5, 5, 4, 2, 2, 2, 5, 4, 6, 6,
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	2, 6, 2, 6, 3, 3, 3, 3, 2, 2, 2, 2, 4, 4, 4, 4,
	2, 6, 2, 6, 4, 4, 4, 4, 2, 5, 2, 5, 5, 5, 5, 5,
	2, 6, 2, 6, 3, 3, 3, 3, 2, 2, 2, 2, 4, 4, 4, 4,
	2, 5, 2, 5, 4, 4, 4, 4, 2, 4, 2, 4, 4, 4, 4, 4,
	2, 6, 2, 8, 3, 3, 5, 5, 2, 2, 2, 2, 4, 4, 6, 6,
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	2, 6, 2, 8, 3, 3, 5, 5, 2, 2, 2, 2, 4, 4, 6, 6,
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
}

var opcodePageCycles = [256]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 0, 1, 0, 0, 0, 0, 0, 1, 0, 1, 1, 1, 1, 1,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0,
}

var opcodeMnemonics = [256]Mnemonic{
	BRK, ORA, KIL, SLO, NOP, ORA, ASL, SLO,
	PHP, ORA, ASL, ANC, NOP, ORA, ASL, SLO,
	BPL, ORA, KIL, SLO, NOP, ORA, ASL, SLO,
	CLC, ORA, NOP, SLO, NOP, ORA, ASL, SLO,
	JSR, AND, KIL, RLA, BIT, AND, ROL, RLA,
	PLP, AND, ROL, ANC, BIT, AND, ROL, RLA,
	BMI, AND, KIL, RLA, NOP, AND, ROL, RLA,
	SEC, AND, NOP, RLA, NOP, AND, ROL, RLA,
	RTI, EOR, KIL, SRE, NOP, EOR, LSR, SRE,
	PHA, EOR, LSR, ALR, JMP, EOR, LSR, SRE,
	BVC, EOR, KIL, SRE, NOP, EOR, LSR, SRE,
	CLI, EOR, NOP, SRE, NOP, EOR, LSR, SRE,
	RTS, ADC, KIL, RRA, NOP, ADC, ROR, RRA,
	PLA, ADC, ROR, ARR, JMP, ADC, ROR, RRA,
	BVS, ADC, KIL, RRA, NOP, ADC, ROR, RRA,
	SEI, ADC, NOP, RRA, NOP, ADC, ROR, RRA,
	NOP, STA, NOP, SAX, STY, STA, STX, SAX,
	DEY, NOP, TXA, XAA, STY, STA, STX, SAX,
	BCC, STA, KIL, AHX, STY, STA, STX, SAX,
	TYA, STA, TXS, TAS, SHY, STA, SHX, AHX,
	LDY, LDA, LDX, LAX, LDY, LDA, LDX, LAX,
	TAY, LDA, TAX, LAX, LDY, LDA, LDX, LAX,
	BCS, LDA, KIL, LAX, LDY, LDA, LDX, LAX,
	CLV, LDA, TSX, LAS, LDY, LDA, LDX, LAX,
	CPY, CMP, NOP, DCP, CPY, CMP, DEC, DCP,
	INY, CMP, DEX, AXS, CPY, CMP, DEC, DCP,
	BNE, CMP, KIL, DCP, NOP, CMP, DEC, DCP,
	CLD, CMP, NOP, DCP, NOP, CMP, DEC, DCP,
	CPX, SBC, NOP, ISC, CPX, SBC, INC, ISC,
	INX, SBC, NOP, SBC, CPX, SBC, INC, ISC,
	BEQ, SBC, KIL, ISC, NOP, SBC, INC, ISC,
	SED, SBC, NOP, ISC, NOP, SBC, INC, ISC,
}

// Official reports whether the opcode is part of the documented 6502
// instruction set. Only $EA counts as the documented NOP and $EB is the
// undocumented SBC alias.
func (i Instruction) Official() bool {
	switch i.Mnemonic {
	case AHX, ALR, ANC, ARR, AXS, DCP, ISC, KIL, LAS, LAX,
		RLA, RRA, SAX, SHX, SHY, SLO, SRE, TAS, XAA:
		return false
	case NOP:
		return i.Opcode == 0xEA
	case SBC:
		return i.Opcode != 0xEB
	}
	return true
}
