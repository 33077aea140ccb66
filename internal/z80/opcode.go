package z80

import "fmt"

// OperandKind describes how many bytes follow an opcode byte and how they
// are interpreted.
type OperandKind uint8

const (
	// OperandNone marks instructions without operand bytes.
	OperandNone OperandKind = iota
	// OperandWord is a little-endian 16 bit absolute address or immediate.
	OperandWord
	// OperandByte is a signed 8 bit immediate.
	OperandByte
	// OperandRelative is a signed 8 bit displacement of a relative jump,
	// resolved to an absolute address during decoding.
	OperandRelative
	// OperandLoopRelative is the signed 8 bit displacement of djnz,
	// resolved like OperandRelative.
	OperandLoopRelative
	// OperandPort is an unsigned 8 bit I/O port number.
	OperandPort
)

// Exchange identifies the register bank exchange behavior of an instruction.
// The Z80 defines exactly two bank exchange instructions plus two register
// pair exchanges, there is no generic exchange form.
type Exchange uint8

const (
	ExchangeNone            Exchange = iota
	ExchangeAccumulatorBank          // ex af, af'
	ExchangeGeneralBanks             // exx
	ExchangeDEHL                     // ex de, hl
	ExchangeStackHL                  // ex (sp), hl
)

// Instruction describes the static properties of one Z80 instruction:
// its mnemonic template, the registers it reads and writes and its
// control flow classification.
type Instruction struct {
	Name string // mnemonic template, operand placeholders: n, nn, e

	Reads  []Register
	Writes []Register

	Jump        bool
	Call        bool
	Return      bool
	Conditional bool

	Exchange Exchange
}

// Opcode maps a raw opcode byte to its instruction and operand kind.
type Opcode struct {
	Instruction *Instruction
	Operand     OperandKind
}

// Decoded is the result of decoding the instruction at one address.
// Value is only meaningful if the operand kind is not OperandNone:
// the absolute address or immediate for word operands, the absolute
// branch target for relative operands, the signed value for byte
// operands and the unsigned port number for port operands.
type Decoded struct {
	Address uint16
	Raw     byte
	Opcode  Opcode
	Value   int
	Size    uint16
}

// IsUnknown returns true if the byte does not start a decodable
// instruction, for example the dd/ed/fd prefix bytes.
func (d Decoded) IsUnknown() bool {
	return d.Opcode.Instruction == nil
}

// Target returns the absolute control flow target of a jump or call and
// whether one is statically known. jp (hl) has no static target, rst
// encodes its target in the opcode byte itself.
func (d Decoded) Target() (uint16, bool) {
	ins := d.Opcode.Instruction
	if ins == nil || (!ins.Jump && !ins.Call) {
		return 0, false
	}

	switch d.Opcode.Operand {
	case OperandWord, OperandRelative, OperandLoopRelative:
		return uint16(d.Value), true

	case OperandNone:
		if ins.Call { // rst
			return uint16(d.Raw & 0x38), true
		}
		return 0, false // jp (hl)

	default:
		panic(fmt.Sprintf("unsupported operand kind %d for branch target", d.Opcode.Operand))
	}
}
