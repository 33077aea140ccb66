package disasm

import (
	"fmt"

	"github.com/retroenv/z80godisasm/internal/z80"
)

// formatInstruction renders a decoded instruction by substituting the
// operand placeholder of the mnemonic template with the resolved value.
// Branch targets that received a label are rendered as the label name.
func (dis *Disasm) formatInstruction(dec z80.Decoded) string {
	name := dec.Opcode.Instruction.Name

	switch dec.Opcode.Operand {
	case z80.OperandNone:
		return name

	case z80.OperandWord:
		return replaceToken(name, "nn", dis.addressString(uint16(dec.Value)))

	case z80.OperandByte:
		return replaceToken(name, "n", fmt.Sprintf("$%02x", byte(dec.Value)))

	case z80.OperandRelative, z80.OperandLoopRelative:
		return replaceToken(name, "e", dis.addressString(uint16(dec.Value)))

	case z80.OperandPort:
		return replaceToken(name, "n", fmt.Sprintf("$%02x", byte(dec.Value)))

	default:
		panic(fmt.Sprintf("unsupported operand kind %d", dec.Opcode.Operand))
	}
}

// addressString returns the label of an address if one exists, else the
// absolute hex form.
func (dis *Disasm) addressString(address uint16) string {
	if dis.branchDestinations.Contains(address) {
		return dis.labelName(address)
	}
	return fmt.Sprintf("$%04x", address)
}

// replaceToken replaces a standalone operand placeholder token inside a
// mnemonic template. Placeholder characters that are part of a register or
// instruction name are left untouched.
func replaceToken(s, token, value string) string {
	for i := 0; i+len(token) <= len(s); i++ {
		if s[i:i+len(token)] != token {
			continue
		}
		if i > 0 && isAlphanumeric(s[i-1]) {
			continue
		}
		end := i + len(token)
		if end < len(s) && isAlphanumeric(s[end]) {
			continue
		}
		return s[:i] + value + s[end:]
	}
	return s
}

func isAlphanumeric(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
