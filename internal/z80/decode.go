package z80

import "fmt"

// ByteReader provides byte and little-endian word reads from the address
// space. Implementations wrap at the top of the 16 bit address space.
type ByteReader interface {
	ReadByte(address uint16) byte
	ReadWord(address uint16) uint16
}

// Decode decodes the instruction at the given address. Operand bytes are
// fetched through mem, relative displacements are resolved to absolute
// addresses. Bytes that do not start a decodable instruction return a
// descriptor with no instruction assigned.
func Decode(mem ByteReader, address uint16) Decoded {
	raw := mem.ReadByte(address)

	if raw == prefixCB {
		return Decoded{
			Address: address,
			Raw:     raw,
			Opcode:  CBOpcodes[mem.ReadByte(address+1)],
			Size:    2,
		}
	}

	op := Opcodes[raw]
	dec := Decoded{
		Address: address,
		Raw:     raw,
		Opcode:  op,
		Size:    1,
	}
	if op.Instruction == nil {
		return dec
	}

	switch op.Operand {
	case OperandNone:

	case OperandWord:
		dec.Value = int(mem.ReadWord(address + 1))
		dec.Size = 3

	case OperandByte:
		dec.Value = signedByte(mem.ReadByte(address + 1))
		dec.Size = 2

	case OperandRelative, OperandLoopRelative:
		displacement := signedByte(mem.ReadByte(address + 1))
		dec.Value = int(uint16(int(address) + 2 + displacement))
		dec.Size = 2

	case OperandPort:
		dec.Value = int(mem.ReadByte(address + 1))
		dec.Size = 2

	default:
		panic(fmt.Sprintf("unsupported operand kind %d", op.Operand))
	}

	return dec
}

// signedByte reinterprets an unsigned byte as its signed two's-complement
// value.
func signedByte(b byte) int {
	if b >= 0x80 {
		return int(b) - 256
	}
	return int(b)
}
