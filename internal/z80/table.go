package z80

import "fmt"

// Opcodes maps every unprefixed opcode byte to its instruction and operand
// kind. The cb, dd, ed and fd prefix bytes have no instruction assigned;
// cb prefixed instructions are decoded through CBOpcodes, the index and
// extended instruction sets are not supported and are treated as data by
// the walker.
var Opcodes [256]Opcode

// CBOpcodes maps the byte following a cb prefix to its instruction.
// All cb prefixed instructions are two bytes long and have no operand.
var CBOpcodes [256]Opcode

const (
	prefixCB = 0xCB
	prefixDD = 0xDD
	prefixED = 0xED
	prefixFD = 0xFD
)

// operand register encoding of the low three opcode bits,
// index 6 is the (hl) memory operand.
var (
	reg8Names  = [8]string{"b", "c", "d", "e", "h", "l", "(hl)", "a"}
	pairNames  = [4]string{"bc", "de", "hl", "sp"}
	stackNames = [4]string{"bc", "de", "hl", "af"}
	condNames  = [8]string{"nz", "z", "nc", "c", "po", "pe", "p", "m"}

	pairRegisters  = [4][]Register{{B, C}, {D, E}, {H, L}, {SP}}
	stackRegisters = [4][]Register{{B, C}, {D, E}, {H, L}, {A, F}}
)

// reg8Operands returns the registers read when accessing the 8 bit operand
// and the registers written when it is a destination. The (hl) operand
// reads h and l for addressing in both directions but writes memory, not
// a register.
func reg8Operands(index int) (reads, writes []Register) {
	if index == 6 {
		return []Register{H, L}, nil
	}
	r := [8]Register{B, C, D, E, H, L, 0, A}[index]
	return []Register{r}, []Register{r}
}

func setOpcode(b byte, ins Instruction, operand OperandKind) {
	if Opcodes[b].Instruction != nil {
		panic(fmt.Sprintf("duplicate opcode table entry %02x", b))
	}
	Opcodes[b] = Opcode{Instruction: &ins, Operand: operand}
}

func init() {
	initUnprefixed()
	initCB()
}

// initUnprefixed fills the base opcode table using the standard octal
// decomposition of the Z80 instruction encoding: x = bits 6-7,
// y = bits 3-5, z = bits 0-2, p = y>>1, q = y&1.
func initUnprefixed() {
	for op := range 256 {
		b := byte(op)
		if b == prefixCB || b == prefixDD || b == prefixED || b == prefixFD {
			continue
		}

		x := b >> 6
		y := int(b >> 3 & 7)
		z := int(b & 7)

		switch x {
		case 0:
			initX0(b, y, z)
		case 1:
			initLoad(b, y, z)
		case 2:
			initALU(b, y, z, OperandNone)
		case 3:
			initX3(b, y, z)
		}
	}
}

func initX0(b byte, y, z int) {
	p, q := y>>1, y&1

	switch z {
	case 0:
		switch y {
		case 0:
			setOpcode(b, Instruction{Name: "nop"}, OperandNone)
		case 1:
			setOpcode(b, Instruction{Name: "ex af, af'", Exchange: ExchangeAccumulatorBank}, OperandNone)
		case 2:
			setOpcode(b, Instruction{Name: "djnz e", Reads: []Register{B}, Writes: []Register{B},
				Jump: true, Conditional: true}, OperandLoopRelative)
		case 3:
			setOpcode(b, Instruction{Name: "jr e", Jump: true}, OperandRelative)
		default: // jr cc, e
			setOpcode(b, Instruction{Name: "jr " + condNames[y-4] + ", e", Reads: []Register{F},
				Jump: true, Conditional: true}, OperandRelative)
		}

	case 1:
		if q == 0 { // ld rp, nn
			setOpcode(b, Instruction{Name: "ld " + pairNames[p] + ", nn",
				Writes: pairRegisters[p]}, OperandWord)
		} else { // add hl, rp
			reads := append([]Register{H, L}, pairRegisters[p]...)
			if p == 2 {
				reads = []Register{H, L}
			}
			setOpcode(b, Instruction{Name: "add hl, " + pairNames[p], Reads: reads,
				Writes: []Register{H, L, F}}, OperandNone)
		}

	case 2:
		initIndirectLoad(b, p, q)

	case 3:
		name := "inc "
		if q == 1 {
			name = "dec "
		}
		setOpcode(b, Instruction{Name: name + pairNames[p], Reads: pairRegisters[p],
			Writes: pairRegisters[p]}, OperandNone)

	case 4, 5:
		name := "inc "
		if z == 5 {
			name = "dec "
		}
		reads, writes := reg8Operands(y)
		setOpcode(b, Instruction{Name: name + reg8Names[y], Reads: reads,
			Writes: append(writes, F)}, OperandNone)

	case 6: // ld r, n
		reads, writes := reg8Operands(y)
		if y != 6 {
			reads = nil // plain register destination, nothing read
		}
		setOpcode(b, Instruction{Name: "ld " + reg8Names[y] + ", n", Reads: reads,
			Writes: writes}, OperandByte)

	case 7:
		initAccumulatorOps(b, y)
	}
}

// initIndirectLoad covers the x=0, z=2 group: accumulator and hl transfers
// through (bc), (de) and absolute addresses.
func initIndirectLoad(b byte, p, q int) {
	switch {
	case q == 0 && p == 0:
		setOpcode(b, Instruction{Name: "ld (bc), a", Reads: []Register{B, C, A}}, OperandNone)
	case q == 0 && p == 1:
		setOpcode(b, Instruction{Name: "ld (de), a", Reads: []Register{D, E, A}}, OperandNone)
	case q == 0 && p == 2:
		setOpcode(b, Instruction{Name: "ld (nn), hl", Reads: []Register{H, L}}, OperandWord)
	case q == 0 && p == 3:
		setOpcode(b, Instruction{Name: "ld (nn), a", Reads: []Register{A}}, OperandWord)
	case q == 1 && p == 0:
		setOpcode(b, Instruction{Name: "ld a, (bc)", Reads: []Register{B, C}, Writes: []Register{A}}, OperandNone)
	case q == 1 && p == 1:
		setOpcode(b, Instruction{Name: "ld a, (de)", Reads: []Register{D, E}, Writes: []Register{A}}, OperandNone)
	case q == 1 && p == 2:
		setOpcode(b, Instruction{Name: "ld hl, (nn)", Writes: []Register{H, L}}, OperandWord)
	default:
		setOpcode(b, Instruction{Name: "ld a, (nn)", Writes: []Register{A}}, OperandWord)
	}
}

// initAccumulatorOps covers the x=0, z=7 group of accumulator rotates and
// flag instructions.
func initAccumulatorOps(b byte, y int) {
	switch y {
	case 0, 1: // rlca, rrca
		names := [2]string{"rlca", "rrca"}
		setOpcode(b, Instruction{Name: names[y], Reads: []Register{A}, Writes: []Register{A, F}}, OperandNone)
	case 2, 3: // rla, rra rotate through carry
		names := [2]string{"rla", "rra"}
		setOpcode(b, Instruction{Name: names[y-2], Reads: []Register{A, F}, Writes: []Register{A, F}}, OperandNone)
	case 4:
		setOpcode(b, Instruction{Name: "daa", Reads: []Register{A, F}, Writes: []Register{A, F}}, OperandNone)
	case 5:
		setOpcode(b, Instruction{Name: "cpl", Reads: []Register{A}, Writes: []Register{A, F}}, OperandNone)
	case 6:
		setOpcode(b, Instruction{Name: "scf", Writes: []Register{F}}, OperandNone)
	case 7:
		setOpcode(b, Instruction{Name: "ccf", Reads: []Register{F}, Writes: []Register{F}}, OperandNone)
	}
}

// initLoad covers the x=1 block of register to register loads and halt.
func initLoad(b byte, y, z int) {
	if y == 6 && z == 6 {
		setOpcode(b, Instruction{Name: "halt"}, OperandNone)
		return
	}

	srcReads, _ := reg8Operands(z)
	dstReads, dstWrites := reg8Operands(y)
	reads := srcReads
	if y == 6 { // ld (hl), r also reads the address registers
		reads = append(append([]Register{}, dstReads...), srcReads...)
	}
	setOpcode(b, Instruction{Name: "ld " + reg8Names[y] + ", " + reg8Names[z],
		Reads: reads, Writes: dstWrites}, OperandNone)
}

// initALU covers the x=2 block and the x=3, z=6 immediate forms of the
// eight accumulator ALU operations.
func initALU(b byte, y, z int, operand OperandKind) {
	names := [8]string{"add a, ", "adc a, ", "sub ", "sbc a, ", "and ", "xor ", "or ", "cp "}

	reads := []Register{A}
	if y == 1 || y == 3 { // adc, sbc read the carry flag
		reads = append(reads, F)
	}

	operandName := "n"
	if operand == OperandNone {
		srcReads, _ := reg8Operands(z)
		reads = append(reads, srcReads...)
		operandName = reg8Names[z]
	}

	writes := []Register{A, F}
	if y == 7 { // cp discards the result
		writes = []Register{F}
	}

	setOpcode(b, Instruction{Name: names[y] + operandName, Reads: reads, Writes: writes}, operand)
}

func initX3(b byte, y, z int) {
	p, q := y>>1, y&1

	switch z {
	case 0: // ret cc
		setOpcode(b, Instruction{Name: "ret " + condNames[y], Reads: []Register{F},
			Return: true, Conditional: true}, OperandNone)

	case 1:
		if q == 0 { // pop rp2
			setOpcode(b, Instruction{Name: "pop " + stackNames[p], Reads: []Register{SP},
				Writes: append(append([]Register{}, stackRegisters[p]...), SP)}, OperandNone)
			return
		}
		switch p {
		case 0:
			setOpcode(b, Instruction{Name: "ret", Return: true}, OperandNone)
		case 1:
			setOpcode(b, Instruction{Name: "exx", Exchange: ExchangeGeneralBanks}, OperandNone)
		case 2:
			setOpcode(b, Instruction{Name: "jp (hl)", Reads: []Register{H, L}, Jump: true}, OperandNone)
		case 3:
			setOpcode(b, Instruction{Name: "ld sp, hl", Reads: []Register{H, L},
				Writes: []Register{SP}}, OperandNone)
		}

	case 2: // jp cc, nn
		setOpcode(b, Instruction{Name: "jp " + condNames[y] + ", nn", Reads: []Register{F},
			Jump: true, Conditional: true}, OperandWord)

	case 3:
		switch y {
		case 0:
			setOpcode(b, Instruction{Name: "jp nn", Jump: true}, OperandWord)
		case 2:
			setOpcode(b, Instruction{Name: "out (n), a", Reads: []Register{A}}, OperandPort)
		case 3:
			setOpcode(b, Instruction{Name: "in a, (n)", Writes: []Register{A}}, OperandPort)
		case 4:
			setOpcode(b, Instruction{Name: "ex (sp), hl", Reads: []Register{SP, H, L},
				Exchange: ExchangeStackHL}, OperandNone)
		case 5:
			setOpcode(b, Instruction{Name: "ex de, hl", Exchange: ExchangeDEHL}, OperandNone)
		case 6:
			setOpcode(b, Instruction{Name: "di"}, OperandNone)
		case 7:
			setOpcode(b, Instruction{Name: "ei"}, OperandNone)
		}

	case 4: // call cc, nn
		setOpcode(b, Instruction{Name: "call " + condNames[y] + ", nn", Reads: []Register{F},
			Call: true, Conditional: true}, OperandWord)

	case 5:
		if q == 0 { // push rp2
			setOpcode(b, Instruction{Name: "push " + stackNames[p],
				Reads: append(append([]Register{}, stackRegisters[p]...), SP),
				Writes: []Register{SP}}, OperandNone)
			return
		}
		if p == 0 {
			setOpcode(b, Instruction{Name: "call nn", Call: true}, OperandWord)
		}
		// p 1-3 are the dd, ed and fd prefixes

	case 6:
		initALU(b, y, z, OperandByte)

	case 7: // rst
		setOpcode(b, Instruction{Name: fmt.Sprintf("rst %02xh", y*8), Call: true}, OperandNone)
	}
}

// initCB fills the table of cb prefixed rotate, shift and bit instructions.
func initCB() {
	rotNames := [8]string{"rlc", "rrc", "rl", "rr", "sla", "sra", "sll", "srl"}

	for sub := range 256 {
		b := byte(sub)
		x := b >> 6
		y := int(b >> 3 & 7)
		z := int(b & 7)

		reads, writes := reg8Operands(z)
		var ins Instruction

		switch x {
		case 0: // rotates and shifts
			ins = Instruction{Name: rotNames[y] + " " + reg8Names[z],
				Reads: reads, Writes: append(writes, F)}
			if y == 2 || y == 3 { // rl, rr rotate through carry
				ins.Reads = append(append([]Register{}, reads...), F)
			}
		case 1:
			ins = Instruction{Name: fmt.Sprintf("bit %d, %s", y, reg8Names[z]),
				Reads: reads, Writes: []Register{F}}
		case 2:
			ins = Instruction{Name: fmt.Sprintf("res %d, %s", y, reg8Names[z]),
				Reads: reads, Writes: writes}
		case 3:
			ins = Instruction{Name: fmt.Sprintf("set %d, %s", y, reg8Names[z]),
				Reads: reads, Writes: writes}
		}

		cb := ins
		CBOpcodes[b] = Opcode{Instruction: &cb, Operand: OperandNone}
	}
}
