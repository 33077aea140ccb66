package z80

// Register identifies one of the Z80 processor registers tracked by the
// register flow analysis. The primary bank and the shadow bank are separate
// registers, the two bank exchange instructions swap between them.
type Register uint8

const (
	A Register = iota
	F
	B
	C
	D
	E
	H
	L
	AltA // A' shadow bank
	AltF // F'
	AltB // B'
	AltC // C'
	AltD // D'
	AltE // E'
	AltH // H'
	AltL // L'
	SP
)

// RegisterCount is the number of tracked registers.
const RegisterCount = int(SP) + 1

var registerNames = [RegisterCount]string{
	"A", "F", "B", "C", "D", "E", "H", "L",
	"A'", "F'", "B'", "C'", "D'", "E'", "H'", "L'",
	"SP",
}

func (r Register) String() string {
	if int(r) >= RegisterCount {
		return "?"
	}
	return registerNames[r]
}
