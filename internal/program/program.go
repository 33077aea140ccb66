// Package program contains the analysis result model that the writer
// renders into an assembly listing.
package program

import (
	"strings"

	"github.com/retroenv/z80godisasm/internal/z80"
)

// Offset represents one address of the loaded image in the output listing.
type Offset struct {
	Address uint16

	Label   string // label of branch and call destinations
	Code    string // formatted instruction, empty for data bytes
	Data    []byte // instruction or data bytes at this offset
	Comment string

	IsCode bool // first byte of a decoded instruction
}

// Subroutine is the inferred signature of one analyzed subroutine.
type Subroutine struct {
	Entry  uint16
	Inputs []z80.Register // registers read before written, sorted
	Used   []z80.Register // all registers touched, sorted
}

// Signature returns a human readable signature line for listing comments.
func (s Subroutine) Signature() string {
	var sb strings.Builder
	sb.WriteString("inputs: ")
	sb.WriteString(registerList(s.Inputs))
	sb.WriteString("  uses: ")
	sb.WriteString(registerList(s.Used))
	return sb.String()
}

func registerList(regs []z80.Register) string {
	if len(regs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(regs))
	for _, r := range regs {
		names = append(names, r.String())
	}
	return strings.Join(names, " ")
}

// Program is the result of one analysis run.
type Program struct {
	Origin      uint16
	Offsets     []Offset
	Subroutines []Subroutine

	Checksum uint32 // crc32 of the loaded image
}

// New creates a program model for an image of the given size loaded at
// origin.
func New(origin uint16, size int) *Program {
	app := &Program{
		Origin:  origin,
		Offsets: make([]Offset, size),
	}
	for i := range app.Offsets {
		app.Offsets[i].Address = origin + uint16(i)
	}
	return app
}

// SubroutineAt returns the subroutine starting at the address, if any.
func (p *Program) SubroutineAt(address uint16) (Subroutine, bool) {
	for _, sub := range p.Subroutines {
		if sub.Entry == address {
			return sub, true
		}
	}
	return Subroutine{}, false
}
