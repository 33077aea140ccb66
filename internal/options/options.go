// Package options contains the program options.
package options

// Program contains the command line options of the disassembler.
type Program struct {
	Input  string
	Output string

	Origin uint16 // load address of the binary image
	Entry  uint16 // analysis entry point

	Debug bool
	Quiet bool

	NoHexComments bool
	NoOffsets     bool
}

// Disassembler defines options to control the disassembler.
type Disassembler struct {
	Origin uint16 // load address of the binary image
	Entry  uint16 // analysis entry point

	HexComments    bool
	OffsetComments bool
}

// NewDisassembler returns a new options instance with default options.
func NewDisassembler(origin, entry uint16) Disassembler {
	return Disassembler{
		Origin: origin,
		Entry:  entry,

		HexComments:    true,
		OffsetComments: true,
	}
}
