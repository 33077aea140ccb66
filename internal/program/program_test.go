package program

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/z80godisasm/internal/z80"
)

func TestNewAssignsAddresses(t *testing.T) {
	app := New(0xFFFE, 4)

	assert.Equal(t, 4, len(app.Offsets))
	assert.Equal(t, uint16(0xFFFE), app.Offsets[0].Address)
	assert.Equal(t, uint16(0xFFFF), app.Offsets[1].Address)
	// addresses wrap at the top of the address space
	assert.Equal(t, uint16(0x0000), app.Offsets[2].Address)
	assert.Equal(t, uint16(0x0001), app.Offsets[3].Address)
}

func TestSubroutineSignature(t *testing.T) {
	tests := []struct {
		name     string
		sub      Subroutine
		expected string
	}{
		{
			"inputs and uses",
			Subroutine{
				Inputs: []z80.Register{z80.B, z80.C},
				Used:   []z80.Register{z80.A, z80.B, z80.C},
			},
			"inputs: B C  uses: A B C",
		},
		{
			"no inputs",
			Subroutine{Used: []z80.Register{z80.A}},
			"inputs: -  uses: A",
		},
		{
			"nothing touched",
			Subroutine{},
			"inputs: -  uses: -",
		},
		{
			"shadow bank registers",
			Subroutine{
				Inputs: []z80.Register{z80.A},
				Used:   []z80.Register{z80.A, z80.AltA, z80.AltF},
			},
			"inputs: A  uses: A A' F'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.sub.Signature())
		})
	}
}

func TestSubroutineAt(t *testing.T) {
	app := New(0x8000, 8)
	app.Subroutines = []Subroutine{
		{Entry: 0x8000},
		{Entry: 0x8004, Used: []z80.Register{z80.A}},
	}

	sub, ok := app.SubroutineAt(0x8004)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x8004), sub.Entry)

	_, ok = app.SubroutineAt(0x8002)
	assert.False(t, ok)
}
