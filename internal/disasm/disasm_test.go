package disasm

import (
	"bytes"
	"context"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/z80godisasm/internal/memory"
	"github.com/retroenv/z80godisasm/internal/options"
)

func testDisasm(t *testing.T, origin uint16, image []byte) *Disasm {
	t.Helper()

	logger := log.NewTestLogger(t)
	dis, err := New(logger, options.NewDisassembler(origin, origin), image)
	assert.NoError(t, err)
	return dis
}

func TestNewValidatesImage(t *testing.T) {
	logger := log.NewTestLogger(t)
	opts := options.NewDisassembler(0, 0)

	_, err := New(logger, opts, nil)
	assert.Error(t, err)

	_, err = New(logger, opts, make([]byte, memory.Size+1))
	assert.Error(t, err)

	_, err = New(logger, opts, []byte{0x00})
	assert.NoError(t, err)
}

func TestProcessSimpleProgram(t *testing.T) {
	image := []byte{
		0x3E, 0x01, // ld a, $01
		0xC9, // ret
	}
	dis := testDisasm(t, 0x8000, image)

	var buf bytes.Buffer
	app, err := dis.Process(context.Background(), &buf)
	assert.NoError(t, err)

	mem := dis.Memory()
	assert.Equal(t, memory.Assigned|memory.Code|memory.CodeFirst, mem.AttributeAt(0x8000))
	assert.Equal(t, memory.Assigned|memory.Code, mem.AttributeAt(0x8001))
	assert.Equal(t, memory.Assigned|memory.Code|memory.CodeFirst, mem.AttributeAt(0x8002))

	assert.Equal(t, 1, len(app.Subroutines))
	assert.Equal(t, uint16(0x8000), app.Subroutines[0].Entry)
	assert.Equal(t, "inputs: -  uses: A", app.Subroutines[0].Signature())

	output := buf.String()
	assert.Contains(t, output, ".org $8000")
	assert.Contains(t, output, "sub_8000:")
	assert.Contains(t, output, "ld a, $01")
	assert.Contains(t, output, "ret")
	assert.Contains(t, output, "; inputs: -  uses: A")
}

func TestProcessFollowsCalls(t *testing.T) {
	image := []byte{
		0xCD, 0x04, 0x80, // call $8004
		0xC9,       // ret
		0x3E, 0x2A, // ld a, $2a
		0xC9, // ret
	}
	dis := testDisasm(t, 0x8000, image)

	var buf bytes.Buffer
	app, err := dis.Process(context.Background(), &buf)
	assert.NoError(t, err)

	// both the entry and the called address are subroutines
	assert.Equal(t, 2, len(app.Subroutines))
	assert.Equal(t, uint16(0x8000), app.Subroutines[0].Entry)
	assert.Equal(t, uint16(0x8004), app.Subroutines[1].Entry)

	output := buf.String()
	assert.Contains(t, output, "call sub_8004")
	assert.Contains(t, output, "sub_8004:")
}

func TestProcessConditionalJumpFollowsBothPaths(t *testing.T) {
	image := []byte{
		0x28, 0x01, // jr z, $8003
		0x3C, // inc a
		0xC9, // ret
	}
	dis := testDisasm(t, 0x8000, image)

	var buf bytes.Buffer
	_, err := dis.Process(context.Background(), &buf)
	assert.NoError(t, err)

	mem := dis.Memory()
	// fall through path
	assert.Equal(t, memory.Code, mem.AttributeAt(0x8002)&memory.Code)
	// taken path
	assert.Equal(t, memory.CodeFirst, mem.AttributeAt(0x8003)&memory.CodeFirst)

	output := buf.String()
	assert.Contains(t, output, "jr z, loc_8003")
	assert.Contains(t, output, "loc_8003:")
}

func TestProcessTagsUnsupportedOpcodeAsData(t *testing.T) {
	image := []byte{
		0xDD, // unsupported prefix, treated as data
		0x00, // nop, unreachable
	}
	dis := testDisasm(t, 0x4000, image)

	var buf bytes.Buffer
	_, err := dis.Process(context.Background(), &buf)
	assert.NoError(t, err)

	mem := dis.Memory()
	assert.Equal(t, memory.Assigned|memory.Data, mem.AttributeAt(0x4000))
	// execution flow stops at the data byte
	assert.Equal(t, memory.Assigned, mem.AttributeAt(0x4001))

	output := buf.String()
	assert.Contains(t, output, ".byte $dd, $00")
}

func TestProcessTerminatesOnInfiniteLoop(t *testing.T) {
	image := []byte{
		0x18, 0xFE, // jr $8000, jumps to itself
	}
	dis := testDisasm(t, 0x8000, image)

	var buf bytes.Buffer
	_, err := dis.Process(context.Background(), &buf)
	assert.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "sub_8000:")
	assert.Contains(t, output, "jr sub_8000")
}

func TestProcessUnreachableBytesAreData(t *testing.T) {
	image := []byte{
		0xC9,       // ret
		0x12, 0x34, // never reached
	}
	dis := testDisasm(t, 0x8000, image)

	var buf bytes.Buffer
	app, err := dis.Process(context.Background(), &buf)
	assert.NoError(t, err)

	assert.True(t, app.Offsets[0].IsCode)
	assert.False(t, app.Offsets[1].IsCode)
	assert.False(t, app.Offsets[2].IsCode)

	output := buf.String()
	assert.Contains(t, output, ".byte $12, $34")
}

func TestProcessCanceledContext(t *testing.T) {
	dis := testDisasm(t, 0x8000, []byte{0x00, 0xC9})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := dis.Process(ctx, &buf)
	assert.Error(t, err)
}

func TestFormatInstruction(t *testing.T) {
	image := []byte{
		0x21, 0x34, 0x12, // ld hl, $1234
		0x3E, 0x80, // ld a, $80
		0xDB, 0xFE, // in a, ($fe)
		0x10, 0xF7, // djnz $8000
		0xC9, // ret
	}
	dis := testDisasm(t, 0x8000, image)

	var buf bytes.Buffer
	_, err := dis.Process(context.Background(), &buf)
	assert.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "ld hl, $1234")
	assert.Contains(t, output, "ld a, $80")
	assert.Contains(t, output, "in a, ($fe)")
	assert.Contains(t, output, "djnz sub_8000")
}

func TestReplaceToken(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		token    string
		value    string
		expected string
	}{
		{"word operand", "ld hl, nn", "nn", "$1234", "ld hl, $1234"},
		{"byte operand", "ld a, n", "n", "$80", "ld a, $80"},
		{"port operand", "out (n), a", "n", "$fe", "out ($fe), a"},
		{"token inside mnemonic untouched", "and n", "n", "$12", "and $12"},
		{"relative operand", "djnz e", "e", "loc_8000", "djnz loc_8000"},
		{"no match", "nop", "n", "$12", "nop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, replaceToken(tt.input, tt.token, tt.value))
		})
	}
}
