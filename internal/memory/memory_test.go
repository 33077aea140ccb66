package memory

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestLoadAndRead(t *testing.T) {
	m := New()
	m.Load(0x8000, []byte{0x11, 0x22, 0x33})

	assert.Equal(t, byte(0x11), m.ReadByte(0x8000))
	assert.Equal(t, byte(0x33), m.ReadByte(0x8002))
	assert.Equal(t, byte(0x00), m.ReadByte(0x8003))

	assert.Equal(t, Assigned, m.AttributeAt(0x8000))
	assert.Equal(t, Assigned, m.AttributeAt(0x8002))
	assert.Equal(t, Unused, m.AttributeAt(0x7FFF))
}

func TestLoadWrapsAddressSpace(t *testing.T) {
	m := New()
	m.Load(0xFFFE, []byte{0xAA, 0xBB, 0xCC})

	assert.Equal(t, byte(0xAA), m.ReadByte(0xFFFE))
	assert.Equal(t, byte(0xBB), m.ReadByte(0xFFFF))
	assert.Equal(t, byte(0xCC), m.ReadByte(0x0000))
	assert.Equal(t, Assigned, m.AttributeAt(0x0000))
}

func TestReadWordLittleEndian(t *testing.T) {
	m := New()
	m.Load(0x4000, []byte{0x34, 0x12})

	assert.Equal(t, uint16(0x1234), m.ReadWord(0x4000))
}

func TestReadWordWrapsAddressSpace(t *testing.T) {
	m := New()
	m.Load(0xFFFF, []byte{0x34, 0x12})

	// low byte at the top of the ring, high byte at the bottom
	assert.Equal(t, uint16(0x1234), m.ReadWord(0xFFFF))
}

func TestAttributesAccumulate(t *testing.T) {
	m := New()
	m.Load(0x1000, []byte{0x00})

	m.TagAttribute(0x1000, 1, Code)
	m.TagAttribute(0x1000, 1, CodeFirst)
	m.TagAttribute(0x1000, 1, Data)

	attr := m.AttributeAt(0x1000)
	assert.Equal(t, Assigned|Code|CodeFirst|Data, attr)

	// tagging again does not clear accumulated bits
	m.TagAttribute(0x1000, 1, Code)
	assert.Equal(t, attr, m.AttributeAt(0x1000))
}

func TestTagAttributeRange(t *testing.T) {
	m := New()
	m.TagAttribute(0x2000, 3, Code)

	assert.Equal(t, Code, m.AttributeAt(0x2000))
	assert.Equal(t, Code, m.AttributeAt(0x2002))
	assert.Equal(t, Unused, m.AttributeAt(0x2003))
}

func TestTagAttributeWrapsAddressSpace(t *testing.T) {
	m := New()
	m.TagAttribute(0xFFFF, 2, Data)

	assert.Equal(t, Data, m.AttributeAt(0xFFFF))
	assert.Equal(t, Data, m.AttributeAt(0x0000))
}

func TestOpcodeAtDoesNotMutate(t *testing.T) {
	m := New()
	m.Load(0x6000, []byte{0x21, 0x34, 0x12}) // ld hl, nn

	first := m.OpcodeAt(0x6000)
	second := m.OpcodeAt(0x6000)

	assert.Equal(t, "ld hl, nn", first.Opcode.Instruction.Name)
	assert.Equal(t, 0x1234, first.Value)
	assert.Equal(t, first, second)
	assert.Equal(t, Assigned, m.AttributeAt(0x6000))
}
