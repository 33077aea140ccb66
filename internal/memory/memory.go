// Package memory implements the analyzed address space of the target
// machine: a fixed 64K byte store with a parallel per-address attribute
// bitmap that classifies bytes as code or data during analysis.
package memory

import (
	"github.com/retroenv/z80godisasm/internal/z80"
)

// Size of the byte-addressable address space.
const Size = 0x10000

// Attribute classifies an address. Attributes accumulate, tagging an
// address ORs the new bits into the existing ones, bits are never cleared.
type Attribute byte

const (
	Unused    Attribute = 0
	Assigned  Attribute = 1 // covered by the loaded binary image
	Code      Attribute = 2 // part of a decoded instruction
	CodeFirst Attribute = 4 // first byte of a decoded instruction
	Data      Attribute = 8 // referenced as data
)

// AddressSpace is the memory image under analysis. All address arithmetic
// wraps at the top of the address space, the memory behaves as a ring.
// A single instance lives for the duration of one analysis run; it is
// written only while loading and by the control flow walker, never during
// register flow tracing, so concurrent readers are safe.
type AddressSpace struct {
	bytes      [Size]byte
	attributes [Size]Attribute
}

// New creates a new zero initialized address space.
func New() *AddressSpace {
	return &AddressSpace{}
}

// Load writes data into the ring starting at origin and tags every touched
// address as assigned. Overwriting previously loaded bytes is silent, the
// last write wins.
func (m *AddressSpace) Load(origin uint16, data []byte) {
	addr := origin
	for _, b := range data {
		m.bytes[addr] = b
		m.attributes[addr] |= Assigned
		addr++
	}
}

// ReadByte returns the byte stored at the address.
func (m *AddressSpace) ReadByte(address uint16) byte {
	return m.bytes[address]
}

// ReadWord returns the little-endian word stored at the address, the high
// byte read wraps at the top of the address space.
func (m *AddressSpace) ReadWord(address uint16) uint16 {
	low := uint16(m.bytes[address])
	high := uint16(m.bytes[address+1])
	return high<<8 | low
}

// OpcodeAt decodes the instruction at the address. It does not mutate the
// address space, repeated calls return identical results as long as the
// contents are unchanged.
func (m *AddressSpace) OpcodeAt(address uint16) z80.Decoded {
	return z80.Decode(m, address)
}

// TagAttribute ORs attr into length consecutive addresses starting at
// address, wrapping at the top of the address space.
func (m *AddressSpace) TagAttribute(address uint16, length int, attr Attribute) {
	for i := range length {
		m.attributes[address+uint16(i)] |= attr
	}
}

// AttributeAt returns the accumulated attribute bitmask of the address.
func (m *AddressSpace) AttributeAt(address uint16) Attribute {
	return m.attributes[address]
}
