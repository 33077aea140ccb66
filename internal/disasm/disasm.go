// Package disasm implements a tracing Z80 disassembler: it follows the
// execution flow through a raw binary image, classifies every byte as code
// or data and infers per-subroutine register signatures without executing
// the code.
package disasm

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"slices"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/z80godisasm/internal/memory"
	"github.com/retroenv/z80godisasm/internal/options"
	"github.com/retroenv/z80godisasm/internal/program"
	"github.com/retroenv/z80godisasm/internal/writer"
	"github.com/retroenv/z80godisasm/internal/z80"
)

// Disasm implements the disassembler.
type Disasm struct {
	logger  *log.Logger
	options options.Disassembler

	mem    *memory.AddressSpace
	image  []byte
	origin uint16

	pc uint16 // address of the instruction being processed

	offsetsToParse      []uint16
	offsetsToParseAdded set.Set[uint16]
	offsetsParsed       set.Set[uint16]

	decoded map[uint16]z80.Decoded // successfully decoded instructions

	branchDestinations set.Set[uint16] // set of all addresses that are branched to
	callDestinations   set.Set[uint16] // subroutine entries discovered through calls
}

// New creates a new disassembler for a raw binary image loaded at the
// origin given in the options.
func New(logger *log.Logger, opts options.Disassembler, image []byte) (*Disasm, error) {
	if len(image) == 0 {
		return nil, errors.New("empty binary image")
	}
	if len(image) > memory.Size {
		return nil, fmt.Errorf("image size %d exceeds address space", len(image))
	}

	mem := memory.New()
	mem.Load(opts.Origin, image)

	dis := &Disasm{
		logger:  logger,
		options: opts,

		mem:    mem,
		image:  image,
		origin: opts.Origin,

		offsetsToParseAdded: set.New[uint16](),
		offsetsParsed:       set.New[uint16](),

		decoded: map[uint16]z80.Decoded{},

		branchDestinations: set.New[uint16](),
		callDestinations:   set.New[uint16](),
	}

	dis.callDestinations.Add(opts.Entry)
	dis.addAddressToParse(opts.Entry)

	return dis, nil
}

// Process follows the execution flow, infers the subroutine signatures and
// writes the resulting listing to mainWriter.
func (dis *Disasm) Process(ctx context.Context, mainWriter io.Writer) (*program.Program, error) {
	if err := dis.followExecutionFlow(ctx); err != nil {
		return nil, err
	}

	subroutines := dis.analyzeSubroutines()

	app := dis.convertToProgram(subroutines)

	fileWriter := writer.New(app, mainWriter, writer.Options{
		HexComments:    dis.options.HexComments,
		OffsetComments: dis.options.OffsetComments,
	})
	if err := fileWriter.Write(); err != nil {
		return nil, fmt.Errorf("writing listing: %w", err)
	}
	return app, nil
}

// Memory returns the analyzed address space.
func (dis *Disasm) Memory() *memory.AddressSpace {
	return dis.mem
}

// ProgramCounter returns the address of the instruction being processed.
func (dis *Disasm) ProgramCounter() uint16 {
	return dis.pc
}

// followExecutionFlow parses opcodes and follows the execution flow to
// parse all reachable code.
func (dis *Disasm) followExecutionFlow(ctx context.Context) error {
	for addr, ok := dis.addressToDisassemble(); ok; addr, ok = dis.addressToDisassemble() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("following execution flow: %w", err)
		}

		if dis.offsetsParsed.Contains(addr) {
			continue
		}
		dis.offsetsParsed.Add(addr)
		dis.pc = addr

		dec := dis.mem.OpcodeAt(addr)
		if dec.IsUnknown() {
			// unsupported prefix or trap byte, consider it start of data
			dis.mem.TagAttribute(addr, 1, memory.Data)
			dis.logger.Debug("Unsupported opcode byte",
				log.Hex("address", addr),
				log.Hex("byte", dec.Raw))
			continue
		}

		dis.mem.TagAttribute(addr, int(dec.Size), memory.Code)
		dis.mem.TagAttribute(addr, 1, memory.CodeFirst)
		dis.decoded[addr] = dec

		dis.addSuccessors(addr, dec)
	}
	return nil
}

// addSuccessors queues all addresses that the instruction can transfer
// control to.
func (dis *Disasm) addSuccessors(addr uint16, dec z80.Decoded) {
	ins := dec.Opcode.Instruction
	next := addr + dec.Size
	target, hasTarget := dec.Target()

	if hasTarget {
		dis.branchDestinations.Add(target)
	}

	switch {
	case ins.Call:
		if hasTarget {
			dis.callDestinations.Add(target)
			dis.addAddressToParse(target)
		}
		dis.addAddressToParse(next)

	case ins.Jump:
		if hasTarget {
			dis.addAddressToParse(target)
		}
		if ins.Conditional {
			dis.addAddressToParse(next)
		}

	case ins.Return:
		if ins.Conditional {
			dis.addAddressToParse(next)
		}

	default:
		dis.addAddressToParse(next)
	}
}

// addressToDisassemble returns the next address to disassemble, the bool
// result is false once all queued addresses have been processed.
func (dis *Disasm) addressToDisassemble() (uint16, bool) {
	for len(dis.offsetsToParse) > 0 {
		addr := dis.offsetsToParse[0]
		dis.offsetsToParse = dis.offsetsToParse[1:]
		return addr, true
	}
	return 0, false
}

// addAddressToParse adds an address to the list to be processed if the
// address has not been added yet.
func (dis *Disasm) addAddressToParse(address uint16) {
	if dis.offsetsToParseAdded.Contains(address) {
		return
	}
	dis.offsetsToParseAdded.Add(address)
	dis.offsetsToParse = append(dis.offsetsToParse, address)
}

// analyzeSubroutines runs the register flow tracer over every discovered
// subroutine entry.
func (dis *Disasm) analyzeSubroutines() []program.Subroutine {
	entries := make([]uint16, 0, len(dis.callDestinations))
	for entry := range dis.callDestinations {
		entries = append(entries, entry)
	}
	slices.Sort(entries)

	tr := newTracer(dis.mem, dis.logger)

	subroutines := make([]program.Subroutine, 0, len(entries))
	for _, entry := range entries {
		state := tr.analyze(entry)
		sub := program.Subroutine{
			Entry:  entry,
			Inputs: sortedRegisters(state.InputRegisters()),
			Used:   sortedRegisters(state.UsedRegisterSet()),
		}
		subroutines = append(subroutines, sub)

		dis.logger.Debug("Subroutine analyzed",
			log.Hex("entry", entry),
			log.String("signature", sub.Signature()))
	}
	return subroutines
}

func sortedRegisters(regs set.Set[z80.Register]) []z80.Register {
	result := make([]z80.Register, 0, len(regs))
	for r := range regs {
		result = append(result, r)
	}
	slices.Sort(result)
	return result
}

// convertToProgram converts the internal disassembly representation to a
// program model that the writer renders.
func (dis *Disasm) convertToProgram(subroutines []program.Subroutine) *program.Program {
	app := program.New(dis.origin, len(dis.image))
	app.Subroutines = subroutines
	app.Checksum = crc32.ChecksumIEEE(dis.image)

	for i := range app.Offsets {
		addr := dis.origin + uint16(i)
		offset := &app.Offsets[i]

		if dis.branchDestinations.Contains(addr) {
			offset.Label = dis.labelName(addr)
		}

		dec, ok := dis.decoded[addr]
		if !ok {
			if dis.mem.AttributeAt(addr)&memory.Code == 0 {
				offset.Data = []byte{dis.mem.ReadByte(addr)}
			}
			// non-first bytes of instructions carry no data of their own
			continue
		}

		offset.IsCode = true
		offset.Code = dis.formatInstruction(dec)
		offset.Data = make([]byte, dec.Size)
		for j := range dec.Size {
			offset.Data[j] = dis.mem.ReadByte(addr + j)
		}
	}

	// the configured entry point gets a label even without incoming branches
	if index, ok := dis.imageIndex(dis.options.Entry); ok {
		if app.Offsets[index].Label == "" {
			app.Offsets[index].Label = dis.labelName(dis.options.Entry)
		}
	}

	return app
}

// imageIndex maps an address to its index in the loaded image, the bool
// result is false for addresses outside of the image.
func (dis *Disasm) imageIndex(address uint16) (int, bool) {
	index := int(address - dis.origin) // wraps, the image is loaded on a ring
	if index >= len(dis.image) {
		return 0, false
	}
	return index, true
}

func (dis *Disasm) labelName(address uint16) string {
	if dis.callDestinations.Contains(address) {
		return fmt.Sprintf("sub_%04x", address)
	}
	return fmt.Sprintf("loc_%04x", address)
}
