package disasm

import (
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/z80godisasm/internal/memory"
	"github.com/retroenv/z80godisasm/internal/regflow"
	"github.com/retroenv/z80godisasm/internal/z80"
)

// tracer infers the register signature of one subroutine by walking all
// of its control flow paths with a register flow state. It never executes
// code, conditional branches fork the state and the forked results are
// merged back conservatively.
type tracer struct {
	mem    *memory.AddressSpace
	logger *log.Logger
}

func newTracer(mem *memory.AddressSpace, logger *log.Logger) *tracer {
	return &tracer{
		mem:    mem,
		logger: logger,
	}
}

// analyze traces all paths of the subroutine starting at entry and
// returns the merged register flow state.
func (t *tracer) analyze(entry uint16) *regflow.State {
	state := regflow.New()
	t.trace(state, entry)

	t.logger.Debug("Register flow traced",
		log.Hex("entry", entry),
		log.Int("instructions", len(state.VisitedAddresses())))
	return state
}

// trace follows one path until it returns, revisits an address or reaches
// an instruction it cannot follow. Conditional instructions clone the
// state for the taken path and merge it back afterwards: used registers
// are joined through the state merge, input registers are unioned as the
// walker side convention, the continuing path keeps its own visited
// history and call stack.
func (t *tracer) trace(state *regflow.State, addr uint16) {
	for {
		if state.Visited(addr) {
			return // loop or rejoin with an already traced part of the path
		}
		state.MarkVisited(addr)

		dec := t.mem.OpcodeAt(addr)
		ins := dec.Opcode.Instruction
		if ins == nil {
			return
		}

		t.applyRegisterEffects(state, ins)

		next := addr + dec.Size
		target, hasTarget := dec.Target()

		switch {
		case ins.Conditional:
			fork := state.Clone()
			t.traceTaken(fork, ins, target, hasTarget, next)
			state.Merge(fork)
			for r := range fork.InputRegisters() {
				state.AddInput(r)
			}
			addr = next

		case ins.Call:
			if !hasTarget {
				return
			}
			state.PushCall(next)
			addr = target

		case ins.Jump:
			if !hasTarget {
				return // jp (hl), target unknown without executing
			}
			addr = target

		case ins.Return:
			ret, ok := state.PopCall()
			if !ok {
				return // subroutine exit
			}
			addr = ret

		default:
			addr = next
		}
	}
}

// traceTaken follows the taken side of a conditional instruction.
func (t *tracer) traceTaken(fork *regflow.State, ins *z80.Instruction,
	target uint16, hasTarget bool, next uint16) {

	switch {
	case ins.Call:
		if hasTarget {
			fork.PushCall(next)
			t.trace(fork, target)
		}

	case ins.Jump:
		if hasTarget {
			t.trace(fork, target)
		}

	case ins.Return:
		if ret, ok := fork.PopCall(); ok {
			t.trace(fork, ret)
		}
	}
}

// applyRegisterEffects folds the register side effects of one instruction
// into the state. All reads are checked against the state before any slot
// is marked, a register read while still fresh is an input of the path.
func (t *tracer) applyRegisterEffects(state *regflow.State, ins *z80.Instruction) {
	for _, r := range ins.Reads {
		if !state.IsUsed(r) {
			state.AddInput(r)
		}
	}
	for _, r := range ins.Reads {
		state.MarkUsed(r)
	}

	switch ins.Exchange {
	case z80.ExchangeAccumulatorBank:
		state.ExchangeAccumulatorBank()
	case z80.ExchangeGeneralBanks:
		state.ExchangeGeneralBanks()
	case z80.ExchangeDEHL:
		state.ExchangeDEHL()
	case z80.ExchangeStackHL:
		state.ExchangeStackHL()
	case z80.ExchangeNone:
	}

	for _, r := range ins.Writes {
		state.MarkUsed(r)
	}
}
