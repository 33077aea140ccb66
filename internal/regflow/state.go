// Package regflow tracks per-register usage along one traced control flow
// path. It is the data flow half of the subroutine signature inference:
// the walker folds the register effects of every decoded instruction into
// a State, forks it at conditional branches and merges it again when paths
// rejoin.
package regflow

import (
	"slices"

	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/z80godisasm/internal/z80"
)

// slotState is the usage state of one register slot. A slot moves from
// fresh to used exactly once per path and never reverts, merges can only
// move slots in the same direction.
type slotState uint8

const (
	fresh slotState = iota
	used
)

// State records which registers have been touched on one traced path,
// which of them were read before being written and the path bookkeeping
// needed to terminate cyclic control flow. Each instance is exclusively
// owned by exactly one path, forking always goes through Clone.
type State struct {
	slots [z80.RegisterCount]slotState

	inputs set.Set[z80.Register] // registers read while still fresh

	visited    []uint16 // opcode addresses processed on this path, in order
	visitedSet set.Set[uint16]

	callStack []uint16 // simulated return addresses of call instructions
}

// New creates a state with all register slots fresh.
func New() *State {
	return &State{
		inputs:     set.New[z80.Register](),
		visitedSet: set.New[uint16](),
	}
}

// IsUsed returns whether the register has been touched on this path.
func (s *State) IsUsed(r z80.Register) bool {
	return s.slots[r] == used
}

// MarkUsed marks the register as touched. Marking an already used register
// has no effect.
func (s *State) MarkUsed(r z80.Register) {
	s.slots[r] = used
}

// AddInput records the register as a path entry dependency. The caller
// checks IsUsed before MarkUsed for every register an instruction reads;
// a register read while still fresh was observed before the path wrote it.
func (s *State) AddInput(r z80.Register) {
	s.inputs.Add(r)
}

// InputRegisters returns the registers read before being written on this
// path. The returned set is owned by the state.
func (s *State) InputRegisters() set.Set[z80.Register] {
	return s.inputs
}

// UsedRegisterSet returns all registers touched so far on this path,
// read or written. Not to be confused with InputRegisters.
func (s *State) UsedRegisterSet() set.Set[z80.Register] {
	result := set.New[z80.Register]()
	for i, slot := range s.slots {
		if slot == used {
			result.Add(z80.Register(i))
		}
	}
	return result
}

// ExchangeAccumulatorBank swaps the accumulator and flags pair with its
// shadow bank counterpart, modeling ex af, af'.
func (s *State) ExchangeAccumulatorBank() {
	s.swap(z80.A, z80.AltA)
	s.swap(z80.F, z80.AltF)
}

// ExchangeGeneralBanks swaps the three general purpose register pairs with
// their shadow bank counterparts, modeling exx. Calling it twice restores
// the original slot assignment.
func (s *State) ExchangeGeneralBanks() {
	s.swap(z80.B, z80.AltB)
	s.swap(z80.C, z80.AltC)
	s.swap(z80.D, z80.AltD)
	s.swap(z80.E, z80.AltE)
	s.swap(z80.H, z80.AltH)
	s.swap(z80.L, z80.AltL)
}

// ExchangeDEHL swaps the de and hl slots, modeling ex de, hl.
func (s *State) ExchangeDEHL() {
	s.swap(z80.D, z80.H)
	s.swap(z80.E, z80.L)
}

// ExchangeStackHL models ex (sp), hl. hl receives a value from the
// simulated stack, its slots become used; the old hl value moving to
// memory is covered by the read set of the instruction.
func (s *State) ExchangeStackHL() {
	s.slots[z80.H] = used
	s.slots[z80.L] = used
}

func (s *State) swap(a, b z80.Register) {
	s.slots[a], s.slots[b] = s.slots[b], s.slots[a]
}

// Clone returns an independent deep copy of the state, used when a traced
// path forks at a conditional branch.
func (s *State) Clone() *State {
	clone := &State{
		slots:      s.slots,
		inputs:     set.New[z80.Register](),
		visited:    slices.Clone(s.visited),
		visitedSet: set.New[uint16](),
		callStack:  slices.Clone(s.callStack),
	}
	for r := range s.inputs {
		clone.inputs.Add(r)
	}
	for addr := range s.visitedSet {
		clone.visitedSet.Add(addr)
	}
	return clone
}

// Merge folds the used slots of another path into this one: every register
// used in other becomes used here. This is a conservative join, after
// merging a register counts as used if it was used along either path.
// Input registers, visited addresses and the call stack are path specific
// bookkeeping and are left untouched, reconciling them is up to the caller.
func (s *State) Merge(other *State) {
	for i, slot := range other.slots {
		if slot == used {
			s.slots[i] = used
		}
	}
}

// Visited returns whether the address was already processed on this path.
func (s *State) Visited(address uint16) bool {
	return s.visitedSet.Contains(address)
}

// MarkVisited appends the address to the path history.
func (s *State) MarkVisited(address uint16) {
	s.visited = append(s.visited, address)
	s.visitedSet.Add(address)
}

// VisitedAddresses returns the opcode addresses processed on this path in
// visiting order.
func (s *State) VisitedAddresses() []uint16 {
	return s.visited
}

// PushCall pushes a simulated return address.
func (s *State) PushCall(returnAddress uint16) {
	s.callStack = append(s.callStack, returnAddress)
}

// PopCall pops the most recent simulated return address. It returns false
// if the path entered through a subroutine entry and has no recorded
// caller, which ends the path at the return instruction.
func (s *State) PopCall() (uint16, bool) {
	if len(s.callStack) == 0 {
		return 0, false
	}
	top := s.callStack[len(s.callStack)-1]
	s.callStack = s.callStack[:len(s.callStack)-1]
	return top, true
}
