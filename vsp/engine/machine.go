package engine

import (
	"github.com/vsp-core/vsp/bytesil"
	"github.com/vsp-core/vsp/silstate"
)

// Machine holds the runtime state of one VSP instance: 16 general
// registers, program counter, monotone cycle counter, the active mode,
// the primary mutable SilState, and the read-only program image. Machine
// is owned for the duration of execution by exactly one engine tier at a
// time; there is no shared mutable state between Machine instances.
type Machine struct {
	Regs  [16]bytesil.ByteSil
	State silstate.State
	Mode  silstate.Mode

	PC         int
	CycleCount uint64
	Halted     bool

	Code []byte
	Data []byte

	// IOHooks bridges IN/OUT/SENSE/ACT to the component running this
	// Machine; nil means those opcodes retire as no-ops.
	IOHooks *IOHooks

	// callStack holds return addresses for CALL/RET; PUSH/POP instead
	// rotate the whole SilState.
	callStack []uint32
}

// NewMachine creates a Machine over the given code/data segments with all
// registers and state NULL.
func NewMachine(code, data []byte) *Machine {
	m := &Machine{Code: code, Data: data}
	for i := range m.Regs {
		m.Regs[i] = bytesil.Null
	}
	m.State = silstate.Vacuum()
	return m
}

// R0 is the conventional return-value register; HLT returns it.
func (m *Machine) R0() bytesil.ByteSil { return m.Regs[0] }

// PushCall saves a return address for CALL.
func (m *Machine) PushCall(addr uint32) {
	m.callStack = append(m.callStack, addr)
}

// PopCall returns the most recent saved return address for RET; ok is
// false on an empty stack (treated as HLT by callers).
func (m *Machine) PopCall() (addr uint32, ok bool) {
	n := len(m.callStack)
	if n == 0 {
		return 0, false
	}
	addr = m.callStack[n-1]
	m.callStack = m.callStack[:n-1]
	return addr, true
}

// RotatePush rotates the SilState layers down by one, dropping L0 in at
// L15: "stack on layers" PUSH semantics.
func (m *Machine) RotatePush() {
	saved := m.State[0]
	copy(m.State[0:15], m.State[1:16])
	m.State[15] = saved
}

// RotatePop is the inverse rotation used by POP.
func (m *Machine) RotatePop() {
	saved := m.State[15]
	copy(m.State[1:16], m.State[0:15])
	m.State[0] = saved
}
