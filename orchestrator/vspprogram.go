/*
 * VSP core - VSP program Process-stage component.
 *
 * Copyright 2026, VSP core contributors.
 */

package orchestrator

import (
	"context"

	"github.com/vsp-core/vsp/bytesil"
	"github.com/vsp-core/vsp/silstate"
	"github.com/vsp-core/vsp/vsp/engine"
	"github.com/vsp-core/vsp/vsp/interp"
)

// VSPProgram is a Process-stage component that pre-decodes one VSP
// bytecode program and re-runs it against the orchestrator's shared
// SilState once per tick. It is the owner of the System opcode group's
// IO side: SENSE/ACT read and write the tick's SilState directly, and
// IN/OUT address a small per-component port file, all through
// engine.Machine.IOHooks rather than any package-global hook table.
type VSPProgram struct {
	name    string
	prog    *interp.Program
	machine *engine.Machine
	ports   [256]bytesil.ByteSil
}

// NewVSPProgram pre-decodes code (with an optional read-only data
// segment) and returns the component wrapping it. It fails exactly when
// interp.PreDecode would: malformed bytecode is rejected before the
// component is ever registered.
func NewVSPProgram(name string, code, data []byte) (*VSPProgram, error) {
	prog, err := interp.PreDecode(code)
	if err != nil {
		return nil, err
	}
	return &VSPProgram{name: name, prog: prog, machine: engine.NewMachine(code, data)}, nil
}

// ProcessState runs the program from PC 0 against s. SENSE <layer> reads
// layer off the state passed in; ACT <layer> writes it into the state
// this call returns; IN/OUT <port> read and write this component's own
// port file, which persists across ticks the way a real peripheral
// register bank would.
func (v *VSPProgram) ProcessState(ctx context.Context, s silstate.State) (silstate.State, error) {
	v.machine.State = s
	v.machine.PC = 0
	v.machine.Halted = false
	v.machine.CycleCount = 0
	v.machine.IOHooks = &engine.IOHooks{
		In:  func(port byte) bytesil.ByteSil { return v.ports[port] },
		Out: func(port byte, val bytesil.ByteSil) { v.ports[port] = val },
		Sense: func(layer byte) bytesil.ByteSil {
			return s[int(layer)%silstate.NumLayers]
		},
		Act: func(layer byte, val bytesil.ByteSil) {
			v.machine.State[int(layer)%silstate.NumLayers] = val
		},
	}

	if _, _, err := interp.Run(v.machine, v.prog); err != nil {
		return s, err
	}
	return v.machine.State, nil
}

// Port reads back one of the component's IN/OUT port registers; used by
// tests and by Actuate-stage components downstream of this one.
func (v *VSPProgram) Port(port byte) bytesil.ByteSil { return v.ports[port] }

// R0 reads the program's return-value register after a run; used by
// tests to observe the result of an IN opcode without exposing the full
// register file.
func (v *VSPProgram) R0() bytesil.ByteSil { return v.machine.R0() }

// NewVSPProgramComponent pre-decodes code and registers it as a
// Process-stage orchestrator.Component declaring readMask/writeMask over
// the shared SilState layers.
func NewVSPProgramComponent(name string, readMask, writeMask uint16, code, data []byte) (Component, error) {
	prog, err := NewVSPProgram(name, code, data)
	if err != nil {
		return nil, err
	}
	return NewProcessorComponent(name, readMask, writeMask, prog), nil
}
