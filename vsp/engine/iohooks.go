package engine

import "github.com/vsp-core/vsp/bytesil"

// IOHooks bridges the System opcode group (IN/OUT/SENSE/ACT) to whatever
// owns this Machine. A Machine with no hooks installed treats those
// opcodes as cycle-consuming no-ops; an orchestrator component that runs
// a program sets Machine.IOHooks to its own layer/port accessors before
// each run, so IO stays an explicit field on the value being executed
// rather than ambient package-global state.
type IOHooks struct {
	In    func(port byte) bytesil.ByteSil
	Out   func(port byte, v bytesil.ByteSil)
	Sense func(layer byte) bytesil.ByteSil
	Act   func(layer byte, v bytesil.ByteSil)
}
