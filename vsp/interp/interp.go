/*
 * VSP core - Tier 0 threaded interpreter.
 *
 * Copyright 2026, VSP core contributors.
 *
 * A per-opcode handler table (dispatch) built once at package init,
 * looked up and called once per retired instruction with no allocation
 * in the hot path.
 */

// Package interp implements the mandatory, portable Tier-0 threaded
// interpreter: a single pre-decode pass builds a flat array of decoded
// instructions, then the run loop walks it, looking up each opcode's
// handler in the dispatch map and calling it, until HLT,
// RET-to-empty-stack, or a decode error.
package interp

import (
	"fmt"
	"math"

	"github.com/vsp-core/vsp/bytesil"
	"github.com/vsp-core/vsp/silstate"
	"github.com/vsp-core/vsp/vsp/engine"
	"github.com/vsp-core/vsp/vsp/isa"
)

// control signals a handler returns to the run loop.
type control int

const (
	ctlNext control = iota
	ctlJump
	ctlHalt
	ctlReturn
)

type handler func(m *engine.Machine, inst isa.Instruction) (control, int, error)

// step is one pre-decoded program entry: its byte offset and the
// instruction already parsed out of the bytecode. It holds no handler;
// retire looks that up in dispatch by opcode.
type step struct {
	pc   int
	inst isa.Instruction
}

// Program is the result of pre-decoding a code segment: a flat step array
// plus a byte-offset-to-index map so jump targets resolve in O(1).
type Program struct {
	steps   []step
	pcIndex map[int]int
}

// PreDecode walks code once, decoding every instruction. It returns
// engine.ErrInvalidBytecode (via isa.Decode) on the first decode failure,
// so the caller never runs with a partially loaded program.
func PreDecode(code []byte) (*Program, error) {
	p := &Program{pcIndex: make(map[int]int)}
	pc := 0
	for pc < len(code) {
		inst, err := isa.Decode(code, pc)
		if err != nil {
			return nil, err
		}
		p.pcIndex[pc] = len(p.steps)
		p.steps = append(p.steps, step{pc: pc, inst: inst})
		pc += inst.Len
	}
	return p, nil
}

// Run executes program on m from its current PC until HLT, an empty-stack
// RET, or a runtime error. It returns the final R0 and the number of
// cycles retired.
func Run(m *engine.Machine, p *Program) (bytesil.ByteSil, uint64, error) {
	idx, ok := p.pcIndex[m.PC]
	if !ok {
		return bytesil.Null, m.CycleCount, engine.NewInvalidBytecode(m.PC, "pc not at instruction boundary")
	}

	for {
		var halted bool
		var err error
		idx, halted, err = retire(m, p, idx)
		if err != nil {
			return bytesil.Null, m.CycleCount, err
		}
		if halted {
			return m.R0(), m.CycleCount, nil
		}
	}
}

// Step retires exactly one instruction from m.PC, the single-step
// primitive the command console drives its breakpoint loop with. It
// reports whether the machine halted (HLT or RET to an empty call stack).
func Step(m *engine.Machine, p *Program) (bool, error) {
	idx, ok := p.pcIndex[m.PC]
	if !ok {
		return false, engine.NewInvalidBytecode(m.PC, "pc not at instruction boundary")
	}
	_, halted, err := retire(m, p, idx)
	return halted, err
}

// retire executes the step at idx and returns the index to resume at, or
// halted=true if that was the last instruction this run will execute.
func retire(m *engine.Machine, p *Program, idx int) (next int, halted bool, err error) {
	if idx < 0 || idx >= len(p.steps) {
		return idx, false, engine.NewInvalidBytecode(m.PC, "pc out of bounds")
	}
	st := p.steps[idx]
	m.PC = st.pc

	h, ok := dispatch[st.inst.Op]
	if !ok {
		return idx, false, engine.NewInvalidBytecode(st.pc, "unknown opcode")
	}

	ctl, target, err := h(m, st.inst)
	if err != nil {
		return idx, false, err
	}
	m.CycleCount++

	switch ctl {
	case ctlHalt:
		m.Halted = true
		return idx, true, nil
	case ctlReturn:
		addr, ok := m.PopCall()
		if !ok {
			m.Halted = true
			return idx, true, nil
		}
		next, found := p.pcIndex[int(addr)]
		if !found {
			return idx, false, engine.NewInvalidBytecode(int(addr), "return address not an instruction boundary")
		}
		m.PC = p.steps[next].pc
		return next, false, nil
	case ctlJump:
		next, found := p.pcIndex[target]
		if !found {
			return idx, false, engine.NewInvalidBytecode(target, "jump target not an instruction boundary")
		}
		m.PC = p.steps[next].pc
		return next, false, nil
	default: // ctlNext
		if idx+1 >= len(p.steps) {
			m.Halted = true
			return idx, true, nil
		}
		m.PC = p.steps[idx+1].pc
		return idx + 1, false, nil
	}
}

var dispatch map[byte]handler

func init() {
	dispatch = map[byte]handler{
		isa.OpNOP:   opNop,
		isa.OpHLT:   opHlt,
		isa.OpRET:   opRet,
		isa.OpYIELD: opYield,

		isa.OpJMP:  opJmp,
		isa.OpJZ:   opJz,
		isa.OpJN:   opJn,
		isa.OpJC:   opJc,
		isa.OpJO:   opJo,
		isa.OpCALL: opCall,

		isa.OpMOV:  opMov,
		isa.OpMOVI: opMovi,
		isa.OpXCHG: opXchg,
		isa.OpPUSH: opPush,
		isa.OpPOP:  opPop,

		isa.OpMUL:  opBinary(bytesil.Mul),
		isa.OpDIV:  opBinary(bytesil.Div),
		isa.OpADD:  opBinary(bytesil.Add),
		isa.OpSUB:  opBinary(bytesil.Sub),
		isa.OpPOW:  opPow,
		isa.OpROOT: opRoot,
		isa.OpINV:  opUnary(bytesil.Inv),
		isa.OpCONJ: opUnary(bytesil.Conj),

		isa.OpMAG:    opMag,
		isa.OpPHASE:  opPhase,
		isa.OpSCALE:  opScale,
		isa.OpROTATE: opRotate,

		isa.OpXORL: opLayerOp(bytesil.Xor),
		isa.OpANDL: opLayerOp(layerAnd),
		isa.OpORL:  opLayerOp(layerOr),
		isa.OpNOTL: opNotl,
		isa.OpFOLD: opFold,

		isa.OpLERP:     opLerp,
		isa.OpSLERP:    opSlerp,
		isa.OpCOLLAPSE: opCollapse,
		isa.OpSHIFTL:   opShiftl,
		isa.OpROTATL:   opRotatl,

		isa.OpSETMODE: opSetmode,
		isa.OpPROMOTE: opPromote,
		isa.OpDEMOTE:  opDemote,
		// IN/OUT/SENSE/ACT delegate to m.IOHooks; the bare interpreter
		// treats them as NOPs that still retire a cycle when nothing
		// has installed hooks on the Machine (see engine.IOHooks).
		isa.OpIN:     opIO,
		isa.OpOUT:    opIO,
		isa.OpSENSE:  opIO,
		isa.OpACT:    opIO,
	}
}

func layerAnd(a, b bytesil.ByteSil) bytesil.ByteSil {
	return bytesil.Unpack(a.Pack() & b.Pack())
}

func layerOr(a, b bytesil.ByteSil) bytesil.ByteSil {
	return bytesil.Unpack(a.Pack() | b.Pack())
}

func opNop(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	return ctlNext, 0, nil
}

func opHlt(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.Halted = true
	return ctlHalt, 0, nil
}

func opRet(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	return ctlReturn, 0, nil
}

func opYield(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	return ctlNext, 0, nil
}

func target(m *engine.Machine, inst isa.Instruction) int {
	return m.PC + inst.Len + int(inst.Offset)
}

func opJmp(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	return ctlJump, target(m, inst), nil
}

func opJz(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	if m.Regs[0].IsNull() {
		return ctlJump, target(m, inst), nil
	}
	return ctlNext, 0, nil
}

func opJn(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	if m.Regs[0].Rho < 0 {
		return ctlJump, target(m, inst), nil
	}
	return ctlNext, 0, nil
}

func opJc(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	if m.Regs[0].Theta == 0 {
		return ctlJump, target(m, inst), nil
	}
	return ctlNext, 0, nil
}

func opJo(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	if m.Regs[0].Rho == 7 {
		return ctlJump, target(m, inst), nil
	}
	return ctlNext, 0, nil
}

func opCall(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.PushCall(uint32(m.PC + inst.Len))
	return ctlJump, target(m, inst), nil
}

func opMov(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.Regs[inst.Rb] = m.Regs[inst.Ra]
	return ctlNext, 0, nil
}

func opMovi(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.Regs[inst.Ra] = bytesil.Unpack(inst.Imm)
	return ctlNext, 0, nil
}

func opXchg(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.Regs[inst.Ra], m.Regs[inst.Rb] = m.Regs[inst.Rb], m.Regs[inst.Ra]
	return ctlNext, 0, nil
}

func opPush(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.RotatePush()
	m.State[0] = m.Regs[inst.Ra]
	return ctlNext, 0, nil
}

func opPop(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	// Read before rotating: PUSH writes its register to L0 after
	// rotating, so POP must read L0 before undoing that rotation or it
	// returns the wrong layer.
	m.Regs[inst.Ra] = m.State[0]
	m.RotatePop()
	return ctlNext, 0, nil
}

func opBinary(fn func(a, b bytesil.ByteSil) bytesil.ByteSil) handler {
	return func(m *engine.Machine, inst isa.Instruction) (control, int, error) {
		m.Regs[inst.Rb] = fn(m.Regs[inst.Rb], m.Regs[inst.Ra])
		return ctlNext, 0, nil
	}
}

func opUnary(fn func(a bytesil.ByteSil) bytesil.ByteSil) handler {
	return func(m *engine.Machine, inst isa.Instruction) (control, int, error) {
		m.Regs[inst.Rb] = fn(m.Regs[inst.Ra])
		return ctlNext, 0, nil
	}
}

func opPow(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	n := int(int8(m.Regs[inst.Ra].Pack()))
	m.Regs[inst.Rb] = bytesil.Pow(m.Regs[inst.Rb], n)
	return ctlNext, 0, nil
}

func opRoot(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	n := int(int8(m.Regs[inst.Ra].Pack()))
	if n == 0 {
		n = 1
	}
	m.Regs[inst.Rb] = bytesil.Root(m.Regs[inst.Rb], n)
	return ctlNext, 0, nil
}

func opMag(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	mag := bytesil.Magnitude(m.Regs[inst.Ra])
	rho := bytesil.Saturate(int(mag))
	m.Regs[inst.Rb] = bytesil.ByteSil{Rho: rho, Theta: 0}
	return ctlNext, 0, nil
}

func opPhase(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.Regs[inst.Rb] = bytesil.ByteSil{Rho: 0, Theta: m.Regs[inst.Ra].Theta}
	return ctlNext, 0, nil
}

func opScale(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.Regs[inst.Ra] = bytesil.Scale(m.Regs[inst.Ra], int(inst.Signed))
	return ctlNext, 0, nil
}

func opRotate(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.Regs[inst.Ra] = bytesil.Rotate(m.Regs[inst.Ra], int(inst.Signed))
	return ctlNext, 0, nil
}

// opLayerOp implements XORL/ANDL/ORL. The layer byte is either a
// destination/source pair ((dst<<4)|src), storing fn(dst,src) into dst, or
// the WholeState sentinel, which folds L[i] with L[i+8] into L[i] for all
// i in [0,8) — the same pairing FOLD uses.
func opLayerOp(fn func(a, b bytesil.ByteSil) bytesil.ByteSil) handler {
	return func(m *engine.Machine, inst isa.Instruction) (control, int, error) {
		if inst.Layer == isa.WholeState {
			for i := 0; i < 8; i++ {
				m.State[i] = fn(m.State[i], m.State[i+8])
			}
			return ctlNext, 0, nil
		}
		dst := int((inst.Layer >> 4) & 0xf)
		src := int(inst.Layer & 0xf)
		m.State[dst] = fn(m.State[dst], m.State[src])
		return ctlNext, 0, nil
	}
}

func opNotl(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	lo, hi := 0, silstate.NumLayers
	if inst.Layer != isa.WholeState {
		lo = int((inst.Layer >> 4) & 0xf)
		hi = lo + 1
	}
	for i := lo; i < hi; i++ {
		m.State[i] = bytesil.Unpack(^m.State[i].Pack())
	}
	return ctlNext, 0, nil
}

func opFold(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	for i := 0; i < 8; i++ {
		m.State[i] = bytesil.Xor(m.State[i], m.State[i+8])
	}
	return ctlNext, 0, nil
}

func opLerp(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	t := float64(inst.Imm) / 15.0
	a := m.Regs[inst.Ra]
	b := m.Regs[inst.Rb]
	rho := int8(float64(a.Rho) + t*(float64(b.Rho)-float64(a.Rho)))
	theta := a.Theta
	if t >= 0.5 {
		theta = b.Theta
	}
	m.Regs[inst.Rc] = bytesil.ByteSil{Rho: bytesil.Saturate(int(rho)), Theta: theta}
	return ctlNext, 0, nil
}

// opSlerp differs from opLerp in how it blends theta: LERP snaps to
// whichever endpoint's theta is closer by threshold (t<0.5 keeps a's,
// otherwise takes b's), while SLERP walks the shorter of the two arcs
// around the 16-point circle a fractional amount of the way, the
// circular analogue of linear interpolation. Rho is not circular, so it
// is blended the same linear way as LERP.
func opSlerp(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	t := float64(inst.Imm) / 15.0
	a := m.Regs[inst.Ra]
	b := m.Regs[inst.Rb]
	rho := int8(float64(a.Rho) + t*(float64(b.Rho)-float64(a.Rho)))

	// Shortest signed arc from a.Theta to b.Theta on a 16-point circle,
	// in (-8, 8] (a half-turn tie goes forward, +8); walk t of the way
	// around it and wrap back into [0,16).
	arc := (int(b.Theta)-int(a.Theta))%16 + 16
	arc %= 16
	if arc > 8 {
		arc -= 16
	}
	theta := int(a.Theta) + int(math.Round(t*float64(arc)))
	theta = ((theta % 16) + 16) % 16

	m.Regs[inst.Rc] = bytesil.ByteSil{Rho: bytesil.Saturate(int(rho)), Theta: uint8(theta)}
	return ctlNext, 0, nil
}

func opCollapse(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.State[0] = m.State.Xor()
	return ctlNext, 0, nil
}

func opShiftl(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	n := int(inst.Imm) % silstate.NumLayers
	var r silstate.State
	for i := range r {
		r[i] = bytesil.Null
	}
	for i := 0; i+n < silstate.NumLayers; i++ {
		r[i] = m.State[i+n]
	}
	m.State = r
	return ctlNext, 0, nil
}

func opRotatl(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	n := int(inst.Imm) % silstate.NumLayers
	var r silstate.State
	for i := range r {
		r[i] = m.State[(i+n)%silstate.NumLayers]
	}
	m.State = r
	return ctlNext, 0, nil
}

func opSetmode(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.Mode = silstate.Mode(inst.Mode)
	return ctlNext, 0, nil
}

func opPromote(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.State = silstate.Promote(m.State, m.Mode)
	return ctlNext, 0, nil
}

func opDemote(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	m.State = silstate.Demote(m.State, m.Mode, silstate.DemoteStrategy(inst.Mode))
	return ctlNext, 0, nil
}

// opIO dispatches IN/OUT/SENSE/ACT through m.IOHooks, the bridge its
// owning component (e.g. an orchestrator.VSPProgram) installs before
// running the program. A Machine with no hooks installed — a bare
// interpreter run with nothing attached — retires these as
// cycle-consuming no-ops rather than failing.
func opIO(m *engine.Machine, inst isa.Instruction) (control, int, error) {
	if m.IOHooks == nil {
		return ctlNext, 0, nil
	}
	switch inst.Op {
	case isa.OpIN:
		if m.IOHooks.In != nil {
			m.Regs[0] = m.IOHooks.In(inst.Mode)
		}
	case isa.OpOUT:
		if m.IOHooks.Out != nil {
			m.IOHooks.Out(inst.Mode, m.Regs[0])
		}
	case isa.OpSENSE:
		if m.IOHooks.Sense != nil {
			m.State[0] = m.IOHooks.Sense(inst.Mode)
		}
	case isa.OpACT:
		if m.IOHooks.Act != nil {
			m.IOHooks.Act(inst.Mode, m.State[0])
		}
	default:
		return ctlNext, 0, fmt.Errorf("opIO: unexpected opcode %#x", inst.Op)
	}
	return ctlNext, 0, nil
}
