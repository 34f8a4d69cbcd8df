package isa

import (
	"github.com/vsp-core/vsp/vsp/engine"
)

// Instruction is one decoded VSP instruction: the opcode plus whatever
// operand fields its encoding carries. Unused fields are zero.
type Instruction struct {
	Op     byte
	Ra, Rb uint8 // register operands
	Rc     uint8 // third register operand (LERP/SLERP)
	Imm    byte  // MOVI immediate byte, or a scalar operand (SCALE/ROTATE/t)
	Signed int8  // signed view of Imm, for SCALE/ROTATE amounts
	Layer  uint8 // layer-pair selector, or WholeState
	Mode   byte  // SETMODE/DEMOTE strategy operand
	Offset int32 // 24-bit signed jump/call offset
	Len    int   // total encoded length in bytes
}

// The byte layout is fixed for the mandatory opcode subset; everything
// else below is this core's concrete choice within the variable-length
// latitude allowed for non-mandatory opcodes, kept internally consistent
// (reg-pair bytes as (Rb<<4)|Ra throughout).
func oneByte(op byte) Instruction   { return Instruction{Op: op, Len: 1} }
func regPair(op, packed byte) Instruction {
	return Instruction{Op: op, Ra: packed & 0xf, Rb: (packed >> 4) & 0xf, Len: 2}
}

// Decode reads one instruction from code starting at pc. It returns
// engine.ErrInvalidBytecode (wrapped with the PC) on an unknown opcode or
// a truncated operand — the caller must stop without mutating state
// further, following the fetch/decode/dispatch state machine.
func Decode(code []byte, pc int) (Instruction, error) {
	if pc < 0 || pc >= len(code) {
		return Instruction{}, engine.NewInvalidBytecode(pc, "pc out of bounds")
	}
	op := code[pc]
	need := func(n int) error {
		if pc+n > len(code) {
			return engine.NewInvalidBytecode(pc, "truncated instruction")
		}
		return nil
	}

	switch op {
	case OpNOP, OpHLT, OpRET, OpYIELD, OpCOLLAPSE, OpFOLD, OpPROMOTE:
		return oneByte(op), nil

	case OpMOV, OpXCHG, OpMUL, OpDIV, OpPOW, OpROOT, OpADD, OpSUB,
		OpINV, OpCONJ, OpMAG, OpPHASE:
		if err := need(2); err != nil {
			return Instruction{}, err
		}
		return regPair(op, code[pc+1]), nil

	case OpMOVI:
		if err := need(3); err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Ra: code[pc+1] & 0xf, Imm: code[pc+2], Len: 3}, nil

	case OpPUSH, OpPOP:
		if err := need(2); err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Ra: code[pc+1] & 0xf, Len: 2}, nil

	case OpXORL, OpANDL, OpORL, OpNOTL:
		if err := need(2); err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Layer: code[pc+1], Len: 2}, nil

	case OpSCALE, OpROTATE:
		if err := need(3); err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Ra: code[pc+1] & 0xf, Imm: code[pc+2],
			Signed: int8(code[pc+2]), Len: 3}, nil

	case OpLERP, OpSLERP:
		if err := need(3); err != nil {
			return Instruction{}, err
		}
		first := code[pc+1]
		second := code[pc+2]
		return Instruction{
			Op: op,
			Ra: first & 0xf, Rb: (first >> 4) & 0xf,
			Rc: second & 0xf, Imm: (second >> 4) & 0xf,
			Len: 3,
		}, nil

	case OpSHIFTL, OpROTATL:
		if err := need(2); err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Imm: code[pc+1], Len: 2}, nil

	case OpSETMODE, OpDEMOTE, OpIN, OpOUT, OpSENSE, OpACT:
		if err := need(2); err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Mode: code[pc+1], Len: 2}, nil

	case OpJMP, OpJZ, OpJN, OpJC, OpJO, OpCALL:
		if err := need(4); err != nil {
			return Instruction{}, err
		}
		raw := int32(code[pc+1]) | int32(code[pc+2])<<8 | int32(code[pc+3])<<16
		if raw&0x800000 != 0 {
			raw |= ^int32(0xffffff) // sign-extend 24 bits
		}
		return Instruction{Op: op, Offset: raw, Len: 4}, nil

	default:
		return Instruction{}, engine.NewInvalidBytecode(pc, "unknown opcode")
	}
}
