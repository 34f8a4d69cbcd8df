package interp

import (
	"testing"

	"github.com/vsp-core/vsp/bytesil"
	"github.com/vsp-core/vsp/vsp/engine"
	"github.com/vsp-core/vsp/vsp/isa"
)

// TestAddProgram runs MOVI R0,0x0A; MOVI R1,0x14; ADD R0,R1; HLT and checks
// that exactly 4 instructions retire and R0 holds the sum.
func TestAddProgram(t *testing.T) {
	code := []byte{
		isa.OpMOVI, 0x00, 0x0A,
		isa.OpMOVI, 0x01, 0x14,
		isa.OpADD, 0x01, // (Rb<<4)|Ra = (0<<4)|1 -> Ra=1, Rb=0: Regs[0] = fn(Regs[0], Regs[1])
		isa.OpHLT,
	}
	prog, err := PreDecode(code)
	if err != nil {
		t.Fatalf("PreDecode: %v", err)
	}
	m := engine.NewMachine(code, nil)
	r0, cycles, err := Run(m, prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cycles != 4 {
		t.Errorf("cycles = %d, want 4", cycles)
	}
	if !m.Halted {
		t.Errorf("expected machine to be halted")
	}
	if r0 != m.Regs[0] {
		t.Errorf("r0 mismatch: %+v vs %+v", r0, m.Regs[0])
	}
	if want := bytesil.Add(bytesil.Unpack(0x0A), bytesil.Unpack(0x14)); r0 != want {
		t.Errorf("r0 = %+v, want sum %+v", r0, want)
	}
}

func TestHaltReturnsR0(t *testing.T) {
	code := []byte{isa.OpMOVI, 0x00, 0x05, isa.OpHLT}
	prog, err := PreDecode(code)
	if err != nil {
		t.Fatalf("PreDecode: %v", err)
	}
	m := engine.NewMachine(code, nil)
	r0, _, err := Run(m, prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := bytesil.Unpack(0x05)
	if r0 != want {
		t.Errorf("r0 = %+v, want %+v", r0, want)
	}
}

func TestJumpZero(t *testing.T) {
	// MOVI R0, Null(0x80); JZ +4 (skip HLT and MOVI R0,0x01, land on final HLT); HLT; MOVI R0,0x01; HLT
	code := []byte{
		isa.OpMOVI, 0x00, 0x80,
		isa.OpJZ, 0x04, 0x00, 0x00,
		isa.OpHLT,
		isa.OpMOVI, 0x00, 0x01,
		isa.OpHLT,
	}
	prog, err := PreDecode(code)
	if err != nil {
		t.Fatalf("PreDecode: %v", err)
	}
	m := engine.NewMachine(code, nil)
	r0, _, err := Run(m, prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !r0.IsNull() {
		t.Errorf("expected jump to skip second MOVI, got r0 = %+v", r0)
	}
}

func TestUnknownOpcodeHalts(t *testing.T) {
	code := []byte{0xEE}
	_, err := PreDecode(code)
	if err == nil {
		t.Fatalf("expected decode error for unknown opcode")
	}
}

func TestRetWithEmptyStackHalts(t *testing.T) {
	code := []byte{isa.OpRET}
	prog, err := PreDecode(code)
	if err != nil {
		t.Fatalf("PreDecode: %v", err)
	}
	m := engine.NewMachine(code, nil)
	_, cycles, err := Run(m, prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cycles != 1 {
		t.Errorf("cycles = %d, want 1", cycles)
	}
}

// TestPushPopRoundTrip checks that PUSH Ra; POP Rb recovers the pushed
// value, and that two pushes followed by two pops unwind in LIFO order.
func TestPushPopRoundTrip(t *testing.T) {
	code := []byte{
		isa.OpMOVI, 0x00, 0x2A, // R0 = 0x2A
		isa.OpMOVI, 0x01, 0x53, // R1 = 0x53
		isa.OpPUSH, 0x00, // push R0
		isa.OpPUSH, 0x01, // push R1
		isa.OpPOP, 0x02, // pop -> R2 (expect R1's value, LIFO)
		isa.OpPOP, 0x03, // pop -> R3 (expect R0's value)
		isa.OpHLT,
	}
	prog, err := PreDecode(code)
	if err != nil {
		t.Fatalf("PreDecode: %v", err)
	}
	m := engine.NewMachine(code, nil)
	if _, _, err := Run(m, prog); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.Regs[2] != bytesil.Unpack(0x53) {
		t.Errorf("first pop = %+v, want R1's pushed value", m.Regs[2])
	}
	if m.Regs[3] != bytesil.Unpack(0x2A) {
		t.Errorf("second pop = %+v, want R0's pushed value", m.Regs[3])
	}
}

func TestCallReturn(t *testing.T) {
	// CALL +1 (to MOVI R0,0x07 at offset 5); HLT; MOVI R0,0x07; RET
	code := []byte{
		isa.OpCALL, 0x01, 0x00, 0x00,
		isa.OpHLT,
		isa.OpMOVI, 0x00, 0x07,
		isa.OpRET,
	}
	prog, err := PreDecode(code)
	if err != nil {
		t.Fatalf("PreDecode: %v", err)
	}
	m := engine.NewMachine(code, nil)
	r0, _, err := Run(m, prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := bytesil.Unpack(0x07)
	if r0 != want {
		t.Errorf("r0 = %+v, want %+v", r0, want)
	}
}

// TestLerpAndSlerpDivergeAcrossWrap picks a and b on opposite sides of
// the theta wraparound (15 and 1) with t just past the LERP midpoint.
// LERP snaps straight to b's theta; SLERP walks the shorter 2-step arc
// through the wrap and lands one step short of it — the two opcodes
// must produce different results here, not identical ones.
func TestLerpAndSlerpDivergeAcrossWrap(t *testing.T) {
	seed := []byte{
		isa.OpMOVI, 0x00, 0x0F, // R0 = (rho=0, theta=15)
		isa.OpMOVI, 0x01, 0x01, // R1 = (rho=0, theta=1)
	}
	// LERP/SLERP operand bytes: first = Ra|(Rb<<4), second = Rc|(t<<4).
	// Ra=0 (a), Rb=1 (b), Rc=2 (dest), t-numerator=8 (t=8/15>=0.5).
	lerpCode := append(append([]byte{}, seed...), isa.OpLERP, 0x10, 0x82, isa.OpHLT)
	slerpCode := append(append([]byte{}, seed...), isa.OpSLERP, 0x10, 0x82, isa.OpHLT)

	run := func(code []byte) bytesil.ByteSil {
		prog, err := PreDecode(code)
		if err != nil {
			t.Fatalf("PreDecode: %v", err)
		}
		m := engine.NewMachine(code, nil)
		if _, _, err := Run(m, prog); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return m.Regs[2]
	}

	lerpResult := run(lerpCode)
	slerpResult := run(slerpCode)

	if lerpResult.Theta != 1 {
		t.Errorf("LERP theta = %d, want 1 (snaps to b)", lerpResult.Theta)
	}
	if slerpResult.Theta != 0 {
		t.Errorf("SLERP theta = %d, want 0 (one step through the wrap)", slerpResult.Theta)
	}
	if lerpResult == slerpResult {
		t.Errorf("LERP and SLERP produced identical results: %+v", lerpResult)
	}
}
