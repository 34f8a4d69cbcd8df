package orchestrator

import (
	"context"
	"testing"

	"github.com/vsp-core/vsp/bytesil"
	"github.com/vsp-core/vsp/silstate"
	"github.com/vsp-core/vsp/vsp/isa"
)

type layerSeed struct {
	layer int
	value bytesil.ByteSil
}

func (s layerSeed) SenseLayers(ctx context.Context) (LayerUpdate, error) {
	var v silstate.State
	v[s.layer] = s.value
	return LayerUpdate{Mask: 1 << uint(s.layer), Values: v}, nil
}

// TestVSPProgramSenseActBridgesOrchestratorState exercises the real
// IN/OUT/SENSE/ACT bridge: a VSPProgram component runs SENSE L2; ACT L5,
// reading the layer a Sense-stage component just seeded and writing it
// to a different layer through engine.Machine.IOHooks.
func TestVSPProgramSenseActBridgesOrchestratorState(t *testing.T) {
	o := New()
	o.Register(NewSensorComponent("seed", 1<<2, layerSeed{layer: 2, value: bytesil.Max}))

	code := []byte{
		isa.OpSENSE, 0x02,
		isa.OpACT, 0x05,
		isa.OpHLT,
	}
	prog, err := NewVSPProgramComponent("bridge", 1<<2, 1<<5, code, nil)
	if err != nil {
		t.Fatalf("NewVSPProgramComponent: %v", err)
	}
	o.Register(prog)

	if err := o.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := o.State()[5]; got != bytesil.Max {
		t.Errorf("state L5 = %+v, want Max", got)
	}
}

// TestVSPProgramPortsPersistAcrossTicks exercises IN/OUT: OUT writes a
// register to the component's own port file, IN reads it back, all
// without touching the shared SilState.
func TestVSPProgramPortsPersistAcrossTicks(t *testing.T) {
	out := []byte{
		isa.OpMOVI, 0x00, 0x2A,
		isa.OpOUT, 0x07,
		isa.OpHLT,
	}
	prog, err := NewVSPProgram("portwriter", out, nil)
	if err != nil {
		t.Fatalf("NewVSPProgram: %v", err)
	}
	c := NewProcessorComponent("portwriter", 0, 0, prog)

	o := New()
	o.Register(c)
	if err := o.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	want := bytesil.ByteSil{Rho: 2, Theta: 10}
	if got := prog.Port(0x07); got != want {
		t.Errorf("port 7 = %+v, want %+v", got, want)
	}

	in := []byte{
		isa.OpIN, 0x07,
		isa.OpHLT,
	}
	reader, err := NewVSPProgram("portreader", in, nil)
	if err != nil {
		t.Fatalf("NewVSPProgram: %v", err)
	}
	reader.ports[0x07] = want
	rc := NewProcessorComponent("portreader", 0, 0, reader)
	o.Register(rc)
	if err := o.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := reader.R0(); got != want {
		t.Errorf("R0 after IN = %+v, want %+v", got, want)
	}
}
