package aot

import (
	"bytes"
	"testing"

	"github.com/vsp-core/vsp/vsp/engine"
	"github.com/vsp-core/vsp/vsp/isa"
)

var testMeta = TargetMeta{TargetTriple: "arm64-unknown-vsp", CompilerVersion: "vspctl-test", OptLevel: 1}

func addProgram() []byte {
	return []byte{
		isa.OpMOVI, 0x00, 0x0A,
		isa.OpMOVI, 0x01, 0x14,
		isa.OpADD, 0x01,
		isa.OpHLT,
	}
}

func TestBuildEncodeDecodeRoundTrip(t *testing.T) {
	a, err := Build("add", addProgram(), testMeta)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	a2, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if a2.SourceHash != a.SourceHash {
		t.Errorf("hash mismatch after round trip")
	}
	if !bytes.Equal(a2.Native, a.Native) {
		t.Errorf("native bytes mismatch after round trip")
	}
}

func TestLoadExecutes(t *testing.T) {
	fn, err := RoundTrip("add", addProgram(), testMeta)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	m := engine.NewMachine(addProgram(), nil)
	cycles, err := fn.Call(m)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if cycles != 4 {
		t.Errorf("cycles = %d, want 4", cycles)
	}
}

func TestCacheSkipsRecompile(t *testing.T) {
	c := NewCache()
	a1, err := c.BuildCached("add", addProgram(), testMeta)
	if err != nil {
		t.Fatalf("BuildCached: %v", err)
	}
	a2, err := c.BuildCached("add", addProgram(), testMeta)
	if err != nil {
		t.Fatalf("BuildCached: %v", err)
	}
	if a1 != a2 {
		t.Errorf("expected cached artifact pointer to be reused")
	}
}

func TestCacheMissOnDifferentCode(t *testing.T) {
	c := NewCache()
	if _, err := c.BuildCached("add", addProgram(), testMeta); err != nil {
		t.Fatalf("BuildCached: %v", err)
	}
	other := []byte{isa.OpHLT}
	a, err := c.BuildCached("hlt", other, testMeta)
	if err != nil {
		t.Fatalf("BuildCached: %v", err)
	}
	if a.SourceHash == fnv1a(addProgram()) {
		t.Errorf("unexpected hash collision")
	}
}
