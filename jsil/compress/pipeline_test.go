package compress

import (
	"bytes"
	"testing"
)

func TestPipelineComposesInReverse(t *testing.T) {
	payload := []byte("a sample JSONL payload line one\nline two\n")
	p := Pipeline{
		{Mode: Xor, Key: []byte{0x11}},
		{Mode: Rotate, Rot: 3},
		{Mode: XorKey, Key: []byte{0x01, 0x02, 0x03, 0x04}},
	}
	enc := p.Encode(payload)
	dec := p.Decode(enc)
	if !bytes.Equal(dec, payload) {
		t.Errorf("pipeline round trip mismatch")
	}
}

func TestEmptyPipelineIsIdentity(t *testing.T) {
	payload := []byte("unchanged")
	var p Pipeline
	if !bytes.Equal(p.Encode(payload), payload) {
		t.Errorf("empty pipeline should be identity on encode")
	}
	if !bytes.Equal(p.Decode(payload), payload) {
		t.Errorf("empty pipeline should be identity on decode")
	}
}
