package isa

import "testing"

func TestDecodeOneByte(t *testing.T) {
	code := []byte{OpHLT}
	inst, err := Decode(code, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Op != OpHLT || inst.Len != 1 {
		t.Errorf("got %+v", inst)
	}
}

func TestDecodeMOVI(t *testing.T) {
	code := []byte{OpMOVI, 0x00, 0x0A}
	inst, err := Decode(code, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Ra != 0 || inst.Imm != 0x0A || inst.Len != 3 {
		t.Errorf("got %+v", inst)
	}
}

func TestDecodeRegPair(t *testing.T) {
	code := []byte{OpADD, 0x01}
	inst, err := Decode(code, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Ra != 1 || inst.Rb != 0 {
		t.Errorf("got %+v", inst)
	}
}

func TestDecodeJump(t *testing.T) {
	code := []byte{OpJMP, 0xff, 0xff, 0xff} // -1
	inst, err := Decode(code, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Offset != -1 {
		t.Errorf("offset = %d, want -1", inst.Offset)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	code := make([]byte, 16)
	code[len(code)-1] = 0xEE // reserved/unknown
	_, err := Decode(code, len(code)-1)
	if err == nil {
		t.Fatalf("expected InvalidBytecode error")
	}
}

func TestDecodeTruncated(t *testing.T) {
	code := []byte{OpMOVI, 0x00}
	_, err := Decode(code, 0)
	if err == nil {
		t.Fatalf("expected truncation error")
	}
}
