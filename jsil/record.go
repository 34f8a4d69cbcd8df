/*
 * VSP core - JSIL record stream.
 *
 * Copyright 2026, VSP core contributors.
 */

// Package jsil implements the JSIL record-structured stream used for
// debugging, replay, and model/state distribution: one JSON object per
// line, framed by a fixed 32-byte header and an optional reversible
// compression pipeline from jsil/compress.
package jsil

import "encoding/json"

// Kind names one JSIL record's shape.
type Kind string

const (
	KindMeta  Kind = "meta"
	KindSym   Kind = "sym"
	KindInst  Kind = "inst"
	KindData  Kind = "data"
	KindCkpt  Kind = "ckpt"
	KindState Kind = "state"
)

// Record is one JSIL stream line: Kind selects which of the typed
// payload fields is populated. Marshaled as a single flat JSON object so
// the wire format is flat instead of nesting
// a discriminated union.
type Record struct {
	Kind Kind `json:"kind"`

	// meta
	Version      uint16 `json:"version,omitempty"`
	Mode         uint8  `json:"mode,omitempty"`
	EntryPoint   uint32 `json:"entry_point,omitempty"`
	CodeSize     uint32 `json:"code_size,omitempty"`
	DataSize     uint32 `json:"data_size,omitempty"`
	SymbolCount  uint32 `json:"symbol_count,omitempty"`
	Checksum     uint64 `json:"checksum,omitempty"`

	// sym
	Name    string `json:"name,omitempty"`
	Addr    uint32 `json:"addr,omitempty"`
	SymKind string `json:"sym_kind,omitempty"`

	// inst
	Opcode string `json:"opcode,omitempty"`
	Raw    []byte `json:"raw,omitempty"` // encoding/json base64-encodes []byte automatically

	// data
	Offset uint32 `json:"offset,omitempty"`
	Len    uint32 `json:"len,omitempty"`
	Data   []byte `json:"data,omitempty"`

	// ckpt
	CheckpointID uint32 `json:"ckpt_id,omitempty"`
	ContentHash  uint64 `json:"content_hash,omitempty"`

	// state
	Layers    [16]byte `json:"layers,omitempty"`
	DeltaXor  bool     `json:"delta_xor,omitempty"`
}

// MarshalLine renders r as a single JSON line (no trailing newline).
func MarshalLine(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalLine parses one JSON line into a Record.
func UnmarshalLine(line []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
