/*
 * VSP core - SILC binary container.
 *
 * Copyright 2026, VSP core contributors.
 */

// Package silc reads and writes the SILC on-disk image: a compiled
// program's code and data segments plus a symbol table, framed by a
// fixed binary header and checked by an FNV-1a checksum. Every field has
// an exact width and offset; nothing is self-describing beyond that.
package silc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"

	"github.com/vsp-core/vsp/vsp/engine"
)

// Magic is the fixed 4-byte file signature.
var Magic = [4]byte{'S', 'I', 'L', 'C'}

// Version is the only container version this core writes and accepts.
const Version uint16 = 0x0100

// Flag bits; unknown bits set on load are rejected per spec.
const (
	FlagDebug      uint16 = 1 << 0
	FlagBigEndian  uint16 = 1 << 1 // reserved: this core only writes little-endian
	knownFlagsMask uint16 = FlagDebug | FlagBigEndian
)

// SymbolKind classifies one symbol-table entry.
type SymbolKind uint8

const (
	SymFunction SymbolKind = iota
	SymData
	SymCheckpoint
)

// Symbol is one entry of the SILC symbol table.
type Symbol struct {
	Name string
	Addr uint32
	Kind SymbolKind
}

// Image is a fully decoded SILC container.
type Image struct {
	Flags      uint16
	EntryPoint uint32
	Code       []byte
	Data       []byte
	Symbols    []Symbol
}

const headerSize = 4 + 2 + 2 + 4 + 4 + 4 + 4 + 8

// checksum computes the FNV-1a over code||data, matching the layout
// comment exactly.
func checksum(code, data []byte) uint64 {
	h := fnv.New64a()
	h.Write(code)
	h.Write(data)
	return h.Sum64()
}

// Write serializes img to w in SILC's exact binary layout.
func Write(w io.Writer, img *Image) error {
	if img.Flags&^knownFlagsMask != 0 {
		return fmt.Errorf("silc: write: %w: unknown flag bits %#04x", engine.ErrInvalidBytecode, img.Flags&^knownFlagsMask)
	}
	if img.EntryPoint >= uint32(len(img.Code)) {
		return fmt.Errorf("silc: write: %w: entry_point %d >= code_size %d", engine.ErrStateInvariant, img.EntryPoint, len(img.Code))
	}

	var symBuf bytes.Buffer
	for _, s := range img.Symbols {
		if len(s.Name) > 255 {
			return fmt.Errorf("silc: write: symbol name %q exceeds 255 bytes", s.Name)
		}
		symBuf.WriteByte(byte(len(s.Name)))
		symBuf.WriteString(s.Name)
		var addr [4]byte
		binary.LittleEndian.PutUint32(addr[:], s.Addr)
		symBuf.Write(addr[:])
		symBuf.WriteByte(byte(s.Kind))
	}

	cksum := checksum(img.Code, img.Data)

	var hdr bytes.Buffer
	hdr.Write(Magic[:])
	writeU16(&hdr, Version)
	writeU16(&hdr, img.Flags)
	writeU32(&hdr, img.EntryPoint)
	writeU32(&hdr, uint32(len(img.Code)))
	writeU32(&hdr, uint32(len(img.Data)))
	writeU32(&hdr, uint32(len(img.Symbols)))
	writeU64(&hdr, cksum)

	if _, err := w.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("silc: write header: %w", err)
	}
	if _, err := w.Write(img.Code); err != nil {
		return fmt.Errorf("silc: write code: %w", err)
	}
	if _, err := w.Write(img.Data); err != nil {
		return fmt.Errorf("silc: write data: %w", err)
	}
	if _, err := w.Write(symBuf.Bytes()); err != nil {
		return fmt.Errorf("silc: write symbols: %w", err)
	}
	return nil
}

// Read parses a SILC image from r, validating every invariant the
// container format carries: checksum, entry_point < code_size, in-segment
// symbol addresses, and unknown flag bits.
func Read(r io.Reader) (*Image, error) {
	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("silc: read header: %w", err)
	}
	if !bytes.Equal(hdr[0:4], Magic[:]) {
		return nil, fmt.Errorf("silc: read: %w: bad magic", engine.ErrInvalidBytecode)
	}
	version := binary.LittleEndian.Uint16(hdr[4:6])
	if version != Version {
		return nil, fmt.Errorf("silc: read: %w: unsupported version %#04x", engine.ErrArchitectureUnsupport, version)
	}
	flags := binary.LittleEndian.Uint16(hdr[6:8])
	if flags&^knownFlagsMask != 0 {
		return nil, fmt.Errorf("silc: read: %w: unknown flag bits %#04x", engine.ErrInvalidBytecode, flags&^knownFlagsMask)
	}
	entryPoint := binary.LittleEndian.Uint32(hdr[8:12])
	codeSize := binary.LittleEndian.Uint32(hdr[12:16])
	dataSize := binary.LittleEndian.Uint32(hdr[16:20])
	symCount := binary.LittleEndian.Uint32(hdr[20:24])
	wantChecksum := binary.LittleEndian.Uint64(hdr[24:32])

	if entryPoint >= codeSize {
		return nil, fmt.Errorf("silc: read: %w: entry_point %d >= code_size %d", engine.ErrStateInvariant, entryPoint, codeSize)
	}

	code := make([]byte, codeSize)
	if _, err := io.ReadFull(r, code); err != nil {
		return nil, fmt.Errorf("silc: read code segment: %w", err)
	}
	data := make([]byte, dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("silc: read data segment: %w", err)
	}

	if got := checksum(code, data); got != wantChecksum {
		return nil, fmt.Errorf("silc: read: %w: got %#x want %#x", engine.ErrChecksumMismatch, got, wantChecksum)
	}

	symbols := make([]Symbol, 0, symCount)
	for i := uint32(0); i < symCount; i++ {
		var nameLen [1]byte
		if _, err := io.ReadFull(r, nameLen[:]); err != nil {
			return nil, fmt.Errorf("silc: read symbol %d: %w", i, err)
		}
		name := make([]byte, nameLen[0])
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("silc: read symbol %d name: %w", i, err)
		}
		var rest [5]byte
		if _, err := io.ReadFull(r, rest[:]); err != nil {
			return nil, fmt.Errorf("silc: read symbol %d addr/kind: %w", i, err)
		}
		addr := binary.LittleEndian.Uint32(rest[0:4])
		kind := SymbolKind(rest[4])

		switch kind {
		case SymFunction, SymCheckpoint:
			if addr >= codeSize {
				return nil, fmt.Errorf("silc: read: %w: symbol %q addr %d outside code segment", engine.ErrStateInvariant, name, addr)
			}
		case SymData:
			if addr >= dataSize {
				return nil, fmt.Errorf("silc: read: %w: symbol %q addr %d outside data segment", engine.ErrStateInvariant, name, addr)
			}
		default:
			return nil, fmt.Errorf("silc: read: %w: symbol %q has unknown kind %d", engine.ErrInvalidBytecode, name, kind)
		}

		symbols = append(symbols, Symbol{Name: string(name), Addr: addr, Kind: kind})
	}

	return &Image{
		Flags:      flags,
		EntryPoint: entryPoint,
		Code:       code,
		Data:       data,
		Symbols:    symbols,
	}, nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
