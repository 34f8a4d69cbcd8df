package jsil

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"

	"github.com/vsp-core/vsp/jsil/compress"
	"github.com/vsp-core/vsp/vsp/engine"
)

// Magic is the fixed 4-byte JSIL stream signature.
var Magic = [4]byte{'J', 'S', 'I', 'L'}

// Version is the only stream version this core writes and accepts.
const Version uint16 = 1

// HeaderSize is the fixed 32-byte JSIL stream header length.
const HeaderSize = 4 + 2 + 1 + 1 + 4 + 4 + 4 + 8 + 4

// Header frames a JSIL stream's compressed JSONL payload.
type Header struct {
	Version          uint16
	Compression      compress.Mode
	Param            byte
	UncompressedSize uint32
	CompressedSize   uint32
	RecordCount      uint32
	Checksum         uint64
}

func fnv1a(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

// WriteHeader serializes h in JSIL's exact 32-byte layout.
func WriteHeader(w io.Writer, h Header) error {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	buf[6] = byte(h.Compression)
	buf[7] = h.Param
	binary.LittleEndian.PutUint32(buf[8:12], h.UncompressedSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.CompressedSize)
	binary.LittleEndian.PutUint32(buf[16:20], h.RecordCount)
	binary.LittleEndian.PutUint64(buf[20:28], h.Checksum)
	// buf[28:32] reserved, left zero
	_, err := w.Write(buf)
	if err != nil {
		return fmt.Errorf("jsil: write header: %w", err)
	}
	return nil
}

// ReadHeader parses a JSIL stream header from r.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, fmt.Errorf("jsil: read header: %w", err)
	}
	if string(buf[0:4]) != string(Magic[:]) {
		return Header{}, fmt.Errorf("jsil: read header: %w: bad magic", engine.ErrInvalidBytecode)
	}
	h := Header{
		Version:          binary.LittleEndian.Uint16(buf[4:6]),
		Compression:      compress.Mode(buf[6]),
		Param:            buf[7],
		UncompressedSize: binary.LittleEndian.Uint32(buf[8:12]),
		CompressedSize:   binary.LittleEndian.Uint32(buf[12:16]),
		RecordCount:      binary.LittleEndian.Uint32(buf[16:20]),
		Checksum:         binary.LittleEndian.Uint64(buf[20:28]),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("jsil: read header: %w: unsupported version %d", engine.ErrArchitectureUnsupport, h.Version)
	}
	return h, nil
}
