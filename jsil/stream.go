package jsil

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/vsp-core/vsp/jsil/compress"
	"github.com/vsp-core/vsp/vsp/engine"
)

// Writer appends JSIL records to an in-memory JSONL buffer and, on
// Close, frames the (optionally compressed) payload with its header.
// Every WriteRecord call flushes its line into that in-memory buffer,
// but the whole payload stays in memory and nothing reaches out until
// Close does the one-shot compress+frame pass.
type Writer struct {
	out      io.Writer
	pipeline compress.Pipeline
	mode     compress.Mode
	param    byte

	buf     bytes.Buffer
	bw      *bufio.Writer
	records uint32
}

// NewWriter returns a Writer that frames its payload with the given
// compression mode (used only to populate the header's Compression
// field; the actual transforms to run are supplied via pipeline).
func NewWriter(out io.Writer, mode compress.Mode, param byte, pipeline compress.Pipeline) *Writer {
	w := &Writer{out: out, pipeline: pipeline, mode: mode, param: param}
	w.bw = bufio.NewWriter(&w.buf)
	return w
}

// WriteRecord marshals r as one JSON line and flushes it immediately so
// a concurrent reader over w.buf would always see a well-formed prefix.
func (w *Writer) WriteRecord(r *Record) error {
	line, err := MarshalLine(r)
	if err != nil {
		return fmt.Errorf("jsil: marshal record: %w", err)
	}
	if _, err := w.bw.Write(line); err != nil {
		return fmt.Errorf("jsil: write record: %w", err)
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("jsil: write record: %w", err)
	}
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("jsil: flush record: %w", err)
	}
	w.records++
	return nil
}

// Close compresses the accumulated JSONL payload, computes the header,
// and writes header+payload to the underlying writer. Close must be
// called exactly once after all records are written.
func (w *Writer) Close() error {
	payload := w.buf.Bytes()
	compressed := w.pipeline.Encode(payload)

	hdr := Header{
		Version:          Version,
		Compression:      w.mode,
		Param:            w.param,
		UncompressedSize: uint32(len(payload)),
		CompressedSize:   uint32(len(compressed)),
		RecordCount:      w.records,
		Checksum:         fnv1a(compressed),
	}
	if err := WriteHeader(w.out, hdr); err != nil {
		return err
	}
	if _, err := w.out.Write(compressed); err != nil {
		return fmt.Errorf("jsil: write payload: %w", err)
	}
	return nil
}

// Reader pulls JSIL records one at a time from a framed stream, without
// materializing more than the decompressed payload in memory.
type Reader struct {
	header Header
	lines  *bufio.Scanner
}

// NewReader reads and validates the stream header from r, decompresses
// the payload with pipeline, and prepares to yield records one at a
// time via Next.
func NewReader(r io.Reader, pipeline compress.Pipeline) (*Reader, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	compressed := make([]byte, hdr.CompressedSize)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, fmt.Errorf("jsil: read payload: %w", err)
	}
	if got := fnv1a(compressed); got != hdr.Checksum {
		return nil, fmt.Errorf("jsil: read: %w: got %#x want %#x", engine.ErrChecksumMismatch, got, hdr.Checksum)
	}
	payload := pipeline.Decode(compressed)
	if uint32(len(payload)) != hdr.UncompressedSize {
		return nil, fmt.Errorf("jsil: read: %w: decompressed %d bytes, header says %d", engine.ErrStateInvariant, len(payload), hdr.UncompressedSize)
	}
	sc := bufio.NewScanner(bytes.NewReader(payload))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{header: hdr, lines: sc}, nil
}

// Header returns the parsed stream header.
func (r *Reader) Header() Header { return r.header }

// Next returns the next record, or io.EOF once the stream is exhausted.
func (r *Reader) Next() (*Record, error) {
	if !r.lines.Scan() {
		if err := r.lines.Err(); err != nil {
			return nil, fmt.Errorf("jsil: scan record: %w", err)
		}
		return nil, io.EOF
	}
	return UnmarshalLine(r.lines.Bytes())
}
