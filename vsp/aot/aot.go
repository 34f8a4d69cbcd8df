/*
 * VSP core - Tier 2 ahead-of-time compilation artifacts.
 *
 * Copyright 2026, VSP core contributors.
 */

// Package aot builds and caches serialized Tier-1 compile results so a
// program can be shipped as a pre-compiled artifact instead of
// recompiling on every load.
package aot

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"io"
	"sync"

	"github.com/vsp-core/vsp/vsp/jit"
)

// TargetMeta describes the toolchain and target this artifact was built
// for; it travels with the artifact as provenance. Load does not check it.
type TargetMeta struct {
	TargetTriple    string
	CompilerVersion string
	OptLevel        int
}

// Artifact is the gob-serializable result of an AOT build.
type Artifact struct {
	Meta        TargetMeta
	SourceHash  uint64
	Code        []byte
	Native      []byte
	Unsupported []jit.UnsupportedOp
}

// fnv1a hashes bytecode the same way silc checksums its segments, so a
// cache key derived here is consistent with the rest of the core.
func fnv1a(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

// Build compiles code via vsp/jit and packages the result with meta for
// serialization. It fails only if the underlying compile fails (malformed
// bytecode); unsupported opcodes are recorded, not rejected.
func Build(name string, code []byte, meta TargetMeta) (*Artifact, error) {
	fn, unsupported, err := jit.Compile(name, code)
	if err != nil {
		return nil, fmt.Errorf("aot: build %q: %w", name, err)
	}
	return &Artifact{
		Meta:        meta,
		SourceHash:  fnv1a(code),
		Code:        code,
		Native:      fn.Native,
		Unsupported: unsupported,
	}, nil
}

// Encode serializes a into w via encoding/gob. gob is the stdlib choice
// here deliberately: the artifact is an internal cache format with no
// cross-language or wire-compat requirement, unlike SILC/JSIL which have
// externally specified byte layouts (see DESIGN.md).
func (a *Artifact) Encode(w io.Writer) error {
	return gob.NewEncoder(w).Encode(a)
}

// Decode reconstructs an Artifact previously written by Encode.
func Decode(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := gob.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("aot: decode artifact: %w", err)
	}
	return &a, nil
}

// Load reconstructs an executable CompiledFunction from a by recompiling
// the stored source bytecode — the stored Native bytes are kept for
// inspection/provenance but Call, as in vsp/jit, always executes the
// whole program through the Tier-0 handler table.
func Load(a *Artifact) (*jit.CompiledFunction, error) {
	fn, _, err := jit.Compile("", a.Code)
	if err != nil {
		return nil, fmt.Errorf("aot: load: %w", err)
	}
	return fn, nil
}

// Cache maps a bytecode's FNV-1a hash to its AOT artifact, so repeated
// Builds of the same program skip recompilation. Safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	byKey map[uint64]*Artifact
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{byKey: make(map[uint64]*Artifact)}
}

// Load returns the cached artifact for hash, if any.
func (c *Cache) Load(hash uint64) (*Artifact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.byKey[hash]
	return a, ok
}

// Store records a under its own SourceHash.
func (c *Cache) Store(a *Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[a.SourceHash] = a
}

// BuildCached builds code through the cache: an existing artifact for an
// identical bytecode hash is reused instead of recompiling.
func (c *Cache) BuildCached(name string, code []byte, meta TargetMeta) (*Artifact, error) {
	hash := fnv1a(code)
	if a, ok := c.Load(hash); ok {
		return a, nil
	}
	a, err := Build(name, code, meta)
	if err != nil {
		return nil, err
	}
	c.Store(a)
	return a, nil
}

// RoundTrip is a convenience used by tests: build, encode, decode, and
// reload in one step. It does not run the result.
func RoundTrip(name string, code []byte, meta TargetMeta) (*jit.CompiledFunction, error) {
	a, err := Build(name, code, meta)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		return nil, err
	}
	a2, err := Decode(&buf)
	if err != nil {
		return nil, err
	}
	return Load(a2)
}
