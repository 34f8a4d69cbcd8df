/*
 * VSP core - SilState, a fixed 16-layer vector of ByteSil.
 *
 * Copyright 2026, VSP core contributors. MIT-style license, see bytesil package.
 */

// Package silstate implements the fixed 16-layer SilState vector that is
// the unit of orchestration throughout VSP: layers L0..LF addressed by
// index, collapse operators reducing to a single ByteSil, and an exact
// 16-byte serialization.
package silstate

import (
	"math"

	"github.com/vsp-core/vsp/bytesil"
)

// NumLayers is the fixed layer count: VSP adopts the 16-layer model
// uniformly (Open Question 1).
const NumLayers = 16

// State is a 16-layer vector of ByteSil, exactly 16 bytes, no padding.
type State [NumLayers]bytesil.ByteSil

// Vacuum is all-NULL.
func Vacuum() State {
	var s State
	for i := range s {
		s[i] = bytesil.Null
	}
	return s
}

// Neutral is all-ONE.
func Neutral() State {
	var s State
	for i := range s {
		s[i] = bytesil.One
	}
	return s
}

// Maximum is all-MAX.
func Maximum() State {
	var s State
	for i := range s {
		s[i] = bytesil.Max
	}
	return s
}

// Mul multiplies two states element-wise.
func Mul(a, b State) State {
	var r State
	for i := range r {
		r[i] = bytesil.Mul(a[i], b[i])
	}
	return r
}

// Div divides two states element-wise.
func Div(a, b State) State {
	var r State
	for i := range r {
		r[i] = bytesil.Div(a[i], b[i])
	}
	return r
}

// Tensor combines a and b layer-wise by ByteSil multiplication; a NULL on
// either side produces NULL on that layer (same rule as Mul, stated
// separately since callers reach for it by name).
func Tensor(a, b State) State {
	return Mul(a, b)
}

// Xor collapses all 16 layers by XOR-ing their packed byte forms.
func (s State) Xor() bytesil.ByteSil {
	acc := byte(0)
	for _, layer := range s {
		acc ^= layer.Pack()
	}
	return bytesil.Unpack(acc)
}

// Sum collapses all 16 layers by summing magnitudes and re-encoding.
func (s State) Sum() bytesil.ByteSil {
	var total float64
	var sumSin, sumCos float64
	for _, layer := range s {
		if layer.IsNull() {
			continue
		}
		mag := bytesil.Magnitude(layer)
		ph := bytesil.PhaseRadians(layer)
		total += mag
		sumSin += mag * math.Sin(ph)
		sumCos += mag * math.Cos(ph)
	}
	if total == 0 {
		return bytesil.Null
	}
	rho := bytesil.Saturate(int(math.Round(math.Log(total))))
	theta := uint8(0)
	if sumSin != 0 || sumCos != 0 {
		ph := math.Atan2(sumSin, sumCos)
		t := int(math.Round(ph / (math.Pi / 8)))
		t %= 16
		if t < 0 {
			t += 16
		}
		theta = uint8(t)
	}
	return bytesil.ByteSil{Rho: rho, Theta: theta}
}

// First returns L0.
func (s State) First() bytesil.ByteSil { return s[0] }

// Last returns LF.
func (s State) Last() bytesil.ByteSil { return s[NumLayers-1] }

// Average uses log-average on rho (over non-NULL layers) and circular
// mean on theta.
func (s State) Average() bytesil.ByteSil {
	var rhoSum int
	var sinSum, cosSum float64
	count := 0
	for _, layer := range s {
		if layer.IsNull() {
			continue
		}
		rhoSum += int(layer.Rho)
		ph := bytesil.PhaseRadians(layer)
		sinSum += math.Sin(ph)
		cosSum += math.Cos(ph)
		count++
	}
	if count == 0 {
		return bytesil.Null
	}
	rho := bytesil.Saturate(int(math.Round(float64(rhoSum) / float64(count))))
	ph := math.Atan2(sinSum, cosSum)
	t := int(math.Round(ph / (math.Pi / 8)))
	t %= 16
	if t < 0 {
		t += 16
	}
	return bytesil.ByteSil{Rho: rho, Theta: uint8(t)}
}

// Project masks out layers not set in mask, replacing them with NULL.
func Project(s State, mask uint16) State {
	var r State
	for i := range s {
		if mask&(1<<uint(i)) != 0 {
			r[i] = s[i]
		} else {
			r[i] = bytesil.Null
		}
	}
	return r
}

// Bytes serializes s into its exact 16-byte little-endian image: byte i
// is layer Li.
func (s State) Bytes() [NumLayers]byte {
	var out [NumLayers]byte
	for i, layer := range s {
		out[i] = layer.Pack()
	}
	return out
}

// FromBytes reconstructs a State from its 16-byte image.
func FromBytes(b [NumLayers]byte) State {
	var s State
	for i, p := range b {
		s[i] = bytesil.Unpack(p)
	}
	return s
}
