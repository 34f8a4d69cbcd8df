/*
 * VSP core - ByteSil log-polar complex cell.
 *
 * Copyright 2026, VSP core contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, subject to the above copyright notice being included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND.
 */

// Package bytesil implements the 8-bit log-polar complex value used
// throughout VSP: a 4-bit signed log-magnitude (rho) and a 4-bit phase
// index (theta) over a uniform 16-point division of the circle.
package bytesil

import "math"

// ByteSil is the 8-bit value type z = e^rho * e^(i*theta*pi/8).
// Rho is constrained to [-8,7], Theta to [0,15]; equality is bitwise.
type ByteSil struct {
	Rho   int8
	Theta uint8
}

// Distinguished constants.
var (
	Null   = ByteSil{Rho: -8, Theta: 0}
	One    = ByteSil{Rho: 0, Theta: 0}
	I      = ByteSil{Rho: 0, Theta: 4}
	NegOne = ByteSil{Rho: 0, Theta: 8}
	NegI   = ByteSil{Rho: 0, Theta: 12}
	Max    = ByteSil{Rho: 7, Theta: 0}
)

// IsNull reports whether b is the absorbing NULL value.
func (b ByteSil) IsNull() bool {
	return b.Rho == -8 && b.Theta == 0
}

// Saturate clamps x into the rho range [-8,7].
func Saturate(x int) int8 {
	if x < -8 {
		return -8
	}
	if x > 7 {
		return 7
	}
	return int8(x)
}

// mod16 returns x reduced into [0,16) for arbitrary signed x.
func mod16(x int) uint8 {
	x %= 16
	if x < 0 {
		x += 16
	}
	return uint8(x)
}

// Mul computes rho = sat(a.rho+b.rho), theta = (a.theta+b.theta) mod 16.
// NULL is absorbing: Mul(Null, anything) == Null.
func Mul(a, b ByteSil) ByteSil {
	if a.IsNull() || b.IsNull() {
		return Null
	}
	return ByteSil{
		Rho:   Saturate(int(a.Rho) + int(b.Rho)),
		Theta: mod16(int(a.Theta) + int(b.Theta)),
	}
}

// Div computes rho = sat(a.rho-b.rho), theta = (a.theta-b.theta) mod 16.
// NULL is absorbing.
func Div(a, b ByteSil) ByteSil {
	if a.IsNull() || b.IsNull() {
		return Null
	}
	return ByteSil{
		Rho:   Saturate(int(a.Rho) - int(b.Rho)),
		Theta: mod16(int(a.Theta) - int(b.Theta)),
	}
}

// Pow raises a to an integer power n under log-polar arithmetic.
func Pow(a ByteSil, n int) ByteSil {
	if a.IsNull() {
		return Null
	}
	return ByteSil{
		Rho:   Saturate(n * int(a.Rho)),
		Theta: mod16(n * int(a.Theta)),
	}
}

// Root takes an integer n-th root under log-polar arithmetic, n != 0.
func Root(a ByteSil, n int) ByteSil {
	if a.IsNull() || n == 0 {
		return Null
	}
	return ByteSil{
		Rho:   Saturate(int(a.Rho) / n),
		Theta: mod16(int(a.Theta) / n),
	}
}

// Conj reflects the phase: (rho, (16-theta) mod 16).
func Conj(a ByteSil) ByteSil {
	if a.IsNull() {
		return Null
	}
	return ByteSil{Rho: a.Rho, Theta: mod16(16 - int(a.Theta))}
}

// Inv negates rho and reflects theta.
func Inv(a ByteSil) ByteSil {
	if a.IsNull() {
		return Null
	}
	return ByteSil{Rho: Saturate(-int(a.Rho)), Theta: mod16(16 - int(a.Theta))}
}

// Pack returns the 8-bit serialized/XOR form: (rho_2c4<<4)|theta.
func (b ByteSil) Pack() byte {
	return byte(uint8(b.Rho)&0xf)<<4 | (b.Theta & 0xf)
}

// Unpack decodes a packed byte into a ByteSil, sign-extending the
// 4-bit two's-complement rho field.
func Unpack(p byte) ByteSil {
	rho4 := (p >> 4) & 0xf
	rho := int8(rho4)
	if rho4&0x8 != 0 {
		rho -= 16
	}
	return ByteSil{Rho: rho, Theta: p & 0xf}
}

// Xor XORs the packed 8-bit forms of a and b.
func Xor(a, b ByteSil) ByteSil {
	return Unpack(a.Pack() ^ b.Pack())
}

// Magnitude returns e^rho as a float64.
func Magnitude(a ByteSil) float64 {
	return math.Exp(float64(a.Rho))
}

// PhaseRadians returns theta * pi/8.
func PhaseRadians(a ByteSil) float64 {
	return float64(a.Theta) * math.Pi / 8
}

// toComplex converts a ByteSil to its cartesian complex128 value.
func toComplex(a ByteSil) complex128 {
	if a.IsNull() {
		return 0
	}
	mag := Magnitude(a)
	ph := PhaseRadians(a)
	return complex(mag*math.Cos(ph), mag*math.Sin(ph))
}

// fromComplex quantizes a cartesian value back to the nearest ByteSil:
// rho = round(log|z|) saturated, theta = round(arg(z)/(pi/8)) mod 16.
func fromComplex(z complex128) ByteSil {
	mag := cAbs(z)
	if mag == 0 {
		return Null
	}
	rho := Saturate(int(math.Round(math.Log(mag))))
	ph := cPhase(z)
	theta := mod16(int(math.Round(ph / (math.Pi / 8))))
	return ByteSil{Rho: rho, Theta: theta}
}

func cAbs(z complex128) float64 {
	return math.Hypot(real(z), imag(z))
}

func cPhase(z complex128) float64 {
	return math.Atan2(imag(z), real(z))
}

// Add implements cartesian addition:
// convert to Re/Im, add, quantize back to log-polar.
func Add(a, b ByteSil) ByteSil {
	if a.IsNull() {
		return b
	}
	if b.IsNull() {
		return a
	}
	return fromComplex(toComplex(a) + toComplex(b))
}

// Sub implements cartesian subtraction, the Add counterpart.
func Sub(a, b ByteSil) ByteSil {
	if b.IsNull() {
		return a
	}
	if a.IsNull() {
		return fromComplex(-toComplex(b))
	}
	return fromComplex(toComplex(a) - toComplex(b))
}

// Scale multiplies rho by n in place (saturating) — used by the SCALE opcode.
func Scale(a ByteSil, n int) ByteSil {
	if a.IsNull() {
		return Null
	}
	return ByteSil{Rho: Saturate(int(a.Rho) * n), Theta: a.Theta}
}

// Rotate advances theta by n steps mod 16 — used by the ROTATE opcode.
func Rotate(a ByteSil, n int) ByteSil {
	if a.IsNull() {
		return Null
	}
	return ByteSil{Rho: a.Rho, Theta: mod16(int(a.Theta) + n)}
}
