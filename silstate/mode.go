package silstate

import "github.com/vsp-core/vsp/bytesil"

// Mode selects how many layers of a SilState are active.
type Mode int

// Active-layer counts per mode.
const (
	Sil8 Mode = iota
	Sil16
	Sil32
	Sil64
	Sil128
)

// ActiveLayers returns how many of the 16 layers participate in
// collapse/fold operations under m.
func (m Mode) ActiveLayers() int {
	switch m {
	case Sil8:
		return 1
	case Sil16:
		return 2
	case Sil32:
		return 4
	case Sil64:
		return 8
	case Sil128:
		return 16
	default:
		return 16
	}
}

// DemoteStrategy selects how Demote folds inactive layers away.
type DemoteStrategy int

const (
	Truncate DemoteStrategy = iota
	XorFold
	AverageFold
	MaxMagnitudeFold
)

// Promote pads layers beyond m's active count: data layers with NULL,
// multiplier layers (odd index, by convention) with ONE.
func Promote(s State, m Mode) State {
	active := m.ActiveLayers()
	r := s
	for i := active; i < NumLayers; i++ {
		if i%2 == 1 {
			r[i] = bytesil.One
		} else {
			r[i] = bytesil.Null
		}
	}
	return r
}

// Demote reduces s to m's active layer count using strategy, writing the
// fold result into the lower `active` layers and leaving the remainder
// NULL.
func Demote(s State, m Mode, strategy DemoteStrategy) State {
	active := m.ActiveLayers()
	if active >= NumLayers {
		return s
	}
	var r State
	for i := range r {
		r[i] = bytesil.Null
	}
	switch strategy {
	case Truncate:
		copy(r[:active], s[:active])
	case XorFold:
		for i := 0; i < active; i++ {
			acc := s[i]
			for j := i + active; j < NumLayers; j += active {
				acc = bytesil.Xor(acc, s[j])
			}
			r[i] = acc
		}
	case AverageFold:
		for i := 0; i < active; i++ {
			group := State{}
			for k := range group {
				group[k] = bytesil.Null
			}
			n := 0
			for j := i; j < NumLayers; j += active {
				group[n] = s[j]
				n++
			}
			r[i] = group.Average()
		}
	case MaxMagnitudeFold:
		for i := 0; i < active; i++ {
			best := bytesil.Null
			for j := i; j < NumLayers; j += active {
				if s[j].IsNull() {
					continue
				}
				if best.IsNull() || s[j].Rho > best.Rho {
					best = s[j]
				}
			}
			r[i] = best
		}
	}
	return r
}
