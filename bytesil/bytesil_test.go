package bytesil

import "testing"

func TestMulCommutes(t *testing.T) {
	a := ByteSil{Rho: 2, Theta: 3}
	b := ByteSil{Rho: -1, Theta: 9}
	if Mul(a, b) != Mul(b, a) {
		t.Errorf("Mul not commutative: %v vs %v", Mul(a, b), Mul(b, a))
	}
}

func TestDivUndoesMul(t *testing.T) {
	a := ByteSil{Rho: 2, Theta: 3}
	b := ByteSil{Rho: 1, Theta: 5}
	got := Div(Mul(a, b), b)
	if got != a {
		t.Errorf("Div(Mul(a,b),b) = %v, want %v", got, a)
	}
}

func TestRhoSaturates(t *testing.T) {
	a := ByteSil{Rho: 7, Theta: 0}
	got := Mul(a, a)
	if got.Rho != 7 {
		t.Errorf("rho saturation got %d, want 7", got.Rho)
	}
}

func TestThetaWraps(t *testing.T) {
	a := ByteSil{Rho: 0, Theta: 15}
	b := ByteSil{Rho: 0, Theta: 1}
	got := Mul(a, b)
	if got.Theta != 0 {
		t.Errorf("theta wrap got %d, want 0", got.Theta)
	}
}

func TestNullAbsorbing(t *testing.T) {
	cases := []ByteSil{One, I, NegOne, NegI, Max, {Rho: 3, Theta: 7}}
	for _, c := range cases {
		if got := Mul(Null, c); !got.IsNull() {
			t.Errorf("Null * %v = %v, want Null", c, got)
		}
		if got := Mul(c, Null); !got.IsNull() {
			t.Errorf("%v * Null = %v, want Null", c, got)
		}
	}
}

func TestPackRoundTrip(t *testing.T) {
	for rho := int8(-8); rho <= 7; rho++ {
		for theta := uint8(0); theta < 16; theta++ {
			b := ByteSil{Rho: rho, Theta: theta}
			got := Unpack(b.Pack())
			if got != b {
				t.Errorf("Unpack(Pack(%v)) = %v", b, got)
			}
		}
	}
}

func TestPackLayout(t *testing.T) {
	b := ByteSil{Rho: 5, Theta: 7}
	if b.Pack() != 0x57 {
		t.Errorf("Pack() = %#x, want 0x57", b.Pack())
	}
}

func TestConjReflectsPhase(t *testing.T) {
	a := ByteSil{Rho: 3, Theta: 5}
	got := Conj(a)
	want := ByteSil{Rho: 3, Theta: 11}
	if got != want {
		t.Errorf("Conj(%v) = %v, want %v", a, got, want)
	}
}

func TestAddCartesian(t *testing.T) {
	// One (1+0i) + One (1+0i) = 2+0i -> rho = log(2), theta = 0
	got := Add(One, One)
	if got.Theta != 0 {
		t.Errorf("Add(One,One).Theta = %d, want 0", got.Theta)
	}
	if got.Rho < 0 {
		t.Errorf("Add(One,One).Rho = %d, want >= 0", got.Rho)
	}
}

func TestAddNullIdentity(t *testing.T) {
	a := ByteSil{Rho: 4, Theta: 9}
	if got := Add(a, Null); got != a {
		t.Errorf("Add(a,Null) = %v, want %v", got, a)
	}
	if got := Add(Null, a); got != a {
		t.Errorf("Add(Null,a) = %v, want %v", got, a)
	}
}

func TestXorPacked(t *testing.T) {
	a := ByteSil{Rho: 2, Theta: 5}
	b := ByteSil{Rho: 1, Theta: 3}
	got := Xor(a, b)
	want := Unpack(a.Pack() ^ b.Pack())
	if got != want {
		t.Errorf("Xor(%v,%v) = %v, want %v", a, b, got, want)
	}
}
