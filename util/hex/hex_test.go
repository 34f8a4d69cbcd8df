package hex

import (
	"strings"
	"testing"

	"github.com/vsp-core/vsp/bytesil"
)

func TestFormatByteSil(t *testing.T) {
	var sb strings.Builder
	FormatByteSil(&sb, bytesil.ByteSil{Rho: 3, Theta: 10})
	got := sb.String()
	want := "3A(rho=3,theta=10)"
	if got != want {
		t.Errorf("FormatByteSil = %q, want %q", got, want)
	}
}

func TestFormatByteSilNegativeRho(t *testing.T) {
	var sb strings.Builder
	FormatByteSil(&sb, bytesil.Null)
	got := sb.String()
	if !strings.Contains(got, "rho=-8") {
		t.Errorf("FormatByteSil(Null) = %q, want rho=-8", got)
	}
}

func TestFormatState(t *testing.T) {
	var sb strings.Builder
	var layers [16]byte
	layers[0] = 0x3A
	FormatState(&sb, layers)
	if !strings.HasPrefix(sb.String(), "3A ") {
		t.Errorf("FormatState = %q, want prefix %q", sb.String(), "3A ")
	}
}
