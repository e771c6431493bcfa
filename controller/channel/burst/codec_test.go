package burst

import (
	"reflect"
	"testing"
)

func TestByteToBits(t *testing.T) {
	if s := ByteToBits('A'); s != "01000001" {
		t.Errorf("ByteToBits('A') = %s; want 01000001", s)
	}
	if s := ByteToBits(0); s != "00000000" {
		t.Errorf("ByteToBits(0) = %s; want 00000000", s)
	}
	for i := 0; i < 256; i++ {
		b, err := BitsToByte(ByteToBits(byte(i)))
		if err != nil {
			t.Errorf("err = '%s'; want nil", err.Error())
		} else if b != byte(i) {
			t.Errorf("BitsToByte(ByteToBits(%d)) = %d", i, b)
		}
	}
}

func TestBitsToByteErrors(t *testing.T) {
	for _, bits := range []string{"0100000", "010000011", "0100000x", ""} {
		if _, err := BitsToByte(bits); err == nil {
			t.Errorf("BitsToByte(%q) err = nil; want error", bits)
		}
	}
}

func TestSymbolWidth(t *testing.T) {
	valid := map[int][]string{
		1: {"0", "1"},
		2: {"11", "00", "10", "01"},
		4: orderOfWidth(4),
	}
	for want, order := range valid {
		if w, err := symbolWidth(order); err != nil {
			t.Errorf("%v: err = '%s'; want nil", order, err.Error())
		} else if w != want {
			t.Errorf("%v: width = %d; want %d", order, w, want)
		}
	}

	invalid := [][]string{
		nil,
		{"0"},
		{"0", "0"},
		{"0", "2"},
		{"00", "01", "10"},
		{"00", "01", "10", "1"},
		{"000", "001", "010", "011", "100", "101", "110", "111"},
	}
	for _, order := range invalid {
		if _, err := symbolWidth(order); err != ErrInvalidSignalOrder {
			t.Errorf("%v: err = %v; want ErrInvalidSignalOrder", order, err)
		}
	}
}

func TestSymbolsForByte(t *testing.T) {
	cases := []struct {
		width int
		syms  []string
	}{
		{1, []string{"0", "1", "0", "0", "0", "0", "0", "1"}},
		{2, []string{"01", "00", "00", "01"}},
		{4, []string{"0100", "0001"}},
	}
	for _, c := range cases {
		if got := symbolsForByte('A', c.width); !reflect.DeepEqual(got, c.syms) {
			t.Errorf("width %d: %v; want %v", c.width, got, c.syms)
		}
	}
}

func TestSymbolBuffer(t *testing.T) {
	var sb symbolBuffer
	syms := symbolsForByte('A', 2)
	for i, sym := range syms {
		b, complete, err := sb.push(sym)
		if err != nil {
			t.Fatalf("err = '%s'; want nil", err.Error())
		}
		if i < len(syms)-1 {
			if complete {
				t.Errorf("byte completed after %d symbols", i+1)
			}
			if sb.pending() != 2*(i+1) {
				t.Errorf("pending = %d; want %d", sb.pending(), 2*(i+1))
			}
		} else if !complete || b != 'A' {
			t.Errorf("got %q, %t; want 'A', true", b, complete)
		}
	}
	if sb.pending() != 0 {
		t.Errorf("pending = %d after a whole byte; want 0", sb.pending())
	}
}
