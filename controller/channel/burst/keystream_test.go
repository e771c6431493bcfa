package burst

import (
	"testing"

	"pgregory.net/rapid"
)

func TestKeystreamDelta(t *testing.T) {
	cases := []struct {
		history     string
		historySize int
		delta       int
	}{
		{"A", 0, 1},   // 65
		{"AA", 0, -1}, // 130
		{"AB", 0, 1},  // 131
		{"AB", 1, -1}, // 66
		{"AB", 5, 1},  // window larger than history
		{"", 0, -1},
	}
	for i, c := range cases {
		if d := keystreamDelta([]byte(c.history), c.historySize); d != c.delta {
			t.Errorf("Case %d : delta = %d; want %d", i, d, c.delta)
		}
	}
}

func TestEvolveRule(t *testing.T) {
	m := newSizeMap(binaryOrder, []int{4, 7})

	// Odd sum steps up
	next, redrawn, err := Evolve(m, []byte("A"), 0, 10, DigestSHA256)
	if err != nil {
		t.Fatalf("err = '%s'; want nil", err.Error())
	}
	if redrawn {
		t.Errorf("redrawn = true; want false")
	}
	if got := next.Sizes(); got[0] != 6 || got[1] != 9 {
		t.Errorf("sizes = %v; want [6 9]", got)
	}

	// Even sum steps down, which lands every size on itself
	if next, _, err = Evolve(m, []byte("AA"), 0, 10, DigestSHA256); err != nil {
		t.Fatalf("err = '%s'; want nil", err.Error())
	}
	if got := next.Sizes(); got[0] != 4 || got[1] != 7 {
		t.Errorf("sizes = %v; want [4 7]", got)
	}

	// Wrap around BurstMax
	m = newSizeMap(binaryOrder, []int{9, 10})
	if next, _, err = Evolve(m, []byte("A"), 0, 10, DigestSHA256); err != nil {
		t.Fatalf("err = '%s'; want nil", err.Error())
	}
	if got := next.Sizes(); got[0] != 1 || got[1] != 2 {
		t.Errorf("sizes = %v; want [1 2]", got)
	}
}

func TestEvolveDoesNotMutateInput(t *testing.T) {
	m := newSizeMap(binaryOrder, []int{4, 7})
	Evolve(m, []byte("A"), 0, 10, DigestSHA256)
	if got := m.Sizes(); got[0] != 4 || got[1] != 7 {
		t.Errorf("input map changed to %v", got)
	}
}

func TestEvolveDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		burstMax := rapid.IntRange(2, 64).Draw(t, "burstMax")
		m, err := GenerateSizeMap(binaryOrder, "k1", rapid.Int64().Draw(t, "ts"), burstMax, DigestSHA256)
		if err != nil {
			t.Fatalf("err = '%s'; want nil", err.Error())
		}
		history := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "history")
		historySize := rapid.IntRange(0, 16).Draw(t, "historySize")

		a, _, errA := Evolve(m, history, historySize, burstMax, DigestSHA256)
		b, _, errB := Evolve(m, history, historySize, burstMax, DigestSHA256)
		if errA != nil || errB != nil {
			t.Fatalf("errors %v, %v; want nil", errA, errB)
		}
		if !a.Equal(b) {
			t.Fatalf("Evolve gave %s then %s", a, b)
		}
	})
}

// Adding the same delta modulo BurstMax permutes [1, BurstMax], so a valid
// map never collides and never needs a redraw.
func TestEvolvePreservesBijection(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.SampledFrom([]int{1, 2, 4}).Draw(t, "width")
		order := orderOfWidth(width)
		burstMax := rapid.IntRange(2*len(order)+8, 128).Draw(t, "burstMax")
		m, err := GenerateSizeMap(order, "k1", rapid.Int64().Draw(t, "ts"), burstMax, DigestSHA256)
		if err != nil {
			t.Fatalf("err = '%s'; want nil", err.Error())
		}
		msg := rapid.SliceOfN(rapid.Byte(), 1, 32).Draw(t, "msg")
		historySize := rapid.IntRange(0, 8).Draw(t, "historySize")

		for i := range msg {
			var redrawn bool
			m, redrawn, err = Evolve(m, msg[:i+1], historySize, burstMax, DigestSHA256)
			if err != nil {
				t.Fatalf("err = '%s'; want nil", err.Error())
			}
			if redrawn {
				t.Fatalf("unexpected redraw at byte %d", i)
			}
			if !m.Distinct() || !m.InRange(burstMax) {
				t.Fatalf("invalid size map %s at byte %d", m, i)
			}
		}
	})
}

// A receiver may learn sizes above BurstMax when a burst is overcounted.
// Wrapping can then collide, and both ends redraw from the history.
func TestEvolveRedrawsOnCollision(t *testing.T) {
	m := newSizeMap(binaryOrder, []int{11, 1})
	history := []byte("A")

	next, redrawn, err := Evolve(m, history, 0, 10, DigestSHA256)
	if err != nil {
		t.Fatalf("err = '%s'; want nil", err.Error())
	}
	if !redrawn {
		t.Errorf("redrawn = false; want true")
	}
	if !next.Distinct() || !next.InRange(10) {
		t.Errorf("invalid redrawn map %s", next)
	}

	again, _, err := Evolve(m, history, 0, 10, DigestSHA256)
	if err != nil {
		t.Fatalf("err = '%s'; want nil", err.Error())
	}
	if !next.Equal(again) {
		t.Errorf("redraw not deterministic: %s then %s", next, again)
	}
}
