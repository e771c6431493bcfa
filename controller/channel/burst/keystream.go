package burst

// keystreamDelta derives the step applied to every burst size from the sum
// of the most recent historySize bytes (all of them when historySize is 0).
// An even sum steps down, an odd sum steps up.
func keystreamDelta(history []byte, historySize int) int {
	window := history
	if historySize > 0 && len(window) > historySize {
		window = window[len(window)-historySize:]
	}
	sum := 0
	for _, b := range window {
		sum += int(b)
	}
	if sum%2 == 0 {
		return -1
	}
	return 1
}

// Evolve returns the size map that follows m once history has been
// exchanged. Every size becomes ((size + delta) mod burstMax) + 1 and keeps
// its position. Should the result ever lose distinctness both endpoints
// redraw the whole map from the digest of the history, and redrawn is set.
// Evolve is pure, so sender and receiver stay in lockstep.
func Evolve(m SizeMap, history []byte, historySize, burstMax int, digest string) (next SizeMap, redrawn bool, err error) {
	delta := keystreamDelta(history, historySize)
	sizes := make([]int, len(m.sizes))
	for i, s := range m.sizes {
		sizes[i] = mod(s+delta, burstMax) + 1
	}
	next = SizeMap{order: m.order, sizes: sizes}
	if next.Distinct() {
		return next, false, nil
	}

	d, err := digestSum(digest, history)
	if err != nil {
		return SizeMap{}, false, err
	}
	next, err = drawSizeMap(m.order, d, burstMax, digest)
	return next, true, err
}

func mod(a, m int) int {
	return ((a % m) + m) % m
}
