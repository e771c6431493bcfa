package burst

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// Upper bound on hash-of-hash redraws while looking for distinct sizes.
// Only reachable when BurstMax barely exceeds the alphabet size.
const maxSizeMapDraws = 1 << 16

// SizeMap pairs every symbol of the signal order, by position, with the
// number of packets in the burst that carries it.
type SizeMap struct {
	order []string
	sizes []int
}

func newSizeMap(order []string, sizes []int) SizeMap {
	return SizeMap{
		order: append([]string(nil), order...),
		sizes: append([]int(nil), sizes...),
	}
}

// Size returns the burst size carrying sym.
func (m SizeMap) Size(sym string) (int, bool) {
	for i, s := range m.order {
		if s == sym {
			return m.sizes[i], true
		}
	}
	return 0, false
}

// Symbol returns the symbol carried by a burst of count packets.
// If a handshake recorded the same count twice the later position wins.
func (m SizeMap) Symbol(count int) (string, bool) {
	for i := len(m.sizes) - 1; i >= 0; i-- {
		if m.sizes[i] == count {
			return m.order[i], true
		}
	}
	return "", false
}

func (m SizeMap) Sizes() []int {
	return append([]int(nil), m.sizes...)
}

func (m SizeMap) Order() []string {
	return append([]string(nil), m.order...)
}

// Distinct reports whether no two symbols share a burst size.
func (m SizeMap) Distinct() bool {
	seen := make(map[int]bool, len(m.sizes))
	for _, s := range m.sizes {
		if seen[s] {
			return false
		}
		seen[s] = true
	}
	return true
}

// InRange reports whether every size lies within [1, burstMax].
func (m SizeMap) InRange(burstMax int) bool {
	for _, s := range m.sizes {
		if s < 1 || s > burstMax {
			return false
		}
	}
	return true
}

func (m SizeMap) Equal(o SizeMap) bool {
	if len(m.order) != len(o.order) || len(m.sizes) != len(o.sizes) {
		return false
	}
	for i := range m.order {
		if m.order[i] != o.order[i] || m.sizes[i] != o.sizes[i] {
			return false
		}
	}
	return true
}

func (m SizeMap) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, s := range m.order {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(m.sizes[i]))
	}
	sb.WriteByte('}')
	return sb.String()
}

// GenerateSizeMap derives the initial size map of a message from the shared
// secret and the sender's wall clock second.
func GenerateSizeMap(order []string, secret string, timestamp int64, burstMax int, digest string) (SizeMap, error) {
	d, err := digestSum(digest, []byte(secret+strconv.FormatInt(timestamp, 10)))
	if err != nil {
		return SizeMap{}, err
	}
	return drawSizeMap(order, d, burstMax, digest)
}

// drawSizeMap reduces 32 bit chunks of d into candidate sizes and re-hashes d
// until the candidates are pairwise distinct.
func drawSizeMap(order []string, d []byte, burstMax int, digest string) (SizeMap, error) {
	if burstMax < len(order) {
		return SizeMap{}, ErrBurstMaxTooSmall
	}
	for draw := 0; draw < maxSizeMapDraws; draw++ {
		sizes, err := candidateSizes(d, len(order), burstMax, digest)
		if err != nil {
			return SizeMap{}, err
		}
		m := SizeMap{order: append([]string(nil), order...), sizes: sizes}
		if m.Distinct() {
			return m, nil
		}
		if d, err = digestSum(digest, d); err != nil {
			return SizeMap{}, err
		}
	}
	return SizeMap{}, ErrSizeMapExhausted
}

// The chunk stream is d || H(d) || H(H(d)) ..., extended only when the
// alphabet needs more chunks than a single digest holds.
func candidateSizes(d []byte, n, burstMax int, digest string) ([]int, error) {
	stream := append([]byte(nil), d...)
	block := d
	for len(stream) < 4*n {
		var err error
		if block, err = digestSum(digest, block); err != nil {
			return nil, err
		}
		stream = append(stream, block...)
	}
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = int(binary.BigEndian.Uint32(stream[4*i:])%uint32(burstMax)) + 1
	}
	return sizes, nil
}
