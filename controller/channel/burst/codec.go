package burst

import (
	"errors"
	"strconv"
	"strings"
)

const bitsPerByte = 8

// ByteToBits renders b as eight binary digits, most significant first.
func ByteToBits(b byte) string {
	s := strconv.FormatUint(uint64(b), 2)
	return strings.Repeat("0", bitsPerByte-len(s)) + s
}

// BitsToByte is the inverse of ByteToBits.
func BitsToByte(bits string) (byte, error) {
	if len(bits) != bitsPerByte {
		return 0, errors.New("Need exactly 8 bits for a byte")
	}
	v, err := strconv.ParseUint(bits, 2, 8)
	if err != nil {
		return 0, errors.New("Invalid bit string " + strconv.Quote(bits))
	}
	return byte(v), nil
}

// symbolWidth checks that order holds every bit string of one width exactly
// once, and returns that width. Widths must divide a byte.
func symbolWidth(order []string) (int, error) {
	if len(order) == 0 {
		return 0, ErrInvalidSignalOrder
	}
	width := len(order[0])
	if width != 1 && width != 2 && width != 4 {
		return 0, ErrInvalidSignalOrder
	}
	if len(order) != 1<<uint(width) {
		return 0, ErrInvalidSignalOrder
	}
	seen := make(map[string]bool, len(order))
	for _, s := range order {
		if len(s) != width || strings.Trim(s, "01") != "" || seen[s] {
			return 0, ErrInvalidSignalOrder
		}
		seen[s] = true
	}
	return width, nil
}

// symbolsForByte splits b into symbols of width bits, most significant first.
func symbolsForByte(b byte, width int) []string {
	bits := ByteToBits(b)
	syms := make([]string, 0, bitsPerByte/width)
	for i := 0; i < bitsPerByte; i += width {
		syms = append(syms, bits[i:i+width])
	}
	return syms
}

// symbolBuffer gathers decoded symbols until they make up a whole byte.
type symbolBuffer struct {
	bits strings.Builder
}

func (sb *symbolBuffer) push(sym string) (byte, bool, error) {
	sb.bits.WriteString(sym)
	if sb.bits.Len() < bitsPerByte {
		return 0, false, nil
	}
	bits := sb.bits.String()
	sb.bits.Reset()
	b, err := BitsToByte(bits)
	return b, err == nil, err
}

// pending returns the number of bits buffered towards the next byte.
func (sb *symbolBuffer) pending() int {
	return sb.bits.Len()
}
