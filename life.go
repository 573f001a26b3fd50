package webcache

import (
	"math"
	"strings"
	"time"
)

// ParseLife converts a lifetime literal to a duration.
//
// A trailing s, m, h or d selects seconds, minutes, hours or days; anything
// else is read as seconds. The number is the leading integer of the literal
// (optional sign, digits and single underscores between digits) and a
// literal without one yields zero.
func ParseLife(literal string) time.Duration {
	if literal == "" {
		return 0
	}

	unit := time.Second
	switch literal[len(literal)-1] {
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	}
	return scale(leadingInt(literal), unit)
}

// scale multiplies n by unit, saturating instead of wrapping around
func scale(n int64, unit time.Duration) time.Duration {
	switch {
	case n > math.MaxInt64/int64(unit):
		return time.Duration(math.MaxInt64)
	case n < math.MinInt64/int64(unit):
		return time.Duration(math.MinInt64)
	}
	return time.Duration(n) * unit
}

func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\v\f\r")

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	var n int64
	prevDigit := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			d := int64(c - '0')
			if n > (math.MaxInt64-d)/10 {
				n = math.MaxInt64
			} else {
				n = n*10 + d
			}
			prevDigit = true
			continue
		}
		if c == '_' && prevDigit && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			prevDigit = false
			continue
		}
		break
	}

	if negative {
		return -n
	}
	return n
}
