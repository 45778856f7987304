package textutil

import (
	"strings"
	"unicode"
)

// NaturalCompare orders strings case-insensitively with embedded numeric runs
// compared numerically, so "S2" sorts before "S10". Returns -1, 0, or 1.
func NaturalCompare(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ra, rb := rune(a[i]), rune(b[j])
		if unicode.IsDigit(ra) && unicode.IsDigit(rb) {
			ia := i
			for i < len(a) && unicode.IsDigit(rune(a[i])) {
				i++
			}
			jb := j
			for j < len(b) && unicode.IsDigit(rune(b[j])) {
				j++
			}
			na := strings.TrimLeft(a[ia:i], "0")
			nb := strings.TrimLeft(b[jb:j], "0")
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			continue
		}
		if ra != rb {
			if ra < rb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case i < len(a):
		return 1
	case j < len(b):
		return -1
	default:
		return 0
	}
}

// NaturalLess reports whether a sorts before b under NaturalCompare.
func NaturalLess(a, b string) bool {
	return NaturalCompare(a, b) < 0
}
