package cbz

import (
	"strings"
	"unicode"
)

// compareNatural orders two entry paths so that digit runs compare by value:
// "page2.jpg" comes before "page10.jpg". Letters compare case insensitively,
// ties fall back to byte order.
func compareNatural(a, b string) int {
	if c := naturalCompare(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func naturalCompare(a, b string) int {
	ra, rb := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			if c := compareDigits(ra[si:i], rb[sj:j]); c != 0 {
				return c
			}
			continue
		}
		if ra[i] != rb[j] {
			if ra[i] < rb[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	return (len(ra) - i) - (len(rb) - j)
}

// compareDigits compares two digit runs by numeric value without parsing, so
// arbitrarily long runs work.
func compareDigits(a, b []rune) int {
	a, b = trimZeros(a), trimZeros(b)
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	for k := range a {
		if a[k] != b[k] {
			return int(a[k]) - int(b[k])
		}
	}
	return 0
}

func trimZeros(run []rune) []rune {
	for len(run) > 1 && run[0] == '0' {
		run = run[1:]
	}
	return run
}
