package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatNumber renders a document number as prefix plus a 4-digit zero-padded
// counter, e.g. VCH0007. Counters above 9999 keep all their digits.
func FormatNumber(prefix string, n int) string {
	return fmt.Sprintf("%s%04d", prefix, n)
}

// ParseNumberSuffix extracts the numeric suffix of a document number.
func ParseNumberSuffix(prefix, number string) (int, bool) {
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(number[len(prefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// MaxNumberSuffix returns the highest numeric suffix among numbers carrying
// prefix, or zero when there is none.
func MaxNumberSuffix(prefix string, numbers []string) int {
	highest := 0
	for _, number := range numbers {
		if n, ok := ParseNumberSuffix(prefix, number); ok && n > highest {
			highest = n
		}
	}
	return highest
}
