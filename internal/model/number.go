package model

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberPrefix is the prefix of generated invoice numbers.
const NumberPrefix = "INV-"

// NextNumber computes the next invoice number from the numbers already
// in use: strip every non-digit character from each number, take the
// maximum value that still parses as an integer, and return max+1
// zero-padded to four digits with the INV- prefix.
//
// Numbers with no digits contribute nothing. An empty slice (or one
// with no parseable numbers) yields "INV-0001".
func NextNumber(existing []string) string {
	max := 0
	for _, raw := range existing {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, raw)
		if digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			// Digit runs longer than an int (pathological input).
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%04d", NumberPrefix, max+1)
}
