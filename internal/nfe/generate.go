package nfe

import (
	"fmt"
	"strconv"
	"time"
)

const maxInvoiceNumber = 999999999

// NextSequenceKeys returns up to n keys that follow key in the invoice-number field,
// each with a recomputed check digit. Every other field is kept.
func NextSequenceKeys(key string, n int) []string {
	if len(key) != KeyLength || !isAllDigits(key) || n <= 0 {
		return nil
	}
	num, err := strconv.Atoi(key[25:34])
	if err != nil {
		return nil
	}
	out := make([]string, 0, n)
	for i := 1; i <= n && num+i <= maxInvoiceNumber; i++ {
		base := key[:25] + fmt.Sprintf("%09d", num+i) + key[34:43]
		out = append(out, base+strconv.Itoa(CheckDigit(base)))
	}
	return out
}

// CompleteKeys looks for digit runs that are exactly one digit short of a key and
// appends the computed check digit. Only structurally valid results are returned, at
// most limit of them.
func CompleteKeys(text string, limit int, now time.Time) []string {
	if limit <= 0 {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, m := range splitRunPattern.FindAllString(Normalize(text), -1) {
		d := OnlyDigits(m)
		if len(d) != KeyLength-1 {
			continue
		}
		key := d + strconv.Itoa(CheckDigit(d))
		if seen[key] {
			continue
		}
		if _, err := ValidateStructureAt(key, now); err != nil {
			continue
		}
		seen[key] = true
		out = append(out, key)
		if len(out) == limit {
			break
		}
	}
	return out
}
