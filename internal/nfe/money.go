package nfe

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var currencyStripper = strings.NewReplacer("R$", "", "r$", "", "BRL", "", "brl", "", "$", "", " ", "", "\u00a0", "", "\t", "", "\n", "")

// ParseMoney parses a Brazilian-formatted amount such as "R$ 1.234,56". Dots are thousands
// separators and a comma is the decimal point. Text without a comma keeps a single dot
// followed by one or two digits as the decimal point.
func ParseMoney(s string) (decimal.Decimal, error) {
	v := currencyStripper.Replace(strings.TrimSpace(s))
	if v == "" {
		return decimal.Zero, fmt.Errorf("parsing money %q: empty", s)
	}
	switch {
	case strings.Contains(v, ","):
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	case strings.Count(v, ".") == 1 && len(v)-strings.Index(v, ".") <= 3:
		// already a decimal point
	default:
		v = strings.ReplaceAll(v, ".", "")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing money %q: %w", s, err)
	}
	return d, nil
}

// ParseMoneyFloat is ParseMoney returning a float64 and an ok flag.
func ParseMoneyFloat(s string) (float64, bool) {
	d, err := ParseMoney(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
}

// ParseDate accepts DD/MM/YYYY and YYYY-MM-DD, ignoring any trailing time component.
func ParseDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if len(v) > 10 {
		v = v[:10]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", s)
}
