package nfe

import "regexp"

var (
	labeledCNPJPattern = regexp.MustCompile(`cnpj[^0-9]{0,12}([0-9]{2}\.?[0-9]{3}\.?[0-9]{3}/?[0-9]{4}-?[0-9]{2})`)
	bareCNPJPattern    = regexp.MustCompile(`(?:^|[^0-9])([0-9]{2}\.[0-9]{3}\.[0-9]{3}/[0-9]{4}-[0-9]{2}|[0-9]{14})(?:$|[^0-9])`)
)

// ValidCNPJ reports whether digits is a 14-digit company tax ID with valid check digits.
func ValidCNPJ(digits string) bool {
	if len(digits) != 14 || !isAllDigits(digits) {
		return false
	}
	same := true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			same = false
			break
		}
	}
	if same {
		return false
	}
	return cnpjDigit(digits[:12]) == int(digits[12]-'0') && cnpjDigit(digits[:13]) == int(digits[13]-'0')
}

func cnpjDigit(base string) int {
	sum, weight := 0, 2
	for i := len(base) - 1; i >= 0; i-- {
		sum += int(base[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// FindTaxIDs returns the valid CNPJs mentioned in text, labeled ones first.
func FindTaxIDs(text string) []string {
	normalized := Normalize(text)
	var out []string
	seen := make(map[string]bool)
	add := func(raw string) {
		d := OnlyDigits(raw)
		if seen[d] || !ValidCNPJ(d) {
			return
		}
		seen[d] = true
		out = append(out, d)
	}
	for _, m := range labeledCNPJPattern.FindAllStringSubmatch(normalized, -1) {
		add(m[1])
	}
	for _, m := range bareCNPJPattern.FindAllStringSubmatch(normalized, -1) {
		add(m[1])
	}
	return out
}
