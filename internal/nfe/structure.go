package nfe

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// KeyLength is the number of digits in an electronic invoice access key.
	KeyLength = 44

	// ModelNFe is the document model code carried at offset 20.
	ModelNFe = "55"

	minRegion = 11
	maxRegion = 53

	// Access keys only exist from 2006 onwards.
	minKeyYear = 6
)

// RegionCodes lists the IBGE state codes that can open an access key.
var RegionCodes = []string{
	"11", "12", "13", "14", "15", "16", "17",
	"21", "22", "23", "24", "25", "26", "27", "28", "29",
	"31", "32", "33", "35",
	"41", "42", "43",
	"50", "51", "52", "53",
}

// KeyStructure holds the fixed-width fields of a 44-digit access key.
type KeyStructure struct {
	Key             string `json:"key"`
	Region          int    `json:"region"`
	Year            int    `json:"year"`
	Month           int    `json:"month"`
	IssuerTaxID     string `json:"issuer_tax_id"`
	Model           string `json:"model"`
	Series          string `json:"series"`
	Number          string `json:"number"`
	EmissionType    string `json:"emission_type"`
	NumericCode     string `json:"numeric_code"`
	CheckDigit      int    `json:"check_digit"`
	CheckDigitValid bool   `json:"check_digit_valid"`
}

// StructureError names the first field constraint a candidate violated.
type StructureError struct {
	Field  string
	Value  string
	Reason string
}

func (e *StructureError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

// ValidateStructure checks the fixed-width fields of candidate against the current date.
func ValidateStructure(candidate string) (*KeyStructure, error) {
	return ValidateStructureAt(candidate, time.Now())
}

// ValidateStructureAt checks the fixed-width fields of candidate, using now to bound the
// year field. It performs no I/O and returns the same fields for the same inputs.
func ValidateStructureAt(candidate string, now time.Time) (*KeyStructure, error) {
	if len(candidate) != KeyLength {
		return nil, &StructureError{Field: "key", Value: candidate, Reason: fmt.Sprintf("must have %d digits, got %d", KeyLength, len(candidate))}
	}
	if !isAllDigits(candidate) {
		return nil, &StructureError{Field: "key", Value: candidate, Reason: "must be numeric"}
	}

	region, _ := strconv.Atoi(candidate[0:2])
	if region < minRegion || region > maxRegion {
		return nil, &StructureError{Field: "region", Value: candidate[0:2], Reason: fmt.Sprintf("must be between %d and %d", minRegion, maxRegion)}
	}

	year, _ := strconv.Atoi(candidate[2:4])
	maxYear := now.Year()%100 + 5
	if year < minKeyYear || year > maxYear {
		return nil, &StructureError{Field: "year", Value: candidate[2:4], Reason: fmt.Sprintf("must be between %02d and %02d", minKeyYear, maxYear)}
	}

	month, _ := strconv.Atoi(candidate[4:6])
	if month < 1 || month > 12 {
		return nil, &StructureError{Field: "month", Value: candidate[4:6], Reason: "must be between 01 and 12"}
	}

	taxID := candidate[6:20]
	if len(taxID) != 14 || !isAllDigits(taxID) {
		return nil, &StructureError{Field: "issuer_tax_id", Value: taxID, Reason: "must be 14 digits"}
	}

	model := candidate[20:22]
	if model != ModelNFe {
		return nil, &StructureError{Field: "model", Value: model, Reason: "must be " + ModelNFe}
	}

	dv := int(candidate[43] - '0')
	return &KeyStructure{
		Key:             candidate,
		Region:          region,
		Year:            2000 + year,
		Month:           month,
		IssuerTaxID:     taxID,
		Model:           model,
		Series:          candidate[22:25],
		Number:          candidate[25:34],
		EmissionType:    candidate[34:35],
		NumericCode:     candidate[35:43],
		CheckDigit:      dv,
		CheckDigitValid: CheckDigit(candidate[:43]) == dv,
	}, nil
}

// CheckDigit computes the modulo-11 verifier for the first 43 digits of a key.
// Returns -1 if the input is not 43 digits.
func CheckDigit(first43 string) int {
	if len(first43) != KeyLength-1 || !isAllDigits(first43) {
		return -1
	}
	sum, weight := 0, 2
	for i := len(first43) - 1; i >= 0; i-- {
		sum += int(first43[i]-'0') * weight
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
