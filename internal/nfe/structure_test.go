package nfe_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fidelis/internal/nfe"
)

// validKey carries CNPJ 11.222.333/0001-81 and a correct check digit.
const validKey = "35200611222333000181550010000001231234567891"

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func withPrefix(prefix string) string {
	return prefix + validKey[len(prefix):]
}

func TestValidateStructure_Valid(t *testing.T) {
	ks, err := nfe.ValidateStructureAt(validKey, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, 35, ks.Region)
	assert.Equal(t, 2020, ks.Year)
	assert.Equal(t, 6, ks.Month)
	assert.Equal(t, "11222333000181", ks.IssuerTaxID)
	assert.Equal(t, nfe.ModelNFe, ks.Model)
	assert.Equal(t, "001", ks.Series)
	assert.Equal(t, "000000123", ks.Number)
	assert.Equal(t, "1", ks.EmissionType)
	assert.Equal(t, "23456789", ks.NumericCode)
	assert.Equal(t, 1, ks.CheckDigit)
	assert.True(t, ks.CheckDigitValid)
}

func TestValidateStructure_BadCheckDigitIsStillValid(t *testing.T) {
	key := validKey[:43] + "7"
	ks, err := nfe.ValidateStructureAt(key, fixedNow)
	require.NoError(t, err)
	assert.False(t, ks.CheckDigitValid)
}

func TestValidateStructure_Failures(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		field string
	}{
		{"too_short", validKey[:43], "key"},
		{"too_long", validKey + "0", "key"},
		{"non_numeric", validKey[:10] + "A" + validKey[11:], "key"},
		{"region_low", withPrefix("10"), "region"},
		{"region_high", withPrefix("54"), "region"},
		{"year_before_epoch", withPrefix("3505"), "year"},
		{"year_too_far_ahead", withPrefix("3530"), "year"},
		{"month_zero", withPrefix("352000"), "month"},
		{"month_thirteen", withPrefix("352013"), "month"},
		{"model_nfce", validKey[:20] + "65" + validKey[22:], "model"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ks, err := nfe.ValidateStructureAt(tc.key, fixedNow)
			require.Error(t, err)
			assert.Nil(t, ks)

			var sErr *nfe.StructureError
			require.ErrorAs(t, err, &sErr)
			assert.Equal(t, tc.field, sErr.Field)
			assert.NotEmpty(t, err.Error())
		})
	}
}

func TestValidateStructure_YearUpperBoundFollowsClock(t *testing.T) {
	_, err := nfe.ValidateStructureAt(withPrefix("3529"), fixedNow)
	assert.NoError(t, err, "2024 allows years up to 29")

	_, err = nfe.ValidateStructureAt(withPrefix("3529"), time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err, "2023 allows years up to 28")
}

func TestValidateStructure_RegionOutsideRangeAlwaysInvalid(t *testing.T) {
	for r := 0; r < 100; r++ {
		if r >= 11 && r <= 53 {
			continue
		}
		key := withPrefix(fmt.Sprintf("%02d", r))
		_, err := nfe.ValidateStructureAt(key, fixedNow)
		assert.Error(t, err, "region %02d", r)
	}
}

func TestValidateStructure_ModelOtherThanNFeAlwaysInvalid(t *testing.T) {
	for m := 0; m < 100; m++ {
		model := fmt.Sprintf("%02d", m)
		if model == nfe.ModelNFe {
			continue
		}
		key := validKey[:20] + model + validKey[22:]
		_, err := nfe.ValidateStructureAt(key, fixedNow)
		assert.Error(t, err, "model %s", model)
	}
}

func TestValidateStructure_Idempotent(t *testing.T) {
	first, err := nfe.ValidateStructureAt(validKey, fixedNow)
	require.NoError(t, err)
	second, err := nfe.ValidateStructureAt(validKey, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCheckDigit(t *testing.T) {
	assert.Equal(t, 1, nfe.CheckDigit(validKey[:43]))
	assert.Equal(t, 0, nfe.CheckDigit("3520061234567890123455500100000012345123456"))
	assert.Equal(t, -1, nfe.CheckDigit("123"))
	assert.Equal(t, -1, nfe.CheckDigit(validKey[:42]+"x"))
}
