package nfe_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fidelis/internal/domain"
	"fidelis/internal/nfe"
)

func newExtractor() *nfe.Extractor {
	return nfe.NewExtractorWithClock(nfe.DefaultMaxWindows, func() time.Time { return fixedNow })
}

func spaced(key string) string {
	var parts []string
	for i := 0; i < len(key); i += 4 {
		end := i + 4
		if end > len(key) {
			end = len(key)
		}
		parts = append(parts, key[i:end])
	}
	return strings.Join(parts, " ")
}

func TestExtractLabeledCandidates(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"chave_de_acesso", "chave de acesso: " + validKey},
		{"accented_upper", "CHAVE DE ACESSO\n" + spaced(validKey)},
		{"chave_nfe", "Chave NF-e: " + validKey},
		{"codigo_accented", "Código: " + strings.ReplaceAll(spaced(validKey), " ", ".")},
		{"url_param", "Consulte em http://www.fazenda.sp.gov.br/nfce/qrcode?p=" + validKey + "|2|1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := nfe.ExtractLabeledCandidates(tc.text)
			assert.Contains(t, got, validKey)
		})
	}
}

func TestExtractLabeledCandidates_RejectsWrongLength(t *testing.T) {
	got := nfe.ExtractLabeledCandidates("chave de acesso: " + validKey + "99")
	assert.NotContains(t, got, validKey)

	got = nfe.ExtractLabeledCandidates("chave de acesso: " + validKey[:40])
	assert.Empty(t, got)
}

func TestExtractLabeledCandidates_IgnoresTrailingDigitsOnLine(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"time_after_key", "Chave de acesso: " + validKey + " 15:30"},
		{"date_after_spaced_key", "Chave de acesso: " + spaced(validKey) + " 12/06/2020"},
		{"number_after_dotted_key", "codigo: " + strings.ReplaceAll(spaced(validKey), " ", ".") + " 0001"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, []string{validKey}, nfe.ExtractLabeledCandidates(tc.text))

			ex := newExtractor().Extract(tc.text)
			require.True(t, ex.Found())
			assert.Equal(t, validKey, ex.Key)
			assert.Equal(t, domain.StrategyLabeled, ex.Strategy)
		})
	}
}

func TestExtractFromBarcodeRegion_PrefixOfLongRun(t *testing.T) {
	text := validKey + "1234567890123456"
	require.Len(t, text, 60)

	got, ok := nfe.ExtractFromBarcodeRegion(text)
	require.True(t, ok)
	assert.Equal(t, validKey, got)
}

func TestExtractFromBarcodeRegion_SlidesPastGarbage(t *testing.T) {
	text := "codigo de barras ||||| 990" + validKey + "00"
	got, ok := nfe.ExtractFromBarcodeRegion(text)
	require.True(t, ok)
	assert.Equal(t, validKey, got)
}

func TestExtractFromBarcodeRegion_AnchorsOnRegionCodeBeyondSlide(t *testing.T) {
	text := "barcode " + strings.Repeat("0", 15) + validKey
	got, ok := nfe.ExtractFromBarcodeRegion(text)
	require.True(t, ok)
	assert.Equal(t, validKey, got)
}

func TestBarcodeCandidates_CapsRegionAnchors(t *testing.T) {
	run := strings.Repeat("1235", 500)

	got := nfe.BarcodeCandidates(run, 10)

	// eleven leading windows plus at most ten anchored ones
	assert.Len(t, got, 21)
	for _, c := range got {
		assert.Len(t, c, nfe.KeyLength)
	}
}

func TestExtractFromBarcodeRegion_NoLongRun(t *testing.T) {
	_, ok := nfe.ExtractFromBarcodeRegion("total 12,50 cnpj 11.222.333/0001-81")
	assert.False(t, ok)
}

func TestExtractByRegionAnchor(t *testing.T) {
	text := "ref 99 " + spaced(validKey)
	got, ok := nfe.ExtractByRegionAnchor(text)
	require.True(t, ok)
	assert.Equal(t, validKey, got)
}

func TestExtractByBruteForceWindow(t *testing.T) {
	windows := nfe.ExtractByBruteForceWindow("a1b2"+validKey, 50)
	require.Len(t, windows, 3)
	assert.Equal(t, validKey, windows[2])

	long := strings.Repeat("1234567890", 20)
	assert.Len(t, nfe.ExtractByBruteForceWindow(long, 50), 50)
	assert.Empty(t, nfe.ExtractByBruteForceWindow("no digits here", 50))
}

func TestExtractor_Extract(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		strategy domain.ExtractionStrategy
	}{
		{"labeled", "DANFE NFC-e\nchave de acesso: " + validKey + "\nTotal R$ 45,90", domain.StrategyLabeled},
		{"barcode", validKey + "1234567890123456", domain.StrategyBarcode},
		{"region_anchor", "ref 99 " + spaced(validKey), domain.StrategyRegionAnchor},
		{"brute_force", "NF " + spaced(validKey[:22]) + "\n" + spaced(validKey[22:]), domain.StrategyBruteForce},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ex := newExtractor().Extract(tc.text)
			require.True(t, ex.Found())
			assert.Equal(t, validKey, ex.Key)
			assert.Equal(t, tc.strategy, ex.Strategy)
			assert.Equal(t, 35, ex.Structure.Region)
			assert.NotEmpty(t, ex.Attempted)
		})
	}
}

func TestExtractor_Extract_NoDigits(t *testing.T) {
	ex := newExtractor().Extract("supermercado bom preco obrigado pela preferencia")
	assert.False(t, ex.Found())
	assert.Empty(t, ex.Attempted)
}

func TestExtractor_Extract_NothingValidKeepsAttempts(t *testing.T) {
	bad := "99" + validKey[2:]
	ex := newExtractor().Extract("chave de acesso: " + bad)
	assert.False(t, ex.Found())
	require.NotEmpty(t, ex.Attempted)
	assert.Equal(t, bad, ex.Attempted[0].Digits)
	assert.Equal(t, domain.StrategyLabeled, ex.Attempted[0].Strategy)
}

func TestExtractor_Extract_EndToEndScenario(t *testing.T) {
	ex := newExtractor().Extract("NFe 35200612345678901234555001000000123451234567890")
	require.True(t, ex.Found())
	assert.Equal(t, "35200612345678901234555001000000123451234567", ex.Key)
	assert.Equal(t, 35, ex.Structure.Region)
	assert.Equal(t, 2020, ex.Structure.Year)
	assert.Equal(t, 6, ex.Structure.Month)
}
