package nfe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fidelis/internal/nfe"
)

func TestValidCNPJ(t *testing.T) {
	assert.True(t, nfe.ValidCNPJ("11222333000181"))
	assert.False(t, nfe.ValidCNPJ("11222333000182"))
	assert.False(t, nfe.ValidCNPJ("11111111111111"))
	assert.False(t, nfe.ValidCNPJ("1122233300018"))
	assert.False(t, nfe.ValidCNPJ("11.222.333/0001-81"))
}

func TestFindTaxIDs(t *testing.T) {
	text := "SUPERMERCADO EXEMPLO LTDA\nCNPJ: 11.222.333/0001-81\nIE 123456789\nref 11222333000182"
	assert.Equal(t, []string{"11222333000181"}, nfe.FindTaxIDs(text))
}

func TestFindTaxIDs_IgnoresDigitsInsideKeys(t *testing.T) {
	assert.Empty(t, nfe.FindTaxIDs("chave "+validKey))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "codigo de barras", nfe.Normalize("Código de Barras"))
	assert.Equal(t, "123", nfe.Normalize("１２３"))
}

func TestFoldAccents_KeepsCase(t *testing.T) {
	assert.Equal(t, "Comercio Sao Joao LTDA", nfe.FoldAccents("Comércio São João LTDA"))
}
