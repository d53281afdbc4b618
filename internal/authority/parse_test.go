package authority_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fidelis/internal/authority"
)

func TestParseRecord_JSONAliases(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantValue float64
		wantTaxID string
		wantDate  string
	}{
		{"portuguese keys", `{"valor_total": "R$ 1.234,56", "cnpj_emitente": "11222333000181", "data_emissao": "2020-06-15"}`, 1234.56, "11222333000181", "2020-06-15"},
		{"xml-style keys", `{"NFe": {"infNFe": {"total": {"ICMSTot": {"vNF": "99.90"}}, "ide": {"dhEmi": "2020-06-15T10:00:00-03:00"}}}}`, 99.90, "", "2020-06-15"},
		{"numeric value", `{"valorTotal": 150}`, 150, "", ""},
		{"tax id only", `{"emitente": {"CNPJ": "11.222.333/0001-81"}}`, 0, "11222333000181", ""},
		{"array payload", `[{"vNF": "10,50"}]`, 10.50, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := authority.ParseRecord([]byte(tt.body))
			require.NoError(t, err)

			assert.InDelta(t, tt.wantValue, rec.TotalValue, 1e-9)
			assert.Equal(t, tt.wantValue > 0, rec.HasTotalValue)
			assert.Equal(t, tt.wantTaxID, rec.IssuerTaxID)
			assert.Equal(t, tt.wantDate, rec.IssueDate)
		})
	}
}

func TestParseRecord_RootLeafWins(t *testing.T) {
	rec, err := authority.ParseRecord([]byte(`{"detalhe": {"valor": "1,00"}, "valor": "2,00"}`))
	require.NoError(t, err)

	assert.InDelta(t, 2.0, rec.TotalValue, 1e-9)
}

func TestParseRecord_NestedGenericTotalIgnored(t *testing.T) {
	rec, err := authority.ParseRecord([]byte(`{"itens": {"total": "3"}, "emitente": {"cnpj": "11222333000181"}}`))
	require.NoError(t, err)

	assert.False(t, rec.HasTotalValue)
	assert.Zero(t, rec.TotalValue)
	assert.Equal(t, "11222333000181", rec.IssuerTaxID)
}

func TestParseRecord_NestedSpecificValueBeatsGeneric(t *testing.T) {
	rec, err := authority.ParseRecord([]byte(`{"resumo": {"total": "7"}, "nfe": {"detalhe": {"valorTotal": "45,90"}}}`))
	require.NoError(t, err)

	assert.InDelta(t, 45.90, rec.TotalValue, 1e-9)
}

func TestParseRecord_TopLevelGenericTotal(t *testing.T) {
	rec, err := authority.ParseRecord([]byte(`{"total": "3,50"}`))
	require.NoError(t, err)

	assert.InDelta(t, 3.50, rec.TotalValue, 1e-9)
}

func TestParseRecord_HTML(t *testing.T) {
	page := `<!DOCTYPE html><html><head><style>.x{}</style></head><body>
		<h1>Consulta da NF-e</h1>
		<div><label>Razão Social</label><span>Mercado São José LTDA</span></div>
		<div><label>CNPJ</label><span>11.222.333/0001-81</span></div>
		<div><label>Data de Emissão</label><span>15/06/2020 14:32:10</span></div>
		<div><label>Situação Atual:</label><span>AUTORIZADA</span></div>
		<div><label>Valor Total da Nota</label><span>R$ 1.050,00</span></div>
		</body></html>`

	rec, err := authority.ParseRecord([]byte(page))
	require.NoError(t, err)

	assert.InDelta(t, 1050.0, rec.TotalValue, 1e-9)
	assert.Equal(t, "11222333000181", rec.IssuerTaxID)
	assert.Equal(t, "Mercado Sao Jose LTDA", rec.IssuerName)
	assert.Equal(t, "2020-06-15", rec.IssueDate)
	assert.Equal(t, "AUTORIZADA", rec.Status)
}

func TestParseRecord_PlainText(t *testing.T) {
	rec, err := authority.ParseRecord([]byte("Emitente: Loja X\nTotal: R$ 35,00\n"))
	require.NoError(t, err)

	assert.InDelta(t, 35.0, rec.TotalValue, 1e-9)
	assert.Equal(t, "Loja X", rec.IssuerName)
}

func TestParseRecord_Unusable(t *testing.T) {
	bodies := []string{
		``,
		`{"mensagem": "chave invalida"}`,
		`<html><body><p>Servico indisponivel</p></body></html>`,
		`{"valor_total": "0,00"}`,
	}
	for _, b := range bodies {
		rec, err := authority.ParseRecord([]byte(b))
		assert.Nil(t, rec, b)
		assert.Error(t, err, b)
	}
}
