package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const receiptKey = "35200611222333000181550010000001231234567891"

func TestRun_ExtractOnly(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("CNPJ 11.222.333/0001-81\nChave de acesso: " + receiptKey)

	err := run(context.Background(), &options{extractOnly: true}, in, &out)

	require.NoError(t, err)
	var report extractionReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, receiptKey, report.Key)
	assert.Equal(t, "labeled", string(report.Strategy))
	require.NotNil(t, report.Structure)
	assert.Equal(t, 35, report.Structure.Region)
	assert.Equal(t, []string{"11222333000181"}, report.TaxIDs)
}

func TestRun_ValidatesAgainstRegistry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valorTotal":"153,87","cnpjEmitente":"11222333000181","situacao":"Autorizada"}`))
	}))
	defer srv.Close()

	t.Setenv("FIDELIS_RESOLVER_PRIMARY_URL", srv.URL+"/nfe?chave={key}")
	t.Setenv("FIDELIS_RESOLVER_SECONDARY_URL", "")
	t.Setenv("FIDELIS_RESOLVER_TERTIARY_URL", "")
	t.Setenv("FIDELIS_RESOLVER_PROXY_URL", "")

	var out bytes.Buffer
	err := run(context.Background(), &options{total: "R$ 150,00"}, strings.NewReader("chave de acesso "+receiptKey), &out)

	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "authority-key", result["validation_type"])
}

func TestRun_InvalidTotal(t *testing.T) {
	err := run(context.Background(), &options{total: "abc"}, strings.NewReader("texto"), &bytes.Buffer{})

	assert.ErrorContains(t, err, "invalid -total")
}
