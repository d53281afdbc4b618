package nfe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fidelis/internal/nfe"
)

func TestNextSequenceKeys(t *testing.T) {
	keys := nfe.NextSequenceKeys(validKey, 2)

	require.Len(t, keys, 2)
	assert.Equal(t, "35200611222333000181550010000001241234567899", keys[0])
	assert.Equal(t, "35200611222333000181550010000001251234567896", keys[1])
	for _, k := range keys {
		ks, err := nfe.ValidateStructureAt(k, fixedNow)
		require.NoError(t, err)
		assert.True(t, ks.CheckDigitValid)
	}
}

func TestNextSequenceKeys_Bounds(t *testing.T) {
	assert.Nil(t, nfe.NextSequenceKeys("123", 5))
	assert.Nil(t, nfe.NextSequenceKeys(validKey, 0))

	last := validKey[:25] + "999999998" + validKey[34:]
	assert.Len(t, nfe.NextSequenceKeys(last, 5), 1, "invoice number must not overflow its field")
}

func TestCompleteKeys(t *testing.T) {
	text := "documento auxiliar " + validKey[:43] + " consulte"

	keys := nfe.CompleteKeys(text, 5, fixedNow)

	assert.Equal(t, []string{validKey}, keys)
}

func TestCompleteKeys_Rejects(t *testing.T) {
	assert.Empty(t, nfe.CompleteKeys("run "+validKey+" is already complete", 5, fixedNow))
	assert.Empty(t, nfe.CompleteKeys("bad region "+withPrefix("99")[:43], 5, fixedNow))
	assert.Empty(t, nfe.CompleteKeys(validKey[:43], 0, fixedNow))
}
