package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	got, err := ParseDate("2024-01-02")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = ParseDate("2024-01-02T15:04:05Z")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	ts := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC).Unix()
	got, err = ParseDate(strconv.FormatInt(ts, 10))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := ParseDate("02/01/2024")
	assert.Error(t, err)
	_, err = ParseDate("  ")
	assert.Error(t, err)
}

func TestParseDateDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	got, err := ParseDateDefault("", def)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	_, err = ParseDateDefault("nope", def)
	assert.Error(t, err)
}

func TestNormalizePair(t *testing.T) {
	assert.Equal(t, "EURUSD", NormalizePair("eur/usd"))
	assert.Equal(t, "GBPJPY", NormalizePair(" gbp-jpy"))
	assert.Equal(t, "USDCHF", NormalizePair("USDCHF"))
}
