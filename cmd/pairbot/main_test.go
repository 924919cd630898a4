package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs("KO,PEP; XOM , CVX ")
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"KO", "PEP"}, {"XOM", "CVX"}}, pairs)

	pairs, err = parsePairs("")
	require.NoError(t, err)
	assert.Empty(t, pairs)

	_, err = parsePairs("KO")
	assert.Error(t, err)
	_, err = parsePairs("KO,PEP,XOM")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDate("29/02/2024")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, splitList(" A,,B ,", ","))
	assert.Nil(t, splitList("", ","))
}

func TestLoadConfig_MissingDefaultPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := loadConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Engine.Lookback)

	_, err = loadConfig(path, true)
	assert.Error(t, err)
}
