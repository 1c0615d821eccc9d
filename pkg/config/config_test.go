package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, DefaultWatchlist, c.Screening.Watchlist)
	assert.Len(t, c.Screening.Watchlist, 18)
	assert.Equal(t, 5, c.Screening.TopN)
	assert.Equal(t, 60, c.Screening.LookbackBars)
	assert.Equal(t, 20*time.Second, c.Screening.Timeout)
	assert.Equal(t, "http", c.Market.Provider)
	assert.Equal(t, "none", c.Earnings.Provider)
}

func TestParseOverrides(t *testing.T) {
	c, err := Parse([]byte(`
screening:
  watchlist: [AAPL, TSLA]
  top_n: 3
  concurrency: 2
market:
  provider: csv
  data_dir: /tmp/bars
  cache:
    backend: none
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "TSLA"}, c.Screening.Watchlist)
	assert.Equal(t, 3, c.Screening.TopN)
	assert.Equal(t, 2, c.Screening.Concurrency)
	assert.Equal(t, "csv", c.Market.Provider)
	assert.Equal(t, "none", c.Market.Cache.Backend)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"negative top_n":    "screening:\n  top_n: -1\n",
		"unknown provider":  "market:\n  provider: ftp\n",
		"csv without dir":   "market:\n  provider: csv\n",
		"bad cache backend": "market:\n  cache:\n    backend: disk\n",
		"html without verb": "earnings:\n  provider: html\n  url_template: https://x\n",
		"kafka w/o brokers": "kafka:\n  enabled: true\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnvMissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("WATCHLIST", "AMD,NVDA")
	t.Setenv("TOP_N", "2")

	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"AMD", "NVDA"}, c.Screening.Watchlist)
	assert.Equal(t, 2, c.Screening.TopN)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("screening:\n  top_n: 7\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Screening.TopN)
}
