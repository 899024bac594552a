package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("/opt/pricecast")

	assert.Equal(t, "/opt/pricecast", p.ExecutableDir)
	assert.Equal(t, filepath.Join("/opt/pricecast", "data"), p.DataDir)
	assert.Equal(t, filepath.Join("/opt/pricecast", "data", "reports"), p.ReportsDir)
	assert.Equal(t, filepath.Join("/opt/pricecast", "logs"), p.LogsDir)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	p := NewPaths(base)

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestPaths_Resolve(t *testing.T) {
	p := NewPaths("/opt/pricecast")

	assert.Equal(t, filepath.Join("/opt/pricecast", "data", "prices.xlsx"), p.Resolve("data/prices.xlsx"))
	assert.Equal(t, "/var/lib/prices.xlsx", p.Resolve("/var/lib/prices.xlsx"))
	assert.Equal(t, "", p.Resolve(""))
}

func TestPaths_WellKnownFiles(t *testing.T) {
	p := NewPaths("/opt/pricecast")

	assert.Equal(t, filepath.Join("/opt/pricecast", "logs", "run.log"), p.GetLogPath("run.log"))
	assert.Equal(t, filepath.Join("/opt/pricecast", "data", "reports", "forecast.csv"), p.GetReportPath("forecast.csv"))
}
