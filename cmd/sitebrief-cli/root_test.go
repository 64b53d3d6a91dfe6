package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/sitebrief/models"
)

func run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_RequiresURL(t *testing.T) {
	_, err := run("scrape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestCLI_RejectsUnknownTier(t *testing.T) {
	_, err := run("scrape", "--tier", "gold", "acme.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown tier "gold"`)
}

func TestCLI_ScrapeRejectsInadmissibleURL(t *testing.T) {
	out, err := run("scrape", "http://localhost:8080")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalidURL, models.AsError(err).Code)
	assert.Empty(t, out)
}

func TestCLI_GenerateNeedsAPIKey(t *testing.T) {
	t.Setenv("SITEBRIEF_LLM_API_KEY", "")

	_, err := run("generate", "acme.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SITEBRIEF_LLM_API_KEY")
}

func TestParseTier(t *testing.T) {
	tier, err := parseTier("pro")
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, tier)

	_, err = parseTier("")
	assert.Error(t, err)
}
