package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/sitebrief/models"
)

var testBrief = &models.ContentBrief{
	Business: models.BusinessInfo{Name: "Acme Plumbing"},
	Sections: []models.Section{{Title: "About", Content: "Since 1998."}},
}

func TestConsult_Disabled(t *testing.T) {
	d := NewDesigner(nil, 2000)

	guidance, ok := d.Consult(context.Background(), testBrief)

	assert.False(t, d.Enabled())
	assert.False(t, ok)
	assert.Empty(t, guidance)
}

func TestConsult_Success(t *testing.T) {
	gen := script(reply{text: "  Warm, trustworthy palette. Big hero photo of the van.  "})

	guidance, ok := NewDesigner(gen, 2000).Consult(context.Background(), testBrief)

	assert.True(t, ok)
	assert.Equal(t, "Warm, trustworthy palette. Big hero photo of the van.", guidance)
	require.Equal(t, 1, gen.calls())
	assert.Equal(t, designSystemPrompt, gen.requests[0].System)
	assert.Contains(t, gen.requests[0].User, "Acme Plumbing")
	assert.False(t, gen.requests[0].JSON)
}

func TestConsult_FailuresAreSwallowed(t *testing.T) {
	for name, r := range map[string]reply{
		"error": {err: errors.New("connection reset")},
		"empty": {text: "   "},
	} {
		guidance, ok := NewDesigner(script(r), 2000).Consult(context.Background(), testBrief)
		assert.False(t, ok, name)
		assert.Empty(t, guidance, name)
	}
}

func TestConsult_TruncatedGuidanceKept(t *testing.T) {
	gen := script(reply{text: "Use navy and orange; hero with", truncated: true})

	guidance, ok := NewDesigner(gen, 2000).Consult(context.Background(), testBrief)

	assert.True(t, ok)
	assert.Equal(t, "Use navy and orange; hero with", guidance)
}
