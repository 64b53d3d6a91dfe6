package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/use-agent/sitebrief/llm"
	"github.com/use-agent/sitebrief/models"
)

// Designer asks a secondary AI service for creative direction. It never
// fails a run: every problem is logged and reported as "no guidance".
type Designer struct {
	gen       llm.Generator
	maxTokens int
}

// NewDesigner creates a Designer. A nil gen disables consultation.
func NewDesigner(gen llm.Generator, maxTokens int) *Designer {
	return &Designer{gen: gen, maxTokens: maxTokens}
}

// Enabled reports whether Consult will call the service.
func (d *Designer) Enabled() bool {
	return d != nil && d.gen != nil
}

// Consult returns design guidance for brief, or ("", false).
func (d *Designer) Consult(ctx context.Context, brief *models.ContentBrief) (string, bool) {
	if !d.Enabled() {
		return "", false
	}

	payload, err := json.MarshalIndent(brief, "", "  ")
	if err != nil {
		slog.Warn("design consultation skipped", "error", err)
		return "", false
	}

	resp, err := d.gen.Generate(ctx, &llm.Request{
		System:      designSystemPrompt,
		User:        "Content brief:\n\n" + string(payload),
		MaxTokens:   d.maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		slog.Warn("design consultation failed", "business", brief.Business.Name, "error", err)
		return "", false
	}

	guidance := strings.TrimSpace(resp.Text)
	if guidance == "" {
		slog.Warn("design consultation returned no guidance", "business", brief.Business.Name)
		return "", false
	}
	if resp.Truncated {
		slog.Debug("design guidance truncated, using partial text", "business", brief.Business.Name)
	}
	return guidance, true
}
