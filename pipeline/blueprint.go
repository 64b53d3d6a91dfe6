package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/use-agent/sitebrief/llm"
	"github.com/use-agent/sitebrief/models"
)

// BlueprintGenerator turns a brief into a Blueprint with a single call.
// Unlike analysis there is no retry: a malformed blueprint cannot be
// rendered, so any defect fails the stage.
type BlueprintGenerator struct {
	gen       llm.Generator
	maxTokens int
}

func NewBlueprintGenerator(gen llm.Generator, maxTokens int) *BlueprintGenerator {
	return &BlueprintGenerator{gen: gen, maxTokens: maxTokens}
}

// Generate produces the blueprint and attaches discovered as its
// DiscoveredURLs. guidance, when non-empty, is passed on as authoritative
// creative direction.
func (g *BlueprintGenerator) Generate(ctx context.Context, brief *models.ContentBrief, guidance string, discovered []string) (*models.Blueprint, error) {
	payload, err := json.MarshalIndent(brief, "", "  ")
	if err != nil {
		return nil, generationError("cannot encode brief", err)
	}

	var user strings.Builder
	user.WriteString("Content brief:\n\n")
	user.Write(payload)
	if guidance != "" {
		user.WriteString("\n\n")
		user.WriteString(guidanceHeading)
		user.WriteString(guidance)
	}

	resp, err := g.gen.Generate(ctx, &llm.Request{
		System:    blueprintSystemPrompt,
		User:      user.String(),
		MaxTokens: g.maxTokens,
		JSON:      true,
	})
	if err != nil {
		return nil, generationError("blueprint generation call failed", err)
	}
	if resp.Truncated {
		return nil, generationError(errTruncated.Error(), nil)
	}

	doc, err := decodeDocument(resp.Text)
	if err != nil {
		return nil, generationError(err.Error(), err)
	}
	bp, err := parseBlueprint(doc)
	if err != nil {
		return nil, generationError(err.Error(), err)
	}

	bp.DiscoveredURLs = append([]string{}, discovered...)
	return bp, nil
}

// parseBlueprint validates the document and builds the matching variant.
// A niche template with niche data takes precedence over a block layout.
func parseBlueprint(doc map[string]any) (*models.Blueprint, error) {
	var scheme models.ColorScheme
	rawScheme := object(doc, "colorScheme")
	if rawScheme == nil {
		return nil, errors.New("blueprint is missing colorScheme")
	}
	if err := decodeInto(rawScheme, &scheme); err != nil || strings.TrimSpace(scheme.Primary) == "" {
		return nil, errors.New("blueprint colorScheme has no primary colour")
	}

	var bp *models.Blueprint
	template := str(doc, "template")
	nicheData := object(doc, "nicheData")
	switch {
	case template != "" && len(nicheData) > 0:
		bp = models.NewNicheBlueprint(template, nicheData, scheme)
	case len(array(doc, "layout")) > 0:
		var blocks []models.Block
		if err := decodeInto(doc["layout"], &blocks); err != nil {
			return nil, fmt.Errorf("blueprint layout is malformed: %w", err)
		}
		for i, b := range blocks {
			if strings.TrimSpace(b.Type) == "" {
				return nil, fmt.Errorf("blueprint layout block %d has no type", i)
			}
		}
		bp = models.NewBlockBlueprint(blocks, scheme)
	default:
		return nil, errors.New("blueprint has neither a niche template with data nor a non-empty layout")
	}

	if meta := object(doc, "meta"); meta != nil {
		var m models.SiteMeta
		if err := decodeInto(meta, &m); err == nil {
			bp.Meta = &m
		}
	}
	return bp, nil
}

func generationError(msg string, err error) *models.Error {
	return models.NewError(models.KindGeneration, models.ErrCodeGenerationFailed, msg, err)
}
