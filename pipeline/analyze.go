package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/use-agent/sitebrief/llm"
	"github.com/use-agent/sitebrief/metrics"
	"github.com/use-agent/sitebrief/models"
)

const analysisAttempts = 2

// Analyzer turns an aggregated scrape into a ContentBrief.
type Analyzer struct {
	gen       llm.Generator
	maxTokens int
	metrics   *metrics.Metrics
}

// NewAnalyzer creates an Analyzer. m may be nil.
func NewAnalyzer(gen llm.Generator, maxTokens int, m *metrics.Metrics) *Analyzer {
	return &Analyzer{gen: gen, maxTokens: maxTokens, metrics: m}
}

// Analyze makes up to two attempts. The second runs on trimmed input and
// happens after a truncated response, unparsable JSON, a brief missing its
// required fields, or a failed call. When both fail the error carries the
// last failure's message.
func (a *Analyzer) Analyze(ctx context.Context, agg *models.AggregatedScrapeResult) (*models.ContentBrief, error) {
	full := newAnalysisInput(agg)
	inputs := [analysisAttempts]analysisInput{full, full.trimmed()}

	var lastErr error
	for attempt := 1; attempt <= analysisAttempts; attempt++ {
		in := inputs[attempt-1]
		brief, err := a.attempt(ctx, in)
		if err == nil {
			a.metrics.AnalysisAttempt(attempt, "ok")
			return brief, nil
		}
		lastErr = err
		a.metrics.AnalysisAttempt(attempt, attemptResult(err))
		slog.Warn("content analysis attempt failed",
			"url", agg.URL,
			"attempt", attempt,
			"input_chars", in.size(),
			"error", err,
		)
	}
	return nil, models.NewError(models.KindAnalysis, models.ErrCodeAnalysisFailed, lastErr.Error(), lastErr)
}

func (a *Analyzer) attempt(ctx context.Context, in analysisInput) (*models.ContentBrief, error) {
	resp, err := a.gen.Generate(ctx, &llm.Request{
		System:    analysisSystemPrompt,
		User:      analysisPrompt(in),
		MaxTokens: a.maxTokens,
		JSON:      true,
	})
	if err != nil {
		return nil, err
	}
	if resp.Truncated {
		return nil, errTruncated
	}

	doc, err := decodeDocument(resp.Text)
	if err != nil {
		return nil, err
	}
	if err := validateBrief(doc); err != nil {
		return nil, err
	}

	var brief models.ContentBrief
	if err := decodeInto(doc, &brief); err != nil {
		return nil, &briefError{msg: "brief has invalid field types: " + err.Error()}
	}
	resolveImages(&brief, in.Images)
	return &brief, nil
}

// briefError marks a response that parsed but does not form a valid brief.
type briefError struct{ msg string }

func (e *briefError) Error() string { return e.msg }

// validateBrief checks the required fields on the untyped document.
func validateBrief(doc map[string]any) error {
	if str(object(doc, "business"), "name") == "" {
		return &briefError{msg: "brief is missing business.name"}
	}
	sections := array(doc, "sections")
	if len(sections) == 0 {
		return &briefError{msg: "brief has no content sections"}
	}
	for _, s := range sections {
		if _, ok := s.(map[string]any); !ok {
			return &briefError{msg: "brief sections must be objects"}
		}
	}
	return nil
}

// resolveImages fills catalog URLs from the indices the model referenced
// and drops entries pointing outside the catalog.
func resolveImages(brief *models.ContentBrief, catalog []catalogImage) {
	byIndex := make(map[int]string, len(catalog))
	for _, img := range catalog {
		byIndex[img.Index] = img.URL
	}
	kept := brief.Images[:0]
	for _, img := range brief.Images {
		u, ok := byIndex[img.Index]
		if !ok {
			continue
		}
		img.URL = u
		kept = append(kept, img)
	}
	brief.Images = kept
}

func attemptResult(err error) string {
	var (
		be *briefError
		me *models.Error
	)
	switch {
	case errors.Is(err, errTruncated):
		return "truncated"
	case errors.Is(err, errEmpty):
		return "empty"
	case errors.As(err, &be):
		return "invalid_brief"
	case errors.As(err, &me):
		return "llm_error"
	default:
		return "invalid_json"
	}
}
