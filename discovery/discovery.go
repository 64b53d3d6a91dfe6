// Package discovery finds same-site page URLs beyond the links on the
// homepage. Every Mapper is best-effort: callers treat errors as "nothing
// found".
package discovery

import (
	"context"
	"errors"
	"log/slog"
)

// Mapper returns URLs belonging to the site at siteURL.
type Mapper interface {
	Map(ctx context.Context, siteURL string) ([]string, error)
}

// Multi queries each mapper in turn and returns the union of their results
// in first-seen order. It fails only when every mapper fails.
type Multi []Mapper

func (m Multi) Map(ctx context.Context, siteURL string) ([]string, error) {
	seen := make(map[string]struct{})
	var (
		out  []string
		errs []error
	)
	for _, mapper := range m {
		urls, err := mapper.Map(ctx, siteURL)
		if err != nil {
			slog.Debug("site map source failed", "url", siteURL, "error", err)
			errs = append(errs, err)
			continue
		}
		for _, u := range urls {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	if len(m) > 0 && len(errs) == len(m) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
