package crawl

import (
	"github.com/use-agent/sitebrief/config"
	"github.com/use-agent/sitebrief/models"
)

// Limits bounds a single orchestrator run. It is built once and passed by
// value; nothing in this package mutates it.
type Limits struct {
	FreeSubpages int
	ProSubpages  int

	HomepageChars int
	SubpageChars  int
	CombinedChars int

	MaxImages     int
	MaxVideos     int
	MaxColors     int
	MaxDiscovered int

	// DuplicateThreshold is the largest simhash distance at which a subpage
	// counts as a near-duplicate of text already included.
	DuplicateThreshold int
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		FreeSubpages:       2,
		ProSubpages:        5,
		HomepageChars:      15000,
		SubpageChars:       6000,
		CombinedChars:      30000,
		MaxImages:          20,
		MaxVideos:          5,
		MaxColors:          15,
		MaxDiscovered:      50,
		DuplicateThreshold: 3,
	}
}

// LimitsFromConfig converts the env configuration into Limits.
func LimitsFromConfig(cfg config.LimitsConfig) Limits {
	return Limits{
		FreeSubpages:       cfg.FreeSubpages,
		ProSubpages:        cfg.ProSubpages,
		HomepageChars:      cfg.HomepageChars,
		SubpageChars:       cfg.SubpageChars,
		CombinedChars:      cfg.CombinedChars,
		MaxImages:          cfg.MaxImages,
		MaxVideos:          cfg.MaxVideos,
		MaxColors:          cfg.MaxColors,
		MaxDiscovered:      cfg.MaxDiscovered,
		DuplicateThreshold: cfg.DuplicateThreshold,
	}
}

// SubpagesFor returns the subpage cap for tier. Unknown tiers get the free cap.
func (l Limits) SubpagesFor(tier models.Tier) int {
	if tier == models.TierPro {
		return l.ProSubpages
	}
	return l.FreeSubpages
}
