package crawl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/sitebrief/models"
)

func TestScore(t *testing.T) {
	tests := []struct {
		link string
		want int
	}{
		{"https://acme.com/about", 8},
		{"https://acme.com/pricing", 8},
		{"https://acme.com/our-team/contact", 16},
		{"https://acme.com/blog/2020/01/post", -8},
		{"/services", 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Score(tt.link), tt.link)
	}
}

func TestPrioritize_KeywordsOutrankPlainLinks(t *testing.T) {
	links := []string{
		"https://acme.com/xyzzy",
		"https://acme.com/about-team-services",
	}
	got := Prioritize(links, 2)
	assert.Equal(t, []string{"https://acme.com/about-team-services", "https://acme.com/xyzzy"}, got)
}

func TestPrioritize_ShallowBeatsDeep(t *testing.T) {
	links := []string{
		"https://acme.com/a/b/c/about",
		"https://acme.com/about",
	}
	got := Prioritize(links, 1)
	assert.Equal(t, []string{"https://acme.com/about"}, got)
}

func TestPrioritize_TiesKeepDiscoveryOrder(t *testing.T) {
	links := []string{
		"https://acme.com/x",
		"https://acme.com/y",
		"https://acme.com/z",
	}
	assert.Equal(t, links, Prioritize(links, 5))
}

func TestPrioritize_Deterministic(t *testing.T) {
	links := []string{
		"https://acme.com/gallery",
		"https://acme.com/contact",
		"https://acme.com/news/today",
		"https://acme.com/faq",
		"https://acme.com/menu",
	}
	first := Prioritize(links, 3)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Prioritize(links, 3))
	}
	assert.Equal(t, []string{
		"https://acme.com/gallery",
		"https://acme.com/contact",
		"https://acme.com/faq",
	}, first)
}

func TestPrioritize_ZeroCap(t *testing.T) {
	assert.Equal(t, []string{}, Prioritize([]string{"https://acme.com/about"}, 0))
}

func TestRank_KeepsOrder(t *testing.T) {
	ranked := Rank([]string{"https://acme.com/x", "https://acme.com/about"})
	assert.Equal(t, PrioritizedLink{URL: "https://acme.com/about", Score: 8, Order: 1}, ranked[0])
	assert.Equal(t, 0, ranked[1].Order)
}

func TestLimits_SubpagesFor(t *testing.T) {
	l := DefaultLimits()
	assert.Equal(t, 2, l.SubpagesFor(models.TierFree))
	assert.Equal(t, 5, l.SubpagesFor(models.TierPro))
	assert.Equal(t, 2, l.SubpagesFor("enterprise"))
}

func TestFingerprint(t *testing.T) {
	a := "the quick brown fox jumps over the lazy dog"
	assert.Equal(t, fingerprint(a), fingerprint("The Quick  brown fox jumps over the lazy dog"))
	assert.Equal(t, uint64(0), fingerprint("   "))
	assert.Greater(t, distance(fingerprint(a), fingerprint("completely unrelated content about quantum physics and mathematics")), 3)
}
