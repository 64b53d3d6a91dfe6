package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const imagesFixture = `<html><head>
<link rel="icon" href="/favicon.ico">
<meta property="og:image" content="https://acme.com/og.jpg">
</head>
<body style="background-image: url('https://acme.com/img/hero-bg.jpg')">
<img src="https://acme.com/img/team.jpg" alt="Team">
<img data-src="//cdn.acme.com/lazy.webp">
<img src="/img/van.png">
<img srcset="https://acme.com/img/small.jpg 480w, https://acme.com/img/large.jpg 1080w">
<img src="https://acme.com/favicon.png">
<img src="https://acme.com/img/spacer.gif">
<img src="data:image/gif;base64,R0lGODlhAQABAAAAACw=">
<img src="https://acme.com/icons/arrow.svg">
<img src="https://acme.com/brand/logo.svg">
<img src="https://static.wixstatic.com/media/abc123~mv2.jpg/v1/fill/w_120,h_80,al_c/abc123~mv2.jpg">
<img src="https://static.wixstatic.com/media/def456~mv2.jpg/v1/fill/w_640,h_480,al_c/def456~mv2.jpg">
<img src="https://px.example.net/1x1.gif">
<div data-bg="https://acme.com/img/parallax.jpg" data-image='{"lazy":true}'></div>
</body></html>`

func TestImages_Sources(t *testing.T) {
	got := Images(imagesFixture, "https://acme.com")

	for _, want := range []string{
		"https://acme.com/img/team.jpg",
		"https://cdn.acme.com/lazy.webp",
		"https://acme.com/img/van.png",
		"https://acme.com/img/small.jpg",
		"https://acme.com/img/hero-bg.jpg",
		"https://acme.com/og.jpg",
		"https://acme.com/brand/logo.svg",
		"https://acme.com/img/parallax.jpg",
		"https://static.wixstatic.com/media/def456~mv2.jpg/v1/fill/w_640,h_480,al_c/def456~mv2.jpg",
	} {
		assert.Contains(t, got, want)
	}
}

func TestImages_FilterInvariant(t *testing.T) {
	got := Images(imagesFixture, "https://acme.com")

	for _, u := range got {
		lower := strings.ToLower(u)
		assert.False(t, strings.HasPrefix(lower, "data:"), u)
		assert.NotContains(t, lower, "favicon")
		assert.NotContains(t, lower, "spacer")
		assert.NotContains(t, lower, "1x1")
		if strings.HasSuffix(lower, ".svg") {
			assert.Contains(t, lower, "logo")
		}
	}
	assert.NotContains(t, got, "https://acme.com/icons/arrow.svg")
	assert.NotContains(t, got,
		"https://static.wixstatic.com/media/abc123~mv2.jpg/v1/fill/w_120,h_80,al_c/abc123~mv2.jpg")
}

func TestImages_DedupeKeepsFirstSeen(t *testing.T) {
	md := "![a](https://x.com/1.jpg) text ![b](https://x.com/2.jpg) ![a again](https://x.com/1.jpg)"

	assert.Equal(t, []string{"https://x.com/1.jpg", "https://x.com/2.jpg"}, Images(md, ""))
}

func TestImages_RelativeNeedsOrigin(t *testing.T) {
	html := `<img src="/img/van.png"><img src="//cdn.acme.com/a.jpg">`

	assert.Equal(t, []string{"https://cdn.acme.com/a.jpg"}, Images(html, ""))
	assert.Equal(t,
		[]string{"https://acme.com/img/van.png", "https://cdn.acme.com/a.jpg"},
		Images(html, "https://acme.com"))
}

func TestImages_Empty(t *testing.T) {
	assert.Empty(t, Images("", ""))
	assert.Empty(t, Images("just some words", "https://acme.com"))
}
