package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/use-agent/sitebrief/models"
)

// MaxColors is the number of colours Colors returns at most.
const MaxColors = 15

var (
	colorDeclRe  = regexp.MustCompile(`(?i)(?:^|[\s;{"'])(?:color|background(?:-color)?|border(?:-(?:top|right|bottom|left))?(?:-color)?|fill|stroke)\s*:\s*([^;}"'<>]*)`)
	hexRe        = regexp.MustCompile(`(?i)#[0-9a-f]{6}\b|#[0-9a-f]{3}\b`)
	customPropRe = regexp.MustCompile(`(?i)--[\w-]+\s*:\s*(#[0-9a-f]{6}|#[0-9a-f]{3})\b`)
	rgbRe        = regexp.MustCompile(`(?i)rgba?\(\s*(\d{1,3})[\s,]+(\d{1,3})[\s,]+(\d{1,3})`)
)

// Colors counts the brand-relevant colours declared in raw and returns at
// most MaxColors of them, most frequent first. Ties keep first-seen order.
// Near-black, near-white and grey values are left out.
func Colors(raw string) []models.RankedColor {
	counts := make(map[string]int)
	var order []string
	add := func(hex string) {
		if hex == "" {
			return
		}
		if _, ok := counts[hex]; !ok {
			order = append(order, hex)
		}
		counts[hex]++
	}

	// A declaration such as a gradient may carry several colours.
	for _, m := range colorDeclRe.FindAllStringSubmatch(raw, -1) {
		for _, hex := range hexRe.FindAllString(m[1], -1) {
			add(normalizeHex(hex))
		}
	}
	for _, m := range customPropRe.FindAllStringSubmatch(raw, -1) {
		add(normalizeHex(m[1]))
	}
	for _, m := range rgbRe.FindAllStringSubmatch(raw, -1) {
		add(rgbToHex(m[1], m[2], m[3]))
	}

	ranked := make([]models.RankedColor, 0, len(order))
	for _, hex := range order {
		ranked = append(ranked, models.RankedColor{Hex: hex, Count: counts[hex]})
	}
	return RankColors(ranked, MaxColors)
}

// RankColors sorts colours by count, highest first, keeping input order for
// ties, and truncates to limit.
func RankColors(colors []models.RankedColor, limit int) []models.RankedColor {
	sorted := make([]models.RankedColor, len(colors))
	copy(sorted, colors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// normalizeHex expands "#abc" to "#aabbcc", lower-cases, and returns "" for
// boring colours.
func normalizeHex(h string) string {
	h = strings.ToLower(strings.TrimPrefix(h, "#"))
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return ""
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return ""
	}
	if IsBoring(int(v>>16), int(v>>8&0xff), int(v&0xff)) {
		return ""
	}
	return "#" + h
}

func rgbToHex(rs, gs, bs string) string {
	r, err1 := strconv.Atoi(rs)
	g, err2 := strconv.Atoi(gs)
	b, err3 := strconv.Atoi(bs)
	if err1 != nil || err2 != nil || err3 != nil || r > 255 || g > 255 || b > 255 {
		return ""
	}
	if IsBoring(r, g, b) {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// IsBoring reports whether a colour is too neutral to say anything about a
// brand: channel spread below 16, or every channel at least 240, or every
// channel at most 15.
func IsBoring(r, g, b int) bool {
	hi := max(r, g, b)
	lo := min(r, g, b)
	if hi-lo < 16 {
		return true
	}
	if lo >= 240 {
		return true
	}
	return hi <= 15
}
