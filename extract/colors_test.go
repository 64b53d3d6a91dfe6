package extract

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/sitebrief/models"
)

func TestColors_CountsAndRanks(t *testing.T) {
	css := `<style>
body { color: #333333; background-color: #FFFFFF; }
.btn { background: #1E90FF; border: 1px solid #1e90ff; }
.accent { color: #f60; }
:root { --brand: #1e90ff; --muted: #999; }
.hero { background: rgba(255, 102, 0, 0.8); }
svg path { fill: #228B22; }
</style>`

	got := Colors(css)

	assert.Equal(t, []models.RankedColor{
		{Hex: "#1e90ff", Count: 3},
		{Hex: "#ff6600", Count: 2},
		{Hex: "#228b22", Count: 1},
	}, got)
}

func TestColors_EveryColourInDeclaration(t *testing.T) {
	css := `.hero { background: linear-gradient(90deg, #ff0000, #00ff00); }
.cta { border: 2px solid #00ff00; }`

	got := Colors(css)

	assert.Equal(t, []models.RankedColor{
		{Hex: "#00ff00", Count: 2},
		{Hex: "#ff0000", Count: 1},
	}, got)
}

func TestColors_SortedAndCapped(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		decl := fmt.Sprintf(".c%d { color: #%02x0080; }\n", i, 0x20+i*8)
		b.WriteString(strings.Repeat(decl, i+1))
	}

	got := Colors(b.String())

	require.Len(t, got, MaxColors)
	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
		return got[i].Count > got[j].Count
	}))
	assert.Equal(t, models.RankedColor{Hex: "#b80080", Count: 20}, got[0])
}

func TestColors_NoBoringColors(t *testing.T) {
	css := `a { color: #000; background: #fff; border-color: #808080; }
b { color: #f5f5f5; fill: #0a0a0a; stroke: rgb(250, 245, 242); }
c { color: #2a9d8f; }`

	got := Colors(css)

	require.Len(t, got, 1)
	assert.Equal(t, "#2a9d8f", got[0].Hex)
	for _, c := range got {
		var r, g, bl int
		_, err := fmt.Sscanf(c.Hex, "#%02x%02x%02x", &r, &g, &bl)
		require.NoError(t, err)
		assert.False(t, IsBoring(r, g, bl), c.Hex)
	}
}

func TestIsBoring(t *testing.T) {
	assert.True(t, IsBoring(0, 0, 0))
	assert.True(t, IsBoring(255, 255, 255))
	assert.True(t, IsBoring(128, 128, 135))
	assert.True(t, IsBoring(10, 0, 15))
	assert.False(t, IsBoring(30, 144, 255))
	assert.False(t, IsBoring(255, 230, 200))
}

func TestRankColors_StableTies(t *testing.T) {
	in := []models.RankedColor{
		{Hex: "#aa0000", Count: 1},
		{Hex: "#00aa00", Count: 2},
		{Hex: "#0000aa", Count: 1},
	}

	got := RankColors(in, 2)

	assert.Equal(t, []models.RankedColor{
		{Hex: "#00aa00", Count: 2},
		{Hex: "#aa0000", Count: 1},
	}, got)
	assert.Equal(t, "#aa0000", in[0].Hex, "input must not be reordered")
}
