package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/markdave123-py/Archiva/internal/models"
)

func TestEstimateEmpty(t *testing.T) {
	assert.Equal(t, 0, Estimate("", models.ChunkTypeText))
}

func TestEstimateProseRatio(t *testing.T) {
	// 400 ASCII chars at 4 chars/token.
	text := strings.Repeat("word ", 80)
	assert.Equal(t, 100, Estimate(text, models.ChunkTypeText))
}

func TestEstimateRoundsUp(t *testing.T) {
	// 5 chars / 4 -> ceil 2.
	assert.Equal(t, 2, Estimate("abcde", models.ChunkTypeText))
	assert.Equal(t, 1, Estimate("a", models.ChunkTypeText))
}

func TestEstimateChunkTypeRatios(t *testing.T) {
	text := strings.Repeat("x", 420)
	prose := Estimate(text, models.ChunkTypeText)
	code := Estimate(text, models.ChunkTypeCode)
	table := Estimate(text, models.ChunkTypeTable)
	meta := Estimate(text, models.ChunkTypeMetadata)

	assert.Equal(t, 105, prose) // 420/4.0
	assert.Equal(t, 120, code)  // 420/3.5
	assert.Equal(t, 140, table) // 420/3.0
	assert.Equal(t, table, meta)
	assert.Greater(t, code, prose)
	assert.Greater(t, table, code)
}

func TestEstimateHeadingUsesProse(t *testing.T) {
	text := strings.Repeat("h", 40)
	assert.Equal(t, Estimate(text, models.ChunkTypeText), Estimate(text, models.ChunkTypeHeading))
}

func TestEstimateCJKBlend(t *testing.T) {
	// 100% CJK: ratio is exactly 1.5 chars/token.
	cjk := strings.Repeat("語", 300)
	assert.Equal(t, 200, Estimate(cjk, models.ChunkTypeText))

	// CJK-heavy text estimates far more tokens per char than ASCII prose.
	ascii := strings.Repeat("a", 300)
	assert.Greater(t, Estimate(cjk, models.ChunkTypeText), Estimate(ascii, models.ChunkTypeText))
}

func TestEstimateMixedScript(t *testing.T) {
	// Each script is costed at its own ratio: ceil(10/1.5 + 90/4.0) = 30.
	text := strings.Repeat("字", 10) + strings.Repeat("a", 90)
	assert.Equal(t, 30, Estimate(text, models.ChunkTypeText))
}

func TestEstimateMonotonic(t *testing.T) {
	prev := 0
	for _, n := range []int{10, 50, 100, 500, 2000} {
		got := Estimate(strings.Repeat("a", n), models.ChunkTypeText)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestEstimateMonotonicMixedScript(t *testing.T) {
	// Appending text of any script must never shrink the estimate, even
	// when it dilutes a CJK-dominant string.
	base := strings.Repeat("語", 400)
	prev := Estimate(base, models.ChunkTypeText)
	for _, suffix := range []string{"a", "ab", "ab hello", "ab hello world", strings.Repeat("z", 200)} {
		got := Estimate(base+suffix, models.ChunkTypeText)
		assert.GreaterOrEqual(t, got, prev, "suffix %q", suffix)
	}

	// And the reverse direction: growing CJK appended to ASCII prose.
	asciiBase := strings.Repeat("a", 100)
	prev = Estimate(asciiBase, models.ChunkTypeText)
	for n := 1; n <= 60; n += 7 {
		got := Estimate(asciiBase+strings.Repeat("字", n), models.ChunkTypeText)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}
