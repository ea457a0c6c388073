// Package tokens provides a content-aware character-to-token heuristic
// used for chunk accounting and context budgeting. It is an estimate, not
// a tokenizer; ratios are calibrated against common embedding tokenizers.
package tokens

import (
	"math"

	"github.com/markdave123-py/Archiva/internal/models"
)

const (
	charsPerTokenProse = 4.0
	charsPerTokenCode  = 3.5
	charsPerTokenTable = 3.0
	charsPerTokenCJK   = 1.5
)

// Estimate returns the approximate token count for text. Empty input
// yields 0, and for a fixed chunk type the estimate is non-decreasing in
// text length: every rune contributes its own fractional token cost (CJK
// runes at the dense CJK ratio, everything else at the chunk type's
// ratio), so appending text can only grow the sum before the ceiling.
func Estimate(text string, chunkType models.ChunkType) int {
	if text == "" {
		return 0
	}

	ratio := charsPerTokenProse
	switch chunkType {
	case models.ChunkTypeCode:
		ratio = charsPerTokenCode
	case models.ChunkTypeTable, models.ChunkTypeMetadata:
		ratio = charsPerTokenTable
	}

	var cjk, other int
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
	}
	return int(math.Ceil(float64(cjk)/charsPerTokenCJK + float64(other)/ratio))
}

func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
		return true
	case r >= 0x3400 && r <= 0x4DBF: // CJK Extension A
		return true
	case r >= 0x3040 && r <= 0x30FF: // Hiragana + Katakana
		return true
	case r >= 0xAC00 && r <= 0xD7AF: // Hangul Syllables
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK Symbols and Punctuation
		return true
	case r >= 0xFF00 && r <= 0xFFEF: // Halfwidth and Fullwidth Forms
		return true
	}
	return false
}
