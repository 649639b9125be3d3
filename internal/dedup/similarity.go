// Package dedup provides duplicate-event detection for the Event Hub service:
// fuzzy string similarity, date-proximity checks, weighted candidate scoring,
// and a debounced checker that bridges a live-editing draft to the event store.
package dedup

import "strings"

// Fixed similarity constants. Containment is a strong but not perfect signal
// (e.g. "Kyiv" vs "Kyiv strike"), so it scores below an exact match. A word
// overlap above half maps into the band just below containment.
const (
	containmentScore  = 0.8
	wordOverlapCutoff = 0.5
	wordOverlapBase   = 0.6
	wordOverlapScale  = 0.2
)

// Similarity computes a normalized similarity score in [0, 1] between two
// free-text strings. Comparison is case-insensitive with surrounding
// whitespace trimmed. The branches are evaluated in strict precedence order
// and the first matching rule wins:
//
//  1. Identical strings score 1.0.
//  2. Either string empty scores 0.0.
//  3. Substring containment scores the fixed 0.8.
//  4. Word-overlap Dice above 0.5 maps to (0.7, 0.8].
//  5. Otherwise the character-bigram Dice coefficient is returned directly.
//
// The function is deterministic, side-effect-free, and symmetric in its
// arguments.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return containmentScore
	}

	if overlap := wordOverlap(a, b); overlap > wordOverlapCutoff {
		return wordOverlapBase + overlap*wordOverlapScale
	}

	return bigramSimilarity(a, b)
}

// wordOverlap computes the Dice coefficient over whitespace-separated words:
// 2*|common| / (|wordsA| + |wordsB|). Duplicate words are counted by list
// membership, not set deduplication. Words shorter than three runes carry no
// signal (stopwords like "in" would otherwise pull unrelated titles over the
// cutoff) and are dropped before counting.
func wordOverlap(a, b string) float64 {
	wordsA := significantWords(a)
	wordsB := significantWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	inB := make(map[string]int, len(wordsB))
	for _, w := range wordsB {
		inB[w]++
	}

	var common int
	for _, w := range wordsA {
		if inB[w] > 0 {
			inB[w]--
			common++
		}
	}

	return 2 * float64(common) / float64(len(wordsA)+len(wordsB))
}

// significantWords splits s on whitespace and keeps words of at least three
// runes.
func significantWords(s string) []string {
	fields := strings.Fields(s)
	words := fields[:0]
	for _, w := range fields {
		if len([]rune(w)) >= 3 {
			words = append(words, w)
		}
	}
	return words
}

// bigramSimilarity computes the Dice coefficient over overlapping two-rune
// windows. Single-rune strings produce zero bigrams on that side; when either
// side has none the similarity is defined as 0 to avoid division by zero.
func bigramSimilarity(a, b string) float64 {
	bigramsA := bigrams(a)
	bigramsB := bigrams(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0
	}

	counts := make(map[string]int, len(bigramsB))
	for _, g := range bigramsB {
		counts[g]++
	}

	var common int
	for _, g := range bigramsA {
		if counts[g] > 0 {
			counts[g]--
			common++
		}
	}

	return 2 * float64(common) / float64(len(bigramsA)+len(bigramsB))
}

// bigrams returns all overlapping two-rune windows of s.
func bigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}
	grams := make([]string, 0, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		grams = append(grams, string(runes[i:i+2]))
	}
	return grams
}
