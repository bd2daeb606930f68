package chunker

import "strings"

// EstimateTokens gives a rough token count using the ~1.33 tokens/word
// heuristic. Markup syntax ("#", "-") counts as a word of its own.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 && len(text) > 0 {
		tokens = 1
	}
	return tokens
}

// EstimateChunkTokens sums EstimateTokens over every chunk line.
func EstimateChunkTokens(r Result) int {
	total := 0
	for _, c := range r.Chunks {
		total += EstimateTokens(c.Content)
	}
	return total
}
