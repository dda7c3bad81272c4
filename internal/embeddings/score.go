package embeddings

import "strings"

// Weights balances keyword and semantic relevance in hybrid search
type Weights struct {
	Keyword  float64
	Semantic float64
}

// KeywordScore counts query word occurrences in body, with a bonus for words
// that appear in title.
func KeywordScore(queryWords []string, title, body string) int {
	title = strings.ToLower(title)
	haystack := title + " " + strings.ToLower(body)

	score := 0
	for _, word := range queryWords {
		word = strings.ToLower(word)
		if word == "" {
			continue
		}
		score += strings.Count(haystack, word) * 10
		if strings.Contains(title, word) {
			score += 50
		}
	}
	return score
}

// SemanticScore maps a cosine similarity from [-1, 1] onto [0, 100]
func SemanticScore(similarity float64) float64 {
	return (similarity + 1) * 50
}

// Combine returns the hybrid score. Without a semantic score it is the raw
// keyword score.
func Combine(keyword int, semantic float64, hasSemantic bool, w Weights) float64 {
	if !hasSemantic {
		return float64(keyword)
	}
	// Rough normalization of the keyword score to 0-100
	normalized := float64(keyword) / 2
	if normalized > 100 {
		normalized = 100
	}
	return w.Keyword*normalized + w.Semantic*semantic
}
