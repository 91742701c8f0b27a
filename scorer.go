package suggest

import (
	"math"
	"time"

	"github.com/oarkflow/suggest/utils"
)

// score computes the relevance of one candidate. Returns the final score and
// the possibly relabelled match type (substring candidates whose tokens only
// match within an edit distance become fuzzy). Caller holds the read lock.
func (e *Engine) score(p *Product, queryNormalized string, queryTokens []string, querySet map[string]struct{}, match MatchType, enableFuzzy bool) (float64, MatchType) {
	pid := p.ID
	titleLower := e.titleLower[pid]
	descLower := e.descLower[pid]

	score := 0.0
	switch match {
	case MatchExact:
		if queryNormalized == utils.Normalize(p.Title) {
			score += matchWeight(MatchExact)
		}
	case MatchPrefix:
		if len(titleLower) >= len(queryNormalized) && titleLower[:len(queryNormalized)] == queryNormalized {
			score += matchWeight(MatchPrefix)
		}
	case MatchSubstring:
		if contains(titleLower, queryNormalized) {
			score += matchWeight(MatchSubstring)
		}
	case MatchFuzzy:
		score += matchWeight(MatchFuzzy)
	}
	if contains(descLower, queryNormalized) {
		score += 25
	}
	for _, tag := range e.tagsLower[pid] {
		if contains(tag, queryNormalized) {
			score += 40
			break
		}
	}
	score += p.Rating * 5
	score += math.Min(float64(p.ReviewCount)/100, 10)
	score += p.PopularityScore * 20

	// Token overlap against the precomputed per-product token set.
	if len(queryTokens) > 0 {
		overlap := 0
		for tok := range querySet {
			if _, ok := e.tokens[pid][tok]; ok {
				overlap++
			}
		}
		score *= 1 + float64(overlap)/float64(len(queryTokens))
	}

	if !p.InStock {
		score *= 0.5
	}
	score = applyCategoryBoost(score, p, queryNormalized)
	score *= recencyBoost(p.CreatedAt)

	actual := match
	if enableFuzzy && (match == MatchSubstring || match == MatchFuzzy) {
		fuzzyMatches := e.countFuzzyTokenMatches(pid, queryTokens)
		if fuzzyMatches > 0 {
			score *= math.Pow(0.9, float64(fuzzyMatches))
			actual = MatchFuzzy
		}
	}
	return score, actual
}

// applyCategoryBoost raises the score when the query names the product's
// category (or the category name appears inside the query).
func applyCategoryBoost(score float64, p *Product, queryNormalized string) float64 {
	categoryName := string(p.Category)
	if contains(categoryName, queryNormalized) || contains(queryNormalized, categoryName) {
		return score * 1.5
	}
	return score
}

// recencyBoost favors newer products.
func recencyBoost(createdAt time.Time) float64 {
	age := time.Since(createdAt)
	switch {
	case age < 30*24*time.Hour:
		return 1.2
	case age < 90*24*time.Hour:
		return 1.1
	default:
		return 1.0
	}
}

// countFuzzyTokenMatches counts query tokens that sit within the fuzzy edit
// distance threshold of at least one product token.
func (e *Engine) countFuzzyTokenMatches(pid string, queryTokens []string) int {
	productTokens := e.tokens[pid]
	matches := 0
	for _, q := range queryTokens {
		for tok := range productTokens {
			if utils.BoundedLevenshtein(q, tok, e.fuzzyThreshold) <= e.fuzzyThreshold {
				matches++
				break
			}
		}
	}
	return matches
}
