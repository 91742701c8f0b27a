package suggest

import (
	"strings"

	"github.com/oarkflow/filters"
)

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}

// findCandidates merges the exact-title map, the prefix trie, the substring
// index and the BK-tree into a single id→match-type map. Precedence is
// exact > prefix > substring > fuzzy and is never downgraded once assigned.
// Every surfaced id is checked against the primary map so that stale trie and
// BK-tree references from removed products are silently discarded.
//
// Caller holds the read lock.
func (e *Engine) findCandidates(queryNormalized string, queryTokens []string, enableFuzzy bool, category string, rule *filters.Rule) map[string]MatchType {
	candidates := make(map[string]MatchType)

	var categoryIDs map[string]struct{}
	if category != "" {
		categoryIDs = e.categories[category]
		if len(categoryIDs) == 0 {
			return candidates
		}
	}
	eligible := func(pid string) bool {
		if _, live := e.products[pid]; !live {
			return false
		}
		if categoryIDs != nil {
			if _, ok := categoryIDs[pid]; !ok {
				return false
			}
		}
		if rule != nil && !rule.Match(e.records[pid]) {
			return false
		}
		return true
	}

	// Exact title matches, O(1).
	for pid := range e.exactTitle[queryNormalized] {
		if eligible(pid) {
			candidates[pid] = MatchExact
		}
	}

	// Prefix matches via the trie, O(k). Titles equal to the query stay exact.
	for pid := range e.prefixes.SearchPrefix(queryNormalized) {
		if _, seen := candidates[pid]; seen {
			continue
		}
		if !eligible(pid) {
			continue
		}
		if e.titleLower[pid] != queryNormalized {
			candidates[pid] = MatchPrefix
		}
	}

	// Substring matches via the n-gram filter, O(k+m), with verification
	// against the product's cached lowercase title, description and tags.
	for pid := range e.ngrams.Candidates(queryNormalized) {
		if _, seen := candidates[pid]; seen {
			continue
		}
		if !eligible(pid) {
			continue
		}
		if e.verifySubstring(pid, queryNormalized) {
			candidates[pid] = MatchSubstring
		}
	}

	// Fuzzy matches via the BK-tree over query tokens, lowest precedence.
	if enableFuzzy {
		for _, token := range queryTokens {
			for pid := range e.vocabulary.Search(token, e.fuzzyThreshold) {
				if _, seen := candidates[pid]; seen {
					continue
				}
				if eligible(pid) {
					candidates[pid] = MatchFuzzy
				}
			}
		}
	}
	return candidates
}

// verifySubstring rejects n-gram false positives: the normalized query must
// genuinely appear in the title, the description or one of the tags.
func (e *Engine) verifySubstring(pid, queryNormalized string) bool {
	if contains(e.titleLower[pid], queryNormalized) {
		return true
	}
	if contains(e.descLower[pid], queryNormalized) {
		return true
	}
	for _, tag := range e.tagsLower[pid] {
		if contains(tag, queryNormalized) {
			return true
		}
	}
	return false
}
