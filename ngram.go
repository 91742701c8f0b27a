package suggest

import "github.com/oarkflow/suggest/utils"

const defaultNgramSize = 3

// ngramIndex is the substring index: fixed-size n-grams over sentinel-padded
// lowercase text, plus literal maps for whole normalized strings and single
// word tokens. The n-gram filter admits false positives by design; callers
// re-verify true substring containment before surfacing a candidate.
//
// Removed product ids are not purged here; read paths filter them against the
// primary map. Not safe for concurrent use.
type ngramIndex struct {
	size   int
	grams  map[string]map[string]struct{}
	exact  map[string]map[string]struct{}
	tokens map[string]map[string]struct{}
}

func newNgramIndex(size int) *ngramIndex {
	if size <= 0 {
		size = defaultNgramSize
	}
	return &ngramIndex{
		size:   size,
		grams:  make(map[string]map[string]struct{}),
		exact:  make(map[string]map[string]struct{}),
		tokens: make(map[string]map[string]struct{}),
	}
}

func addID(m map[string]map[string]struct{}, key, id string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[id] = struct{}{}
}

// Add indexes one lowercase text fragment (title, description or tag) for id.
func (ni *ngramIndex) Add(text, id string) {
	padded := pad(text)
	for i := 0; i+ni.size <= len(padded); i++ {
		addID(ni.grams, padded[i:i+ni.size], id)
	}
	normalized := utils.Normalize(text)
	if normalized != "" {
		addID(ni.exact, normalized, id)
	}
	for _, word := range utils.Tokenize(normalized) {
		addID(ni.tokens, word, id)
	}
}

// Candidates returns ids whose indexed text shares at least half of the
// query's n-grams, merged with literal whole-string and single-token hits.
// The result is a filter, not a proof: every id still needs substring
// verification.
func (ni *ngramIndex) Candidates(queryNormalized string) map[string]struct{} {
	padded := pad(queryNormalized)
	queryGrams := make(map[string]struct{})
	for i := 0; i+ni.size <= len(padded); i++ {
		queryGrams[padded[i:i+ni.size]] = struct{}{}
	}
	overlap := make(map[string]int)
	for gram := range queryGrams {
		for id := range ni.grams[gram] {
			overlap[id]++
		}
	}
	minOverlap := len(queryGrams) / 2
	if minOverlap < 1 {
		minOverlap = 1
	}
	out := make(map[string]struct{})
	for id, count := range overlap {
		if count >= minOverlap {
			out[id] = struct{}{}
		}
	}
	for id := range ni.exact[queryNormalized] {
		out[id] = struct{}{}
	}
	for id := range ni.tokens[queryNormalized] {
		out[id] = struct{}{}
	}
	return out
}

// pad brackets text with sentinels so edge n-grams are indexed too.
func pad(text string) string {
	return "$$" + text + "$$"
}
