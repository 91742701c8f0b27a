package suggest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oarkflow/filters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id, title string) *Product {
	return &Product{
		ID:              id,
		Title:           title,
		Description:     "",
		Category:        CategoryElectronics,
		Price:           19.99,
		Rating:          4.0,
		ReviewCount:     100,
		InStock:         true,
		PopularityScore: 0.5,
		CreatedAt:       time.Now().AddDate(-1, 0, 0),
		Tags:            nil,
	}
}

func testEngine(t *testing.T, products ...*Product) *Engine {
	t.Helper()
	e := New()
	for _, p := range products {
		require.NoError(t, e.AddProduct(p))
	}
	return e
}

func suggestionIDs(result *Result) []string {
	out := make([]string, len(result.Suggestions))
	for i, s := range result.Suggestions {
		out[i] = s.Product.ID
	}
	return out
}

func findSuggestion(result *Result, id string) (Suggestion, bool) {
	for _, s := range result.Suggestions {
		if s.Product.ID == id {
			return s, true
		}
	}
	return Suggestion{}, false
}

func TestExactTitleMatchesAllOwners(t *testing.T) {
	a := testProduct("A", "Wireless Mouse")
	b := testProduct("B", "wireless  MOUSE ") // same normalized title
	c := testProduct("C", "Wireless Mouse Pad")
	e := testEngine(t, a, b, c)

	result := e.Suggest(Request{Query: "Wireless Mouse"})
	sa, ok := findSuggestion(result, "A")
	require.True(t, ok)
	assert.Equal(t, MatchExact, sa.MatchType)
	sb, ok := findSuggestion(result, "B")
	require.True(t, ok)
	assert.Equal(t, MatchExact, sb.MatchType)
	sc, ok := findSuggestion(result, "C")
	require.True(t, ok)
	assert.Equal(t, MatchPrefix, sc.MatchType)
}

func TestSpecExampleWirelessMouse(t *testing.T) {
	a := &Product{
		ID: "A", Title: "Wireless Mouse", Description: "", Category: CategoryElectronics,
		Rating: 4.5, ReviewCount: 120, InStock: true, PopularityScore: 0.8,
		CreatedAt: time.Now().AddDate(-1, 0, 0), Tags: []string{"wireless"},
	}
	e := testEngine(t, a)

	result := e.Suggest(Request{Query: "wireless"})
	s, ok := findSuggestion(result, "A")
	require.True(t, ok)
	assert.Contains(t, []MatchType{MatchPrefix, MatchSubstring}, s.MatchType)
	assert.Greater(t, s.Score, 0.0)
}

func TestCategoryFilter(t *testing.T) {
	a := testProduct("A", "Wireless Mouse")
	b := testProduct("B", "Wireless Gardening Timer")
	b.Category = CategoryHomeGarden
	e := testEngine(t, a, b)

	result := e.Suggest(Request{Query: "wireless", Category: "electronics"})
	require.NotEmpty(t, result.Suggestions)
	for _, s := range result.Suggestions {
		assert.Equal(t, CategoryElectronics, s.Product.Category)
	}

	result = e.Suggest(Request{Query: "wireless", Category: "home_garden"})
	assert.Equal(t, []string{"B"}, suggestionIDs(result))
}

func TestUnknownCategoryYieldsEmptyResult(t *testing.T) {
	e := testEngine(t, testProduct("A", "Wireless Mouse"))
	result := e.Suggest(Request{Query: "wireless", Category: "no-such-category"})
	assert.Empty(t, result.Suggestions)
	assert.Zero(t, result.TotalCandidates)
}

func TestEmptyQueryYieldsEmptyResult(t *testing.T) {
	e := testEngine(t, testProduct("A", "Wireless Mouse"))
	for _, q := range []string{"", "   ", "\t\n"} {
		result := e.Suggest(Request{Query: q})
		assert.Empty(t, result.Suggestions, "query %q", q)
		assert.False(t, result.CacheHit)
	}
}

func TestIdempotentQueriesAndCacheHit(t *testing.T) {
	e := testEngine(t,
		testProduct("A", "Wireless Mouse"),
		testProduct("B", "Wireless Keyboard"),
		testProduct("C", "Wired Mouse"),
	)
	req := Request{Query: "wireless"}
	first := e.Suggest(req)
	second := e.Suggest(req)

	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	require.Equal(t, suggestionIDs(first), suggestionIDs(second))
	for i := range first.Suggestions {
		assert.Equal(t, first.Suggestions[i].Score, second.Suggestions[i].Score)
	}
}

func TestAddThenRemoveProduct(t *testing.T) {
	e := testEngine(t, testProduct("A", "Wireless Mouse"))

	x := testProduct("X", "Quantum Speaker")
	x.Tags = []string{"audio"}
	require.NoError(t, e.AddProduct(x))
	result := e.Suggest(Request{Query: "quantum"})
	assert.Contains(t, suggestionIDs(result), "X")

	e.RemoveProduct("X")
	// No query, of any match type, may surface the removed id even though
	// the trie and BK-tree still reference it internally.
	for _, q := range []string{"quantum speaker", "quantum", "quan", "uantum", "quntum", "audio"} {
		result = e.Suggest(Request{Query: q})
		assert.NotContains(t, suggestionIDs(result), "X", "query %q", q)
	}
}

func TestRemoveUnknownProductIsNoop(t *testing.T) {
	e := testEngine(t, testProduct("A", "Wireless Mouse"))
	e.RemoveProduct("nope")
	assert.Equal(t, 1, e.Len())
}

func TestDuplicateIDRejected(t *testing.T) {
	e := testEngine(t, testProduct("A", "Wireless Mouse"))
	err := e.AddProduct(testProduct("A", "Another Thing"))
	assert.Error(t, err)
	err = e.AddProduct(&Product{Title: "No ID"})
	assert.Error(t, err)
}

func TestMutationInvalidatesCache(t *testing.T) {
	e := testEngine(t, testProduct("A", "Wireless Mouse"))
	req := Request{Query: "wireless"}
	e.Suggest(req)
	assert.True(t, e.Suggest(req).CacheHit)

	require.NoError(t, e.AddProduct(testProduct("B", "Wireless Charger")))
	refreshed := e.Suggest(req)
	assert.False(t, refreshed.CacheHit)
	assert.Contains(t, suggestionIDs(refreshed), "B")
}

func TestFuzzyMatchesMistypedToken(t *testing.T) {
	e := testEngine(t, testProduct("A", "Wireless Mouse"))

	result := e.Suggest(Request{Query: "wirless"})
	s, ok := findSuggestion(result, "A")
	require.True(t, ok, "one-edit mistyping should match when fuzzy is enabled")
	assert.Equal(t, MatchFuzzy, s.MatchType)

	result = e.Suggest(Request{Query: "wirless", DisableFuzzy: true})
	assert.Empty(t, suggestionIDs(result))
}

func TestSubstringRelabelledFuzzyOnlyWhenEnabled(t *testing.T) {
	e := testEngine(t, testProduct("A", "Wireless Mouse"))

	// "mouse" is a non-prefix substring of the title; with fuzzy enabled the
	// token-level check fires (distance 0 counts) and relabels the match.
	s, ok := findSuggestion(e.Suggest(Request{Query: "mouse"}), "A")
	require.True(t, ok)
	assert.Equal(t, MatchFuzzy, s.MatchType)

	s, ok = findSuggestion(e.Suggest(Request{Query: "mouse", DisableFuzzy: true}), "A")
	require.True(t, ok)
	assert.Equal(t, MatchSubstring, s.MatchType)
}

func TestFuzzyPenaltyLowersScore(t *testing.T) {
	e := testEngine(t, testProduct("A", "Wireless Mouse"))
	fuzzy, ok := findSuggestion(e.Suggest(Request{Query: "mouse"}), "A")
	require.True(t, ok)
	plain, ok := findSuggestion(e.Suggest(Request{Query: "mouse", DisableFuzzy: true}), "A")
	require.True(t, ok)
	assert.InDelta(t, plain.Score*0.9, fuzzy.Score, 1e-9)
}

func TestMatchTypeWeightOrdering(t *testing.T) {
	e := testEngine(t, testProduct("A", "Wireless Mouse"))
	exact, ok := findSuggestion(e.Suggest(Request{Query: "wireless mouse", DisableFuzzy: true}), "A")
	require.True(t, ok)
	prefix, ok := findSuggestion(e.Suggest(Request{Query: "wireless", DisableFuzzy: true}), "A")
	require.True(t, ok)
	substring, ok := findSuggestion(e.Suggest(Request{Query: "mouse", DisableFuzzy: true}), "A")
	require.True(t, ok)
	assert.Equal(t, MatchExact, exact.MatchType)
	assert.Equal(t, MatchPrefix, prefix.MatchType)
	assert.Equal(t, MatchSubstring, substring.MatchType)
	assert.Greater(t, exact.Score, prefix.Score)
	assert.Greater(t, prefix.Score, substring.Score)
}

func TestOutOfStockHalvesScore(t *testing.T) {
	a := testProduct("A", "Wireless Mouse")
	b := testProduct("B", "Wireless Mouse")
	b.InStock = false
	e := New()
	require.NoError(t, e.AddProduct(a))

	resultA, ok := findSuggestion(e.Suggest(Request{Query: "wireless", DisableFuzzy: true}), "A")
	require.True(t, ok)

	e2 := New()
	require.NoError(t, e2.AddProduct(b))
	resultB, ok := findSuggestion(e2.Suggest(Request{Query: "wireless", DisableFuzzy: true}), "B")
	require.True(t, ok)

	assert.InDelta(t, resultA.Score*0.5, resultB.Score, 1e-9)
}

func TestRecencyBoost(t *testing.T) {
	fresh := testProduct("A", "Wireless Mouse")
	fresh.CreatedAt = time.Now().AddDate(0, 0, -5)
	old := testProduct("B", "Wireless Mouse")
	old.CreatedAt = time.Now().AddDate(-2, 0, 0)

	ea := testEngine(t, fresh)
	eb := testEngine(t, old)
	sa, ok := findSuggestion(ea.Suggest(Request{Query: "wireless", DisableFuzzy: true}), "A")
	require.True(t, ok)
	sb, ok := findSuggestion(eb.Suggest(Request{Query: "wireless", DisableFuzzy: true}), "B")
	require.True(t, ok)
	assert.InDelta(t, sb.Score*1.2, sa.Score, 1e-9)
}

func TestCategoryBoostWhenQueryNamesCategory(t *testing.T) {
	a := testProduct("A", "Electronics Organizer")
	e := testEngine(t, a)
	boosted, ok := findSuggestion(e.Suggest(Request{Query: "electronics", DisableFuzzy: true}), "A")
	require.True(t, ok)

	b := testProduct("B", "Electronics Organizer")
	b.Category = CategoryHomeGarden
	e2 := testEngine(t, b)
	plain, ok := findSuggestion(e2.Suggest(Request{Query: "electronics", DisableFuzzy: true}), "B")
	require.True(t, ok)
	assert.InDelta(t, plain.Score*1.5, boosted.Score, 1e-9)
}

func TestMinScoreThresholdDropsCandidates(t *testing.T) {
	e := testEngine(t, testProduct("A", "Wireless Mouse"))
	result := e.Suggest(Request{Query: "wireless", MinScore: 1e9})
	assert.Empty(t, result.Suggestions)
}

func TestStructuredFilters(t *testing.T) {
	a := testProduct("A", "Wireless Mouse")
	b := testProduct("B", "Wireless Trackball Mouse")
	b.InStock = false
	e := testEngine(t, a, b)

	result := e.Suggest(Request{
		Query:   "wireless",
		Filters: []Filter{{Field: "in_stock", Operator: filters.Equal, Value: true}},
	})
	assert.Equal(t, []string{"A"}, suggestionIDs(result))
}

func TestMaxResultsBoundsOutput(t *testing.T) {
	e := New()
	for i := 0; i < 30; i++ {
		require.NoError(t, e.AddProduct(testProduct(fmt.Sprintf("P%02d", i), fmt.Sprintf("Wireless Gadget %d", i))))
	}
	result := e.Suggest(Request{Query: "wireless", Size: 7})
	assert.Len(t, result.Suggestions, 7)
	assert.Equal(t, 30, result.TotalCandidates)

	// Default size applies when the request leaves it unset.
	result = e.Suggest(Request{Query: "wireless"})
	assert.Len(t, result.Suggestions, 10)
}

func TestSuggestionsSortedByScoreThenID(t *testing.T) {
	e := New()
	for i := 0; i < 20; i++ {
		require.NoError(t, e.AddProduct(testProduct(fmt.Sprintf("P%02d", i), "Wireless Gadget")))
	}
	result := e.Suggest(Request{Query: "wireless"})
	require.Len(t, result.Suggestions, 10)
	for i := 1; i < len(result.Suggestions); i++ {
		prev, cur := result.Suggestions[i-1], result.Suggestions[i]
		ordered := prev.Score > cur.Score ||
			(prev.Score == cur.Score && prev.Product.ID < cur.Product.ID)
		assert.True(t, ordered, "position %d", i)
	}
}

func TestMatchedFields(t *testing.T) {
	a := testProduct("A", "Wireless Mouse")
	a.Description = "A wireless pointing device"
	a.Tags = []string{"wireless"}
	e := testEngine(t, a)
	s, ok := findSuggestion(e.Suggest(Request{Query: "wireless"}), "A")
	require.True(t, ok)
	assert.Equal(t, []string{"title", "description", "tags"}, s.MatchedFields)
}

func TestSubstringMatchViaDescriptionAndTags(t *testing.T) {
	a := testProduct("A", "Desk Lamp")
	a.Description = "Includes a wireless charging base"
	b := testProduct("B", "Desk Organizer")
	b.Tags = []string{"wireless"}
	e := testEngine(t, a, b)
	result := e.Suggest(Request{Query: "wireless", DisableFuzzy: true})
	assert.ElementsMatch(t, []string{"A", "B"}, suggestionIDs(result))
}

func TestBuildFromReader(t *testing.T) {
	payload := `[
		{"id":"A","title":"Wireless Mouse","category":"electronics","rating":4.5,"review_count":120,"in_stock":true,"popularity_score":0.8,"tags":["wireless"]},
		{"title":"Wireless Keyboard","category":"electronics","in_stock":true}
	]`
	e := New()
	require.NoError(t, e.Build(context.Background(), strings.NewReader(payload)))
	assert.Equal(t, 2, e.Len())

	result := e.Suggest(Request{Query: "wireless"})
	assert.Len(t, result.Suggestions, 2)
	// The second record had no id; one was minted for it.
	_, ok := e.GetProduct("A")
	assert.True(t, ok)
}

func TestBuildFromProductSlice(t *testing.T) {
	e := New()
	err := e.Build(context.Background(), []Product{
		{ID: "A", Title: "Wireless Mouse", Category: CategoryElectronics, InStock: true},
		{ID: "B", Title: "Wired Mouse", Category: CategoryElectronics, InStock: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, e.Len())
}

func TestBuildRejectsUnsupportedInput(t *testing.T) {
	e := New()
	assert.Error(t, e.Build(context.Background(), 42))
}

func TestConcurrentSuggest(t *testing.T) {
	e := New()
	for i := 0; i < 100; i++ {
		require.NoError(t, e.AddProduct(testProduct(fmt.Sprintf("P%03d", i), fmt.Sprintf("Wireless Gadget %d", i))))
	}
	done := make(chan struct{})
	for w := 0; w < 8; w++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 50; i++ {
				e.Suggest(Request{Query: "wireless gadget"})
			}
		}()
	}
	for w := 0; w < 8; w++ {
		<-done
	}
}

// Once RemoveProduct returns, no later query may surface the removed id — not
// even when concurrent readers computed their results while the product was
// still live and then raced the removal's cache clear with their cache insert.
func TestSuggestNeverReturnsRemovedProduct(t *testing.T) {
	e := New()
	for i := 0; i < 300; i++ {
		require.NoError(t, e.AddProduct(testProduct(fmt.Sprintf("P%03d", i), fmt.Sprintf("Quantum Widget %d", i))))
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					e.Suggest(Request{Query: "quantum"})
				}
			}
		}()
	}

	hot := testProduct("X", "Quantum Speaker")
	hot.Rating = 5
	hot.ReviewCount = 1000
	hot.PopularityScore = 1
	hot.CreatedAt = time.Now()
	for i := 0; i < 50; i++ {
		fresh := *hot
		require.NoError(t, e.AddProduct(&fresh))
		e.RemoveProduct("X")
		result := e.Suggest(Request{Query: "quantum"})
		assert.NotContains(t, suggestionIDs(result), "X", "iteration %d", i)
	}
	close(stop)
	wg.Wait()
}

func buildBenchmarkEngine(n int) *Engine {
	e := New()
	adjectives := []string{"Wireless", "Ergonomic", "Portable", "Smart", "Compact", "Premium"}
	nouns := []string{"Mouse", "Keyboard", "Speaker", "Lamp", "Charger", "Monitor", "Stand"}
	for i := 0; i < n; i++ {
		_ = e.AddProduct(&Product{
			ID:              fmt.Sprintf("P%06d", i),
			Title:           fmt.Sprintf("%s %s %d", adjectives[i%len(adjectives)], nouns[i%len(nouns)], i),
			Description:     "general purpose catalog item",
			Category:        CategoryElectronics,
			Rating:          4.0,
			ReviewCount:     100,
			InStock:         true,
			PopularityScore: 0.5,
			CreatedAt:       time.Now().AddDate(-1, 0, 0),
		})
	}
	return e
}

// Query cost must track the matched candidate set, not the catalog size; run
// with -bench to compare catalog sizes (e.g. 5k vs 50k) for sub-linear growth.
func BenchmarkSuggest5k(b *testing.B)  { benchmarkSuggest(b, 5000) }
func BenchmarkSuggest50k(b *testing.B) { benchmarkSuggest(b, 50000) }

func benchmarkSuggest(b *testing.B, n int) {
	e := buildBenchmarkEngine(n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Suggest(Request{Query: "wireless mo", DisableFuzzy: true, Size: 10})
	}
}
