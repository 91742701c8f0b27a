package suggest

import (
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/oarkflow/filters"
	"github.com/oarkflow/json"
)

// Category classifies a product. Values mirror the catalog taxonomy.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategoryHomeGarden  Category = "home_garden"
	CategorySports      Category = "sports"
	CategoryToys        Category = "toys"
	CategoryFood        Category = "food"
	CategoryBeauty      Category = "beauty"
)

// MatchType records how a suggestion was matched against the query.
type MatchType string

const (
	MatchExact     MatchType = "exact"
	MatchPrefix    MatchType = "prefix"
	MatchSubstring MatchType = "substring"
	MatchFuzzy     MatchType = "fuzzy"
)

// matchWeight is the base relevance contribution of a match type.
func matchWeight(mt MatchType) float64 {
	switch mt {
	case MatchExact:
		return 100
	case MatchPrefix:
		return 75
	case MatchSubstring, MatchFuzzy:
		return 50
	default:
		return 0
	}
}

// Product is a catalog entry. The engine owns products in its primary id map;
// every index holds ids only.
type Product struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        Category  `json:"category"`
	Price           float64   `json:"price"`
	Rating          float64   `json:"rating"`
	ReviewCount     int       `json:"review_count"`
	InStock         bool      `json:"in_stock"`
	PopularityScore float64   `json:"popularity_score"`
	CreatedAt       time.Time `json:"created_at"`
	Tags            []string  `json:"tags"`
}

// record flattens a product into a field map for structured filter matching.
func (p *Product) record() map[string]any {
	return map[string]any{
		"id":               p.ID,
		"title":            p.Title,
		"description":      p.Description,
		"category":         string(p.Category),
		"price":            p.Price,
		"rating":           p.Rating,
		"review_count":     p.ReviewCount,
		"in_stock":         p.InStock,
		"popularity_score": p.PopularityScore,
		"tags":             p.Tags,
	}
}

// Suggestion pairs a product with its relevance metadata.
type Suggestion struct {
	Product       *Product  `json:"product"`
	Score         float64   `json:"score"`
	MatchType     MatchType `json:"match_type"`
	MatchedFields []string  `json:"matched_fields"`
}

// Result is the ordered outcome of a suggestion query.
type Result struct {
	Suggestions     []Suggestion  `json:"suggestions"`
	TotalCandidates int           `json:"total_candidates"`
	ProductsScanned int           `json:"products_scanned"`
	QueryTime       time.Duration `json:"query_time"`
	CacheHit        bool          `json:"cache_hit"`
}

// Filter is a structured condition applied to candidate products before
// scoring.
type Filter struct {
	Field    string           `json:"field"`
	Operator filters.Operator `json:"operator"`
	Value    any              `json:"value"`
	Reverse  bool             `json:"reverse"`
	Lookup   *filters.Lookup  `json:"lookup"`
}

// Request carries all query parameters. The zero value of DisableFuzzy keeps
// fuzzy matching on, matching the engine default.
type Request struct {
	Query        string   `json:"q" query:"q"`
	Size         int      `json:"s" query:"s"`
	DisableFuzzy bool     `json:"disable_fuzzy" query:"disable_fuzzy"`
	Category     string   `json:"category" query:"category"`
	MinScore     float64  `json:"min_score" query:"min_score"`
	Filters      []Filter `json:"filters"`
}

// Checksum produces a stable cache key over every parameter that influences
// the result. Filters are marshalled and sorted so their order is irrelevant.
func (r Request) Checksum() (uint64, error) {
	condStrs := make([]string, len(r.Filters))
	for i, c := range r.Filters {
		b, err := json.Marshal(c)
		if err != nil {
			return 0, fmt.Errorf("marshaling filter condition: %w", err)
		}
		condStrs[i] = string(b)
	}
	sort.Strings(condStrs)
	canon := struct {
		Filters      []string `json:"filters"`
		Query        string   `json:"q"`
		Size         int      `json:"s"`
		DisableFuzzy bool     `json:"disable_fuzzy"`
		Category     string   `json:"category"`
		MinScore     float64  `json:"min_score"`
	}{
		Filters:      condStrs,
		Query:        r.Query,
		Size:         r.Size,
		DisableFuzzy: r.DisableFuzzy,
		Category:     r.Category,
		MinScore:     r.MinScore,
	}
	payload, err := json.Marshal(canon)
	if err != nil {
		return 0, fmt.Errorf("marshaling canonical request: %w", err)
	}
	return xxhash.Sum64(payload), nil
}

// rule converts the request filters into a matchable rule, or nil when the
// request carries none.
func (r Request) rule() *filters.Rule {
	if len(r.Filters) == 0 {
		return nil
	}
	conds := make([]filters.Condition, 0, len(r.Filters))
	for _, f := range r.Filters {
		conds = append(conds, &filters.Filter{
			Field:    f.Field,
			Operator: f.Operator,
			Value:    f.Value,
			Reverse:  f.Reverse,
			Lookup:   f.Lookup,
		})
	}
	rule := filters.NewRule()
	rule.AddCondition(filters.AND, false, conds...)
	return rule
}
