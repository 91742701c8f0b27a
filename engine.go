package suggest

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oarkflow/suggest/trie"
	"github.com/oarkflow/suggest/utils"
)

const (
	defaultMaxResults     = 10
	defaultFuzzyThreshold = 2
)

// Engine is an in-memory search-suggestion engine over a product catalog. It
// combines a prefix trie, an n-gram substring index, a BK metric tree and a
// category index so that a query never degrades into a full catalog scan.
//
// Queries may run concurrently; AddProduct and RemoveProduct take the write
// lock and never interleave with reads.
type Engine struct {
	sync.RWMutex

	products   map[string]*Product
	titleLower map[string]string
	descLower  map[string]string
	tagsLower  map[string][]string
	records    map[string]map[string]any
	tokens     map[string]map[string]struct{}

	exactTitle map[string]map[string]struct{}
	categories map[string]map[string]struct{}
	prefixes   *trie.Trie
	ngrams     *ngramIndex
	vocabulary *bkTree

	cache *resultCache

	ngramSize      int
	fuzzyThreshold int
	maxResults     int
	cacheCapacity  int

	queries uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithNgramSize overrides the substring index n-gram length (default 3).
func WithNgramSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.ngramSize = size
		}
	}
}

// WithFuzzyThreshold overrides the maximum edit distance for fuzzy matching
// (default 2).
func WithFuzzyThreshold(threshold int) Option {
	return func(e *Engine) {
		if threshold > 0 {
			e.fuzzyThreshold = threshold
		}
	}
}

// WithMaxResults overrides the default result size used when a request does
// not set one (default 10).
func WithMaxResults(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxResults = n
		}
	}
}

// WithCacheCapacity overrides the query cache capacity (default 1000).
func WithCacheCapacity(capacity int) Option {
	return func(e *Engine) {
		if capacity > 0 {
			e.cacheCapacity = capacity
		}
	}
}

// New creates an empty engine. Catalogs are loaded through Build, AddProduct
// or the loader helpers.
func New(opts ...Option) *Engine {
	e := &Engine{
		products:       make(map[string]*Product),
		titleLower:     make(map[string]string),
		descLower:      make(map[string]string),
		tagsLower:      make(map[string][]string),
		records:        make(map[string]map[string]any),
		tokens:         make(map[string]map[string]struct{}),
		exactTitle:     make(map[string]map[string]struct{}),
		categories:     make(map[string]map[string]struct{}),
		prefixes:       trie.New(),
		vocabulary:     newBKTree(),
		ngramSize:      defaultNgramSize,
		fuzzyThreshold: defaultFuzzyThreshold,
		maxResults:     defaultMaxResults,
		cacheCapacity:  defaultCacheCapacity,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ngrams = newNgramIndex(e.ngramSize)
	e.cache = newResultCache(e.cacheCapacity)
	return e
}

// AddProduct registers p across every index and clears the query cache. A
// duplicate id is a caller error.
func (e *Engine) AddProduct(p *Product) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("suggest: product requires an id")
	}
	e.Lock()
	defer e.Unlock()
	if _, exists := e.products[p.ID]; exists {
		return fmt.Errorf("suggest: product %s already indexed", p.ID)
	}
	e.indexProduct(p)
	e.cache.Clear()
	return nil
}

// indexProduct wires p into every structure. Caller holds the write lock.
func (e *Engine) indexProduct(p *Product) {
	pid := p.ID
	e.products[pid] = p

	titleLower := utils.ToLower(p.Title)
	descLower := utils.ToLower(p.Description)
	tagsLower := make([]string, len(p.Tags))
	for i, tag := range p.Tags {
		tagsLower[i] = utils.ToLower(tag)
	}
	e.titleLower[pid] = titleLower
	e.descLower[pid] = descLower
	e.tagsLower[pid] = tagsLower
	e.records[pid] = p.record()

	addID(e.categories, string(p.Category), pid)

	titleNormalized := utils.Normalize(p.Title)
	addID(e.exactTitle, titleNormalized, pid)
	e.prefixes.Insert(titleNormalized, pid)

	tokenSet := make(map[string]struct{})
	for _, tok := range utils.Tokenize(p.Title + " " + p.Description) {
		tokenSet[tok] = struct{}{}
	}
	e.tokens[pid] = tokenSet
	for tok := range tokenSet {
		e.vocabulary.Insert(tok, pid)
	}

	e.ngrams.Add(titleLower, pid)
	e.ngrams.Add(descLower, pid)
	for _, tag := range tagsLower {
		e.ngrams.Add(tag, pid)
	}
}

// RemoveProduct drops id from the primary map, the category and exact-title
// indexes and the per-product caches, then clears the query cache. The trie
// and BK-tree deliberately keep their references: purging them would cost
// O(n), so read paths re-check the primary map instead. Removing an unknown
// id is a no-op.
func (e *Engine) RemoveProduct(id string) {
	e.Lock()
	defer e.Unlock()
	p, ok := e.products[id]
	if !ok {
		return
	}
	delete(e.products, id)

	titleNormalized := utils.Normalize(p.Title)
	if set, ok := e.exactTitle[titleNormalized]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(e.exactTitle, titleNormalized)
		}
	}
	if set, ok := e.categories[string(p.Category)]; ok {
		delete(set, id)
	}
	delete(e.tokens, id)
	delete(e.titleLower, id)
	delete(e.descLower, id)
	delete(e.tagsLower, id)
	delete(e.records, id)

	e.cache.Clear()
}

// Suggest evaluates a suggestion query. An empty or whitespace-only query and
// an unknown category both yield an empty result, never an error.
//
// The cache lookup, the candidate walk and the cache insert all happen under
// one read lock, so a mutation's cache clear (which runs under the write lock)
// can never land between computing a result and memoizing it.
func (e *Engine) Suggest(req Request) *Result {
	start := time.Now()
	req.Query = utils.Normalize(req.Query)
	if req.Size <= 0 {
		req.Size = e.maxResults
	}
	if req.Query == "" {
		return &Result{Suggestions: []Suggestion{}}
	}

	key, err := req.Checksum()
	cacheable := err == nil
	atomic.AddUint64(&e.queries, 1)

	e.RLock()
	defer e.RUnlock()
	if cacheable {
		if cached, ok := e.cache.Get(key); ok {
			return cached
		}
	}

	queryTokens := utils.Tokenize(req.Query)
	querySet := make(map[string]struct{}, len(queryTokens))
	for _, tok := range queryTokens {
		querySet[tok] = struct{}{}
	}
	rule := req.rule()

	candidates := e.findCandidates(req.Query, queryTokens, !req.DisableFuzzy, req.Category, rule)
	scored := make([]Suggestion, 0, len(candidates))
	scanned := 0
	for pid, match := range candidates {
		p, ok := e.products[pid]
		if !ok {
			continue
		}
		scanned++
		score, actual := e.score(p, req.Query, queryTokens, querySet, match, !req.DisableFuzzy)
		if score < req.MinScore {
			continue
		}
		scored = append(scored, Suggestion{
			Product:       p,
			Score:         score,
			MatchType:     actual,
			MatchedFields: e.matchedFields(pid, req.Query, actual),
		})
	}

	result := &Result{
		Suggestions:     selectTop(scored, req.Size),
		TotalCandidates: len(candidates),
		ProductsScanned: scanned,
		QueryTime:       time.Since(start),
	}
	if cacheable {
		e.cache.Put(key, result)
	}
	return result
}

// matchedFields reports which product fields contain the normalized query.
// Caller holds the read lock.
func (e *Engine) matchedFields(pid, queryNormalized string, match MatchType) []string {
	var fields []string
	if contains(e.titleLower[pid], queryNormalized) {
		fields = append(fields, "title")
	}
	if contains(e.descLower[pid], queryNormalized) {
		fields = append(fields, "description")
	}
	for _, tag := range e.tagsLower[pid] {
		if contains(tag, queryNormalized) {
			fields = append(fields, "tags")
			break
		}
	}
	if len(fields) == 0 {
		if match == MatchFuzzy {
			return []string{"tokens"}
		}
		return []string{"title"}
	}
	return fields
}

// Len reports the number of live products.
func (e *Engine) Len() int {
	e.RLock()
	defer e.RUnlock()
	return len(e.products)
}

// GetProduct returns the live product for id.
func (e *Engine) GetProduct(id string) (*Product, bool) {
	e.RLock()
	defer e.RUnlock()
	p, ok := e.products[id]
	return p, ok
}

// Stats returns a diagnostic snapshot of the engine.
func (e *Engine) Stats() map[string]any {
	e.RLock()
	defer e.RUnlock()
	hits, misses, cached := e.cache.Stats()
	return map[string]any{
		"products":         len(e.products),
		"vocabulary_words": e.vocabulary.Words(),
		"trie_nodes":       e.prefixes.Len(),
		"queries":          atomic.LoadUint64(&e.queries),
		"cache_hits":       hits,
		"cache_misses":     misses,
		"cache_entries":    cached,
	}
}
