package suggest

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-reflect"
	"github.com/oarkflow/filters"
	"github.com/oarkflow/json"
)

// Manager hosts named suggestion engines behind one HTTP surface. The engine
// core never depends on it.
type Manager struct {
	engines map[string]*Engine
	mutex   sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		engines: make(map[string]*Engine),
	}
}

func (m *Manager) AddEngine(name string, engine *Engine) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.engines[name] = engine
}

func (m *Manager) GetEngine(name string) (*Engine, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	engine, ok := m.engines[name]
	return engine, ok
}

func (m *Manager) DeleteEngine(name string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.engines, name)
}

func (m *Manager) ListEngines() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	names := make([]string, 0, len(m.engines))
	for name := range m.engines {
		names = append(names, name)
	}
	return names
}

func (m *Manager) Build(ctx context.Context, name string, req any) error {
	engine, ok := m.GetEngine(name)
	if !ok {
		return fmt.Errorf("engine %s not found", name)
	}
	return engine.Build(ctx, req)
}

func (m *Manager) Suggest(name string, req Request) (*Result, error) {
	engine, ok := m.GetEngine(name)
	if !ok {
		return nil, fmt.Errorf("engine %s not found", name)
	}
	return engine.Suggest(req), nil
}

type NewEngineRequest struct {
	ID string `json:"id"`
}

var builtInFields = []string{"q", "s", "disable_fuzzy", "category", "min_score"}

// prepareRequest merges the JSON body, the well-known query parameters and
// any leftover parameters (which become structured filters).
func prepareRequest(r *http.Request) (Request, error) {
	var req Request
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return req, err
	}
	if len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, &req); err != nil {
			return req, fmt.Errorf("error unmarshalling request: %v", err)
		}
		extraMap := make(map[string]any)
		if err := json.Unmarshal(bodyBytes, &extraMap); err != nil {
			return req, fmt.Errorf("error unmarshalling extra: %v", err)
		}
		if req.Filters == nil {
			var extra []Filter
			for k, v := range extraMap {
				if isBuiltInField(k) || k == "filters" {
					continue
				}
				operator := filters.Equal
				if reflect.TypeOf(v).Kind() == reflect.Slice {
					operator = filters.In
				}
				extra = append(extra, Filter{Field: k, Operator: operator, Value: v})
			}
			req.Filters = extra
		}
	}
	values := r.URL.Query()
	if q := strings.TrimSpace(values.Get("q")); q != "" {
		req.Query = q
	}
	if s := values.Get("s"); s != "" {
		if size, err := strconv.Atoi(s); err == nil {
			req.Size = size
		}
	}
	if values.Get("disable_fuzzy") == "true" {
		req.DisableFuzzy = true
	}
	if c := strings.TrimSpace(values.Get("category")); c != "" {
		req.Category = c
	}
	if ms := values.Get("min_score"); ms != "" {
		if threshold, err := strconv.ParseFloat(ms, 64); err == nil {
			req.MinScore = threshold
		}
	}
	if len(req.Filters) == 0 {
		extraFilters, err := filters.ParseQuery(r.URL.RawQuery, builtInFields...)
		if err != nil {
			return req, err
		}
		for _, v := range extraFilters {
			req.Filters = append(req.Filters, Filter{
				Field:    v.Field,
				Operator: v.Operator,
				Value:    v.Value,
				Reverse:  v.Reverse,
				Lookup:   v.Lookup,
			})
		}
	}
	return req, nil
}

func isBuiltInField(name string) bool {
	for _, field := range builtInFields {
		if field == name {
			return true
		}
	}
	return false
}

// StartHTTP exposes the manager on addr. Blocks.
func (m *Manager) StartHTTP(addr string) {
	http.HandleFunc("/engine/add", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Unsupported method", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("Error reading body: %v", err), http.StatusBadRequest)
			return
		}
		var req NewEngineRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, fmt.Sprintf("Error unmarshalling request: %v", err), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.ID) == "" {
			http.Error(w, "engine ID required in request body", http.StatusBadRequest)
			return
		}
		m.AddEngine(req.ID, New())
		w.Write([]byte(fmt.Sprintf("engine %s created successfully", req.ID)))
	})
	http.HandleFunc("/engines", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Unsupported method", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.ListEngines())
	})
	http.HandleFunc("/{engine}/build", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Unsupported method", http.StatusMethodNotAllowed)
			return
		}
		name := r.PathValue("engine")
		if strings.TrimSpace(name) == "" {
			http.Error(w, "engine name required in path", http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("Error reading body: %v", err), http.StatusBadRequest)
			return
		}
		var req CatalogRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, fmt.Sprintf("Error unmarshalling request: %v", err), http.StatusBadRequest)
			return
		}
		if req.Path != "" {
			go func(name string, req CatalogRequest) {
				if err := m.Build(context.Background(), name, req); err != nil {
					log.Printf("build error for %s: %v", name, err)
				}
			}(name, req)
			w.Write([]byte(fmt.Sprintf("catalog build started for %s from %s", name, req.Path)))
			return
		}
		if err := m.Build(ctx, name, req); err != nil {
			http.Error(w, fmt.Sprintf("Build error: %v", err), http.StatusInternalServerError)
			return
		}
		w.Write([]byte("catalog built successfully"))
	})
	http.HandleFunc("/{engine}/suggest", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("engine")
		if strings.TrimSpace(name) == "" {
			http.Error(w, "engine name required in path", http.StatusBadRequest)
			return
		}
		req, err := prepareRequest(r)
		if err != nil {
			http.Error(w, fmt.Sprintf("Error preparing request: %v", err), http.StatusBadRequest)
			return
		}
		result, err := m.Suggest(name, req)
		if err != nil {
			http.Error(w, fmt.Sprintf("Suggest error: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	})
	http.HandleFunc("/{engine}/stats", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("engine")
		engine, ok := m.GetEngine(name)
		if !ok {
			http.Error(w, fmt.Sprintf("engine %s not found", name), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(engine.Stats())
	})

	log.Printf("HTTP server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
