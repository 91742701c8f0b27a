package suggest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-reflect"
	"github.com/oarkflow/json"
	"github.com/oarkflow/squealx"
	"github.com/oarkflow/squealx/connection"
	"github.com/oarkflow/xid"
)

// DBConfig describes a catalog database to ingest from.
type DBConfig struct {
	DBType  string `json:"type,omitempty"`
	DBHost  string `json:"host,omitempty"`
	DBPort  int    `json:"port,omitempty"`
	DBUser  string `json:"user,omitempty"`
	DBPass  string `json:"password,omitempty"`
	DBName  string `json:"database,omitempty"`
	DBQuery string `json:"query,omitempty"`
}

// DBRequest ingests rows from an already-open connection.
type DBRequest struct {
	DB    *squealx.DB
	Query string
}

// CatalogRequest is the build payload accepted over HTTP.
type CatalogRequest struct {
	Path     string    `json:"path"`
	Data     []Product `json:"data"`
	Database *DBConfig `json:"database,omitempty"`
}

// Build bulk-loads a catalog from any supported input: a product slice, a
// JSON array (string literal, []byte, io.Reader or file path), a database
// request, or an arbitrary struct slice.
func (e *Engine) Build(ctx context.Context, input any) error {
	switch v := input.(type) {
	case []Product:
		return e.BuildFromProducts(ctx, v)
	case []*Product:
		products := make([]Product, 0, len(v))
		for _, p := range v {
			if p != nil {
				products = append(products, *p)
			}
		}
		return e.BuildFromProducts(ctx, products)
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") {
			return e.BuildFromReader(ctx, strings.NewReader(v))
		}
		return e.BuildFromFile(ctx, v)
	case []byte:
		return e.BuildFromReader(ctx, bytes.NewReader(v))
	case io.Reader:
		return e.BuildFromReader(ctx, v)
	case DBRequest:
		return e.BuildFromDatabase(ctx, v)
	case CatalogRequest:
		if v.Database != nil {
			db, _, err := connection.FromConfig(squealx.Config{
				Host:     v.Database.DBHost,
				Port:     v.Database.DBPort,
				Driver:   v.Database.DBType,
				Username: v.Database.DBUser,
				Password: v.Database.DBPass,
				Database: v.Database.DBName,
			})
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()
			return e.BuildFromDatabase(ctx, DBRequest{DB: db, Query: v.Database.DBQuery})
		}
		if v.Path != "" {
			return e.BuildFromFile(ctx, v.Path)
		}
		if len(v.Data) > 0 {
			return e.BuildFromProducts(ctx, v.Data)
		}
		return fmt.Errorf("no data, path, or database config provided")
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			return e.buildFromStructSlice(ctx, v)
		}
	}
	return fmt.Errorf("unsupported input type: %T", input)
}

// BuildFromProducts indexes a slice of products. Ids are assigned when
// missing.
func (e *Engine) BuildFromProducts(ctx context.Context, products []Product) error {
	for i := range products {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p := products[i]
		if p.ID == "" {
			p.ID = nextID()
		}
		if err := e.AddProduct(&p); err != nil {
			return err
		}
	}
	return nil
}

// BuildFromFile ingests a JSON array of products from a file.
func (e *Engine) BuildFromFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return e.BuildFromReader(ctx, file)
}

// BuildFromReader streams a JSON array of products, indexing each element as
// it decodes. Invalid records are skipped with a log line rather than
// aborting the whole build.
func (e *Engine) BuildFromReader(ctx context.Context, r io.Reader) error {
	decoder := json.NewDecoder(r)
	tok, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("failed to read JSON token: %w", err)
	}
	d, ok := tok.(json.Delim)
	if !ok || d != '[' {
		return fmt.Errorf("invalid JSON array, expected '[' got %v", tok)
	}
	for decoder.More() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var p Product
		if err := decoder.Decode(&p); err != nil {
			log.Printf("skipping invalid product record: %v", err)
			continue
		}
		if p.ID == "" {
			p.ID = nextID()
		}
		if err := e.AddProduct(&p); err != nil {
			return err
		}
	}
	return nil
}

// BuildFromDatabase ingests catalog rows via squealx, adapting each row map
// into a Product.
func (e *Engine) BuildFromDatabase(ctx context.Context, req DBRequest) error {
	if req.DB == nil {
		return fmt.Errorf("no database provided")
	}
	if req.Query == "" {
		return fmt.Errorf("no query provided")
	}
	return squealx.SelectEach(req.DB, func(row map[string]any) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p, err := recordToProduct(row)
		if err != nil {
			log.Printf("skipping invalid catalog row: %v", err)
			return nil
		}
		return e.AddProduct(p)
	}, req.Query)
}

// buildFromStructSlice adapts an arbitrary slice through a JSON round trip,
// mirroring how heterogeneous records enter the catalog.
func (e *Engine) buildFromStructSlice(ctx context.Context, slice any) error {
	rv := reflect.ValueOf(slice)
	for i := 0; i < rv.Len(); i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b, err := json.Marshal(rv.Index(i).Interface())
		if err != nil {
			return fmt.Errorf("error marshalling element %d: %w", i, err)
		}
		var p Product
		if err := json.Unmarshal(b, &p); err != nil {
			return fmt.Errorf("error unmarshalling element %d: %w", i, err)
		}
		if p.ID == "" {
			p.ID = nextID()
		}
		if err := e.AddProduct(&p); err != nil {
			return err
		}
	}
	return nil
}

// recordToProduct coerces a generic row map into a Product.
func recordToProduct(row map[string]any) (*Product, error) {
	b, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	var p Product
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = nextID()
	}
	return &p, nil
}

// nextID mints a product id for records that arrive without one.
func nextID() string {
	return strconv.FormatInt(xid.New().Int64(), 10)
}
