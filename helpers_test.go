package endpoints_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/bjaus/endpoints"
	"github.com/bjaus/endpoints/memstore"
)

// readOnly is an adapter that only supports reads.
type readOnly struct {
	typ  string
	rels []endpoints.RelationDef
	data *endpoints.ResourceData
	err  error
}

func (a readOnly) TypeName() string { return a.typ }
func (a readOnly) Relations() []endpoints.RelationDef { return a.rels }
func (a readOnly) Read(context.Context, endpoints.Query) (*endpoints.ResourceData, error) {
	return a.data, a.err
}

// bareAdapter supports no operation at all.
type bareAdapter struct{}

func (bareAdapter) TypeName() string { return "widgets" }
func (bareAdapter) Relations() []endpoints.RelationDef { return nil }

var bookRelations = []endpoints.RelationDef{
	{Name: "author", Type: "authors"},
	{Name: "series", Type: "series"},
	{Name: "stores", Type: "stores", ToMany: true},
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bookstore is a seeded memstore with books and their related types.
type bookstore struct {
	db      *memstore.DB
	books   *memstore.Adapter
	authors *memstore.Adapter
	series  *memstore.Adapter
	stores  *memstore.Adapter
}

func newBookstore(t *testing.T) *bookstore {
	t.Helper()

	db := memstore.New()
	bs := &bookstore{
		db:      db,
		authors: db.Define(memstore.TypeDef{Name: "authors"}),
		series:  db.Define(memstore.TypeDef{Name: "series"}),
		stores:  db.Define(memstore.TypeDef{Name: "stores", ClientIDs: true}),
		books:   db.Define(memstore.TypeDef{Name: "books", Relations: bookRelations}),
	}

	seeds := []struct {
		typ   string
		id    string
		attrs endpoints.Attributes
		rels  map[string][]string
	}{
		{typ: "authors", id: "1", attrs: endpoints.Attributes{"name": "J. R. R. Tolkien"}},
		{typ: "series", id: "1", attrs: endpoints.Attributes{"title": "The Lord of the Rings"}},
		{typ: "stores", id: "1", attrs: endpoints.Attributes{"name": "Barnes & Noble"}},
		{typ: "stores", id: "2", attrs: endpoints.Attributes{"name": "Borders"}},
		{
			typ:   "books",
			id:    "1",
			attrs: endpoints.Attributes{"title": "The Fellowship of the Ring"},
			rels:  map[string][]string{"author": {"1"}, "series": {"1"}, "stores": {"1"}},
		},
	}
	for _, s := range seeds {
		if err := db.Seed(s.typ, s.id, s.attrs, s.rels); err != nil {
			t.Fatalf("seed %s %s: %v", s.typ, s.id, err)
		}
	}
	return bs
}

// options returns controller defaults for adapter backed by the bookstore DB.
func (bs *bookstore) options(adapter endpoints.Adapter) endpoints.Options {
	opts := endpoints.DefaultOptions()
	opts.Adapter = adapter
	opts.BaseURL = "http://example.com"
	opts.Store = bs.db
	opts.Logger = discardLogger()
	return opts
}

// router mounts every bookstore type on a Router.
func (bs *bookstore) router(t *testing.T, ro ...endpoints.ResourceOptions) *endpoints.Router {
	t.Helper()

	r := endpoints.New(endpoints.WithLogger(discardLogger()))
	for _, a := range []*memstore.Adapter{bs.authors, bs.series, bs.stores, bs.books} {
		ctrl, err := endpoints.NewController(bs.options(a))
		if err != nil {
			t.Fatalf("controller %s: %v", a.TypeName(), err)
		}
		var opts []endpoints.ResourceOptions
		if a == bs.books {
			opts = ro
		}
		if err := r.Resource(ctrl, opts...); err != nil {
			t.Fatalf("mount %s: %v", a.TypeName(), err)
		}
	}
	return r
}
