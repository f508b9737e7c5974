package main

import (
	"github.com/bjaus/endpoints"
	"github.com/bjaus/endpoints/memstore"
)

type fixture struct {
	typ   string
	id    string
	attrs endpoints.Attributes
	rels  map[string][]string
}

var fixtures = []fixture{
	{typ: "authors", id: "1", attrs: endpoints.Attributes{"name": "J. R. R. Tolkien"}},
	{typ: "authors", id: "2", attrs: endpoints.Attributes{"name": "J. K. Rowling"}},
	{typ: "series", id: "1", attrs: endpoints.Attributes{"title": "The Lord of the Rings"}},
	{typ: "series", id: "2", attrs: endpoints.Attributes{"title": "Harry Potter"}},
	{typ: "stores", id: "1", attrs: endpoints.Attributes{"name": "Barnes & Noble"}},
	{typ: "stores", id: "2", attrs: endpoints.Attributes{"name": "Borders"}},
	{
		typ:   "books",
		id:    "1",
		attrs: endpoints.Attributes{"title": "The Fellowship of the Ring", "date_published": "1954-07-29"},
		rels:  map[string][]string{"author": {"1"}, "series": {"1"}, "stores": {"1", "2"}},
	},
	{
		typ:   "books",
		id:    "2",
		attrs: endpoints.Attributes{"title": "The Two Towers", "date_published": "1954-11-11"},
		rels:  map[string][]string{"author": {"1"}, "series": {"1"}, "stores": {"1"}},
	},
	{
		typ:   "books",
		id:    "3",
		attrs: endpoints.Attributes{"title": "Harry Potter and the Philosopher's Stone", "date_published": "1997-06-26"},
		rels:  map[string][]string{"author": {"2"}, "series": {"2"}},
	},
}

func seed(db *memstore.DB) error {
	for _, f := range fixtures {
		if err := db.Seed(f.typ, f.id, f.attrs, f.rels); err != nil {
			return err
		}
	}
	return nil
}
