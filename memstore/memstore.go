// Package memstore is an in-memory storage backend for endpoints. It keeps
// every resource type in one DB so related resources can be resolved and
// included, and implements endpoints.Store with snapshot and rollback.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/bjaus/endpoints"
)

// DB holds the tables of every defined resource type.
type DB struct {
	// txMu is held exclusively by a unit of work and shared by operations
	// outside one, so readers never see uncommitted records. mu guards the
	// tables.
	txMu sync.RWMutex
	mu   sync.RWMutex

	tables map[string]*table
}

type table struct {
	def   TypeDef
	rows  map[string]*row
	order []string
}

type row struct {
	attrs endpoints.Attributes
	rels  map[string][]string
}

// New returns an empty DB.
func New() *DB {
	return &DB{tables: make(map[string]*table)}
}

type txKey struct{ db *DB }

// Atomic runs fn as a unit of work. If fn fails, every change made while it
// ran is rolled back. Operations given the context passed to fn join the
// unit of work; any other operation waits for it to finish. Nested calls
// join the outer unit of work.
func (db *DB) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.inTx(ctx) {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	snap := db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{db}, true)); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

func (db *DB) inTx(ctx context.Context) bool {
	return ctx.Value(txKey{db}) != nil
}

// enter waits for any running unit of work unless ctx belongs to it. Writes
// outside a unit of work exclude each other and every unit of work.
func (db *DB) enter(ctx context.Context, write bool) (leave func()) {
	switch {
	case db.inTx(ctx):
		return func() {}
	case write:
		db.txMu.Lock()
		return db.txMu.Unlock
	default:
		db.txMu.RLock()
		return db.txMu.RUnlock
	}
}

// Define registers a resource type and returns its adapter. Defining a type
// twice returns an adapter for the first definition.
func (db *DB) Define(def TypeDef) *Adapter {
	db.mu.Lock()
	defer db.mu.Unlock()

	if t, ok := db.tables[def.Name]; ok {
		return &Adapter{db: db, def: t.def}
	}
	def.Relations = slices.Clone(def.Relations)
	db.tables[def.Name] = &table{def: def, rows: make(map[string]*row)}
	return &Adapter{db: db, def: def}
}

// Seed stores a record as is, bypassing relation checks. It is meant for
// fixtures.
func (db *DB) Seed(typ, id string, attrs endpoints.Attributes, rels map[string][]string) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.tables[typ]
	if !ok {
		return fmt.Errorf("memstore: unknown type %q", typ)
	}
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	r := &row{attrs: maps.Clone(attrs), rels: make(map[string][]string)}
	if r.attrs == nil {
		r.attrs = endpoints.Attributes{}
	}
	for name, ids := range rels {
		r.rels[name] = slices.Clone(ids)
	}
	t.rows[id] = r
	return nil
}

// Len returns the number of records of type typ.
func (db *DB) Len(typ string) int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if t, ok := db.tables[typ]; ok {
		return len(t.rows)
	}
	return 0
}

type snapshot map[string]*table

func (db *DB) snapshot() snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()

	snap := make(snapshot, len(db.tables))
	for name, t := range db.tables {
		snap[name] = t.clone()
	}
	return snap
}

func (db *DB) restore(snap snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables = snap
}

func (t *table) clone() *table {
	out := &table{
		def:   t.def,
		rows:  make(map[string]*row, len(t.rows)),
		order: slices.Clone(t.order),
	}
	for id, r := range t.rows {
		out.rows[id] = r.clone()
	}
	return out
}

func (r *row) clone() *row {
	out := &row{attrs: maps.Clone(r.attrs), rels: make(map[string][]string, len(r.rels))}
	for name, ids := range r.rels {
		out.rels[name] = slices.Clone(ids)
	}
	return out
}

// resource builds the endpoints view of a row. Callers hold mu.
func (t *table) resource(id string, r *row) *endpoints.Resource {
	res := &endpoints.Resource{
		Type:       t.def.Name,
		ID:         id,
		Attributes: maps.Clone(r.attrs),
	}
	if len(t.def.Relations) > 0 {
		res.Relationships = make(map[string]endpoints.Linkage, len(t.def.Relations))
	}
	for _, rd := range t.def.Relations {
		res.Relationships[rd.Name] = endpoints.Linkage{
			Type:   rd.Type,
			IDs:    slices.Clone(r.rels[rd.Name]),
			ToMany: rd.ToMany,
		}
	}
	return res
}
