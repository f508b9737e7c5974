package memstore

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"

	"github.com/google/uuid"

	"github.com/bjaus/endpoints"
)

// TypeDef describes a resource type.
type TypeDef struct {
	Name      string
	Relations []endpoints.RelationDef
	// ClientIDs allows clients to choose the id of new records.
	ClientIDs bool
	// NewID generates ids for new records. Defaults to random UUIDs.
	NewID func() string
}

// Adapter serves one resource type of a DB. It implements every endpoints
// capability interface and endpoints.RecordStore.
type Adapter struct {
	db  *DB
	def TypeDef
}

var (
	_ endpoints.Creator         = (*Adapter)(nil)
	_ endpoints.Reader          = (*Adapter)(nil)
	_ endpoints.Updater         = (*Adapter)(nil)
	_ endpoints.Destroyer       = (*Adapter)(nil)
	_ endpoints.ClientIDAllower = (*Adapter)(nil)
	_ endpoints.RecordStore     = (*Adapter)(nil)
)

// TypeName implements endpoints.Adapter.
func (a *Adapter) TypeName() string { return a.def.Name }

// Relations implements endpoints.Adapter.
func (a *Adapter) Relations() []endpoints.RelationDef { return slices.Clone(a.def.Relations) }

// AllowsClientID implements endpoints.ClientIDAllower.
func (a *Adapter) AllowsClientID() bool { return a.def.ClientIDs }

// Create implements endpoints.Creator.
func (a *Adapter) Create(ctx context.Context, id string, attrs endpoints.Attributes, rels []endpoints.RelationAttachment) (*endpoints.Resource, error) {
	return endpoints.CreateWith(ctx, a, id, attrs, rels)
}

// Update implements endpoints.Updater.
func (a *Adapter) Update(ctx context.Context, id string, attrs endpoints.Attributes, rels []endpoints.RelationAttachment, previous *endpoints.Resource) (*endpoints.Resource, error) {
	return endpoints.UpdateWith(ctx, a, id, attrs, rels, previous)
}

// Read implements endpoints.Reader. Collection reads support equality
// filters on attributes and on "id".
func (a *Adapter) Read(ctx context.Context, q endpoints.Query) (*endpoints.ResourceData, error) {
	defer a.db.enter(ctx, false)()
	a.db.mu.RLock()
	defer a.db.mu.RUnlock()

	if q.Mode == endpoints.ModeRelated {
		return a.readRelated(q)
	}

	t, err := a.db.table(a.def.Name)
	if err != nil {
		return nil, err
	}

	data := &endpoints.ResourceData{}
	if q.ID != "" {
		r, ok := t.rows[q.ID]
		if !ok {
			return nil, nil
		}
		data.Records = []*endpoints.Resource{t.resource(q.ID, r)}
	} else {
		for _, id := range t.order {
			r := t.rows[id]
			if matches(id, r, q.Filter) {
				data.Records = append(data.Records, t.resource(id, r))
			}
		}
	}

	if err := a.db.include(data, q.Include); err != nil {
		return nil, err
	}
	return data, nil
}

func (a *Adapter) readRelated(q endpoints.Query) (*endpoints.ResourceData, error) {
	base, err := a.db.table(q.BaseType)
	if err != nil {
		return nil, err
	}
	r, ok := base.rows[q.BaseID]
	if !ok {
		return nil, endpoints.Errorf(http.StatusNotFound, "%s %s not found", q.BaseType, q.BaseID)
	}

	var def endpoints.RelationDef
	for _, rd := range base.def.Relations {
		if rd.Name == q.BaseRelation {
			def = rd
		}
	}
	target, err := a.db.table(def.Type)
	if err != nil {
		return nil, err
	}

	data := &endpoints.ResourceData{}
	for _, id := range r.rels[q.BaseRelation] {
		if tr, ok := target.rows[id]; ok {
			data.Records = append(data.Records, target.resource(id, tr))
		}
	}
	for _, name := range q.Include {
		if !slices.ContainsFunc(target.def.Relations, func(rd endpoints.RelationDef) bool { return rd.Name == name }) {
			return nil, endpoints.ParameterError(http.StatusBadRequest, "include", "unknown relationship "+name)
		}
	}
	if err := a.db.include(data, q.Include); err != nil {
		return nil, err
	}
	return data, nil
}

// Destroy implements endpoints.Destroyer. References to the destroyed
// record are removed from every relationship pointing at it.
func (a *Adapter) Destroy(ctx context.Context, id string) error {
	defer a.db.enter(ctx, true)()
	a.db.mu.Lock()
	defer a.db.mu.Unlock()

	t, err := a.db.table(a.def.Name)
	if err != nil {
		return err
	}
	if _, ok := t.rows[id]; !ok {
		return endpoints.Errorf(http.StatusNotFound, "%s %s not found", a.def.Name, id)
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(o string) bool { return o == id })

	for _, other := range a.db.tables {
		for _, rd := range other.def.Relations {
			if rd.Type != a.def.Name {
				continue
			}
			for _, r := range other.rows {
				r.rels[rd.Name] = slices.DeleteFunc(r.rels[rd.Name], func(o string) bool { return o == id })
			}
		}
	}
	return nil
}

// Insert implements endpoints.RecordStore.
func (a *Adapter) Insert(ctx context.Context, id string, attrs endpoints.Attributes) (string, error) {
	defer a.db.enter(ctx, true)()
	a.db.mu.Lock()
	defer a.db.mu.Unlock()

	t, err := a.db.table(a.def.Name)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = a.newID()
	}
	if _, exists := t.rows[id]; exists {
		return "", endpoints.Errorf(http.StatusConflict, "%s %s already exists", a.def.Name, id)
	}

	r := &row{attrs: maps.Clone(attrs), rels: make(map[string][]string)}
	if r.attrs == nil {
		r.attrs = endpoints.Attributes{}
	}
	t.rows[id] = r
	t.order = append(t.order, id)
	return id, nil
}

// Patch implements endpoints.RecordStore.
func (a *Adapter) Patch(ctx context.Context, id string, attrs endpoints.Attributes) error {
	defer a.db.enter(ctx, true)()
	a.db.mu.Lock()
	defer a.db.mu.Unlock()

	r, err := a.row(id)
	if err != nil {
		return err
	}
	maps.Copy(r.attrs, attrs)
	return nil
}

// Attach implements endpoints.RecordStore. To-one relations are replaced;
// to-many relations gain the ids not already present.
func (a *Adapter) Attach(ctx context.Context, id, relation string, ids []string) error {
	defer a.db.enter(ctx, true)()
	a.db.mu.Lock()
	defer a.db.mu.Unlock()

	r, err := a.row(id)
	if err != nil {
		return err
	}
	def, err := a.relation(relation)
	if err != nil {
		return err
	}
	target, err := a.db.table(def.Type)
	if err != nil {
		return err
	}
	for _, rid := range ids {
		if _, ok := target.rows[rid]; !ok {
			return endpoints.Errorf(http.StatusNotFound, "%s %s not found", def.Type, rid)
		}
	}

	if !def.ToMany {
		if len(ids) > 1 {
			return endpoints.Errorf(http.StatusBadRequest, "relationship %s takes a single %s", relation, def.Type)
		}
		r.rels[relation] = slices.Clone(ids)
		return nil
	}
	for _, rid := range ids {
		if !slices.Contains(r.rels[relation], rid) {
			r.rels[relation] = append(r.rels[relation], rid)
		}
	}
	return nil
}

// Detach implements endpoints.RecordStore.
func (a *Adapter) Detach(ctx context.Context, id, relation string) error {
	defer a.db.enter(ctx, true)()
	a.db.mu.Lock()
	defer a.db.mu.Unlock()

	r, err := a.row(id)
	if err != nil {
		return err
	}
	if _, err := a.relation(relation); err != nil {
		return err
	}
	delete(r.rels, relation)
	return nil
}

// Fetch implements endpoints.RecordStore.
func (a *Adapter) Fetch(ctx context.Context, id string) (*endpoints.Resource, error) {
	defer a.db.enter(ctx, false)()
	a.db.mu.RLock()
	defer a.db.mu.RUnlock()

	r, err := a.row(id)
	if err != nil {
		return nil, err
	}
	t, _ := a.db.table(a.def.Name)
	return t.resource(id, r), nil
}

func (a *Adapter) newID() string {
	if a.def.NewID != nil {
		return a.def.NewID()
	}
	return uuid.NewString()
}

// row returns the record id. Callers hold mu.
func (a *Adapter) row(id string) (*row, error) {
	t, err := a.db.table(a.def.Name)
	if err != nil {
		return nil, err
	}
	r, ok := t.rows[id]
	if !ok {
		return nil, endpoints.Errorf(http.StatusNotFound, "%s %s not found", a.def.Name, id)
	}
	return r, nil
}

func (a *Adapter) relation(name string) (endpoints.RelationDef, error) {
	for _, rd := range a.def.Relations {
		if rd.Name == name {
			return rd, nil
		}
	}
	return endpoints.RelationDef{}, endpoints.Errorf(http.StatusBadRequest, "%s has no relationship %s", a.def.Name, name)
}

// table returns the table for typ. Callers hold mu.
func (db *DB) table(typ string) (*table, error) {
	t, ok := db.tables[typ]
	if !ok {
		return nil, fmt.Errorf("memstore: unknown type %q", typ)
	}
	return t, nil
}

// include appends the records related to data.Records through the named
// relations. Callers hold mu.
func (db *DB) include(data *endpoints.ResourceData, relations []string) error {
	for _, rec := range data.Records {
		for _, name := range relations {
			l, ok := rec.Relationships[name]
			if !ok {
				continue
			}
			target, err := db.table(l.Type)
			if err != nil {
				return err
			}
			for _, id := range l.IDs {
				if r, ok := target.rows[id]; ok {
					data.Included = append(data.Included, target.resource(id, r))
				}
			}
		}
	}
	return nil
}

func matches(id string, r *row, filter map[string][]string) bool {
	for field, want := range filter {
		var got string
		if field == "id" {
			got = id
		} else {
			v, ok := r.attrs[field]
			if !ok {
				return false
			}
			got = fmt.Sprint(v)
		}
		if !slices.Contains(want, got) {
			return false
		}
	}
	return true
}
