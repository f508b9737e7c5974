package endpoints

import "context"

// Adapter is the storage collaborator for one resource type. The operations
// it supports are declared by implementing Creator, Reader, Updater and
// Destroyer.
type Adapter interface {
	// TypeName is the JSON:API type of the resources this adapter serves.
	TypeName() string
	// Relations lists the relationships a resource of this type has.
	Relations() []RelationDef
}

// RelationDef describes one relationship of a resource type.
type RelationDef struct {
	Name   string
	Type   string
	ToMany bool
}

// Creator persists new resources. An empty id asks the adapter to generate
// one; a non-empty id was supplied by the client.
type Creator interface {
	Create(ctx context.Context, id string, attrs Attributes, rels []RelationAttachment) (*Resource, error)
}

// Reader finds resources.
type Reader interface {
	Read(ctx context.Context, q Query) (*ResourceData, error)
}

// Updater applies partial updates. Update returns nil when the update
// produced no observable change.
type Updater interface {
	Update(ctx context.Context, id string, attrs Attributes, rels []RelationAttachment, previous *Resource) (*Resource, error)
}

// Destroyer removes resources.
type Destroyer interface {
	Destroy(ctx context.Context, id string) error
}

// ClientIDAllower is implemented by adapters that accept client-generated ids.
type ClientIDAllower interface {
	AllowsClientID() bool
}

// Store is the unit-of-work boundary for an adapter. Create and update run
// their base write and every relation operation inside a single Atomic call.
type Store interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// Atomic calls f(ctx, fn).
func (f StoreFunc) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// NoTransaction is a Store for backends without transactions. A failure
// partway through a create or update can leave partial state behind.
var NoTransaction Store = StoreFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})

// Query describes a read.
type Query struct {
	// ID selects a single resource. Empty means the whole collection.
	ID      string
	Include []string
	Filter  map[string][]string

	// Related reads traverse BaseRelation of the BaseType resource BaseID.
	Mode         Mode
	BaseType     string
	BaseID       string
	BaseRelation string
}

func relationDef(a Adapter, name string) (RelationDef, bool) {
	for _, rd := range a.Relations() {
		if rd.Name == name {
			return rd, true
		}
	}
	return RelationDef{}, false
}
