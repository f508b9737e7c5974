package endpoints

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/sync/errgroup"
)

// DefaultAttachLimit bounds how many relation operations run at once for a
// single create or update.
const DefaultAttachLimit = 8

// RecordStore is the primitive storage an adapter builds Create and Update
// from with CreateWith and UpdateWith.
type RecordStore interface {
	// Insert stores a new record and returns its id. An empty id asks the
	// store to generate one.
	Insert(ctx context.Context, id string, attrs Attributes) (string, error)
	Patch(ctx context.Context, id string, attrs Attributes) error
	Attach(ctx context.Context, id, relation string, ids []string) error
	Detach(ctx context.Context, id, relation string) error
	Fetch(ctx context.Context, id string) (*Resource, error)
}

// CreateWith inserts a record, attaches every relation and returns the
// record as reloaded after the attachments.
func CreateWith(ctx context.Context, s RecordStore, id string, attrs Attributes, rels []RelationAttachment) (*Resource, error) {
	newID, err := s.Insert(ctx, id, attrs)
	if err != nil {
		return nil, err
	}

	err = eachRelation(ctx, rels, func(ctx context.Context, rel RelationAttachment) error {
		return s.Attach(ctx, newID, rel.Name, rel.IDs)
	})
	if err != nil {
		return nil, err
	}
	return s.Fetch(ctx, newID)
}

// UpdateWith patches a record and replaces the id set of every given
// relation. It returns nil when the reloaded record equals previous with the
// requested changes applied, meaning the server changed nothing beyond what
// was asked for.
func UpdateWith(ctx context.Context, s RecordStore, id string, attrs Attributes, rels []RelationAttachment, previous *Resource) (*Resource, error) {
	if err := s.Patch(ctx, id, attrs); err != nil {
		return nil, err
	}

	err := eachRelation(ctx, rels, func(ctx context.Context, rel RelationAttachment) error {
		if err := s.Detach(ctx, id, rel.Name); err != nil {
			return err
		}
		return s.Attach(ctx, id, rel.Name, rel.IDs)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if previous != nil && Unchanged(updated, Merge(previous, attrs, rels)) {
		return nil, nil
	}
	return updated, nil
}

// Merge returns a copy of r with attrs applied and each relation's ids
// replaced.
func Merge(r *Resource, attrs Attributes, rels []RelationAttachment) *Resource {
	out := r.Clone()
	if out.Attributes == nil && len(attrs) > 0 {
		out.Attributes = make(Attributes, len(attrs))
	}
	for k, v := range attrs {
		out.Attributes[k] = v
	}
	if out.Relationships == nil && len(rels) > 0 {
		out.Relationships = make(map[string]Linkage, len(rels))
	}
	for _, rel := range rels {
		l := out.Relationships[rel.Name]
		l.IDs = append([]string(nil), rel.IDs...)
		out.Relationships[rel.Name] = l
	}
	return out
}

// Unchanged reports whether a and b describe the same state. Relation ids
// are compared as sets.
func Unchanged(a, b *Resource) bool {
	return cmp.Equal(a, b,
		cmpopts.SortSlices(func(x, y string) bool { return x < y }),
		cmpopts.EquateEmpty(),
	)
}

// eachRelation runs fn for every relation concurrently, at most
// DefaultAttachLimit at a time. The first failure cancels the context passed
// to the others and is returned.
func eachRelation(ctx context.Context, rels []RelationAttachment, fn func(context.Context, RelationAttachment) error) error {
	if len(rels) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultAttachLimit)
	for _, rel := range rels {
		g.Go(func() error {
			if err := fn(gctx, rel); err != nil {
				return fmt.Errorf("relation %s: %w", rel.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
