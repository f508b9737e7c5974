package endpoints_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/endpoints"
)

// flakyStore is a RecordStore whose Attach fails for one relation.
type flakyStore struct {
	failOn string

	mu       sync.Mutex
	attached []string
}

func (s *flakyStore) Insert(_ context.Context, id string, _ endpoints.Attributes) (string, error) {
	if id == "" {
		id = "generated"
	}
	return id, nil
}

func (s *flakyStore) Patch(context.Context, string, endpoints.Attributes) error { return nil }

func (s *flakyStore) Attach(_ context.Context, _, relation string, _ []string) error {
	if relation == s.failOn {
		return errors.New("attach failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = append(s.attached, relation)
	return nil
}

func (s *flakyStore) Detach(context.Context, string, string) error { return nil }

func (s *flakyStore) Fetch(_ context.Context, id string) (*endpoints.Resource, error) {
	return &endpoints.Resource{Type: "books", ID: id}, nil
}

func TestCreateWith(t *testing.T) {
	t.Parallel()

	bs := newBookstore(t)
	ctx := context.Background()

	rec, err := endpoints.CreateWith(ctx, bs.books, "", endpoints.Attributes{"title": "The Two Towers"}, []endpoints.RelationAttachment{
		{Name: "author", IDs: []string{"1"}},
		{Name: "stores", IDs: []string{"1", "2"}},
	})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Len(t, rec.ID, 36)
	assert.Equal(t, "The Two Towers", rec.Attributes["title"])
	assert.Equal(t, []string{"1"}, rec.Relationships["author"].IDs)
	assert.ElementsMatch(t, []string{"1", "2"}, rec.Relationships["stores"].IDs)
	assert.Empty(t, rec.Relationships["series"].IDs)
}

func TestCreateWith_client_id(t *testing.T) {
	t.Parallel()

	bs := newBookstore(t)

	rec, err := endpoints.CreateWith(context.Background(), bs.books, "42", endpoints.Attributes{"title": "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "42", rec.ID)

	_, err = endpoints.CreateWith(context.Background(), bs.books, "42", endpoints.Attributes{"title": "y"}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, endpoints.ErrorStatus(err))
}

func TestCreateWith_relation_failure(t *testing.T) {
	t.Parallel()

	s := &flakyStore{failOn: "series"}
	rec, err := endpoints.CreateWith(context.Background(), s, "", nil, []endpoints.RelationAttachment{
		{Name: "author", IDs: []string{"1"}},
		{Name: "series", IDs: []string{"1"}},
	})
	require.ErrorContains(t, err, "relation series: attach failed")
	assert.Nil(t, rec)
}

func TestUpdateWith_applied_as_requested(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		attrs endpoints.Attributes
		rels  []endpoints.RelationAttachment
	}{
		"attribute change": {
			attrs: endpoints.Attributes{"title": "The Fellowship"},
		},
		"same values": {
			attrs: endpoints.Attributes{"title": "The Fellowship of the Ring"},
		},
		"relation replacement": {
			rels: []endpoints.RelationAttachment{{Name: "stores", IDs: []string{"2", "1"}}},
		},
		"cleared to-one": {
			rels: []endpoints.RelationAttachment{{Name: "series", IDs: []string{}}},
		},
		"empty update": {},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			bs := newBookstore(t)
			ctx := context.Background()

			previous, err := bs.books.Fetch(ctx, "1")
			require.NoError(t, err)

			rec, err := endpoints.UpdateWith(ctx, bs.books, "1", tc.attrs, tc.rels, previous)
			require.NoError(t, err)
			assert.Nil(t, rec)

			stored, err := bs.books.Fetch(ctx, "1")
			require.NoError(t, err)
			assert.True(t, endpoints.Unchanged(endpoints.Merge(previous, tc.attrs, tc.rels), stored))
		})
	}
}

func TestUpdateWith_server_side_change(t *testing.T) {
	t.Parallel()

	bs := newBookstore(t)
	ctx := context.Background()

	previous, err := bs.books.Fetch(ctx, "1")
	require.NoError(t, err)

	// A concurrent writer changes a member the client did not touch.
	require.NoError(t, bs.books.Patch(ctx, "1", endpoints.Attributes{"edition": 2}))

	rec, err := endpoints.UpdateWith(ctx, bs.books, "1", endpoints.Attributes{"title": "x"}, nil, previous)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "x", rec.Attributes["title"])
	assert.Equal(t, 2, rec.Attributes["edition"])
}

func TestUpdateWith_idempotent(t *testing.T) {
	t.Parallel()

	bs := newBookstore(t)
	ctx := context.Background()
	attrs := endpoints.Attributes{"title": "Renamed"}
	rels := []endpoints.RelationAttachment{{Name: "stores", IDs: []string{"2"}}}

	previous, err := bs.books.Fetch(ctx, "1")
	require.NoError(t, err)
	_, err = endpoints.UpdateWith(ctx, bs.books, "1", attrs, rels, previous)
	require.NoError(t, err)
	first, err := bs.books.Fetch(ctx, "1")
	require.NoError(t, err)

	_, err = endpoints.UpdateWith(ctx, bs.books, "1", attrs, rels, first)
	require.NoError(t, err)
	second, err := bs.books.Fetch(ctx, "1")
	require.NoError(t, err)

	assert.True(t, endpoints.Unchanged(first, second))
	assert.Equal(t, []string{"2"}, second.Relationships["stores"].IDs)
}

func TestUnchanged(t *testing.T) {
	t.Parallel()

	base := &endpoints.Resource{
		Type:       "books",
		ID:         "1",
		Attributes: endpoints.Attributes{"title": "a"},
		Relationships: map[string]endpoints.Linkage{
			"stores": {Type: "stores", IDs: []string{"1", "2"}, ToMany: true},
		},
	}

	tests := map[string]struct {
		other *endpoints.Resource
		want  bool
	}{
		"identical": {
			other: base.Clone(),
			want:  true,
		},
		"relation order ignored": {
			other: endpoints.Merge(base, nil, []endpoints.RelationAttachment{{Name: "stores", IDs: []string{"2", "1"}}}),
			want:  true,
		},
		"attribute differs": {
			other: endpoints.Merge(base, endpoints.Attributes{"title": "b"}, nil),
		},
		"relation differs": {
			other: endpoints.Merge(base, nil, []endpoints.RelationAttachment{{Name: "stores", IDs: []string{"1"}}}),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, endpoints.Unchanged(base, tc.other))
		})
	}
}
