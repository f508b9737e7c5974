package endpoints_test

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/endpoints"
	"github.com/bjaus/endpoints/apitest"
)

const bookSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"pages": {"type": "integer"}
	},
	"required": ["title"]
}`

func TestLoadSchema(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.json"), []byte(bookSchema), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"type": 7}`), 0o600))

	tests := map[string]struct {
		file        string
		wantFound   bool
		wantMissing bool
		wantErr     bool
	}{
		"found":   {file: "books.json", wantFound: true},
		"missing": {file: "authors.json", wantMissing: true},
		"invalid": {file: "broken.json", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res := endpoints.LoadSchema(filepath.Join(dir, tc.file))
			assert.Equal(t, tc.wantFound, res.Found())
			assert.Equal(t, tc.wantMissing, res.Missing)
			if tc.wantErr {
				require.Error(t, res.Err)
				return
			}
			require.NoError(t, res.Err)
		})
	}
}

func TestJSONSchema(t *testing.T) {
	t.Parallel()

	schema, err := endpoints.CompileSchema("books.json", []byte(bookSchema))
	require.NoError(t, err)
	validate := endpoints.JSONSchema(schema)

	tests := map[string]struct {
		attrs        endpoints.Attributes
		raw          string
		wantPointers []string
	}{
		"valid": {
			attrs: endpoints.Attributes{"title": "The Hobbit", "pages": 310},
		},
		"missing required": {
			attrs:        endpoints.Attributes{"pages": 310},
			wantPointers: []string{"/data/attributes"},
		},
		"wrong types": {
			attrs:        endpoints.Attributes{"title": "", "pages": "many"},
			wantPointers: []string{"/data/attributes/pages", "/data/attributes/title"},
		},
		"raw document wins over decoded attributes": {
			attrs:        endpoints.Attributes{"title": "The Hobbit", "pages": 310},
			raw:          `{"type": "books", "attributes": {"title": "The Hobbit", "pages": 310.5}}`,
			wantPointers: []string{"/data/attributes/pages"},
		},
		"raw document without attributes": {
			raw:          `{"type": "books"}`,
			wantPointers: []string{"/data/attributes"},
		},
		"raw integer": {
			raw: `{"type": "books", "attributes": {"title": "The Hobbit", "pages": 310}}`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			req := &endpoints.Request{Data: &endpoints.PrimaryData{Type: "books", Attributes: tc.attrs, Raw: json.RawMessage(tc.raw)}}
			err := validate(context.Background(), req, nil)
			if tc.wantPointers == nil {
				require.NoError(t, err)
				return
			}

			var verrs endpoints.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			pointers := make([]string, len(verrs))
			for i, fe := range verrs {
				pointers[i] = fe.Pointer
				assert.NotEmpty(t, fe.Message)
			}
			assert.ElementsMatch(t, tc.wantPointers, pointers)
		})
	}
}

func TestJSONSchema_skips_requests_without_data(t *testing.T) {
	t.Parallel()

	schema, err := endpoints.CompileSchema("books.json", []byte(bookSchema))
	require.NoError(t, err)
	require.NoError(t, endpoints.JSONSchema(schema)(context.Background(), &endpoints.Request{}, nil))
}

func TestJSONSchema_on_create_route(t *testing.T) {
	t.Parallel()

	schema, err := endpoints.CompileSchema("books.json", []byte(bookSchema))
	require.NoError(t, err)

	bs := newBookstore(t)
	client := apitest.NewClient(t, bs.router(t, endpoints.ResourceOptions{
		Create: endpoints.Options{Validators: []endpoints.RequestValidator{endpoints.JSONSchema(schema)}},
	}))

	resp := client.Post(t, "/books", bookDoc(map[string]any{"pages": "many"}, nil))
	require.Equal(t, http.StatusBadRequest, resp.Status)
	require.NotNil(t, resp.Doc)
	assert.False(t, resp.Doc.Has("data"))
	require.Len(t, resp.Doc.Errors, 2)
	for _, obj := range resp.Doc.Errors {
		assert.Equal(t, "400", obj.Status)
		require.NotNil(t, obj.Source)
	}
	assert.Equal(t, 1, bs.db.Len("books"))

	resp = client.Post(t, "/books", bookDoc(map[string]any{"title": "Valid"}, nil))
	assert.Equal(t, http.StatusCreated, resp.Status)
}
