package endpoints_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bjaus/endpoints"
	"github.com/bjaus/endpoints/memstore"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	books := memstore.New().Define(memstore.TypeDef{Name: "books", Relations: bookRelations})
	reader := readOnly{typ: "books", rels: bookRelations}

	config := func(method endpoints.Method, adapter endpoints.Adapter, mutate func(*endpoints.Options)) endpoints.OperationConfig {
		opts := endpoints.DefaultOptions()
		opts.Adapter = adapter
		if mutate != nil {
			mutate(&opts)
		}
		return endpoints.Configure(method, opts)
	}

	tests := map[string]struct {
		method  endpoints.Method
		adapter endpoints.Adapter
		mutate  func(*endpoints.Options)
		want    []string
	}{
		"valid create": {
			method:  endpoints.MethodCreate,
			adapter: books,
		},
		"valid related read": {
			method:  endpoints.MethodRead,
			adapter: reader,
			mutate: func(o *endpoints.Options) {
				o.Mode = endpoints.ModeRelated
				o.BaseRelation = "stores"
			},
		},
		"no adapter": {
			method: endpoints.MethodRead,
			want:   []string{"no adapter specified"},
		},
		"missing capability": {
			method:  endpoints.MethodCreate,
			adapter: reader,
			want:    []string{`adapter for "books" does not support create`},
		},
		"update needs read": {
			method:  endpoints.MethodUpdate,
			adapter: bareAdapter{},
			want: []string{
				`adapter for "widgets" does not support update`,
				`adapter for "widgets" does not support read`,
			},
		},
		"missing collaborators": {
			method:  endpoints.MethodDestroy,
			adapter: books,
			mutate: func(o *endpoints.Options) {
				o.Store = nil
				o.Formatter = nil
				o.Responder = nil
			},
			want: []string{"no store specified", "no formatter specified", "no responder specified"},
		},
		"nil validator": {
			method:  endpoints.MethodCreate,
			adapter: books,
			mutate: func(o *endpoints.Options) {
				o.Validators = []endpoints.RequestValidator{nil}
			},
			want: []string{"validator 0 is nil"},
		},
		"unknown method": {
			method:  "upsert",
			adapter: books,
			want:    []string{`unknown method "upsert"`},
		},
		"related write": {
			method:  endpoints.MethodCreate,
			adapter: books,
			mutate: func(o *endpoints.Options) {
				o.Mode = endpoints.ModeRelated
				o.BaseRelation = "author"
			},
			want: []string{"related mode is only valid for reads"},
		},
		"unknown base relation": {
			method:  endpoints.MethodRead,
			adapter: reader,
			mutate: func(o *endpoints.Options) {
				o.Mode = endpoints.ModeRelated
				o.BaseRelation = "editor"
			},
			want: []string{`adapter for "books" has no relation "editor"`},
		},
		"related without relation": {
			method:  endpoints.MethodRead,
			adapter: reader,
			mutate: func(o *endpoints.Options) {
				o.Mode = endpoints.ModeRelated
			},
			want: []string{"related mode requires a base relation"},
		},
		"unknown default include": {
			method:  endpoints.MethodRead,
			adapter: reader,
			mutate: func(o *endpoints.Options) {
				o.Relations = []string{"author", "publisher"}
			},
			want: []string{`adapter for "books" has no relation "publisher"`},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := config(tc.method, tc.adapter, tc.mutate)
			assert.Equal(t, tc.want, endpoints.Validate(tc.method, tc.adapter, cfg))
		})
	}
}
