package endpoints_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/endpoints"
)

func TestConfigure_method_defaults(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		method     endpoints.Method
		wantSingle *bool
	}{
		"create is single":  {method: endpoints.MethodCreate, wantSingle: endpoints.Bool(true)},
		"update is single":  {method: endpoints.MethodUpdate, wantSingle: endpoints.Bool(true)},
		"destroy is single": {method: endpoints.MethodDestroy, wantSingle: endpoints.Bool(true)},
		"read is derived":   {method: endpoints.MethodRead},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := endpoints.Configure(tc.method, endpoints.DefaultOptions())
			assert.Equal(t, tc.method, cfg.Method)
			assert.Equal(t, tc.wantSingle, cfg.SingleResult)
			assert.NotNil(t, cfg.Formatter)
			assert.NotNil(t, cfg.Responder)
			assert.NotNil(t, cfg.Store)
			assert.NotNil(t, cfg.Logger)
		})
	}
}

func TestConfigure_later_options_win(t *testing.T) {
	t.Parallel()

	adapter := readOnly{typ: "books", rels: bookRelations}
	defaults := endpoints.DefaultOptions()
	defaults.Adapter = adapter
	defaults.BaseURL = "http://a.example"
	defaults.Relations = []string{"author"}

	cfg := endpoints.Configure(endpoints.MethodRead, defaults, endpoints.Options{
		BaseURL:      "http://b.example",
		SingleResult: endpoints.Bool(false),
	})

	assert.Equal(t, "http://b.example", cfg.BaseURL)
	assert.Equal(t, []string{"author"}, cfg.Relations)
	require.NotNil(t, cfg.SingleResult)
	assert.False(t, *cfg.SingleResult)
	assert.Equal(t, adapter, cfg.Adapter)
}

func TestConfigure_does_not_alias_options(t *testing.T) {
	t.Parallel()

	v := func(context.Context, *endpoints.Request, *endpoints.OperationConfig) error { return nil }
	opts := endpoints.Options{
		Relations:    []string{"author"},
		Validators:   []endpoints.RequestValidator{v},
		SingleResult: endpoints.Bool(true),
	}

	cfg := endpoints.Configure(endpoints.MethodRead, opts)
	cfg.Relations[0] = "series"
	cfg.Validators[0] = nil
	*cfg.SingleResult = false

	assert.Equal(t, []string{"author"}, opts.Relations)
	assert.NotNil(t, opts.Validators[0])
	assert.True(t, *opts.SingleResult)
}

func TestConfigure_related_base_type(t *testing.T) {
	t.Parallel()

	cfg := endpoints.Configure(endpoints.MethodRead, endpoints.Options{
		Adapter:      readOnly{typ: "books", rels: bookRelations},
		Mode:         endpoints.ModeRelated,
		BaseRelation: "author",
	})
	assert.Equal(t, "books", cfg.BaseType)
}
