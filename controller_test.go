package endpoints_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/endpoints"
)

func TestNewController_requires_adapter(t *testing.T) {
	t.Parallel()

	ctrl, err := endpoints.NewController(endpoints.DefaultOptions())
	require.ErrorIs(t, err, endpoints.ErrNoAdapter)
	assert.Nil(t, ctrl)
}

func TestController_build(t *testing.T) {
	t.Parallel()

	opts := endpoints.DefaultOptions()
	opts.Adapter = readOnly{typ: "books", rels: bookRelations}
	ctrl, err := endpoints.NewController(opts)
	require.NoError(t, err)

	h, err := ctrl.Read(endpoints.Options{Relations: []string{"author"}})
	require.NoError(t, err)
	cfg := h.Config()
	assert.Equal(t, endpoints.MethodRead, cfg.Method)
	assert.Equal(t, []string{"author"}, cfg.Relations)

	h, err = ctrl.Create()
	require.ErrorIs(t, err, endpoints.ErrConfig)
	assert.Nil(t, h)

	var cerr *endpoints.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, endpoints.MethodCreate, cerr.Method)
	assert.Equal(t, []string{`adapter for "books" does not support create`}, cerr.Failures)

	assert.Panics(t, func() { ctrl.MustDestroy() })
	assert.NotPanics(t, func() { ctrl.MustRead() })
}

func TestController_handlers_are_independent(t *testing.T) {
	t.Parallel()

	opts := endpoints.DefaultOptions()
	opts.Adapter = readOnly{typ: "books", rels: bookRelations}
	ctrl, err := endpoints.NewController(opts)
	require.NoError(t, err)

	a := ctrl.MustRead(endpoints.Options{Relations: []string{"author"}})
	b := ctrl.MustRead()

	assert.Equal(t, []string{"author"}, a.Config().Relations)
	assert.Empty(t, b.Config().Relations)
}
