package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bjaus/endpoints"
	"github.com/bjaus/endpoints/memstore"
)

// resourceTypes are the types the bookstore serves.
var resourceTypes = []memstore.TypeDef{
	{Name: "authors"},
	{Name: "series"},
	{Name: "stores"},
	{
		Name: "books",
		Relations: []endpoints.RelationDef{
			{Name: "author", Type: "authors"},
			{Name: "series", Type: "series"},
			{Name: "stores", Type: "stores", ToMany: true},
		},
	},
}

type app struct {
	db     *memstore.DB
	router *endpoints.Router
}

func newApp(cfg Config, logger *slog.Logger) (*app, error) {
	a := &app{
		db:     memstore.New(),
		router: endpoints.New(endpoints.WithLogger(logger)),
	}

	a.router.Use(endpoints.Recovery())
	a.router.Use(endpoints.RequestID())
	a.router.Use(endpoints.Logger(logger))
	if len(cfg.CORS.Origins) > 0 {
		a.router.Use(endpoints.CORS(endpoints.CORSConfig{
			AllowOrigins: cfg.CORS.Origins,
			MaxAge:       cfg.CORS.MaxAge,
		}))
	}
	if cfg.Timeout > 0 {
		a.router.Use(endpoints.Timeout(cfg.Timeout))
	}
	if cfg.BodyLimit > 0 {
		a.router.Use(endpoints.BodyLimit(cfg.BodyLimit))
	}
	if cfg.RateLimit.Rate > 0 {
		a.router.Use(endpoints.RateLimit(endpoints.RateLimitConfig{
			Rate:  cfg.RateLimit.Rate,
			Burst: cfg.RateLimit.Burst,
		}))
	}

	defaults := endpoints.DefaultOptions()
	defaults.BaseURL = cfg.BaseURL
	defaults.Store = a.db
	defaults.Logger = logger

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		obs, err := endpoints.NewPrometheusObserver(reg, cfg.Metrics.Namespace)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		defaults.Observer = obs
		a.router.Handle(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	for _, def := range resourceTypes {
		def.ClientIDs = slices.Contains(cfg.ClientIDs, def.Name)
		if err := a.mount(a.db.Define(def), defaults, cfg.SchemaDir); err != nil {
			return nil, fmt.Errorf("mount %s: %w", def.Name, err)
		}
	}

	if cfg.Fixtures {
		if err := seed(a.db); err != nil {
			return nil, fmt.Errorf("fixtures: %w", err)
		}
	}
	return a, nil
}

// mount registers the routes of one resource type. A JSON Schema found in
// schemaDir validates create requests.
func (a *app) mount(adapter endpoints.Adapter, defaults endpoints.Options, schemaDir string) error {
	opts := defaults
	opts.Adapter = adapter
	ctrl, err := endpoints.NewController(opts)
	if err != nil {
		return err
	}

	var ro endpoints.ResourceOptions
	res := endpoints.LoadSchema(filepath.Join(schemaDir, adapter.TypeName()+".json"))
	switch {
	case res.Err != nil:
		return res.Err
	case res.Found():
		ro.Create.Validators = []endpoints.RequestValidator{endpoints.JSONSchema(res.Schema)}
	case res.Missing:
	}
	return a.router.Resource(ctrl, ro)
}
