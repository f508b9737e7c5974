package endpoints

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Router mounts resource handlers on an http.ServeMux. It implements
// http.Handler; requests that match no route get a JSON:API 404.
type Router struct {
	mux        *http.ServeMux
	middleware []Middleware
	routes     []Route

	logger *slog.Logger

	mu sync.Mutex
}

// Route describes a registered route.
type Route struct {
	Method  string
	Pattern string
	Op      Method
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets the logger used to report route registration.
func WithLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = l
	}
}

// New creates a new Router with the given options.
func New(opts ...RouterOption) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware to the router. Middleware is applied in the order added.
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// ResourceOptions overrides the controller defaults per operation.
type ResourceOptions struct {
	Create  Options
	Read    Options
	Update  Options
	Destroy Options
	// Related overrides apply to every related read.
	Related Options
}

// Resource registers the routes for c's resource type under the path of the
// controller's base URL:
//
//	GET    /{type}
//	GET    /{type}/{id}
//	POST   /{type}
//	PATCH  /{type}/{id}
//	DELETE /{type}/{id}
//	GET    /{type}/{base_id}/{relation}   for every relation
//
// Operations the adapter does not implement are skipped. Any configuration
// error aborts registration.
func (r *Router) Resource(c *Controller, opts ...ResourceOptions) error {
	var ro ResourceOptions
	if len(opts) > 0 {
		ro = opts[0]
	}

	a := c.Adapter()
	prefix, err := basePath(c.defaults.BaseURL)
	if err != nil {
		return err
	}
	collection := prefix + "/" + a.TypeName()
	member := collection + "/{id}"

	if _, ok := a.(Reader); ok {
		h, err := c.Read(ro.Read)
		if err != nil {
			return err
		}
		r.handle(http.MethodGet, collection, MethodRead, h)
		r.handle(http.MethodGet, member, MethodRead, h)

		for _, rel := range a.Relations() {
			rh, err := c.Read(Options{Mode: ModeRelated, BaseRelation: rel.Name}, ro.Related)
			if err != nil {
				return err
			}
			r.handle(http.MethodGet, collection+"/{base_id}/"+rel.Name, MethodRead, rh)
		}
	}
	if _, ok := a.(Creator); ok {
		h, err := c.Create(ro.Create)
		if err != nil {
			return err
		}
		r.handle(http.MethodPost, collection, MethodCreate, h)
	}
	if _, ok := a.(Updater); ok {
		h, err := c.Update(ro.Update)
		if err != nil {
			return err
		}
		r.handle(http.MethodPatch, member, MethodUpdate, h)
	}
	if _, ok := a.(Destroyer); ok {
		h, err := c.Destroy(ro.Destroy)
		if err != nil {
			return err
		}
		r.handle(http.MethodDelete, member, MethodDestroy, h)
	}
	return nil
}

// Handle registers an arbitrary handler.
func (r *Router) Handle(method, pattern string, h http.Handler) {
	r.handle(method, pattern, "", h)
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.routes...)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if _, pattern := r.mux.Handler(req); pattern == "" {
			WriteError(w, Errorf(http.StatusNotFound, "no route for %s %s", req.Method, req.URL.Path))
			return
		}
		r.mux.ServeHTTP(w, req)
	}))
	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}
	handler.ServeHTTP(w, req)
}

// ListenAndServe starts an HTTP server on the given address.
// It blocks until the context is cancelled, then shuts down gracefully.
func (r *Router) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (r *Router) handle(method, pattern string, op Method, h http.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.mux.Handle(method+" "+pattern, h)
	r.routes = append(r.routes, Route{Method: method, Pattern: pattern, Op: op})
	r.logger.Debug("route registered", "method", method, "pattern", pattern)
}

// basePath returns the path component of a base URL, without a trailing slash.
func basePath(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	return strings.TrimSuffix(u.Path, "/"), nil
}
