// Package endpoints builds JSON:API resource endpoints from storage adapters.
// An adapter declares a resource type and the operations it supports; the
// package turns it into http.Handlers that decode request documents, check
// them, call the adapter inside a unit of work and format the result.
//
// Every request runs the same pipeline:
//
//	Configure  merge controller defaults with per-route options
//	Validate   reject incompatible configurations at startup
//	Process    decode, check and dispatch to the adapter
//	Format     shape adapter results, applying the not-found policy
//	Respond    write the envelope to the transport
//
// A Controller wires these together for one adapter:
//
//	ctrl, err := endpoints.NewController(endpoints.Options{
//	    Adapter: db.Define(memstore.TypeDef{Name: "books"}),
//	    BaseURL: "https://api.example.com/v1",
//	    Store:   db,
//	    Formatter: endpoints.JSONAPI,
//	    Responder: endpoints.HTTPResponder{},
//	})
//	read, err := ctrl.Read()
//
// Router mounts every operation of a controller on an http.ServeMux:
//
//	r := endpoints.New()
//	r.Use(endpoints.Recovery(), endpoints.RequestID())
//	if err := r.Resource(ctrl); err != nil { ... }
//	r.ListenAndServe(ctx, ":8080")
//
// Middleware uses the standard func(http.Handler) http.Handler signature,
// so the entire Go middleware ecosystem works natively.
//
// Errors returned by adapters and validators are reported as JSON:API error
// objects. Errors implementing StatusCoder keep their status; anything else
// becomes a 500 whose detail is withheld from the client.
package endpoints
