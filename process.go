package endpoints

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"time"
)

var errPanic = errors.New("panic in request pipeline")

// Handler runs the request pipeline for one operation. It is safe for
// concurrent use; nothing it holds is modified after Process returns.
type Handler struct {
	cfg     OperationConfig
	adapter Adapter

	creator   Creator
	reader    Reader
	updater   Updater
	destroyer Destroyer
}

// Process builds the Handler for cfg. The configuration must have passed
// Validate; Controller does both.
func Process(cfg OperationConfig, adapter Adapter) *Handler {
	cfg.Validators = slices.Clone(cfg.Validators)
	cfg.Relations = slices.Clone(cfg.Relations)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	h := &Handler{cfg: cfg, adapter: adapter}
	h.creator, _ = adapter.(Creator)
	h.reader, _ = adapter.(Reader)
	h.updater, _ = adapter.(Updater)
	h.destroyer, _ = adapter.(Destroyer)
	return h
}

// Config returns a copy of the handler's configuration.
func (h *Handler) Config() OperationConfig {
	cfg := h.cfg
	cfg.Validators = slices.Clone(cfg.Validators)
	cfg.Relations = slices.Clone(cfg.Relations)
	return cfg
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	attrs := []slog.Attr{
		slog.String("resource", h.adapter.TypeName()),
		slog.String("operation", string(h.cfg.Method)),
	}
	if h.cfg.Mode == ModeRelated {
		attrs = append(attrs, slog.String("relation", h.cfg.BaseRelation))
	}
	AddLogAttrs(r.Context(), attrs...)

	var env *Envelope
	req, err := NewRequest(r)
	if err != nil {
		env = h.fail(r.Context(), err)
	} else {
		env = h.Handle(r.Context(), req)
	}

	h.cfg.Responder.Respond(w, r, env)

	if h.cfg.Observer != nil {
		h.cfg.Observer.Observe(r.Context(), Observation{
			Type:     h.adapter.TypeName(),
			Method:   h.cfg.Method,
			Status:   env.Code,
			Duration: time.Since(start),
		})
	}
}

// Handle runs the pipeline for req and returns the envelope to respond with.
// It never panics and never returns nil.
func (h *Handler) Handle(ctx context.Context, req *Request) (env *Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			h.cfg.Logger.ErrorContext(ctx, "panic recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
				"type", h.adapter.TypeName(),
				"method", string(h.cfg.Method),
			)
			env = errorEnvelope(errPanic)
		}
	}()

	if err := h.check(ctx, req); err != nil {
		return h.fail(ctx, err)
	}

	switch h.cfg.Method {
	case MethodCreate:
		return h.create(ctx, req)
	case MethodRead:
		return h.read(ctx, req)
	case MethodUpdate:
		return h.update(ctx, req)
	case MethodDestroy:
		return h.destroy(ctx, req)
	}
	return h.fail(ctx, fmt.Errorf("unknown method %q", h.cfg.Method))
}

// check runs the built-in document checks followed by the configured
// validators, stopping at the first failure.
func (h *Handler) check(ctx context.Context, req *Request) error {
	switch h.cfg.Method {
	case MethodCreate, MethodUpdate:
		if err := checkMediaType(req.ContentType); err != nil {
			return err
		}
		data, err := decodePrimaryData(req.Body, h.adapter)
		if err != nil {
			return err
		}
		req.Data = data
	case MethodRead, MethodDestroy:
	}

	switch h.cfg.Method {
	case MethodCreate:
		if req.Data.HasID() && !allowsClientID(h.adapter) {
			return PointerError(http.StatusForbidden, "/data/id", "client-generated ids are not supported for "+h.adapter.TypeName())
		}
	case MethodUpdate:
		if req.Data.ID == "" {
			return PointerError(http.StatusBadRequest, "/data/id", "primary data must have an id member")
		}
		if req.Data.ID != req.ID {
			return PointerError(http.StatusConflict, "/data/id",
				fmt.Sprintf("id %q does not match endpoint id %q", req.Data.ID, req.ID))
		}
	case MethodRead, MethodDestroy:
	}

	// Related reads include relations of the related type, which the
	// adapter checks itself.
	if h.cfg.Mode != ModeRelated {
		for _, name := range req.Include {
			if _, ok := relationDef(h.adapter, name); !ok {
				return ParameterError(http.StatusBadRequest, "include", "unknown relationship "+name)
			}
		}
	}

	// Each validator gets its own copy; the handler's config never changes.
	for _, v := range h.cfg.Validators {
		cfg := h.Config()
		if err := v(ctx, req, &cfg); err != nil {
			return asClientError(err)
		}
	}
	return nil
}

func (h *Handler) create(ctx context.Context, req *Request) *Envelope {
	var created *Resource
	err := h.cfg.Store.Atomic(ctx, func(ctx context.Context) error {
		var err error
		created, err = h.creator.Create(ctx, req.Data.ID, req.Data.Attributes, req.Data.Relationships)
		return err
	})
	if err != nil {
		return h.fail(ctx, err)
	}
	if created == nil {
		return h.fail(ctx, errors.New("adapter returned no record from create"))
	}
	return h.record(ctx, req, http.StatusCreated, created)
}

func (h *Handler) read(ctx context.Context, req *Request) *Envelope {
	shape := h.shape(req)
	data, err := h.reader.Read(ctx, Query{
		ID:           req.ID,
		Include:      shape.Relations,
		Filter:       req.Filter,
		Mode:         shape.Mode,
		BaseType:     shape.BaseType,
		BaseID:       shape.BaseID,
		BaseRelation: shape.BaseRelation,
	})
	if err != nil {
		return h.fail(ctx, err)
	}
	if data != nil {
		data.SingleResult = shape.SingleResult
		data.Relations = shape.Relations
		data.Mode = shape.Mode
		data.BaseType = shape.BaseType
		data.BaseID = shape.BaseID
		data.BaseRelation = shape.BaseRelation
	}
	return h.envelope(ctx, formatRead(h.cfg.Formatter, data, shape))
}

func (h *Handler) update(ctx context.Context, req *Request) *Envelope {
	var updated *Resource
	err := h.cfg.Store.Atomic(ctx, func(ctx context.Context) error {
		prev, err := h.reader.Read(ctx, Query{ID: req.ID})
		if err != nil {
			return err
		}
		if prev == nil || len(prev.Records) == 0 {
			return Error(http.StatusNotFound, "Resource not found.")
		}
		updated, err = h.updater.Update(ctx, req.ID, req.Data.Attributes, req.Data.Relationships, prev.Records[0].Clone())
		return err
	})
	if err != nil {
		return h.fail(ctx, err)
	}
	return h.record(ctx, req, http.StatusOK, updated)
}

func (h *Handler) destroy(ctx context.Context, req *Request) *Envelope {
	if err := h.destroyer.Destroy(ctx, req.ID); err != nil {
		return h.fail(ctx, err)
	}
	return &Envelope{Code: http.StatusNoContent}
}

// record formats the result of a create or update. When relations are to
// be included the record is read back with them.
func (h *Handler) record(ctx context.Context, req *Request, code int, rec *Resource) *Envelope {
	shape := h.shape(req)
	shape.SingleResult = true
	if rec == nil || len(shape.Relations) == 0 || h.reader == nil {
		return h.envelope(ctx, formatRecord(h.cfg.Formatter, code, rec, shape))
	}

	data, err := h.reader.Read(ctx, Query{ID: rec.ID, Include: shape.Relations})
	if err != nil {
		return h.fail(ctx, err)
	}
	if data == nil || len(data.Records) == 0 {
		return h.envelope(ctx, formatRecord(h.cfg.Formatter, code, rec, shape))
	}
	return h.envelope(ctx, formatWith(h.cfg.Formatter, code, data, shape))
}

// shape derives the shaping metadata for req.
func (h *Handler) shape(req *Request) Shaping {
	shape := Shaping{
		Type:         h.adapter.TypeName(),
		BaseURL:      h.cfg.BaseURL,
		Mode:         h.cfg.Mode,
		BaseType:     h.cfg.BaseType,
		BaseRelation: h.cfg.BaseRelation,
		SingleResult: req.ID != "",
	}

	for _, name := range slices.Concat(h.cfg.Relations, req.Include) {
		if !slices.Contains(shape.Relations, name) {
			shape.Relations = append(shape.Relations, name)
		}
	}

	if shape.Mode == ModeRelated {
		shape.BaseID = req.BaseID
		if shape.BaseID == "" {
			shape.BaseID = req.ID
		}
		def, _ := relationDef(h.adapter, shape.BaseRelation)
		shape.Type = def.Type
		shape.SingleResult = !def.ToMany
	}

	if h.cfg.SingleResult != nil && h.cfg.Method == MethodRead {
		shape.SingleResult = *h.cfg.SingleResult
	}
	return shape
}

// envelope logs server-side failures produced while formatting.
func (h *Handler) envelope(ctx context.Context, env *Envelope) *Envelope {
	if env.Code >= http.StatusInternalServerError {
		h.cfg.Logger.ErrorContext(ctx, "format failed",
			"type", h.adapter.TypeName(),
			"method", string(h.cfg.Method),
			"status", env.Code,
		)
	}
	return env
}

func (h *Handler) fail(ctx context.Context, err error) *Envelope {
	env := errorEnvelope(err)
	if env.Code >= http.StatusInternalServerError {
		h.cfg.Logger.ErrorContext(ctx, "request failed",
			"type", h.adapter.TypeName(),
			"method", string(h.cfg.Method),
			"err", err,
		)
	}
	return env
}

func allowsClientID(a Adapter) bool {
	ca, ok := a.(ClientIDAllower)
	return ok && ca.AllowsClientID()
}

// asClientError gives validator errors without a status a 400.
func asClientError(err error) error {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return err
	}
	return Error(http.StatusBadRequest, err.Error())
}
