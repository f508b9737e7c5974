package endpoints

import (
	"log/slog"
	"slices"
)

// Options describes an operation. Controllers hold one set as defaults and
// every handler factory call may pass another; non-zero fields of later
// options override earlier ones.
type Options struct {
	Adapter    Adapter
	BaseURL    string
	Formatter  FormatFunc
	Store      Store
	Responder  Responder
	Validators []RequestValidator

	// Relations are always included in read responses, in addition to the
	// relations requested with the include query parameter.
	Relations []string

	Mode         Mode
	BaseType     string
	BaseRelation string

	// SingleResult forces single or collection shaping of read results.
	// Leave nil to derive it from the request: reads by id are single.
	SingleResult *bool

	Logger   *slog.Logger
	Observer Observer
}

// DefaultOptions returns options wired to the JSON:API formatter, the
// net/http responder and no transaction support.
func DefaultOptions() Options {
	return Options{
		Formatter: JSONAPI,
		Responder: HTTPResponder{},
		Store:     NoTransaction,
	}
}

// OperationConfig is the normalized configuration of one handler. It is
// built once and never mutated afterwards.
type OperationConfig struct {
	Method       Method
	BaseURL      string
	Adapter      Adapter
	Formatter    FormatFunc
	Store        Store
	Responder    Responder
	Validators   []RequestValidator
	Relations    []string
	Mode         Mode
	BaseType     string
	BaseRelation string
	SingleResult *bool
	Logger       *slog.Logger
	Observer     Observer
}

// Bool returns a pointer to b, for Options.SingleResult.
func Bool(b bool) *bool { return &b }

// Configure merges method defaults with the given options, later options
// winning. The options are not modified.
func Configure(method Method, layers ...Options) OperationConfig {
	cfg := methodDefaults(method)
	for _, o := range layers {
		if o.Adapter != nil {
			cfg.Adapter = o.Adapter
		}
		if o.BaseURL != "" {
			cfg.BaseURL = o.BaseURL
		}
		if o.Formatter != nil {
			cfg.Formatter = o.Formatter
		}
		if o.Store != nil {
			cfg.Store = o.Store
		}
		if o.Responder != nil {
			cfg.Responder = o.Responder
		}
		if o.Validators != nil {
			cfg.Validators = slices.Clone(o.Validators)
		}
		if o.Relations != nil {
			cfg.Relations = slices.Clone(o.Relations)
		}
		if o.Mode != "" {
			cfg.Mode = o.Mode
		}
		if o.BaseType != "" {
			cfg.BaseType = o.BaseType
		}
		if o.BaseRelation != "" {
			cfg.BaseRelation = o.BaseRelation
		}
		if o.SingleResult != nil {
			cfg.SingleResult = Bool(*o.SingleResult)
		}
		if o.Logger != nil {
			cfg.Logger = o.Logger
		}
		if o.Observer != nil {
			cfg.Observer = o.Observer
		}
	}

	if cfg.Mode == ModeRelated && cfg.BaseType == "" && cfg.Adapter != nil {
		cfg.BaseType = cfg.Adapter.TypeName()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

func methodDefaults(method Method) OperationConfig {
	cfg := OperationConfig{Method: method}
	switch method {
	case MethodCreate, MethodUpdate, MethodDestroy:
		cfg.SingleResult = Bool(true)
	case MethodRead:
		// Derived per request.
	}
	return cfg
}
