package endpoints

import (
	"context"
	"fmt"
)

// RequestValidator checks an incoming request before the adapter is called.
// A non-nil error rejects the request; errors without a status are reported
// as 400 Bad Request. cfg is a copy made for the call; changes to it are
// discarded.
type RequestValidator func(ctx context.Context, req *Request, cfg *OperationConfig) error

// Validate reports every incompatibility between cfg and adapter. An empty
// result means a handler can be built.
func Validate(method Method, adapter Adapter, cfg OperationConfig) []string {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	if adapter == nil {
		fail("no adapter specified")
	} else {
		for _, capability := range requiredCapabilities(method) {
			if !capability.check(adapter) {
				fail("adapter for %q does not support %s", adapter.TypeName(), capability.name)
			}
		}
	}

	switch method {
	case MethodCreate, MethodRead, MethodUpdate, MethodDestroy:
	default:
		fail("unknown method %q", method)
	}

	if cfg.Store == nil {
		fail("no store specified")
	}
	if cfg.Formatter == nil {
		fail("no formatter specified")
	}
	if cfg.Responder == nil {
		fail("no responder specified")
	}
	for i, v := range cfg.Validators {
		if v == nil {
			fail("validator %d is nil", i)
		}
	}

	if cfg.Mode != "" && cfg.Mode != ModeRelated {
		fail("unknown mode %q", cfg.Mode)
	}
	if cfg.Mode == ModeRelated {
		if method != MethodRead {
			fail("related mode is only valid for reads")
		}
		if cfg.BaseRelation == "" {
			fail("related mode requires a base relation")
		} else if adapter != nil {
			if _, ok := relationDef(adapter, cfg.BaseRelation); !ok {
				fail("adapter for %q has no relation %q", adapter.TypeName(), cfg.BaseRelation)
			}
		}
	}

	if adapter != nil {
		for _, name := range cfg.Relations {
			if _, ok := relationDef(adapter, name); !ok {
				fail("adapter for %q has no relation %q", adapter.TypeName(), name)
			}
		}
	}

	return failures
}

type capability struct {
	name  string
	check func(Adapter) bool
}

func requiredCapabilities(method Method) []capability {
	creator := capability{"create", func(a Adapter) bool { _, ok := a.(Creator); return ok }}
	reader := capability{"read", func(a Adapter) bool { _, ok := a.(Reader); return ok }}
	updater := capability{"update", func(a Adapter) bool { _, ok := a.(Updater); return ok }}
	destroyer := capability{"destroy", func(a Adapter) bool { _, ok := a.(Destroyer); return ok }}

	switch method {
	case MethodCreate:
		return []capability{creator}
	case MethodRead:
		return []capability{reader}
	case MethodUpdate:
		// The previous state is read before updating.
		return []capability{updater, reader}
	case MethodDestroy:
		return []capability{destroyer}
	}
	return nil
}
