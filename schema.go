package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaResult is the outcome of LoadSchema. Exactly one of Schema, Missing
// and Err is set.
type SchemaResult struct {
	Schema  *jsonschema.Schema
	Missing bool
	Err     error
}

// Found reports whether a schema was loaded.
func (r SchemaResult) Found() bool { return r.Schema != nil }

// LoadSchema compiles the JSON Schema at path. A file that does not exist is
// reported as Missing, so resources without a schema need no special casing.
func LoadSchema(path string) SchemaResult {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return SchemaResult{Missing: true}
	}
	if err != nil {
		return SchemaResult{Err: fmt.Errorf("read schema %s: %w", path, err)}
	}

	schema, err := CompileSchema(path, raw)
	if err != nil {
		return SchemaResult{Err: err}
	}
	return SchemaResult{Schema: schema}
}

// CompileSchema compiles a draft 2020-12 JSON Schema document.
func CompileSchema(name string, raw []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	url := "mem://" + strings.TrimPrefix(name, "/")
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

// JSONSchema returns a validator checking the attributes of create and
// update documents against schema. Attributes are taken from the document as
// the client sent it, so numbers keep their written form. Reads and destroys
// pass through. Update documents may be partial, so schemas with required
// members belong on create handlers only.
func JSONSchema(schema *jsonschema.Schema) RequestValidator {
	return func(_ context.Context, req *Request, _ *OperationConfig) error {
		if req.Data == nil {
			return nil
		}

		doc, err := schemaInstance(req.Data)
		if err != nil {
			return PointerError(http.StatusBadRequest, "/data/attributes", err.Error())
		}

		err = schema.Validate(doc)
		if err == nil {
			return nil
		}
		var verr *jsonschema.ValidationError
		if !errors.As(err, &verr) {
			return PointerError(http.StatusBadRequest, "/data/attributes", err.Error())
		}

		var out ValidationErrors
		collectSchemaErrors(verr, &out)
		return out
	}
}

// schemaInstance returns the attributes member of the resource object as
// plain JSON values. Primary data built without a raw document falls back to
// its decoded attributes.
func schemaInstance(pd *PrimaryData) (any, error) {
	raw := []byte(pd.Raw)
	if len(raw) > 0 {
		var obj struct {
			Attributes json.RawMessage `json:"attributes"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		raw = obj.Attributes
	} else if pd.Attributes != nil {
		b, err := json.Marshal(pd.Attributes)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	if len(raw) == 0 || string(raw) == "null" {
		raw = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func collectSchemaErrors(err *jsonschema.ValidationError, out *ValidationErrors) {
	if len(err.Causes) == 0 {
		*out = append(*out, FieldError{
			Pointer: "/data/attributes" + err.InstanceLocation,
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, out)
	}
}
