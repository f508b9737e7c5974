package endpoints

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// MediaType is the JSON:API media type.
const MediaType = "application/vnd.api+json"

// maxBodyBytes bounds request documents read by the Handler (8 MB).
const maxBodyBytes = 8 << 20

// Request is the transport-neutral form of an incoming request.
type Request struct {
	// ID is the resource id from the path, if any.
	ID string
	// BaseID is the id of the base resource for related reads.
	BaseID      string
	Include     []string
	Filter      map[string][]string
	ContentType string
	Body        []byte

	// Data is the decoded primary data of a create or update document. It is
	// populated before configured validators run.
	Data *PrimaryData
}

// PrimaryData is the resource object sent by a client.
type PrimaryData struct {
	Type          string
	ID            string
	Attributes    Attributes
	Relationships []RelationAttachment

	// Raw is the undecoded resource object, for validators that need it.
	Raw json.RawMessage
}

// HasID reports whether the client supplied an id.
func (p *PrimaryData) HasID() bool { return p.ID != "" }

type requestDocument struct {
	Data json.RawMessage `json:"data"`
}

type requestResource struct {
	Type          *string                        `json:"type"`
	ID            resourceID                     `json:"id"`
	Attributes    Attributes                     `json:"attributes"`
	Relationships map[string]requestRelationship `json:"relationships"`
}

type requestRelationship struct {
	Data json.RawMessage `json:"data"`
}

type identifier struct {
	Type string     `json:"type"`
	ID   resourceID `json:"id"`
}

// resourceID accepts ids sent as JSON strings or numbers.
type resourceID string

func (id *resourceID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = resourceID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string: %w", err)
	}
	*id = resourceID(n.String())
	return nil
}

// NewRequest reads r into a Request. Path values "id" and "base_id" are
// taken from the matched http.ServeMux pattern.
func NewRequest(r *http.Request) (*Request, error) {
	req := &Request{
		ID:          r.PathValue("id"),
		BaseID:      r.PathValue("base_id"),
		ContentType: r.Header.Get("Content-Type"),
	}

	q := r.URL.Query()
	if inc := q.Get("include"); inc != "" {
		for name := range strings.SplitSeq(inc, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.Include = append(req.Include, name)
			}
		}
	}
	for key, vals := range q {
		field, ok := strings.CutPrefix(key, "filter[")
		if !ok || !strings.HasSuffix(field, "]") {
			continue
		}
		if req.Filter == nil {
			req.Filter = make(map[string][]string)
		}
		field = strings.TrimSuffix(field, "]")
		for _, v := range vals {
			req.Filter[field] = append(req.Filter[field], strings.Split(v, ",")...)
		}
	}

	if r.Body != nil && r.Body != http.NoBody {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, Errorf(http.StatusRequestEntityTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
		}
		if err != nil {
			return nil, Errorf(http.StatusBadRequest, "read body: %v", err)
		}
		if len(body) > maxBodyBytes {
			return nil, Error(http.StatusRequestEntityTooLarge, "request document too large")
		}
		req.Body = body
	}
	return req, nil
}

// checkMediaType enforces the JSON:API media type on request documents.
// Media type parameters are not allowed.
func checkMediaType(contentType string) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != MediaType || len(params) > 0 {
		return Errorf(http.StatusUnsupportedMediaType, "Content-Type must be %s", MediaType)
	}
	return nil
}

// decodePrimaryData parses a create or update document and checks its
// structure against the adapter serving the endpoint.
func decodePrimaryData(body []byte, adapter Adapter) (*PrimaryData, error) {
	var doc requestDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, Errorf(http.StatusBadRequest, "malformed request document: %v", err)
	}
	raw := bytes.TrimSpace(doc.Data)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return nil, PointerError(http.StatusBadRequest, "/data", "primary data is required")
	case raw[0] == '[':
		return nil, PointerError(http.StatusBadRequest, "/data", "primary data must be a single resource object")
	case raw[0] != '{':
		return nil, PointerError(http.StatusBadRequest, "/data", "primary data must be a resource object")
	}

	var res requestResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, PointerError(http.StatusBadRequest, "/data", err.Error())
	}
	if res.Type == nil || *res.Type == "" {
		return nil, PointerError(http.StatusBadRequest, "/data/type", "primary data must have a type member")
	}
	if *res.Type != adapter.TypeName() {
		return nil, PointerError(http.StatusConflict, "/data/type",
			fmt.Sprintf("type %q does not match endpoint type %q", *res.Type, adapter.TypeName()))
	}

	pd := &PrimaryData{
		Type:       *res.Type,
		ID:         string(res.ID),
		Attributes: res.Attributes,
		Raw:        raw,
	}
	if pd.Attributes == nil {
		pd.Attributes = Attributes{}
	}

	for name, rel := range res.Relationships {
		att, err := decodeRelationship(adapter, name, rel)
		if err != nil {
			return nil, err
		}
		pd.Relationships = append(pd.Relationships, att)
	}
	return pd, nil
}

func decodeRelationship(adapter Adapter, name string, rel requestRelationship) (RelationAttachment, error) {
	pointer := "/data/relationships/" + name
	def, ok := relationDef(adapter, name)
	if !ok {
		return RelationAttachment{}, PointerError(http.StatusBadRequest, pointer, "unknown relationship "+name)
	}

	att := RelationAttachment{Name: name, IDs: []string{}}
	raw := bytes.TrimSpace(rel.Data)
	if len(raw) == 0 {
		return RelationAttachment{}, PointerError(http.StatusBadRequest, pointer+"/data", "relationship data is required")
	}
	if bytes.Equal(raw, []byte("null")) {
		if def.ToMany {
			return RelationAttachment{}, PointerError(http.StatusBadRequest, pointer+"/data", "to-many relationship data must be an array")
		}
		return att, nil
	}

	var ids []identifier
	if def.ToMany {
		if err := json.Unmarshal(raw, &ids); err != nil {
			return RelationAttachment{}, PointerError(http.StatusBadRequest, pointer+"/data", "to-many relationship data must be an array")
		}
	} else {
		var one identifier
		if err := json.Unmarshal(raw, &one); err != nil {
			return RelationAttachment{}, PointerError(http.StatusBadRequest, pointer+"/data", "to-one relationship data must be an object or null")
		}
		ids = []identifier{one}
	}

	for _, ident := range ids {
		if ident.Type != def.Type || ident.ID == "" {
			return RelationAttachment{}, PointerError(http.StatusBadRequest, pointer+"/data",
				fmt.Sprintf("relationship %s expects identifiers of type %q", name, def.Type))
		}
		att.IDs = append(att.IDs, string(ident.ID))
	}
	return att, nil
}
