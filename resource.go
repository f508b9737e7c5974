package endpoints

import "maps"

// Method is the CRUD operation a handler performs.
type Method string

// Methods.
const (
	MethodCreate  Method = "create"
	MethodRead    Method = "read"
	MethodUpdate  Method = "update"
	MethodDestroy Method = "destroy"
)

// Mode qualifies a read.
type Mode string

// ModeRelated marks a read that traverses a relationship from a base
// resource. An empty result is a valid answer in this mode.
const ModeRelated Mode = "related"

// Attributes are the attribute members of a resource.
type Attributes map[string]any

// Resource is a single record as returned by an adapter.
type Resource struct {
	Type          string
	ID            string
	Attributes    Attributes
	Relationships map[string]Linkage
}

// Linkage identifies the resources on the other side of a relationship.
type Linkage struct {
	Type   string
	IDs    []string
	ToMany bool
}

// Clone returns a deep copy of r.
func (r *Resource) Clone() *Resource {
	if r == nil {
		return nil
	}
	out := &Resource{
		Type:       r.Type,
		ID:         r.ID,
		Attributes: maps.Clone(r.Attributes),
	}
	if r.Relationships != nil {
		out.Relationships = make(map[string]Linkage, len(r.Relationships))
		for name, l := range r.Relationships {
			l.IDs = append([]string(nil), l.IDs...)
			out.Relationships[name] = l
		}
	}
	return out
}

// ResourceData is the result of a read. A nil *ResourceData means nothing
// was found. The remaining fields are shaping hints, not business data; the
// Handler fills in any the adapter leaves empty.
type ResourceData struct {
	Records  []*Resource
	Included []*Resource

	SingleResult bool
	Relations    []string
	Mode         Mode
	BaseType     string
	BaseID       string
	BaseRelation string
}

// RelationAttachment is a relationship to attach (create) or replace
// (update) together with the base write.
type RelationAttachment struct {
	Name string
	IDs  []string
}

// Envelope is the transport-neutral result of one request. Exactly one of
// Data and Errors is set, except for bodiless successes (204) where both
// are empty.
type Envelope struct {
	Code   int
	Data   any
	Errors []*ErrorObject
}

// errorEnvelope converts err into an Envelope.
func errorEnvelope(err error) *Envelope {
	objs := errorObjects(err)
	return &Envelope{Code: ErrorStatus(err), Errors: objs}
}
