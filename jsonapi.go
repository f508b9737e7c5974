package endpoints

import "strings"

// Document is a JSON:API top-level document.
type Document struct {
	Data     any               `json:"data"`
	Included []*ResourceObject `json:"included,omitempty"`
	Links    *Links            `json:"links,omitempty"`
}

// ErrorDocument is a JSON:API document carrying errors.
type ErrorDocument struct {
	Errors []*ErrorObject `json:"errors"`
}

// ResourceObject is a JSON:API resource object.
type ResourceObject struct {
	Type          string                         `json:"type"`
	ID            string                         `json:"id"`
	Attributes    Attributes                     `json:"attributes,omitempty"`
	Relationships map[string]*RelationshipObject `json:"relationships,omitempty"`
	Links         *Links                         `json:"links,omitempty"`
}

// RelationshipObject is a JSON:API relationship object. Data holds an
// *Identifier (or nil) for to-one and an []Identifier for to-many.
type RelationshipObject struct {
	Data  any    `json:"data"`
	Links *Links `json:"links,omitempty"`
}

// Identifier is a JSON:API resource identifier object.
type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Links is a JSON:API links object.
type Links struct {
	Self    string `json:"self,omitempty"`
	Related string `json:"related,omitempty"`
}

// JSONAPI formats adapter results as a JSON:API document.
func JSONAPI(data *ResourceData, shape Shaping) (any, error) {
	var records, included []*Resource
	if data != nil {
		records, included = data.Records, data.Included
	}

	doc := &Document{Links: &Links{Self: documentSelf(shape)}}
	if shape.SingleResult {
		if len(records) > 0 {
			doc.Data = resourceObject(records[0], shape.BaseURL)
		}
	} else {
		objs := make([]*ResourceObject, 0, len(records))
		for _, rec := range records {
			objs = append(objs, resourceObject(rec, shape.BaseURL))
		}
		doc.Data = objs
	}

	seen := make(map[Identifier]bool, len(included))
	for _, rec := range included {
		key := Identifier{Type: rec.Type, ID: rec.ID}
		if seen[key] {
			continue
		}
		seen[key] = true
		doc.Included = append(doc.Included, resourceObject(rec, shape.BaseURL))
	}
	return doc, nil
}

// SelfLink returns the canonical URL of a resource.
func SelfLink(baseURL, typ, id string) string {
	return joinURL(baseURL, typ, id)
}

func documentSelf(shape Shaping) string {
	if shape.Mode == ModeRelated {
		return joinURL(shape.BaseURL, shape.BaseType, shape.BaseID, shape.BaseRelation)
	}
	return joinURL(shape.BaseURL, shape.Type)
}

func resourceObject(rec *Resource, baseURL string) *ResourceObject {
	self := SelfLink(baseURL, rec.Type, rec.ID)
	obj := &ResourceObject{
		Type:       rec.Type,
		ID:         rec.ID,
		Attributes: rec.Attributes,
		Links:      &Links{Self: self},
	}
	if len(rec.Relationships) == 0 {
		return obj
	}

	obj.Relationships = make(map[string]*RelationshipObject, len(rec.Relationships))
	for name, l := range rec.Relationships {
		rel := &RelationshipObject{
			Links: &Links{
				Self:    joinURL(self, "relationships", name),
				Related: joinURL(self, name),
			},
		}
		if l.ToMany {
			ids := make([]Identifier, 0, len(l.IDs))
			for _, id := range l.IDs {
				ids = append(ids, Identifier{Type: l.Type, ID: id})
			}
			rel.Data = ids
		} else if len(l.IDs) > 0 {
			rel.Data = &Identifier{Type: l.Type, ID: l.IDs[0]}
		}
		obj.Relationships[name] = rel
	}
	return obj
}

func joinURL(base string, parts ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(base, "/"))
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(p)
	}
	return b.String()
}
