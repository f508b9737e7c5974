package endpoints

import "net/http"

// FormatFunc turns adapter results into a protocol payload. It receives the
// full shaping metadata so it can decide between single and collection
// serialization and how to nest related resources.
type FormatFunc func(data *ResourceData, shape Shaping) (any, error)

// Shaping carries the hints a FormatFunc needs besides the data itself.
type Shaping struct {
	// Type is the resource type served by the endpoint.
	Type         string
	BaseURL      string
	SingleResult bool
	Relations    []string
	Mode         Mode
	BaseType     string
	BaseID       string
	BaseRelation string
}

// formatRead applies the not-found policy. Outside related mode, absent data
// or an empty result where a single resource was expected is a 404; in
// related mode an empty result is a valid answer.
func formatRead(format FormatFunc, data *ResourceData, shape Shaping) *Envelope {
	if shape.Mode != ModeRelated && (data == nil || (len(data.Records) == 0 && shape.SingleResult)) {
		return errorEnvelope(Error(http.StatusNotFound, "Resource not found."))
	}
	return formatWith(format, http.StatusOK, data, shape)
}

// formatRecord formats the single record produced by create or update. A nil
// record is an update that changed nothing.
func formatRecord(format FormatFunc, code int, rec *Resource, shape Shaping) *Envelope {
	shape.SingleResult = true
	data := &ResourceData{}
	if rec != nil {
		data.Records = []*Resource{rec}
	}
	return formatWith(format, code, data, shape)
}

func formatWith(format FormatFunc, code int, data *ResourceData, shape Shaping) *Envelope {
	payload, err := format(data, shape)
	if err != nil {
		return errorEnvelope(err)
	}
	return &Envelope{Code: code, Data: payload}
}
