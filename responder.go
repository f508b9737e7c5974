package endpoints

import (
	"encoding/json"
	"net/http"
)

// Responder writes an Envelope to a transport. It is the only place a
// Handler touches the response.
type Responder interface {
	Respond(w http.ResponseWriter, r *http.Request, env *Envelope)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(w http.ResponseWriter, r *http.Request, env *Envelope)

// Respond calls f(w, r, env).
func (f ResponderFunc) Respond(w http.ResponseWriter, r *http.Request, env *Envelope) {
	f(w, r, env)
}

// HTTPResponder writes envelopes as JSON:API documents with net/http.
type HTTPResponder struct{}

// Respond writes the status line, headers and body for env. A 201 response
// whose primary data is a resource object gets a Location header equal to the
// resource's self link. Error objects without an id take the request id.
func (HTTPResponder) Respond(w http.ResponseWriter, r *http.Request, env *Envelope) {
	if len(env.Errors) > 0 {
		if id := GetRequestID(r); id != "" {
			for _, obj := range env.Errors {
				if obj.ID == "" {
					obj.ID = id
				}
			}
		}
		writeErrors(w, env.Code, env.Errors)
		return
	}
	if env.Code == http.StatusNoContent || env.Data == nil {
		w.WriteHeader(env.Code)
		return
	}

	if env.Code == http.StatusCreated {
		if loc := location(env.Data); loc != "" {
			w.Header().Set("Location", loc)
		}
	}

	w.Header().Set("Content-Type", MediaType)
	w.WriteHeader(env.Code)
	//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
	json.NewEncoder(w).Encode(env.Data)
}

func location(data any) string {
	doc, ok := data.(*Document)
	if !ok {
		return ""
	}
	obj, ok := doc.Data.(*ResourceObject)
	if !ok || obj == nil || obj.Links == nil {
		return ""
	}
	return obj.Links.Self
}

// WriteError writes err as a JSON:API error document. Middleware uses it to
// answer requests that never reach a Handler.
func WriteError(w http.ResponseWriter, err error) {
	writeErrors(w, ErrorStatus(err), errorObjects(err))
}

func writeErrors(w http.ResponseWriter, status int, objs []*ErrorObject) {
	w.Header().Set("Content-Type", MediaType)
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
	json.NewEncoder(w).Encode(ErrorDocument{Errors: objs})
}
