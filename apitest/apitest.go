// Package apitest provides JSON:API test helpers for the endpoints framework.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bjaus/endpoints"
)

// Client wraps an httptest.Server for convenient API testing.
type Client struct {
	Server *httptest.Server
}

// NewClient creates a test client serving h.
func NewClient(t testing.TB, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &Client{Server: srv}
}

// Response holds a decoded API response.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
	Doc     *Document
}

// Document is a decoded JSON:API response document.
type Document struct {
	Data     json.RawMessage          `json:"data"`
	Included []Resource               `json:"included"`
	Errors   []*endpoints.ErrorObject `json:"errors"`
	Links    *endpoints.Links         `json:"links"`

	members map[string]json.RawMessage
}

// Has reports whether the document has the top-level member key.
func (d *Document) Has(key string) bool {
	_, ok := d.members[key]
	return ok
}

// One decodes primary data holding a single resource. It returns nil for
// null primary data.
func (d *Document) One(t testing.TB) *Resource {
	t.Helper()
	if len(d.Data) == 0 || string(d.Data) == "null" {
		return nil
	}
	var r Resource
	if err := json.Unmarshal(d.Data, &r); err != nil {
		t.Fatalf("apitest: decode single resource: %v", err)
	}
	return &r
}

// Many decodes primary data holding a collection.
func (d *Document) Many(t testing.TB) []Resource {
	t.Helper()
	var rs []Resource
	if err := json.Unmarshal(d.Data, &rs); err != nil {
		t.Fatalf("apitest: decode collection: %v", err)
	}
	return rs
}

// Resource is a decoded resource object.
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    map[string]any          `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships"`
	Links         *endpoints.Links        `json:"links"`
}

// Relationship is a decoded relationship object.
type Relationship struct {
	Data json.RawMessage `json:"data"`
}

// IDs returns the ids of the linked resources, for to-one and to-many
// relationships alike.
func (r Relationship) IDs() []string {
	raw := bytes.TrimSpace(r.Data)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var many []endpoints.Identifier
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil
		}
	} else {
		var one endpoints.Identifier
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil
		}
		many = []endpoints.Identifier{one}
	}
	ids := make([]string, len(many))
	for i, id := range many {
		ids[i] = id.ID
	}
	return ids
}

// Get sends a GET request.
func (c *Client) Get(t testing.TB, path string) *Response {
	t.Helper()
	return c.Do(t, http.MethodGet, path, "", nil)
}

// Post sends a POST request with a JSON:API document.
func (c *Client) Post(t testing.TB, path string, doc any) *Response {
	t.Helper()
	return c.Do(t, http.MethodPost, path, endpoints.MediaType, doc)
}

// Patch sends a PATCH request with a JSON:API document.
func (c *Client) Patch(t testing.TB, path string, doc any) *Response {
	t.Helper()
	return c.Do(t, http.MethodPatch, path, endpoints.MediaType, doc)
}

// Delete sends a DELETE request.
func (c *Client) Delete(t testing.TB, path string) *Response {
	t.Helper()
	return c.Do(t, http.MethodDelete, path, "", nil)
}

// Do sends a request. A non-nil body is encoded as JSON and sent with the
// given content type.
func (c *Client) Do(t testing.TB, method, path, contentType string, body any) *Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("apitest: marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("apitest: create request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", endpoints.MediaType)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("apitest: execute request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("apitest: close body: %v", closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("apitest: read body: %v", err)
	}

	result := &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    raw,
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		var doc Document
		if err := json.Unmarshal(raw, &doc); err == nil {
			//nolint:errcheck // the same bytes just decoded into doc
			json.Unmarshal(raw, &doc.members)
			result.Doc = &doc
		}
	}
	return result
}
