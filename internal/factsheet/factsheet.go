// Package factsheet defines the shared work artifact agents read and extend.
package factsheet

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// FactSheet accumulates what the agents learn and produce during a run.
// Absent fields stay nil and are serialized as null.
type FactSheet struct {
	ProjectDescription string        `json:"project_description"`
	ProjectScope       *ProjectScope `json:"project_scope"`
	ExternalURLs       []string      `json:"external_urls"`
	BackendCode        *string       `json:"backend_code"`
	APIEndpointSchema  []RouteObject `json:"api_endpoint_schema"`
}

// ProjectScope is the architect's classification of the project.
type ProjectScope struct {
	IsCRUDRequired         bool `json:"is_crud_required"`
	IsUserLoginAndLogout   bool `json:"is_user_login_and_logout"`
	IsExternalURLsRequired bool `json:"is_external_urls_required"`
}

// RouteObject describes one REST route of the generated service. Request
// and response bodies are kept as free-form JSON.
type RouteObject struct {
	IsRouteDynamic bool            `json:"is_route_dynamic"`
	Method         string          `json:"method"`
	RequestBody    json.RawMessage `json:"request_body"`
	Response       json.RawMessage `json:"response"`
	Route          string          `json:"route"`
}

// New creates a fact sheet for a project description.
func New(description string) *FactSheet {
	return &FactSheet{ProjectDescription: description}
}

// SetBackendCode stores a copy of code.
func (f *FactSheet) SetBackendCode(code string) {
	f.BackendCode = &code
}

// Code returns the backend code, or "" when none was generated yet.
func (f *FactSheet) Code() string {
	if f.BackendCode == nil {
		return ""
	}
	return *f.BackendCode
}

// JSON renders the sheet the way it is handed to the oracle.
func (f *FactSheet) JSON() (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Clone returns a deep copy.
func (f *FactSheet) Clone() *FactSheet {
	if f == nil {
		return nil
	}
	out := &FactSheet{ProjectDescription: f.ProjectDescription}
	if f.ProjectScope != nil {
		scope := *f.ProjectScope
		out.ProjectScope = &scope
	}
	if f.ExternalURLs != nil {
		out.ExternalURLs = append(make([]string, 0, len(f.ExternalURLs)), f.ExternalURLs...)
	}
	if f.BackendCode != nil {
		out.SetBackendCode(*f.BackendCode)
	}
	if f.APIEndpointSchema != nil {
		out.APIEndpointSchema = make([]RouteObject, len(f.APIEndpointSchema))
		for i, r := range f.APIEndpointSchema {
			out.APIEndpointSchema[i] = r.clone()
		}
	}
	return out
}

func (r RouteObject) clone() RouteObject {
	r.RequestBody = cloneRaw(r.RequestBody)
	r.Response = cloneRaw(r.Response)
	return r
}

func cloneRaw(m json.RawMessage) json.RawMessage {
	if m == nil {
		return nil
	}
	return append(json.RawMessage(nil), m...)
}

// Equal reports structural equality. Bodies are compared as JSON values, so
// formatting differences do not matter and a missing body equals null.
func (r RouteObject) Equal(o RouteObject) bool {
	return r.IsRouteDynamic == o.IsRouteDynamic &&
		r.Method == o.Method &&
		r.Route == o.Route &&
		jsonEqual(r.RequestBody, o.RequestBody) &&
		jsonEqual(r.Response, o.Response)
}

func jsonEqual(a, b json.RawMessage) bool {
	a, b = normalizeNull(a), normalizeNull(b)
	if bytes.Equal(a, b) {
		return true
	}
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

func normalizeNull(m json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(m)) == 0 {
		return json.RawMessage("null")
	}
	return m
}

// CheckableRoutes keeps the routes that can be smoke tested without input:
// GET routes with no path parameters. Order is preserved.
func CheckableRoutes(routes []RouteObject) []RouteObject {
	if routes == nil {
		return nil
	}
	out := make([]RouteObject, 0, len(routes))
	for _, r := range routes {
		if r.Method == "GET" && !r.IsRouteDynamic {
			out = append(out, r)
		}
	}
	return out
}
