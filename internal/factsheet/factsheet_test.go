package factsheet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckableRoutes(t *testing.T) {
	routes := []RouteObject{
		{Method: "GET", Route: "/a"},
		{Method: "POST", Route: "/b"},
		{Method: "GET", Route: "/c/:id", IsRouteDynamic: true},
		{Method: "GET", Route: "/d"},
	}

	got := CheckableRoutes(routes)
	require.Len(t, got, 2)
	assert.Equal(t, "/a", got[0].Route)
	assert.Equal(t, "/d", got[1].Route)

	again := CheckableRoutes(got)
	require.Len(t, again, len(got))
	for i := range got {
		assert.True(t, got[i].Equal(again[i]))
	}

	assert.Nil(t, CheckableRoutes(nil))
	assert.NotNil(t, CheckableRoutes([]RouteObject{{Method: "DELETE"}}))
}

func TestRouteObject_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b RouteObject
		want bool
	}{
		{
			name: "formatting ignored",
			a:    RouteObject{Method: "GET", Route: "/x", Response: json.RawMessage(`{"a": 1, "b": [1,2]}`)},
			b:    RouteObject{Method: "GET", Route: "/x", Response: json.RawMessage(`{"b":[1,2],"a":1}`)},
			want: true,
		},
		{
			name: "missing body equals null",
			a:    RouteObject{Method: "GET", Route: "/x", RequestBody: nil},
			b:    RouteObject{Method: "GET", Route: "/x", RequestBody: json.RawMessage(`null`)},
			want: true,
		},
		{
			name: "different method",
			a:    RouteObject{Method: "GET", Route: "/x"},
			b:    RouteObject{Method: "POST", Route: "/x"},
		},
		{
			name: "different response",
			a:    RouteObject{Method: "GET", Route: "/x", Response: json.RawMessage(`[]`)},
			b:    RouteObject{Method: "GET", Route: "/x", Response: json.RawMessage(`[1]`)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestFactSheet_JSONShape(t *testing.T) {
	fs := New("build a website that tracks crypto prices")
	out, err := fs.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"project_description": "build a website that tracks crypto prices",
		"project_scope": null,
		"external_urls": null,
		"backend_code": null,
		"api_endpoint_schema": null
	}`, out)

	var routes []RouteObject
	require.NoError(t, json.Unmarshal([]byte(`[{"is_route_dynamic":false,"method":"GET","request_body":null,"response":{"price":1},"route":"/price"}]`), &routes))
	require.Len(t, routes, 1)
	assert.JSONEq(t, `{"price":1}`, string(routes[0].Response))
}

func TestFactSheet_Clone(t *testing.T) {
	fs := New("d")
	fs.ProjectScope = &ProjectScope{IsCRUDRequired: true}
	fs.ExternalURLs = []string{"https://a"}
	fs.SetBackendCode("fn main() {}")
	fs.APIEndpointSchema = []RouteObject{{Method: "GET", Route: "/", Response: json.RawMessage(`[]`)}}

	c := fs.Clone()
	assert.Equal(t, fs, c)

	c.ProjectScope.IsCRUDRequired = false
	c.ExternalURLs[0] = "https://b"
	c.SetBackendCode("changed")
	c.APIEndpointSchema[0].Response[0] = '{'

	assert.True(t, fs.ProjectScope.IsCRUDRequired)
	assert.Equal(t, "https://a", fs.ExternalURLs[0])
	assert.Equal(t, "fn main() {}", fs.Code())
	assert.Equal(t, "[]", string(fs.APIEndpointSchema[0].Response))

	var nilSheet *FactSheet
	assert.Nil(t, nilSheet.Clone())
}
