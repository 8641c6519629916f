package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scope struct {
	IsCRUDRequired bool `json:"is_crud_required"`
}

const scopeSchema = `{
  "type": "object",
  "required": ["is_crud_required"],
  "properties": {"is_crud_required": {"type": "boolean"}}
}`

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{name: "plain object", in: ` {"a":1} `, want: `{"a":1}`, wantOK: true},
		{name: "plain array", in: `["https://x"]`, want: `["https://x"]`, wantOK: true},
		{name: "fenced", in: "Here you go:\n```json\n{\"a\":2}\n```\nBye", want: `{"a":2}`, wantOK: true},
		{name: "prose prefix", in: `Result: [1, 2] done`, want: `[1, 2]`, wantOK: true},
		{name: "skips broken candidate", in: `{oops} then {"b":true}`, want: `{"b":true}`, wantOK: true},
		{name: "none", in: "no json here", wantOK: false},
		{name: "empty", in: "  ", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecode_Schema(t *testing.T) {
	v, err := Decode[scope](`{"is_crud_required": true}`, scopeSchema)
	require.NoError(t, err)
	assert.True(t, v.IsCRUDRequired)

	_, err = Decode[scope](`{"is_crud_required": "yes"}`, scopeSchema)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.NotEmpty(t, schemaErr.Errors)

	_, err = Decode[scope](`{}`, "")
	assert.NoError(t, err)
}

type fakeRequester struct {
	text  string
	err   error
	calls int
}

func (f *fakeRequester) Request(context.Context, Task) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestRequestDecoded(t *testing.T) {
	t.Run("decodes", func(t *testing.T) {
		f := &fakeRequester{text: `{"is_crud_required": false}`}
		v, raw, err := RequestDecoded[scope](context.Background(), f, Task{Operation: "scope"}, scopeSchema)
		require.NoError(t, err)
		assert.False(t, v.IsCRUDRequired)
		assert.Equal(t, f.text, raw)
	})

	t.Run("decode failure is typed and not retried", func(t *testing.T) {
		f := &fakeRequester{text: "I think the scope is CRUD"}
		_, raw, err := RequestDecoded[scope](context.Background(), f, Task{Operation: "scope"}, scopeSchema)
		var decErr *DecodeError
		require.ErrorAs(t, err, &decErr)
		assert.Equal(t, "scope", decErr.Operation)
		assert.Equal(t, f.text, decErr.Raw)
		assert.Equal(t, f.text, raw)
		assert.Equal(t, 1, f.calls)
	})

	t.Run("request failure passes through", func(t *testing.T) {
		boom := errors.New("boom")
		f := &fakeRequester{err: boom}
		_, _, err := RequestDecoded[[]string](context.Background(), f, Task{}, "")
		assert.ErrorIs(t, err, boom)
		var decErr *DecodeError
		assert.False(t, errors.As(err, &decErr))
	})
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "rust fence", in: "```rust\nfn main() {}\n```", want: "fn main() {}"},
		{name: "bare fence", in: "```\npackage main\n```\n", want: "package main"},
		{name: "unfenced verbatim", in: "fn main() {}\n", want: "fn main() {}\n"},
		{name: "fence in the middle untouched", in: "text\n```go\nx\n```", want: "text\n```go\nx\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCode(tt.in))
		})
	}
}
