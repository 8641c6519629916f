package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProber_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/slow":
			time.Sleep(500 * time.Millisecond)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := New()
	tests := []struct {
		name       string
		path       string
		timeout    time.Duration
		wantStatus int
		wantErr    bool
	}{
		{name: "200", path: "/ok", timeout: time.Second, wantStatus: http.StatusOK},
		{name: "404", path: "/missing", timeout: time.Second, wantStatus: http.StatusNotFound},
		{name: "timeout is a transport error", path: "/slow", timeout: 50 * time.Millisecond, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := p.Status(context.Background(), srv.URL+tt.path, tt.timeout)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, 0, status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestHTTPProber_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New().Status(context.Background(), url, time.Second)
	assert.Error(t, err)
}

func TestHTTPProber_BadURL(t *testing.T) {
	_, err := New().Status(context.Background(), "://nope", time.Second)
	assert.Error(t, err)
}

func TestServiceURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8000/api/items", ServiceURL("localhost", 8000, "/api/items"))
}
