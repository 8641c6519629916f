// Package probe checks HTTP endpoints for liveness.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxDrain bounds how much of a response body is read before closing, so
// keep-alive connections can be reused.
const maxDrain = 64 << 10

// Prober issues a GET and reports the status code. A transport failure is
// returned as an error with status 0.
type Prober interface {
	Status(ctx context.Context, url string, timeout time.Duration) (int, error)
}

// HTTPProber implements Prober with net/http.
type HTTPProber struct {
	Client *http.Client
}

// New returns an HTTPProber with its own client.
func New() *HTTPProber {
	return &HTTPProber{Client: &http.Client{}}
}

// Status implements Prober. timeout <= 0 leaves only ctx in control.
func (p *HTTPProber) Status(ctx context.Context, url string, timeout time.Duration) (int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request for %s: %w", url, err)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	return resp.StatusCode, nil
}

// ServiceURL joins the launched service address with a route.
func ServiceURL(host string, port int, route string) string {
	return fmt.Sprintf("http://%s:%d%s", host, port, route)
}
