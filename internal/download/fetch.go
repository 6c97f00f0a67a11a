package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds connecting, waiting for response headers and each
// pause while reading the body. A slow but steady transfer is not cut off.
const DefaultTimeout = 10 * time.Second

// HTTPFetcher fetches image bodies over HTTP.
type HTTPFetcher struct {
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

// NewHTTPFetcher creates a fetcher with the given connect, header and read
// idle timeout. A zero timeout uses DefaultTimeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string, log *slog.Logger) *HTTPFetcher {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout

	return &HTTPFetcher{
		userAgent:  userAgent,
		timeout:    timeout,
		log:        log.With("component", "fetcher"),
		httpClient: &http.Client{Transport: transport},
	}
}

// Fetch issues a GET for rawURL and returns the response body for streaming.
// The caller must close the body. Non-2xx responses return ErrBadStatus and
// a body that delivers nothing for the timeout fails with ErrReadTimeout.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	f.log.Debug("fetch ok", "url", rawURL, "status", resp.StatusCode, "content_length", resp.ContentLength)
	return newIdleReader(resp.Body, f.timeout, cancel), nil
}

// idleReader cancels the request when no Read completes within timeout.
type idleReader struct {
	body    io.ReadCloser
	timeout time.Duration
	cancel  context.CancelFunc
	timer   *time.Timer
	expired atomic.Bool
}

func newIdleReader(body io.ReadCloser, timeout time.Duration, cancel context.CancelFunc) *idleReader {
	r := &idleReader{body: body, timeout: timeout, cancel: cancel}
	r.timer = time.AfterFunc(timeout, func() {
		r.expired.Store(true)
		cancel()
	})
	return r
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.body.Read(p)
	if err != nil && err != io.EOF && r.expired.Load() {
		return n, fmt.Errorf("%w: no data for %s", ErrReadTimeout, r.timeout)
	}
	if !r.expired.Load() {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

func (r *idleReader) Close() error {
	r.timer.Stop()
	err := r.body.Close()
	r.cancel()
	return err
}
