package httpx

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

const acceptEncoding = "br, gzip"

// HTTPError carries status/body for non-2xx responses whose body could not be
// interpreted by the caller.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 900))
}

// NewHTTPError builds an HTTPError from a response and its already-read body.
func NewHTTPError(resp *http.Response, body []byte) *HTTPError {
	herr := &HTTPError{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}
	if resp.Request != nil {
		herr.Method = resp.Request.Method
		if resp.Request.URL != nil {
			herr.URL = resp.Request.URL.String()
		}
	}
	return herr
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// IsSuccess reports whether code is a 2xx status.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

// NewClient returns an http.Client with a pooled transport, as used by every
// API client in this module.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: tr,
	}
}

// Do executes a single request (built by buildReq). There are no retries.
// It always reads the full body so the connection can be reused, and decodes
// brotli/gzip content encodings. A non-2xx status is NOT an error here: the
// caller decides what the body means.
func Do(
	ctx context.Context,
	client *http.Client,
	buildReq func(context.Context) (*http.Request, error),
) (*http.Response, []byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := buildReq(ctx)
	if err != nil {
		return nil, nil, err
	}
	// si pedimos encoding a mano, el transport ya no descomprime solo
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, err := readAndClose(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("httpx: read body: %w", err)
	}

	body, err := decodeBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return resp, raw, err
	}
	return resp, body, nil
}

func readAndClose(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}

func decodeBody(encoding string, raw []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return raw, nil
	case "br":
		out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return nil, fmt.Errorf("httpx: brotli decode: %w", err)
		}
		return out, nil
	case "gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("httpx: gzip decode: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("httpx: gzip decode: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("httpx: unsupported content encoding %q", encoding)
	}
}

// DoJSON is a convenience wrapper over Do that unmarshals the body into out,
// whatever the status code. When the body is not valid JSON and the status is
// non-2xx the returned error is an *HTTPError.
func DoJSON(
	ctx context.Context,
	client *http.Client,
	buildReq func(context.Context) (*http.Request, error),
	out any,
) (*http.Response, error) {
	resp, body, err := Do(ctx, client, buildReq)
	if err != nil {
		return resp, err
	}
	if out == nil {
		if !IsSuccess(resp.StatusCode) {
			return resp, NewHTTPError(resp, body)
		}
		return resp, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		if !IsSuccess(resp.StatusCode) {
			return resp, NewHTTPError(resp, body)
		}
		return resp, fmt.Errorf("json parse error: %w body=%s", err, snippet(body, 900))
	}
	return resp, nil
}
