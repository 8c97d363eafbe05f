package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"course-admin/internal/domain"
	"course-admin/internal/httpx"
	"course-admin/internal/logging"
)

// DefaultTimeout bounds every request unless WithTimeout says otherwise.
const DefaultTimeout = 30 * time.Second

const (
	contentTypeJSON = "application/json"
	acceptJSON      = contentTypeJSON

	// UploadField is the multipart field the backend reads the image from.
	UploadField = "image"
)

// Client talks to the course backend. It keeps no state between calls.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTP = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Non-positive values keep the
// default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.HTTP.Timeout = timeout
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.Logger = logging.OrNop(l)
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpx.NewClient(DefaultTimeout),
		Logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListCourses returns every course in backend order.
func (c *Client) ListCourses(ctx context.Context) ([]domain.Course, error) {
	var env envelope[[]courseRecord]
	if err := c.doJSON(ctx, "list", http.MethodGet, "/course", nil, &env); err != nil {
		return nil, err
	}

	out := make([]domain.Course, 0, len(env.Data))
	for _, r := range env.Data {
		out = append(out, r.toCourse())
	}
	return out, nil
}

// CreateCourse persists a draft and returns the record with its new id.
func (c *Client) CreateCourse(ctx context.Context, draft domain.Draft) (domain.Course, error) {
	var env envelope[courseRecord]
	if err := c.doJSON(ctx, "create", http.MethodPost, "/course", bodyFromDraft(draft), &env); err != nil {
		return domain.Course{}, err
	}
	return env.Data.toCourse(), nil
}

// UpdateCourse sends the full record and returns the server's copy of it.
func (c *Client) UpdateCourse(ctx context.Context, course domain.Course) (domain.Course, error) {
	var env envelope[courseRecord]
	if err := c.doJSON(ctx, "update", http.MethodPut, coursePath(course.ID), bodyFromCourse(course), &env); err != nil {
		return domain.Course{}, err
	}
	return env.Data.toCourse(), nil
}

// DeleteCourse removes the course with the given id.
func (c *Client) DeleteCourse(ctx context.Context, id int) error {
	var env envelope[json.RawMessage]
	return c.doJSON(ctx, "delete", http.MethodDelete, coursePath(id), nil, &env)
}

// UploadImage sends file as multipart form data and returns the hosted URL.
func (c *Client) UploadImage(ctx context.Context, file domain.PendingUpload) (domain.HostedImage, error) {
	if file.Size() == 0 {
		return "", &UploadFailure{Message: "empty file"}
	}

	payload, contentType, err := multipartBody(file)
	if err != nil {
		return "", &UploadFailure{Err: err}
	}

	var env envelope[uploadData]
	resp, err := httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/course/upload", bytes.NewReader(payload))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Content-Type", contentType)
			r.Header.Set("Accept", acceptJSON)
			return r, nil
		},
		&env,
	)
	if err != nil {
		c.Logger.Debug("image upload failed", "file", file.Filename, "error", err)
		return "", &UploadFailure{Err: err}
	}
	if !env.Success {
		return "", &UploadFailure{Message: env.Message}
	}
	if !httpx.IsSuccess(resp.StatusCode) {
		return "", &UploadFailure{Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	if strings.TrimSpace(env.Data.ImageURL) == "" {
		return "", &UploadFailure{Message: "response is missing imageUrl"}
	}

	c.Logger.Debug("image uploaded", "file", file.Filename, "url", env.Data.ImageURL)
	return domain.HostedImage(env.Data.ImageURL), nil
}

// doJSON issues one request and decodes the envelope into out.
// out must point to an envelope[T].
func (c *Client) doJSON(ctx context.Context, op, method, path string, in any, out interface{ ok() (bool, string) }) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &RequestFailure{Op: op, Err: err}
		}
		payload = b
	}

	start := time.Now()
	_, err := httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			var body io.Reader
			if payload != nil {
				body = bytes.NewReader(payload)
			}
			r, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
			if err != nil {
				return nil, err
			}
			if payload != nil {
				r.Header.Set("Content-Type", contentTypeJSON)
			}
			r.Header.Set("Accept", acceptJSON)
			return r, nil
		},
		out,
	)
	c.Logger.Debug("course api request", "op", op, "method", method, "path", path, "elapsed", time.Since(start), "error", err)
	if err != nil {
		return &RequestFailure{Op: op, Err: err}
	}
	if ok, msg := out.ok(); !ok {
		return &RequestFailure{Op: op, Message: msg}
	}
	return nil
}

func (e *envelope[T]) ok() (bool, string) { return e.Success, e.Message }

func coursePath(id int) string {
	return "/course/" + strconv.Itoa(id)
}

func multipartBody(file domain.PendingUpload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := file.Filename
	if name == "" {
		name = "image"
	}
	ct := file.ContentType
	if ct == "" {
		ct = http.DetectContentType(file.Data)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, UploadField, escapeQuotes(name)))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
