// Package form holds the course editor: a transient draft, numeric coercion of
// typed input, image selection resolved through an upload, and an explicit
// submit that hands the draft to the caller.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"course-admin/internal/domain"
	"course-admin/internal/logging"
)

const UploadFailedAlert = "Failed to upload image"

var (
	ErrUnknownField = errors.New("form: unknown field")
	ErrNoUploader   = errors.New("form: no image uploader configured")
	ErrNotImage     = errors.New("form: file is not an image")
)

// Field names accepted by SetField.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldImage       = "image"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Uploader resolves a picked file into a hosted URL.
type Uploader interface {
	UploadImage(ctx context.Context, file domain.PendingUpload) (domain.HostedImage, error)
}

// SaveFunc receives the draft on submit.
type SaveFunc func(ctx context.Context, draft domain.Draft) error

// AlertFunc shows a blocking message to the user.
type AlertFunc func(msg string)

type Option func(*Form)

func WithMode(m Mode) Option {
	return func(f *Form) { f.mode = m }
}

func WithUploader(u Uploader) Option {
	return func(f *Form) { f.uploader = u }
}

func WithAlert(a AlertFunc) Option {
	return func(f *Form) {
		if a != nil {
			f.alert = a
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Form) { f.logger = logging.OrNop(l) }
}

type Form struct {
	mode     Mode
	onSave   SaveFunc
	uploader Uploader
	alert    AlertFunc
	logger   *slog.Logger

	mu       sync.Mutex
	draft    domain.Draft
	preview  domain.HostedImage
	dragging bool
}

// New starts a form pre-populated with initial.
func New(initial domain.Draft, onSave SaveFunc, opts ...Option) *Form {
	f := &Form{
		mode:    ModeCreate,
		onSave:  onSave,
		alert:   func(string) {},
		logger:  logging.Nop(),
		draft:   initial,
		preview: initial.Image,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Form) Mode() Mode { return f.mode }

// SubmitLabel is the caption of the submit action.
func (f *Form) SubmitLabel() string {
	if f.mode == ModeEdit {
		return "Save Changes"
	}
	return "Create Course"
}

// Draft returns the current draft.
func (f *Form) Draft() domain.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Preview returns the image currently shown, if any.
func (f *Form) Preview() (domain.HostedImage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.preview, !f.preview.IsZero()
}

// SetField updates one draft key from raw text input.
func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch name {
	case FieldTitle:
		f.draft.Title = value
	case FieldDescription:
		f.draft.Description = value
	case FieldPrice:
		f.draft.Price = ParsePrice(value)
	case FieldImage:
		f.draft.Image = domain.HostedImage(strings.TrimSpace(value))
		f.preview = f.draft.Image
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// ParsePrice turns typed text into a price. Anything unparsable is 0.
func ParsePrice(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SelectImage uploads file and, on success, points the draft and the preview at
// the hosted URL. On failure the user is alerted and nothing changes.
func (f *Form) SelectImage(ctx context.Context, file domain.PendingUpload) error {
	if f.uploader == nil {
		f.alert(UploadFailedAlert)
		return ErrNoUploader
	}

	url, err := f.uploader.UploadImage(ctx, file)
	if err != nil {
		f.logger.Error("error uploading image", "file", file.Filename, "error", err)
		f.alert(UploadFailedAlert)
		return err
	}

	f.mu.Lock()
	f.draft.Image = url
	f.preview = url
	f.mu.Unlock()
	return nil
}

// DragEnter and DragLeave track whether a drag is hovering the drop target.
func (f *Form) DragEnter() {
	f.mu.Lock()
	f.dragging = true
	f.mu.Unlock()
}

func (f *Form) DragLeave() {
	f.mu.Lock()
	f.dragging = false
	f.mu.Unlock()
}

func (f *Form) Dragging() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dragging
}

// DropImage handles files dropped on the target. Only the first one is used.
func (f *Form) DropImage(ctx context.Context, files []domain.PendingUpload) error {
	f.DragLeave()
	if len(files) == 0 {
		return nil
	}
	return f.SelectImage(ctx, files[0])
}

// Submit hands the draft to the save handler as is. No validation happens here.
func (f *Form) Submit(ctx context.Context) error {
	if f.onSave == nil {
		return nil
	}
	return f.onSave(ctx, f.Draft())
}

// LoadImageFile reads a local file into a PendingUpload. Only image content
// is accepted.
func LoadImageFile(path string) (domain.PendingUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.PendingUpload{}, fmt.Errorf("form: read image: %w", err)
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return domain.PendingUpload{}, fmt.Errorf("%w: %s (%s)", ErrNotImage, filepath.Base(path), ct)
	}
	return domain.PendingUpload{
		Filename:    filepath.Base(path),
		ContentType: ct,
		Data:        data,
	}, nil
}
