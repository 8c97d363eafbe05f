package domain

import (
	"fmt"
	"strings"
)

// HostedImage is an image reference already resolved to a server-accessible URL.
// The empty value means "no image".
type HostedImage string

func (h HostedImage) URL() string { return string(h) }

func (h HostedImage) IsZero() bool { return strings.TrimSpace(string(h)) == "" }

// PendingUpload is a raw image picked on the client that has not been uploaded yet.
// It never appears inside a Course or a Draft: the only way to turn it into a
// HostedImage is to upload it.
type PendingUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (p PendingUpload) Size() int { return len(p.Data) }

// Course is the canonical, persisted representation of a catalog entry.
// ID is assigned by the backend and never changes afterwards.
type Course struct {
	ID          int
	Title       string
	Price       float64
	Description string
	Image       HostedImage
}

// Draft is the mutable shape used while creating or editing a course.
// ID stays nil until the record has been persisted.
type Draft struct {
	ID          *int
	Title       string
	Price       float64
	Description string
	Image       HostedImage
}

// EmptyDraft returns the defaults shown when creating a new course.
func EmptyDraft() Draft {
	return Draft{Title: "", Price: 0, Description: "", Image: ""}
}

// DraftFrom pre-populates a draft with the current values of c.
func DraftFrom(c Course) Draft {
	id := c.ID
	return Draft{
		ID:          &id,
		Title:       c.Title,
		Price:       c.Price,
		Description: c.Description,
		Image:       c.Image,
	}
}

// Apply returns c with every editable field taken from d. The identity of c wins.
func (c Course) Apply(d Draft) Course {
	return Course{
		ID:          c.ID,
		Title:       d.Title,
		Price:       d.Price,
		Description: d.Description,
		Image:       d.Image,
	}
}

// FormatPrice renders a price with two decimals ("$49.99").
func FormatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}
