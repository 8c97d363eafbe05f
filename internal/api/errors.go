package api

import "fmt"

// RequestFailure is returned by the CRUD operations when the envelope reports
// success=false or when the request could not be completed at all.
type RequestFailure struct {
	Op      string // "list", "create", "update", "delete"
	Message string // backend message, when there is one
	Err     error  // transport/parse cause, when there is one
}

func (e *RequestFailure) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("course api: %s failed: %s: %v", e.Op, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("course api: %s failed: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("course api: %s failed: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("course api: %s failed", e.Op)
	}
}

func (e *RequestFailure) Unwrap() error { return e.Err }

// UploadFailure is returned by UploadImage.
type UploadFailure struct {
	Message string
	Err     error
}

func (e *UploadFailure) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("course api: image upload failed: %s: %v", e.Message, e.Err)
	case e.Message != "":
		return "course api: image upload failed: " + e.Message
	case e.Err != nil:
		return fmt.Sprintf("course api: image upload failed: %v", e.Err)
	default:
		return "course api: image upload failed"
	}
}

func (e *UploadFailure) Unwrap() error { return e.Err }
