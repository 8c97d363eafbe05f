package cli

import (
	"encoding/json"
	"io"
	"strings"

	"course-admin/internal/domain"
)

// courseJSON is the --json shape of a course.
type courseJSON struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}

func toJSON(c domain.Course) courseJSON {
	return courseJSON{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Price:       c.Price,
		Image:       c.Image.URL(),
	}
}

// pick toma cualquier struct/map, lo pasa a map[string]any vía JSON,
// y devuelve solo las keys pedidas.
func pick(v any, keys ...string) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if val, ok := m[k]; ok {
			out[k] = val
		}
	}
	return out
}

func splitFields(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeCoursesJSON prints courses as a JSON array, optionally restricted to
// fields.
func writeCoursesJSON(w io.Writer, courses []domain.Course, fields []string) error {
	if len(fields) == 0 {
		out := make([]courseJSON, 0, len(courses))
		for _, c := range courses {
			out = append(out, toJSON(c))
		}
		return writeJSON(w, out)
	}
	out := make([]map[string]any, 0, len(courses))
	for _, c := range courses {
		out = append(out, pick(toJSON(c), fields...))
	}
	return writeJSON(w, out)
}
