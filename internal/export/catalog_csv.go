package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"course-admin/internal/domain"
)

// Catalog CSV layout. Keep header order EXACT: the import side accepts any
// order, but the published files are diffed by downstream consumers.
var catalogHeader = []string{
	"COURSE_ID",
	"COURSE_TITLE",
	"COURSE_DESCRIPTION",
	"PRICE",
	"IMAGE_URL",
}

// WriteCatalogCSV writes courses in catalog order.
func WriteCatalogCSV(w io.Writer, courses []domain.Course) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(catalogHeader); err != nil {
		return err
	}
	for _, c := range courses {
		if err := cw.Write(toCatalogRow(c)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCatalogCSVFile writes the CSV to outPath, creating parent directories.
func WriteCatalogCSVFile(outPath string, courses []domain.Course) error {
	if dir := filepath.Dir(outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: create dir: %w", err)
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("export: create file: %w", err)
	}
	if err := WriteCatalogCSV(f, courses); err != nil {
		f.Close()
		return fmt.Errorf("export: write csv: %w", err)
	}
	return f.Close()
}

func toCatalogRow(c domain.Course) []string {
	return []string{
		strconv.Itoa(c.ID),                       // COURSE_ID
		cleanString(c.Title),                     // COURSE_TITLE
		cleanString(c.Description),               // COURSE_DESCRIPTION
		strconv.FormatFloat(c.Price, 'f', 2, 64), // PRICE
		strings.TrimSpace(c.Image.URL()),         // IMAGE_URL
	}
}

// avoid newlines so every course stays on one physical line
func cleanString(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// ReadCatalogCSV parses a catalog file into drafts. Rows with an empty
// COURSE_ID get a nil ID. Columns are matched by header name; only
// COURSE_TITLE is required.
func ReadCatalogCSV(r io.Reader) ([]domain.Draft, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("export: empty catalog file")
		}
		return nil, fmt.Errorf("export: read header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := idx["COURSE_TITLE"]; !ok {
		return nil, errors.New("export: missing COURSE_TITLE column")
	}

	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []domain.Draft
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("export: line %d: %w", line, err)
		}

		d := domain.Draft{
			Title:       get(row, "COURSE_TITLE"),
			Description: get(row, "COURSE_DESCRIPTION"),
			Image:       domain.HostedImage(get(row, "IMAGE_URL")),
		}
		if v := get(row, "COURSE_ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("export: line %d: invalid COURSE_ID %q", line, v)
			}
			d.ID = &id
		}
		if v := get(row, "PRICE"); v != "" {
			p, err := strconv.ParseFloat(strings.TrimPrefix(v, "$"), 64)
			if err != nil || p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				return nil, fmt.Errorf("export: line %d: invalid PRICE %q", line, v)
			}
			d.Price = p
		}
		out = append(out, d)
	}
	return out, nil
}
