package dashboard

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"course-admin/internal/domain"
)

const (
	gridColumns    = 3
	descListLimit  = 60
	descCardLimit  = 120
	noCoursesLabel = "No courses found"
	loadingLabel   = "Loading courses..."
)

type RenderOptions struct {
	NoColor bool
}

// Render writes the filtered view of snap in its view mode.
func Render(w io.Writer, snap Snapshot, opts RenderOptions) error {
	heading := color.New(color.FgHiYellow, color.Bold)
	muted := color.New(color.FgYellow)
	if opts.NoColor {
		heading.DisableColor()
		muted.DisableColor()
	}

	if snap.Loading {
		_, err := muted.Fprintln(w, loadingLabel)
		return err
	}

	if snap.SearchTerm != "" {
		if _, err := muted.Fprintf(w, "Search: %q (%d of %d)\n", snap.SearchTerm, len(snap.Filtered), len(snap.Courses)); err != nil {
			return err
		}
	}

	if len(snap.Filtered) == 0 {
		_, err := muted.Fprintln(w, noCoursesLabel)
		return err
	}

	if _, err := heading.Fprintf(w, "Courses (%s view)\n", snap.ViewMode); err != nil {
		return err
	}

	if snap.ViewMode == ViewGrid {
		renderGrid(w, snap.Filtered)
	} else {
		renderList(w, snap.Filtered)
	}
	return nil
}

func renderList(w io.Writer, courses []domain.Course) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Title", "Description", "Price", "Image"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, c := range courses {
		table.Append([]string{
			strconv.Itoa(c.ID),
			c.Title,
			clamp(c.Description, descListLimit),
			domain.FormatPrice(c.Price),
			c.Image.URL(),
		})
	}
	table.Render()
}

func renderGrid(w io.Writer, courses []domain.Course) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for start := 0; start < len(courses); start += gridColumns {
		end := start + gridColumns
		if end > len(courses) {
			end = len(courses)
		}
		row := make([]string, 0, gridColumns)
		for _, c := range courses[start:end] {
			row = append(row, Card(c))
		}
		for len(row) < gridColumns {
			row = append(row, "")
		}
		table.Append(row)
	}
	table.Render()
}

// Card renders one course as a multi-line block: title, description (if any),
// price and image reference.
func Card(c domain.Course) string {
	lines := []string{fmt.Sprintf("#%d %s", c.ID, c.Title)}
	if c.Description != "" {
		lines = append(lines, clamp(c.Description, descCardLimit))
	}
	lines = append(lines, domain.FormatPrice(c.Price))
	if !c.Image.IsZero() {
		lines = append(lines, c.Image.URL())
	}
	return strings.Join(lines, "\n")
}

func clamp(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
