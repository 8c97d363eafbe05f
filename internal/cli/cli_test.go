package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-admin/internal/api"
	"course-admin/internal/config"
	"course-admin/internal/dashboard"
	"course-admin/internal/devserver"
	"course-admin/internal/domain"
	"course-admin/internal/form"
	"course-admin/internal/sftpclient"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testEnv struct {
	t       *testing.T
	baseURL string
	backend *devserver.Server
}

func newTestEnv(t *testing.T, seed ...devserver.Record) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv, err := devserver.New(devserver.Config{UploadDir: t.TempDir()})
	require.NoError(t, err)
	srv.Seed(seed...)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return &testEnv{t: t, baseURL: hs.URL + "/api", backend: srv}
}

func (e *testEnv) run(p Prompter, args ...string) (string, string, error) {
	e.t.Helper()
	if p == nil {
		p = &fakePrompter{}
	}
	var out, errOut bytes.Buffer
	cfg := config.Config{
		APIBaseURL:    e.baseURL,
		LogLevel:      "error",
		ImportWorkers: 2,
		SFTPDir:       "/inbound",
	}
	cmd := NewRootCmd(cfg, WithIO(strings.NewReader(""), &out, &errOut), WithPrompter(p))
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (e *testEnv) courses() []domain.Course {
	e.t.Helper()
	list, err := api.New(e.baseURL).ListCourses(context.Background())
	require.NoError(e.t, err)
	return list
}

func sampleRecords() []devserver.Record {
	return []devserver.Record{
		{Name: "Go Basics", Description: "Types and functions", Price: 10},
		{Name: "Docker Deep Dive", Description: "Containers", Price: 20},
		{Name: "Advanced Go", Description: "Concurrency", Price: 30},
	}
}

type fakePrompter struct {
	course   func(in *CourseInput)
	confirm  bool
	actions  []string
	inputs   []string
	picks    []int
	headings []string
	labels   []string
}

func (p *fakePrompter) CourseForm(heading, submitLabel string, in *CourseInput) error {
	p.headings = append(p.headings, heading)
	p.labels = append(p.labels, submitLabel)
	if p.course == nil {
		return huh.ErrUserAborted
	}
	p.course(in)
	return nil
}

func (p *fakePrompter) Confirm(string) (bool, error) { return p.confirm, nil }

func (p *fakePrompter) Action(dashboard.Snapshot) (string, error) {
	if len(p.actions) == 0 {
		return ActionQuit, nil
	}
	a := p.actions[0]
	p.actions = p.actions[1:]
	return a, nil
}

func (p *fakePrompter) Input(_ string, value *string) error {
	if len(p.inputs) > 0 {
		*value = p.inputs[0]
		p.inputs = p.inputs[1:]
	}
	return nil
}

func (p *fakePrompter) PickCourse(_ string, courses []domain.Course) (int, error) {
	if len(p.picks) == 0 {
		return courses[0].ID, nil
	}
	id := p.picks[0]
	p.picks = p.picks[1:]
	return id, nil
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o644))
	return path
}

func TestListTable(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)

	out, _, err := env.run(nil, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Courses (list view)")
	assert.Contains(t, out, "Go Basics")
	assert.Contains(t, out, "Docker Deep Dive")
	assert.Contains(t, out, "$20.00")
}

func TestListSearchAndGrid(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)

	out, _, err := env.run(nil, "list", "--search", "GO", "--grid")
	require.NoError(t, err)
	assert.Contains(t, out, "Courses (grid view)")
	assert.Contains(t, out, `Search: "GO" (2 of 3)`)
	assert.Contains(t, out, "Advanced Go")
	assert.NotContains(t, out, "Docker")
}

func TestListNoMatches(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)

	out, _, err := env.run(nil, "list", "-s", "rust")
	require.NoError(t, err)
	assert.Contains(t, out, "No courses found")
}

func TestListJSON(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)

	out, _, err := env.run(nil, "list", "--json")
	require.NoError(t, err)
	var got []courseJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, courseJSON{ID: 2, Title: "Docker Deep Dive", Description: "Containers", Price: 20}, got[1])

	out, _, err = env.run(nil, "list", "--fields", "id, title")
	require.NoError(t, err)
	var picked []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &picked))
	require.Len(t, picked, 3)
	assert.Equal(t, map[string]any{"id": float64(1), "title": "Go Basics"}, picked[0])
}

func TestListBackendDown(t *testing.T) {
	env := newTestEnv(t)
	env.baseURL = "http://127.0.0.1:1/api"

	_, _, err := env.run(nil, "list")
	var rf *api.RequestFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, "list", rf.Op)
}

func TestAddWithFlags(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)

	out, _, err := env.run(nil, "add", "--title", "Rust", "--price", "abc", "--description", "Ownership")
	require.NoError(t, err)
	assert.Contains(t, out, "Created course #4 Rust")

	list := env.courses()
	require.Len(t, list, 4)
	assert.Equal(t, domain.Course{ID: 4, Title: "Rust", Description: "Ownership", Price: 0}, list[3])
}

func TestAddWithImageFile(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(nil, "add", "--title", "Pics", "--price", "12.5", "--image-file", writePNG(t))
	require.NoError(t, err)

	list := env.courses()
	require.Len(t, list, 1)
	assert.Equal(t, 12.5, list[0].Price)
	assert.Contains(t, list[0].Image.URL(), "/uploads/")
}

func TestAddRejectsNonImageFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, _, err := env.run(nil, "add", "--title", "X", "--image-file", path)
	require.ErrorIs(t, err, form.ErrNotImage)
	assert.Empty(t, env.courses())
}

func TestAddBackendValidationError(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(nil, "add", "--title", "", "--price", "1")
	var rf *api.RequestFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, "Course name is required", rf.Message)
}

func TestAddInteractive(t *testing.T) {
	env := newTestEnv(t)
	p := &fakePrompter{course: func(in *CourseInput) {
		in.Title = "Kubernetes"
		in.Price = "99.9"
	}}

	out, _, err := env.run(p, "add")
	require.NoError(t, err)
	assert.Contains(t, out, "Created course #1 Kubernetes")
	assert.Equal(t, []string{"Add New Course"}, p.headings)
	assert.Equal(t, []string{"Create Course"}, p.labels)
	assert.Equal(t, 99.9, env.courses()[0].Price)
}

func TestAddInteractiveCancelled(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(&fakePrompter{}, "add")
	require.EqualError(t, err, "cancelled")
	assert.Empty(t, env.courses())
}

func TestEditOnlyChangesGivenFlags(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)

	out, _, err := env.run(nil, "edit", "2", "--price", "25")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated course #2 Docker Deep Dive")

	list := env.courses()
	assert.Equal(t, domain.Course{ID: 2, Title: "Docker Deep Dive", Description: "Containers", Price: 25}, list[1])
	assert.Equal(t, "Go Basics", list[0].Title)
}

func TestEditInteractivePrefilled(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)
	var seen CourseInput
	p := &fakePrompter{course: func(in *CourseInput) {
		seen = *in
		in.Title = "Go Fundamentals"
	}}

	_, _, err := env.run(p, "edit", "1")
	require.NoError(t, err)
	assert.Equal(t, CourseInput{Title: "Go Basics", Description: "Types and functions", Price: "10"}, seen)
	assert.Equal(t, []string{"Edit Course"}, p.headings)
	assert.Equal(t, []string{"Save Changes"}, p.labels)
	assert.Equal(t, "Go Fundamentals", env.courses()[0].Title)
}

func TestEditUnknownAndInvalidID(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)

	_, _, err := env.run(nil, "edit", "99", "--title", "X")
	require.EqualError(t, err, "course 99 not found")

	_, _, err = env.run(nil, "edit", "abc", "--title", "X")
	require.EqualError(t, err, `invalid course id "abc"`)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)

	out, _, err := env.run(&fakePrompter{confirm: false}, "delete", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted")
	assert.Len(t, env.courses(), 3)

	out, _, err = env.run(nil, "delete", "2", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted course #2")

	list := env.courses()
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, 3, list[1].ID)

	_, _, err = env.run(nil, "delete", "2", "-y")
	var rf *api.RequestFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, "Course not found", rf.Message)
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(nil, "upload", writePNG(t))
	require.NoError(t, err)
	assert.Contains(t, out, "/uploads/")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), ".png"), out)
}

func TestExportStdout(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)

	out, _, err := env.run(nil, "export", "--out", "-")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "COURSE_ID,COURSE_TITLE,COURSE_DESCRIPTION,PRICE,IMAGE_URL", lines[0])
	assert.Equal(t, "2,Docker Deep Dive,Containers,20.00,", lines[2])
}

func TestExportFile(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)
	path := filepath.Join(t.TempDir(), "out", "courses.csv")

	_, errOut, err := env.run(nil, "export", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Exported 3 courses")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "3,Advanced Go,Concurrency,30.00,")
}

func TestExportSFTPNeedsCredentials(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)

	_, _, err := env.run(nil, "export", "--out", "-", "--sftp")
	require.ErrorIs(t, err, sftpclient.ErrMissingCredentials)
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportDryRun(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)
	path := writeCSV(t, "COURSE_ID,COURSE_TITLE,COURSE_DESCRIPTION,PRICE\n"+
		"1,Go Basics,Types and functions,15\n"+
		",Rust,Ownership,40\n")

	out, _, err := env.run(nil, "import", path, "--prune", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "create: 1, update: 1, delete: 2")
	assert.Contains(t, out, "+ Rust ($40.00)")
	assert.Contains(t, out, "~ #1 Go Basics ($15.00)")
	assert.Contains(t, out, "- #2 Docker Deep Dive")

	assert.Len(t, env.courses(), 3)
}

func TestImportApply(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)
	path := writeCSV(t, "COURSE_ID,COURSE_TITLE,COURSE_DESCRIPTION,PRICE\n"+
		"1,Go Basics,Types and functions,15\n"+
		",advanced go,Concurrency,30\n"+
		",Rust,Ownership,40\n")

	out, _, err := env.run(nil, "import", path, "--prune")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 4 operations")

	list := env.courses()
	require.Len(t, list, 3)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, 15.0, list[0].Price)
	assert.Equal(t, "advanced go", list[1].Title)
	assert.Equal(t, "Rust", list[2].Title)
}

func TestImportNothingToDo(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)
	path := writeCSV(t, "COURSE_ID,COURSE_TITLE,COURSE_DESCRIPTION,PRICE\n1,Go Basics,Types and functions,10\n")

	out, _, err := env.run(nil, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "create: 0, update: 0, delete: 0")
	assert.NotContains(t, out, "Applied")
}

func TestImportReportsFailures(t *testing.T) {
	env := newTestEnv(t)
	path := writeCSV(t, "COURSE_TITLE,PRICE\n,1\nOk,2\n")

	_, _, err := env.run(nil, "import", path)
	require.EqualError(t, err, "import: 1 of 2 operations failed")
	assert.Len(t, env.courses(), 1)
}

func TestImportBadFile(t *testing.T) {
	env := newTestEnv(t)
	path := writeCSV(t, "COURSE_TITLE,PRICE\nA,cheap\n")

	_, _, err := env.run(nil, "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2: invalid PRICE")
}

func TestDashboardLoop(t *testing.T) {
	env := newTestEnv(t, sampleRecords()...)
	p := &fakePrompter{
		actions: []string{ActionToggle, ActionSearch, ActionAdd, ActionEdit, ActionDelete, ActionQuit},
		inputs:  []string{"go"},
		picks:   []int{1, 3},
		confirm: true,
	}
	edits := 0
	p.course = func(in *CourseInput) {
		edits++
		if edits == 1 {
			in.Title = "Go Web"
			in.Price = "5"
			return
		}
		in.Price = "11"
	}

	out, _, err := env.run(p, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Courses (grid view)")
	assert.Contains(t, out, `Search: "go"`)
	assert.Equal(t, []string{"Add New Course", "Edit Course"}, p.headings)

	list := env.courses()
	require.Len(t, list, 3)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, 11.0, list[0].Price)
	assert.Equal(t, "Docker Deep Dive", list[1].Title)
	assert.Equal(t, "Go Web", list[2].Title)
}

func TestDashboardKeepsRunningAfterFailedSave(t *testing.T) {
	env := newTestEnv(t)
	p := &fakePrompter{
		actions: []string{ActionAdd, ActionQuit},
		course:  func(in *CourseInput) { in.Price = "1" },
	}

	_, errOut, err := env.run(p, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Error saving course: course api: create failed: Course name is required")
	assert.Empty(t, env.courses())
}

func TestRootHelp(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run(nil, "--help")
	require.NoError(t, err)
	for _, name := range []string{"list", "add", "edit", "delete", "upload", "dashboard", "export", "import"} {
		assert.Contains(t, out, name)
	}
}

func TestEditInteractiveImageField(t *testing.T) {
	env := newTestEnv(t, devserver.Record{Name: "Pics", Price: 1, Image: "http://img.test/old.png"})

	// a new file replaces the prefilled URL
	p := &fakePrompter{course: func(in *CourseInput) {
		assert.Equal(t, "http://img.test/old.png", in.Image)
		in.ImageFile = writePNG(t)
	}}
	_, _, err := env.run(p, "edit", "1")
	require.NoError(t, err)
	img := env.courses()[0].Image.URL()
	assert.Contains(t, img, "/uploads/")

	// clearing the field removes the image
	p = &fakePrompter{course: func(in *CourseInput) { in.Image = "" }}
	_, _, err = env.run(p, "edit", "1")
	require.NoError(t, err)
	assert.True(t, env.courses()[0].Image.IsZero())
}
