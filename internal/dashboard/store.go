package dashboard

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"course-admin/internal/domain"
	"course-admin/internal/logging"
)

// CourseAPI is the subset of the API client the store needs.
type CourseAPI interface {
	ListCourses(ctx context.Context) ([]domain.Course, error)
	CreateCourse(ctx context.Context, draft domain.Draft) (domain.Course, error)
	UpdateCourse(ctx context.Context, course domain.Course) (domain.Course, error)
	DeleteCourse(ctx context.Context, id int) error
}

type ViewMode string

const (
	ViewList ViewMode = "list"
	ViewGrid ViewMode = "grid"
)

type EditorMode string

const (
	ModeCreate EditorMode = "create"
	ModeEdit   EditorMode = "edit"
)

// Store owns the authoritative course list of a session and every piece of
// dashboard state derived from user actions. Network calls are made without
// holding the lock; state only changes once a call has resolved.
type Store struct {
	api    CourseAPI
	logger *slog.Logger

	mu         sync.RWMutex
	courses    []domain.Course
	searchTerm string
	viewMode   ViewMode
	activeEdit *domain.Course
	editorOpen bool
	loading    bool
}

func NewStore(api CourseAPI, logger *slog.Logger) *Store {
	return &Store{
		api:      api,
		logger:   logging.OrNop(logger),
		viewMode: ViewList,
		loading:  true,
	}
}

// Load performs the initial bulk fetch. On failure the list stays empty and
// the error is logged; it is also returned so a caller can show it. There is
// no retry.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	courses, err := s.api.ListCourses(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.logger.Error("failed to fetch courses", "error", err)
		return err
	}
	s.courses = dedupeByID(courses)
	s.logger.Debug("courses loaded", "count", len(s.courses))
	return nil
}

// Filtered returns the courses whose title contains the search term,
// case-insensitively, in list order.
func (s *Store) Filtered() []domain.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterByTitle(s.courses, s.searchTerm)
}

// FilterByTitle is the pure filter behind Filtered.
func FilterByTitle(courses []domain.Course, term string) []domain.Course {
	needle := strings.ToLower(term)
	out := make([]domain.Course, 0, len(courses))
	for _, c := range courses {
		if strings.Contains(strings.ToLower(c.Title), needle) {
			out = append(out, c)
		}
	}
	return out
}

// Save creates or updates depending on whether an edit is active.
func (s *Store) Save(ctx context.Context, draft domain.Draft) (domain.Course, error) {
	s.mu.RLock()
	var editing *domain.Course
	if s.activeEdit != nil {
		c := *s.activeEdit
		editing = &c
	}
	s.mu.RUnlock()

	if editing != nil {
		return s.update(ctx, *editing, draft)
	}
	return s.create(ctx, draft)
}

func (s *Store) update(ctx context.Context, editing domain.Course, draft domain.Draft) (domain.Course, error) {
	saved, err := s.api.UpdateCourse(ctx, editing.Apply(draft))
	if err != nil {
		s.logger.Error("error saving course", "op", "update", "id", editing.ID, "error", err)
		return domain.Course{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.courses {
		if s.courses[i].ID == saved.ID {
			s.courses[i] = saved
		}
	}
	s.editorOpen = false
	s.activeEdit = nil
	s.logger.Info("course updated", "id", saved.ID)
	return saved, nil
}

func (s *Store) create(ctx context.Context, draft domain.Draft) (domain.Course, error) {
	saved, err := s.api.CreateCourse(ctx, draft)
	if err != nil {
		s.logger.Error("error saving course", "op", "create", "error", err)
		return domain.Course{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(saved.ID); i >= 0 {
		// backend handed out an id we already hold: keep one entry per id
		s.courses[i] = saved
	} else {
		s.courses = append(s.courses, saved)
	}
	s.editorOpen = false
	s.logger.Info("course created", "id", saved.ID)
	return saved, nil
}

// Delete removes a course once the backend has confirmed the deletion.
func (s *Store) Delete(ctx context.Context, id int) error {
	if err := s.api.DeleteCourse(ctx, id); err != nil {
		s.logger.Error("failed to delete course", "id", id, "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.courses[:0:0]
	for _, c := range s.courses {
		if c.ID != id {
			out = append(out, c)
		}
	}
	s.courses = out
	s.logger.Info("course deleted", "id", id)
	return nil
}

// StartEdit opens the editor on course.
func (s *Store) StartEdit(course domain.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := course
	s.activeEdit = &c
	s.editorOpen = true
}

// StartCreate opens the editor with empty defaults.
func (s *Store) StartCreate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeEdit = nil
	s.editorOpen = true
}

// CloseEditor dismisses the editor without saving. The active edit is kept,
// like dismissing the dialog does.
func (s *Store) CloseEditor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editorOpen = false
}

// EditorDraft returns the values the editor should be pre-populated with.
func (s *Store) EditorDraft() domain.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeEdit != nil {
		return domain.DraftFrom(*s.activeEdit)
	}
	return domain.EmptyDraft()
}

func (s *Store) EditorMode() EditorMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeEdit != nil {
		return ModeEdit
	}
	return ModeCreate
}

// EditorTitle is the heading of the editor dialog.
func (s *Store) EditorTitle() string {
	if s.EditorMode() == ModeEdit {
		return "Edit Course"
	}
	return "Add New Course"
}

func (s *Store) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchTerm = term
}

func (s *Store) SetViewMode(m ViewMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m != ViewGrid {
		m = ViewList
	}
	s.viewMode = m
}

func (s *Store) ToggleView() ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewMode == ViewGrid {
		s.viewMode = ViewList
	} else {
		s.viewMode = ViewGrid
	}
	return s.viewMode
}

// Find looks a course up by id in the authoritative list.
func (s *Store) Find(id int) (domain.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.courses[i], true
	}
	return domain.Course{}, false
}

func (s *Store) Courses() []domain.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Course(nil), s.courses...)
}

// Snapshot is a copy of the store state, safe to keep and render.
type Snapshot struct {
	Courses    []domain.Course
	Filtered   []domain.Course
	SearchTerm string
	ViewMode   ViewMode
	ActiveEdit *domain.Course
	EditorOpen bool
	Loading    bool
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Courses:    append([]domain.Course(nil), s.courses...),
		Filtered:   FilterByTitle(s.courses, s.searchTerm),
		SearchTerm: s.searchTerm,
		ViewMode:   s.viewMode,
		EditorOpen: s.editorOpen,
		Loading:    s.loading,
	}
	if s.activeEdit != nil {
		c := *s.activeEdit
		snap.ActiveEdit = &c
	}
	return snap
}

// caller holds the lock
func (s *Store) indexOf(id int) int {
	for i := range s.courses {
		if s.courses[i].ID == id {
			return i
		}
	}
	return -1
}

// dedupeByID keeps the first occurrence of every id.
func dedupeByID(in []domain.Course) []domain.Course {
	seen := make(map[int]bool, len(in))
	out := make([]domain.Course, 0, len(in))
	for _, c := range in {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
