package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/huh"

	"course-admin/internal/dashboard"
	"course-admin/internal/domain"
)

// Dashboard actions returned by Prompter.Action.
const (
	ActionSearch  = "search"
	ActionToggle  = "toggle"
	ActionAdd     = "add"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
	ActionRefresh = "refresh"
	ActionQuit    = "quit"
)

// CourseInput is the raw text typed into the course editor.
type CourseInput struct {
	Title       string
	Description string
	Price       string
	Image       string
	ImageFile   string
}

func inputFromDraft(d domain.Draft) CourseInput {
	in := CourseInput{
		Title:       d.Title,
		Description: d.Description,
		Image:       d.Image.URL(),
	}
	if d.Price != 0 {
		in.Price = strconv.FormatFloat(d.Price, 'f', -1, 64)
	}
	return in
}

// Prompter asks the user for input. The default implementation uses huh.
type Prompter interface {
	// CourseForm edits in place. submitLabel is the confirm button text.
	CourseForm(heading, submitLabel string, in *CourseInput) error
	Confirm(question string) (bool, error)
	// Action picks the next dashboard action.
	Action(snap dashboard.Snapshot) (string, error)
	Input(title string, value *string) error
	// PickCourse returns the id chosen from courses.
	PickCourse(title string, courses []domain.Course) (int, error)
}

type huhPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p *huhPrompter) run(groups ...*huh.Group) error {
	return huh.NewForm(groups...).WithInput(p.in).WithOutput(p.out).Run()
}

func (p *huhPrompter) CourseForm(heading, submitLabel string, in *CourseInput) error {
	var submit bool
	err := p.run(
		huh.NewGroup(
			huh.NewNote().Title(heading),
			huh.NewInput().
				Title("Title").
				Placeholder("Introduction to Go").
				Value(&in.Title),
			huh.NewText().
				Title("Description").
				Value(&in.Description),
			huh.NewInput().
				Title("Price").
				Placeholder("0").
				Value(&in.Price),
			huh.NewInput().
				Title("Image URL").
				Description("Clear to remove the image. An image file below replaces it").
				Value(&in.Image),
			huh.NewInput().
				Title("Image file").
				Description("Local image to upload").
				Value(&in.ImageFile),
			huh.NewConfirm().
				Affirmative(submitLabel).
				Negative("Cancel").
				Value(&submit),
		),
	)
	if err != nil {
		return err
	}
	if !submit {
		return huh.ErrUserAborted
	}
	return nil
}

func (p *huhPrompter) Confirm(question string) (bool, error) {
	var ok bool
	err := p.run(huh.NewGroup(
		huh.NewConfirm().Title(question).Affirmative("Yes").Negative("No").Value(&ok),
	))
	return ok, err
}

func (p *huhPrompter) Action(snap dashboard.Snapshot) (string, error) {
	toggle := "Switch to grid view"
	if snap.ViewMode == dashboard.ViewGrid {
		toggle = "Switch to list view"
	}
	action := ActionQuit
	err := p.run(huh.NewGroup(
		huh.NewSelect[string]().
			Title("What next?").
			Options(
				huh.NewOption("Search", ActionSearch),
				huh.NewOption(toggle, ActionToggle),
				huh.NewOption("Add course", ActionAdd),
				huh.NewOption("Edit course", ActionEdit),
				huh.NewOption("Delete course", ActionDelete),
				huh.NewOption("Refresh", ActionRefresh),
				huh.NewOption("Quit", ActionQuit),
			).
			Value(&action),
	))
	return action, err
}

func (p *huhPrompter) Input(title string, value *string) error {
	return p.run(huh.NewGroup(huh.NewInput().Title(title).Value(value)))
}

func (p *huhPrompter) PickCourse(title string, courses []domain.Course) (int, error) {
	if len(courses) == 0 {
		return 0, fmt.Errorf("no courses to choose from")
	}
	opts := make([]huh.Option[int], 0, len(courses))
	for _, c := range courses {
		opts = append(opts, huh.NewOption(fmt.Sprintf("#%d %s (%s)", c.ID, c.Title, domain.FormatPrice(c.Price)), c.ID))
	}
	id := courses[0].ID
	err := p.run(huh.NewGroup(
		huh.NewSelect[int]().Title(title).Options(opts...).Value(&id),
	))
	return id, err
}
