package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"course-admin/internal/api"
	"course-admin/internal/dashboard"
	"course-admin/internal/form"
)

func (a *App) newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive catalog dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			client := a.client()
			store := dashboard.NewStore(client, a.logger)
			if err := store.Load(ctx); err != nil {
				// the dashboard still opens on an empty list
				a.alert("Failed to load courses")
			}

			render := dashboard.RenderOptions{NoColor: a.noColor}
			for {
				if err := dashboard.Render(a.out, store.Snapshot(), render); err != nil {
					return err
				}

				action, err := a.prompter.Action(store.Snapshot())
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				if err != nil {
					return err
				}

				switch action {
				case ActionQuit:
					return nil
				case ActionRefresh:
					if err := store.Load(ctx); err != nil {
						a.alert("Failed to load courses")
					}
				case ActionToggle:
					store.ToggleView()
				case ActionSearch:
					term := store.Snapshot().SearchTerm
					if err := a.prompter.Input("Search courses...", &term); err != nil && !errors.Is(err, huh.ErrUserAborted) {
						return err
					}
					store.SetSearch(term)
				case ActionAdd:
					store.StartCreate()
					if _, err := a.runEditor(ctx, store, client, nil, "", true); err != nil {
						a.reportEditorError(err)
					}
				case ActionEdit:
					id, err := a.prompter.PickCourse("Edit which course?", store.Filtered())
					if err != nil {
						a.reportEditorError(err)
						continue
					}
					course, ok := store.Find(id)
					if !ok {
						continue
					}
					store.StartEdit(course)
					if _, err := a.runEditor(ctx, store, client, nil, "", true); err != nil {
						a.reportEditorError(err)
					}
				case ActionDelete:
					id, err := a.prompter.PickCourse("Delete which course?", store.Filtered())
					if err != nil {
						a.reportEditorError(err)
						continue
					}
					ok, err := a.prompter.Confirm(fmt.Sprintf("Delete course #%d?", id))
					if err != nil || !ok {
						continue
					}
					if err := store.Delete(ctx, id); err != nil {
						a.alert("Failed to delete course")
					}
				}
			}
		},
	}
}

// reportEditorError keeps the dashboard running after a failed or cancelled
// edit. Upload failures were already alerted by the form.
func (a *App) reportEditorError(err error) {
	switch {
	case errors.Is(err, huh.ErrUserAborted):
	case isUploadFailure(err):
	default:
		a.alert("Error saving course: " + err.Error())
	}
}

func isUploadFailure(err error) bool {
	var uf *api.UploadFailure
	return errors.As(err, &uf) || errors.Is(err, form.ErrNoUploader)
}
