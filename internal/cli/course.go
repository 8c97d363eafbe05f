package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"course-admin/internal/dashboard"
	"course-admin/internal/domain"
	"course-admin/internal/form"
)

// courseFlags binds the editor flags shared by add and edit.
type courseFlags struct {
	title       string
	description string
	price       string
	image       string
	imageFile   string
}

func (f *courseFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Course title")
	cmd.Flags().StringVar(&f.description, "description", "", "Course description")
	cmd.Flags().StringVar(&f.price, "price", "", "Course price (unparsable values become 0)")
	cmd.Flags().StringVar(&f.image, "image", "", "Hosted image URL")
	cmd.Flags().StringVar(&f.imageFile, "image-file", "", "Local image file to upload")
}

// edits returns the field updates for every flag that was set explicitly.
func (f *courseFlags) edits(cmd *cobra.Command) ([][2]string, string) {
	var out [][2]string
	add := func(flag, field, value string) {
		if cmd.Flags().Changed(flag) {
			out = append(out, [2]string{field, value})
		}
	}
	add("title", form.FieldTitle, f.title)
	add("description", form.FieldDescription, f.description)
	add("price", form.FieldPrice, f.price)
	add("image", form.FieldImage, f.image)
	return out, f.imageFile
}

func (f *courseFlags) anyChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"title", "description", "price", "image", "image-file"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func inputEdits(in CourseInput) [][2]string {
	return [][2]string{
		{form.FieldTitle, in.Title},
		{form.FieldDescription, in.Description},
		{form.FieldPrice, in.Price},
		{form.FieldImage, in.Image},
	}
}

// runEditor drives the form for the editor currently open on store. With
// interactive set, the prompter fills every field starting from the draft.
func (a *App) runEditor(ctx context.Context, store *dashboard.Store, up form.Uploader, edits [][2]string, imageFile string, interactive bool) (domain.Course, error) {
	mode := form.ModeCreate
	if store.EditorMode() == dashboard.ModeEdit {
		mode = form.ModeEdit
	}

	var saved domain.Course
	f := form.New(store.EditorDraft(), func(ctx context.Context, d domain.Draft) error {
		c, err := store.Save(ctx, d)
		if err != nil {
			return err
		}
		saved = c
		return nil
	},
		form.WithMode(mode),
		form.WithUploader(up),
		form.WithAlert(a.alert),
		form.WithLogger(a.logger),
	)

	if interactive {
		in := inputFromDraft(f.Draft())
		if err := a.prompter.CourseForm(store.EditorTitle(), f.SubmitLabel(), &in); err != nil {
			store.CloseEditor()
			return domain.Course{}, err
		}
		edits, imageFile = inputEdits(in), in.ImageFile
	}

	for _, e := range edits {
		if err := f.SetField(e[0], e[1]); err != nil {
			return domain.Course{}, err
		}
	}
	if imageFile != "" {
		file, err := form.LoadImageFile(imageFile)
		if err != nil {
			return domain.Course{}, err
		}
		if err := f.SelectImage(ctx, file); err != nil {
			return domain.Course{}, err
		}
	}

	if err := f.Submit(ctx); err != nil {
		return domain.Course{}, err
	}
	return saved, nil
}

func (a *App) newAddCmd() *cobra.Command {
	flags := &courseFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a course",
		Long:  "Create a course from flags. Without flags an interactive form is shown.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			client := a.client()
			store := dashboard.NewStore(client, a.logger)
			store.StartCreate()

			edits, imageFile := flags.edits(cmd)
			saved, err := a.runEditor(ctx, store, client, edits, imageFile, !flags.anyChanged(cmd))
			if err != nil {
				return cancelled(err)
			}
			fmt.Fprintf(a.out, "%s #%d %s\n", color.GreenString("Created course"), saved.ID, saved.Title)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func (a *App) newEditCmd() *cobra.Command {
	flags := &courseFlags{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a course",
		Long:  "Edit a course. Only the flags given are changed. Without flags an interactive form is shown.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			client := a.client()
			store := dashboard.NewStore(client, a.logger)
			if err := store.Load(ctx); err != nil {
				return err
			}
			course, ok := store.Find(id)
			if !ok {
				return fmt.Errorf("course %d not found", id)
			}
			store.StartEdit(course)

			edits, imageFile := flags.edits(cmd)
			saved, err := a.runEditor(ctx, store, client, edits, imageFile, !flags.anyChanged(cmd))
			if err != nil {
				return cancelled(err)
			}
			fmt.Fprintf(a.out, "%s #%d %s\n", color.GreenString("Updated course"), saved.ID, saved.Title)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func (a *App) newDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := a.prompter.Confirm(fmt.Sprintf("Delete course #%d?", id))
				if err != nil {
					return cancelled(err)
				}
				if !ok {
					fmt.Fprintln(a.out, "Aborted")
					return nil
				}
			}
			store := dashboard.NewStore(a.client(), a.logger)
			if err := store.Delete(commandContext(cmd), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s #%d\n", color.GreenString("Deleted course"), id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func (a *App) newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image and print its hosted URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := form.LoadImageFile(args[0])
			if err != nil {
				return err
			}
			url, err := a.client().UploadImage(commandContext(cmd), file)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, url.URL())
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid course id %q", s)
	}
	return id, nil
}

// cancelled maps an aborted prompt to a plain message.
func cancelled(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return errors.New("cancelled")
	}
	return err
}
