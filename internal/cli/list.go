package cli

import (
	"github.com/spf13/cobra"

	"course-admin/internal/dashboard"
)

func (a *App) newListCmd() *cobra.Command {
	var (
		search   string
		grid     bool
		asJSON   bool
		fieldsCS string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List courses",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := dashboard.NewStore(a.client(), a.logger)
			if err := store.Load(commandContext(cmd)); err != nil {
				return err
			}
			store.SetSearch(search)

			if asJSON || fieldsCS != "" {
				return writeCoursesJSON(a.out, store.Filtered(), splitFields(fieldsCS))
			}
			if grid {
				store.SetViewMode(dashboard.ViewGrid)
			}
			return dashboard.Render(a.out, store.Snapshot(), dashboard.RenderOptions{NoColor: a.noColor})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive title filter")
	cmd.Flags().BoolVar(&grid, "grid", false, "Render cards instead of a table")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().StringVar(&fieldsCS, "fields", "", "Comma separated JSON fields (implies --json)")
	return cmd
}
