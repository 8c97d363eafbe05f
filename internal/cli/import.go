package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"course-admin/internal/concurrency"
	"course-admin/internal/domain"
	"course-admin/internal/export"
	"course-admin/internal/reconcile"
)

func (a *App) newImportCmd() *cobra.Command {
	var (
		prune  bool
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Reconcile the catalog with a CSV file",
		Long: `Reconcile the live catalog with a catalog CSV.

Rows whose COURSE_ID exists are updated when they differ. Rows without an id
are matched by title, and created when nothing matches. With --prune, courses
missing from the file are deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			desired, err := export.ReadCatalogCSV(f)
			f.Close()
			if err != nil {
				return err
			}

			client := a.client()
			current, err := client.ListCourses(ctx)
			if err != nil {
				return err
			}

			plan := reconcile.Diff(desired, current, prune)
			a.printPlan(plan)
			if dryRun || plan.Empty() {
				return nil
			}

			failed := a.applyPlan(ctx, client, plan)
			total := len(plan.Create) + len(plan.Update) + len(plan.Delete)
			if failed > 0 {
				return fmt.Errorf("import: %d of %d operations failed", failed, total)
			}
			fmt.Fprintf(a.out, "%s %d operations\n", color.GreenString("Applied"), total)
			return nil
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "Delete courses not present in the file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan without applying it")
	return cmd
}

func (a *App) printPlan(plan reconcile.Plan) {
	fmt.Fprintf(a.out, "create: %d, update: %d, delete: %d\n", len(plan.Create), len(plan.Update), len(plan.Delete))
	for _, d := range plan.Create {
		fmt.Fprintf(a.out, "  + %s (%s)\n", d.Title, domain.FormatPrice(d.Price))
	}
	for _, c := range plan.Update {
		fmt.Fprintf(a.out, "  ~ #%d %s (%s)\n", c.ID, c.Title, domain.FormatPrice(c.Price))
	}
	for _, c := range plan.Delete {
		fmt.Fprintf(a.out, "  - #%d %s\n", c.ID, c.Title)
	}
}

type importAPI interface {
	CreateCourse(ctx context.Context, draft domain.Draft) (domain.Course, error)
	UpdateCourse(ctx context.Context, course domain.Course) (domain.Course, error)
	DeleteCourse(ctx context.Context, id int) error
}

// applyPlan runs every operation through the worker pool and returns the
// number of failures. Each failure is logged.
func (a *App) applyPlan(ctx context.Context, api importAPI, plan reconcile.Plan) int {
	opts := concurrency.Options{Workers: a.cfg.ImportWorkers}
	failed := 0

	created := concurrency.Map(ctx, plan.Create, opts, func(ctx context.Context, d domain.Draft) (domain.Course, error) {
		return api.CreateCourse(ctx, d)
	})
	for _, r := range created {
		if r.Err != nil {
			failed++
			a.logger.Error("import create failed", "title", plan.Create[r.Index].Title, "error", r.Err)
			continue
		}
		a.logger.Info("course created", "id", r.Value.ID)
	}

	updated := concurrency.Map(ctx, plan.Update, opts, func(ctx context.Context, c domain.Course) (domain.Course, error) {
		return api.UpdateCourse(ctx, c)
	})
	for _, r := range updated {
		if r.Err != nil {
			failed++
			a.logger.Error("import update failed", "id", plan.Update[r.Index].ID, "error", r.Err)
		}
	}

	errs := concurrency.ForEach(ctx, plan.Delete, opts, func(ctx context.Context, c domain.Course) error {
		return api.DeleteCourse(ctx, c.ID)
	})
	for _, err := range errs {
		a.logger.Error("import delete failed", "error", err)
	}
	return failed + len(errs)
}
