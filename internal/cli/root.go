// Package cli is the coursectl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"course-admin/internal/api"
	"course-admin/internal/config"
	"course-admin/internal/logging"
)

// App carries what every command needs. Flags on the root command fill
// apiURL, logLevel and noColor before any RunE executes.
type App struct {
	cfg      config.Config
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	prompter Prompter

	apiURL   string
	logLevel string
	noColor  bool

	logger *slog.Logger
}

type Option func(*App)

// WithIO replaces stdin, stdout and stderr.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(a *App) {
		a.in, a.out, a.errOut = in, out, errOut
	}
}

// WithPrompter replaces the interactive huh prompts.
func WithPrompter(p Prompter) Option {
	return func(a *App) { a.prompter = p }
}

// NewRootCmd builds the full command tree for cfg.
func NewRootCmd(cfg config.Config, opts ...Option) *cobra.Command {
	a := &App{
		cfg:    cfg,
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, o := range opts {
		o(a)
	}
	if a.prompter == nil {
		a.prompter = &huhPrompter{in: a.in, out: a.out}
	}

	root := &cobra.Command{
		Use:   "coursectl",
		Short: "coursectl manages the course catalog",
		Long: `coursectl lists, creates, edits and deletes courses against the course backend.

The backend URL comes from --api-url, COURSE_API_URL, or defaults to ` + config.DefaultAPIBaseURL + `.
A .env file in the working directory is loaded on startup.`,
		SilenceUsage:  true,
		SilenceErrors: true, // Execute prints errors
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.setup()
			return nil
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", cfg.APIBaseURL, "Course backend base URL")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", cfg.NoColor, "Disable colored output")

	root.AddCommand(
		a.newListCmd(),
		a.newAddCmd(),
		a.newEditCmd(),
		a.newDeleteCmd(),
		a.newUploadCmd(),
		a.newDashboardCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
	)
	return root
}

// Execute runs coursectl with os.Args and exits non-zero on error.
func Execute(cfg config.Config) {
	ctx, cancel := signalContext()
	defer cancel()

	if err := NewRootCmd(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *App) setup() {
	a.logger = logging.New(logging.Config{
		Level:  logging.ParseLevel(a.logLevel),
		Format: logging.ParseFormat(a.cfg.LogFormat),
		Output: a.errOut,
	})
	if a.noColor {
		color.NoColor = true
	}
	a.apiURL = strings.TrimRight(a.apiURL, "/")
}

func (a *App) client() *api.Client {
	return api.New(a.apiURL,
		api.WithTimeout(a.cfg.HTTPTimeout),
		api.WithLogger(a.logger),
	)
}

func (a *App) alert(msg string) {
	fmt.Fprintln(a.errOut, color.RedString(msg))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
