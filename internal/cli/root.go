// Package cli is the lms command line: schema migration, fixture seeding,
// consistency checks and read-only views over the catalog.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/app"
)

// ErrFindings is returned by verify when the store is inconsistent, so the
// process exits non-zero.
var ErrFindings = errors.New("consistency findings reported")

type Options struct {
	// Open builds the application. Defaults to app.New.
	Open func(ctx context.Context) (*app.App, error)
	Out  io.Writer
}

type env struct {
	opts        Options
	envFiles    []string
	json        bool
	metricsFile string
	app         *app.App
}

func newRootCmd(opts Options) (*cobra.Command, *env) {
	if opts.Open == nil {
		opts.Open = app.New
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	e := &env{opts: opts}

	root := &cobra.Command{
		Use:   "lms",
		Short: "Learning management system maintenance tool",
		Long: `lms manages the course catalog database.

Examples:
  lms migrate
  lms seed fixtures/catalog.yaml
  lms verify --json
  lms dashboard student 6f1c...
  lms course show 0b7a...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.LoadDotEnv(e.envFiles...)
		},
	}
	root.SetOut(opts.Out)
	root.PersistentFlags().StringSliceVar(&e.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	root.PersistentFlags().BoolVar(&e.json, "json", false, "Output in JSON format")
	root.PersistentFlags().StringVar(&e.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit (needs METRICS_ENABLED)")

	root.AddCommand(
		newMigrateCmd(e),
		newSeedCmd(e),
		newVerifyCmd(e),
		newDashboardCmd(e),
		newCourseCmd(e),
		newCatalogCmd(e),
	)
	return root, e
}

// Run executes one command line and releases the application it opened.
func Run(ctx context.Context, opts Options, args []string) (err error) {
	root, e := newRootCmd(opts)
	defer func() {
		if cerr := e.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// Execute runs the process arguments and exits with status 1 on failure.
func Execute() {
	if err := Run(context.Background(), Options{}, os.Args[1:]); err != nil {
		if !errors.Is(err, ErrFindings) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		}
		os.Exit(1)
	}
}

func (e *env) open(ctx context.Context) (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	a, err := e.opts.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}
	a.Start(ctx)
	e.app = a
	return a, nil
}

func (e *env) close() error {
	if e.app == nil {
		return nil
	}
	var err error
	if e.metricsFile != "" {
		err = e.app.WriteMetricsFile(e.metricsFile)
	}
	e.app.Close()
	e.app = nil
	return err
}
