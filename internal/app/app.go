package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/cgbench/internal/cli"
	"github.com/agbru/cgbench/internal/config"
	apperrors "github.com/agbru/cgbench/internal/errors"
	"github.com/agbru/cgbench/internal/logging"
	"github.com/agbru/cgbench/internal/metrics"
	"github.com/agbru/cgbench/internal/orchestration"
	"github.com/agbru/cgbench/internal/report"
	"github.com/agbru/cgbench/internal/server"
	"github.com/agbru/cgbench/internal/stencil"
	"github.com/agbru/cgbench/internal/ui"
	"github.com/agbru/cgbench/internal/validation"
)

// progressBuffer is the capacity of the channel feeding the progress display.
// The channel observer drops events rather than block the benchmark.
const progressBuffer = 64

// Application represents the cgbench application instance.
// It encapsulates the configuration and the collaborators of a benchmark
// run.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// ErrWriter is the writer for logs and error output (typically os.Stderr).
	ErrWriter io.Writer

	// collaborators builds the kernels the driver exercises. It defaults to
	// the single-partition stencil.
	collaborators func(cfg config.AppConfig, w report.Writer) orchestration.Collaborators
	now           func() time.Time
	newRunID      func() string
}

// New creates a new Application instance by parsing command-line arguments.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	programName := "cgbench"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	return &Application{
		Config:        cfg,
		ErrWriter:     errWriter,
		collaborators: stencilCollaborators,
		now:           time.Now,
		newRunID:      uuid.NewString,
	}, nil
}

// stencilCollaborators wires the default numerical core.
func stencilCollaborators(cfg config.AppConfig, w report.Writer) orchestration.Collaborators {
	return orchestration.Collaborators{
		Builder:     stencil.NewBuilder(),
		Halo:        stencil.NoHalo{},
		Reference:   stencil.NewReference(),
		Optimized:   stencil.NewOptimized(cfg.Workers),
		Normality:   validation.NormsTest{},
		Symmetry:    validation.SymmetryTest{Seed: cfg.Seed},
		Convergence: validation.CGTest{},
		Writer:      w,
	}
}

// Run executes the application: it prints the version or a completion script
// when asked to, and otherwise runs one benchmark.
//
// Parameters:
//   - ctx: The context for managing cancellation.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 if the report passed, non-zero otherwise).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.ShowVersion {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	ui.Configure(a.Config.Theme, a.Config.NoColor)
	return a.runBenchmark(ctx, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// ReportPath returns where the report of a run started at t is written.
func (a *Application) ReportPath(t time.Time) string {
	if a.Config.ReportPath != "" {
		return a.Config.ReportPath
	}
	return fmt.Sprintf("cgbench-%s.%s", t.Format("20060102-150405"), a.Config.Format)
}

// runBenchmark orchestrates one benchmark execution: logging, progress
// display, metrics, the optional HTTP server and the final summary.
func (a *Application) runBenchmark(ctx context.Context, out io.Writer) int {
	logger, err := logging.New(a.Config.LoggingOptions(a.ErrWriter))
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error configuring logging: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	runID := a.newRunID()
	logger = logger.With(logging.String("run_id", runID))

	ctx, lifecycle := SetupLifecycle(ctx, a.Config.Timeout)
	defer lifecycle.Cleanup()

	start := a.now()
	reportPath := a.ReportPath(start)
	collab := a.collaborators(a.Config, report.FileWriter{Path: reportPath, Format: a.Config.Format})

	registry := prometheus.NewRegistry()
	subject := orchestration.NewSubject()
	subject.Register(orchestration.NewLoggingObserver(logger.Zerolog()))
	subject.Register(orchestration.NewMetricsObserver(metrics.New(registry)))

	var (
		events   chan orchestration.Event
		progress *orchestration.ChannelObserver
		wg       sync.WaitGroup
	)
	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, runID, out)
		events = make(chan orchestration.Event, progressBuffer)
		progress = orchestration.NewChannelObserver(events)
		subject.Register(progress)
		wg.Add(1)
		go cli.DisplayProgress(&wg, events, out)
	}

	driver := orchestration.NewDriver(collab, a.Config.ToDriverOptions(runID, Version), logger, subject)
	rep, err := a.execute(ctx, driver, registry, runID, logger)

	if events != nil {
		subject.Unregister(progress)
		close(events)
		wg.Wait()
	}
	if err != nil {
		if !apperrors.IsContextError(err) {
			logger.Error("benchmark aborted", err)
		}
		return apperrors.HandleRunError(err, a.now().Sub(start), a.ErrWriter, cli.CLIColorProvider{})
	}

	if a.Config.Quiet {
		cli.DisplayQuietResult(out, rep, reportPath)
	} else {
		cli.DisplaySummary(rep, reportPath, out)
	}
	if !rep.Passed {
		return apperrors.ExitErrorBenchmark
	}
	return apperrors.ExitSuccess
}

// execute runs the driver and, when a metrics address is configured, the
// HTTP server alongside it. The server stops once the benchmark is over; a
// server failure cancels the benchmark.
func (a *Application) execute(ctx context.Context, driver *orchestration.Driver, registry *prometheus.Registry, runID string, logger logging.Logger) (*report.Report, error) {
	g, gctx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	var srv *server.Server
	if a.Config.MetricsAddr != "" {
		srv = server.NewServer(a.Config.MetricsAddr,
			server.WithLogger(logger),
			server.WithRegistry(registry),
			server.WithRunID(runID))
		g.Go(func() error { return srv.Start(serverCtx) })
	}

	var rep *report.Report
	g.Go(func() error {
		defer stopServer()
		r, err := driver.Run(gctx)
		if err != nil {
			return err
		}
		rep = r
		if srv != nil {
			srv.SetReport(r)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rep, nil
}

// IsHelpError checks if the error is a help flag error (-help was used).
// The application should exit with success after displaying help text.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
