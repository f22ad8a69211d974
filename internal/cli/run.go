package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"toolcount/internal/report"
	"toolcount/internal/runner"
	"toolcount/internal/ui/live"
)

// runAndWrite is a test seam for experiment execution.
var runAndWrite = runner.RunAndWrite

// liveUI is the subset of the live controller the run command drives.
type liveUI interface {
	runner.RunObserver
	Run() error
	Close()
}

// startLiveUI is a test seam for the Bubble Tea UI.
var startLiveUI = func(stdout io.Writer, noColor bool, interrupt func()) liveUI {
	return live.New(stdout, live.Options{NoColor: noColor, OnInterrupt: interrupt})
}

func runRun(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs, flags := newRunFlagSet(cmd.Name)
		fs.SetOutput(stderr)
		if err := fs.Parse(args); err != nil {
			fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		if fs.NArg() > 0 {
			fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		flags.recordSet(fs)

		cfg, root, err := loadRunConfig(flags.specPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config:\n%v\n", err)
			return ExitError
		}
		flags.apply(&cfg.Defaults)

		noColor := flags.noColor || os.Getenv("NO_COLOR") != ""
		useLive, warning, err := chooseLiveUI(flags.uiMode, flags.verbose, stdout)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitUsage
		}
		if warning != "" {
			fmt.Fprintln(stderr, warning)
		}

		var logFile io.WriteCloser
		if strings.TrimSpace(flags.logPath) != "" {
			file, err := openLogFile(flags.logPath)
			if err != nil {
				fmt.Fprintf(stderr, "Failed to open log: %v\n", err)
				return ExitError
			}
			logFile = file
			defer func() { _ = logFile.Close() }()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		params := runner.RunParams{
			Root:             root,
			OutputDir:        flags.outputDir,
			Models:           flags.models,
			Verbose:          flags.verbose,
			VerboseWriter:    stdout,
			VerboseLogWriter: logFile,
			NoColor:          noColor,
			Deps:             runner.RunDependencies{ReportRenderer: report.WriteHTML},
		}

		var (
			results runner.Results
			paths   runner.OutputPaths
			runErr  error
		)
		if useLive {
			ui := startLiveUI(stdout, noColor, cancel)
			params.Observer = ui
			var group errgroup.Group
			group.Go(ui.Run)
			group.Go(func() error {
				defer ui.Close()
				results, paths, runErr = runAndWrite(ctx, cfg, params)
				return nil
			})
			if err := group.Wait(); err != nil {
				fmt.Fprintf(stderr, "Live UI failed: %v\n", err)
			}
		} else {
			if !flags.verbose {
				params.Observer = &plainObserver{w: stdout}
			}
			results, paths, runErr = runAndWrite(ctx, cfg, params)
		}

		var abortErr *runner.AbortError
		switch {
		case runErr == nil:
		case errors.As(runErr, &abortErr):
		case errors.Is(runErr, runner.ErrInvalidConfiguration):
			fmt.Fprintf(stderr, "Run failed: %v\n", runErr)
			return ExitUsage
		default:
			fmt.Fprintf(stderr, "Run failed: %v\n", runErr)
			return ExitError
		}

		printResults(stdout, results, noColor || !isTerminal(stdout))
		if paths.RunID != "" {
			fmt.Fprintf(stdout, "Results: %s\n", paths.ResultsPath())
			fmt.Fprintf(stdout, "Report: %s\n", paths.ReportPath())
		}
		if abortErr != nil {
			fmt.Fprintf(stderr, "Run aborted: %d of %d trials completed for %s: %v\n",
				abortErr.Completed, abortErr.Requested, abortErr.Model, abortErr.Err)
			return ExitError
		}
		return ExitOK
	}
}

// printResults writes the summary table followed by per-model statistics.
func printResults(w io.Writer, results runner.Results, noColor bool) {
	status := "completed"
	for _, model := range results.Models {
		if model.Status == runner.StatusAborted {
			status = "aborted"
		}
	}
	fmt.Fprintf(w, "Run %s %s\n\n", results.RunID, status)
	if len(results.Models) == 0 {
		return
	}
	fmt.Fprintln(w, report.SummaryTable(results.Aggregates(), noColor))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Detailed statistics:")
	for _, model := range results.Models {
		fmt.Fprint(w, report.Details(model))
	}
	fmt.Fprintln(w)
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}
