package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"toolcount/internal/config"
	"toolcount/internal/runner"
	"toolcount/internal/spec"
	"toolcount/internal/testutil"
)

// writeProjectConfig writes .toolcount/config.yml under a temp root.
func writeProjectConfig(t *testing.T, baseURL string, experiments int) (string, string) {
	t.Helper()
	root := t.TempDir()
	path := config.ConfigPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := fmt.Sprintf(`version: 1
output_dir: out
defaults:
  experiments: %d
providers:
  - id: local
    base_url: %s
models: ["local:fake"]
`, experiments, baseURL)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return root, path
}

func stubRunAndWrite(t *testing.T, fn func(context.Context, spec.Config, runner.RunParams) (runner.Results, runner.OutputPaths, error)) {
	t.Helper()
	original := runAndWrite
	runAndWrite = fn
	t.Cleanup(func() { runAndWrite = original })
}

func TestRunAppliesFlagsOverConfig(t *testing.T) {
	_, path := writeProjectConfig(t, "http://localhost:1", 3)
	var gotCfg spec.Config
	var gotParams runner.RunParams
	stubRunAndWrite(t, func(_ context.Context, cfg spec.Config, params runner.RunParams) (runner.Results, runner.OutputPaths, error) {
		gotCfg, gotParams = cfg, params
		return runner.Results{RunID: "run-1"}, runner.OutputPaths{}, nil
	})

	var out, errOut bytes.Buffer
	code := Run([]string{"run", "--spec", path, "-n", "5", "--model", "openai:gpt-4o", "-m", "ollama:qwen", "-t", "bar", "--on-error", "skip", "--concurrency", "3", "--rpm", "60", "--max-tokens", "9000"}, &out, &errOut)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (%s)", ExitOK, code, errOut.String())
	}
	d := gotCfg.Defaults
	if d.Experiments != 5 || d.ToolName != "bar" || d.OnError != "skip" || d.Concurrency != 3 || d.RequestsPerMinute != 60 {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if d.MaxTokens != 9000 {
		t.Fatalf("expected --max-tokens applied, got %d", d.MaxTokens)
	}
	if d.MaxSteps != 150 {
		t.Fatalf("expected config max_steps kept, got %d", d.MaxSteps)
	}
	if strings.Join(gotParams.Models, ",") != "openai:gpt-4o,ollama:qwen" {
		t.Fatalf("unexpected models: %v", gotParams.Models)
	}
	if gotParams.Root != config.RootFromConfigPath(path) {
		t.Fatalf("unexpected root %q", gotParams.Root)
	}
	if gotParams.Deps.ReportRenderer == nil {
		t.Fatalf("expected report renderer")
	}
}

func TestRunWithoutConfigUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	var gotCfg spec.Config
	stubRunAndWrite(t, func(_ context.Context, cfg spec.Config, _ runner.RunParams) (runner.Results, runner.OutputPaths, error) {
		gotCfg = cfg
		return runner.Results{RunID: "run-1"}, runner.OutputPaths{}, nil
	})
	var out, errOut bytes.Buffer
	if code := Run([]string{"run"}, &out, &errOut); code != ExitOK {
		t.Fatalf("expected exit %d, got %d (%s)", ExitOK, code, errOut.String())
	}
	if gotCfg.Defaults.Experiments != config.DefaultExperiments || gotCfg.Defaults.Model != config.DefaultModel {
		t.Fatalf("expected built-in defaults, got %+v", gotCfg.Defaults)
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := Run([]string{"run", "--experiments", "many"}, &out, &errOut); code != ExitUsage {
		t.Fatalf("expected exit %d, got %d", ExitUsage, code)
	}
	errOut.Reset()
	if code := Run([]string{"run", "extra"}, &out, &errOut); code != ExitUsage {
		t.Fatalf("expected exit %d for positional args, got %d", ExitUsage, code)
	}
	errOut.Reset()
	if code := Run([]string{"run", "--ui", "fancy"}, &out, &errOut); code != ExitUsage {
		t.Fatalf("expected exit %d for bad ui mode, got %d", ExitUsage, code)
	}
}

func TestRunZeroExperimentsFailsBeforeAnyTrial(t *testing.T) {
	server := testutil.NewChatServer(t, func(string, int) testutil.ScriptedModel {
		return testutil.ScriptedModel{Calls: 1, Answer: "<count>%d</count>"}
	})
	_, path := writeProjectConfig(t, server.URL, 3)
	var out, errOut bytes.Buffer
	code := Run([]string{"run", "--spec", path, "--experiments", "0"}, &out, &errOut)
	if code != ExitUsage {
		t.Fatalf("expected exit %d, got %d", ExitUsage, code)
	}
	if !strings.Contains(errOut.String(), "invalid configuration") {
		t.Fatalf("expected invalid configuration, got %q", errOut.String())
	}
	if server.Requests() != 0 {
		t.Fatalf("expected no model requests, got %d", server.Requests())
	}
}

func TestRunPrintsSummaryAndWritesOutputs(t *testing.T) {
	server := testutil.NewChatServer(t, func(_ string, conversation int) testutil.ScriptedModel {
		return testutil.ScriptedModel{Calls: 4, Answer: "I called it %d times.\n<count>4</count>"}
	})
	root, path := writeProjectConfig(t, server.URL, 2)
	var out, errOut bytes.Buffer
	code := Run([]string{"run", "--spec", path, "--no-color"}, &out, &errOut)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (%s)", ExitOK, code, errOut.String())
	}
	output := out.String()
	for _, token := range []string{"local:fake", "accuracy%", "100.0%", "Detailed statistics:", "min/max actual calls: 4/4", "Results: "} {
		if !strings.Contains(output, token) {
			t.Fatalf("expected %q in output:\n%s", token, output)
		}
	}
	matches, err := filepath.Glob(filepath.Join(root, "out", "*", "report.html"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one report under %s, got %v (%v)", root, matches, err)
	}
	html, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(html), "Tool call counting") {
		t.Fatalf("expected rendered report page, got %s", html)
	}
}

func TestRunAbortPrintsPartialResults(t *testing.T) {
	server := testutil.NewChatServer(t, func(_ string, conversation int) testutil.ScriptedModel {
		if conversation == 1 {
			return testutil.ScriptedModel{FailStatus: http.StatusInternalServerError}
		}
		return testutil.ScriptedModel{Calls: 2, Answer: "<count>%d</count>"}
	})
	_, path := writeProjectConfig(t, server.URL, 3)
	var out, errOut bytes.Buffer
	code := Run([]string{"run", "--spec", path, "--no-color"}, &out, &errOut)
	if code != ExitError {
		t.Fatalf("expected exit %d, got %d", ExitError, code)
	}
	if !strings.Contains(out.String(), "aborted") || !strings.Contains(out.String(), "local:fake") {
		t.Fatalf("expected partial summary, got:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), "1 of 3 trials completed") {
		t.Fatalf("expected completed count, got %q", errOut.String())
	}
}

type fakeLiveUI struct {
	runner.RunObserver
	started chan struct{}
	closed  chan struct{}
}

func (f *fakeLiveUI) Run() error {
	close(f.started)
	<-f.closed
	return nil
}

func (f *fakeLiveUI) Close() { close(f.closed) }

func TestRunLiveModeDrivesUI(t *testing.T) {
	originalTTY := isTerminal
	isTerminal = func(io.Writer) bool { return true }
	t.Cleanup(func() { isTerminal = originalTTY })

	ui := &fakeLiveUI{RunObserver: &plainObserver{w: io.Discard}, started: make(chan struct{}), closed: make(chan struct{})}
	originalUI := startLiveUI
	startLiveUI = func(io.Writer, bool, func()) liveUI { return ui }
	t.Cleanup(func() { startLiveUI = originalUI })

	_, path := writeProjectConfig(t, "http://localhost:1", 1)
	var observer runner.RunObserver
	stubRunAndWrite(t, func(_ context.Context, _ spec.Config, params runner.RunParams) (runner.Results, runner.OutputPaths, error) {
		observer = params.Observer
		return runner.Results{RunID: "run-live"}, runner.OutputPaths{}, nil
	})
	var out, errOut bytes.Buffer
	if code := Run([]string{"run", "--spec", path, "--ui", "live"}, &out, &errOut); code != ExitOK {
		t.Fatalf("expected exit %d, got %d (%s)", ExitOK, code, errOut.String())
	}
	if observer != liveUI(ui) {
		t.Fatalf("expected the live UI as observer")
	}
	select {
	case <-ui.started:
	default:
		t.Fatalf("expected UI to run")
	}
	if !strings.Contains(out.String(), "Run run-live completed") {
		t.Fatalf("expected final summary, got %q", out.String())
	}
}
