package cli

import (
	"flag"
	"strings"

	"toolcount/internal/spec"
)

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

// runFlags holds the parsed run command flags.
type runFlags struct {
	specPath    string
	models      stringList
	experiments int
	toolName    string
	concurrency int
	maxSteps    int
	maxSeconds  int
	maxTokens   int
	onError     string
	rpm         int
	tpm         int
	outputDir   string
	uiMode      string
	verbose     bool
	logPath     string
	noColor     bool

	// set records flags given on the command line, aliases folded to the long name.
	set map[string]bool
}

var flagAliases = map[string]string{"m": "model", "n": "experiments", "t": "tool-name"}

func newRunFlagSet(name string) (*flag.FlagSet, *runFlags) {
	f := &runFlags{set: map[string]bool{}}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&f.specPath, "spec", "", "Path to config file (default: search for .toolcount/config.yml)")
	fs.Var(&f.models, "model", "Model as provider:model (repeatable)")
	fs.Var(&f.models, "m", "Shorthand for --model")
	fs.IntVar(&f.experiments, "experiments", 0, "Number of experiments per model (default 10)")
	fs.IntVar(&f.experiments, "n", 0, "Shorthand for --experiments")
	fs.StringVar(&f.toolName, "tool-name", "", "Name of the counter tool (default foo)")
	fs.StringVar(&f.toolName, "t", "", "Shorthand for --tool-name")
	fs.IntVar(&f.concurrency, "concurrency", 0, "Trials running at once per model (default 1)")
	fs.IntVar(&f.maxSteps, "max-steps", 0, "Model round trips allowed per trial (default 150)")
	fs.IntVar(&f.maxSeconds, "max-seconds", 0, "Wall clock budget per trial in seconds (0 = none)")
	fs.IntVar(&f.maxTokens, "max-tokens", 0, "Approximate history tokens allowed per trial (0 = none)")
	fs.StringVar(&f.onError, "on-error", "", "What a failed trial does to the run: abort or skip")
	fs.IntVar(&f.rpm, "rpm", 0, "Model requests per minute (0 = unlimited)")
	fs.IntVar(&f.tpm, "tpm", 0, "Prompt tokens per minute (0 = unlimited)")
	fs.StringVar(&f.outputDir, "output-dir", "", "Override output directory")
	fs.StringVar(&f.uiMode, "ui", uiAuto, "Console UI: auto, live or plain")
	fs.BoolVar(&f.verbose, "verbose", false, "Verbose logging")
	fs.StringVar(&f.logPath, "log", "", "Write verbose logs to a file")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable ANSI colors")
	return fs, f
}

// recordSet notes which flags were given explicitly.
func (f *runFlags) recordSet(fs *flag.FlagSet) {
	fs.Visit(func(fl *flag.Flag) {
		name := fl.Name
		if long, ok := flagAliases[name]; ok {
			name = long
		}
		f.set[name] = true
	})
}

// apply overrides config defaults with explicitly given flags. Values are
// not checked here; the runner rejects invalid settings before any trial.
func (f *runFlags) apply(d *spec.Defaults) {
	if f.set["experiments"] {
		d.Experiments = f.experiments
	}
	if f.set["tool-name"] {
		d.ToolName = strings.TrimSpace(f.toolName)
	}
	if f.set["concurrency"] {
		d.Concurrency = f.concurrency
	}
	if f.set["max-steps"] {
		d.MaxSteps = f.maxSteps
	}
	if f.set["max-seconds"] {
		d.MaxSeconds = f.maxSeconds
	}
	if f.set["max-tokens"] {
		d.MaxTokens = f.maxTokens
	}
	if f.set["on-error"] {
		d.OnError = f.onError
	}
	if f.set["rpm"] {
		d.RequestsPerMinute = f.rpm
	}
	if f.set["tpm"] {
		d.TokensPerMinute = f.tpm
	}
}
