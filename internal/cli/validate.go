package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"toolcount/internal/config"
)

// runValidate loads and checks a config file without contacting any model.
func runValidate(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		specPath := fs.String("spec", "", "Path to config file (default: search for .toolcount/config.yml)")
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

		path, err := resolveSpecPath(*specPath)
		if err != nil {
			fmt.Fprintf(stderr, "Validation failed:\n%v\n", err)
			return ExitError
		}
		cfg, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(stderr, "Validation failed:\n%v\n", err)
			return ExitError
		}
		refs, err := config.ModelRefs(cfg, nil)
		if err != nil {
			fmt.Fprintf(stderr, "Validation failed:\n%v\n", err)
			return ExitError
		}
		names := make([]string, 0, len(refs))
		for _, ref := range refs {
			names = append(names, ref.String())
		}
		fmt.Fprintf(stdout, "Config OK: %s\n", path)
		fmt.Fprintf(stdout, "  models: %s\n", strings.Join(names, ", "))
		fmt.Fprintf(stdout, "  experiments: %d  tool: %s  on_error: %s\n",
			cfg.Defaults.Experiments, cfg.Defaults.ToolName, cfg.Defaults.OnError)
		return ExitOK
	}
}
