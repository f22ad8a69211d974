package cli

import (
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Command is one sub-command of the toolcount binary.
type Command struct {
	Name    string
	Summary string
	Usage   []string
	Run     func(args []string, stdout, stderr io.Writer) int
}

// Run dispatches args to a sub-command and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stdout)
		return ExitUsage
	}
	switch args[0] {
	case "-h", "--help", "help":
		printUsage(stdout)
		return ExitOK
	}
	for _, cmd := range commands {
		if cmd.Name == args[0] {
			return cmd.Run(args[1:], stdout, stderr)
		}
	}
	fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
	printUsage(stderr)
	return ExitUsage
}

func wantsHelp(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "-h", "--help":
			return true
		}
	}
	return false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  toolcount <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintln(w, "\nUse \"toolcount <command> --help\" for more information.")
}

func printCommandUsage(cmd *Command, w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	for _, line := range cmd.Usage {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if cmd.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", cmd.Summary)
	}
}

// command binds a handler builder to its command description.
func command(name, summary string, usage []string, handler func(cmd *Command) func(args []string, stdout, stderr io.Writer) int) *Command {
	cmd := &Command{Name: name, Summary: summary, Usage: usage}
	cmd.Run = handler(cmd)
	return cmd
}

var commands = []*Command{
	command("run", "Run tool call counting experiments", []string{
		"toolcount run [--model <provider:model>]... [--experiments N] [--tool-name foo]",
		"              [--concurrency N] [--max-steps N] [--max-seconds N] [--max-tokens N]",
		"              [--on-error abort|skip] [--rpm N] [--tpm N] [--spec path] [--output-dir dir]",
		"              [--ui auto|live|plain] [--verbose] [--log path] [--no-color]",
	}, runRun),
	command("validate", "Validate .toolcount/config.yml", []string{
		"toolcount validate [--spec <path>]",
	}, runValidate),
	command("init", "Scaffold .toolcount/config.yml", []string{
		"toolcount init [--spec <path>]",
	}, runInit),
}
