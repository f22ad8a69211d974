package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunDispatch(t *testing.T) {
	cases := []struct {
		name     string
		args     []string
		wantCode int
		stdout   string
		stderr   string
	}{
		{name: "no args", args: nil, wantCode: ExitUsage, stdout: "toolcount <command>"},
		{name: "help", args: []string{"--help"}, wantCode: ExitOK, stdout: "Commands:"},
		{name: "help word", args: []string{"help"}, wantCode: ExitOK, stdout: "Commands:"},
		{name: "unknown", args: []string{"count"}, wantCode: ExitUsage, stderr: "Unknown command: count"},
	}
	for _, tc := range cases {
		var out, errOut bytes.Buffer
		code := Run(tc.args, &out, &errOut)
		if code != tc.wantCode {
			t.Fatalf("%s: expected exit %d, got %d", tc.name, tc.wantCode, code)
		}
		if tc.stdout != "" && !strings.Contains(out.String(), tc.stdout) {
			t.Fatalf("%s: expected %q in stdout, got %q", tc.name, tc.stdout, out.String())
		}
		if tc.stderr != "" && !strings.Contains(errOut.String(), tc.stderr) {
			t.Fatalf("%s: expected %q in stderr, got %q", tc.name, tc.stderr, errOut.String())
		}
	}
}

func TestUsageListsEveryCommand(t *testing.T) {
	var out bytes.Buffer
	printUsage(&out)
	for _, cmd := range commands {
		if !strings.Contains(out.String(), cmd.Name) || !strings.Contains(out.String(), cmd.Summary) {
			t.Fatalf("expected %s in usage:\n%s", cmd.Name, out.String())
		}
	}
}

func TestRunHelpDocumentsExperimentFlags(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := Run([]string{"run", "-h"}, &out, &errOut); code != ExitOK {
		t.Fatalf("expected exit %d, got %d", ExitOK, code)
	}
	for _, flag := range []string{"--model <provider:model>", "--experiments N", "--on-error abort|skip"} {
		if !strings.Contains(out.String(), flag) {
			t.Fatalf("expected %q in run usage:\n%s", flag, out.String())
		}
	}
	if errOut.Len() != 0 {
		t.Fatalf("expected no stderr output, got %q", errOut.String())
	}
}
