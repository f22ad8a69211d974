package cli

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// Output modes accepted by --ui.
const (
	uiAuto  = "auto"
	uiLive  = "live"
	uiPlain = "plain"
)

// isTerminal is a test seam for TTY detection.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// chooseLiveUI decides whether the Bubble Tea view drives the run. Verbose
// output always streams plainly; a live request without a TTY degrades to
// plain with a warning.
func chooseLiveUI(mode string, verbose bool, stdout io.Writer) (live bool, warning string, err error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = uiAuto
	}
	switch mode {
	case uiAuto, uiLive, uiPlain:
	default:
		return false, "", fmt.Errorf("invalid ui mode %q (expected %s|%s|%s)", mode, uiAuto, uiLive, uiPlain)
	}
	if verbose || mode == uiPlain {
		return false, "", nil
	}
	tty := isTerminal(stdout)
	if mode == uiLive && !tty {
		return false, "stdout is not a terminal; using plain output instead of the live UI", nil
	}
	return tty, "", nil
}
