package runner

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// runIDLayout keeps run directories sorted by start time.
const runIDLayout = "20060102T150405Z"

// NewRunID returns "<UTC timestamp>-<12 hex chars>", e.g. 20250102T030405Z-0a1b2c3d4e5f.
func NewRunID() (string, error) {
	return runIDFrom(time.Now(), nil)
}

// runIDFrom draws the suffix from r, or from crypto/rand when r is nil.
func runIDFrom(now time.Time, r io.Reader) (string, error) {
	var (
		id  uuid.UUID
		err error
	)
	if r == nil {
		id, err = uuid.NewRandom()
	} else {
		id, err = uuid.NewRandomFromReader(r)
	}
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	suffix := strings.ReplaceAll(id.String(), "-", "")[:12]
	return now.UTC().Format(runIDLayout) + "-" + suffix, nil
}
