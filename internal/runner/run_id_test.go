package runner

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestRunIDFromReader(t *testing.T) {
	at := time.Date(2024, 6, 7, 8, 9, 10, 0, time.FixedZone("CEST", 2*3600))
	random := bytes.NewReader([]byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
		0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
	})
	got, err := runIDFrom(at, random)
	if err != nil {
		t.Fatalf("run id: %v", err)
	}
	if got != "20240607T060910Z-001122334455" {
		t.Fatalf("unexpected run id %q", got)
	}
}

func TestRunIDShortRandomness(t *testing.T) {
	_, err := runIDFrom(time.Now(), bytes.NewReader([]byte{0x01}))
	if err == nil || !strings.Contains(err.Error(), "generate run id") {
		t.Fatalf("expected generation error, got %v", err)
	}
}

func TestNewRunIDShape(t *testing.T) {
	id, err := NewRunID()
	if err != nil {
		t.Fatalf("run id: %v", err)
	}
	if !regexp.MustCompile(`^\d{8}T\d{6}Z-[0-9a-f]{12}$`).MatchString(id) {
		t.Fatalf("unexpected run id shape %q", id)
	}
}
