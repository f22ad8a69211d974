package runner

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMissingCount indicates that no <count>...</count> block was found.
var ErrMissingCount = errors.New("missing <count> block")

// ErrTrailingText indicates there was content after the closing </count> tag.
var ErrTrailingText = errors.New("trailing content after </count>")

// ErrEmptyCount indicates that the count block held no text.
var ErrEmptyCount = errors.New("empty count text")

// ErrNegativeCount indicates the count block held a value below zero.
var ErrNegativeCount = errors.New("negative count")

var (
	wordOrNumber = regexp.MustCompile(`[A-Za-z]+|-?\d+`)
	numberOnly   = regexp.MustCompile(`^[+-]?\d+$`)
)

// suffixWords mark an integer as a count when they directly follow it ("7 times").
var suffixWords = map[string]bool{
	"time": true, "times": true,
	"call": true, "calls": true,
	"invocation": true, "invocations": true,
}

// prefixWords mark an integer as a count when they appear up to
// prefixWindow words before it ("I called it 7").
var prefixWords = map[string]bool{
	"called": true, "invoked": true, "count": true,
	"total": true, "made": true, "calls": true,
}

const prefixWindow = 3

// ParseReportedCount extracts the count the model claims in its final answer.
//
// The rules apply in order and the first that yields a value wins:
//
//  1. A trailing <count>N</count> block.
//  2. A reply that is nothing but an integer, ignoring surrounding
//     whitespace, markdown emphasis, and a closing period.
//  3. The last integer next to count language: followed by
//     time(s)/call(s)/invocation(s), or preceded within three words by
//     called/invoked/count/total/made/calls.
//  4. The common value when every integer in the reply is the same.
//
// Anything else, including a reply with no digits or with several
// conflicting integers, reports false and the trial is recorded as unreported.
// A negative integer is never a count: it is skipped as a candidate and
// conflicts with every other integer, so "-3" alone is unreported.
func ParseReportedCount(output string) (int, bool) {
	if value, err := ParseCountFromOutput(output); err == nil {
		return value, true
	}
	if value, ok := parseBareInteger(output); ok {
		return value, true
	}
	tokens := wordOrNumber.FindAllString(strings.ToLower(output), -1)
	if value, ok := lastCountNearWords(tokens); ok {
		return value, true
	}
	return uniqueInteger(tokens)
}

// ExtractTrailingCountXML returns the trailing <count> XML fragment from output.
func ExtractTrailingCountXML(output string) (string, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return "", ErrMissingCount
	}
	end := strings.LastIndex(trimmed, "</count>")
	if end == -1 {
		return "", ErrMissingCount
	}
	if end != len(trimmed)-len("</count>") {
		return "", ErrTrailingText
	}
	start := strings.LastIndex(trimmed, "<count>")
	if start == -1 || start > end {
		return "", ErrMissingCount
	}
	return trimmed[start:], nil
}

// ParseCountXML parses a <count> XML fragment into an integer.
func ParseCountXML(fragment string) (int, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return 0, ErrMissingCount
	}
	var payload struct {
		XMLName xml.Name `xml:"count"`
		Text    string   `xml:",chardata"`
	}
	if err := xml.Unmarshal([]byte(fragment), &payload); err != nil {
		return 0, fmt.Errorf("parse count xml: %w", err)
	}
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return 0, ErrEmptyCount
	}
	value, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("parse count value %q: %w", text, err)
	}
	if value < 0 {
		return 0, ErrNegativeCount
	}
	return value, nil
}

// ParseCountFromOutput extracts and parses a trailing <count> block from output.
func ParseCountFromOutput(output string) (int, error) {
	fragment, err := ExtractTrailingCountXML(output)
	if err != nil {
		return 0, err
	}
	return ParseCountXML(fragment)
}

func parseBareInteger(output string) (int, bool) {
	text := strings.TrimSuffix(strings.TrimSpace(output), ".")
	text = strings.TrimSuffix(strings.Trim(text, "*_`"), ".")
	text = strings.TrimSpace(text)
	if !numberOnly.MatchString(text) {
		return 0, false
	}
	value, err := strconv.Atoi(text)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

func lastCountNearWords(tokens []string) (int, bool) {
	found := false
	last := 0
	for i, token := range tokens {
		value, err := strconv.Atoi(token)
		if err != nil || value < 0 {
			continue
		}
		if !countContext(tokens, i) {
			continue
		}
		last = value
		found = true
	}
	return last, found
}

func countContext(tokens []string, index int) bool {
	if index+1 < len(tokens) && suffixWords[tokens[index+1]] {
		return true
	}
	for i := index - 1; i >= 0 && i >= index-prefixWindow; i-- {
		if prefixWords[tokens[i]] {
			return true
		}
	}
	return false
}

func uniqueInteger(tokens []string) (int, bool) {
	found := false
	value := 0
	for _, token := range tokens {
		n, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		if n < 0 || (found && n != value) {
			return 0, false
		}
		value = n
		found = true
	}
	return value, found
}
