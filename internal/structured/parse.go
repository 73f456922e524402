// Package structured parses the loosely-formatted JSON that language
// models return. Every call site defines an ordered chain of parse
// attempts — strict JSON first, then pattern-based partial extraction,
// then a hardcoded default — and the first success wins.
package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	fenceOpen  = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\n?")
	fenceClose = regexp.MustCompile("\n?[ \t]*```$")
)

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// UnmarshalObject strict-parses the outermost JSON object in text,
// tolerating markdown fences and surrounding prose.
func UnmarshalObject(text string, v any) error {
	s := StripFences(text)
	if i := strings.Index(s, "{"); i >= 0 {
		s = s[i:]
	}
	if i := strings.LastIndex(s, "}"); i >= 0 {
		s = s[:i+1]
	}
	if s == "" {
		return errors.New("structured: no JSON object found")
	}
	return json.Unmarshal([]byte(s), v)
}

// UnmarshalList strict-parses the outermost JSON array in text.
func UnmarshalList(text string, v any) error {
	s := StripFences(text)
	if i := strings.Index(s, "["); i >= 0 {
		s = s[i:]
	}
	if i := strings.LastIndex(s, "]"); i >= 0 {
		s = s[:i+1]
	}
	if s == "" {
		return errors.New("structured: no JSON array found")
	}
	return json.Unmarshal([]byte(s), v)
}

// StringField extracts a `"name": "value"` pair from malformed JSON.
func StringField(text, name string) (string, bool) {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(name) + `"\s*:\s*"([^"]*)"`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IntField extracts a `"name": 123` pair from malformed JSON.
func IntField(text, name string) (int, bool) {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(name) + `"\s*:\s*(\d+)`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Parser is one attempt at turning model output into a value.
type Parser[T any] func(text string) (T, error)

// Decode runs the parsers in order and returns the first success.
// Chains are expected to end with an infallible default so a value is
// always produced; if every parser fails the last error is returned.
func Decode[T any](text string, parsers ...Parser[T]) (T, error) {
	var zero T
	if len(parsers) == 0 {
		return zero, errors.New("structured: no parsers supplied")
	}
	var err error
	for _, p := range parsers {
		var v T
		v, err = p(text)
		if err == nil {
			return v, nil
		}
	}
	return zero, fmt.Errorf("structured: all parsers failed: %w", err)
}
