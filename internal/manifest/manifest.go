// Package manifest parses the module property file embedded in flashable
// installer archives. The format is line oriented key=value text with
// #-prefixed comments; unknown keys are ignored so newer modules keep
// parsing on older installers.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const requiresPrefix = "requires:"

// Manifest is the parsed module descriptor. Parse only ever returns complete
// manifests; a *Manifest in hand always satisfies IsComplete.
type Manifest struct {
	Version     string
	VersionCode int
	Arch        string
	MinSDK      int
	MaxSDK      int
	Requires    map[string]struct{}
}

// ParseError reports a malformed value for a key that must be numeric.
// It is distinct from an absent or incomplete manifest (nil, nil) and from
// a failed read of the underlying stream.
type ParseError struct {
	Key   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest: invalid value %q for key %q", e.Value, e.Key)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsComplete reports whether every required field carries a usable value.
// MinSDK > MaxSDK is still complete; such a module just never matches any
// device API level.
func (m *Manifest) IsComplete() bool {
	return m.Version != "" &&
		m.VersionCode > 0 &&
		m.Arch != "" &&
		m.MinSDK > 0 &&
		m.MaxSDK > 0
}

// RequiresFeature reports whether the module declares a dependency on the
// named installer capability.
func (m *Manifest) RequiresFeature(name string) bool {
	_, ok := m.Requires[name]
	return ok
}

// Parse reads a module property stream and returns the manifest when it is
// complete. Outcomes are three-way: (m, nil) for a complete manifest,
// (nil, nil) when the stream is well formed but no complete manifest was
// declared, and (nil, err) for malformed numeric values (*ParseError) or a
// failed read (the underlying error).
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{Requires: make(map[string]struct{})}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		if key == "" {
			// A line starting with '=' has no key; skip it rather than
			// inspect the first character of an empty string.
			continue
		}
		if key[0] == '#' {
			continue
		}

		value := strings.TrimSpace(parts[1])

		switch {
		case key == "version":
			m.Version = value
			m.VersionCode = LeadingInt(value)
		case key == "arch":
			m.Arch = value
		case key == "minsdk":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &ParseError{Key: key, Value: value, Err: err}
			}
			m.MinSDK = n
		case key == "maxsdk":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &ParseError{Key: key, Value: value, Err: err}
			}
			m.MaxSDK = n
		case strings.HasPrefix(key, requiresPrefix):
			m.Requires[key[len(requiresPrefix):]] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !m.IsComplete() {
		return nil, nil
	}
	return m, nil
}

// LeadingInt returns the integer value of the first maximal run of ASCII
// digits in s, or 0 when s contains no digits.
func LeadingInt(s string) int {
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			start = i
			break
		}
	}
	if start < 0 {
		return 0
	}

	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0
	}
	return n
}
