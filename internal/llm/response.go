package llm

import (
	"errors"
	"strings"
)

// ErrNoTables is returned by Clean when the model answered with the
// no-tables sentinel.
var ErrNoTables = errors.New("model reported no tables")

// ErrEmptyResponse is returned by Clean when nothing usable remains after
// normalization.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Clean normalizes a raw model response into CSV. It trims surrounding
// whitespace, detects the sentinel, strips stray markdown code fences (the
// prompt forbids them; this is a safety net), and rejects empty output.
func Clean(raw string) (string, error) {
	out := strings.TrimSpace(raw)
	if out == Sentinel {
		return "", ErrNoTables
	}

	out = strings.TrimSpace(stripFences(out))
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// stripFences removes a leading fence line (with or without a language tag,
// e.g. "```csv") and a trailing closing fence.
func stripFences(s string) string {
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}
	return s
}
