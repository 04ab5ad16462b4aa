// Package messages accumulates the user-facing notices a widget response
// carries next to its rows: degraded fetches, partial action failures and
// similar conditions the host may want to display.
package messages

import "strings"

// Merge appends extras to existing, trimming whitespace and dropping blanks
// and duplicates while keeping first-seen order.
func Merge(existing []string, extras ...string) []string {
	if len(existing)+len(extras) == 0 {
		return nil
	}
	out := make([]string, 0, len(existing)+len(extras))
	seen := make(map[string]struct{}, cap(out))
	for _, group := range [][]string{existing, extras} {
		for _, message := range group {
			trimmed := strings.TrimSpace(message)
			if trimmed == "" {
				continue
			}
			if _, dup := seen[trimmed]; dup {
				continue
			}
			seen[trimmed] = struct{}{}
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FromErrors converts non-nil errors into messages.
func FromErrors(errs ...error) []string {
	var out []string
	for _, err := range errs {
		if err != nil {
			out = append(out, err.Error())
		}
	}
	return Merge(nil, out...)
}
