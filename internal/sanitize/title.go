// Package sanitize implements the deterministic upload-title sanitization
// algorithm (§6).
package sanitize

import (
	"strings"
	"unicode"
)

const maxTitleLength = 100

const untitled = "Untitled Video"

// Title sanitizes a raw VOD title for upload, per §6:
//  1. Keep only Basic Latin printable, Latin-1 Supplement, and whitespace;
//     drop everything else (including emoji).
//  2. Collapse consecutive whitespace to a single space; trim.
//  3. Remove '<' and '>'.
//  4. Substitute "Untitled Video" if the result is empty or whitespace.
//  5. Truncate to 100 characters (right-trim after truncation).
func Title(raw string) string {
	kept := make([]rune, 0, len(raw))
	for _, r := range raw {
		if isAllowedRune(r) {
			kept = append(kept, r)
		}
	}

	collapsed := collapseWhitespace(string(kept))
	collapsed = strings.ReplaceAll(collapsed, "<", "")
	collapsed = strings.ReplaceAll(collapsed, ">", "")
	collapsed = strings.TrimSpace(collapsed)

	if collapsed == "" {
		return untitled
	}

	return truncate(collapsed, maxTitleLength)
}

// isAllowedRune keeps Basic Latin printable (U+0020-U+007E), Latin-1
// Supplement (U+00A0-U+00FF), and any whitespace rune — the last clause
// catches tabs/newlines so step 2 has something uniform to collapse.
func isAllowedRune(r rune) bool {
	switch {
	case r >= 0x0020 && r <= 0x007E:
		return true
	case r >= 0x00A0 && r <= 0x00FF:
		return true
	case unicode.IsSpace(r):
		return true
	default:
		return false
	}
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		if isSpace(r) {
			if !lastWasSpace {
				b.WriteByte(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}

// truncate cuts s to at most max runes, then right-trims any trailing
// whitespace the cut may have exposed (step 5: "right-trim after truncation").
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimRight(string(runes[:max]), " \t\n\r")
}
