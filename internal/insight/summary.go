package insight

import (
	"fmt"
	"strings"

	"reflect/api/internal/store"
)

// Prompt-size bounds for the letter summary.
const (
	maxSummaryItems = 20
	maxExcerptLen   = 400
	maxSummaryRunes = 2500
)

// BuildSummary flattens a period's reflections into the text block the letter
// prompt consumes. At most maxSummaryItems reflections contribute; each
// field is excerpted. Records with a zero created_at are skipped rather than
// trusted, since a malformed row must never take the letter down with it.
func BuildSummary(reflections []store.Reflection) string {
	var parts []string
	taken := 0
	for _, r := range reflections {
		if taken == maxSummaryItems {
			break
		}
		if r.CreatedAt.IsZero() {
			continue
		}
		taken++
		if raw := strings.TrimSpace(r.RawText); raw != "" {
			parts = append(parts, fmt.Sprintf("Thought: %s", excerpt(raw)))
		}
		if mirror := strings.TrimSpace(r.MirrorResponse); mirror != "" {
			parts = append(parts, fmt.Sprintf("Mirror: %s", excerpt(mirror)))
		}
		if mood := strings.TrimSpace(r.MoodWord); mood != "" {
			parts = append(parts, fmt.Sprintf("Mood: %s", mood))
		}
	}
	return truncateRunes(strings.Join(parts, "\n\n"), maxSummaryRunes)
}

func excerpt(s string) string {
	return truncateRunes(s, maxExcerptLen)
}

// truncateRunes cuts on a rune boundary so multi-byte text never reaches the
// prompt as broken UTF-8.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
