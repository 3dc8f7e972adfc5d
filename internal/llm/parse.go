package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var headerPattern = regexp.MustCompile(`(?m)^#{2,3}\s*(.+)$`)

// parseSections splits model output into titled sections on ## or ###
// headers. Output with no headers at all becomes a single mirror section.
func parseSections(text string) []Section {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	locs := headerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return []Section{{Title: "A Mirror", Content: text}}
	}
	sections := make([]Section, 0, len(locs))
	for i, loc := range locs {
		title := strings.TrimSpace(text[loc[2]:loc[3]])
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		content := strings.TrimSpace(text[loc[1]:end])
		if title != "" && content != "" {
			sections = append(sections, Section{Title: title, Content: content})
		}
	}
	return sections
}

// instructionPhrases are prompt fragments the model sometimes echoes back.
// Section content containing one is treated as invalid.
var instructionPhrases = []string{
	"1 sentence", "talk to them", "don't describe", "direct address only",
	`use "you"`, `not "they"`, "one line each", "do not output",
}

func looksLikeInstruction(text string) bool {
	if len(text) < 20 {
		return false
	}
	lower := strings.ToLower(text)
	for _, phrase := range instructionPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

var (
	missingComma  = regexp.MustCompile(`\}\s*\{`)
	trailingComma = regexp.MustCompile(`,\s*]`)
)

// decodeJSONArray extracts and decodes a JSON array from model output. It
// strips code fences, slices to the outermost brackets, and tolerates the two
// malformations small models produce most: a missing comma between objects
// and a trailing comma before the closing bracket.
func decodeJSONArray(raw string, out any) error {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if _, rest, ok := strings.Cut(raw, "\n"); ok {
			raw = rest
		}
		if idx := strings.LastIndex(raw, "```"); idx >= 0 {
			raw = raw[:idx]
		}
		raw = strings.TrimSpace(raw)
	}
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON array in output")
	}
	raw = raw[start : end+1]

	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return nil
	}
	raw = missingComma.ReplaceAllString(raw, "},{")
	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return nil
	}
	raw = trailingComma.ReplaceAllString(raw, "]")
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode JSON array: %w", err)
	}
	return nil
}

var salutations = []string{"dear", "hi ", "hello", "hey"}

// scrubSalutation drops a leading greeting line the model sometimes adds
// despite instructions.
func scrubSalutation(text string) string {
	text = strings.TrimSpace(text)
	first, rest, found := strings.Cut(text, "\n")
	lower := strings.ToLower(strings.TrimSpace(first))
	for _, s := range salutations {
		if strings.HasPrefix(lower, s) {
			if !found {
				return ""
			}
			return strings.TrimSpace(rest)
		}
	}
	return text
}

// Plausible byte range for a 100-150 word letter. Too-short output is
// rejected; overlong output is truncated at a sentence boundary.
const (
	letterMinLen = 201
	letterMaxLen = 1199
)

func validLetter(text string) bool {
	return len(text) >= letterMinLen && len(text) <= letterMaxLen
}

// truncateAtSentence shortens text to at most max bytes, cutting after the
// last sentence end inside the limit. Without one it cuts on a rune boundary.
func truncateAtSentence(text string, max int) string {
	if len(text) <= max {
		return text
	}
	window := text[:max]
	for len(window) > 0 && !utf8.ValidString(window) {
		window = window[:len(window)-1]
	}
	cut := -1
	for _, end := range []string{".", "!", "?"} {
		if idx := strings.LastIndex(window, end); idx > cut {
			cut = idx
		}
	}
	if cut > 0 {
		return strings.TrimSpace(window[:cut+1])
	}
	return strings.TrimSpace(window)
}
