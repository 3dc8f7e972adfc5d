package llm

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseSections(t *testing.T) {
	raw := `## What This Feels Like
You're holding a lot with nowhere to set it down.

### Where You're Stuck
You keep going back to what already happened.

## A Mirror
You're not asking how to fix it. You're asking if it's allowed to be hard.`

	sections := parseSections(raw)
	if len(sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(sections))
	}
	if sections[0].Title != "What This Feels Like" {
		t.Errorf("title = %q", sections[0].Title)
	}
	if sections[1].Title != "Where You're Stuck" {
		t.Errorf("mixed header depth not accepted, title = %q", sections[1].Title)
	}
	if !strings.Contains(sections[2].Content, "allowed to be hard") {
		t.Errorf("mirror content = %q", sections[2].Content)
	}
}

func TestParseSectionsNoHeaders(t *testing.T) {
	sections := parseSections("Just a plain answer with no structure.")
	if len(sections) != 1 || sections[0].Title != "A Mirror" {
		t.Fatalf("sections = %+v", sections)
	}
}

func TestParseSectionsEmpty(t *testing.T) {
	if got := parseSections("   \n  "); len(got) != 0 {
		t.Fatalf("sections = %+v, want none", got)
	}
}

func TestDecodeJSONArray(t *testing.T) {
	type item struct {
		Original string `json:"original"`
		Feeling  string `json:"feeling"`
	}

	cases := []struct {
		name string
		raw  string
	}{
		{"clean", `[{"original":"foggy morning","feeling":"a bit unclear"}]`},
		{"fenced", "```json\n[{\"original\":\"foggy morning\",\"feeling\":\"a bit unclear\"}]\n```"},
		{"prose around it", `Here you go: [{"original":"foggy morning","feeling":"a bit unclear"}] Hope that helps!`},
		{"missing comma", `[{"original":"foggy morning","feeling":"a bit unclear"} {"original":"deep water","feeling":"in the thick of it"}]`},
		{"trailing comma", `[{"original":"foggy morning","feeling":"a bit unclear"},]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var items []item
			if err := decodeJSONArray(tc.raw, &items); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(items) == 0 || items[0].Original != "foggy morning" {
				t.Fatalf("items = %+v", items)
			}
		})
	}
}

func TestDecodeJSONArrayNoArray(t *testing.T) {
	var items []MoodSuggestion
	if err := decodeJSONArray("I cannot help with that.", &items); err == nil {
		t.Fatal("expected error for output without an array")
	}
}

func TestScrubSalutation(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Dear friend,\nYou kept circling back to rest.", "You kept circling back to rest."},
		{"Hey there\nSomething shifted midweek.", "Something shifted midweek."},
		{"You kept circling back to rest.", "You kept circling back to rest."},
		{"Hello", ""},
	}
	for _, tc := range cases {
		if got := scrubSalutation(tc.in); got != tc.want {
			t.Errorf("scrubSalutation(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidLetter(t *testing.T) {
	if validLetter(strings.Repeat("x", 100)) {
		t.Error("too-short letter accepted")
	}
	if validLetter(strings.Repeat("x", 1500)) {
		t.Error("too-long letter accepted")
	}
	if !validLetter(strings.Repeat("x", 700)) {
		t.Error("plausible letter rejected")
	}
}

func TestTruncateAtSentence(t *testing.T) {
	sentence := "You kept showing up even when the days ran long. "
	long := strings.Repeat(sentence, 40)
	got := truncateAtSentence(long, letterMaxLen)
	if len(got) > letterMaxLen {
		t.Fatalf("truncated letter is %d bytes, cap %d", len(got), letterMaxLen)
	}
	if !strings.HasSuffix(got, ".") {
		t.Errorf("cut did not land on a sentence end: ...%q", got[len(got)-20:])
	}
	if !validLetter(got) {
		t.Errorf("truncated letter length %d fell outside the accepted range", len(got))
	}

	short := "A letter well within bounds."
	if truncateAtSentence(short, letterMaxLen) != short {
		t.Error("in-range text should pass through untouched")
	}

	// No sentence end inside the cap; the cut must still land on a rune
	// boundary and produce valid UTF-8.
	unbroken := strings.Repeat("ö", letterMaxLen)
	got = truncateAtSentence(unbroken, letterMaxLen)
	if !utf8.ValidString(got) {
		t.Error("rune-boundary fallback produced broken UTF-8")
	}
	if len(got) > letterMaxLen {
		t.Errorf("fallback cut is %d bytes, cap %d", len(got), letterMaxLen)
	}
}

func TestLooksLikeInstruction(t *testing.T) {
	if !looksLikeInstruction("Direct address only. Talk to them, not about them, in every line.") {
		t.Error("echoed instruction not detected")
	}
	if looksLikeInstruction("You're holding a lot with nowhere to set it down.") {
		t.Error("real content flagged as instruction")
	}
}
