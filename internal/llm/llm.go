// Package llm wraps the language model behind a narrow interface so the rest
// of the service never sees provider details. Every method can fail with a
// timeout or connection error; callers own the fallback policy.
package llm

import "context"

// LetterMode selects how much material the letter prompt receives.
type LetterMode string

const (
	// ModeAcknowledgment is used when the period had no reflections. The
	// generator does not call the model for it; the constant exists so
	// callers can still label the result.
	ModeAcknowledgment LetterMode = "acknowledgment"
	// ModeShort is used for sparse periods (one or two reflections).
	ModeShort LetterMode = "short"
	// ModeFull is used when there is enough material for themes.
	ModeFull LetterMode = "full"
)

// Section is one titled block of a generated reflection.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// MoodSuggestion is a metaphor phrase plus a short neutral description.
type MoodSuggestion struct {
	Phrase      string `json:"phrase"`
	Description string `json:"description"`
}

// Client is the generation capability consumed by the insight, mood and
// reflection services.
type Client interface {
	// GenerateLetter writes the periodic insight letter from a summary of
	// the period's reflections. The returned text has no greeting or
	// sign-off and sits in a plausible 100-150 word range.
	GenerateLetter(ctx context.Context, summary string, reflectionCount int, mode LetterMode) (string, error)

	// NormalizeMoods converts mood metaphors to short everyday feelings.
	// The result maps each input phrase (as given) to its feeling. Phrases
	// the model skipped are absent from the map.
	NormalizeMoods(ctx context.Context, phrases []string) (map[string]string, error)

	// Reflect turns a raw thought into the six titled sections the client
	// renders. mode is one of "gentle", "direct" or "quiet".
	Reflect(ctx context.Context, thought, mode string) ([]Section, error)

	// PersonalizedMirror writes a short mirror from the thought plus the
	// user's answers to the notice questions.
	PersonalizedMirror(ctx context.Context, thought string, questions, answers []string) (string, error)

	// MoodSuggestions proposes 4-5 metaphor phrases for the moment.
	MoodSuggestions(ctx context.Context, thought, mirror string) ([]MoodSuggestion, error)

	// ReminderMessage writes one short sentence for a revisit reminder.
	ReminderMessage(ctx context.Context, thought, mirrorSnippet string) (string, error)
}

// Fixed texts substituted when the model is unreachable or returns junk.
const (
	LetterFallback   = "These past few days you showed up to reflect. That's worth noticing."
	ReminderFallback = "You wanted to come back to this reflection."
	MirrorFallback   = "What you shared matters. Take a moment to be with it."
)

// MoodSuggestionsFallback is served when the model cannot be asked.
var MoodSuggestionsFallback = []MoodSuggestion{
	{Phrase: "foggy morning", Description: "A sense of things being unclear or slow to lift."},
	{Phrase: "paused traffic", Description: "Waiting, with nowhere to go yet."},
	{Phrase: "open window", Description: "Something has shifted; a bit of air."},
	{Phrase: "low battery", Description: "Running on less than usual."},
	{Phrase: "deep water", Description: "In the middle of something that asks for patience."},
}
