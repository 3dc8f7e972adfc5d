package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Config selects the model provider. Provider is "ollama" (default) or
// "openai"; an OpenAI-compatible gateway works through OpenAIBaseURL.
type Config struct {
	Provider      string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OllamaURL     string
	OllamaModel   string
}

// LangChainClient implements Client on top of langchaingo, so both providers
// share one completion path.
type LangChainClient struct {
	model llms.Model
}

var _ Client = (*LangChainClient)(nil)

func New(cfg Config) (*LangChainClient, error) {
	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{
			openai.WithModel(cfg.OpenAIModel),
			openai.WithToken(cfg.OpenAIAPIKey),
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		return &LangChainClient{model: model}, nil
	case "", "ollama":
		model, err := ollama.New(
			ollama.WithModel(cfg.OllamaModel),
			ollama.WithServerURL(cfg.OllamaURL),
		)
		if err != nil {
			return nil, fmt.Errorf("ollama client: %w", err)
		}
		return &LangChainClient{model: model}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func (c *LangChainClient) chat(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if system != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, system))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, prompt))

	resp, err := c.model.GenerateContent(ctx, messages, llms.WithMaxTokens(1024))
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func (c *LangChainClient) GenerateLetter(ctx context.Context, summary string, reflectionCount int, mode LetterMode) (string, error) {
	if mode == ModeAcknowledgment {
		return "", errors.New("acknowledgment letters are fixed text, not generated")
	}
	out, err := c.chat(ctx, letterSystem, letterPrompt(summary, mode))
	if err != nil {
		return "", err
	}
	out = scrubSalutation(out)
	if len(out) > letterMaxLen {
		out = truncateAtSentence(out, letterMaxLen)
	}
	if !validLetter(out) {
		return "", fmt.Errorf("letter length %d outside expected range", len(out))
	}
	return out, nil
}

func (c *LangChainClient) NormalizeMoods(ctx context.Context, phrases []string) (map[string]string, error) {
	if len(phrases) == 0 {
		return map[string]string{}, nil
	}
	encoded, err := json.Marshal(phrases)
	if err != nil {
		return nil, fmt.Errorf("encode mood phrases: %w", err)
	}
	out, err := c.chat(ctx, moodConvertSystem, fmt.Sprintf(moodConvertPrompt, string(encoded)))
	if err != nil {
		return nil, err
	}
	var items []struct {
		Original string `json:"original"`
		Feeling  string `json:"feeling"`
	}
	if err := decodeJSONArray(out, &items); err != nil {
		return nil, err
	}
	result := make(map[string]string, len(items))
	for _, item := range items {
		original := strings.TrimSpace(item.Original)
		feeling := clip(strings.TrimSpace(item.Feeling), 50)
		if original == "" {
			continue
		}
		if feeling == "" {
			feeling = original
		}
		result[original] = feeling
	}
	return result, nil
}

func (c *LangChainClient) Reflect(ctx context.Context, thought, mode string) ([]Section, error) {
	cfg, ok := reflectModes[strings.ToLower(mode)]
	if !ok {
		cfg = reflectModes["gentle"]
	}
	raw, err := c.chat(ctx, cfg.system, reflectPrompt(thought, cfg))
	if err != nil {
		return nil, err
	}
	parsed := parseSections(raw)

	// Always return the six titles the client expects: take the model's
	// section when it produced a usable one, fall back per title otherwise.
	result := make([]Section, 0, len(requiredSections))
	for _, want := range requiredSections {
		var match *Section
		for i := range parsed {
			if strings.Contains(strings.ToLower(parsed[i].Title), want.keyword) {
				match = &parsed[i]
				break
			}
		}
		if match != nil && !looksLikeInstruction(match.Content) {
			result = append(result, *match)
			continue
		}
		content := want.fallback
		if want.keyword == "mirror" && strings.TrimSpace(raw) != "" {
			content = strings.TrimSpace(raw)
		}
		result = append(result, Section{Title: want.title, Content: content})
	}
	return result, nil
}

func (c *LangChainClient) PersonalizedMirror(ctx context.Context, thought string, questions, answers []string) (string, error) {
	var qa strings.Builder
	for i, question := range questions {
		answer := ""
		if i < len(answers) {
			answer = answers[i]
		}
		fmt.Fprintf(&qa, "Q%d: %s -> %q\n", i+1, question, answer)
	}
	out, err := c.chat(ctx, mirrorSystem, fmt.Sprintf(mirrorPrompt, thought, qa.String()))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("empty mirror")
	}
	return out, nil
}

func (c *LangChainClient) MoodSuggestions(ctx context.Context, thought, mirror string) ([]MoodSuggestion, error) {
	var parts []string
	if thought = strings.TrimSpace(thought); thought != "" {
		parts = append(parts, fmt.Sprintf("What they wrote: %q", clip(thought, 500)))
	}
	if mirror = strings.TrimSpace(mirror); mirror != "" {
		parts = append(parts, fmt.Sprintf("Their reflection mirror: %q", clip(mirror, 400)))
	}
	if len(parts) == 0 {
		return nil, errors.New("no context for mood suggestions")
	}
	out, err := c.chat(ctx, moodSuggestSystem, fmt.Sprintf(moodSuggestPrompt, strings.Join(parts, "\n\n")))
	if err != nil {
		return nil, err
	}
	var items []MoodSuggestion
	if err := decodeJSONArray(out, &items); err != nil {
		return nil, err
	}
	result := make([]MoodSuggestion, 0, 5)
	for _, item := range items {
		phrase := strings.TrimSpace(item.Phrase)
		desc := strings.TrimSpace(item.Description)
		if phrase == "" || desc == "" {
			continue
		}
		result = append(result, MoodSuggestion{Phrase: clip(phrase, 60), Description: clip(desc, 120)})
		if len(result) == 5 {
			break
		}
	}
	if len(result) == 0 {
		return nil, errors.New("no usable mood suggestions")
	}
	return result, nil
}

func (c *LangChainClient) ReminderMessage(ctx context.Context, thought, mirrorSnippet string) (string, error) {
	var sb strings.Builder
	if thought = strings.TrimSpace(thought); thought != "" {
		fmt.Fprintf(&sb, "Thought they wrote: %s\n", clip(thought, 300))
	}
	if mirrorSnippet = strings.TrimSpace(mirrorSnippet); mirrorSnippet != "" {
		fmt.Fprintf(&sb, "Mirror snippet: %s\n", clip(mirrorSnippet, 200))
	}
	prompt := "Write one short generic reminder sentence (under 15 words) to revisit a reflection.\n\nSound like a caring friend, not a productivity app. No quotes."
	if sb.Len() > 0 {
		prompt = sb.String() + `
Write one short reminder sentence (under 15 words) that would make them want to return to this reflection.

Reference something specific from the context. Gentle and inviting, not demanding. Sound like a caring friend, not a productivity app.

Write just the sentence. No quotes around it.`
	}
	out, err := c.chat(ctx, reminderSystem, prompt)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" || len(out) >= 120 {
		return "", fmt.Errorf("reminder message length %d unusable", len(out))
	}
	return out, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
