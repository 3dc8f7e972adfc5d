// Package mood converts free-text mood metaphors ("foggy morning") into the
// short everyday feelings the analytics views display.
package mood

import (
	"context"
	"log"
	"strings"
	"sync"
)

type converter interface {
	NormalizeMoods(ctx context.Context, phrases []string) (map[string]string, error)
}

// batchLimit bounds one model call; callers rarely have more distinct moods
// than this in a window anyway.
const batchLimit = 12

// Normalizer caches phrase-to-feeling mappings for the process lifetime.
// Mood vocabulary is treated as stable, so entries are never invalidated.
// Keys are lower-cased phrases; safe for concurrent use. Create one at
// service start and share it.
type Normalizer struct {
	llm converter

	mu    sync.RWMutex
	cache map[string]string
}

func NewNormalizer(llm converter) *Normalizer {
	return &Normalizer{llm: llm, cache: make(map[string]string)}
}

// Resolve maps each phrase to its canonical feeling, keyed by the lower-cased
// phrase. Cached entries are served without touching the model; misses go out
// in a single batched call. When that call fails each miss resolves to itself
// and the identity is cached, so an unreachable model is asked at most once
// per phrase.
func (n *Normalizer) Resolve(ctx context.Context, phrases []string) map[string]string {
	result := make(map[string]string)
	var misses []string

	n.mu.RLock()
	for _, phrase := range phrases {
		key := strings.ToLower(strings.TrimSpace(phrase))
		if key == "" {
			continue
		}
		if _, seen := result[key]; seen {
			continue
		}
		if feeling, ok := n.cache[key]; ok {
			result[key] = feeling
		} else if len(misses) < batchLimit {
			result[key] = strings.TrimSpace(phrase) // identity until resolved
			misses = append(misses, strings.TrimSpace(phrase))
		} else {
			result[key] = strings.TrimSpace(phrase)
		}
	}
	n.mu.RUnlock()

	if len(misses) == 0 {
		return result
	}

	resolved, err := n.llm.NormalizeMoods(ctx, misses)
	if err != nil {
		log.Printf("mood normalize failed, caching identity for %d phrases: %v", len(misses), err)
		resolved = nil
	}

	n.mu.Lock()
	for _, phrase := range misses {
		key := strings.ToLower(phrase)
		feeling := phrase
		if f, ok := lookupFold(resolved, phrase); ok && strings.TrimSpace(f) != "" {
			feeling = strings.TrimSpace(f)
		}
		// First writer wins; a concurrent request may have resolved the
		// same phrase while we were waiting on the model.
		if existing, ok := n.cache[key]; ok {
			feeling = existing
		} else {
			n.cache[key] = feeling
		}
		result[key] = feeling
	}
	n.mu.Unlock()

	return result
}

// Feeling resolves a single phrase.
func (n *Normalizer) Feeling(ctx context.Context, phrase string) string {
	key := strings.ToLower(strings.TrimSpace(phrase))
	if key == "" {
		return ""
	}
	return n.Resolve(ctx, []string{phrase})[key]
}

// lookupFold finds phrase in the model's response map regardless of the case
// the model echoed it back in.
func lookupFold(m map[string]string, phrase string) (string, bool) {
	if m == nil {
		return "", false
	}
	if f, ok := m[phrase]; ok {
		return f, true
	}
	for original, feeling := range m {
		if strings.EqualFold(original, phrase) {
			return feeling, true
		}
	}
	return "", false
}
