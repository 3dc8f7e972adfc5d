// Package insight owns the periodic letter: deciding whether one is due,
// generating it from the period's reflections, and caching it so each
// (user, period) pair is generated at most once.
package insight

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"reflect/api/internal/llm"
	"reflect/api/internal/period"
	"reflect/api/internal/store"
	"reflect/api/internal/util"
)

// State labels how the returned letter came to be.
type State string

const (
	// StateTooEarly means no letter exists yet and the user has not been
	// reflecting long enough to earn one.
	StateTooEarly State = "too_early"
	// StateCached means the letter was served from the cache, either a
	// prior request's write or a concurrent writer that won the insert.
	StateCached State = "cached"
	// StateGenerated means this request produced the letter.
	StateGenerated State = "generated"
	// StateFallback means the model failed and the fixed fallback text was
	// persisted in its place.
	StateFallback State = "fallback"
)

// Result is the uniform response for every generator state. Cache hits and
// fresh generations expose the same fields, reflection count included.
type Result struct {
	State           State  `json:"state"`
	Content         string `json:"content,omitempty"`
	PeriodStart     string `json:"period_start"`
	PeriodEnd       string `json:"period_end"`
	ReflectionCount int    `json:"reflection_count"`
	DaysRemaining   int    `json:"days_remaining,omitempty"`
	Message         string `json:"message,omitempty"`
}

func (r Result) TooEarly() bool { return r.State == StateTooEarly }

const tooEarlyMessage = "Your first letter will be ready after you complete a 5-day reflection period."

// acknowledgmentLetter is served for a complete period with zero reflections.
// Fixed text; calling the model for an empty period buys nothing.
const acknowledgmentLetter = "These past few days didn't leave much room for pausing. That happens; " +
	"some stretches ask for all of you and offer no quiet in return. You're here now, though, " +
	"and that counts for something. There's no catching up to do and nothing to make up for. " +
	"Whatever these days held, the next few are unwritten, and the page is still yours."

type dataStore interface {
	ListReflectionsSince(ctx context.Context, userID string, since time.Time) ([]store.Reflection, error)
	ListReflectionsInRange(ctx context.Context, userID string, from, to time.Time) ([]store.Reflection, error)
	CountReflectionsInRange(ctx context.Context, userID string, from, to time.Time) (int, error)
	GetInsightLetter(ctx context.Context, userID, periodStart string) (store.InsightLetter, error)
	InsertLetterIfAbsent(ctx context.Context, letter store.InsightLetter) (store.InsightLetter, error)
	DeleteInsightLetter(ctx context.Context, userID, periodStart string) (bool, error)
}

type letterModel interface {
	GenerateLetter(ctx context.Context, summary string, reflectionCount int, mode llm.LetterMode) (string, error)
}

// Generator orchestrates cache lookup, aggregation, the model call and the
// idempotent cache write.
type Generator struct {
	store   dataStore
	model   letterModel
	timeout time.Duration

	now func() time.Time
}

// NewGenerator wires a generator. timeout bounds each model call; it should
// sit below the server's write timeout so a slow model degrades to the
// fallback letter instead of a dead connection.
func NewGenerator(st dataStore, model letterModel, timeout time.Duration) *Generator {
	return &Generator{store: st, model: model, timeout: timeout, now: time.Now}
}

// LetterForLastPeriod returns the letter for the most recent complete period,
// generating and caching it on first request after the period elapses.
func (g *Generator) LetterForLastPeriod(ctx context.Context, userID string) (Result, error) {
	now := g.now().UTC()
	last := period.LastComplete(now)

	cached, err := g.store.GetInsightLetter(ctx, userID, last.StartKey())
	if err == nil {
		return g.cachedResult(ctx, userID, last, cached), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Result{}, fmt.Errorf("load cached letter: %w", err)
	}

	// No cached letter. A user who has not reflected at all recently is
	// still waiting out their first period.
	recent, err := g.store.ListReflectionsSince(ctx, userID, now.AddDate(0, 0, -30))
	if err != nil {
		return Result{}, fmt.Errorf("list recent reflections: %w", err)
	}
	if len(recent) == 0 {
		current := period.For(now)
		return Result{
			State:         StateTooEarly,
			PeriodStart:   current.StartKey(),
			PeriodEnd:     current.EndKey(),
			DaysRemaining: period.DaysRemaining(current, now),
			Message:       tooEarlyMessage,
		}, nil
	}

	return g.generate(ctx, userID, last)
}

// Regenerate deletes any cached letter for the last complete period and
// produces a fresh one. A missing row is not an error; there is simply
// nothing to clear before generating.
func (g *Generator) Regenerate(ctx context.Context, userID string) (Result, error) {
	now := g.now().UTC()
	last := period.LastComplete(now)

	if _, err := g.store.DeleteInsightLetter(ctx, userID, last.StartKey()); err != nil {
		return Result{}, fmt.Errorf("clear cached letter: %w", err)
	}
	return g.generate(ctx, userID, last)
}

// cachedResult shapes a cache hit. The stored reflection count is refreshed
// from the reflection store when possible so hits and fresh generations
// always answer with the same fields computed the same way.
func (g *Generator) cachedResult(ctx context.Context, userID string, p period.Period, letter store.InsightLetter) Result {
	count := letter.ReflectionCount
	if n, err := g.store.CountReflectionsInRange(ctx, userID, p.Start, p.End); err == nil {
		count = n
	}
	return Result{
		State:           StateCached,
		Content:         letter.Content,
		PeriodStart:     letter.PeriodStart,
		PeriodEnd:       letter.PeriodEnd,
		ReflectionCount: count,
	}
}

func (g *Generator) generate(ctx context.Context, userID string, p period.Period) (Result, error) {
	// The letter is worth persisting even if this client hangs up before
	// reading it, so generation is detached from the request's cancellation.
	ctx = context.WithoutCancel(ctx)

	reflections, err := g.store.ListReflectionsInRange(ctx, userID, p.Start, p.End)
	if err != nil {
		return Result{}, fmt.Errorf("list period reflections: %w", err)
	}
	count := len(reflections)

	state := StateGenerated
	var content string
	if count == 0 {
		content = acknowledgmentLetter
	} else {
		mode := llm.ModeFull
		if count < 3 {
			mode = llm.ModeShort
		}
		llmCtx, cancel := context.WithTimeout(ctx, g.timeout)
		content, err = g.model.GenerateLetter(llmCtx, BuildSummary(reflections), count, mode)
		cancel()
		if err != nil {
			log.Printf("letter generation failed user=%s period=%s: %v", userID, p.StartKey(), err)
			content = llm.LetterFallback
			state = StateFallback
		}
	}

	// Optimistic insert; on conflict the cache keeps the first writer's
	// letter and this request serves that instead of its own.
	id := util.NewID("ltr")
	stored, err := g.store.InsertLetterIfAbsent(ctx, store.InsightLetter{
		ID:              id,
		UserID:          userID,
		PeriodStart:     p.StartKey(),
		PeriodEnd:       p.EndKey(),
		Content:         content,
		ReflectionCount: count,
	})
	if err != nil {
		return Result{}, fmt.Errorf("persist letter: %w", err)
	}
	if stored.ID != id {
		state = StateCached
	}
	return Result{
		State:           state,
		Content:         stored.Content,
		PeriodStart:     stored.PeriodStart,
		PeriodEnd:       stored.PeriodEnd,
		ReflectionCount: stored.ReflectionCount,
	}, nil
}
