package insight

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"reflect/api/internal/llm"
	"reflect/api/internal/period"
	"reflect/api/internal/store"
)

// testNow sits mid-period so the last complete period is stable across the
// whole test run.
var testNow = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu          sync.Mutex
	reflections []store.Reflection
	letters     map[string]store.InsightLetter

	failReads bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{letters: make(map[string]store.InsightLetter)}
}

func letterKey(userID, periodStart string) string { return userID + "|" + periodStart }

func (f *fakeStore) ListReflectionsSince(ctx context.Context, userID string, since time.Time) ([]store.Reflection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errors.New("store down")
	}
	var out []store.Reflection
	for _, r := range f.reflections {
		if r.UserID == userID && !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) inRange(userID string, from, to time.Time) []store.Reflection {
	end := to.AddDate(0, 0, 1)
	var out []store.Reflection
	for _, r := range f.reflections {
		if r.UserID == userID && !r.CreatedAt.Before(from) && r.CreatedAt.Before(end) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeStore) ListReflectionsInRange(ctx context.Context, userID string, from, to time.Time) ([]store.Reflection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errors.New("store down")
	}
	return f.inRange(userID, from, to), nil
}

func (f *fakeStore) CountReflectionsInRange(ctx context.Context, userID string, from, to time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return 0, errors.New("store down")
	}
	return len(f.inRange(userID, from, to)), nil
}

func (f *fakeStore) GetInsightLetter(ctx context.Context, userID, periodStart string) (store.InsightLetter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	letter, ok := f.letters[letterKey(userID, periodStart)]
	if !ok {
		return store.InsightLetter{}, sql.ErrNoRows
	}
	return letter, nil
}

func (f *fakeStore) InsertLetterIfAbsent(ctx context.Context, letter store.InsightLetter) (store.InsightLetter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := letterKey(letter.UserID, letter.PeriodStart)
	if existing, ok := f.letters[key]; ok {
		return existing, nil
	}
	letter.CreatedAt = testNow
	f.letters[key] = letter
	return letter, nil
}

func (f *fakeStore) DeleteInsightLetter(ctx context.Context, userID, periodStart string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := letterKey(userID, periodStart)
	_, ok := f.letters[key]
	delete(f.letters, key)
	return ok, nil
}

type fakeModel struct {
	mu     sync.Mutex
	calls  int
	modes  []llm.LetterMode
	output string
	err    error
}

func (f *fakeModel) GenerateLetter(ctx context.Context, summary string, reflectionCount int, mode llm.LetterMode) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.modes = append(f.modes, mode)
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func newTestGenerator(st *fakeStore, model *fakeModel) *Generator {
	g := NewGenerator(st, model, time.Second)
	g.now = func() time.Time { return testNow }
	return g
}

func reflectionAt(userID string, at time.Time) store.Reflection {
	return store.Reflection{
		ID:             "rfl_" + at.Format("20060102"),
		UserID:         userID,
		RawText:        "a thought about rest",
		MirrorResponse: "you keep circling back to rest",
		MoodWord:       "low battery",
		CreatedAt:      at,
	}
}

func TestLetterGeneratedAndPersisted(t *testing.T) {
	st := newFakeStore()
	last := period.LastComplete(testNow)
	st.reflections = []store.Reflection{
		reflectionAt("u1", last.Start.Add(10*time.Hour)),
		reflectionAt("u1", last.Start.AddDate(0, 0, 2).Add(8*time.Hour)),
	}
	model := &fakeModel{output: "You noticed a lot about rest this week, and you let yourself say it."}
	g := newTestGenerator(st, model)

	result, err := g.LetterForLastPeriod(context.Background(), "u1")
	if err != nil {
		t.Fatalf("LetterForLastPeriod: %v", err)
	}
	if result.State != StateGenerated {
		t.Errorf("state = %q, want generated", result.State)
	}
	if result.Content != model.output {
		t.Errorf("content = %q", result.Content)
	}
	if result.ReflectionCount != 2 {
		t.Errorf("reflection_count = %d, want 2", result.ReflectionCount)
	}
	if result.PeriodStart != last.StartKey() || result.PeriodEnd != last.EndKey() {
		t.Errorf("period = %s..%s, want %s..%s", result.PeriodStart, result.PeriodEnd, last.StartKey(), last.EndKey())
	}
	if len(st.letters) != 1 {
		t.Errorf("stored letters = %d, want 1", len(st.letters))
	}
	if model.modes[0] != llm.ModeShort {
		t.Errorf("mode = %q, want short for 2 reflections", model.modes[0])
	}
}

func TestFullModeAtThreeReflections(t *testing.T) {
	st := newFakeStore()
	last := period.LastComplete(testNow)
	for day := 0; day < 3; day++ {
		st.reflections = append(st.reflections, reflectionAt("u1", last.Start.AddDate(0, 0, day).Add(time.Hour)))
	}
	model := &fakeModel{output: "Three days in a row you came back to the same knot."}
	g := newTestGenerator(st, model)

	if _, err := g.LetterForLastPeriod(context.Background(), "u1"); err != nil {
		t.Fatalf("LetterForLastPeriod: %v", err)
	}
	if model.modes[0] != llm.ModeFull {
		t.Errorf("mode = %q, want full", model.modes[0])
	}
}

func TestSecondRequestServesCache(t *testing.T) {
	st := newFakeStore()
	last := period.LastComplete(testNow)
	st.reflections = []store.Reflection{reflectionAt("u1", last.Start.Add(time.Hour))}
	model := &fakeModel{output: "One entry, but it carried the whole week."}
	g := newTestGenerator(st, model)

	first, err := g.LetterForLastPeriod(context.Background(), "u1")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := g.LetterForLastPeriod(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.State != StateCached {
		t.Errorf("second state = %q, want cached", second.State)
	}
	if second.Content != first.Content {
		t.Errorf("cache returned different content: %q vs %q", second.Content, first.Content)
	}
	if second.ReflectionCount != first.ReflectionCount {
		t.Errorf("reflection_count differs between hit and generation: %d vs %d", second.ReflectionCount, first.ReflectionCount)
	}
	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1", model.calls)
	}
}

func TestConflictingInsertYieldsWinningRow(t *testing.T) {
	st := newFakeStore()
	last := period.LastComplete(testNow)
	st.reflections = []store.Reflection{reflectionAt("u1", last.Start.Add(time.Hour))}
	// Another instance already wrote this period's letter between our cache
	// miss and our insert.
	winner := store.InsightLetter{
		ID:              "ltr_winner",
		UserID:          "u1",
		PeriodStart:     last.StartKey(),
		PeriodEnd:       last.EndKey(),
		Content:         "The other writer's letter.",
		ReflectionCount: 1,
	}
	st.letters[letterKey("u1", last.StartKey())] = winner
	model := &fakeModel{output: "A letter that should be discarded."}
	g := newTestGenerator(st, model)

	// Call generate directly: the cache-miss already happened on another
	// goroutine's timeline, and the insert finds the winner in place.
	result, err := g.generate(context.Background(), "u1", last)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.State != StateCached {
		t.Errorf("state = %q, want cached after losing the insert race", result.State)
	}
	if result.Content != winner.Content {
		t.Errorf("content = %q, want the winning row's content", result.Content)
	}
}

func TestConcurrentCallersShareOneLetter(t *testing.T) {
	st := newFakeStore()
	last := period.LastComplete(testNow)
	st.reflections = []store.Reflection{
		reflectionAt("u1", last.Start.Add(6*time.Hour)),
		reflectionAt("u1", last.Start.AddDate(0, 0, 1).Add(6*time.Hour)),
	}
	model := &fakeModel{output: "You kept a small steady practice going through a crowded stretch."}
	g := newTestGenerator(st, model)

	const callers = 8
	results := make([]Result, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = g.LetterForLastPeriod(context.Background(), "u1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].Content != model.output {
			t.Errorf("caller %d content = %q", i, results[i].Content)
		}
		if results[i].ReflectionCount != 2 {
			t.Errorf("caller %d reflection_count = %d, want 2", i, results[i].ReflectionCount)
		}
	}
	if len(st.letters) != 1 {
		t.Fatalf("stored letters = %d, want exactly one", len(st.letters))
	}
}

func TestFallbackPersistsWhenModelFails(t *testing.T) {
	st := newFakeStore()
	last := period.LastComplete(testNow)
	st.reflections = []store.Reflection{reflectionAt("u1", last.Start.Add(time.Hour))}
	model := &fakeModel{err: errors.New("connection refused")}
	g := newTestGenerator(st, model)

	result, err := g.LetterForLastPeriod(context.Background(), "u1")
	if err != nil {
		t.Fatalf("LetterForLastPeriod: %v", err)
	}
	if result.State != StateFallback {
		t.Errorf("state = %q, want fallback", result.State)
	}
	if result.Content != llm.LetterFallback {
		t.Errorf("content = %q", result.Content)
	}
	// The fallback is cached too, so retries stop hammering a dead model.
	stored, err := st.GetInsightLetter(context.Background(), "u1", last.StartKey())
	if err != nil {
		t.Fatalf("fallback letter not persisted: %v", err)
	}
	if stored.Content != llm.LetterFallback {
		t.Errorf("stored content = %q", stored.Content)
	}
}

func TestEmptyPeriodSkipsModel(t *testing.T) {
	st := newFakeStore()
	// Reflections exist recently, just none inside the last complete period.
	st.reflections = []store.Reflection{reflectionAt("u1", testNow.Add(-2*time.Hour))}
	model := &fakeModel{output: "should never be asked"}
	g := newTestGenerator(st, model)

	result, err := g.LetterForLastPeriod(context.Background(), "u1")
	if err != nil {
		t.Fatalf("LetterForLastPeriod: %v", err)
	}
	if result.State != StateGenerated {
		t.Errorf("state = %q, want generated", result.State)
	}
	if result.ReflectionCount != 0 {
		t.Errorf("reflection_count = %d, want 0", result.ReflectionCount)
	}
	if !strings.Contains(result.Content, "room for pausing") {
		t.Errorf("content = %q, want acknowledgment text", result.Content)
	}
	if model.calls != 0 {
		t.Errorf("model calls = %d, want 0 for an empty period", model.calls)
	}
}

func TestTooEarlyForBrandNewUser(t *testing.T) {
	st := newFakeStore()
	model := &fakeModel{}
	g := newTestGenerator(st, model)

	result, err := g.LetterForLastPeriod(context.Background(), "u1")
	if err != nil {
		t.Fatalf("LetterForLastPeriod: %v", err)
	}
	if !result.TooEarly() {
		t.Fatalf("state = %q, want too_early", result.State)
	}
	current := period.For(testNow)
	if want := period.DaysRemaining(current, testNow); result.DaysRemaining != want {
		t.Errorf("days_remaining = %d, want %d", result.DaysRemaining, want)
	}
	if result.Message == "" {
		t.Error("too-early result should carry a message")
	}
	if len(st.letters) != 0 {
		t.Error("too-early must not persist anything")
	}
	if model.calls != 0 {
		t.Error("too-early must not call the model")
	}
}

func TestRegenerateWithoutExistingRow(t *testing.T) {
	st := newFakeStore()
	last := period.LastComplete(testNow)
	st.reflections = []store.Reflection{reflectionAt("u1", last.Start.Add(time.Hour))}
	model := &fakeModel{output: "A fresh take on the same few days."}
	g := newTestGenerator(st, model)

	result, err := g.Regenerate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Regenerate with no cached row: %v", err)
	}
	if result.State != StateGenerated || result.Content != model.output {
		t.Errorf("result = %+v", result)
	}
}

func TestRegenerateReplacesCachedLetter(t *testing.T) {
	st := newFakeStore()
	last := period.LastComplete(testNow)
	st.reflections = []store.Reflection{reflectionAt("u1", last.Start.Add(time.Hour))}
	model := &fakeModel{output: "First draft."}
	g := newTestGenerator(st, model)

	if _, err := g.LetterForLastPeriod(context.Background(), "u1"); err != nil {
		t.Fatalf("seed letter: %v", err)
	}
	model.output = "Second draft."
	result, err := g.Regenerate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if result.Content != "Second draft." {
		t.Errorf("content = %q, want the regenerated letter", result.Content)
	}
	if len(st.letters) != 1 {
		t.Errorf("stored letters = %d, want 1", len(st.letters))
	}
}

func TestStoreErrorsSurface(t *testing.T) {
	st := newFakeStore()
	st.failReads = true
	g := newTestGenerator(st, &fakeModel{})

	if _, err := g.LetterForLastPeriod(context.Background(), "u1"); err == nil {
		t.Fatal("expected error when the store is unreachable")
	}
}

func TestSummarySkipsMalformedRows(t *testing.T) {
	last := period.LastComplete(testNow)
	good := reflectionAt("u1", last.Start.Add(time.Hour))
	bad := store.Reflection{ID: "rfl_bad", UserID: "u1", RawText: "ghost entry"}

	summary := BuildSummary([]store.Reflection{bad, good})
	if strings.Contains(summary, "ghost entry") {
		t.Error("reflection with zero created_at should be excluded")
	}
	if !strings.Contains(summary, "a thought about rest") {
		t.Errorf("summary = %q", summary)
	}
}

func TestSummaryCapsItemsAndExcerpts(t *testing.T) {
	last := period.LastComplete(testNow)
	long := strings.Repeat("w", 900)
	var reflections []store.Reflection
	for i := 0; i < 30; i++ {
		r := reflectionAt("u1", last.Start.Add(time.Duration(i)*time.Minute))
		r.RawText = long
		r.MirrorResponse = ""
		r.MoodWord = ""
		reflections = append(reflections, r)
	}
	summary := BuildSummary(reflections)
	if len(summary) > maxSummaryRunes {
		t.Errorf("summary length = %d, want <= %d", len(summary), maxSummaryRunes)
	}
}
