package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"reflect/api/internal/store"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	reflections []store.Reflection
	moods       []store.MoodEntry
	err         error
}

func (f *fakeStore) ListReflectionsSince(ctx context.Context, userID string, since time.Time) ([]store.Reflection, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []store.Reflection
	for _, r := range f.reflections {
		if r.UserID == userID && !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListMoodEntries(ctx context.Context, userID string, from, to time.Time) ([]store.MoodEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	end := to.AddDate(0, 0, 1)
	var out []store.MoodEntry
	for _, e := range f.moods {
		if !e.CreatedAt.Before(from) && e.CreatedAt.Before(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

// identityNormalizer echoes phrases back, lower-keyed, like the real one
// does when the model is unreachable.
type identityNormalizer struct {
	feelings map[string]string
	calls    int
}

func (n *identityNormalizer) Resolve(ctx context.Context, phrases []string) map[string]string {
	n.calls++
	out := make(map[string]string)
	for _, p := range phrases {
		key := strings.ToLower(p)
		if f, ok := n.feelings[key]; ok {
			out[key] = f
		} else {
			out[key] = p
		}
	}
	return out
}

func newTestService(st *fakeStore, n normalizer) *Service {
	s := NewService(st, n)
	s.now = func() time.Time { return testNow }
	return s
}

func day(offset int) time.Time {
	return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestFrequencyByDayIsDense(t *testing.T) {
	st := &fakeStore{reflections: []store.Reflection{
		{ID: "a", UserID: "u1", CreatedAt: day(0)},
		{ID: "b", UserID: "u1", CreatedAt: day(0)},
		{ID: "c", UserID: "u1", CreatedAt: day(-2)},
	}}
	s := newTestService(st, &identityNormalizer{})

	out, err := s.FrequencyByDay(context.Background(), "u1", 7)
	if err != nil {
		t.Fatalf("FrequencyByDay: %v", err)
	}
	if len(out) != 7 {
		t.Fatalf("buckets = %d, want exactly 7", len(out))
	}
	if out[0].Date != "2026-03-04" || out[6].Date != "2026-03-10" {
		t.Errorf("window = %s..%s", out[0].Date, out[6].Date)
	}
	if out[6].Count != 2 || out[4].Count != 1 {
		t.Errorf("counts = %+v", out)
	}
	for _, b := range out[:4] {
		if b.Count != 0 {
			t.Errorf("empty day %s has count %d", b.Date, b.Count)
		}
	}
}

func TestFrequencyByDayAllZero(t *testing.T) {
	s := newTestService(&fakeStore{}, &identityNormalizer{})
	out, err := s.FrequencyByDay(context.Background(), "u1", 7)
	if err != nil {
		t.Fatalf("FrequencyByDay: %v", err)
	}
	if len(out) != 7 {
		t.Fatalf("buckets = %d, want 7 even with no reflections", len(out))
	}
}

func TestFrequencyByDaySkipsZeroTimestamps(t *testing.T) {
	st := &fakeStore{reflections: []store.Reflection{
		{ID: "a", UserID: "u1", CreatedAt: day(0)},
		{ID: "bad", UserID: "u1"},
	}}
	// The zero-time row is outside every window, but guard the counting
	// path too in case a store ever returns one.
	st.reflections[1].CreatedAt = time.Time{}
	s := newTestService(st, &identityNormalizer{})

	out, err := s.FrequencyByDay(context.Background(), "u1", 1)
	if err != nil {
		t.Fatalf("FrequencyByDay: %v", err)
	}
	if out[0].Count != 1 {
		t.Errorf("count = %d, want 1", out[0].Count)
	}
}

func TestFrequencyByDayClampsWindow(t *testing.T) {
	s := newTestService(&fakeStore{}, &identityNormalizer{})
	out, _ := s.FrequencyByDay(context.Background(), "u1", 0)
	if len(out) != 1 {
		t.Errorf("days=0 buckets = %d, want clamp to 1", len(out))
	}
	out, _ = s.FrequencyByDay(context.Background(), "u1", 500)
	if len(out) != 90 {
		t.Errorf("days=500 buckets = %d, want clamp to 90", len(out))
	}
}

func TestMoodOverTime(t *testing.T) {
	st := &fakeStore{moods: []store.MoodEntry{
		{ID: "m1", ReflectionID: "r1", WordOrPhrase: "foggy morning", CreatedAt: day(-1)},
		{ID: "m2", ReflectionID: "r2", WordOrPhrase: "Foggy Morning", CreatedAt: day(0)},
	}}
	n := &identityNormalizer{feelings: map[string]string{"foggy morning": "a bit unclear"}}
	s := newTestService(st, n)

	timeline, err := s.MoodOverTime(context.Background(), "u1", 7)
	if err != nil {
		t.Fatalf("MoodOverTime: %v", err)
	}
	if !timeline.HasData {
		t.Fatal("has_data = false with entries present")
	}
	if len(timeline.Moods) != 2 {
		t.Fatalf("points = %+v", timeline.Moods)
	}
	for _, p := range timeline.Moods {
		if p.Feeling != "a bit unclear" {
			t.Errorf("feeling = %q, want the shared canonical feeling", p.Feeling)
		}
	}
	if timeline.Moods[0].Date > timeline.Moods[1].Date {
		t.Error("points not ordered by date")
	}
	if n.calls != 1 {
		t.Errorf("normalizer calls = %d, want 1", n.calls)
	}
}

func TestMoodOverTimeNoData(t *testing.T) {
	n := &identityNormalizer{}
	s := newTestService(&fakeStore{}, n)

	timeline, err := s.MoodOverTime(context.Background(), "u1", 7)
	if err != nil {
		t.Fatalf("MoodOverTime: %v", err)
	}
	if timeline.HasData {
		t.Error("has_data = true with no mood entries")
	}
	if timeline.Moods == nil || len(timeline.Moods) != 0 {
		t.Errorf("moods = %#v, want empty non-nil slice", timeline.Moods)
	}
	if n.calls != 0 {
		t.Error("normalizer consulted for an empty window")
	}
}

func TestMoodLanguage(t *testing.T) {
	var reflections []store.Reflection
	moods := []string{"foggy morning", "Foggy Morning", "deep water", "low battery",
		"open window", "paused traffic", "waiting room", "static", "loose thread", "spare key"}
	for i, m := range moods {
		reflections = append(reflections, store.Reflection{
			ID: "r" + m, UserID: "u1", MoodWord: m, CreatedAt: day(0).Add(time.Duration(i) * time.Minute),
		})
	}
	s := newTestService(&fakeStore{reflections: reflections}, &identityNormalizer{})

	words, err := s.MoodLanguage(context.Background(), "u1", 30)
	if err != nil {
		t.Fatalf("MoodLanguage: %v", err)
	}
	if len(words) != 8 {
		t.Fatalf("words = %v, want 8 max", words)
	}
	if words[0] != "foggy morning" || words[1] != "deep water" {
		t.Errorf("words = %v, want distinct phrases in first-seen order", words)
	}
}

func TestAnalyticsSurfacesStoreErrors(t *testing.T) {
	st := &fakeStore{err: errors.New("store down")}
	s := newTestService(st, &identityNormalizer{})

	if _, err := s.FrequencyByDay(context.Background(), "u1", 7); err == nil {
		t.Error("FrequencyByDay should surface store errors")
	}
	if _, err := s.MoodOverTime(context.Background(), "u1", 7); err == nil {
		t.Error("MoodOverTime should surface store errors")
	}
}
