// Package analytics projects the reflection store into the two insight
// views: reflection frequency by day and moods over time.
package analytics

import (
	"context"
	"sort"
	"strings"
	"time"

	"reflect/api/internal/store"
)

// Window bounds accepted from clients; out-of-range values clamp.
const (
	minWindowDays = 1
	maxWindowDays = 90
)

// moodLanguageLimit caps the distinct phrases in the mood-language view.
const moodLanguageLimit = 8

// DayCount is one bucket of the frequency view.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// MoodPoint is one mood entry with its canonical feeling attached.
type MoodPoint struct {
	Date    string `json:"date"`
	Mood    string `json:"mood"`
	Feeling string `json:"feeling"`
}

// MoodTimeline distinguishes "nothing recorded" (HasData false) from a
// window that rendered empty for other reasons.
type MoodTimeline struct {
	HasData bool        `json:"has_data"`
	Moods   []MoodPoint `json:"moods"`
}

type dataStore interface {
	ListReflectionsSince(ctx context.Context, userID string, since time.Time) ([]store.Reflection, error)
	ListMoodEntries(ctx context.Context, userID string, from, to time.Time) ([]store.MoodEntry, error)
}

type normalizer interface {
	Resolve(ctx context.Context, phrases []string) map[string]string
}

// Service reads the reflection store directly; it never writes.
type Service struct {
	store dataStore
	moods normalizer

	now func() time.Time
}

func NewService(st dataStore, moods normalizer) *Service {
	return &Service{store: st, moods: moods, now: time.Now}
}

// FrequencyByDay counts reflections per calendar day over the trailing
// window ending today. The result always holds exactly `days` buckets,
// oldest first, zero-count days included, so clients can render a
// fixed-width chart without reindexing.
func (s *Service) FrequencyByDay(ctx context.Context, userID string, days int) ([]DayCount, error) {
	days = clampDays(days)
	today := midnightUTC(s.now())
	start := today.AddDate(0, 0, -(days - 1))

	reflections, err := s.store.ListReflectionsSince(ctx, userID, start)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]int)
	for _, r := range reflections {
		if r.CreatedAt.IsZero() {
			continue
		}
		byDate[r.CreatedAt.UTC().Format("2006-01-02")]++
	}

	out := make([]DayCount, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		out = append(out, DayCount{Date: date, Count: byDate[date]})
	}
	return out, nil
}

// MoodOverTime lists the user's mood entries in the trailing window with
// each metaphor resolved to its canonical feeling, ordered by date.
func (s *Service) MoodOverTime(ctx context.Context, userID string, days int) (MoodTimeline, error) {
	days = clampDays(days)
	today := midnightUTC(s.now())
	start := today.AddDate(0, 0, -(days - 1))

	entries, err := s.store.ListMoodEntries(ctx, userID, start, today)
	if err != nil {
		return MoodTimeline{}, err
	}

	phrases := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.WordOrPhrase) != "" && !e.CreatedAt.IsZero() {
			phrases = append(phrases, e.WordOrPhrase)
		}
	}
	if len(phrases) == 0 {
		return MoodTimeline{HasData: false, Moods: []MoodPoint{}}, nil
	}

	feelings := s.moods.Resolve(ctx, phrases)

	points := make([]MoodPoint, 0, len(phrases))
	for _, e := range entries {
		mood := strings.TrimSpace(e.WordOrPhrase)
		if mood == "" || e.CreatedAt.IsZero() {
			continue
		}
		feeling := feelings[strings.ToLower(mood)]
		if feeling == "" {
			feeling = mood
		}
		points = append(points, MoodPoint{
			Date:    e.CreatedAt.UTC().Format("2006-01-02"),
			Mood:    mood,
			Feeling: feeling,
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	return MoodTimeline{HasData: true, Moods: points}, nil
}

// MoodLanguage returns the distinct mood phrases the user reached for in the
// window, first-seen order, at most 8. No counts and no ranking; it is a
// vocabulary, not a leaderboard.
func (s *Service) MoodLanguage(ctx context.Context, userID string, days int) ([]string, error) {
	days = clampDays(days)
	since := midnightUTC(s.now()).AddDate(0, 0, -(days - 1))

	reflections, err := s.store.ListReflectionsSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	words := make([]string, 0, moodLanguageLimit)
	for _, r := range reflections {
		mood := strings.TrimSpace(r.MoodWord)
		key := strings.ToLower(mood)
		if mood == "" || seen[key] {
			continue
		}
		seen[key] = true
		words = append(words, mood)
		if len(words) == moodLanguageLimit {
			break
		}
	}
	return words, nil
}

func clampDays(days int) int {
	if days < minWindowDays {
		return minWindowDays
	}
	if days > maxWindowDays {
		return maxWindowDays
	}
	return days
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
