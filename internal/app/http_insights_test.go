package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"reflect/api/internal/analytics"
	"reflect/api/internal/insight"
	"reflect/api/internal/llm"
	"reflect/api/internal/search"
)

func authedHandler(t *testing.T, svc *Service, fs *fakeStore) (http.Handler, string) {
	t.Helper()
	seedUser(fs, "usr_1", "ada@example.com")
	session, err := svc.CreateSession(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return NewHTTPServer(svc, "*").Handler(), session.Token
}

func TestInsightsLetterEndpointShapes(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, &fakeModel{})
	svc.letters = &fakeLetters{result: insight.Result{
		State:           insight.StateGenerated,
		Content:         "a quiet letter",
		PeriodStart:     "2026-03-05",
		PeriodEnd:       "2026-03-09",
		ReflectionCount: 4,
	}}
	handler, token := authedHandler(t, svc, fs)

	rec, payload := doJSON(t, handler, http.MethodGet, "/api/insights/letter", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("letter status = %d", rec.Code)
	}
	if payload["content"] != "a quiet letter" || payload["too_early"] != false {
		t.Fatalf("unexpected letter payload: %v", payload)
	}
	if payload["period_start"] != "2026-03-05" || payload["period_end"] != "2026-03-09" {
		t.Errorf("unexpected period keys: %v", payload)
	}

	svc.letters = &fakeLetters{result: insight.Result{
		State:         insight.StateTooEarly,
		PeriodStart:   "2026-03-05",
		PeriodEnd:     "2026-03-09",
		DaysRemaining: 3,
		Message:       "Your first letter will be ready after you complete a 5-day reflection period.",
	}}

	rec, payload = doJSON(t, handler, http.MethodGet, "/api/insights/letter", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("too-early status = %d", rec.Code)
	}
	if payload["too_early"] != true || payload["content"] != nil {
		t.Fatalf("unexpected too-early payload: %v", payload)
	}
	if payload["days_remaining"] != float64(3) {
		t.Errorf("days_remaining = %v", payload["days_remaining"])
	}
	if payload["message"] == "" {
		t.Error("expected a message for the too-early state")
	}
}

func TestRegenerateLetterEndpoint(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, &fakeModel{})
	svc.letters = &fakeLetters{result: insight.Result{
		State:           insight.StateGenerated,
		Content:         "fresh words",
		PeriodStart:     "2026-03-05",
		PeriodEnd:       "2026-03-09",
		ReflectionCount: 2,
	}}
	handler, token := authedHandler(t, svc, fs)

	rec, payload := doJSON(t, handler, http.MethodPost, "/api/insights/generate-letter", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate-letter status = %d", rec.Code)
	}
	if payload["content"] != "fresh words" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestFrequencyAndMoodEndpoints(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, &fakeModel{})
	svc.views = &fakeViews{
		frequency: []analytics.DayCount{
			{Date: "2026-03-08", Count: 0},
			{Date: "2026-03-09", Count: 2},
		},
		timeline: analytics.MoodTimeline{
			HasData: true,
			Moods: []analytics.MoodPoint{
				{Date: "2026-03-09", Mood: "foggy morning", Feeling: "tired"},
			},
		},
		words: []string{"foggy morning", "low battery"},
	}
	handler, token := authedHandler(t, svc, fs)

	rec, payload := doJSON(t, handler, http.MethodGet, "/api/insights/reflection-frequency?days=2", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("frequency status = %d", rec.Code)
	}
	days, ok := payload["days"].([]any)
	if !ok || len(days) != 2 {
		t.Fatalf("unexpected frequency payload: %v", payload)
	}

	rec, payload = doJSON(t, handler, http.MethodGet, "/api/insights/mood-over-time?days=7", token, nil)
	if rec.Code != http.StatusOK || payload["has_data"] != true {
		t.Fatalf("mood-over-time = %d %v", rec.Code, payload)
	}

	rec, payload = doJSON(t, handler, http.MethodGet, "/api/insights/mood-language", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mood-language status = %d", rec.Code)
	}
	words, ok := payload["words"].([]any)
	if !ok || len(words) != 2 {
		t.Fatalf("unexpected mood-language payload: %v", payload)
	}
}

func TestSearchEndpointUsesSessionUser(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, &fakeModel{})
	svc.search = &fakeSearch{response: search.Response{
		Results: []search.Result{{ID: "rfl_1", Snippet: "the <em>day</em>"}},
		Total:   1,
		Query:   "day",
	}}
	handler, token := authedHandler(t, svc, fs)

	rec, payload := doJSON(t, handler, http.MethodGet, "/api/search?q=day", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	if payload["total"] != float64(1) || payload["query"] != "day" {
		t.Fatalf("unexpected search payload: %v", payload)
	}
}

func TestHistoryEndpointsRoundTrip(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, &fakeModel{})
	handler, token := authedHandler(t, svc, fs)

	rec, payload := doJSON(t, handler, http.MethodPost, "/api/history", token, map[string]any{
		"raw_text":        "today kept slipping",
		"mirror_response": "You noticed it slipping.",
		"mood_word":       "paused traffic",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("missing id")
	}

	rec, payload = doJSON(t, handler, http.MethodGet, "/api/history", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	items, ok := payload["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected history: %v", payload)
	}

	rec, _ = doJSON(t, handler, http.MethodPatch, "/api/history/"+id+"/open-later", token, map[string]any{
		"revisit_at": time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("open-later status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec, payload = doJSON(t, handler, http.MethodGet, "/api/history/waiting", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("waiting status = %d", rec.Code)
	}
	if items, _ := payload["items"].([]any); len(items) != 1 {
		t.Fatalf("expected one waiting item, got %v", payload)
	}

	rec, _ = doJSON(t, handler, http.MethodPatch, "/api/history/"+id+"/mark-opened", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark-opened status = %d", rec.Code)
	}

	rec, payload = doJSON(t, handler, http.MethodGet, "/api/history/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if payload["opened_at"] == nil {
		t.Error("expected opened_at after mark-opened")
	}

	rec, _ = doJSON(t, handler, http.MethodGet, "/api/history/rfl_missing", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing reflection status = %d", rec.Code)
	}
}

func TestReflectEndpoint(t *testing.T) {
	fs := newFakeStore()
	model := &fakeModel{sections: []llm.Section{
		{Title: "What This Feels Like", Content: "heavy"},
		{Title: "A Mirror", Content: "seen"},
	}}
	svc := newTestService(fs, model)
	handler, token := authedHandler(t, svc, fs)

	rec, payload := doJSON(t, handler, http.MethodPost, "/api/reflect", token, map[string]any{
		"thought":         "everything at once",
		"reflection_mode": "direct",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reflect status = %d, body %s", rec.Code, rec.Body.String())
	}
	sections, ok := payload["sections"].([]any)
	if !ok || len(sections) != 2 {
		t.Fatalf("unexpected sections: %v", payload)
	}

	rec, _ = doJSON(t, handler, http.MethodPost, "/api/reflect", token, map[string]any{"thought": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank thought status = %d", rec.Code)
	}

	model.err = context.DeadlineExceeded
	rec, payload = doJSON(t, handler, http.MethodPost, "/api/reflect", token, map[string]any{"thought": "again"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("dead model status = %d, body %v", rec.Code, payload)
	}
}

func TestRemindersEndpoints(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, &fakeModel{reminderMsg: "Come back to this one."})
	handler, token := authedHandler(t, svc, fs)
	seedReflection(fs, "rfl_1", "usr_1", time.Now().UTC())

	rec, payload := doJSON(t, handler, http.MethodPost, "/api/remind", token, map[string]any{
		"reflection_id": "rfl_1",
		"days":          2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("remind status = %d, body %s", rec.Code, rec.Body.String())
	}
	reminderID, _ := payload["id"].(string)
	if reminderID == "" || payload["message"] != "Come back to this one." {
		t.Fatalf("unexpected reminder payload: %v", payload)
	}

	// Not due yet.
	rec, payload = doJSON(t, handler, http.MethodGet, "/api/reminders/due", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("due status = %d", rec.Code)
	}
	if items, _ := payload["items"].([]any); len(items) != 0 {
		t.Fatalf("expected no due reminders, got %v", payload)
	}

	past := fs.reminders[reminderID]
	past.RemindAt = time.Now().UTC().Add(-time.Hour)
	fs.reminders[reminderID] = past

	rec, payload = doJSON(t, handler, http.MethodGet, "/api/reminders/due", token, nil)
	if items, _ := payload["items"].([]any); rec.Code != http.StatusOK || len(items) != 1 {
		t.Fatalf("expected one due reminder, got %d %v", rec.Code, payload)
	}

	rec, _ = doJSON(t, handler, http.MethodDelete, "/api/reminders/"+reminderID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec, _ = doJSON(t, handler, http.MethodDelete, "/api/reminders/"+reminderID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestProfileEndpoints(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, &fakeModel{})
	handler, token := authedHandler(t, svc, fs)

	rec, payload := doJSON(t, handler, http.MethodGet, "/api/user/profile", token, nil)
	if rec.Code != http.StatusOK || payload["email"] != "ada@example.com" {
		t.Fatalf("profile = %d %v", rec.Code, payload)
	}

	rec, payload = doJSON(t, handler, http.MethodPatch, "/api/user/profile", token, map[string]any{
		"display_name": "Ada L.",
		"preferences":  map[string]any{"reflection_mode": "quiet"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	if payload["display_name"] != "Ada L." {
		t.Errorf("display_name = %v", payload["display_name"])
	}
	prefs, _ := payload["preferences"].(map[string]any)
	if prefs["reflection_mode"] != "quiet" {
		t.Errorf("preferences = %v", payload["preferences"])
	}

	rec, payload = doJSON(t, handler, http.MethodGet, "/api/user/reflected-today", token, nil)
	if rec.Code != http.StatusOK || payload["reflected_today"] != false {
		t.Fatalf("reflected-today = %d %v", rec.Code, payload)
	}

	seedReflection(fs, "rfl_today", "usr_1", time.Now().UTC())
	rec, payload = doJSON(t, handler, http.MethodGet, "/api/user/reflected-today", token, nil)
	if payload["reflected_today"] != true {
		t.Fatalf("reflected-today after save = %d %v", rec.Code, payload)
	}
}
