package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"reflect/api/internal/analytics"
	"reflect/api/internal/auth"
	"reflect/api/internal/authpw"
	"reflect/api/internal/config"
	"reflect/api/internal/email"
	"reflect/api/internal/insight"
	"reflect/api/internal/llm"
	"reflect/api/internal/mood"
	"reflect/api/internal/search"
	"reflect/api/internal/store"
	"reflect/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Email        string
	DisplayName  string
	JTI          string
	ExpiresAt    time.Time
}

type SaveReflectionInput struct {
	RawText        string          `json:"raw_text"`
	Answers        json.RawMessage `json:"answers"`
	MirrorResponse string          `json:"mirror_response"`
	MoodWord       string          `json:"mood_word"`
	RevisitType    string          `json:"revisit_type"`
}

var allowedRevisitTypes = map[string]struct{}{
	"come_back": {},
	"remind":    {},
}

var allowedReflectionModes = map[string]struct{}{
	"gentle": {},
	"direct": {},
	"quiet":  {},
}

// savedReflectionTTL bounds how long waiting reflections linger before the
// waiting-list read prunes them.
const savedReflectionTTL = 7 * 24 * time.Hour

type dataStore interface {
	GetUserByID(context.Context, string) (store.User, error)
	UpdateUserProfile(context.Context, string, string, json.RawMessage) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	InsertReflection(context.Context, store.Reflection) (store.Reflection, error)
	GetReflection(context.Context, string) (store.Reflection, error)
	ListReflections(context.Context, string) ([]store.Reflection, error)
	ListReflectionsSince(context.Context, string, time.Time) ([]store.Reflection, error)
	ListWaitingReflections(context.Context, string) ([]store.Reflection, error)
	SetReflectionWaiting(context.Context, string, *time.Time) (bool, error)
	ClearReflectionWaiting(context.Context, string) (bool, error)
	MarkReflectionOpened(context.Context, string) (bool, error)
	DeleteReflectionsBefore(context.Context, string, time.Time) ([]string, error)
	InsertMoodCheckin(context.Context, store.MoodEntry) (store.MoodEntry, error)
	InsertReminder(context.Context, store.RevisitReminder) (store.RevisitReminder, error)
	DeleteReminder(context.Context, string) (bool, error)
	ListDueReminders(context.Context, string, time.Time) ([]store.RevisitReminder, error)
	Ping(ctx context.Context) error
}

// SessionStore holds refresh tokens. Redis serves it in production; the
// Postgres store covers deployments without Redis.
type SessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type letterEngine interface {
	LetterForLastPeriod(ctx context.Context, userID string) (insight.Result, error)
	Regenerate(ctx context.Context, userID string) (insight.Result, error)
}

type analyticsViews interface {
	FrequencyByDay(ctx context.Context, userID string, days int) ([]analytics.DayCount, error)
	MoodOverTime(ctx context.Context, userID string, days int) (analytics.MoodTimeline, error)
	MoodLanguage(ctx context.Context, userID string, days int) ([]string, error)
}

type historySearch interface {
	Search(q search.Query) search.Response
	IndexReflection(record search.ReflectionRecord)
	DeleteReflection(id string)
}

type mailer interface {
	IsConfigured() bool
	SendVerificationEmail(to, userName, verificationURL string) error
	SendPasswordResetEmail(to, userName, resetURL string) error
	SendLetterReadyEmail(to, userName, letterURL string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions SessionStore
	accounts *authpw.Service
	model    llm.Client
	letters  letterEngine
	views    analyticsViews
	search   historySearch
	mail     mailer
}

func New(cfg config.Config, dataStore *store.PostgresStore, model llm.Client, searchService *search.Service, mail *email.Service) *Service {
	return NewWithSessionStore(cfg, dataStore, dataStore, model, searchService, mail)
}

func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions SessionStore, model llm.Client, searchService *search.Service, mail *email.Service) *Service {
	svc := &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		accounts: authpw.NewService(dataStore),
		model:    model,
		letters:  insight.NewGenerator(dataStore, model, cfg.LLMTimeout),
		views:    analytics.NewService(dataStore, mood.NewNormalizer(model)),
		search:   searchService,
	}
	if mail != nil {
		svc.mail = mail
	}
	return svc
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.accounts
}

func (s *Service) SMTPConfigured() bool {
	return s.mail != nil && s.mail.IsConfigured()
}

// SendVerificationEmail delivers the signup verification link, best effort.
func (s *Service) SendVerificationEmail(to, displayName, token string) {
	if !s.SMTPConfigured() {
		return
	}
	url := s.cfg.AppBaseURL + "/verify-email?token=" + token
	if err := s.mail.SendVerificationEmail(to, displayName, url); err != nil {
		log.Printf("verification email to %s failed: %v", to, err)
	}
}

// SendPasswordResetEmail delivers the reset link, best effort.
func (s *Service) SendPasswordResetEmail(to, displayName, token string) {
	if !s.SMTPConfigured() {
		return
	}
	url := s.cfg.AppBaseURL + "/reset-password?token=" + token
	if err := s.mail.SendPasswordResetEmail(to, displayName, url); err != nil {
		log.Printf("password reset email to %s failed: %v", to, err)
	}
}

func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	// The Redis record carries only the user ID; load the rest fresh.
	full, err := s.store.GetUserByID(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, full)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:       token,
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		JTI:         claims.JTI,
		ExpiresAt:   time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Reflect turns a raw thought into the titled sections the client renders.
// This is the one flow where a dead model surfaces to the user; everything
// downstream degrades to fixed fallbacks instead.
func (s *Service) Reflect(ctx context.Context, thought, mode string) (map[string]any, error) {
	thought = strings.TrimSpace(thought)
	if thought == "" {
		return nil, domainError(http.StatusBadRequest, "INVALID_BODY", "thought is required", nil)
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	if _, ok := allowedReflectionModes[mode]; !ok {
		mode = "gentle"
	}

	sections, err := s.model.Reflect(ctx, thought, mode)
	if err != nil {
		return nil, llmError(err)
	}
	return map[string]any{"sections": sections}, nil
}

func (s *Service) PersonalizedMirror(ctx context.Context, thought string, questions, answers []string) (map[string]any, error) {
	thought = strings.TrimSpace(thought)
	if thought == "" {
		return nil, domainError(http.StatusBadRequest, "INVALID_BODY", "thought is required", nil)
	}
	content, err := s.model.PersonalizedMirror(ctx, thought, questions, answers)
	if err != nil {
		return nil, llmError(err)
	}
	return map[string]any{"content": content}, nil
}

func (s *Service) MoodSuggestions(ctx context.Context, thought, mirrorText string) (map[string]any, error) {
	suggestions, err := s.model.MoodSuggestions(ctx, strings.TrimSpace(thought), strings.TrimSpace(mirrorText))
	if err != nil {
		log.Printf("mood suggestions failed, serving fallback: %v", err)
		suggestions = llm.MoodSuggestionsFallback
	}
	return map[string]any{"suggestions": suggestions}, nil
}

func (s *Service) SaveReflection(ctx context.Context, userID string, input SaveReflectionInput) (map[string]any, error) {
	rawText := strings.TrimSpace(input.RawText)
	if rawText == "" {
		return nil, domainError(http.StatusBadRequest, "INVALID_BODY", "raw_text is required", nil)
	}
	mirror := strings.TrimSpace(input.MirrorResponse)
	if mirror == "" {
		return nil, domainError(http.StatusBadRequest, "INVALID_BODY", "mirror_response is required", nil)
	}

	revisit := strings.TrimSpace(input.RevisitType)
	if _, ok := allowedRevisitTypes[revisit]; !ok {
		revisit = ""
	}

	saved, err := s.store.InsertReflection(ctx, store.Reflection{
		ID:             util.NewID("rfl"),
		UserID:         userID,
		RawText:        rawText,
		Answers:        input.Answers,
		MirrorResponse: mirror,
		MoodWord:       strings.TrimSpace(input.MoodWord),
		RevisitType:    revisit,
	})
	if err != nil {
		return nil, err
	}

	s.search.IndexReflection(search.ReflectionRecord{
		ID:        saved.ID,
		UserID:    saved.UserID,
		RawText:   saved.RawText,
		Mirror:    saved.MirrorResponse,
		MoodWord:  saved.MoodWord,
		CreatedAt: saved.CreatedAt.UTC().Format(time.RFC3339),
	})

	return map[string]any{"id": saved.ID}, nil
}

func (s *Service) ListHistory(ctx context.Context, userID string) (map[string]any, error) {
	items, err := s.store.ListReflections(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"items": reflectionItems(items)}, nil
}

// ListWaitingHistory returns open-later reflections, pruning any saved rows
// the user never came back to within the retention window.
func (s *Service) ListWaitingHistory(ctx context.Context, userID string) (map[string]any, error) {
	cutoff := time.Now().UTC().Add(-savedReflectionTTL)
	if pruned, err := s.store.DeleteReflectionsBefore(ctx, userID, cutoff); err != nil {
		log.Printf("waiting-list prune for %s failed: %v", userID, err)
	} else if len(pruned) > 0 {
		for _, id := range pruned {
			s.search.DeleteReflection(id)
		}
		log.Printf("pruned %d stale reflections for %s", len(pruned), userID)
	}

	items, err := s.store.ListWaitingReflections(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"items": reflectionItems(items)}, nil
}

func (s *Service) GetReflection(ctx context.Context, userID, reflectionID string) (map[string]any, error) {
	item, err := s.ownedReflection(ctx, userID, reflectionID)
	if err != nil {
		return nil, err
	}
	return reflectionItem(item), nil
}

func (s *Service) OpenLater(ctx context.Context, userID, reflectionID string, revisitAt *time.Time) error {
	if _, err := s.ownedReflection(ctx, userID, reflectionID); err != nil {
		return err
	}
	ok, err := s.store.SetReflectionWaiting(ctx, reflectionID, revisitAt)
	if err != nil {
		return err
	}
	if !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Service) RemoveOpenLater(ctx context.Context, userID, reflectionID string) error {
	if _, err := s.ownedReflection(ctx, userID, reflectionID); err != nil {
		return err
	}
	ok, err := s.store.ClearReflectionWaiting(ctx, reflectionID)
	if err != nil {
		return err
	}
	if !ok {
		return sql.ErrNoRows
	}
	return nil
}

// MarkOpened stamps opened_at the first time the user views a saved
// reflection. Later calls are accepted and leave the stamp alone.
func (s *Service) MarkOpened(ctx context.Context, userID, reflectionID string) error {
	if _, err := s.ownedReflection(ctx, userID, reflectionID); err != nil {
		return err
	}
	if _, err := s.store.MarkReflectionOpened(ctx, reflectionID); err != nil {
		return err
	}
	return nil
}

func (s *Service) ReflectedToday(ctx context.Context, userID string) (map[string]any, error) {
	year, month, day := time.Now().UTC().Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	items, err := s.store.ListReflectionsSince(ctx, userID, midnight)
	if err != nil {
		return nil, err
	}
	return map[string]any{"reflected_today": len(items) > 0}, nil
}

func (s *Service) RecordMood(ctx context.Context, userID, reflectionID, wordOrPhrase, description string) (map[string]any, error) {
	wordOrPhrase = strings.TrimSpace(wordOrPhrase)
	if wordOrPhrase == "" {
		return nil, domainError(http.StatusBadRequest, "INVALID_BODY", "word_or_phrase is required", nil)
	}
	if _, err := s.ownedReflection(ctx, userID, reflectionID); err != nil {
		return nil, err
	}

	entry, err := s.store.InsertMoodCheckin(ctx, store.MoodEntry{
		ID:           util.NewID("mood"),
		ReflectionID: reflectionID,
		WordOrPhrase: wordOrPhrase,
		Description:  strings.TrimSpace(description),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": entry.ID}, nil
}

// CreateReminder schedules a revisit nudge 1-7 days out. The model only
// helps with wording; scheduling is plain arithmetic and a dead model
// degrades to the fixed reminder text.
func (s *Service) CreateReminder(ctx context.Context, userID, reflectionID string, days int) (map[string]any, error) {
	reflection, err := s.ownedReflection(ctx, userID, reflectionID)
	if err != nil {
		return nil, err
	}
	if days < 1 {
		days = 1
	}
	if days > 7 {
		days = 7
	}
	remindAt := time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour)

	mirrorSnippet := reflection.MirrorResponse
	if len(mirrorSnippet) > 200 {
		mirrorSnippet = mirrorSnippet[:200]
	}
	message, err := s.model.ReminderMessage(ctx, reflection.RawText, mirrorSnippet)
	if err != nil {
		log.Printf("reminder wording failed, using fallback: %v", err)
		message = llm.ReminderFallback
	}

	reminder, err := s.store.InsertReminder(ctx, store.RevisitReminder{
		ID:           util.NewID("rem"),
		ReflectionID: reflectionID,
		RemindAt:     remindAt,
		Message:      message,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":        reminder.ID,
		"remind_at": reminder.RemindAt.Format(time.RFC3339),
		"message":   reminder.Message,
	}, nil
}

func (s *Service) DeleteReminder(ctx context.Context, reminderID string) error {
	ok, err := s.store.DeleteReminder(ctx, reminderID)
	if err != nil {
		return err
	}
	if !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Service) DueReminders(ctx context.Context, userID string) (map[string]any, error) {
	reminders, err := s.store.ListDueReminders(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(reminders))
	for _, reminder := range reminders {
		items = append(items, map[string]any{
			"id":            reminder.ID,
			"reflection_id": reminder.ReflectionID,
			"remind_at":     reminder.RemindAt.Format(time.RFC3339),
			"message":       reminder.Message,
		})
	}
	return map[string]any{"items": items}, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profilePayload(user), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, displayName *string, preferences json.RawMessage) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := user.DisplayName
	if displayName != nil {
		name = strings.TrimSpace(*displayName)
	}
	prefs := user.Preferences
	if preferences != nil {
		prefs = preferences
	}

	if err := s.store.UpdateUserProfile(ctx, userID, name, prefs); err != nil {
		return nil, err
	}
	updated, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profilePayload(updated), nil
}

// InsightLetter returns the letter for the most recent complete period,
// generating it on first read. Never a model error to the caller.
func (s *Service) InsightLetter(ctx context.Context, userID string) (map[string]any, error) {
	result, err := s.letters.LetterForLastPeriod(ctx, userID)
	if err != nil {
		return nil, err
	}
	if result.State == insight.StateGenerated {
		s.notifyLetterReady(ctx, userID)
	}
	return letterPayload(result), nil
}

// notifyLetterReady emails the user the first time a period's letter is
// written, best effort. Cache hits and regenerations stay quiet.
func (s *Service) notifyLetterReady(ctx context.Context, userID string) {
	if !s.SMTPConfigured() {
		return
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return
	}
	url := s.cfg.AppBaseURL + "/insights"
	if err := s.mail.SendLetterReadyEmail(user.Email, user.DisplayName, url); err != nil {
		log.Printf("letter ready email to %s failed: %v", user.Email, err)
	}
}

// RegenerateLetter discards the cached letter and writes a fresh one.
func (s *Service) RegenerateLetter(ctx context.Context, userID string) (map[string]any, error) {
	result, err := s.letters.Regenerate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return letterPayload(result), nil
}

func (s *Service) ReflectionFrequency(ctx context.Context, userID string, days int) (map[string]any, error) {
	buckets, err := s.views.FrequencyByDay(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	return map[string]any{"days": buckets}, nil
}

func (s *Service) MoodOverTime(ctx context.Context, userID string, days int) (map[string]any, error) {
	timeline, err := s.views.MoodOverTime(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	return map[string]any{"has_data": timeline.HasData, "moods": timeline.Moods}, nil
}

func (s *Service) MoodLanguage(ctx context.Context, userID string, days int) (map[string]any, error) {
	words, err := s.views.MoodLanguage(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	return map[string]any{"words": words}, nil
}

func (s *Service) SearchHistory(ctx context.Context, userID, text string, limit, offset int) map[string]any {
	response := s.search.Search(search.Query{
		UserID: userID,
		Text:   text,
		Limit:  limit,
		Offset: offset,
	})
	return map[string]any{
		"results": response.Results,
		"total":   response.Total,
		"query":   response.Query,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ownedReflection loads a reflection and hides rows belonging to other users
// behind the same not-found error a missing row produces.
func (s *Service) ownedReflection(ctx context.Context, userID, reflectionID string) (store.Reflection, error) {
	reflectionID = strings.TrimSpace(reflectionID)
	if reflectionID == "" {
		return store.Reflection{}, domainError(http.StatusBadRequest, "INVALID_BODY", "reflection_id is required", nil)
	}
	reflection, err := s.store.GetReflection(ctx, reflectionID)
	if err != nil {
		return store.Reflection{}, err
	}
	if reflection.UserID != userID {
		return store.Reflection{}, sql.ErrNoRows
	}
	return reflection, nil
}

func reflectionItems(items []store.Reflection) []map[string]any {
	payload := make([]map[string]any, 0, len(items))
	for _, item := range items {
		payload = append(payload, reflectionItem(item))
	}
	return payload
}

func reflectionItem(item store.Reflection) map[string]any {
	answers := item.Answers
	if len(answers) == 0 {
		answers = json.RawMessage(`[]`)
	}
	payload := map[string]any{
		"id":              item.ID,
		"raw_text":        item.RawText,
		"answers":         answers,
		"mirror_response": item.MirrorResponse,
		"mood_word":       item.MoodWord,
		"status":          item.Status,
		"revisit_type":    item.RevisitType,
		"created_at":      item.CreatedAt.Format(time.RFC3339),
	}
	if item.RevisitAt != nil {
		payload["revisit_at"] = item.RevisitAt.Format(time.RFC3339)
	}
	if item.OpenedAt != nil {
		payload["opened_at"] = item.OpenedAt.Format(time.RFC3339)
	}
	return payload
}

func profilePayload(user store.User) map[string]any {
	preferences := user.Preferences
	if len(preferences) == 0 {
		preferences = json.RawMessage(`{}`)
	}
	return map[string]any{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"preferences":  preferences,
	}
}

func letterPayload(result insight.Result) map[string]any {
	if result.TooEarly() {
		return map[string]any{
			"content":          nil,
			"period_start":     result.PeriodStart,
			"period_end":       result.PeriodEnd,
			"reflection_count": 0,
			"too_early":        true,
			"days_remaining":   result.DaysRemaining,
			"message":          result.Message,
		}
	}
	return map[string]any{
		"content":          result.Content,
		"period_start":     result.PeriodStart,
		"period_end":       result.PeriodEnd,
		"reflection_count": result.ReflectionCount,
		"too_early":        false,
	}
}

func llmError(err error) *DomainError {
	return domainError(http.StatusBadGateway, "LLM_UNAVAILABLE", friendlyModelError(err), nil)
}

// friendlyModelError translates transport-level model failures into text the
// client can show directly.
func friendlyModelError(err error) string {
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "connect") || strings.Contains(text, "refused"):
		return "The reflection model is not reachable. Start Ollama and load a model, then try again."
	case strings.Contains(text, "timeout") || strings.Contains(text, "timed out") || errors.Is(err, context.DeadlineExceeded):
		return "The reflection model took too long to respond. Try again in a moment."
	case strings.Contains(text, "not found") || strings.Contains(text, "404"):
		return "The configured model was not found. Check the model name and pull it first."
	default:
		return fmt.Sprintf("Reflection service error: %v", err)
	}
}
