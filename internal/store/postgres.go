package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// ----- Users -----

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	preferences := user.Preferences
	if len(preferences) == 0 {
		preferences = json.RawMessage(`{}`)
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, preferences, verification_token, verification_expires_at)
		VALUES ($1, LOWER($2), $3, $4, $5::jsonb, NULLIF($6, ''), $7)
		RETURNING id, created_at
	`, user.ID, user.Email, user.DisplayName, user.PasswordHash, string(preferences), user.VerificationToken, user.VerificationExpiresAt).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, userSelect+`WHERE id=$1`, userID))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, userSelect+`WHERE email=LOWER($1)`, email))
}

const userSelect = `
	SELECT id, email, display_name, password_hash, preferences::text,
	       is_email_verified, COALESCE(verification_token, ''), verification_expires_at,
	       COALESCE(reset_token, ''), reset_expires_at, created_at, updated_at
	FROM users
`

func (s *PostgresStore) scanUser(row *sql.Row) (User, error) {
	var user User
	var preferences string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&preferences,
		&user.IsEmailVerified,
		&user.VerificationToken,
		&user.VerificationExpiresAt,
		&user.ResetToken,
		&user.ResetExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	user.Preferences = json.RawMessage(preferences)
	return user, nil
}

func (s *PostgresStore) UpdateUserProfile(ctx context.Context, userID, displayName string, preferences json.RawMessage) error {
	if len(preferences) == 0 {
		preferences = json.RawMessage(`{}`)
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET display_name=$2, preferences=$3::jsonb, updated_at=NOW()
		WHERE id=$1
	`, userID, displayName, string(preferences))
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkEmailVerified(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET is_email_verified=TRUE, verification_token=NULL, verification_expires_at=NULL, updated_at=NOW()
		WHERE verification_token=$1 AND verification_expires_at > NOW()
		RETURNING id
	`, token).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *PostgresStore) SetResetToken(ctx context.Context, email, token string, expiresAt time.Time) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET reset_token=$2, reset_expires_at=$3, updated_at=NOW()
		WHERE email=LOWER($1)
		RETURNING id
	`, email, token, expiresAt).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *PostgresStore) ResetPassword(ctx context.Context, token, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash=$2, reset_token=NULL, reset_expires_at=NULL, updated_at=NOW()
		WHERE reset_token=$1 AND reset_expires_at > NOW()
	`, token, passwordHash)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset password rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ----- Refresh sessions / revoked tokens (Postgres fallback when Redis is absent) -----

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.email, u.display_name
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&user.ID, &user.Email, &user.DisplayName)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// ----- Reflections -----

func (s *PostgresStore) InsertReflection(ctx context.Context, item Reflection) (Reflection, error) {
	answers := item.Answers
	if len(answers) == 0 {
		answers = json.RawMessage(`[]`)
	}
	status := item.Status
	if status == "" {
		status = "normal"
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reflections (id, user_id, raw_text, answers, mirror_response, mood_word, status, revisit_type)
		VALUES ($1, $2, $3, $4::jsonb, $5, NULLIF($6, ''), $7, NULLIF($8, ''))
		RETURNING id, created_at
	`, item.ID, item.UserID, item.RawText, string(answers), item.MirrorResponse, item.MoodWord, status, item.RevisitType).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return Reflection{}, fmt.Errorf("insert reflection: %w", err)
	}
	item.Status = status
	return item, nil
}

const reflectionSelect = `
	SELECT id, user_id, raw_text, answers::text, mirror_response,
	       COALESCE(mood_word, ''), status, COALESCE(revisit_type, ''),
	       revisit_at, opened_at, created_at
	FROM reflections
`

func scanReflection(scan func(...any) error) (Reflection, error) {
	var item Reflection
	var answers string
	err := scan(
		&item.ID,
		&item.UserID,
		&item.RawText,
		&answers,
		&item.MirrorResponse,
		&item.MoodWord,
		&item.Status,
		&item.RevisitType,
		&item.RevisitAt,
		&item.OpenedAt,
		&item.CreatedAt,
	)
	if err != nil {
		return Reflection{}, err
	}
	item.Answers = json.RawMessage(answers)
	return item, nil
}

func (s *PostgresStore) GetReflection(ctx context.Context, reflectionID string) (Reflection, error) {
	row := s.db.QueryRowContext(ctx, reflectionSelect+`WHERE id=$1`, reflectionID)
	return scanReflection(row.Scan)
}

func (s *PostgresStore) listReflections(ctx context.Context, query string, args ...any) ([]Reflection, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	defer rows.Close()

	items := make([]Reflection, 0)
	for rows.Next() {
		item, err := scanReflection(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan reflection: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reflections: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListReflections(ctx context.Context, userID string) ([]Reflection, error) {
	return s.listReflections(ctx, reflectionSelect+`
		WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
}

func (s *PostgresStore) ListReflectionsSince(ctx context.Context, userID string, since time.Time) ([]Reflection, error) {
	return s.listReflections(ctx, reflectionSelect+`
		WHERE user_id=$1 AND created_at >= $2
		ORDER BY created_at ASC
	`, userID, since)
}

// ListReflectionsInRange returns the user's reflections with created_at in
// [from, to] inclusive, oldest first. to is a calendar day; everything up to
// the end of that day is included.
func (s *PostgresStore) ListReflectionsInRange(ctx context.Context, userID string, from, to time.Time) ([]Reflection, error) {
	return s.listReflections(ctx, reflectionSelect+`
		WHERE user_id=$1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at ASC
	`, userID, from, to.AddDate(0, 0, 1))
}

func (s *PostgresStore) CountReflectionsInRange(ctx context.Context, userID string, from, to time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reflections
		WHERE user_id=$1 AND created_at >= $2 AND created_at < $3
	`, userID, from, to.AddDate(0, 0, 1)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reflections: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListWaitingReflections(ctx context.Context, userID string) ([]Reflection, error) {
	return s.listReflections(ctx, reflectionSelect+`
		WHERE user_id=$1 AND status='waiting'
		ORDER BY created_at DESC
	`, userID)
}

func (s *PostgresStore) SetReflectionWaiting(ctx context.Context, reflectionID string, revisitAt *time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reflections SET status='waiting', revisit_at=$2 WHERE id=$1
	`, reflectionID, revisitAt)
	if err != nil {
		return false, fmt.Errorf("set reflection waiting: %w", err)
	}
	return rowsAffected(result, "set reflection waiting")
}

func (s *PostgresStore) ClearReflectionWaiting(ctx context.Context, reflectionID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reflections SET status='normal', revisit_at=NULL WHERE id=$1
	`, reflectionID)
	if err != nil {
		return false, fmt.Errorf("clear reflection waiting: %w", err)
	}
	return rowsAffected(result, "clear reflection waiting")
}

// MarkReflectionOpened sets opened_at on first view only.
func (s *PostgresStore) MarkReflectionOpened(ctx context.Context, reflectionID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reflections SET opened_at=NOW() WHERE id=$1 AND opened_at IS NULL
	`, reflectionID)
	if err != nil {
		return false, fmt.Errorf("mark reflection opened: %w", err)
	}
	return rowsAffected(result, "mark reflection opened")
}

// DeleteReflectionsBefore prunes history rows older than the cutoff,
// returning the deleted ids so callers can drop them from the search index.
// Called lazily from the waiting-list path; insight reads never prune.
func (s *PostgresStore) DeleteReflectionsBefore(ctx context.Context, userID string, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		DELETE FROM reflections WHERE user_id=$1 AND created_at < $2 RETURNING id
	`, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("prune reflections: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("prune reflections scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("prune reflections rows: %w", err)
	}
	return ids, nil
}

// ----- Mood check-ins -----

func (s *PostgresStore) InsertMoodCheckin(ctx context.Context, entry MoodEntry) (MoodEntry, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO mood_checkins (id, reflection_id, word_or_phrase, description)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id, created_at
	`, entry.ID, entry.ReflectionID, entry.WordOrPhrase, entry.Description).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return MoodEntry{}, fmt.Errorf("insert mood checkin: %w", err)
	}
	return entry, nil
}

// ListMoodEntries returns mood check-ins for the user's reflections created
// within [from, to] inclusive, oldest first.
func (s *PostgresStore) ListMoodEntries(ctx context.Context, userID string, from, to time.Time) ([]MoodEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.reflection_id, m.word_or_phrase, COALESCE(m.description, ''), m.created_at
		FROM mood_checkins m
		JOIN reflections r ON r.id = m.reflection_id
		WHERE r.user_id=$1 AND m.created_at >= $2 AND m.created_at < $3
		ORDER BY m.created_at ASC
	`, userID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	defer rows.Close()

	items := make([]MoodEntry, 0)
	for rows.Next() {
		var item MoodEntry
		if err := rows.Scan(&item.ID, &item.ReflectionID, &item.WordOrPhrase, &item.Description, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mood entry: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mood entries: %w", err)
	}
	return items, nil
}

// ----- Revisit reminders -----

func (s *PostgresStore) InsertReminder(ctx context.Context, reminder RevisitReminder) (RevisitReminder, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO revisit_reminders (id, reflection_id, remind_at, message)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id, created_at
	`, reminder.ID, reminder.ReflectionID, reminder.RemindAt, reminder.Message).
		Scan(&reminder.ID, &reminder.CreatedAt)
	if err != nil {
		return RevisitReminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	return reminder, nil
}

func (s *PostgresStore) DeleteReminder(ctx context.Context, reminderID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM revisit_reminders WHERE id=$1`, reminderID)
	if err != nil {
		return false, fmt.Errorf("delete reminder: %w", err)
	}
	return rowsAffected(result, "delete reminder")
}

func (s *PostgresStore) ListDueReminders(ctx context.Context, userID string, now time.Time) ([]RevisitReminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rr.id, rr.reflection_id, rr.remind_at, COALESCE(rr.message, ''), rr.created_at
		FROM revisit_reminders rr
		JOIN reflections r ON r.id = rr.reflection_id
		WHERE r.user_id=$1 AND rr.remind_at <= $2
		ORDER BY rr.remind_at ASC
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	defer rows.Close()

	items := make([]RevisitReminder, 0)
	for rows.Next() {
		var item RevisitReminder
		if err := rows.Scan(&item.ID, &item.ReflectionID, &item.RemindAt, &item.Message, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}
	return items, nil
}

// ----- Insight letters (the letter cache) -----

const letterSelect = `
	SELECT id, user_id, to_char(period_start, 'YYYY-MM-DD'), to_char(period_end, 'YYYY-MM-DD'),
	       content, reflection_count, created_at
	FROM insight_letters
`

func (s *PostgresStore) GetInsightLetter(ctx context.Context, userID, periodStart string) (InsightLetter, error) {
	var item InsightLetter
	err := s.db.QueryRowContext(ctx, letterSelect+`WHERE user_id=$1 AND period_start=$2::date`, userID, periodStart).
		Scan(&item.ID, &item.UserID, &item.PeriodStart, &item.PeriodEnd, &item.Content, &item.ReflectionCount, &item.CreatedAt)
	if err != nil {
		return InsightLetter{}, err
	}
	return item, nil
}

// InsertLetterIfAbsent writes the letter unless a row for (user_id,
// period_start) already exists, in which case the existing row wins and is
// returned. The uniqueness constraint is the only arbiter: no pre-check, so
// concurrent writers across process instances converge on one row.
func (s *PostgresStore) InsertLetterIfAbsent(ctx context.Context, letter InsightLetter) (InsightLetter, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO insight_letters (id, user_id, period_start, period_end, content, reflection_count)
		VALUES ($1, $2, $3::date, $4::date, $5, $6)
		ON CONFLICT (user_id, period_start) DO NOTHING
		RETURNING id, created_at
	`, letter.ID, letter.UserID, letter.PeriodStart, letter.PeriodEnd, letter.Content, letter.ReflectionCount).
		Scan(&letter.ID, &letter.CreatedAt)
	if err == nil {
		return letter, nil
	}
	if !errors.Is(err, sql.ErrNoRows) && !isUniqueViolation(err) {
		return InsightLetter{}, fmt.Errorf("insert insight letter: %w", err)
	}
	// Conflict: someone else won. Their letter is the letter.
	existing, err := s.GetInsightLetter(ctx, letter.UserID, letter.PeriodStart)
	if err != nil {
		return InsightLetter{}, fmt.Errorf("reread insight letter after conflict: %w", err)
	}
	return existing, nil
}

func (s *PostgresStore) DeleteInsightLetter(ctx context.Context, userID, periodStart string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM insight_letters WHERE user_id=$1 AND period_start=$2::date
	`, userID, periodStart)
	if err != nil {
		return false, fmt.Errorf("delete insight letter: %w", err)
	}
	return rowsAffected(result, "delete insight letter")
}

// ----- Helpers -----

var ErrEmailExists = errors.New("email already registered")

func rowsAffected(result sql.Result, op string) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows: %w", op, err)
	}
	return affected > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
