package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// reflectionTSV mirrors the expression the GIN index is built over; the two
// must stay in sync or the planner falls back to a sequential scan.
const reflectionTSV = "to_tsvector('english', coalesce(raw_text, '') || ' ' || coalesce(mirror_response, ''))"

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs plainto_tsquery over the user's reflections with ts_headline
// snippets, ranked by ts_rank.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := reflectionTSV + " @@ plainto_tsquery('english', $1) AND user_id = $2"

	ctx := context.Background()

	var total int
	countSQL := "SELECT count(*) FROM reflections WHERE " + where
	if err := p.db.QueryRowContext(ctx, countSQL, q.Text, q.UserID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT id,
			ts_headline('english', coalesce(raw_text, ''), plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
			ts_headline('english', coalesce(mirror_response, ''), plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS mirror,
			coalesce(mood_word, ''),
			to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		FROM reflections
		WHERE %s
		ORDER BY ts_rank(%s, plainto_tsquery('english', $1)) DESC, created_at DESC
		LIMIT %d OFFSET %d`, where, reflectionTSV, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, q.Text, q.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Snippet, &r.Mirror, &r.MoodWord, &r.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadAllRecords returns every reflection for full reindexing into
// Meilisearch.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]ReflectionRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, raw_text, mirror_response, coalesce(mood_word, ''),
			to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		FROM reflections
	`)
	if err != nil {
		return nil, fmt.Errorf("load reflections: %w", err)
	}
	defer rows.Close()

	records := make([]ReflectionRecord, 0)
	for rows.Next() {
		var r ReflectionRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.RawText, &r.Mirror, &r.MoodWord, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reflection: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reflections: %w", err)
	}
	return records, nil
}
