// Package search finds past reflections by text. Meilisearch serves queries
// when configured and reachable; Postgres full-text search is the fallback,
// so history search keeps working with no extra infrastructure.
package search

// Result is a single reflection hit returned to the caller.
type Result struct {
	ID        string `json:"id"`
	Snippet   string `json:"snippet"`
	Mirror    string `json:"mirror,omitempty"`
	MoodWord  string `json:"moodWord,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Query describes a history search request. UserID is mandatory; a user only
// ever searches their own reflections.
type Query struct {
	UserID string
	Text   string
	Limit  int
	Offset int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over reflections.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// ReflectionRecord is the data indexed per reflection.
type ReflectionRecord struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	RawText   string `json:"rawText"`
	Mirror    string `json:"mirror"`
	MoodWord  string `json:"moodWord"`
	CreatedAt string `json:"createdAt"`
}
