// Package memory is the best-effort recall collaborator: it stores short
// free-text entries per player and returns the ones most relevant to a
// query. Relevance is token overlap over the player's stored strings; no
// correctness guarantee is offered or needed.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// maxScanRows caps how many stored entries a single query scores.
const maxScanRows = 512

// Recall stores and retrieves per-player memory snippets.
type Recall struct {
	db *sql.DB
}

// New creates a Recall store on the given database, creating its table if
// missing.
func New(db *sql.DB) (*Recall, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS memories (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		player_id  TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("create memories table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_memories_player
		ON memories (player_id, id)`)
	if err != nil {
		return nil, fmt.Errorf("create memories index: %w", err)
	}
	return &Recall{db: db}, nil
}

// Store saves one entry for the player. Blank entries are dropped.
func (r *Recall) Store(ctx context.Context, playerID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memories (player_id, content) VALUES (?, ?)`, playerID, text)
	if err != nil {
		return fmt.Errorf("store memory: %w", err)
	}
	return nil
}

// Query returns up to limit stored entries ranked by token overlap with the
// query text, most relevant first. Ties break toward newer entries.
func (r *Recall) Query(ctx context.Context, playerID, query string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, content FROM memories WHERE player_id = ?
		 ORDER BY id DESC LIMIT ?`, playerID, maxScanRows)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	type scored struct {
		id      int64
		content string
		score   int
	}
	var candidates []scored
	for rows.Next() {
		var s scored
		if err := rows.Scan(&s.id, &s.content); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		s.score = overlap(queryTokens, tokenize(s.content))
		if s.score > 0 {
			candidates = append(candidates, s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id > candidates[j].id
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.content
	}
	return out, nil
}

// Clear deletes every entry for the player.
func (r *Recall) Clear(ctx context.Context, playerID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM memories WHERE player_id = ?`, playerID)
	if err != nil {
		return fmt.Errorf("clear memories: %w", err)
	}
	return nil
}

// tokenize lower-cases and splits on non-alphanumeric runes, dropping
// one-character tokens.
func tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(tok) > 1 {
			out[tok] = true
		}
	}
	return out
}

func overlap(a, b map[string]bool) int {
	n := 0
	for tok := range a {
		if b[tok] {
			n++
		}
	}
	return n
}
