package store

import (
	"context"
	"database/sql"
	"fmt"
)

type eventRepo struct {
	db *sql.DB
}

var _ EventRepo = (*eventRepo)(nil)

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO llm_events
			(provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message, request_body, response_body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs,
		boolToInt(data.Success), data.ErrorMessage,
		data.RequestBody, data.ResponseBody)
	if err != nil {
		return fmt.Errorf("append llm event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendMissionEvent(ctx context.Context, data MissionEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mission_events (player_id, session_id, kind, difficulty, detail)
		 VALUES (?, ?, ?, ?, ?)`,
		data.PlayerID, data.SessionID, data.Kind, data.Difficulty, data.Detail)
	if err != nil {
		return fmt.Errorf("append mission event: %w", err)
	}
	return nil
}

func (r *eventRepo) MissionCounts(ctx context.Context, playerID string) (MissionCounts, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM mission_events WHERE player_id = ? GROUP BY kind`,
		playerID)
	if err != nil {
		return MissionCounts{}, fmt.Errorf("query mission counts: %w", err)
	}
	defer rows.Close()

	var counts MissionCounts
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return MissionCounts{}, fmt.Errorf("scan mission count: %w", err)
		}
		switch kind {
		case MissionStarted:
			counts.Started = n
		case MissionCompleted:
			counts.Completed = n
		case MissionFailed:
			counts.Failed = n
		}
	}
	return counts, rows.Err()
}

func (r *eventRepo) RecentMissionEvents(ctx context.Context, playerID string, limit int) ([]MissionEventRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, player_id, session_id, kind, difficulty, detail, created_at
		 FROM mission_events WHERE player_id = ?
		 ORDER BY id DESC LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query mission events: %w", err)
	}
	defer rows.Close()

	var out []MissionEventRecord
	for rows.Next() {
		var rec MissionEventRecord
		if err := rows.Scan(&rec.ID, &rec.PlayerID, &rec.SessionID, &rec.Kind,
			&rec.Difficulty, &rec.Detail, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan mission event: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, provider, model, purpose, input_tokens, output_tokens,
			latency_ms, success, error_message, created_at
		FROM llm_events`
	args := []any{}
	if opts.Purpose != "" {
		query += ` WHERE purpose = ?`
		args = append(args, opts.Purpose)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query llm events: %w", err)
	}
	defer rows.Close()

	var out []LLMEventRecord
	for rows.Next() {
		var rec LLMEventRecord
		var success int
		if err := rows.Scan(&rec.ID, &rec.Provider, &rec.Model, &rec.Purpose,
			&rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs,
			&success, &rec.ErrorMessage, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan llm event: %w", err)
		}
		rec.Success = success != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMEventRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, provider, model, purpose, input_tokens, output_tokens,
			latency_ms, success, error_message, request_body, response_body, created_at
		 FROM llm_events WHERE id = ?`, id)

	var rec LLMEventRecord
	var success int
	err := row.Scan(&rec.ID, &rec.Provider, &rec.Model, &rec.Purpose,
		&rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs,
		&success, &rec.ErrorMessage, &rec.RequestBody, &rec.ResponseBody,
		&rec.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get llm event: %w", err)
	}
	rec.Success = success != 0
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
