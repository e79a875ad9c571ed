package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rcliao/unit/internal/model"
)

// DefaultHistoryLimit bounds agent history queries when no limit is given.
const DefaultHistoryLimit = 100

const agentInteractionColumns = `id, agentId, timestamp, iteration, prompt, reasoning, action, result, final`

// LogAgentInteraction appends one agent-runner step and returns its row id.
func (s *SQLiteStore) LogAgentInteraction(ctx context.Context, p LogAgentInteractionParams) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO agent_interactions (agentId, timestamp, iteration, prompt, reasoning, action, result, final)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.AgentID, p.Timestamp, p.Iteration, p.Prompt, nullString(p.Reasoning),
		p.Action, p.Result, nullString(p.Final))
	if isForeignKeyViolation(err) {
		return 0, notFound("Agent not found")
	}
	if err != nil {
		return 0, fmt.Errorf("insert agent interaction: %w", err)
	}
	return res.LastInsertId()
}

// ListAgentInteractions returns an agent's logged steps, newest first.
func (s *SQLiteStore) ListAgentInteractions(ctx context.Context, agentID string, limit int) ([]model.AgentInteraction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+agentInteractionColumns+` FROM agent_interactions
		 WHERE agentId = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AgentInteraction{}
	for rows.Next() {
		ai, err := scanAgentInteraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ai)
	}
	return out, rows.Err()
}

func scanAgentInteraction(row scanner, extra ...any) (model.AgentInteraction, error) {
	var ai model.AgentInteraction
	var reasoning, final sql.NullString

	dest := []any{&ai.ID, &ai.AgentID, &ai.Timestamp, &ai.Iteration, &ai.Prompt,
		&reasoning, &ai.Action, &ai.Result, &final}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return ai, err
	}
	ai.Reasoning = reasoning.String
	ai.Final = final.String
	return ai, nil
}
