package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rcliao/unit/internal/model"
)

const agentColumns = `id, handle, coreModel, parameterCount, apiStatus, badges, flair,
	profile, llmModel, createdAt, updatedAt`

func (s *SQLiteStore) CreateAgent(ctx context.Context, p CreateAgentParams) (*model.Agent, error) {
	now := model.Now()
	status := p.APIStatus
	if status == "" {
		status = model.APIStatusOpen
	}
	coreModel := p.CoreModel
	if coreModel == "" {
		coreModel = model.CoreModelOther
	}
	a := &model.Agent{
		ID:             newID(),
		Handle:         p.Handle,
		CoreModel:      coreModel,
		ParameterCount: p.ParameterCount,
		APIStatus:      status,
		Badges:         nonNil(p.Badges),
		Flair:          nonNil(p.Flair),
		Profile:        p.Profile,
		LLMModel:       p.LLMModel,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (`+agentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Handle, string(a.CoreModel), a.ParameterCount, string(a.APIStatus),
		marshalStrings(a.Badges), marshalStrings(a.Flair),
		nullString(a.Profile), nullString(a.LLMModel),
		model.FormatTime(now), model.FormatTime(now))
	if isUniqueViolation(err) {
		return nil, duplicate(fmt.Sprintf("Handle %q is already taken", p.Handle))
	}
	if err != nil {
		return nil, fmt.Errorf("insert agent: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) GetAgent(ctx context.Context, id string) (*model.Agent, error) {
	return getAgent(ctx, s.db, id)
}

func getAgent(ctx context.Context, q querier, id string) (*model.Agent, error) {
	row := q.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)
	a, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Agent not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// agentExists returns a not-found error when id is not a registered agent.
func agentExists(ctx context.Context, q querier, id string) error {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM agents WHERE id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return notFound("Agent not found")
	}
	return nil
}

// ListAgents returns every agent, newest first.
func (s *SQLiteStore) ListAgents(ctx context.Context) ([]model.Agent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY createdAt DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := []model.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (s *SQLiteStore) UpdateAgentStatus(ctx context.Context, id string, status model.APIStatus) (*model.Agent, error) {
	now := model.Now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE agents SET apiStatus = ?, updatedAt = ? WHERE id = ?`,
		string(status), model.FormatTime(now), id)
	if err != nil {
		return nil, fmt.Errorf("update agent status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFound("Agent not found")
	}
	return s.GetAgent(ctx, id)
}

// UpdateAgentProfile patches profile and/or llmModel. Empty values are ignored.
func (s *SQLiteStore) UpdateAgentProfile(ctx context.Context, id string, p UpdateProfileParams) (*model.Agent, error) {
	set := "updatedAt = ?"
	args := []any{model.FormatTime(model.Now())}
	if p.Profile != nil && *p.Profile != "" {
		set += ", profile = ?"
		args = append(args, *p.Profile)
	}
	if p.LLMModel != nil && *p.LLMModel != "" {
		set += ", llmModel = ?"
		args = append(args, *p.LLMModel)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE agents SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update agent profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFound("Agent not found")
	}
	return s.GetAgent(ctx, id)
}

// AgentHandles maps agent id to handle for every agent.
func (s *SQLiteStore) AgentHandles(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, handle FROM agents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	handles := make(map[string]string)
	for rows.Next() {
		var id, handle string
		if err := rows.Scan(&id, &handle); err != nil {
			return nil, err
		}
		handles[id] = handle
	}
	return handles, rows.Err()
}

func scanAgent(row scanner) (model.Agent, error) {
	var a model.Agent
	var coreModel, status, badges, flair, createdAt, updatedAt string
	var profile, llmModel sql.NullString

	err := row.Scan(&a.ID, &a.Handle, &coreModel, &a.ParameterCount, &status,
		&badges, &flair, &profile, &llmModel, &createdAt, &updatedAt)
	if err != nil {
		return a, err
	}

	a.CoreModel = model.CoreModel(coreModel)
	a.APIStatus = model.APIStatus(status)
	a.Badges = unmarshalStrings(badges)
	a.Flair = unmarshalStrings(flair)
	a.Profile = profile.String
	a.LLMModel = llmModel.String
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
