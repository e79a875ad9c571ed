package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rcliao/unit/internal/model"
)

const mergeColumns = `id, agentAId, agentBId, status, proposedAt, activatedAt, closedAt, pitch,
	sandboxId, sandboxCreatedAt, sandboxEphemeralResources, sharedArtifact, creditSplitA, creditSplitB`

// ProposeMerge opens a session in PROPOSED between two distinct agents.
func (s *SQLiteStore) ProposeMerge(ctx context.Context, p ProposeMergeParams) (*model.MergeSession, error) {
	if p.AgentAID == p.AgentBID {
		return nil, invalidState("Cannot merge with self")
	}
	if err := agentExists(ctx, s.db, p.AgentAID); err != nil {
		return nil, err
	}
	if err := agentExists(ctx, s.db, p.AgentBID); err != nil {
		return nil, err
	}

	m := &model.MergeSession{
		ID:         newID(),
		AgentAID:   p.AgentAID,
		AgentBID:   p.AgentBID,
		Status:     model.MergeProposed,
		ProposedAt: model.Now(),
		Pitch:      p.Pitch,
	}
	if err := writeMerge(ctx, s.db, m, true); err != nil {
		return nil, fmt.Errorf("insert merge session: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) GetMerge(ctx context.Context, id string) (*model.MergeSession, error) {
	return getMerge(ctx, s.db, id)
}

func getMerge(ctx context.Context, q querier, id string) (*model.MergeSession, error) {
	row := q.QueryRowContext(ctx, `SELECT `+mergeColumns+` FROM merge_sessions WHERE id = ?`, id)
	m, err := scanMerge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Merge session not found")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMerges returns every session, most recently proposed first.
func (s *SQLiteStore) ListMerges(ctx context.Context) ([]model.MergeSession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+mergeColumns+` FROM merge_sessions ORDER BY proposedAt DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MergeSession{}
	for rows.Next() {
		m, err := scanMerge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AcceptMerge moves PROPOSED to ACTIVE.
func (s *SQLiteStore) AcceptMerge(ctx context.Context, id string) (*model.MergeSession, error) {
	return s.transition(ctx, id, func(m *model.MergeSession) error {
		if m.Status != model.MergeProposed {
			return invalidState("Cannot accept non-proposed merge")
		}
		now := model.Now()
		m.Status = model.MergeActive
		m.ActivatedAt = &now
		return nil
	})
}

// RejectMerge moves PROPOSED to REJECTED, keeping the reason as a note in
// the shared artifact.
func (s *SQLiteStore) RejectMerge(ctx context.Context, id, reason string) (*model.MergeSession, error) {
	return s.transition(ctx, id, func(m *model.MergeSession) error {
		if m.Status != model.MergeProposed {
			return invalidState("Only proposed merges can be rejected")
		}
		now := model.Now()
		m.Status = model.MergeRejected
		m.ClosedAt = &now
		if reason != "" {
			m.SharedArtifact = model.RejectionNote(reason)
		}
		return nil
	})
}

// SimulateSandbox creates the session's sandbox on first call and adjusts
// its resource count afterwards. Only ACTIVE sessions have sandboxes.
func (s *SQLiteStore) SimulateSandbox(ctx context.Context, id string, resources int) (*model.MergeSession, error) {
	if resources <= 0 {
		resources = model.DefaultEphemeralResources
	}
	return s.transition(ctx, id, func(m *model.MergeSession) error {
		if m.Status != model.MergeActive {
			return invalidState("Sandbox only for active merge")
		}
		if m.Sandbox == nil {
			m.Sandbox = &model.Sandbox{
				ID:        model.SandboxID(m.ID),
				CreatedAt: model.Now(),
			}
		}
		m.Sandbox.EphemeralResources = resources
		return nil
	})
}

// CloseMerge moves ACTIVE to CLOSED with an optional artifact and credit split.
func (s *SQLiteStore) CloseMerge(ctx context.Context, id string, p CloseMergeParams) (*model.MergeSession, error) {
	return s.transition(ctx, id, func(m *model.MergeSession) error {
		if m.Status != model.MergeActive {
			return invalidState("Can only close an active merge")
		}
		now := model.Now()
		m.Status = model.MergeClosed
		m.ClosedAt = &now
		if p.SharedArtifact != "" {
			m.SharedArtifact = p.SharedArtifact
		}
		if p.CreditSplit != nil {
			split := *p.CreditSplit
			m.CreditSplit = &split
		}
		return nil
	})
}

// transition loads a session, applies fn and writes the result back in one
// transaction. When fn fails nothing is written.
func (s *SQLiteStore) transition(ctx context.Context, id string, fn func(m *model.MergeSession) error) (*model.MergeSession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m, err := getMerge(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(m); err != nil {
		return nil, err
	}
	if err := writeMerge(ctx, tx, m, false); err != nil {
		return nil, fmt.Errorf("update merge session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

func writeMerge(ctx context.Context, q querier, m *model.MergeSession, insert bool) error {
	var activatedAt, closedAt, sandboxID, sandboxCreatedAt, resources, splitA, splitB any
	if m.ActivatedAt != nil {
		activatedAt = model.FormatTime(*m.ActivatedAt)
	}
	if m.ClosedAt != nil {
		closedAt = model.FormatTime(*m.ClosedAt)
	}
	if m.Sandbox != nil {
		sandboxID = m.Sandbox.ID
		sandboxCreatedAt = model.FormatTime(m.Sandbox.CreatedAt)
		resources = m.Sandbox.EphemeralResources
	}
	if m.CreditSplit != nil {
		splitA = m.CreditSplit.AgentA
		splitB = m.CreditSplit.AgentB
	}

	if insert {
		_, err := q.ExecContext(ctx,
			`INSERT INTO merge_sessions (`+mergeColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.AgentAID, m.AgentBID, string(m.Status), model.FormatTime(m.ProposedAt),
			activatedAt, closedAt, nullString(m.Pitch), sandboxID, sandboxCreatedAt, resources,
			nullString(m.SharedArtifact), splitA, splitB)
		return err
	}
	_, err := q.ExecContext(ctx,
		`UPDATE merge_sessions SET status = ?, activatedAt = ?, closedAt = ?, sandboxId = ?,
		        sandboxCreatedAt = ?, sandboxEphemeralResources = ?, sharedArtifact = ?,
		        creditSplitA = ?, creditSplitB = ?
		 WHERE id = ?`,
		string(m.Status), activatedAt, closedAt, sandboxID, sandboxCreatedAt, resources,
		nullString(m.SharedArtifact), splitA, splitB, m.ID)
	return err
}

func scanMerge(row scanner) (model.MergeSession, error) {
	var m model.MergeSession
	var status, proposedAt string
	var activatedAt, closedAt, pitch, sandboxID, sandboxCreatedAt, artifact sql.NullString
	var resources sql.NullInt64
	var splitA, splitB sql.NullFloat64

	err := row.Scan(&m.ID, &m.AgentAID, &m.AgentBID, &status, &proposedAt, &activatedAt, &closedAt,
		&pitch, &sandboxID, &sandboxCreatedAt, &resources, &artifact, &splitA, &splitB)
	if err != nil {
		return m, err
	}

	m.Status = model.MergeStatus(status)
	m.ProposedAt = parseTime(proposedAt)
	m.ActivatedAt = parseTimePtr(activatedAt)
	m.ClosedAt = parseTimePtr(closedAt)
	m.Pitch = pitch.String
	m.SharedArtifact = artifact.String
	if sandboxID.Valid && sandboxID.String != "" {
		m.Sandbox = &model.Sandbox{
			ID:                 sandboxID.String,
			CreatedAt:          parseTime(sandboxCreatedAt.String),
			EphemeralResources: int(resources.Int64),
		}
	}
	if splitA.Valid && splitB.Valid {
		m.CreditSplit = &model.CreditSplit{AgentA: splitA.Float64, AgentB: splitB.Float64}
	}
	return m, nil
}
