package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rcliao/unit/internal/model"
)

const unitColumns = `id, name, slug, description, visibility, inviteCode, createdAt`

// CreateUnit inserts a unit and its initial members in one transaction. If
// any member cannot be added nothing is written.
func (s *SQLiteStore) CreateUnit(ctx context.Context, p CreateUnitParams) (*model.Unit, error) {
	visibility := p.Visibility
	if visibility == "" {
		visibility = model.VisibilityOpen
	}
	now := model.Now()
	u := &model.Unit{
		ID:             newID(),
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Visibility:     visibility,
		InviteCode:     p.InviteCode,
		MemberAgentIDs: []string{},
		CreatedAt:      now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO units (`+unitColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Slug, u.Description, string(u.Visibility), nullString(u.InviteCode),
		model.FormatTime(now))
	if isUniqueViolation(err) {
		return nil, duplicate(fmt.Sprintf("Slug %q is already taken", p.Slug))
	}
	if err != nil {
		return nil, fmt.Errorf("insert unit: %w", err)
	}

	seen := make(map[string]bool, len(p.MemberAgentIDs))
	for _, agentID := range p.MemberAgentIDs {
		if seen[agentID] {
			continue
		}
		seen[agentID] = true
		if err := agentExists(ctx, tx, agentID); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO unit_members (unitId, agentId, joinedAt) VALUES (?, ?, ?)`,
			u.ID, agentID, model.FormatTime(now)); err != nil {
			return nil, fmt.Errorf("insert unit member: %w", err)
		}
		u.MemberAgentIDs = append(u.MemberAgentIDs, agentID)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUnit looks a unit up by id or, failing that, by slug.
func (s *SQLiteStore) GetUnit(ctx context.Context, idOrSlug string) (*model.Unit, error) {
	u, err := getUnitRow(ctx, s.db, idOrSlug)
	if err != nil {
		return nil, err
	}
	if u.MemberAgentIDs, err = unitMembers(ctx, s.db, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func getUnitRow(ctx context.Context, q querier, idOrSlug string) (*model.Unit, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE id = ? OR slug = ?
		 ORDER BY id = ? DESC LIMIT 1`, idOrSlug, idOrSlug, idOrSlug)
	u, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Unit not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func unitMembers(ctx context.Context, q querier, unitID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT agentId FROM unit_members WHERE unitId = ? ORDER BY joinedAt, rowid`, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListUnits returns every unit with its members, newest first.
func (s *SQLiteStore) ListUnits(ctx context.Context) ([]model.Unit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+unitColumns+` FROM units ORDER BY createdAt DESC`)
	if err != nil {
		return nil, err
	}
	units := []model.Unit{}
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		units = append(units, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members, err := s.allUnitMembers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range units {
		if ids, ok := members[units[i].ID]; ok {
			units[i].MemberAgentIDs = ids
		}
	}
	return units, nil
}

func (s *SQLiteStore) allUnitMembers(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT unitId, agentId FROM unit_members ORDER BY joinedAt, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var unitID, agentID string
		if err := rows.Scan(&unitID, &agentID); err != nil {
			return nil, err
		}
		out[unitID] = append(out[unitID], agentID)
	}
	return out, rows.Err()
}

// JoinUnit adds an agent to a unit. OPEN units admit anyone; other
// visibilities need the current invite code. Joining twice is a no-op.
func (s *SQLiteStore) JoinUnit(ctx context.Context, p JoinUnitParams) (*model.Unit, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	u, err := getUnitRow(ctx, tx, p.UnitID)
	if err != nil {
		return nil, err
	}
	if u.RequiresInvite() && (p.InviteCode == "" || p.InviteCode != u.InviteCode) {
		return nil, forbidden("Valid invite code required")
	}
	if err := agentExists(ctx, tx, p.AgentID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO unit_members (unitId, agentId, joinedAt) VALUES (?, ?, ?)`,
		u.ID, p.AgentID, model.FormatTime(model.Now())); err != nil {
		return nil, fmt.Errorf("insert unit member: %w", err)
	}
	if u.MemberAgentIDs, err = unitMembers(ctx, tx, u.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return u, nil
}

// RotateInviteCode replaces the unit's invite code with a fresh random one.
// There is no ownership check.
func (s *SQLiteStore) RotateInviteCode(ctx context.Context, unitID string) (string, error) {
	u, err := getUnitRow(ctx, s.db, unitID)
	if err != nil {
		return "", err
	}
	code := strings.SplitN(uuid.NewString(), "-", 2)[0]
	if _, err := s.db.ExecContext(ctx, `UPDATE units SET inviteCode = ? WHERE id = ?`, code, u.ID); err != nil {
		return "", fmt.Errorf("rotate invite code: %w", err)
	}
	return code, nil
}

func scanUnit(row scanner) (model.Unit, error) {
	var u model.Unit
	var visibility, createdAt string
	var inviteCode sql.NullString

	err := row.Scan(&u.ID, &u.Name, &u.Slug, &u.Description, &visibility, &inviteCode, &createdAt)
	if err != nil {
		return u, err
	}
	u.Visibility = model.Visibility(visibility)
	u.InviteCode = inviteCode.String
	u.CreatedAt = parseTime(createdAt)
	u.MemberAgentIDs = []string{}
	return u, nil
}
