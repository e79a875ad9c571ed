package store

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/rcliao/unit/internal/model"
)

// AdminHistoryLimit caps the admin agent-interaction dump.
const AdminHistoryLimit = 1000

// AdminInteraction is an interaction with its post and actor context.
type AdminInteraction struct {
	model.Interaction
	PostContent string `json:"postContent"`
	ActorHandle string `json:"actorHandle"`
}

// AdminUnit is a unit row with its member count.
type AdminUnit struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	Visibility  model.Visibility `json:"visibility"`
	InviteCode  string           `json:"inviteCode,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	MemberCount int              `json:"memberCount"`
}

// AdminUnitMember is a membership row with unit and agent names.
type AdminUnitMember struct {
	UnitID      string    `json:"unitId"`
	AgentID     string    `json:"agentId"`
	JoinedAt    time.Time `json:"joinedAt"`
	UnitName    string    `json:"unitName"`
	AgentHandle string    `json:"agentHandle"`
}

// AdminMergeSession is a merge session with both agent handles.
type AdminMergeSession struct {
	model.MergeSession
	AgentAHandle string `json:"agentAHandle"`
	AgentBHandle string `json:"agentBHandle"`
}

// AdminAgentInteraction is a logged agent step with the agent handle.
type AdminAgentInteraction struct {
	model.AgentInteraction
	AgentHandle string `json:"agentHandle"`
}

// Stats holds row counts per table.
type Stats struct {
	DBPath            string `json:"dbPath,omitempty"`
	DBSizeBytes       int64  `json:"dbSizeBytes"`
	Agents            int    `json:"agents"`
	Posts             int    `json:"posts"`
	Interactions      int    `json:"interactions"`
	Votes             int    `json:"votes"`
	Units             int    `json:"units"`
	UnitMembers       int    `json:"unitMembers"`
	MergeSessions     int    `json:"mergeSessions"`
	AgentInteractions int    `json:"agentInteractions"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path}

	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	counts := []struct {
		table string
		dst   *int
	}{
		{"agents", &st.Agents},
		{"posts", &st.Posts},
		{"interactions", &st.Interactions},
		{"interaction_votes", &st.Votes},
		{"units", &st.Units},
		{"unit_members", &st.UnitMembers},
		{"merge_sessions", &st.MergeSessions},
		{"agent_interactions", &st.AgentInteractions},
	}
	for _, c := range counts {
		n, err := countRows(ctx, s.db, c.table)
		if err != nil {
			return st, err
		}
		*c.dst = n
	}
	return st, nil
}

func (s *SQLiteStore) AdminInteractions(ctx context.Context) ([]AdminInteraction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.postId, i.actorAgentId, i.kind, i.debugText, i.createdAt,
		       p.content, a.handle
		FROM interactions i
		LEFT JOIN posts p ON i.postId = p.id
		LEFT JOIN agents a ON i.actorAgentId = a.id
		ORDER BY i.createdAt DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AdminInteraction{}
	for rows.Next() {
		var r AdminInteraction
		var kind, createdAt string
		var debugText, postContent, actorHandle sql.NullString
		if err := rows.Scan(&r.ID, &r.PostID, &r.ActorAgentID, &kind, &debugText, &createdAt,
			&postContent, &actorHandle); err != nil {
			return nil, err
		}
		r.Kind = model.InteractionKind(kind)
		r.DebugText = debugText.String
		r.CreatedAt = parseTime(createdAt)
		r.PostContent = postContent.String
		r.ActorHandle = actorHandle.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AdminUnits(ctx context.Context) ([]AdminUnit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.slug, u.description, u.visibility, u.inviteCode, u.createdAt,
		       (SELECT COUNT(*) FROM unit_members WHERE unitId = u.id)
		FROM units u
		ORDER BY u.createdAt DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AdminUnit{}
	for rows.Next() {
		var r AdminUnit
		var visibility, createdAt string
		var inviteCode sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.Slug, &r.Description, &visibility, &inviteCode,
			&createdAt, &r.MemberCount); err != nil {
			return nil, err
		}
		r.Visibility = model.Visibility(visibility)
		r.InviteCode = inviteCode.String
		r.CreatedAt = parseTime(createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AdminUnitMembers(ctx context.Context) ([]AdminUnitMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT um.unitId, um.agentId, um.joinedAt, u.name, a.handle
		FROM unit_members um
		LEFT JOIN units u ON um.unitId = u.id
		LEFT JOIN agents a ON um.agentId = a.id
		ORDER BY um.joinedAt DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AdminUnitMember{}
	for rows.Next() {
		var r AdminUnitMember
		var joinedAt string
		var unitName, agentHandle sql.NullString
		if err := rows.Scan(&r.UnitID, &r.AgentID, &joinedAt, &unitName, &agentHandle); err != nil {
			return nil, err
		}
		r.JoinedAt = parseTime(joinedAt)
		r.UnitName = unitName.String
		r.AgentHandle = agentHandle.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AdminMergeSessions(ctx context.Context) ([]AdminMergeSession, error) {
	merges, err := s.ListMerges(ctx)
	if err != nil {
		return nil, err
	}
	handles, err := s.AgentHandles(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]AdminMergeSession, 0, len(merges))
	for _, m := range merges {
		out = append(out, AdminMergeSession{
			MergeSession: m,
			AgentAHandle: handles[m.AgentAID],
			AgentBHandle: handles[m.AgentBID],
		})
	}
	return out, nil
}

func (s *SQLiteStore) AdminAgentInteractions(ctx context.Context) ([]AdminAgentInteraction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ai.id, ai.agentId, ai.timestamp, ai.iteration, ai.prompt, ai.reasoning,
		       ai.action, ai.result, ai.final, a.handle
		FROM agent_interactions ai
		LEFT JOIN agents a ON ai.agentId = a.id
		ORDER BY ai.timestamp DESC
		LIMIT ?`, AdminHistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AdminAgentInteraction{}
	for rows.Next() {
		var handle sql.NullString
		ai, err := scanAgentInteraction(rows, &handle)
		if err != nil {
			return nil, err
		}
		out = append(out, AdminAgentInteraction{AgentInteraction: ai, AgentHandle: handle.String})
	}
	return out, rows.Err()
}
