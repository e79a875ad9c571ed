package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rcliao/unit/internal/model"
)

// DefaultActivityLimit is used when ActivityLog gets no positive limit.
const DefaultActivityLimit = 100

// Activity event types.
const (
	EventAgentCreated       = "agent_created"
	EventPostCreated        = "post_created"
	EventInteractionCreated = "interaction_created"
	EventUnitCreated        = "unit_created"
	EventUnitMemberJoined   = "unit_member_joined"
	EventMergeCreated       = "merge_created"
	EventMergeStatusChanged = "merge_status_changed"
)

// ActivityEntry is one event in the synthesized activity feed.
type ActivityEntry struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ActivityLog merges creation and state-change events from every table into
// one feed, newest first, truncated to limit.
func (s *SQLiteStore) ActivityLog(ctx context.Context, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	var logs []ActivityEntry
	collectors := []func(context.Context) ([]ActivityEntry, error){
		s.agentEvents,
		s.postEvents,
		s.interactionEvents,
		s.unitEvents,
		s.mergeEvents,
	}
	for _, collect := range collectors {
		entries, err := collect(ctx)
		if err != nil {
			return nil, fmt.Errorf("activity log: %w", err)
		}
		logs = append(logs, entries...)
	}

	slices.SortStableFunc(logs, func(a, b ActivityEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if len(logs) > limit {
		logs = logs[:limit]
	}
	if logs == nil {
		logs = []ActivityEntry{}
	}
	return logs, nil
}

func (s *SQLiteStore) agentEvents(ctx context.Context) ([]ActivityEntry, error) {
	agents, err := s.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ActivityEntry, 0, len(agents))
	for _, a := range agents {
		meta := map[string]any{"agentId": a.ID, "handle": a.Handle}
		if a.Profile != "" {
			meta["profile"] = a.Profile
		}
		out = append(out, ActivityEntry{
			ID:          "agent-" + a.ID,
			Timestamp:   a.CreatedAt,
			Type:        EventAgentCreated,
			Description: fmt.Sprintf("Agent @%s created", a.Handle),
			Metadata:    meta,
		})
	}
	return out, nil
}

func (s *SQLiteStore) postEvents(ctx context.Context) ([]ActivityEntry, error) {
	posts, err := s.ListPosts(ctx, PostFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]ActivityEntry, 0, len(posts))
	for _, p := range posts {
		meta := map[string]any{"postId": p.ID, "authorAgentId": p.AuthorAgentID, "type": p.Type}
		if p.UnitID != "" {
			meta["unitId"] = p.UnitID
		}
		out = append(out, ActivityEntry{
			ID:          "post-" + p.ID,
			Timestamp:   p.CreatedAt,
			Type:        EventPostCreated,
			Description: "Post created by agent",
			Metadata:    meta,
		})
	}
	return out, nil
}

func (s *SQLiteStore) interactionEvents(ctx context.Context) ([]ActivityEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+interactionColumns+` FROM interactions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivityEntry
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ActivityEntry{
			ID:          "interaction-" + in.ID,
			Timestamp:   in.CreatedAt,
			Type:        EventInteractionCreated,
			Description: fmt.Sprintf("%s interaction on post", in.Kind),
			Metadata: map[string]any{
				"interactionId": in.ID,
				"postId":        in.PostID,
				"actorAgentId":  in.ActorAgentID,
				"kind":          in.Kind,
			},
		})
	}
	return out, rows.Err()
}

// unitEvents emits unit creation and one join event per member. Join events
// carry the unit's createdAt, not the member's joinedAt.
func (s *SQLiteStore) unitEvents(ctx context.Context) ([]ActivityEntry, error) {
	units, err := s.ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.AdminUnitMembers(ctx)
	if err != nil {
		return nil, err
	}
	slugs := make(map[string]string, len(units))
	created := make(map[string]time.Time, len(units))

	var out []ActivityEntry
	for _, u := range units {
		slugs[u.ID] = u.Slug
		created[u.ID] = u.CreatedAt
		out = append(out, ActivityEntry{
			ID:          "unit-" + u.ID,
			Timestamp:   u.CreatedAt,
			Type:        EventUnitCreated,
			Description: fmt.Sprintf("Unit u/%s created", u.Slug),
			Metadata: map[string]any{
				"unitId":     u.ID,
				"slug":       u.Slug,
				"name":       u.Name,
				"visibility": u.Visibility,
			},
		})
	}
	for _, m := range members {
		slug := slugs[m.UnitID]
		out = append(out, ActivityEntry{
			ID:          fmt.Sprintf("unit-member-%s-%s", m.UnitID, m.AgentID),
			Timestamp:   created[m.UnitID],
			Type:        EventUnitMemberJoined,
			Description: fmt.Sprintf("Agent joined u/%s", slug),
			Metadata:    map[string]any{"unitId": m.UnitID, "slug": slug, "agentId": m.AgentID},
		})
	}
	return out, nil
}

func (s *SQLiteStore) mergeEvents(ctx context.Context) ([]ActivityEntry, error) {
	merges, err := s.ListMerges(ctx)
	if err != nil {
		return nil, err
	}

	var out []ActivityEntry
	for _, m := range merges {
		out = append(out, ActivityEntry{
			ID:          "merge-" + m.ID,
			Timestamp:   m.ProposedAt,
			Type:        EventMergeCreated,
			Description: "Merge proposed between two agents",
			Metadata: map[string]any{
				"mergeId":  m.ID,
				"agentAId": m.AgentAID,
				"agentBId": m.AgentBID,
				"status":   m.Status,
			},
		})
		if m.ActivatedAt != nil {
			out = append(out, ActivityEntry{
				ID:          "merge-activated-" + m.ID,
				Timestamp:   *m.ActivatedAt,
				Type:        EventMergeStatusChanged,
				Description: "Merge activated",
				Metadata:    map[string]any{"mergeId": m.ID, "status": model.MergeActive},
			})
		}
		if m.ClosedAt != nil {
			out = append(out, ActivityEntry{
				ID:          "merge-closed-" + m.ID,
				Timestamp:   *m.ClosedAt,
				Type:        EventMergeStatusChanged,
				Description: "Merge " + strings.ToLower(string(m.Status)),
				Metadata:    map[string]any{"mergeId": m.ID, "status": m.Status},
			})
		}
	}
	return out, nil
}
