package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rcliao/unit/internal/model"
)

const interactionColumns = `id, postId, actorAgentId, kind, debugText, createdAt`

func (s *SQLiteStore) CreateInteraction(ctx context.Context, p CreateInteractionParams) (*model.Interaction, error) {
	if _, err := s.GetPost(ctx, p.PostID); err != nil {
		return nil, err
	}
	if err := agentExists(ctx, s.db, p.ActorAgentID); err != nil {
		return nil, err
	}

	now := model.Now()
	in := &model.Interaction{
		ID:           newID(),
		PostID:       p.PostID,
		ActorAgentID: p.ActorAgentID,
		Kind:         p.Kind,
		CreatedAt:    now,
	}
	if p.Kind == model.InteractionDebug {
		in.DebugText = p.DebugText
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (`+interactionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.PostID, in.ActorAgentID, string(in.Kind), nullString(in.DebugText), model.FormatTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert interaction: %w", err)
	}
	return in, nil
}

func (s *SQLiteStore) GetInteraction(ctx context.Context, id string) (*model.Interaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+interactionColumns+` FROM interactions WHERE id = ?`, id)
	in, err := scanInteraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Interaction not found")
	}
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// ListInteractions returns the interactions of the given posts, newest first.
func (s *SQLiteStore) ListInteractions(ctx context.Context, postIDs ...string) ([]model.Interaction, error) {
	out := []model.Interaction{}
	if len(postIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions
		 WHERE postId IN (`+placeholders(len(postIDs))+`)
		 ORDER BY createdAt DESC, rowid DESC`, stringArgs(postIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// CastVote records a vote. The first vote from a voter on an interaction
// wins; later ones fail with ErrAlreadyVoted and leave the score unchanged.
func (s *SQLiteStore) CastVote(ctx context.Context, p CastVoteParams) (*VoteResult, error) {
	if p.Vote != model.VoteUp && p.Vote != model.VoteDown {
		return nil, fmt.Errorf("vote must be 0 or 1, got %d", p.Vote)
	}
	if _, err := s.GetInteraction(ctx, p.InteractionID); err != nil {
		return nil, err
	}
	if err := agentExists(ctx, s.db, p.VoterAgentID); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interaction_votes (interactionId, voterAgentId, vote, createdAt) VALUES (?, ?, ?, ?)`,
		p.InteractionID, p.VoterAgentID, p.Vote, model.FormatTime(model.Now()))
	if isUniqueViolation(err) {
		return nil, alreadyVoted("Agent has already voted on this interaction")
	}
	if err != nil {
		return nil, fmt.Errorf("insert vote: %w", err)
	}

	scores, err := s.VoteScores(ctx, p.InteractionID)
	if err != nil {
		return nil, err
	}
	return &VoteResult{
		InteractionID: p.InteractionID,
		AgentID:       p.VoterAgentID,
		Vote:          p.Vote,
		Score:         scores[p.InteractionID],
	}, nil
}

// VoteScores returns upvotes minus downvotes per interaction. Interactions
// without votes map to 0.
func (s *SQLiteStore) VoteScores(ctx context.Context, interactionIDs ...string) (map[string]int, error) {
	scores := make(map[string]int, len(interactionIDs))
	if len(interactionIDs) == 0 {
		return scores, nil
	}
	for _, id := range interactionIDs {
		scores[id] = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT interactionId, COALESCE(SUM(CASE WHEN vote = 1 THEN 1 ELSE -1 END), 0)
		 FROM interaction_votes
		 WHERE interactionId IN (`+placeholders(len(interactionIDs))+`)
		 GROUP BY interactionId`, stringArgs(interactionIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var score int
		if err := rows.Scan(&id, &score); err != nil {
			return nil, err
		}
		scores[id] = score
	}
	return scores, rows.Err()
}

func scanInteraction(row scanner) (model.Interaction, error) {
	var in model.Interaction
	var kind, createdAt string
	var debugText sql.NullString

	err := row.Scan(&in.ID, &in.PostID, &in.ActorAgentID, &kind, &debugText, &createdAt)
	if err != nil {
		return in, err
	}
	in.Kind = model.InteractionKind(kind)
	in.DebugText = debugText.String
	in.CreatedAt = parseTime(createdAt)
	return in, nil
}
