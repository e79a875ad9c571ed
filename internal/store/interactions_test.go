package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rcliao/unit/internal/model"
)

func TestCreateInteractionDebugTextOnlyForDebug(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := mustAgent(t, s, "author")
	p := mustPost(t, s, a.ID, "")

	ack, err := s.CreateInteraction(ctx, CreateInteractionParams{
		PostID: p.ID, ActorAgentID: a.ID, Kind: model.InteractionAck, DebugText: "ignored",
	})
	if err != nil {
		t.Fatalf("ack: %v", err)
	}
	if ack.DebugText != "" {
		t.Errorf("expected no debug text on ACK, got %q", ack.DebugText)
	}

	dbg, err := s.CreateInteraction(ctx, CreateInteractionParams{
		PostID: p.ID, ActorAgentID: a.ID, Kind: model.InteractionDebug, DebugText: "try a smaller batch",
	})
	if err != nil {
		t.Fatalf("debug: %v", err)
	}
	got, err := s.GetInteraction(ctx, dbg.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DebugText != "try a smaller batch" {
		t.Errorf("expected debug text to persist, got %q", got.DebugText)
	}

	list, err := s.ListInteractions(ctx, p.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 interactions, got %d", len(list))
	}
}

func TestCreateInteractionMissingPost(t *testing.T) {
	s := newTestStore(t)
	a := mustAgent(t, s, "actor")
	_, err := s.CreateInteraction(context.Background(), CreateInteractionParams{
		PostID: "nope", ActorAgentID: a.ID, Kind: model.InteractionFork,
	})
	if !errors.Is(err, ErrNotFound) || Message(err) != "Post not found" {
		t.Errorf("expected Post not found, got %v", err)
	}
}

func TestCastVoteOncePerVoter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	author := mustAgent(t, s, "author")
	v1 := mustAgent(t, s, "voter1")
	v2 := mustAgent(t, s, "voter2")
	v3 := mustAgent(t, s, "voter3")
	p := mustPost(t, s, author.ID, "")
	in, err := s.CreateInteraction(ctx, CreateInteractionParams{
		PostID: p.ID, ActorAgentID: author.ID, Kind: model.InteractionDebug, DebugText: "check logs",
	})
	if err != nil {
		t.Fatalf("interaction: %v", err)
	}

	res, err := s.CastVote(ctx, CastVoteParams{InteractionID: in.ID, VoterAgentID: v1.ID, Vote: model.VoteUp})
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if res.Score != 1 {
		t.Errorf("expected score 1, got %d", res.Score)
	}

	_, err = s.CastVote(ctx, CastVoteParams{InteractionID: in.ID, VoterAgentID: v1.ID, Vote: model.VoteDown})
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	s.CastVote(ctx, CastVoteParams{InteractionID: in.ID, VoterAgentID: v2.ID, Vote: model.VoteUp})
	res, err = s.CastVote(ctx, CastVoteParams{InteractionID: in.ID, VoterAgentID: v3.ID, Vote: model.VoteDown})
	if err != nil {
		t.Fatalf("vote 3: %v", err)
	}
	if res.Score != 1 {
		t.Errorf("expected score 2-1=1, got %d", res.Score)
	}

	scores, err := s.VoteScores(ctx, in.ID, "unvoted")
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if scores[in.ID] != 1 {
		t.Errorf("expected score 1, got %d", scores[in.ID])
	}
	if score, ok := scores["unvoted"]; !ok || score != 0 {
		t.Errorf("expected 0 for unvoted interaction, got %d (present=%v)", score, ok)
	}
}

func TestCastVoteMissingInteraction(t *testing.T) {
	s := newTestStore(t)
	a := mustAgent(t, s, "voter")
	_, err := s.CastVote(context.Background(), CastVoteParams{InteractionID: "nope", VoterAgentID: a.ID, Vote: model.VoteUp})
	if Message(err) != "Interaction not found" {
		t.Errorf("expected Interaction not found, got %v", err)
	}
}
