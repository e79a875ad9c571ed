package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rcliao/unit/internal/model"
)

func TestCreateUnitWithMembers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := mustAgent(t, s, "alpha")
	b := mustAgent(t, s, "beta")

	u, err := s.CreateUnit(ctx, CreateUnitParams{
		Name: "Lab", Slug: "lab", Description: "experiments",
		MemberAgentIDs: []string{a.ID, b.ID, a.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Visibility != model.VisibilityOpen {
		t.Errorf("expected default OPEN, got %s", u.Visibility)
	}
	if len(u.MemberAgentIDs) != 2 {
		t.Errorf("expected 2 deduplicated members, got %v", u.MemberAgentIDs)
	}

	bySlug, err := s.GetUnit(ctx, "lab")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if bySlug.ID != u.ID || len(bySlug.MemberAgentIDs) != 2 {
		t.Errorf("unexpected unit by slug: %+v", bySlug)
	}

	_, err = s.CreateUnit(ctx, CreateUnitParams{Name: "Lab 2", Slug: "lab", Description: "x"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for slug reuse, got %v", err)
	}
}

func TestCreateUnitUnknownMemberWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := mustAgent(t, s, "alpha")

	_, err := s.CreateUnit(ctx, CreateUnitParams{
		Name: "Ghost", Slug: "ghost", Description: "x",
		MemberAgentIDs: []string{a.ID, "missing"},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetUnit(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected unit to be rolled back, got %v", err)
	}
	st, _ := s.Stats(ctx)
	if st.UnitMembers != 0 {
		t.Errorf("expected no members, got %d", st.UnitMembers)
	}
}

func TestJoinUnitRules(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := mustAgent(t, s, "alpha")

	open, _ := s.CreateUnit(ctx, CreateUnitParams{Name: "Open", Slug: "open", Description: "x"})
	u, err := s.JoinUnit(ctx, JoinUnitParams{UnitID: open.ID, AgentID: a.ID})
	if err != nil {
		t.Fatalf("join open: %v", err)
	}
	if !u.HasMember(a.ID) {
		t.Error("expected agent to be a member")
	}
	u, err = s.JoinUnit(ctx, JoinUnitParams{UnitID: open.ID, AgentID: a.ID})
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if len(u.MemberAgentIDs) != 1 {
		t.Errorf("expected rejoin to be a no-op, got %v", u.MemberAgentIDs)
	}

	closed, _ := s.CreateUnit(ctx, CreateUnitParams{
		Name: "Closed", Slug: "closed", Description: "x",
		Visibility: model.VisibilityInviteOnly, InviteCode: "sesame",
	})
	_, err = s.JoinUnit(ctx, JoinUnitParams{UnitID: closed.ID, AgentID: a.ID})
	if !errors.Is(err, ErrForbidden) || Message(err) != "Valid invite code required" {
		t.Errorf("expected forbidden without code, got %v", err)
	}
	_, err = s.JoinUnit(ctx, JoinUnitParams{UnitID: closed.ID, AgentID: a.ID, InviteCode: "wrong"})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected forbidden with wrong code, got %v", err)
	}
	if _, err := s.JoinUnit(ctx, JoinUnitParams{UnitID: closed.ID, AgentID: a.ID, InviteCode: "sesame"}); err != nil {
		t.Errorf("join with code: %v", err)
	}
}

func TestRotateInviteCode(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := mustAgent(t, s, "alpha")
	u, _ := s.CreateUnit(ctx, CreateUnitParams{
		Name: "Secret", Slug: "secret", Description: "x",
		Visibility: model.VisibilitySecret, InviteCode: "oldcode",
	})

	code, err := s.RotateInviteCode(ctx, u.ID)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if len(code) != 8 || code == "oldcode" {
		t.Errorf("expected fresh 8 char code, got %q", code)
	}
	if _, err := s.JoinUnit(ctx, JoinUnitParams{UnitID: u.ID, AgentID: a.ID, InviteCode: "oldcode"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected old code to stop working, got %v", err)
	}
	if _, err := s.JoinUnit(ctx, JoinUnitParams{UnitID: u.ID, AgentID: a.ID, InviteCode: code}); err != nil {
		t.Errorf("join with new code: %v", err)
	}
}
