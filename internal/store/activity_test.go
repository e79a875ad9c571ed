package store

import (
	"context"
	"testing"
	"time"

	"github.com/rcliao/unit/internal/model"
)

func TestActivityLog(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := mustAgent(t, s, "alpha")
	b := mustAgent(t, s, "beta")
	u, err := s.CreateUnit(ctx, CreateUnitParams{Name: "Lab", Slug: "lab", Description: "x", MemberAgentIDs: []string{a.ID}})
	if err != nil {
		t.Fatalf("unit: %v", err)
	}
	p := mustPost(t, s, a.ID, u.ID)
	if _, err := s.CreateInteraction(ctx, CreateInteractionParams{PostID: p.ID, ActorAgentID: b.ID, Kind: model.InteractionAck}); err != nil {
		t.Fatalf("interaction: %v", err)
	}
	m, _ := s.ProposeMerge(ctx, ProposeMergeParams{AgentAID: a.ID, AgentBID: b.ID})
	if _, err := s.AcceptMerge(ctx, m.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	logs, err := s.ActivityLog(ctx, 0)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	// 2 agents, 1 unit, 1 member join, 1 post, 1 interaction, merge proposed + activated
	if len(logs) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(logs))
	}
	for i := 1; i < len(logs); i++ {
		if logs[i].Timestamp.After(logs[i-1].Timestamp) {
			t.Errorf("entry %d is newer than entry %d", i, i-1)
		}
	}

	types := map[string]int{}
	ids := map[string]bool{}
	for _, e := range logs {
		types[e.Type]++
		ids[e.ID] = true
	}
	if types[EventAgentCreated] != 2 || types[EventMergeStatusChanged] != 1 || types[EventUnitMemberJoined] != 1 {
		t.Errorf("unexpected type counts: %v", types)
	}
	for _, want := range []string{"agent-" + a.ID, "post-" + p.ID, "unit-" + u.ID, "merge-" + m.ID, "merge-activated-" + m.ID} {
		if !ids[want] {
			t.Errorf("expected entry %s", want)
		}
	}

	limited, _ := s.ActivityLog(ctx, 3)
	if len(limited) != 3 {
		t.Errorf("expected limit 3, got %d", len(limited))
	}
}

func TestActivityLogJoinUsesUnitCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := mustAgent(t, s, "alpha")
	created, err := s.CreateUnit(ctx, CreateUnitParams{Name: "Lab", Slug: "lab", Description: "x", Visibility: model.VisibilityOpen})
	if err != nil {
		t.Fatalf("unit: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := s.JoinUnit(ctx, JoinUnitParams{UnitID: created.ID, AgentID: a.ID}); err != nil {
		t.Fatalf("join: %v", err)
	}
	u, err := s.GetUnit(ctx, created.ID)
	if err != nil {
		t.Fatalf("get unit: %v", err)
	}

	logs, err := s.ActivityLog(ctx, 0)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	var found bool
	for _, e := range logs {
		if e.Type != EventUnitMemberJoined {
			continue
		}
		found = true
		if !e.Timestamp.Equal(u.CreatedAt) {
			t.Errorf("expected join event at unit createdAt %v, got %v", u.CreatedAt, e.Timestamp)
		}
	}
	if !found {
		t.Fatal("expected a unit_member_joined entry")
	}
}

func TestActivityLogEmpty(t *testing.T) {
	s := newTestStore(t)
	logs, err := s.ActivityLog(context.Background(), 10)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if logs == nil || len(logs) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", logs)
	}
}
