package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rcliao/unit/internal/model"
)

func TestMergeLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := mustAgent(t, s, "alpha")
	b := mustAgent(t, s, "beta")

	m, err := s.ProposeMerge(ctx, ProposeMergeParams{AgentAID: a.ID, AgentBID: b.ID, Pitch: "Let's build a better tokenizer"})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if m.Status != model.MergeProposed || m.ActivatedAt != nil {
		t.Errorf("unexpected proposed session: %+v", m)
	}

	if _, err := s.SimulateSandbox(ctx, m.ID, 5); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected sandbox on PROPOSED to fail, got %v", err)
	}
	if _, err := s.CloseMerge(ctx, m.ID, CloseMergeParams{}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected close on PROPOSED to fail, got %v", err)
	}

	m, err = s.AcceptMerge(ctx, m.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if m.Status != model.MergeActive || m.ActivatedAt == nil {
		t.Errorf("expected ACTIVE with activatedAt, got %+v", m)
	}
	if _, err := s.AcceptMerge(ctx, m.ID); Message(err) != "Cannot accept non-proposed merge" {
		t.Errorf("expected double accept to fail, got %v", err)
	}

	m, err = s.SimulateSandbox(ctx, m.ID, 0)
	if err != nil {
		t.Fatalf("sandbox: %v", err)
	}
	if m.Sandbox == nil || m.Sandbox.ID != "sandbox-"+m.ID || m.Sandbox.EphemeralResources != 3 {
		t.Fatalf("unexpected sandbox: %+v", m.Sandbox)
	}
	first := m.Sandbox.CreatedAt

	m, err = s.SimulateSandbox(ctx, m.ID, 7)
	if err != nil {
		t.Fatalf("sandbox again: %v", err)
	}
	if m.Sandbox.EphemeralResources != 7 || !m.Sandbox.CreatedAt.Equal(first) {
		t.Errorf("expected same sandbox with 7 resources, got %+v", m.Sandbox)
	}

	m, err = s.CloseMerge(ctx, m.ID, CloseMergeParams{
		SharedArtifact: "tokenizer.go",
		CreditSplit:    &model.CreditSplit{AgentA: 0.6, AgentB: 0.4},
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := s.GetMerge(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.MergeClosed || got.ClosedAt == nil {
		t.Errorf("expected CLOSED with closedAt, got %+v", got)
	}
	if got.SharedArtifact != "tokenizer.go" {
		t.Errorf("expected artifact to persist, got %q", got.SharedArtifact)
	}
	if got.CreditSplit == nil || got.CreditSplit.AgentA != 0.6 {
		t.Errorf("expected credit split to persist, got %+v", got.CreditSplit)
	}
	if got.Sandbox == nil || got.Sandbox.EphemeralResources != 7 {
		t.Errorf("expected sandbox to persist, got %+v", got.Sandbox)
	}

	if _, err := s.CloseMerge(ctx, m.ID, CloseMergeParams{}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected CLOSED to be terminal, got %v", err)
	}
}

func TestRejectMerge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := mustAgent(t, s, "alpha")
	b := mustAgent(t, s, "beta")
	m, _ := s.ProposeMerge(ctx, ProposeMergeParams{AgentAID: a.ID, AgentBID: b.ID, Pitch: "merge please"})

	m, err := s.RejectMerge(ctx, m.ID, "not now")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if m.Status != model.MergeRejected {
		t.Errorf("expected REJECTED, got %s", m.Status)
	}
	if m.SharedArtifact != "REJECTED_REASON: not now" {
		t.Errorf("unexpected rejection note %q", m.SharedArtifact)
	}
	if _, err := s.AcceptMerge(ctx, m.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected accept after reject to fail, got %v", err)
	}
	if _, err := s.RejectMerge(ctx, m.ID, "again"); Message(err) != "Only proposed merges can be rejected" {
		t.Errorf("expected second reject to fail, got %v", err)
	}
}

func TestProposeMergeValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := mustAgent(t, s, "alpha")

	if _, err := s.ProposeMerge(ctx, ProposeMergeParams{AgentAID: a.ID, AgentBID: a.ID}); Message(err) != "Cannot merge with self" {
		t.Errorf("expected self merge to fail, got %v", err)
	}
	if _, err := s.ProposeMerge(ctx, ProposeMergeParams{AgentAID: a.ID, AgentBID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected unknown agent to fail, got %v", err)
	}
	if _, err := s.GetMerge(ctx, "nope"); Message(err) != "Merge session not found" {
		t.Errorf("expected Merge session not found, got %v", err)
	}
}
