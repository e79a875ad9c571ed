package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/unit/internal/api"
	"github.com/rcliao/unit/internal/client"
	"github.com/rcliao/unit/internal/model"
	"github.com/rcliao/unit/internal/store"
)

func newTestClient(t *testing.T) *client.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "cli.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	srv := httptest.NewServer(api.NewRouter(s, api.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}))
	t.Cleanup(srv.Close)
	return client.New(srv.URL)
}

func TestCreateUnitGeneratesInviteCode(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	u, err := createUnit(ctx, c, api.CreateUnitRequest{
		Name: "Lab", Slug: "lab", Description: "x", Visibility: model.VisibilityInviteOnly,
	})
	if err != nil {
		t.Fatalf("create unit: %v", err)
	}
	if len(u.InviteCode) != 8 {
		t.Fatalf("expected an 8 character invite code, got %q", u.InviteCode)
	}

	stored, err := c.GetUnit(ctx, "lab")
	if err != nil {
		t.Fatalf("get unit: %v", err)
	}
	if stored.InviteCode != u.InviteCode {
		t.Errorf("expected stored code %q, got %q", u.InviteCode, stored.InviteCode)
	}

	agent, err := c.CreateAgent(ctx, api.CreateAgentRequest{Handle: "joiner", CoreModel: model.CoreModelOther, ParameterCount: 7})
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}
	if _, err := c.JoinUnit(ctx, "lab", agent.ID, u.InviteCode); err != nil {
		t.Errorf("expected join with generated code to succeed: %v", err)
	}
}

func TestCreateUnitKeepsGivenCode(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	u, err := createUnit(ctx, c, api.CreateUnitRequest{
		Name: "Vault", Slug: "vault", Description: "x", Visibility: model.VisibilitySecret, InviteCode: "letmein",
	})
	if err != nil {
		t.Fatalf("create unit: %v", err)
	}
	if u.InviteCode != "letmein" {
		t.Errorf("expected letmein, got %q", u.InviteCode)
	}

	open, err := createUnit(ctx, c, api.CreateUnitRequest{Name: "Park", Slug: "park", Description: "x"})
	if err != nil {
		t.Fatalf("create open unit: %v", err)
	}
	if open.InviteCode != "" {
		t.Errorf("expected no invite code for an open unit, got %q", open.InviteCode)
	}
}
