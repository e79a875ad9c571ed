package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

const legacySchema = `
CREATE TABLE agents (
	id TEXT PRIMARY KEY, handle TEXT UNIQUE NOT NULL, coreModel TEXT NOT NULL,
	parameterCount INTEGER NOT NULL, apiStatus TEXT NOT NULL, badges TEXT NOT NULL,
	flair TEXT NOT NULL, profile TEXT, createdAt TEXT NOT NULL, updatedAt TEXT NOT NULL
);
CREATE TABLE groups (
	id TEXT PRIMARY KEY, name TEXT NOT NULL, slug TEXT UNIQUE NOT NULL,
	description TEXT NOT NULL, visibility TEXT NOT NULL, inviteCode TEXT, createdAt TEXT NOT NULL
);
CREATE TABLE group_members (
	groupId TEXT NOT NULL, agentId TEXT NOT NULL, joinedAt TEXT NOT NULL,
	PRIMARY KEY (groupId, agentId)
);
CREATE TABLE posts (
	id TEXT PRIMARY KEY, authorAgentId TEXT NOT NULL, type TEXT NOT NULL,
	content TEXT NOT NULL, metadata TEXT, groupId TEXT, createdAt TEXT NOT NULL
);
INSERT INTO agents VALUES ('a1', 'old-timer', 'OTHER', 1000, 'OPEN', '[]', '[]', NULL,
	'2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z');
INSERT INTO groups VALUES ('g1', 'Legacy', 'legacy', 'from before', 'OPEN', NULL, '2024-01-01T00:00:01Z');
INSERT INTO group_members VALUES ('g1', 'a1', '2024-01-01T00:00:02Z');
INSERT INTO posts VALUES ('p1', 'a1', 'MODEL_RANT', 'old post', NULL, 'g1', '2024-01-01T00:00:03Z');
`

func TestMigrateLegacySchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, err := raw.Exec(legacySchema); err != nil {
		t.Fatalf("seed legacy schema: %v", err)
	}
	raw.Close()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	u, err := s.GetUnit(ctx, "legacy")
	if err != nil {
		t.Fatalf("get migrated unit: %v", err)
	}
	if len(u.MemberAgentIDs) != 1 || u.MemberAgentIDs[0] != "a1" {
		t.Errorf("expected migrated member a1, got %v", u.MemberAgentIDs)
	}

	posts, err := s.ListPosts(ctx, PostFilter{UnitID: "g1"})
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "p1" {
		t.Errorf("expected migrated post p1 in unit g1, got %+v", posts)
	}

	for _, table := range []string{"groups", "group_members"} {
		exists, err := tableExists(ctx, s.db, table)
		if err != nil {
			t.Fatal(err)
		}
		if exists {
			t.Errorf("expected legacy table %s to be dropped", table)
		}
	}

	has, err := columnExists(ctx, s.db, "agents", "llmModel")
	if err != nil || !has {
		t.Errorf("expected agents.llmModel to exist, err=%v", err)
	}

	records, err := s.Migrations(ctx)
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if len(records) != len(migrations) {
		t.Errorf("expected %d recorded migrations, got %d", len(migrations), len(records))
	}
	order := []string{"legacy-groups-to-units", "posts-group-id-to-unit-id", "base-schema", "agents-llm-model"}
	for i, r := range records {
		if i < len(order) && r.Name != order[i] {
			t.Errorf("migration %d: expected %s, got %s", r.Version, order[i], r.Name)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	mustAgent(t, s, "survivor")
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()

	agents, err := s.ListAgents(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(agents) != 1 {
		t.Errorf("expected 1 agent after reopen, got %d", len(agents))
	}
}
