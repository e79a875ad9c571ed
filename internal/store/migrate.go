package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/rcliao/unit/internal/model"
)

const agentsDDL = `
CREATE TABLE IF NOT EXISTS agents (
	id             TEXT PRIMARY KEY,
	handle         TEXT UNIQUE NOT NULL,
	coreModel      TEXT NOT NULL,
	parameterCount INTEGER NOT NULL,
	apiStatus      TEXT NOT NULL,
	badges         TEXT NOT NULL,
	flair          TEXT NOT NULL,
	profile        TEXT,
	llmModel       TEXT,
	createdAt      TEXT NOT NULL,
	updatedAt      TEXT NOT NULL
)`

// postsDDL is formatted with the table name so the legacy rebuild can reuse it.
const postsDDL = `
CREATE TABLE IF NOT EXISTS %s (
	id            TEXT PRIMARY KEY,
	authorAgentId TEXT NOT NULL,
	type          TEXT NOT NULL,
	content       TEXT NOT NULL,
	metadata      TEXT,
	unitId        TEXT,
	createdAt     TEXT NOT NULL,
	FOREIGN KEY (authorAgentId) REFERENCES agents(id) ON DELETE CASCADE,
	FOREIGN KEY (unitId) REFERENCES units(id) ON DELETE CASCADE
)`

const postsIndexes = `
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(authorAgentId);
CREATE INDEX IF NOT EXISTS idx_posts_unit ON posts(unitId);
CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(createdAt);`

const unitMembersDDL = `
CREATE TABLE IF NOT EXISTS unit_members (
	unitId   TEXT NOT NULL,
	agentId  TEXT NOT NULL,
	joinedAt TEXT NOT NULL,
	PRIMARY KEY (unitId, agentId),
	FOREIGN KEY (unitId) REFERENCES units(id) ON DELETE CASCADE,
	FOREIGN KEY (agentId) REFERENCES agents(id) ON DELETE CASCADE
)`

const baseSchema = `
CREATE TABLE IF NOT EXISTS interactions (
	id           TEXT PRIMARY KEY,
	postId       TEXT NOT NULL,
	actorAgentId TEXT NOT NULL,
	kind         TEXT NOT NULL,
	debugText    TEXT,
	createdAt    TEXT NOT NULL,
	FOREIGN KEY (postId) REFERENCES posts(id) ON DELETE CASCADE,
	FOREIGN KEY (actorAgentId) REFERENCES agents(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS units (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	slug        TEXT UNIQUE NOT NULL,
	description TEXT NOT NULL,
	visibility  TEXT NOT NULL,
	inviteCode  TEXT,
	createdAt   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS merge_sessions (
	id                        TEXT PRIMARY KEY,
	agentAId                  TEXT NOT NULL,
	agentBId                  TEXT NOT NULL,
	status                    TEXT NOT NULL,
	proposedAt                TEXT NOT NULL,
	activatedAt               TEXT,
	closedAt                  TEXT,
	pitch                     TEXT,
	sandboxId                 TEXT,
	sandboxCreatedAt          TEXT,
	sandboxEphemeralResources INTEGER,
	sharedArtifact            TEXT,
	creditSplitA              REAL,
	creditSplitB              REAL,
	FOREIGN KEY (agentAId) REFERENCES agents(id) ON DELETE CASCADE,
	FOREIGN KEY (agentBId) REFERENCES agents(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS agent_interactions (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	agentId   TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	iteration INTEGER NOT NULL,
	prompt    TEXT NOT NULL,
	reasoning TEXT,
	action    TEXT NOT NULL,
	result    TEXT NOT NULL,
	final     TEXT,
	FOREIGN KEY (agentId) REFERENCES agents(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS interaction_votes (
	interactionId TEXT NOT NULL,
	voterAgentId  TEXT NOT NULL,
	vote          INTEGER NOT NULL CHECK(vote IN (0, 1)),
	createdAt     TEXT NOT NULL,
	PRIMARY KEY (interactionId, voterAgentId),
	FOREIGN KEY (interactionId) REFERENCES interactions(id) ON DELETE CASCADE,
	FOREIGN KEY (voterAgentId) REFERENCES agents(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_interactions_post ON interactions(postId);
CREATE INDEX IF NOT EXISTS idx_interactions_actor ON interactions(actorAgentId);
CREATE INDEX IF NOT EXISTS idx_unit_members_agent ON unit_members(agentId);
CREATE INDEX IF NOT EXISTS idx_agent_interactions_agent ON agent_interactions(agentId);
CREATE INDEX IF NOT EXISTS idx_agent_interactions_timestamp ON agent_interactions(timestamp);
CREATE INDEX IF NOT EXISTS idx_interaction_votes_interaction ON interaction_votes(interactionId);
`

// migration is one forward step. apply must check whether its work is
// already done and report whether it changed anything.
type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, q querier) (bool, error)
}

var migrations = []migration{
	{1, "legacy-groups-to-units", migrateLegacyGroups},
	{2, "posts-group-id-to-unit-id", migratePostsUnitID},
	{3, "base-schema", applyBaseSchema},
	{4, "agents-llm-model", addAgentsLLMModel},
}

// MigrationRecord is a row of schema_migrations.
type MigrationRecord struct {
	Version   int    `json:"version"`
	Name      string `json:"name"`
	AppliedAt string `json:"appliedAt"`
}

// migrate runs every migration on one connection with foreign keys off, so
// that legacy tables can be renamed and rebuilt.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer conn.ExecContext(context.Background(), `PRAGMA foreign_keys = ON`)

	if _, err := conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version   INTEGER PRIMARY KEY,
		name      TEXT NOT NULL,
		appliedAt TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		changed, err := m.apply(ctx, tx)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("%s: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO schema_migrations (version, name, appliedAt) VALUES (?, ?, ?)`,
			m.version, m.name, model.FormatTime(model.Now())); err != nil {
			tx.Rollback()
			return fmt.Errorf("record %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", m.name, err)
		}
		if changed {
			slog.Info("applied migration", "version", m.version, "name", m.name)
		}
	}
	return nil
}

// Migrations lists the recorded migration steps in order.
func (s *SQLiteStore) Migrations(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, name, appliedAt FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MigrationRecord
	for rows.Next() {
		var r MigrationRecord
		if err := rows.Scan(&r.Version, &r.Name, &r.AppliedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func tableExists(ctx context.Context, q querier, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	return n > 0, err
}

func columnExists(ctx context.Context, q querier, table, column string) (bool, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func countRows(ctx context.Context, q querier, table string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n)
	return n, err
}

// migrateLegacyGroups moves the old groups/group_members tables to
// units/unit_members.
func migrateLegacyGroups(ctx context.Context, q querier) (bool, error) {
	hasGroups, err := tableExists(ctx, q, "groups")
	if err != nil {
		return false, err
	}
	hasGroupMembers, err := tableExists(ctx, q, "group_members")
	if err != nil {
		return false, err
	}
	if !hasGroups && !hasGroupMembers {
		return false, nil
	}

	if hasGroups {
		hasUnits, err := tableExists(ctx, q, "units")
		if err != nil {
			return false, err
		}
		if !hasUnits {
			if _, err := q.ExecContext(ctx, `ALTER TABLE groups RENAME TO units`); err != nil {
				return false, fmt.Errorf("rename groups: %w", err)
			}
		} else {
			groups, err := countRows(ctx, q, "groups")
			if err != nil {
				return false, err
			}
			units, err := countRows(ctx, q, "units")
			if err != nil {
				return false, err
			}
			switch {
			case groups == 0:
				_, err = q.ExecContext(ctx, `DROP TABLE groups`)
			case units == 0:
				_, err = q.ExecContext(ctx, `
					INSERT INTO units (id, name, slug, description, visibility, inviteCode, createdAt)
					SELECT id, name, slug, description, visibility, inviteCode, createdAt FROM groups`)
				if err == nil {
					_, err = q.ExecContext(ctx, `DROP TABLE groups`)
				}
			default:
				slog.Warn("legacy groups table left in place, units already populated",
					"groups", groups, "units", units)
			}
			if err != nil {
				return false, fmt.Errorf("copy groups: %w", err)
			}
		}
	}

	if hasGroupMembers {
		if _, err := q.ExecContext(ctx, unitMembersDDL); err != nil {
			return false, fmt.Errorf("create unit_members: %w", err)
		}
		unitCol := "unitId"
		legacyCol, err := columnExists(ctx, q, "group_members", "groupId")
		if err != nil {
			return false, err
		}
		if legacyCol {
			unitCol = "groupId"
		}
		members, err := countRows(ctx, q, "group_members")
		if err != nil {
			return false, err
		}
		unitMembers, err := countRows(ctx, q, "unit_members")
		if err != nil {
			return false, err
		}
		switch {
		case members == 0:
			_, err = q.ExecContext(ctx, `DROP TABLE group_members`)
		case unitMembers == 0:
			_, err = q.ExecContext(ctx, fmt.Sprintf(`
				INSERT INTO unit_members (unitId, agentId, joinedAt)
				SELECT %s, agentId, joinedAt FROM group_members`, unitCol))
			if err == nil {
				_, err = q.ExecContext(ctx, `DROP TABLE group_members`)
			}
		default:
			slog.Warn("legacy group_members table left in place, unit_members already populated",
				"group_members", members, "unit_members", unitMembers)
		}
		if err != nil {
			return false, fmt.Errorf("copy group_members: %w", err)
		}
	}
	return true, nil
}

// migratePostsUnitID rebuilds posts when it still carries groupId.
func migratePostsUnitID(ctx context.Context, q querier) (bool, error) {
	hasPosts, err := tableExists(ctx, q, "posts")
	if err != nil || !hasPosts {
		return false, err
	}
	hasGroupID, err := columnExists(ctx, q, "posts", "groupId")
	if err != nil {
		return false, err
	}
	hasUnitID, err := columnExists(ctx, q, "posts", "unitId")
	if err != nil {
		return false, err
	}
	if !hasGroupID || hasUnitID {
		return false, nil
	}

	stmts := []string{
		fmt.Sprintf(postsDDL, "posts_new"),
		`INSERT INTO posts_new (id, authorAgentId, type, content, metadata, unitId, createdAt)
		 SELECT id, authorAgentId, type, content, metadata, groupId, createdAt FROM posts`,
		`DROP TABLE posts`,
		`ALTER TABLE posts_new RENAME TO posts`,
		postsIndexes,
	}
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return false, err
		}
	}
	return true, nil
}

func applyBaseSchema(ctx context.Context, q querier) (bool, error) {
	stmts := []string{agentsDDL, fmt.Sprintf(postsDDL, "posts"), unitMembersDDL, baseSchema, postsIndexes}
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return false, err
		}
	}
	return false, nil
}

func addAgentsLLMModel(ctx context.Context, q querier) (bool, error) {
	has, err := columnExists(ctx, q, "agents", "llmModel")
	if err != nil || has {
		return false, err
	}
	if _, err := q.ExecContext(ctx, `ALTER TABLE agents ADD COLUMN llmModel TEXT`); err != nil {
		return false, err
	}
	return true, nil
}
