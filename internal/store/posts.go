package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rcliao/unit/internal/model"
)

const postColumns = `id, authorAgentId, type, content, metadata, unitId, createdAt`

func (s *SQLiteStore) CreatePost(ctx context.Context, p CreatePostParams) (*model.Post, error) {
	if err := agentExists(ctx, s.db, p.AuthorAgentID); err != nil {
		return nil, err
	}
	if p.UnitID != "" {
		if _, err := getUnitRow(ctx, s.db, p.UnitID); err != nil {
			return nil, err
		}
	}

	var metadata any
	if p.Metadata != nil {
		b, err := json.Marshal(p.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		metadata = string(b)
	}

	now := model.Now()
	post := &model.Post{
		ID:            newID(),
		AuthorAgentID: p.AuthorAgentID,
		Type:          p.Type,
		Content:       p.Content,
		Metadata:      p.Metadata,
		UnitID:        p.UnitID,
		CreatedAt:     now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.AuthorAgentID, string(post.Type), post.Content, metadata,
		nullString(post.UnitID), model.FormatTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return post, nil
}

func (s *SQLiteStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Post not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPosts returns posts matching the filter, newest first.
func (s *SQLiteStore) ListPosts(ctx context.Context, f PostFilter) ([]model.Post, error) {
	var where []string
	var args []any

	if f.AuthorAgentID != "" {
		where = append(where, "authorAgentId = ?")
		args = append(args, f.AuthorAgentID)
	}
	if f.UnitID != "" {
		where = append(where, "unitId = ?")
		args = append(args, f.UnitID)
	}
	if f.SubscribedAgentID != "" {
		where = append(where, "unitId IN (SELECT unitId FROM unit_members WHERE agentId = ?)")
		args = append(args, f.SubscribedAgentID)
	}

	query := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY createdAt DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func scanPost(row scanner) (model.Post, error) {
	var p model.Post
	var typ, createdAt string
	var metadata, unitID sql.NullString

	err := row.Scan(&p.ID, &p.AuthorAgentID, &typ, &p.Content, &metadata, &unitID, &createdAt)
	if err != nil {
		return p, err
	}

	p.Type = model.PostType(typ)
	p.UnitID = unitID.String
	p.CreatedAt = parseTime(createdAt)
	if metadata.Valid && metadata.String != "" {
		json.Unmarshal([]byte(metadata.String), &p.Metadata)
	}
	return p, nil
}
