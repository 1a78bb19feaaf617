package models

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const postColumns = `id, author_id, title, subtitle, body, img_url, date, created_at`

// CreatePost inserts p and returns the stored row. p.ID is ignored.
func (s *Store) CreatePost(ctx context.Context, p Post) (*Post, error) {
	res, err := s.db.NamedExecContext(ctx, `INSERT INTO posts (author_id, title, subtitle, body, img_url, date)
		VALUES (:author_id, :title, :subtitle, :body, :img_url, :date)`, p)
	if err != nil {
		return nil, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.Post(ctx, id)
}

func (s *Store) Post(ctx context.Context, id int64) (*Post, error) {
	var p Post
	if err := s.db.GetContext(ctx, &p, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "post")
	}
	return &p, nil
}

// ListPosts returns every post in ascending id (insertion) order.
func (s *Store) ListPosts(ctx context.Context) ([]Post, error) {
	posts := []Post{}
	err := s.db.SelectContext(ctx, &posts, `SELECT `+postColumns+` FROM posts ORDER BY id`)
	return posts, err
}

// PostViews is ListPosts with each author's name attached.
func (s *Store) PostViews(ctx context.Context) ([]PostView, error) {
	views := []PostView{}
	err := s.db.SelectContext(ctx, &views, `SELECT p.id, p.author_id, p.title, p.subtitle, p.body, p.img_url, p.date, p.created_at,
		u.name AS author_name
		FROM posts p JOIN users u ON u.id = p.author_id
		ORDER BY p.id`)
	return views, err
}

func (s *Store) PostsByAuthor(ctx context.Context, authorID int64) ([]Post, error) {
	posts := []Post{}
	err := s.db.SelectContext(ctx, &posts, `SELECT `+postColumns+` FROM posts WHERE author_id = ? ORDER BY id`, authorID)
	return posts, err
}

// UpdatePost rewrites the editable fields of post p.ID: title, subtitle,
// body and img_url. The author and date are fixed at creation.
func (s *Store) UpdatePost(ctx context.Context, p Post) (*Post, error) {
	res, err := s.db.NamedExecContext(ctx, `UPDATE posts
		SET title = :title, subtitle = :subtitle, body = :body, img_url = :img_url
		WHERE id = :id`, p)
	if err != nil {
		return nil, translate(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, fmt.Errorf("post %d: %w", p.ID, ErrNotFound)
	}
	return s.Post(ctx, p.ID)
}

// DeletePost removes a post together with its comments in one transaction.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		return nil
	})
}
