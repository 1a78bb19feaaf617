package models

import "context"

// CreateComment inserts c and returns the stored row. A missing author or
// post surfaces as ErrNotFound through the foreign keys.
func (s *Store) CreateComment(ctx context.Context, c Comment) (*Comment, error) {
	res, err := s.db.NamedExecContext(ctx, `INSERT INTO comments (author_id, post_id, text)
		VALUES (:author_id, :post_id, :text)`, c)
	if err != nil {
		return nil, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.Comment(ctx, id)
}

func (s *Store) Comment(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	err := s.db.GetContext(ctx, &c, `SELECT id, author_id, post_id, text, created_at FROM comments WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "comment")
	}
	return &c, nil
}

// CommentsForPost returns the comments on a post in creation order.
func (s *Store) CommentsForPost(ctx context.Context, postID int64) ([]Comment, error) {
	cs := []Comment{}
	err := s.db.SelectContext(ctx, &cs, `SELECT id, author_id, post_id, text, created_at
		FROM comments WHERE post_id = ? ORDER BY id`, postID)
	return cs, err
}

func (s *Store) CommentViewsForPost(ctx context.Context, postID int64) ([]CommentView, error) {
	views := []CommentView{}
	err := s.db.SelectContext(ctx, &views, `SELECT c.id, c.author_id, c.post_id, c.text, c.created_at,
		u.name AS author_name, u.email AS author_email
		FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ? ORDER BY c.id`, postID)
	return views, err
}
