// Package blog holds the guarded blog operations. Each mutation checks the
// authorization policy before the store is called.
package blog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"blog/internal/models"
	"blog/internal/policy"
)

// DateLayout is how a post's creation date is stored and shown.
const DateLayout = "January 02, 2006"

type Store interface {
	CreatePost(ctx context.Context, p models.Post) (*models.Post, error)
	Post(ctx context.Context, id int64) (*models.Post, error)
	PostViews(ctx context.Context) ([]models.PostView, error)
	UpdatePost(ctx context.Context, p models.Post) (*models.Post, error)
	DeletePost(ctx context.Context, id int64) error
	CreateComment(ctx context.Context, c models.Comment) (*models.Comment, error)
	CommentViewsForPost(ctx context.Context, postID int64) ([]models.CommentView, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

type PostInput struct {
	Title    string
	Subtitle string
	Body     string
	ImgURL   string
}

func (in PostInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Subtitle) == "" ||
		strings.TrimSpace(in.Body) == "" || strings.TrimSpace(in.ImgURL) == "" {
		return fmt.Errorf("title, subtitle, body and image url are required: %w", models.ErrValidation)
	}
	u, err := url.Parse(in.ImgURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("image url %q is not an absolute url: %w", in.ImgURL, models.ErrValidation)
	}
	return nil
}

// CommentInput carries only the text; the author is always the actor.
type CommentInput struct {
	Text string
}

// PostPage is a post with its author and its comments in creation order.
type PostPage struct {
	Post     *models.Post
	Author   *models.User
	Comments []models.CommentView
}

func (s *Service) ListPosts(ctx context.Context) ([]models.PostView, error) {
	return s.store.PostViews(ctx)
}

func (s *Service) Post(ctx context.Context, id int64) (*models.Post, error) {
	return s.store.Post(ctx, id)
}

func (s *Service) ShowPost(ctx context.Context, id int64) (*PostPage, error) {
	post, err := s.store.Post(ctx, id)
	if err != nil {
		return nil, err
	}
	author, err := s.store.UserByID(ctx, post.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("author of post %d: %w", id, err)
	}
	comments, err := s.store.CommentViewsForPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PostPage{Post: post, Author: author, Comments: comments}, nil
}

// AddNewPost stores a post authored by actor, dated today.
func (s *Service) AddNewPost(ctx context.Context, actor models.Actor, in PostInput) (*models.Post, error) {
	if err := policy.Require(policy.CanCreatePost(actor)); err != nil {
		s.denied(actor, "create post", 0)
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	post, err := s.store.CreatePost(ctx, models.Post{
		AuthorID: actor.ID(),
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Body:     in.Body,
		ImgURL:   in.ImgURL,
		Date:     s.now().Format(DateLayout),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("post created", zap.Int64("post_id", post.ID), zap.Int64("user_id", actor.ID()))
	return post, nil
}

// EditPost replaces the editable fields of a post. The author and the
// creation date never change.
func (s *Service) EditPost(ctx context.Context, actor models.Actor, id int64, in PostInput) (*models.Post, error) {
	post, err := s.store.Post(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(policy.CanEditPost(actor, post)); err != nil {
		s.denied(actor, "edit post", id)
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	post.Title = in.Title
	post.Subtitle = in.Subtitle
	post.Body = in.Body
	post.ImgURL = in.ImgURL
	updated, err := s.store.UpdatePost(ctx, *post)
	if err != nil {
		return nil, err
	}
	s.log.Info("post edited", zap.Int64("post_id", id), zap.Int64("user_id", actor.ID()))
	return updated, nil
}

// DeletePost removes a post and every comment on it.
func (s *Service) DeletePost(ctx context.Context, actor models.Actor, id int64) error {
	post, err := s.store.Post(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Require(policy.CanDeletePost(actor, post)); err != nil {
		s.denied(actor, "delete post", id)
		return err
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return err
	}
	s.log.Info("post deleted", zap.Int64("post_id", id), zap.Int64("user_id", actor.ID()))
	return nil
}

// AddComment stores a comment on post postID written by actor.
func (s *Service) AddComment(ctx context.Context, actor models.Actor, postID int64, in CommentInput) (*models.Comment, error) {
	if err := policy.Require(policy.CanComment(actor)); err != nil {
		s.denied(actor, "comment", postID)
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("comment text is required: %w", models.ErrValidation)
	}
	if _, err := s.store.Post(ctx, postID); err != nil {
		return nil, err
	}
	c, err := s.store.CreateComment(ctx, models.Comment{
		AuthorID: actor.ID(),
		PostID:   postID,
		Text:     in.Text,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("comment added",
		zap.Int64("comment_id", c.ID),
		zap.Int64("post_id", postID),
		zap.Int64("user_id", actor.ID()))
	return c, nil
}

func (s *Service) denied(actor models.Actor, action string, postID int64) {
	s.log.Warn("action denied",
		zap.String("action", action),
		zap.String("role", actor.Role()),
		zap.Int64("user_id", actor.ID()),
		zap.Int64("post_id", postID))
}
