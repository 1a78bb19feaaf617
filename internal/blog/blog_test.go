package blog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blog/internal/db"
	"blog/internal/models"
)

// refusingStore fails the test on any store access.
type refusingStore struct {
	t *testing.T
}

func (s refusingStore) fail() { s.t.Fatal("store must not be reached") }

func (s refusingStore) CreatePost(context.Context, models.Post) (*models.Post, error) {
	s.fail()
	return nil, nil
}
func (s refusingStore) Post(context.Context, int64) (*models.Post, error) {
	s.fail()
	return nil, nil
}
func (s refusingStore) PostViews(context.Context) ([]models.PostView, error) {
	s.fail()
	return nil, nil
}
func (s refusingStore) UpdatePost(context.Context, models.Post) (*models.Post, error) {
	s.fail()
	return nil, nil
}
func (s refusingStore) DeletePost(context.Context, int64) error {
	s.fail()
	return nil
}
func (s refusingStore) CreateComment(context.Context, models.Comment) (*models.Comment, error) {
	s.fail()
	return nil, nil
}
func (s refusingStore) CommentViewsForPost(context.Context, int64) ([]models.CommentView, error) {
	s.fail()
	return nil, nil
}
func (s refusingStore) UserByID(context.Context, int64) (*models.User, error) {
	s.fail()
	return nil, nil
}

type fixture struct {
	svc    *Service
	store  *models.Store
	admin  models.Actor
	member models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	store := models.NewStore(database)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	admin, err := store.CreateUser(ctx, "a@x.com", "A", "hash")
	require.NoError(t, err)
	member, err := store.CreateUser(ctx, "b@x.com", "B", "hash")
	require.NoError(t, err)

	svc := NewService(store, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC) }
	return &fixture{
		svc:    svc,
		store:  store,
		admin:  models.Authenticated(admin),
		member: models.Authenticated(member),
	}
}

var samplePost = PostInput{Title: "T", Subtitle: "S", Body: "B", ImgURL: "https://x/y.png"}

func TestAddNewPost_Admin(t *testing.T) {
	f := newFixture(t)

	post, err := f.svc.AddNewPost(context.Background(), f.admin, samplePost)
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID(), post.AuthorID)
	assert.Equal(t, "T", post.Title)
	assert.Equal(t, "October 19, 2026", post.Date)

	stored, err := f.store.Post(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID(), stored.AuthorID)
}

func TestAddNewPost_Forbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, actor := range []models.Actor{f.member, models.Anonymous} {
		_, err := f.svc.AddNewPost(ctx, actor, samplePost)
		assert.ErrorIs(t, err, models.ErrForbidden)
	}
	posts, err := f.store.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestAddNewPost_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bad := []PostInput{
		{Subtitle: "S", Body: "B", ImgURL: "https://x/y.png"},
		{Title: "T", Subtitle: "S", Body: "B", ImgURL: "not a url"},
		{Title: "T", Subtitle: "S", Body: "B", ImgURL: "/relative.png"},
	}
	for _, in := range bad {
		_, err := f.svc.AddNewPost(ctx, f.admin, in)
		assert.ErrorIs(t, err, models.ErrValidation)
	}

	_, err := f.svc.AddNewPost(ctx, f.admin, samplePost)
	require.NoError(t, err)
	_, err = f.svc.AddNewPost(ctx, f.admin, samplePost)
	assert.ErrorIs(t, err, models.ErrDuplicateTitle)
}

func TestEditPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post, err := f.svc.AddNewPost(ctx, f.admin, samplePost)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC) }
	edit := PostInput{Title: "T2", Subtitle: "S2", Body: "B2", ImgURL: "https://x/z.png"}

	_, err = f.svc.EditPost(ctx, f.member, post.ID, edit)
	assert.ErrorIs(t, err, models.ErrForbidden)

	updated, err := f.svc.EditPost(ctx, f.admin, post.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "https://x/z.png", updated.ImgURL)
	assert.Equal(t, post.Date, updated.Date)
	assert.Equal(t, post.AuthorID, updated.AuthorID)

	_, err = f.svc.EditPost(ctx, f.admin, 999, edit)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post, err := f.svc.AddNewPost(ctx, f.admin, samplePost)
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, f.member, post.ID, CommentInput{Text: "nice"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeletePost(ctx, f.member, post.ID), models.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeletePost(ctx, models.Anonymous, post.ID), models.ErrForbidden)

	require.NoError(t, f.svc.DeletePost(ctx, f.admin, post.ID))
	comments, err := f.store.CommentsForPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	assert.ErrorIs(t, f.svc.DeletePost(ctx, f.admin, post.ID), models.ErrNotFound)
}

func TestAddComment_AuthorIsActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post, err := f.svc.AddNewPost(ctx, f.admin, samplePost)
	require.NoError(t, err)

	c, err := f.svc.AddComment(ctx, f.member, post.ID, CommentInput{Text: "first"})
	require.NoError(t, err)
	assert.Equal(t, f.member.ID(), c.AuthorID)
	assert.Equal(t, post.ID, c.PostID)

	page, err := f.svc.ShowPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", page.Author.Name)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, "B", page.Comments[0].AuthorName)
}

func TestAddComment_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddComment(ctx, f.member, 404, CommentInput{Text: "lost"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.svc.AddComment(ctx, f.member, 1, CommentInput{Text: "  "})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAnonymousNeverReachesStore(t *testing.T) {
	svc := NewService(refusingStore{t: t}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.AddComment(ctx, models.Anonymous, 1, CommentInput{Text: "hi"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.AddNewPost(ctx, models.Anonymous, samplePost)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestListPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, title := range []string{"one", "two"} {
		in := samplePost
		in.Title = title
		_, err := f.svc.AddNewPost(ctx, f.admin, in)
		require.NoError(t, err)
	}
	posts, err := f.svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "one", posts[0].Title)
	assert.Equal(t, "A", posts[1].AuthorName)
}
