package auth

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blog/internal/db"
	"blog/internal/models"
)

func newTestService(t *testing.T) (*Service, *models.Store) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	store := models.NewStore(database)
	t.Cleanup(func() { store.Close() })

	svc, err := NewService(store, NewHasher(1000), zap.NewNop())
	require.NoError(t, err)
	return svc, store
}

func TestRegisterThenVerify(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw", Name: "A"})
	require.NoError(t, err)
	assert.NotEqual(t, "pw", registered.PasswordHash)

	verified, err := svc.Verify(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, verified.ID)
	assert.Equal(t, registered.Email, verified.Email)
	assert.Equal(t, registered.Name, verified.Name)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw", Name: "A"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "other", Name: "B"})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	n, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// the first password still works
	_, err = svc.Verify(ctx, "a@x.com", "pw")
	assert.NoError(t, err)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	for _, in := range []RegisterInput{
		{Password: "pw", Name: "A"},
		{Email: "a@x.com", Name: "A"},
		{Email: "a@x.com", Password: "pw", Name: "  "},
	} {
		_, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, models.ErrValidation)
	}
}

func TestRegister_FirstUserIsAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw", Name: "A"})
	require.NoError(t, err)
	b, err := svc.Register(ctx, RegisterInput{Email: "b@x.com", Password: "pw", Name: "B"})
	require.NoError(t, err)

	assert.True(t, a.IsAdmin())
	assert.False(t, b.IsAdmin())
}

func TestVerify_Failures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw", Name: "A"})
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidPassword)

	_, err = svc.Verify(ctx, "nobody@x.com", "pw")
	assert.ErrorIs(t, err, models.ErrUnknownEmail)
}

func TestRegister_Concurrent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	const n = 20
	distinct := make([]error, n)
	shared := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, distinct[i] = svc.Register(ctx, RegisterInput{Email: fmt.Sprintf("u%d@x.com", i), Password: "pw", Name: "U"})
		}(i)
		go func(i int) {
			defer wg.Done()
			_, shared[i] = svc.Register(ctx, RegisterInput{Email: "same@x.com", Password: "pw", Name: "S"})
		}(i)
	}
	wg.Wait()

	for _, err := range distinct {
		assert.NoError(t, err)
	}
	var ok, dup int
	for _, err := range shared {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, models.ErrDuplicateEmail):
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)

	count, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, n+1, count)

	emails := []string{"same@x.com"}
	for i := 0; i < n; i++ {
		emails = append(emails, fmt.Sprintf("u%d@x.com", i))
	}
	admins := 0
	for _, email := range emails {
		u, err := store.UserByEmail(ctx, email)
		require.NoError(t, err)
		if u.IsAdmin() {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}
