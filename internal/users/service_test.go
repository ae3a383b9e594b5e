package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/models"
)

type fakeRepo struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
	byReset map[string]*models.User
	nextID  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:    map[string]*models.User{},
		byEmail: map[string]*models.User{},
		byReset: map[string]*models.User{},
	}
}

func (f *fakeRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, ErrDuplicateEmail
	}
	f.nextID++
	u.ID = "user-" + time.Now().Format("150405") + "-" + string(rune('a'+f.nextID))
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return f.byID[id], nil
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeRepo) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	f.byReset[token] = f.byID[userID]
	return nil
}

func (f *fakeRepo) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return f.byReset[token], nil
}

func (f *fakeRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	f.byID[userID].Password = passwordHash
	for tok, u := range f.byReset {
		if u != nil && u.ID == userID {
			delete(f.byReset, tok)
		}
	}
	return nil
}

func TestService_RegisterAndAuthenticate(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "Alice@Example.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", u.Email)
	require.NotEqual(t, "s3cret", u.Password, "password must be stored hashed")

	got, err := svc.Authenticate(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "s3cret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_RegisterValidation(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, err := svc.Register(context.Background(), "", "a@b.c", "pw")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_PasswordResetFlow(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	u, err := svc.Register(ctx, "bob", "bob@example.com", "old-pass")
	require.NoError(t, err)

	got, token, err := svc.CreateResetToken(ctx, "bob@example.com", time.Hour)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotEmpty(t, token)

	require.NoError(t, svc.ResetPassword(ctx, token, "new-pass"))

	_, err = svc.Authenticate(ctx, "bob@example.com", "old-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "bob@example.com", "new-pass")
	require.NoError(t, err)

	// token is single use
	require.ErrorIs(t, svc.ResetPassword(ctx, token, "again"), ErrResetTokenInvalid)
}

func TestService_ResetUnknownEmailIsSilent(t *testing.T) {
	svc := NewService(newFakeRepo())
	u, token, err := svc.CreateResetToken(context.Background(), "ghost@example.com", time.Hour)
	require.NoError(t, err)
	require.Nil(t, u)
	require.Empty(t, token)
}

func TestUser_PublicStripsPassword(t *testing.T) {
	u := &models.User{ID: "u1", Username: "alice", Email: "a@b.c", Password: "hash"}
	p := u.Public()
	require.Equal(t, "u1", p.ID)
	require.Equal(t, "alice", p.Username)
}
