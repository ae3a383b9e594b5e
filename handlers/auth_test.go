package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/config"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/mail"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/models"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/sessions"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/users"
)

type memUserRepo struct {
	byID map[string]*models.User
	seq  int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*models.User{}}
}

func (r *memUserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, users.ErrDuplicateEmail
		}
	}
	r.seq++
	if u.ID == "" {
		u.ID = "u" + string(rune('0'+r.seq))
	}
	r.byID[u.ID] = u
	return u, nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return nil
}

func (r *memUserRepo) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return nil, nil
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
		},
	}
}

func newAuthRig(t *testing.T) (*gin.Engine, *users.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	usersSvc := users.NewService(newMemUserRepo())
	sessionsSvc := sessions.NewService(sessions.NewRedisRepository(client, ""))
	h := NewAuthHandler(testConfig(), usersSvc, sessionsSvc, mail.NewSender(config.SMTPConfig{}))

	g := gin.New()
	h.Register(g.Group("/"))
	return g, usersSvc
}

func postJSON(t *testing.T, g *gin.Engine, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	g, _ := newAuthRig(t)

	w := postJSON(t, g, "/auth/register", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "hunter22",
	}, nil)
	require.Equal(t, 201, w.Code)

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		User         struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, "alice", resp.User.Username)
	require.NotContains(t, w.Body.String(), "password")

	// duplicate email
	w = postJSON(t, g, "/auth/register", gin.H{
		"username": "alice2", "email": "alice@example.com", "password": "x",
	}, nil)
	require.Equal(t, 409, w.Code)

	// wrong password
	w = postJSON(t, g, "/auth/login", gin.H{"email": "alice@example.com", "password": "nope"}, nil)
	require.Equal(t, 401, w.Code)

	// correct login, case-insensitive email
	w = postJSON(t, g, "/auth/login", gin.H{"email": "Alice@Example.com", "password": "hunter22"}, nil)
	require.Equal(t, 200, w.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	g, _ := newAuthRig(t)

	w := postJSON(t, g, "/auth/register", gin.H{
		"username": "bob", "email": "bob@example.com", "password": "pw",
	}, nil)
	require.Equal(t, 201, w.Code)
	var reg struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))

	w = postJSON(t, g, "/auth/refresh", gin.H{"refreshToken": reg.RefreshToken}, nil)
	require.Equal(t, 200, w.Code)
	require.Contains(t, w.Body.String(), "accessToken")

	w = postJSON(t, g, "/auth/refresh", gin.H{"refreshToken": "forged"}, nil)
	require.Equal(t, 401, w.Code)

	w = postJSON(t, g, "/auth/logout", gin.H{"refreshToken": reg.RefreshToken},
		map[string]string{"Authorization": "Bearer " + reg.AccessToken})
	require.Equal(t, 200, w.Code)

	// the refresh token is gone after logout
	w = postJSON(t, g, "/auth/refresh", gin.H{"refreshToken": reg.RefreshToken}, nil)
	require.Equal(t, 401, w.Code)
}

func TestForgotAndResetPassword(t *testing.T) {
	g, _ := newAuthRig(t)

	// unknown address still answers 200
	w := postJSON(t, g, "/auth/forgot-password", gin.H{"email": "ghost@example.com"}, nil)
	require.Equal(t, 200, w.Code)

	w = postJSON(t, g, "/auth/reset-password", gin.H{"token": "bogus", "password": "new"}, nil)
	require.Equal(t, 401, w.Code)
}

func TestParseExpFromJWT(t *testing.T) {
	g, _ := newAuthRig(t)
	w := postJSON(t, g, "/auth/register", gin.H{
		"username": "eve", "email": "eve@example.com", "password": "pw",
	}, nil)
	require.Equal(t, 201, w.Code)
	var reg struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))

	exp, err := parseExpFromJWT(reg.AccessToken)
	require.NoError(t, err)
	require.True(t, exp.After(time.Now()))

	_, err = parseExpFromJWT("not-a-jwt")
	require.Error(t, err)
}
