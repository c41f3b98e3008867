package auth

import (
	"context"
	"testing"

	"github.com/freshbox/freshbox-backend/internal/users"
	pkgAuth "github.com/freshbox/freshbox-backend/pkg/auth"
	"github.com/freshbox/freshbox-backend/pkg/auth/session"
	"github.com/freshbox/freshbox-backend/pkg/config"
	"github.com/freshbox/freshbox-backend/pkg/db/dbtest"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "freshbox", ExpirationMinutes: 30}

type memorySessions struct {
	tokens map[string]string
}

func (m *memorySessions) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	m.tokens[accessID] = token
	return token, nil
}

func (m *memorySessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if stored, ok := m.tokens[oldAccessID]; !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(m.tokens, oldAccessID)
	id := session.NewAccessID()
	token := "refresh-" + id
	m.tokens[id] = token
	return id, token, nil
}

func (m *memorySessions) Revoke(_ context.Context, accessID string) error {
	delete(m.tokens, accessID)
	return nil
}

type fixture struct {
	svc      Service
	sessions *memorySessions
	repo     *users.Repository
	admin    *models.AdminUser
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	repo := users.NewRepository(conn)

	hash, err := security.HashPassword("correct horse", config.PasswordConfig{
		ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
	})
	require.NoError(t, err)
	admin, err := repo.Create(context.Background(), users.CreateAdminDTO{Email: "Ops@FreshBox.test", PasswordHash: hash, Name: "Ops"})
	require.NoError(t, err)

	sessions := &memorySessions{tokens: map[string]string{}}
	svc, err := NewService(ServiceParams{UserRepo: repo, SessionManager: sessions, JWTConfig: testJWT})
	require.NoError(t, err)
	return fixture{svc: svc, sessions: sessions, repo: repo, admin: admin}
}

func TestLoginIssuesAdminToken(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Login(context.Background(), LoginRequest{Email: " OPS@freshbox.test ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, 1800, resp.ExpiresIn)
	require.NotNil(t, resp.User)
	assert.Equal(t, "ops@freshbox.test", resp.User.Email)
	assert.NotNil(t, resp.User.LastLoginAt)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID, claims.AdminID)
	assert.Equal(t, enums.AdminRoleAdmin, claims.Role)
	assert.Equal(t, resp.RefreshToken, f.sessions.tokens[claims.ID])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, req := range []LoginRequest{
		{Email: "ops@freshbox.test", Password: "wrong"},
		{Email: "nobody@freshbox.test", Password: "correct horse"},
		{Email: "", Password: "correct horse"},
	} {
		_, err := f.svc.Login(ctx, req)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
		assert.Equal(t, invalidCredentialsMessage, pkgerrors.As(err).Message())
	}
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginRequest{Email: "ops@freshbox.test", Password: "correct horse"})
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	require.NoError(t, f.svc.Logout(ctx, refreshed.AccessToken))
	assert.Empty(t, f.sessions.tokens)

	assert.True(t, pkgerrors.IsCode(f.svc.Logout(ctx, "garbage"), pkgerrors.CodeUnauthorized))
}
