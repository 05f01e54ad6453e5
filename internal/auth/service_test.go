package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/users"
	pkgAuth "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/auth"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/dbtest"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/google"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

type stubVerifier struct {
	identities map[string]*google.Identity
}

func (s stubVerifier) Verify(_ context.Context, token string) (*google.Identity, error) {
	if id, ok := s.identities[token]; ok {
		return id, nil
	}
	return nil, errors.New("token signature invalid")
}

type stubSessions struct {
	opened  []uuid.UUID
	revoked []string
}

func (s *stubSessions) Open(_ context.Context, userID uuid.UUID) (string, error) {
	s.opened = append(s.opened, userID)
	return "sess-" + userID.String(), nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

var jwtCfg = config.JWTConfig{Secret: "test-secret", Issuer: "project-bazaar", ExpirationMinutes: 1440}

func newTestService(t *testing.T, sessions *stubSessions) Service {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Verifier: stubVerifier{identities: map[string]*google.Identity{
			"buyer-token": {Subject: "1", Email: "asha@example.com", Name: "Asha", Picture: "https://lh3/pic"},
			"admin-token": {Subject: "2", Email: "owner@bazaar.test", Name: "Owner"},
		}},
		UserRepo:       users.NewRepository(conn),
		SessionManager: sessions,
		JWTConfig:      jwtCfg,
		App:            config.AppConfig{AdminEmails: []string{"Owner@Bazaar.test"}},
		Logger:         logger.Nop(),
		Now:            func() time.Time { return time.Now() },
	})
	require.NoError(t, err)
	return svc
}

func TestSignInWithGoogleIssuesDayLongToken(t *testing.T) {
	sessions := &stubSessions{}
	svc := newTestService(t, sessions)

	resp, err := svc.SignInWithGoogle(context.Background(), "buyer-token")
	require.NoError(t, err)
	require.Equal(t, "asha@example.com", resp.User.Email)
	require.Equal(t, enums.UserRoleBuyer, resp.User.Role)
	require.Equal(t, int64(86400), resp.ExpiresIn)

	claims, err := pkgAuth.ParseAccessToken(jwtCfg, resp.Token)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, claims.UserID)
	require.Equal(t, "asha@example.com", claims.Email)
	require.Equal(t, "sess-"+resp.User.ID.String(), claims.ID)
	require.WithinDuration(t, claims.IssuedAt.Add(24*time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestSignInTwiceReusesUser(t *testing.T) {
	sessions := &stubSessions{}
	svc := newTestService(t, sessions)
	ctx := context.Background()

	first, err := svc.SignInWithGoogle(ctx, "buyer-token")
	require.NoError(t, err)
	second, err := svc.SignInWithGoogle(ctx, "buyer-token")
	require.NoError(t, err)
	require.Equal(t, first.User.ID, second.User.ID)
	require.Len(t, sessions.opened, 2)
}

func TestSignInGrantsAdminRole(t *testing.T) {
	svc := newTestService(t, &stubSessions{})
	resp, err := svc.SignInWithGoogle(context.Background(), "admin-token")
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleAdmin, resp.User.Role)
}

func TestSignInRejectsBadToken(t *testing.T) {
	svc := newTestService(t, &stubSessions{})
	_, err := svc.SignInWithGoogle(context.Background(), "forged")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestCurrentUserAndLogout(t *testing.T) {
	sessions := &stubSessions{}
	svc := newTestService(t, sessions)
	ctx := context.Background()

	resp, err := svc.SignInWithGoogle(ctx, "buyer-token")
	require.NoError(t, err)

	me, err := svc.CurrentUser(ctx, resp.User.ID)
	require.NoError(t, err)
	require.Equal(t, resp.User.Email, me.Email)

	_, err = svc.CurrentUser(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	require.NoError(t, svc.Logout(ctx, "sess-1"))
	require.Equal(t, []string{"sess-1"}, sessions.revoked)
}
