package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/users"
	pkgAuth "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/auth"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/google"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

// Service resolves external identities into local users and sessions.
type Service interface {
	SignInWithGoogle(ctx context.Context, credential string) (*SignInResponse, error)
	CurrentUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	Logout(ctx context.Context, accessID string) error
}

type userRepository interface {
	UpsertByEmail(ctx context.Context, params users.UpsertParams) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type sessionManager interface {
	Open(ctx context.Context, userID uuid.UUID) (string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Verifier       google.IdentityVerifier
	UserRepo       userRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	App            config.AppConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	verifier google.IdentityVerifier
	users    userRepository
	sessions sessionManager
	jwtCfg   config.JWTConfig
	app      config.AppConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Verifier == nil {
		return nil, fmt.Errorf("identity verifier is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		verifier: params.Verifier,
		users:    params.UserRepo,
		sessions: params.SessionManager,
		jwtCfg:   params.JWTConfig,
		app:      params.App,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) SignInWithGoogle(ctx context.Context, credential string) (*SignInResponse, error) {
	identity, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid identity token")
	}

	now := s.now().UTC()
	role := enums.UserRoleBuyer
	if s.app.IsAdminEmail(identity.Email) {
		role = enums.UserRoleAdmin
	}
	var picture *string
	if identity.Picture != "" {
		picture = &identity.Picture
	}
	name := identity.Name
	if name == "" {
		name = identity.Email
	}

	user, err := s.users.UpsertByEmail(ctx, users.UpsertParams{
		Email:   identity.Email,
		Name:    name,
		Picture: picture,
		Role:    role,
		LoginAt: now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve user")
	}

	accessID, err := s.sessions.Open(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "google sign-in")
	return &SignInResponse{
		Token:     token,
		ExpiresIn: int64(s.jwtCfg.Expiry().Seconds()),
		User:      users.FromModel(user),
	}, nil
}

func (s *service) CurrentUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return users.FromModel(user), nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}
