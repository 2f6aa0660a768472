package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/internal/administrators"
	"github.com/angelmondragon/churchhub-backend/internal/principals"
	pkgAuth "github.com/angelmondragon/churchhub-backend/pkg/auth"
	"github.com/angelmondragon/churchhub-backend/pkg/auth/session"
	"github.com/angelmondragon/churchhub-backend/pkg/config"
	pkgdb "github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/identity"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/security"
	"github.com/google/uuid"
)

const invalidCredentialsMessage = "invalid credentials"

type resolver interface {
	Resolve(ctx context.Context, id identity.Identity) (principals.Resolution, error)
}

type administratorStore interface {
	Create(ctx context.Context, admin *models.Administrator) error
	FindByEmail(ctx context.Context, email string) (*models.Administrator, error)
	FindCredentialsByEmail(ctx context.Context, email string) (*models.Administrator, error)
	FindCredentialsByID(ctx context.Context, id uuid.UUID) (*models.Administrator, error)
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, now time.Time) error
}

type sessionManager interface {
	Start(ctx context.Context, adminID uuid.UUID) (session.Session, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (session.Session, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Verifier       identity.Verifier
	Resolver       resolver
	Administrators administratorStore
	Sessions       sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// Service signs principals in. Members and most administrators arrive with an identity
// provider token; password administrators get HS256 access tokens with refresh sessions.
type Service struct {
	verifier    identity.Verifier
	resolver    resolver
	admins      administratorStore
	sessions    sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Verifier == nil {
		return nil, fmt.Errorf("identity verifier is required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("principal resolver is required")
	}
	if params.Administrators == nil {
		return nil, fmt.Errorf("administrator repository is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &Service{
		verifier:    params.Verifier,
		resolver:    params.Resolver,
		admins:      params.Administrators,
		sessions:    params.Sessions,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Login verifies an identity-provider token and resolves, or creates, its principal.
func (s *Service) Login(ctx context.Context, idToken string) (*LoginResponse, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credential")
	}
	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	res, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Resolution: res.Kind, Principal: snapshot(res)}, nil
}

func (s *Service) AdminLogin(ctx context.Context, req AdminLoginRequest) (*TokenResponse, error) {
	admin, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.admins.TouchLogin(ctx, admin.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	admin.LastLoginAt = &now

	sess, err := s.sessions.Start(ctx, admin.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh session")
	}
	return s.issue(admin, sess, now)
}

// Refresh trades a refresh token for a new token pair. The access token may be expired
// but its signature must still verify.
func (s *Service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}
	sess, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh session")
	}
	if sess.AdminID != claims.AdminID {
		_ = s.sessions.Revoke(ctx, sess.AccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	admin, err := s.admins.FindCredentialsByID(ctx, sess.AdminID)
	if err != nil || !admin.Active {
		_ = s.sessions.Revoke(ctx, sess.AccessID)
		if err != nil && !pkgdb.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load administrator")
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return s.issue(admin, sess, s.now())
}

// Logout revokes the session bound to the access token's jti.
func (s *Service) Logout(ctx context.Context, accessID string) error {
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, adminID uuid.UUID, req ChangePasswordRequest) error {
	admin, err := s.admins.FindCredentialsByID(ctx, adminID)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "administrator not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load administrator")
	}
	if admin.PasswordHash == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "password login is not enabled for this account")
	}
	ok, err := security.VerifyPassword(req.CurrentPassword, *admin.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.Validation("invalid password", pkgerrors.FieldError{Field: "current_password", Message: "is incorrect"})
	}
	if err := security.CheckPasswordPolicy(req.NewPassword); err != nil {
		return pkgerrors.Validation("invalid password", pkgerrors.FieldError{Field: "new_password", Message: err.Error()})
	}
	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.admins.UpdatePasswordHash(ctx, adminID, hash, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "admin_id", adminID.String()), "administrator password changed")
	}
	return nil
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*models.Administrator, error) {
	input := administrators.NormalizeEmail(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	admin, err := s.admins.FindCredentialsByEmail(ctx, input)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup administrator")
	}
	if admin.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	valid, err := security.VerifyPassword(password, *admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !admin.Active {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if security.NeedsRehash(*admin.PasswordHash, s.passwordCfg) {
		s.rehash(ctx, admin, password)
	}
	return admin, nil
}

// rehash upgrades a stored hash to the current argon2 parameters. Failures
// are logged only; the login already succeeded.
func (s *Service) rehash(ctx context.Context, admin *models.Administrator, password string) {
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err == nil {
		err = s.admins.UpdatePasswordHash(ctx, admin.ID, hash, s.now())
	}
	if err == nil {
		admin.PasswordHash = &hash
	}
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "admin_id", admin.ID.String())
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.password.rehash_failed")
		return
	}
	s.logg.Info(ctx, "auth.password.rehashed")
}

func (s *Service) issue(admin *models.Administrator, sess session.Session, now time.Time) (*TokenResponse, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		AdminID: admin.ID,
		Level:   admin.AdminLevel,
		JTI:     sess.AccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenResponse{
		AccessToken:   token,
		RefreshToken:  sess.RefreshToken,
		TokenType:     "Bearer",
		ExpiresIn:     s.jwtCfg.ExpirationMinutes * 60,
		Administrator: administrators.FromModel(admin),
	}, nil
}
