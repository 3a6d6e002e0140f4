package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	SignIn(ctx context.Context, req types.SignInRequest) (*SignInResult, error)
	SignOut(ctx context.Context, accessID string) error
	CurrentUser(ctx context.Context, userID string) (types.User, error)
}

// SignInResult is the authenticated user plus the session token the
// controller sets as a cookie.
type SignInResult struct {
	User      types.User
	Token     string
	ExpiresAt time.Time
}

type userDirectory interface {
	Authenticate(username, password string) (types.User, error)
	User(id string) (types.User, error)
}

type sessionManager interface {
	Open(ctx context.Context, accessID, userID string) error
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users          userDirectory
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	Now            func() time.Time
}

type service struct {
	users   userDirectory
	session sessionManager
	jwtCfg  config.JWTConfig
	now     func() time.Time
}

// NewService constructs a sign-in service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		users:   params.Users,
		session: params.SessionManager,
		jwtCfg:  params.JWTConfig,
		now:     params.Now,
	}, nil
}

func (s *service) SignIn(ctx context.Context, req types.SignInRequest) (*SignInResult, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	user, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	roles := make([]enums.Role, 0, len(user.Roles))
	for _, raw := range user.Roles {
		role, err := enums.ParseRole(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid stored role")
		}
		roles = append(roles, role)
	}

	now := s.now()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintSessionToken(s.jwtCfg, now, pkgAuth.SessionPayload{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    roles,
		JTI:      accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}
	if err := s.session.Open(ctx, accessID, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}

	return &SignInResult{User: user, Token: token, ExpiresAt: now.Add(s.jwtCfg.Expiration())}, nil
}

// SignOut revokes the session. Signing out without a session is a no-op.
func (s *service) SignOut(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return nil
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) CurrentUser(_ context.Context, userID string) (types.User, error) {
	return s.users.User(userID)
}
