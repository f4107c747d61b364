package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicalrxq/member-portal/internal/members"
	"github.com/clinicalrxq/member-portal/pkg/airtable"
	pkgAuth "github.com/clinicalrxq/member-portal/pkg/auth"
	"github.com/clinicalrxq/member-portal/pkg/auth/session"
	"github.com/clinicalrxq/member-portal/pkg/config"
	pkgerrors "github.com/clinicalrxq/member-portal/pkg/errors"
	"github.com/clinicalrxq/member-portal/pkg/logger"
	"github.com/clinicalrxq/member-portal/pkg/security"
)

const invalidCredentialsMessage = "invalid email or password"

// ErrInvalidCredentials covers both an unknown email and a wrong password.
var ErrInvalidCredentials = errors.New(invalidCredentialsMessage)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Authenticate(ctx context.Context, email, password string, opts LoginOptions) (*AuthUser, error)
}

type service struct {
	members         memberRepository
	session         sessionManager
	jwtCfg          config.JWTConfig
	updateLastLogin bool
	logg            *logger.Logger
	now             func() time.Time
}

type memberRepository interface {
	FindByEmail(ctx context.Context, email string) (*members.Member, error)
	UpdateLastLogin(ctx context.Context, member *members.Member, at time.Time) (bool, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Members         memberRepository
	SessionManager  sessionManager
	JWTConfig       config.JWTConfig
	UpdateLastLogin bool
	Logger          *logger.Logger
	Now             func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Members == nil {
		return nil, fmt.Errorf("member repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		members:         params.Members,
		session:         params.SessionManager,
		jwtCfg:          params.JWTConfig,
		updateLastLogin: params.UpdateLastLogin,
		logg:            params.Logger,
		now:             now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.Authenticate(ctx, req.Email, req.Password, LoginOptions{UpdateLastLogin: s.updateLastLogin})
	if err != nil {
		return nil, err
	}

	accessID := session.NewAccessID()
	tokenPayload := pkgAuth.AccessTokenPayload{
		MemberID:           user.ID,
		Email:              user.Email,
		FirstName:          deref(user.FirstName),
		LastName:           deref(user.LastName),
		PharmacyName:       deref(user.PharmacyName),
		SubscriptionStatus: deref(user.SubscriptionStatus),
		JTI:                accessID,
	}
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), tokenPayload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Authenticate verifies credentials against the members table without issuing a session.
// The returned email is the caller's input as given; the stored value only drives the lookup.
func (s *service) Authenticate(ctx context.Context, email, password string, opts LoginOptions) (*AuthUser, error) {
	input := strings.TrimSpace(email)
	if input == "" || password == "" {
		return nil, invalidCredentials()
	}

	member, err := s.members.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, members.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, airtable.Classify(err, "lookup member")
	}
	ctx = s.logg.WithMemberID(ctx, member.ID)

	if !s.verify(ctx, member, password) {
		return nil, invalidCredentials()
	}

	user := &AuthUser{
		ID:                 member.ID,
		Email:              email,
		FirstName:          optional(member.FirstName),
		LastName:           optional(member.LastName),
		PharmacyName:       optional(member.PharmacyName),
		SubscriptionStatus: optional(member.SubscriptionStatus),
	}

	if opts.UpdateLastLogin {
		if _, err := s.members.UpdateLastLogin(ctx, member, s.now()); err != nil {
			s.logg.WarnErr(ctx, "auth.last_login.update_failed", err)
		}
	}
	return user, nil
}

// verify checks the stored hash first and falls back to the temporary password.
func (s *service) verify(ctx context.Context, member *members.Member, password string) bool {
	if hash := strings.TrimSpace(member.PasswordHash); hash != "" {
		ok, err := security.VerifyPassword(password, hash)
		if err != nil {
			s.logg.WarnErr(ctx, "auth.password_hash.unreadable", err)
		}
		if ok {
			return true
		}
	}
	if member.TemporaryPassword != "" {
		return security.EqualConstantTime(member.TemporaryPassword, password)
	}
	return false
}

func invalidCredentials() error {
	return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrInvalidCredentials, invalidCredentialsMessage)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
