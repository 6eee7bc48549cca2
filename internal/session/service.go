// Package session orchestrates storefront authentication: backend
// login on the user's behalf, the browser-facing JWT whose jti keys
// the server-side session, and transparent refresh of the backend
// token pair.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/peykantravel/peykan-storefront/pkg/auth"
	authsession "github.com/peykantravel/peykan-storefront/pkg/auth/session"
	"github.com/peykantravel/peykan-storefront/pkg/config"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

// authBackend is the slice of the upstream client auth needs.
type authBackend interface {
	Login(ctx context.Context, req upstream.LoginRequest) (*upstream.AuthResponse, error)
	Register(ctx context.Context, req upstream.RegisterRequest) (*upstream.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	RefreshToken(ctx context.Context, refresh string) (*upstream.TokenPair, error)
	RequestOTP(ctx context.Context, req upstream.OTPRequest) error
	VerifyOTP(ctx context.Context, req upstream.OTPVerifyRequest) (*upstream.AuthResponse, error)
	ForgotPassword(ctx context.Context, req upstream.ForgotPasswordRequest) error
	ResetPasswordConfirm(ctx context.Context, req upstream.ResetPasswordConfirmRequest) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
	StoreUpstreamTokens(ctx context.Context, accessID string, tokens authsession.UpstreamTokens) error
	UpstreamTokensFor(ctx context.Context, accessID string) (*authsession.UpstreamTokens, error)
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Auth is the browser-facing result of login, register, and refresh.
// The backend pair never appears here.
type Auth struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	User         upstream.User
}

// Service drives the session lifecycle.
type Service struct {
	backend         authBackend
	sessions        sessionManager
	jwtCfg          config.JWTConfig
	logg            *logger.Logger
	defaultCurrency enums.Currency
	now             func() time.Time
}

// NewService builds the session service.
func NewService(backend authBackend, sessions sessionManager, jwtCfg config.JWTConfig, logg *logger.Logger, defaultCurrency enums.Currency) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if !defaultCurrency.IsValid() {
		return nil, fmt.Errorf("invalid default currency %q", defaultCurrency)
	}
	return &Service{
		backend:         backend,
		sessions:        sessions,
		jwtCfg:          jwtCfg,
		logg:            logg,
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}, nil
}

// Login authenticates against the backend and establishes a session.
func (s *Service) Login(ctx context.Context, req upstream.LoginRequest) (*Auth, error) {
	resp, err := s.backend.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, resp)
}

// Register creates a backend account and establishes a session.
func (s *Service) Register(ctx context.Context, req upstream.RegisterRequest) (*Auth, error) {
	resp, err := s.backend.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, resp)
}

// VerifyOTP exchanges a one-time code for a session.
func (s *Service) VerifyOTP(ctx context.Context, req upstream.OTPVerifyRequest) (*Auth, error) {
	resp, err := s.backend.VerifyOTP(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, resp)
}

// RequestOTP proxies the one-time code request.
func (s *Service) RequestOTP(ctx context.Context, req upstream.OTPRequest) error {
	return s.backend.RequestOTP(ctx, req)
}

// ForgotPassword proxies the password reset start.
func (s *Service) ForgotPassword(ctx context.Context, req upstream.ForgotPasswordRequest) error {
	return s.backend.ForgotPassword(ctx, req)
}

// ResetPasswordConfirm proxies the password reset completion.
func (s *Service) ResetPasswordConfirm(ctx context.Context, req upstream.ResetPasswordConfirmRequest) error {
	return s.backend.ResetPasswordConfirm(ctx, req)
}

func (s *Service) establish(ctx context.Context, resp *upstream.AuthResponse) (*Auth, error) {
	accessID := authsession.NewAccessID()
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create session")
	}
	if err := s.sessions.StoreUpstreamTokens(ctx, accessID, authsession.UpstreamTokens{
		Access:   resp.Tokens.Access,
		Refresh:  resp.Tokens.Refresh,
		Currency: s.defaultCurrency.String(),
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store backend tokens")
	}

	access, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID:   resp.User.ID,
		Email:    resp.User.Email,
		IsAgent:  resp.User.IsAgent,
		Currency: s.defaultCurrency,
		JTI:      accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &Auth{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.jwtCfg.ExpirationMinutes * 60,
		User:         resp.User,
	}, nil
}

// Refresh rotates the session behind an expired access token and mints
// a new JWT carrying the same identity under the new session id.
func (s *Service) Refresh(ctx context.Context, accessToken, refreshToken string) (*Auth, error) {
	claims, err := auth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}
	newID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, authsession.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	currency := claims.Currency
	if tokens, err := s.sessions.UpstreamTokensFor(ctx, newID); err == nil && tokens.Currency != "" {
		if parsed, err := enums.ParseCurrency(tokens.Currency); err == nil {
			currency = parsed
		}
	}

	access, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID:   claims.UserID,
		Email:    claims.Email,
		IsAgent:  claims.IsAgent,
		Currency: currency,
		JTI:      newID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &Auth{
		AccessToken:  access,
		RefreshToken: newRefresh,
		ExpiresIn:    s.jwtCfg.ExpirationMinutes * 60,
		User: upstream.User{
			ID:      claims.UserID,
			Email:   claims.Email,
			IsAgent: claims.IsAgent,
		},
	}, nil
}

// Logout revokes the session and invalidates the backend pair. Backend
// failures are logged but do not block local revocation.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	claims, err := auth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}
	if tokens, err := s.sessions.UpstreamTokensFor(ctx, claims.ID); err == nil {
		if err := s.backend.Logout(ctx, tokens.Access); err != nil {
			s.logWarn(ctx, "backend logout failed", err)
		}
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

// UpstreamToken returns the backend access token for a session id.
func (s *Service) UpstreamToken(ctx context.Context, sessionID string) (string, error) {
	tokens, err := s.sessions.UpstreamTokensFor(ctx, sessionID)
	if err != nil {
		if errors.Is(err, authsession.ErrNoUpstreamTokens) {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session has no backend tokens")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load backend tokens")
	}
	return tokens.Access, nil
}

// WithUpstreamToken runs fn with the session's backend access token.
// If fn fails with UNAUTHORIZED the backend pair is refreshed once and
// fn is retried with the new token.
func (s *Service) WithUpstreamToken(ctx context.Context, sessionID string, fn func(token string) error) error {
	tokens, err := s.sessions.UpstreamTokensFor(ctx, sessionID)
	if err != nil {
		if errors.Is(err, authsession.ErrNoUpstreamTokens) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "session has no backend tokens")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load backend tokens")
	}

	err = fn(tokens.Access)
	if !isUnauthorized(err) {
		return err
	}

	refreshed, refreshErr := s.refreshUpstream(ctx, sessionID, *tokens)
	if refreshErr != nil {
		return err
	}
	return fn(refreshed.Access)
}

func (s *Service) refreshUpstream(ctx context.Context, sessionID string, current authsession.UpstreamTokens) (*authsession.UpstreamTokens, error) {
	pair, err := s.backend.RefreshToken(ctx, current.Refresh)
	if err != nil {
		s.logWarn(ctx, "backend token refresh failed", err)
		return nil, err
	}
	updated := authsession.UpstreamTokens{
		Access:   pair.Access,
		Refresh:  pair.Refresh,
		Currency: current.Currency,
	}
	if err := s.sessions.StoreUpstreamTokens(ctx, sessionID, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetCurrency stores the session's display currency preference.
func (s *Service) SetCurrency(ctx context.Context, sessionID string, currency enums.Currency) error {
	if !currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency %q", currency))
	}
	tokens, err := s.sessions.UpstreamTokensFor(ctx, sessionID)
	if err != nil {
		if errors.Is(err, authsession.ErrNoUpstreamTokens) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "session has no backend tokens")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load backend tokens")
	}
	tokens.Currency = currency.String()
	if err := s.sessions.StoreUpstreamTokens(ctx, sessionID, *tokens); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store backend tokens")
	}
	return nil
}

// Currency returns the session's stored currency preference, falling
// back to the configured default.
func (s *Service) Currency(ctx context.Context, sessionID string) enums.Currency {
	tokens, err := s.sessions.UpstreamTokensFor(ctx, sessionID)
	if err != nil {
		return s.defaultCurrency
	}
	parsed, err := enums.ParseCurrency(tokens.Currency)
	if err != nil {
		return s.defaultCurrency
	}
	return parsed
}

// HasSession reports whether the session id is still active.
func (s *Service) HasSession(ctx context.Context, sessionID string) (bool, error) {
	return s.sessions.HasSession(ctx, sessionID)
}

func isUnauthorized(err error) bool {
	var coded *pkgerrors.Error
	if errors.As(err, &coded) {
		return coded.Code() == pkgerrors.CodeUnauthorized
	}
	return false
}

func (s *Service) logWarn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
