package session

import (
	"context"
	"errors"
	"testing"

	"github.com/peykantravel/peykan-storefront/pkg/auth"
	authsession "github.com/peykantravel/peykan-storefront/pkg/auth/session"
	"github.com/peykantravel/peykan-storefront/pkg/config"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

var testJWTConfig = config.JWTConfig{
	Secret:                 "test-secret",
	Issuer:                 "peykan-test",
	ExpirationMinutes:      15,
	RefreshTokenTTLMinutes: 60,
}

type fakeAuthBackend struct {
	loginResp   *upstream.AuthResponse
	loginErr    error
	refreshResp *upstream.TokenPair
	refreshErr  error
	logoutCalls []string
	otpRequests []upstream.OTPRequest
}

func (f *fakeAuthBackend) Login(_ context.Context, _ upstream.LoginRequest) (*upstream.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResp, nil
}

func (f *fakeAuthBackend) Register(_ context.Context, _ upstream.RegisterRequest) (*upstream.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuthBackend) Logout(_ context.Context, token string) error {
	f.logoutCalls = append(f.logoutCalls, token)
	return nil
}

func (f *fakeAuthBackend) RefreshToken(_ context.Context, _ string) (*upstream.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshResp, nil
}

func (f *fakeAuthBackend) RequestOTP(_ context.Context, req upstream.OTPRequest) error {
	f.otpRequests = append(f.otpRequests, req)
	return nil
}

func (f *fakeAuthBackend) VerifyOTP(_ context.Context, _ upstream.OTPVerifyRequest) (*upstream.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuthBackend) ForgotPassword(_ context.Context, _ upstream.ForgotPasswordRequest) error {
	return nil
}

func (f *fakeAuthBackend) ResetPasswordConfirm(_ context.Context, _ upstream.ResetPasswordConfirmRequest) error {
	return nil
}

type fakeSessions struct {
	refreshTokens  map[string]string
	upstreamTokens map[string]authsession.UpstreamTokens
	nextID         string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		refreshTokens:  map[string]string{},
		upstreamTokens: map[string]authsession.UpstreamTokens{},
		nextID:         "rotated-id",
	}
}

func (f *fakeSessions) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.refreshTokens[accessID] = token
	return token, nil
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.refreshTokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", authsession.ErrInvalidRefreshToken
	}
	delete(f.refreshTokens, oldAccessID)
	newID := f.nextID
	f.refreshTokens[newID] = "refresh-" + newID
	if tokens, ok := f.upstreamTokens[oldAccessID]; ok {
		f.upstreamTokens[newID] = tokens
		delete(f.upstreamTokens, oldAccessID)
	}
	return newID, f.refreshTokens[newID], nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	delete(f.refreshTokens, accessID)
	delete(f.upstreamTokens, accessID)
	return nil
}

func (f *fakeSessions) StoreUpstreamTokens(_ context.Context, accessID string, tokens authsession.UpstreamTokens) error {
	f.upstreamTokens[accessID] = tokens
	return nil
}

func (f *fakeSessions) UpstreamTokensFor(_ context.Context, accessID string) (*authsession.UpstreamTokens, error) {
	tokens, ok := f.upstreamTokens[accessID]
	if !ok {
		return nil, authsession.ErrNoUpstreamTokens
	}
	clone := tokens
	return &clone, nil
}

func (f *fakeSessions) HasSession(_ context.Context, accessID string) (bool, error) {
	_, ok := f.refreshTokens[accessID]
	return ok, nil
}

func authResponse() *upstream.AuthResponse {
	return &upstream.AuthResponse{
		Tokens: upstream.TokenPair{Access: "up-access", Refresh: "up-refresh"},
		User:   upstream.User{ID: "U1", Email: "sara@example.com", IsAgent: false},
	}
}

func newSessionService(t *testing.T, backend *fakeAuthBackend, sessions *fakeSessions) *Service {
	t.Helper()
	svc, err := NewService(backend, sessions, testJWTConfig, nil, enums.CurrencyIRR)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestLoginEstablishesSession(t *testing.T) {
	backend := &fakeAuthBackend{loginResp: authResponse()}
	sessions := newFakeSessions()
	svc := newSessionService(t, backend, sessions)

	result, err := svc.Login(context.Background(), upstream.LoginRequest{Email: "sara@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := auth.ParseAccessToken(testJWTConfig, result.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != "U1" || claims.Email != "sara@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	tokens, err := sessions.UpstreamTokensFor(context.Background(), claims.ID)
	if err != nil {
		t.Fatalf("expected backend tokens keyed by jti: %v", err)
	}
	if tokens.Access != "up-access" || tokens.Refresh != "up-refresh" {
		t.Fatalf("unexpected backend tokens: %+v", tokens)
	}
	if result.RefreshToken == "" {
		t.Fatal("expected refresh token")
	}
	if result.ExpiresIn != 15*60 {
		t.Fatalf("expected 900s expiry, got %d", result.ExpiresIn)
	}
}

func TestLoginBackendFailurePassesThrough(t *testing.T) {
	backend := &fakeAuthBackend{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	svc := newSessionService(t, backend, newFakeSessions())

	_, err := svc.Login(context.Background(), upstream.LoginRequest{Email: "x", Password: "y"})
	var coded *pkgerrors.Error
	if !errors.As(err, &coded) || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	backend := &fakeAuthBackend{loginResp: authResponse()}
	sessions := newFakeSessions()
	svc := newSessionService(t, backend, sessions)
	ctx := context.Background()

	login, err := svc.Login(ctx, upstream.LoginRequest{Email: "sara@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	oldClaims, err := auth.ParseAccessToken(testJWTConfig, login.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, login.AccessToken, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	newClaims, err := auth.ParseAccessToken(testJWTConfig, refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse new token: %v", err)
	}
	if newClaims.ID == oldClaims.ID {
		t.Fatal("expected rotated session id")
	}
	if newClaims.UserID != "U1" {
		t.Fatalf("expected identity preserved, got %+v", newClaims)
	}
	if _, err := sessions.UpstreamTokensFor(ctx, oldClaims.ID); !errors.Is(err, authsession.ErrNoUpstreamTokens) {
		t.Fatal("expected backend tokens moved off the old session id")
	}
	if _, err := sessions.UpstreamTokensFor(ctx, newClaims.ID); err != nil {
		t.Fatalf("expected backend tokens under new session id: %v", err)
	}
}

func TestRefreshRejectsWrongToken(t *testing.T) {
	backend := &fakeAuthBackend{loginResp: authResponse()}
	sessions := newFakeSessions()
	svc := newSessionService(t, backend, sessions)
	ctx := context.Background()

	login, err := svc.Login(ctx, upstream.LoginRequest{Email: "sara@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	_, err = svc.Refresh(ctx, login.AccessToken, "forged")
	var coded *pkgerrors.Error
	if !errors.As(err, &coded) || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestWithUpstreamTokenRefreshesOnceOnUnauthorized(t *testing.T) {
	backend := &fakeAuthBackend{
		loginResp:   authResponse(),
		refreshResp: &upstream.TokenPair{Access: "up-access-2", Refresh: "up-refresh-2"},
	}
	sessions := newFakeSessions()
	svc := newSessionService(t, backend, sessions)
	ctx := context.Background()

	login, err := svc.Login(ctx, upstream.LoginRequest{Email: "sara@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, _ := auth.ParseAccessToken(testJWTConfig, login.AccessToken)

	var seen []string
	err = svc.WithUpstreamToken(ctx, claims.ID, func(token string) error {
		seen = append(seen, token)
		if token == "up-access" {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "token expired")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithUpstreamToken: %v", err)
	}
	if len(seen) != 2 || seen[0] != "up-access" || seen[1] != "up-access-2" {
		t.Fatalf("expected retry with refreshed token, got %v", seen)
	}
	tokens, err := sessions.UpstreamTokensFor(ctx, claims.ID)
	if err != nil || tokens.Access != "up-access-2" {
		t.Fatalf("expected refreshed pair stored, got %+v err %v", tokens, err)
	}
}

func TestWithUpstreamTokenDoesNotRetryOtherErrors(t *testing.T) {
	backend := &fakeAuthBackend{loginResp: authResponse()}
	sessions := newFakeSessions()
	svc := newSessionService(t, backend, sessions)
	ctx := context.Background()

	login, _ := svc.Login(ctx, upstream.LoginRequest{Email: "sara@example.com", Password: "pw"})
	claims, _ := auth.ParseAccessToken(testJWTConfig, login.AccessToken)

	calls := 0
	err := svc.WithUpstreamToken(ctx, claims.ID, func(string) error {
		calls++
		return pkgerrors.New(pkgerrors.CodeUpstream, "boom")
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected single failing call, got calls=%d err=%v", calls, err)
	}
}

func TestWithUpstreamTokenKeepsOriginalErrorWhenRefreshFails(t *testing.T) {
	backend := &fakeAuthBackend{
		loginResp:  authResponse(),
		refreshErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh revoked"),
	}
	sessions := newFakeSessions()
	svc := newSessionService(t, backend, sessions)
	ctx := context.Background()

	login, _ := svc.Login(ctx, upstream.LoginRequest{Email: "sara@example.com", Password: "pw"})
	claims, _ := auth.ParseAccessToken(testJWTConfig, login.AccessToken)

	err := svc.WithUpstreamToken(ctx, claims.ID, func(string) error {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "token expired")
	})
	var coded *pkgerrors.Error
	if !errors.As(err, &coded) || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected original UNAUTHORIZED, got %v", err)
	}
}

func TestLogoutRevokesAndCallsBackend(t *testing.T) {
	backend := &fakeAuthBackend{loginResp: authResponse()}
	sessions := newFakeSessions()
	svc := newSessionService(t, backend, sessions)
	ctx := context.Background()

	login, _ := svc.Login(ctx, upstream.LoginRequest{Email: "sara@example.com", Password: "pw"})
	claims, _ := auth.ParseAccessToken(testJWTConfig, login.AccessToken)

	if err := svc.Logout(ctx, login.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(backend.logoutCalls) != 1 || backend.logoutCalls[0] != "up-access" {
		t.Fatalf("expected backend logout with stored token, got %v", backend.logoutCalls)
	}
	active, err := sessions.HasSession(ctx, claims.ID)
	if err != nil || active {
		t.Fatalf("expected session revoked, active=%v err=%v", active, err)
	}
}

func TestCurrencyPreferenceRoundTrip(t *testing.T) {
	backend := &fakeAuthBackend{loginResp: authResponse()}
	sessions := newFakeSessions()
	svc := newSessionService(t, backend, sessions)
	ctx := context.Background()

	login, _ := svc.Login(ctx, upstream.LoginRequest{Email: "sara@example.com", Password: "pw"})
	claims, _ := auth.ParseAccessToken(testJWTConfig, login.AccessToken)

	if got := svc.Currency(ctx, claims.ID); got != enums.CurrencyIRR {
		t.Fatalf("expected default IRR, got %s", got)
	}
	if err := svc.SetCurrency(ctx, claims.ID, enums.CurrencyUSD); err != nil {
		t.Fatalf("SetCurrency: %v", err)
	}
	if got := svc.Currency(ctx, claims.ID); got != enums.CurrencyUSD {
		t.Fatalf("expected USD, got %s", got)
	}
	if err := svc.SetCurrency(ctx, claims.ID, enums.Currency("XXX")); err == nil {
		t.Fatal("expected error for unsupported currency")
	}
}
