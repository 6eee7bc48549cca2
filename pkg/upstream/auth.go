package upstream

import (
	"context"
	"net/http"
)

const resourceAuth = "auth"

// Login authenticates a user and returns the backend token pair.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, resourceAuth, http.MethodPost, "/auth/login/", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a backend account and returns the token pair.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, resourceAuth, http.MethodPost, "/auth/register/", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the backend token pair.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, resourceAuth, http.MethodPost, "/auth/logout/", nil, nil, withToken(token))
}

// RefreshToken exchanges a refresh token for a new pair.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (*TokenPair, error) {
	body := struct {
		Refresh string `json:"refresh"`
	}{Refresh: refresh}
	var out TokenPair
	err := c.do(ctx, resourceAuth, http.MethodPost, "/auth/token/refresh/", body, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestOTP asks the backend to send a one-time code.
func (c *Client) RequestOTP(ctx context.Context, req OTPRequest) error {
	return c.do(ctx, resourceAuth, http.MethodPost, "/auth/otp/request/", req, nil)
}

// VerifyOTP exchanges a one-time code for a token pair.
func (c *Client) VerifyOTP(ctx context.Context, req OTPVerifyRequest) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, resourceAuth, http.MethodPost, "/auth/otp/verify/", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword starts a password reset.
func (c *Client) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	return c.do(ctx, resourceAuth, http.MethodPost, "/auth/forgot-password/", req, nil)
}

// ResetPasswordConfirm completes a password reset.
func (c *Client) ResetPasswordConfirm(ctx context.Context, req ResetPasswordConfirmRequest) error {
	return c.do(ctx, resourceAuth, http.MethodPost, "/auth/reset-password/confirm/", req, nil)
}
