package intelink

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/intelink/console/internal/apperr"
	"github.com/intelink/console/internal/client"
	"github.com/intelink/console/internal/form"
	"github.com/intelink/console/internal/logger"
)

// User is the signed-in account.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// LoginResponse carries the issued tokens and, when sent, the account.
type LoginResponse struct {
	client.TokenPair
	User *User `json:"user,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type AuthService struct {
	c *client.Client
}

func NewAuthService(c *client.Client) *AuthService {
	return &AuthService{c: c}
}

// Login exchanges credentials for tokens and stores them.
func (s *AuthService) Login(ctx context.Context, f form.LoginForm) (*LoginResponse, error) {
	var resp LoginResponse
	if err := s.c.Do(ctx, http.MethodPost, "/api/v1/auth/login", f, &resp); err != nil {
		return nil, err
	}
	if err := s.c.SetTokens(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	return &resp, nil
}

// Register creates an account. The backend sends a verification email.
func (s *AuthService) Register(ctx context.Context, f form.RegisterForm) (*User, error) {
	body := map[string]string{
		"username": f.Username,
		"email":    f.Email,
		"password": f.Password,
	}
	var user User
	if err := s.c.Do(ctx, http.MethodPost, "/api/v1/auth/register", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh trades the stored refresh token for a new pair explicitly.
func (s *AuthService) Refresh(ctx context.Context) error {
	_, refresh, err := s.c.Store().Tokens(ctx)
	if err != nil {
		return err
	}
	if refresh == "" {
		return client.ErrNoRefreshToken
	}
	var tokens client.TokenPair
	if err := s.c.Do(ctx, http.MethodPost, client.RefreshPath, map[string]string{"refresh_token": refresh}, &tokens); err != nil {
		return err
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refresh
	}
	return s.c.SetTokens(ctx, tokens.AccessToken, tokens.RefreshToken)
}

// Logout revokes the session on the backend and always forgets it locally.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.c.Do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	if apperr.IsAuth(err) {
		// The backend session had already expired.
		err = apperr.Suppress("intelink.Logout", err)
	}
	if cerr := s.c.ClearTokens(ctx); cerr != nil {
		logger.Component("auth").WithError(cerr).Error("failed to clear tokens on logout")
	}
	return err
}

func (s *AuthService) ForgotPassword(ctx context.Context, f form.ForgotPasswordForm) (string, error) {
	var resp messageResponse
	err := s.c.Do(ctx, http.MethodPost, "/api/v1/auth/forgot-password", f, &resp)
	return resp.Message, err
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (string, error) {
	var resp messageResponse
	err := s.c.Do(ctx, http.MethodPost, "/api/v1/auth/verify-email", map[string]string{"token": token}, &resp)
	return resp.Message, err
}

func (s *AuthService) ResetPassword(ctx context.Context, f form.ResetPasswordForm) (string, error) {
	body := map[string]string{"token": f.Token, "password": f.Password}
	var resp messageResponse
	err := s.c.Do(ctx, http.MethodPost, "/api/v1/auth/reset-password", body, &resp)
	return resp.Message, err
}

// Profile returns the signed-in account.
func (s *AuthService) Profile(ctx context.Context) (*User, error) {
	var user User
	if err := s.c.Do(ctx, http.MethodGet, "/api/v1/auth/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
