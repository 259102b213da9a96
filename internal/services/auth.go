package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/pathfinder/internal/shared"
)

// AuthService implements [Authenticator] against /users/login and /users/register.
type AuthService struct {
	api *APIService
}

// NewAuthService creates an [AuthService] on top of api.
func NewAuthService(api *APIService) *AuthService {
	return &AuthService{api: api}
}

// Login posts {email, password} and decodes {data: {accessToken, user}}.
//
// A 2xx response without a token or a usable user is reported as [shared.ErrMalformedResponse].
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	resp, err := s.api.PostJSON(ctx, "/users/login", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, resp.ServerError()
	}

	var env Envelope[AuthPayload]
	if err := resp.Decode(&env); err != nil {
		return nil, err
	}
	if env.Data == nil || env.Data.AccessToken == "" || !env.Data.User.Valid() {
		return nil, fmt.Errorf("%w: login response is missing token or user", shared.ErrMalformedResponse)
	}

	return env.Data, nil
}

// Register posts {fullname, email, password}. Any 2xx is success.
func (s *AuthService) Register(ctx context.Context, fullname, email, password string) error {
	resp, err := s.api.PostJSON(ctx, "/users/register", RegisterRequest{Fullname: fullname, Email: email, Password: password})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return resp.ServerError()
	}
	return nil
}
