// package services defines the clients for the PathFinder auth and analysis backends
package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/shared"
)

// Authenticator is the auth collaborator consumed by the session store.
type Authenticator interface {
	// Login exchanges credentials for an access token and user profile.
	Login(ctx context.Context, email, password string) (*AuthPayload, error)

	// Register creates an account. It does not log the user in.
	Register(ctx context.Context, fullname, email, password string) error
}

// Analyzer is the analysis collaborator consumed by the upload controller.
type Analyzer interface {
	// AnalyzeCV uploads a PDF under the multipart field "file" with token as bearer credential.
	AnalyzeCV(ctx context.Context, token, filename string, content []byte) (*models.AnalysisResult, error)
}

// AuthPayload is the data member of a successful login response.
type AuthPayload struct {
	AccessToken string       `json:"accessToken"`
	User        *models.User `json:"user"`
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /users/register.
type RegisterRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Envelope wraps successful backend payloads as {"data": ...}.
type Envelope[T any] struct {
	Data *T `json:"data"`
}

// MessageResponse is the backend's error body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ServerError is a non-2xx response from the backend.
//
// Message is the backend's "message" field, empty when the body could not be parsed.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *ServerError) Unwrap() error {
	return shared.ErrAPIRequest
}
