package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/repositories"
	"github.com/desertthunder/pathfinder/internal/services"
	"github.com/desertthunder/pathfinder/internal/shared"
)

const (
	loginPath    = "/users/login"
	registerPath = "/users/register"

	minPasswordLength = 6
	maxAuthBodyBytes  = 1 << 16
)

// AccountHandler serves login and registration against an [repositories.AccountRepository].
type AccountHandler struct {
	accounts *repositories.AccountRepository
	cost     int
	logger   *log.Logger
}

// NewAccountHandler creates an [AccountHandler]. A cost of 0 uses [bcrypt.DefaultCost].
func NewAccountHandler(accounts *repositories.AccountRepository, cost int, logger *log.Logger) *AccountHandler {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AccountHandler{accounts: accounts, cost: cost, logger: logger}
}

func (h *AccountHandler) Routes() []string { return []string{loginPath, registerPath} }

func (h *AccountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	switch r.URL.Path {
	case loginPath:
		h.login(w, r)
	case registerPath:
		h.register(w, r)
	default:
		writeMessage(w, http.StatusNotFound, "Not found")
	}
}

func (h *AccountHandler) login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	account, err := h.accounts.GetByEmail(req.Email)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	case err != nil:
		h.logger.Error("login lookup failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash()), []byte(req.Password)); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.accounts.IssueToken(account.ID())
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := account.Profile()
	h.logger.Info("login", "account", account.ID())
	writeData(w, http.StatusOK, &services.AuthPayload{AccessToken: token, User: &user})
}

func (h *AccountHandler) register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	fullname := strings.TrimSpace(req.Fullname)
	switch {
	case fullname == "" || strings.TrimSpace(req.Email) == "" || req.Password == "":
		writeMessage(w, http.StatusBadRequest, "Full name, email and password are required")
		return
	case !validEmail(req.Email):
		writeMessage(w, http.StatusBadRequest, "Email address is invalid")
		return
	case len(req.Password) < minPasswordLength:
		writeMessage(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := HashPassword(req.Password, h.cost)
	if err != nil {
		h.logger.Error("password hash failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	account := models.NewAccount(0, fullname, req.Email, hash)
	if err := h.accounts.Create(account); err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			writeMessage(w, http.StatusConflict, "Email is already registered")
			return
		}
		h.logger.Error("account create failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("registered", "account", account.ID())
	writeJSON(w, http.StatusCreated, services.MessageResponse{Message: "Registration successful"})
}

// HashPassword bcrypt-hashes a password of at least 6 characters. A cost of 0 uses [bcrypt.DefaultCost].
func HashPassword(password string, cost int) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", shared.ErrInvalidInput, minPasswordLength)
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil && addr.Name == ""
}

// decodeBody reads a bounded JSON body into v and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBodyBytes)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Request body must be valid JSON")
		return false
	}
	return true
}
