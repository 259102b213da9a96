package server

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/pathfinder/internal/analysis"
	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/repositories"
	"github.com/desertthunder/pathfinder/internal/shared"
)

const (
	uploadPath = "/upload/cv"
	fileField  = "file"
)

// UploadHandler accepts a CV as multipart field "file" and answers with scored job groups.
type UploadHandler struct {
	accounts *repositories.AccountRepository
	matcher  *analysis.Matcher
	maxBytes int64
	logger   *log.Logger
}

// NewUploadHandler creates an [UploadHandler]. maxBytes bounds the request body.
func NewUploadHandler(accounts *repositories.AccountRepository, matcher *analysis.Matcher, maxBytes int64, logger *log.Logger) *UploadHandler {
	return &UploadHandler{accounts: accounts, matcher: matcher, maxBytes: maxBytes, logger: logger}
}

func (h *UploadHandler) Routes() []string { return []string{uploadPath} }

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	token, ok := bearerToken(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	account, err := h.accounts.Authenticate(token)
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	case err != nil:
		h.logger.Error("token lookup failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	file, header, err := r.FormFile(fileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "A PDF file is required in field \"file\"")
		return
	}
	defer file.Close()

	if !isPDF(header.Filename, header.Header.Get("Content-Type")) {
		writeMessage(w, http.StatusUnsupportedMediaType, "Only PDF files are allowed.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	result, err := h.matcher.AnalyzePDF(data)
	if err != nil {
		h.logger.Warn("pdf extraction failed", "file", header.Filename, "error", err)
		writeMessage(w, http.StatusUnprocessableEntity, "Could not read text from the PDF")
		return
	}

	h.logger.Info("analyzed cv", "account", account.ID(), "file", header.Filename, "groups", len(result.Jobs))
	writeData(w, http.StatusOK, result)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func isPDF(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(contentType), models.MIMEPDF)
}
