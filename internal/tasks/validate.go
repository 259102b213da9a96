package tasks

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/shared"
)

// DeclaredMIMEType returns the MIME type implied by the file name's extension.
func DeclaredMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return ""
	}
	return mediaType
}

// NewCandidate validates path and builds an [models.UploadCandidate] from it.
//
// The declared type must be application/pdf and, when maxSize is positive, the file must not exceed it.
func NewCandidate(path string, source models.SelectionSource, maxSize int64) (*models.UploadCandidate, error) {
	mimeType := DeclaredMIMEType(path)
	if mimeType != models.MIMEPDF {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedFileType, filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", shared.ErrInvalidArgument, path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %s is %s, limit is %s", shared.ErrFileTooLarge,
			filepath.Base(path), HumanSize(info.Size()), HumanSize(maxSize))
	}

	return &models.UploadCandidate{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MIMEType: mimeType,
		Source:   source,
	}, nil
}

// CountPages returns the page count of the PDF at path.
//
// The parser panics on some malformed documents; that is reported as an error.
func CountPages(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	return reader.NumPage(), nil
}
