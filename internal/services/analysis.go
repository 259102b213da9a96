package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/shared"
)

// AnalysisService implements [Analyzer] against /upload/cv.
type AnalysisService struct {
	api *APIService
}

// NewAnalysisService creates an [AnalysisService] on top of api.
func NewAnalysisService(api *APIService) *AnalysisService {
	return &AnalysisService{api: api}
}

// AnalyzeCV uploads content and decodes {data: {jobs: [...]}}, keeping the raw data object on the result.
func (s *AnalysisService) AnalyzeCV(ctx context.Context, token, filename string, content []byte) (*models.AnalysisResult, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing access token", shared.ErrNotAuthenticated)
	}

	resp, err := s.api.WithToken(token).PostMultipart(ctx, "/upload/cv", "file", filename, models.MIMEPDF, content)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, resp.ServerError()
	}

	var env Envelope[json.RawMessage]
	if err := resp.Decode(&env); err != nil {
		return nil, err
	}
	if env.Data == nil || bytes.Equal(bytes.TrimSpace(*env.Data), []byte("null")) {
		return nil, fmt.Errorf("%w: analysis response has no data", shared.ErrMalformedResponse)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(*env.Data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	result.Raw = append(json.RawMessage(nil), *env.Data...)

	return &result, nil
}
