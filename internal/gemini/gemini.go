// Package gemini generates the structured analysis report from a commit
// digest using Google's Gemini API.
//
// STRUCTURED OUTPUT:
// Instead of prompting for JSON and hoping, we pass a response schema with
// the request (ResponseMIMEType "application/json" + ResponseSchema). The
// API then constrains generation to documents matching the schema: a
// "scores" object of six required integers and a "report" object of six
// required strings, with identical field names. The schema enforces the
// field set and types — it does NOT enforce the 0-100 range the rubric
// states, so out-of-range scores pass through uncorrected.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/suzuki-tomok/github-analyzer/internal/apperror"
	"github.com/suzuki-tomok/github-analyzer/internal/model"
)

// scoreDimensions are the six rubric categories, shared by the scores and
// report schema objects.
var scoreDimensions = []string{
	"test",
	"comment",
	"commit_size",
	"commit_frequency",
	"commit_message",
	"activity",
}

// Service wraps the Gemini client for commit-history analysis.
type Service struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewService creates a Service talking to the Gemini API with the given key.
// modelName is e.g. "gemini-2.0-flash".
func NewService(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key must not be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &Service{
		client: client,
		model:  modelName,
		logger: logger,
	}, nil
}

// AnalyzeCommits sends the commit digest to Gemini and returns the parsed
// scores and report.
//
// Single synchronous round trip: no retry, no streaming. Any API failure or
// unparseable response surfaces as GEMINI_API_ERROR — the caller translates
// it to a 500.
//
// An empty digest is legal input. The model is allowed to return a
// low-information report for it; we don't special-case it here.
func (s *Service) AnalyzeCommits(ctx context.Context, commitLog string) (*model.AnalysisResult, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(buildPrompt(commitLog))},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   resultSchema(),
	}

	s.logger.Debug("starting generation", slog.Int("digest_len", len(commitLog)))

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		s.logger.Error("generation failed", slog.String("error", err.Error()))
		return nil, apperror.GeminiAPIError(err)
	}

	result, err := parseResult([]byte(resp.Text()))
	if err != nil {
		s.logger.Error("generation returned unparseable output", slog.String("error", err.Error()))
		return nil, apperror.GeminiAPIError(err)
	}

	s.logger.Info("generation succeeded")
	return result, nil
}

// resultSchema is the fixed JSON schema for the structured-output call:
// both objects fully required, no optional fields.
func resultSchema() *genai.Schema {
	scoreProps := make(map[string]*genai.Schema, len(scoreDimensions))
	reportProps := make(map[string]*genai.Schema, len(scoreDimensions))
	for _, dim := range scoreDimensions {
		scoreProps[dim] = &genai.Schema{Type: genai.TypeInteger}
		reportProps[dim] = &genai.Schema{Type: genai.TypeString}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"scores": {
				Type:       genai.TypeObject,
				Properties: scoreProps,
				Required:   scoreDimensions,
			},
			"report": {
				Type:       genai.TypeObject,
				Properties: reportProps,
				Required:   scoreDimensions,
			},
		},
		Required: []string{"scores", "report"},
	}
}

// parseResult decodes the generation output. Both top-level objects must be
// present; pointer fields distinguish "absent" from "zero values".
func parseResult(raw []byte) (*model.AnalysisResult, error) {
	var decoded struct {
		Scores *model.Scores `json:"scores"`
		Report *model.Report `json:"report"`
	}

	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if decoded.Scores == nil {
		return nil, fmt.Errorf("response missing scores object")
	}
	if decoded.Report == nil {
		return nil, fmt.Errorf("response missing report object")
	}

	return &model.AnalysisResult{
		Scores: *decoded.Scores,
		Report: *decoded.Report,
	}, nil
}
