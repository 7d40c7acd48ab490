package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// judge0Languages maps editor language keys to Judge0 language ids.
var judge0Languages = map[string]int{
	"javascript": 63,
	"python":     71,
	"java":       62,
	"cpp":        54,
	"html":       216,
	"css":        186,
}

// ExecService forwards code to a Judge0-compatible execution service. The
// sandbox is an opaque remote collaborator; nothing runs locally.
type ExecService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewExecService creates an ExecService. baseURL points at the Judge0
// endpoint, e.g. https://judge0-ce.p.rapidapi.com.
func NewExecService(baseURL, apiKey string) *ExecService {
	return &ExecService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ExecResult is the outcome of one remote execution.
type ExecResult struct {
	Output string `json:"output"`
	Status string `json:"status"`
}

type judge0Submission struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
}

type judge0Response struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Status struct {
		Description string `json:"description"`
	} `json:"status"`
}

// Execute submits code and waits for the result.
func (s *ExecService) Execute(ctx context.Context, code, language string) (*ExecResult, error) {
	logCtx := logrus.WithField("language", language)

	langID, ok := judge0Languages[language]
	if !ok {
		langID = judge0Languages["javascript"]
	}

	body, err := json.Marshal(judge0Submission{SourceCode: code, LanguageID: langID})
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal execution request")
		return nil, ErrInternalServer
	}

	url := s.baseURL + "/submissions?base64_encoded=false&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logCtx.WithError(err).Error("Failed to build execution request")
		return nil, ErrInternalServer
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-RapidAPI-Host", "judge0-ce.p.rapidapi.com")
		req.Header.Set("X-RapidAPI-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		logCtx.WithError(err).Error("Execution service unreachable")
		return nil, ErrInternalServer
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logCtx.WithField("status", resp.StatusCode).Error("Execution service returned error status")
		return nil, fmt.Errorf("%w: execution service status %d", ErrInternalServer, resp.StatusCode)
	}

	var out judge0Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logCtx.WithError(err).Error("Failed to decode execution response")
		return nil, ErrInternalServer
	}

	output := out.Stdout
	if output == "" {
		output = out.Stderr
	}
	if output == "" {
		output = "No output"
	}
	return &ExecResult{Output: output, Status: out.Status.Description}, nil
}
