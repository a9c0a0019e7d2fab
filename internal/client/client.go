// Package client is the typed REST client for the exam API, used by the
// session controller and the end-to-end tests.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/response"
)

// APIError is a non-2xx response decoded from the standard error envelope.
type APIError struct {
	Status  int
	Code    response.ErrCode
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Client talks to one exam API server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// GetPublicTest fetches the candidate-safe test view for a public token.
func (c *Client) GetPublicTest(ctx context.Context, token string) (*model.PublicTestPayload, error) {
	var payload model.PublicTestPayload
	if err := c.do(ctx, http.MethodGet, "/api/v1/public/test/"+token, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Start creates an attempt and returns its id.
func (c *Client) Start(ctx context.Context, req *model.StartAttemptRequest) (uuid.UUID, error) {
	var out struct {
		AttemptID uuid.UUID `json:"attemptId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/candidate/start", req, &out); err != nil {
		return uuid.Nil, err
	}
	return out.AttemptID, nil
}

// GetAttemptState fetches the resume payload for an attempt.
func (c *Client) GetAttemptState(ctx context.Context, attemptID uuid.UUID) (*model.AttemptState, error) {
	var state model.AttemptState
	if err := c.do(ctx, http.MethodGet, "/api/v1/candidate/test/"+attemptID.String(), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveAnswer upserts one answer.
func (c *Client) SaveAnswer(ctx context.Context, req *model.SaveAnswerRequest) error {
	return c.do(ctx, http.MethodPost, "/api/v1/answers/save", req, nil)
}

// Submit finalizes an attempt and returns its result.
func (c *Client) Submit(ctx context.Context, attemptID uuid.UUID, answers []model.SubmittedAnswer) (*model.SubmitResult, error) {
	req := model.SubmitRequest{AttemptID: attemptID, Answers: answers}
	var result model.SubmitResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/answers/submit", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LogViolation reports one proctoring violation.
func (c *Client) LogViolation(ctx context.Context, req *model.LogViolationRequest) error {
	return c.do(ctx, http.MethodPost, "/api/v1/violations/log", req, nil)
}

// do runs one request and unwraps the response envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Data  json.RawMessage     `json:"data"`
		Error *response.ErrorBody `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
