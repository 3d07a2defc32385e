// Package client is a small Go client for the exam generation API. It
// covers login, submitting a generation request and polling the resulting
// job until it reaches a terminal state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrExamNotFound is returned when the hexcode does not resolve to an exam
// owned by the authenticated user.
var ErrExamNotFound = errors.New("exam not found")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Exam is the job row as the API returns it.
type Exam struct {
	HexCode      string    `json:"hexcode"`
	Subject      string    `json:"subject"`
	Difficulty   string    `json:"difficulty"`
	Bundesland   string    `json:"bundesland"`
	Status       string    `json:"status"`
	Content      string    `json:"content"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Job statuses as reported by the API.
const (
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Terminal reports whether the exam's status is final.
func (e *Exam) Terminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusError
}

// Client talks to one API server on behalf of one user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a Client for the given base URL, e.g. "https://api.example.com".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs a previously obtained JWT.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the JWT currently in use, if any.
func (c *Client) Token() string { return c.token }

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

// GenerateExam submits a generation request and returns the hexcode to poll
// with. The server answers before the exam content exists.
func (c *Client) GenerateExam(ctx context.Context, subject, difficulty string) (string, error) {
	body := map[string]string{}
	if subject != "" {
		body["subject"] = subject
	}
	if difficulty != "" {
		body["difficulty"] = difficulty
	}

	var out struct {
		HexCode string `json:"hexCode"`
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/exams", body, &out); err != nil {
		return "", err
	}
	return out.HexCode, nil
}

// GetExam fetches the current state of one exam job.
func (c *Client) GetExam(ctx context.Context, hexCode string) (*Exam, error) {
	var exam Exam
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/exams/"+hexCode, nil, &exam)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, ErrExamNotFound
		}
		return nil, err
	}
	return &exam, nil
}

// ListExams fetches one page of the user's exam history, newest first.
func (c *Client) ListExams(ctx context.Context, page, perPage int) ([]Exam, int, error) {
	var out struct {
		Exams []Exam `json:"exams"`
		Total int    `json:"total"`
	}
	path := fmt.Sprintf("/api/v1/exams?page=%d&per_page=%d", page, perPage)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Exams, out.Total, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var wire struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(raw, &wire) == nil {
			apiErr.Message = wire.Error
			apiErr.Code = wire.Code
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
