package biospecimen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/recorder/internal/platform/auth"
)

var (
	ErrEmptyQuestion = errors.New("question must not be blank")
	ErrNotReady      = errors.New("backend is not ready")
)

const (
	DefaultStatusPath = "/api/status"
	DefaultQueryPath  = "/api/query"
	DefaultTopResults = 3
)

// APIError is a non-2xx answer from the backend. Message holds the server's
// own explanation when it sent one; it takes precedence over the status text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
}

type ClientConfig struct {
	BaseURL    string
	StatusPath string
	QueryPath  string
	// ReadyValues are the status strings that count as ready.
	ReadyValues []string
	TopResults  int
	Timeout     time.Duration
}

// Client calls the question-answering backend. It never retries.
type Client struct {
	baseURL     string
	statusPath  string
	queryPath   string
	readyValues []string
	topResults  int
	http        *http.Client
	logger      zerolog.Logger
}

func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		statusPath:  cfg.StatusPath,
		queryPath:   cfg.QueryPath,
		readyValues: cfg.ReadyValues,
		topResults:  cfg.TopResults,
		http:        &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
	}
	if c.statusPath == "" {
		c.statusPath = DefaultStatusPath
	}
	if c.queryPath == "" {
		c.queryPath = DefaultQueryPath
	}
	if len(c.readyValues) == 0 {
		c.readyValues = []string{string(StatusReady)}
	}
	if c.topResults <= 0 {
		c.topResults = DefaultTopResults
	}
	if c.http.Timeout <= 0 {
		c.http.Timeout = 10 * time.Second
	}
	return c
}

// Status probes the backend once. Any answer other than a ready value, and
// any failure to get an answer, maps to StatusError.
func (c *Client) Status(ctx context.Context) (SystemStatus, error) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, c.statusPath, nil, &body); err != nil {
		return StatusError, fmt.Errorf("status: %w", err)
	}
	for _, v := range c.readyValues {
		if strings.EqualFold(body.Status, v) {
			return StatusReady, nil
		}
	}
	return StatusError, nil
}

// Query submits a question. A blank question is rejected without a call.
func (c *Client) Query(ctx context.Context, question string) (*QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	var out QueryResult
	req := QueryRequest{Question: question, TopResults: c.topResults}
	if err := c.do(ctx, http.MethodPost, c.queryPath, req, &out); err != nil {
		return nil, err
	}
	if out.Sources == nil {
		out.Sources = []Source{}
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	auth.Authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("backend unreachable")
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("backend error")
		return &APIError{Status: resp.StatusCode, Message: serverMessage(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// serverMessage extracts the error text from {"error"}, {"detail"} or
// {"message"} bodies.
func serverMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	switch {
	case body.Error != "":
		return body.Error
	case body.Detail != "":
		return body.Detail
	default:
		return body.Message
	}
}
