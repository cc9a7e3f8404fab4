package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/recorder/internal/platform/auth"
)

// RemoteError is a non-2xx answer from the patient service. Message is the
// server's own explanation when it sent one.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("patient service returned %d %s", e.Status, http.StatusText(e.Status))
}

// Is lets callers match a 404 with errors.Is(err, ErrNotFound).
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// RemoteRepository talks to a patient collection over HTTP. The bearer token,
// when present, comes from the request context (see auth.WithCredential).
// Calls are never retried.
type RemoteRepository struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func NewRemoteRepository(baseURL string, timeout time.Duration, logger zerolog.Logger) *RemoteRepository {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (r *RemoteRepository) List(ctx context.Context) ([]Patient, error) {
	var out []Patient
	if err := r.do(ctx, http.MethodGet, "/patients", nil, &out); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return out, nil
}

func (r *RemoteRepository) Get(ctx context.Context, id string) (*Patient, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var out Patient
	if err := r.do(ctx, http.MethodGet, patientPath(id), nil, &out); err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &out, nil
}

// Create posts p without an id; the service assigns one and it is read back
// from the response.
func (r *RemoteRepository) Create(ctx context.Context, p *Patient) error {
	body := *p
	body.ID = ""
	body.CreatedAt = nil
	if err := r.do(ctx, http.MethodPost, "/patients", body, p); err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (r *RemoteRepository) Update(ctx context.Context, p *Patient) error {
	if p.ID == "" {
		return ErrMissingID
	}
	if err := r.do(ctx, http.MethodPut, patientPath(p.ID), p, p); err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}

func (r *RemoteRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	if err := r.do(ctx, http.MethodDelete, patientPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

func patientPath(id string) string {
	return "/patients/" + url.PathEscape(id)
}

func (r *RemoteRepository) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	auth.Authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("patient service unreachable")
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		rerr := &RemoteError{Status: resp.StatusCode, Message: serverMessage(data)}
		r.logger.Warn().Int("status", resp.StatusCode).Str("method", method).Str("path", path).Msg("patient service error")
		return rerr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// serverMessage pulls a human-readable message out of an error body. Both
// {"error": "..."} and {"message": "..."} shapes are accepted.
func serverMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
