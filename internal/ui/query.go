package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ehr/recorder/internal/domain/biospecimen"
)

const (
	LabelAsk        = "Ask"
	LabelProcessing = "Processing..."

	connectFailedMessage = "Failed to connect to backend service"
)

var ErrSubmitRejected = errors.New("query not submitted")

// ExampleQuestions are offered to first-time users.
var ExampleQuestions = []string{
	"Show breast tissue samples with volume > 1ml",
	"What lung cancer samples are available?",
	"Find samples with high concentration from female patients",
}

// QueryBackend is satisfied by *biospecimen.Client.
type QueryBackend interface {
	Status(ctx context.Context) (biospecimen.SystemStatus, error)
	Query(ctx context.Context, question string) (*biospecimen.QueryResult, error)
}

// QueryView drives the question box: one readiness probe, then gated
// submissions that never overlap.
type QueryView struct {
	backend QueryBackend
	status  biospecimen.SystemStatus
	query   string
	pending bool
	result  *biospecimen.QueryResult
	err     string

	onPending func(*QueryView)
}

func NewQueryView(backend QueryBackend) *QueryView {
	return &QueryView{backend: backend, status: biospecimen.StatusChecking}
}

// Init probes the backend once. Later calls are no-ops.
func (v *QueryView) Init(ctx context.Context) {
	if v.status != biospecimen.StatusChecking {
		return
	}
	status, err := v.backend.Status(ctx)
	if err != nil {
		v.status = biospecimen.StatusError
		v.err = connectFailedMessage
		return
	}
	v.status = status
}

func (v *QueryView) Status() biospecimen.SystemStatus { return v.status }
func (v *QueryView) Query() string                    { return v.query }
func (v *QueryView) SetQuery(q string)                { v.query = q }
func (v *QueryView) Pending() bool                    { return v.pending }
func (v *QueryView) Result() *biospecimen.QueryResult { return v.result }
func (v *QueryView) Err() string                      { return v.err }

// InputDisabled mirrors the disabled state of the question box.
func (v *QueryView) InputDisabled() bool {
	return v.pending || v.status != biospecimen.StatusReady
}

func (v *QueryView) CanSubmit() bool {
	return !v.InputDisabled() && strings.TrimSpace(v.query) != ""
}

func (v *QueryView) ButtonLabel() string {
	if v.pending {
		return LabelProcessing
	}
	return LabelAsk
}

// Submit sends the current question. It returns ErrSubmitRejected without
// calling the backend when the view is not ready, the question is blank or a
// request is already in flight. A failed query keeps the previous result.
// OnPending registers fn to run once a submission is accepted, after the view
// has switched to its pending state and before the backend is called.
func (v *QueryView) OnPending(fn func(*QueryView)) {
	v.onPending = fn
}

func (v *QueryView) Submit(ctx context.Context) error {
	switch {
	case v.pending:
		return fmt.Errorf("%w: request in flight", ErrSubmitRejected)
	case v.status != biospecimen.StatusReady:
		return fmt.Errorf("%w: %w", ErrSubmitRejected, biospecimen.ErrNotReady)
	case strings.TrimSpace(v.query) == "":
		return fmt.Errorf("%w: %w", ErrSubmitRejected, biospecimen.ErrEmptyQuestion)
	}

	v.pending = true
	v.err = ""
	defer func() { v.pending = false }()
	if v.onPending != nil {
		v.onPending(v)
	}

	res, err := v.backend.Query(ctx, v.query)
	if err != nil {
		v.err = err.Error()
		return err
	}
	v.result = res
	return nil
}

func (v *QueryView) Examples() []string {
	out := make([]string, len(ExampleQuestions))
	copy(out, ExampleQuestions)
	return out
}

// UseExample copies the n-th (1-based) example into the question box.
func (v *QueryView) UseExample(n int) bool {
	if n < 1 || n > len(ExampleQuestions) {
		return false
	}
	v.query = ExampleQuestions[n-1]
	return true
}
