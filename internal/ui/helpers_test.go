package ui

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ehr/recorder/internal/domain/biospecimen"
	"github.com/ehr/recorder/internal/domain/patient"
)

var testNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func validInput() patient.Input {
	return patient.Input{
		Name:          "Jane Doe",
		Email:         "jane@example.com",
		Age:           "45",
		Weight:        "62.5",
		Location:      "Boston",
		Stage:         "Stage II",
		DateDiagnosed: "2023-03-01",
	}
}

// flakyRepo is a memory repository whose calls can be made to fail.
type flakyRepo struct {
	*patient.MemoryRepository
	listErr, createErr, updateErr, deleteErr error
}

func newFlakyRepo() *flakyRepo {
	return &flakyRepo{MemoryRepository: patient.NewMemoryRepository()}
}

func (r *flakyRepo) List(ctx context.Context) ([]patient.Patient, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.MemoryRepository.List(ctx)
}

func (r *flakyRepo) Create(ctx context.Context, p *patient.Patient) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.MemoryRepository.Create(ctx, p)
}

func (r *flakyRepo) Update(ctx context.Context, p *patient.Patient) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.MemoryRepository.Update(ctx, p)
}

func (r *flakyRepo) Delete(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.MemoryRepository.Delete(ctx, id)
}

func seed(t *testing.T, repo patient.Repository, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		p := &patient.Patient{
			Name:          fmt.Sprintf("Patient %d", i),
			Email:         fmt.Sprintf("p%d@example.com", i),
			Age:           40 + i,
			Weight:        60 + float64(i),
			Location:      "Boston",
			Stage:         patient.StageII,
			DateDiagnosed: "2023-01-10",
		}
		require.NoError(t, repo.Create(context.Background(), p))
	}
}

func loadedTable(t *testing.T, n int) (*PatientTable, *flakyRepo) {
	t.Helper()
	repo := newFlakyRepo()
	seed(t, repo, n)
	c := &clock{t: testNow}
	table := NewPatientTable(repo, 5, c.Now)
	require.NoError(t, table.Load(context.Background()))
	return table, repo
}

type fakeBackend struct {
	status      biospecimen.SystemStatus
	statusErr   error
	statusCalls int

	result     *biospecimen.QueryResult
	queryErr   error
	queries    []string
	duringCall func()
}

func (f *fakeBackend) Status(context.Context) (biospecimen.SystemStatus, error) {
	f.statusCalls++
	return f.status, f.statusErr
}

func (f *fakeBackend) Query(_ context.Context, q string) (*biospecimen.QueryResult, error) {
	f.queries = append(f.queries, q)
	if f.duringCall != nil {
		f.duringCall()
	}
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.result, nil
}
