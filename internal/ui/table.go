package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ehr/recorder/internal/domain/patient"
	"github.com/ehr/recorder/internal/platform/blobstore"
	"github.com/ehr/recorder/pkg/pagination"
)

var (
	ErrNoSuchRow    = errors.New("no such row")
	ErrSurfaceOpen  = errors.New("another edit or delete is in progress")
	ErrNotEditing   = errors.New("no edit in progress")
	ErrUnknownField = errors.New("unknown field")
)

type editSurface struct {
	original patient.Patient
	values   patient.Input
	errors   patient.ValidationErrors
}

// PatientTable is the paginated view over a patient repository. Mutations
// are applied locally only after the repository acknowledges them; on
// failure the rows are left as they were and Err carries the message.
type PatientTable struct {
	repo  patient.Repository
	rows  []patient.Patient
	pager *pagination.Pager
	now   func() time.Time
	err   string

	edit     *editSurface
	deleting *patient.Patient
}

func NewPatientTable(repo patient.Repository, pageSize int, now func() time.Time) *PatientTable {
	if now == nil {
		now = time.Now
	}
	return &PatientTable{repo: repo, pager: pagination.NewPager(pageSize), now: now}
}

// Load replaces the rows with the repository's current list. The current
// page is kept even if it no longer has rows.
func (t *PatientTable) Load(ctx context.Context) error {
	list, err := t.repo.List(ctx)
	if err != nil {
		t.err = fmt.Sprintf("Failed to load patients: %v", err)
		return err
	}
	t.rows = list
	t.err = ""
	return nil
}

// Record creates p in the repository and appends the stored copy.
func (t *PatientTable) Record(ctx context.Context, p patient.Patient) error {
	if err := t.repo.Create(ctx, &p); err != nil {
		t.err = fmt.Sprintf("Failed to save patient: %v", err)
		return err
	}
	t.rows = append(t.rows, p)
	t.err = ""
	return nil
}

func (t *PatientTable) Total() int { return len(t.rows) }

// All returns every row in collection order.
func (t *PatientTable) All() []patient.Patient {
	out := make([]patient.Patient, len(t.rows))
	copy(out, t.rows)
	return out
}

// Rows returns the rows on the current page.
func (t *PatientTable) Rows() []patient.Patient {
	start, end := t.pager.Window(len(t.rows))
	out := make([]patient.Patient, end-start)
	copy(out, t.rows[start:end])
	return out
}

func (t *PatientTable) Page() int      { return t.pager.Current() }
func (t *PatientTable) PageSize() int  { return t.pager.Size() }
func (t *PatientTable) PageCount() int { return t.pager.PageCount(len(t.rows)) }
func (t *PatientTable) HasPrev() bool  { return t.pager.HasPrev() }
func (t *PatientTable) HasNext() bool  { return t.pager.HasNext(len(t.rows)) }
func (t *PatientTable) Next()          { t.pager.Next(len(t.rows)) }
func (t *PatientTable) Prev()          { t.pager.Prev(len(t.rows)) }
func (t *PatientTable) GoTo(n int)     { t.pager.GoTo(n, len(t.rows)) }

// RowID resolves a 1-based row number on the current page.
func (t *PatientTable) RowID(row int) (string, error) {
	rows := t.Rows()
	if row < 1 || row > len(rows) {
		return "", fmt.Errorf("%w: %d", ErrNoSuchRow, row)
	}
	return rows[row-1].ID, nil
}

func (t *PatientTable) find(id string) int {
	for i := range t.rows {
		if t.rows[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *PatientTable) Err() string { return t.err }
func (t *PatientTable) ClearErr()   { t.err = "" }

// ---------------------------------------------------------------------------
// Edit surface
// ---------------------------------------------------------------------------

func (t *PatientTable) BeginEdit(id string) error {
	if t.edit != nil || t.deleting != nil {
		return ErrSurfaceOpen
	}
	i := t.find(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchRow, id)
	}
	t.edit = &editSurface{original: t.rows[i], values: t.rows[i].ToInput()}
	return nil
}

// Editing returns the values on the open edit surface.
func (t *PatientTable) Editing() (patient.Input, bool) {
	if t.edit == nil {
		return patient.Input{}, false
	}
	return t.edit.values, true
}

func (t *PatientTable) EditErrors() patient.ValidationErrors {
	if t.edit == nil {
		return nil
	}
	return t.edit.errors
}

func (t *PatientTable) SetEditField(field, value string) error {
	if t.edit == nil {
		return ErrNotEditing
	}
	if !t.edit.values.Set(field, value) {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	delete(t.edit.errors, field)
	return nil
}

// SaveEdit validates the edited values and, if they pass, writes them to
// the repository. Invalid values keep the surface open with field errors;
// a repository failure closes it and sets Err.
func (t *PatientTable) SaveEdit(ctx context.Context) bool {
	if t.edit == nil {
		return false
	}
	if errs := patient.Validate(t.edit.values, t.now()); !errs.Valid() {
		t.edit.errors = errs
		return false
	}

	updated := t.edit.values.ToPatient()
	updated.ID = t.edit.original.ID
	updated.CreatedAt = t.edit.original.CreatedAt
	t.edit = nil

	if err := t.repo.Update(ctx, &updated); err != nil {
		t.err = fmt.Sprintf("Failed to update patient: %v", err)
		return false
	}
	if i := t.find(updated.ID); i >= 0 {
		t.rows[i] = updated
	}
	t.err = ""
	return true
}

func (t *PatientTable) CancelEdit() { t.edit = nil }

// ---------------------------------------------------------------------------
// Delete surface
// ---------------------------------------------------------------------------

func (t *PatientTable) BeginDelete(id string) error {
	if t.edit != nil || t.deleting != nil {
		return ErrSurfaceOpen
	}
	i := t.find(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchRow, id)
	}
	p := t.rows[i]
	t.deleting = &p
	return nil
}

// PendingDelete returns the patient awaiting confirmation, if any.
func (t *PatientTable) PendingDelete() (patient.Patient, bool) {
	if t.deleting == nil {
		return patient.Patient{}, false
	}
	return *t.deleting, true
}

func (t *PatientTable) ConfirmDelete(ctx context.Context) bool {
	if t.deleting == nil {
		return false
	}
	id := t.deleting.ID
	t.deleting = nil

	if err := t.repo.Delete(ctx, id); err != nil {
		t.err = fmt.Sprintf("Failed to delete patient: %v", err)
		return false
	}
	if i := t.find(id); i >= 0 {
		t.rows = append(t.rows[:i], t.rows[i+1:]...)
	}
	t.err = ""
	return true
}

func (t *PatientTable) CancelDelete() { t.deleting = nil }

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

func (t *PatientTable) ExportCSV() string {
	return patient.GenerateCSV(t.rows)
}

// Export writes the CSV of every row to store under patient.ExportFilename.
func (t *PatientTable) Export(ctx context.Context, store blobstore.Store) (*blobstore.Blob, error) {
	b, err := store.Put(ctx, patient.ExportFilename, patient.CSVContentType, []byte(t.ExportCSV()))
	if err != nil {
		t.err = fmt.Sprintf("Failed to export patients: %v", err)
		return nil, err
	}
	return b, nil
}
