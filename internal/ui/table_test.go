package ui

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/recorder/internal/domain/patient"
	"github.com/ehr/recorder/internal/platform/blobstore"
)

func names(ps []patient.Patient) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestPatientTable_Pagination(t *testing.T) {
	table, _ := loadedTable(t, 12)

	assert.Equal(t, 3, table.PageCount())
	assert.Equal(t, 1, table.Page())
	assert.Len(t, table.Rows(), 5)
	assert.False(t, table.HasPrev())

	table.Prev()
	assert.Equal(t, 1, table.Page(), "prev clamps at page 1")

	table.Next()
	table.Next()
	assert.Equal(t, 3, table.Page())
	assert.Equal(t, []string{"Patient 11", "Patient 12"}, names(table.Rows()))
	assert.False(t, table.HasNext())

	table.Next()
	assert.Equal(t, 3, table.Page(), "next clamps at the last page")

	table.GoTo(0)
	assert.Equal(t, 1, table.Page())
	table.GoTo(99)
	assert.Equal(t, 3, table.Page())
}

func TestPatientTable_EmptyCollection(t *testing.T) {
	table, _ := loadedTable(t, 0)
	assert.Equal(t, 0, table.PageCount())
	assert.Empty(t, table.Rows())

	table.Next()
	assert.Equal(t, 1, table.Page())
}

func TestPatientTable_DeleteLastRowKeepsPage(t *testing.T) {
	table, repo := loadedTable(t, 6)
	table.Next()
	require.Equal(t, 2, table.Page())
	require.Len(t, table.Rows(), 1)

	id, err := table.RowID(1)
	require.NoError(t, err)
	require.NoError(t, table.BeginDelete(id))
	require.True(t, table.ConfirmDelete(context.Background()))

	assert.Equal(t, 2, table.Page())
	assert.Empty(t, table.Rows())
	assert.Equal(t, 5, table.Total())
	assert.Equal(t, 1, table.PageCount())

	stored, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 5)

	table.Prev()
	assert.Equal(t, 1, table.Page())
	assert.Len(t, table.Rows(), 5)
}

func TestPatientTable_DeleteFailureLeavesRows(t *testing.T) {
	table, repo := loadedTable(t, 3)
	repo.deleteErr = errors.New("patient service returned 500")

	id, err := table.RowID(2)
	require.NoError(t, err)
	require.NoError(t, table.BeginDelete(id))

	p, ok := table.PendingDelete()
	require.True(t, ok)
	assert.Equal(t, "Patient 2", p.Name)

	assert.False(t, table.ConfirmDelete(context.Background()))
	assert.Equal(t, 3, table.Total())
	assert.Contains(t, table.Err(), "patient service returned 500")

	_, ok = table.PendingDelete()
	assert.False(t, ok, "surface closes after a failed delete")
}

func TestPatientTable_CancelDelete(t *testing.T) {
	table, _ := loadedTable(t, 2)
	id, _ := table.RowID(1)
	require.NoError(t, table.BeginDelete(id))
	table.CancelDelete()

	assert.False(t, table.ConfirmDelete(context.Background()))
	assert.Equal(t, 2, table.Total())
}

func TestPatientTable_Edit(t *testing.T) {
	table, repo := loadedTable(t, 2)
	id, err := table.RowID(2)
	require.NoError(t, err)

	require.NoError(t, table.BeginEdit(id))
	values, ok := table.Editing()
	require.True(t, ok)
	assert.Equal(t, "Patient 2", values.Name)

	require.NoError(t, table.SetEditField(patient.FieldWeight, "80"))
	require.NoError(t, table.SetEditField(patient.FieldStage, "Stage IV"))
	require.True(t, table.SaveEdit(context.Background()))

	_, ok = table.Editing()
	assert.False(t, ok)

	row := table.All()[1]
	assert.Equal(t, id, row.ID)
	assert.Equal(t, 80.0, row.Weight)
	assert.Equal(t, patient.StageIV, row.Stage)
	assert.NotNil(t, row.CreatedAt)

	stored, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 80.0, stored.Weight)
}

func TestPatientTable_EditValidation(t *testing.T) {
	table, repo := loadedTable(t, 1)
	repo.updateErr = errors.New("should not be called")
	id, _ := table.RowID(1)

	require.NoError(t, table.BeginEdit(id))
	require.NoError(t, table.SetEditField(patient.FieldAge, "200"))
	assert.False(t, table.SaveEdit(context.Background()))

	_, ok := table.Editing()
	assert.True(t, ok, "surface stays open on invalid input")
	assert.Equal(t, "Age must be between 18 and 120", table.EditErrors()[patient.FieldAge])
	assert.Empty(t, table.Err())

	require.NoError(t, table.SetEditField(patient.FieldAge, "50"))
	assert.NotContains(t, table.EditErrors(), patient.FieldAge)
}

func TestPatientTable_EditFailureLeavesRows(t *testing.T) {
	table, repo := loadedTable(t, 1)
	repo.updateErr = errors.New("connection refused")
	id, _ := table.RowID(1)

	require.NoError(t, table.BeginEdit(id))
	require.NoError(t, table.SetEditField(patient.FieldLocation, "Denver"))
	assert.False(t, table.SaveEdit(context.Background()))

	assert.Equal(t, "Boston", table.All()[0].Location)
	assert.Contains(t, table.Err(), "connection refused")
	_, ok := table.Editing()
	assert.False(t, ok)
}

func TestPatientTable_SurfacesAreExclusive(t *testing.T) {
	table, _ := loadedTable(t, 2)
	id, _ := table.RowID(1)

	require.NoError(t, table.BeginEdit(id))
	assert.ErrorIs(t, table.BeginDelete(id), ErrSurfaceOpen)
	table.CancelEdit()
	assert.NoError(t, table.BeginDelete(id))

	assert.ErrorIs(t, table.BeginEdit("missing"), ErrSurfaceOpen)
	table.CancelDelete()
	assert.ErrorIs(t, table.BeginEdit("missing"), ErrNoSuchRow)
	assert.ErrorIs(t, table.SetEditField(patient.FieldName, "x"), ErrNotEditing)

	_, err := table.RowID(3)
	assert.ErrorIs(t, err, ErrNoSuchRow)
}

func TestPatientTable_LoadFailureKeepsRows(t *testing.T) {
	table, repo := loadedTable(t, 2)
	repo.listErr = errors.New("timeout")

	assert.Error(t, table.Load(context.Background()))
	assert.Equal(t, 2, table.Total())
	assert.Contains(t, table.Err(), "timeout")

	repo.listErr = nil
	require.NoError(t, table.Load(context.Background()))
	assert.Empty(t, table.Err())
}

func TestPatientTable_RecordFailure(t *testing.T) {
	table, repo := loadedTable(t, 1)
	repo.createErr = errors.New("duplicate")

	in := validInput()
	err := table.Record(context.Background(), in.ToPatient())
	assert.Error(t, err)
	assert.Equal(t, 1, table.Total())
	assert.Contains(t, table.Err(), "duplicate")
}

func TestPatientTable_Export(t *testing.T) {
	table, _ := loadedTable(t, 3)
	store := blobstore.NewMemoryStore()

	b, err := table.Export(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, patient.ExportFilename, b.Name)

	data, meta, err := store.Get(context.Background(), patient.ExportFilename)
	require.NoError(t, err)
	assert.Equal(t, patient.CSVContentType, meta.ContentType)
	assert.Equal(t, patient.GenerateCSV(table.All()), string(data))
	assert.Equal(t, table.ExportCSV(), string(data))
}
