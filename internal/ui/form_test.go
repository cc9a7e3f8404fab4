package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/recorder/internal/domain/patient"
)

type captureRecorder struct {
	got []patient.Patient
	err error
}

func (r *captureRecorder) Record(_ context.Context, p patient.Patient) error {
	if r.err != nil {
		return r.err
	}
	r.got = append(r.got, p)
	return nil
}

func fillForm(t *testing.T, f *PatientForm, in patient.Input) {
	t.Helper()
	for _, field := range patient.Fields {
		require.NoError(t, f.Set(field, in.Get(field)))
	}
}

func TestPatientForm_SubmitValid(t *testing.T) {
	c := &clock{t: testNow}
	rec := &captureRecorder{}
	f := NewPatientForm(rec, c.Now)
	fillForm(t, f, validInput())

	require.True(t, f.Submit(context.Background()))

	require.Len(t, rec.got, 1)
	assert.Equal(t, "Jane Doe", rec.got[0].Name)
	assert.Equal(t, 45, rec.got[0].Age)
	assert.Equal(t, 62.5, rec.got[0].Weight)
	assert.Equal(t, patient.StageII, rec.got[0].Stage)

	assert.Equal(t, patient.Input{}, f.Values(), "fields reset after recording")
	assert.Empty(t, f.Errors())
	assert.Equal(t, FormRecorded, f.State())
	assert.True(t, f.Success())
}

func TestPatientForm_SuccessBannerExpires(t *testing.T) {
	c := &clock{t: testNow}
	f := NewPatientForm(&captureRecorder{}, c.Now)
	fillForm(t, f, validInput())
	require.True(t, f.Submit(context.Background()))

	c.Advance(SuccessWindow - time.Millisecond)
	assert.True(t, f.Success())

	c.Advance(time.Millisecond)
	assert.False(t, f.Success())
	assert.Equal(t, FormEditing, f.State())
}

func TestPatientForm_SubmitInvalidKeepsValues(t *testing.T) {
	c := &clock{t: testNow}
	rec := &captureRecorder{}
	f := NewPatientForm(rec, c.Now)

	in := validInput()
	in.Age = "17"
	in.Weight = ""
	fillForm(t, f, in)

	assert.False(t, f.Submit(context.Background()))
	assert.Empty(t, rec.got)
	assert.Equal(t, in, f.Values())
	assert.Equal(t, patient.ValidationErrors{
		patient.FieldAge:    "Age must be between 18 and 120",
		patient.FieldWeight: "Weight is required",
	}, f.Errors())
	assert.Equal(t, FormEditing, f.State())
}

func TestPatientForm_BadEmailOnlyError(t *testing.T) {
	f := NewPatientForm(&captureRecorder{}, (&clock{t: testNow}).Now)
	fillForm(t, f, patient.Input{
		Name:          "Al",
		Email:         "bad",
		Age:           "25",
		Weight:        "70",
		Location:      "X",
		Stage:         "Stage I",
		DateDiagnosed: "2020-01-01",
	})

	assert.False(t, f.Submit(context.Background()))
	assert.Equal(t, patient.ValidationErrors{patient.FieldEmail: "Email is invalid"}, f.Errors())
}

func TestPatientForm_RecorderFailure(t *testing.T) {
	rec := RecorderFunc(func(context.Context, patient.Patient) error {
		return errors.New("patient service returned 503")
	})
	f := NewPatientForm(rec, (&clock{t: testNow}).Now)
	fillForm(t, f, validInput())

	assert.False(t, f.Submit(context.Background()))
	assert.Equal(t, "patient service returned 503", f.Errors()[FormErrorKey])
	assert.Equal(t, validInput(), f.Values())
	assert.False(t, f.Success())
}

func TestPatientForm_SetClearsFieldError(t *testing.T) {
	f := NewPatientForm(&captureRecorder{}, (&clock{t: testNow}).Now)
	assert.False(t, f.Submit(context.Background()))
	require.Contains(t, f.Errors(), patient.FieldName)

	require.NoError(t, f.Set(patient.FieldName, "Jane"))
	assert.NotContains(t, f.Errors(), patient.FieldName)
	assert.Contains(t, f.Errors(), patient.FieldEmail)

	assert.Error(t, f.Set("shoe_size", "9"))
}

func TestPatientForm_Reset(t *testing.T) {
	f := NewPatientForm(&captureRecorder{}, nil)
	require.NoError(t, f.Set(patient.FieldName, "Jane"))
	f.Reset()
	assert.Equal(t, patient.Input{}, f.Values())
}

func TestPatientForm_RecordsIntoTable(t *testing.T) {
	table, repo := loadedTable(t, 0)
	f := NewPatientForm(table, (&clock{t: testNow}).Now)
	fillForm(t, f, validInput())

	require.True(t, f.Submit(context.Background()))
	assert.Equal(t, 1, table.Total())

	stored, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, stored[0].ID, table.All()[0].ID)
}
