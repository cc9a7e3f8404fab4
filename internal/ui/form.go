// Package ui holds the view models behind the recorder console: the patient
// entry form, the paginated patient table and the biospecimen query view.
// They are single-owner values driven from one goroutine and carry no locks.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/ehr/recorder/internal/domain/patient"
)

const (
	// SuccessWindow is how long the "recorded" banner stays visible.
	SuccessWindow = 3 * time.Second

	SuccessMessage = "Patient data recorded successfully!"

	// FormErrorKey holds errors that belong to the whole form rather than
	// one field, such as a failed save.
	FormErrorKey = "_form"
)

// Recorder accepts a validated patient from the form. PatientTable is the
// usual implementation.
type Recorder interface {
	Record(ctx context.Context, p patient.Patient) error
}

type RecorderFunc func(ctx context.Context, p patient.Patient) error

func (f RecorderFunc) Record(ctx context.Context, p patient.Patient) error { return f(ctx, p) }

type FormState int

const (
	FormEditing FormState = iota
	FormRecorded
)

func (s FormState) String() string {
	if s == FormRecorded {
		return "recorded"
	}
	return "editing"
}

type PatientForm struct {
	values     patient.Input
	errors     patient.ValidationErrors
	recorder   Recorder
	now        func() time.Time
	recordedAt time.Time
}

// NewPatientForm returns an empty form. A nil clock means time.Now.
func NewPatientForm(rec Recorder, now func() time.Time) *PatientForm {
	if now == nil {
		now = time.Now
	}
	return &PatientForm{recorder: rec, now: now}
}

// Set changes one field and clears any error shown against it.
func (f *PatientForm) Set(field, value string) error {
	if !f.values.Set(field, value) {
		return fmt.Errorf("unknown field %q", field)
	}
	delete(f.errors, field)
	return nil
}

func (f *PatientForm) Values() patient.Input { return f.values }

// Errors returns a copy of the current per-field messages.
func (f *PatientForm) Errors() patient.ValidationErrors {
	out := make(patient.ValidationErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Submit validates the current values and hands the record to the recorder.
// On success the fields are cleared and the success banner starts; on any
// failure the entered values stay put.
func (f *PatientForm) Submit(ctx context.Context) bool {
	now := f.now()
	if errs := patient.Validate(f.values, now); !errs.Valid() {
		f.errors = errs
		f.recordedAt = time.Time{}
		return false
	}

	if err := f.recorder.Record(ctx, f.values.ToPatient()); err != nil {
		f.errors = patient.ValidationErrors{FormErrorKey: err.Error()}
		f.recordedAt = time.Time{}
		return false
	}

	f.values = patient.Input{}
	f.errors = nil
	f.recordedAt = now
	return true
}

// State reports FormRecorded while the success banner is still inside its
// window, then falls back to FormEditing.
func (f *PatientForm) State() FormState {
	if f.recordedAt.IsZero() {
		return FormEditing
	}
	if f.now().Sub(f.recordedAt) >= SuccessWindow {
		f.recordedAt = time.Time{}
		return FormEditing
	}
	return FormRecorded
}

func (f *PatientForm) Success() bool { return f.State() == FormRecorded }

func (f *PatientForm) Reset() {
	f.values = patient.Input{}
	f.errors = nil
	f.recordedAt = time.Time{}
}
