package ui

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/recorder/internal/domain/biospecimen"
	"github.com/ehr/recorder/internal/domain/patient"
)

func TestStatusIndicator(t *testing.T) {
	tests := []struct {
		status biospecimen.SystemStatus
		want   Indicator
	}{
		{biospecimen.StatusReady, Indicator{"System Ready", "green"}},
		{biospecimen.StatusChecking, Indicator{"Checking System...", "orange"}},
		{biospecimen.StatusError, Indicator{"System Error", "red"}},
		{"maintenance", Indicator{"Unknown Status", "gray"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusIndicator(tt.status), string(tt.status))
	}
}

func TestFormatSimilarity(t *testing.T) {
	assert.Equal(t, "91.2%", FormatSimilarity(0.912))
	assert.Equal(t, "100.0%", FormatSimilarity(1))
	assert.Equal(t, "0.0%", FormatSimilarity(0))
}

func TestRenderResult(t *testing.T) {
	var buf bytes.Buffer
	RenderResult(&buf, &biospecimen.QueryResult{
		Answer:         "Two samples match.",
		ProcessingTime: "1.23s",
		Sources: []biospecimen.Source{
			{Content: "Sample A", Similarity: 0.875, Metadata: biospecimen.SourceMetadata{SampleType: "Tissue", PrimarySite: "Breast"}},
			{Content: "Sample B", Similarity: 0.5},
		},
	})
	out := buf.String()

	assert.Contains(t, out, "Two samples match.")
	assert.Contains(t, out, "Processed in 1.23s")
	assert.Contains(t, out, "Similarity: 87.5%")
	assert.Contains(t, out, "Type: Tissue  Site: Breast")
	assert.Contains(t, out, "Type: Unknown  Site: Unknown")

	buf.Reset()
	RenderResult(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestRenderTable(t *testing.T) {
	table, _ := loadedTable(t, 6)
	var buf bytes.Buffer
	RenderTable(&buf, table)
	out := buf.String()

	assert.Contains(t, out, "Patient 1")
	assert.Contains(t, out, "61 kg")
	assert.Contains(t, out, "Stage II (warning)")
	assert.NotContains(t, out, "Patient 6")
	assert.Contains(t, out, "Page 1 of 2 (6 records)")

	empty, _ := loadedTable(t, 0)
	buf.Reset()
	RenderTable(&buf, empty)
	assert.Contains(t, buf.String(), "No patient records found.")
}

func TestRenderForm(t *testing.T) {
	c := &clock{t: testNow}
	f := NewPatientForm(&captureRecorder{}, c.Now)
	require.NoError(t, f.Set(patient.FieldName, "J"))
	f.Submit(context.Background())

	var buf bytes.Buffer
	RenderForm(&buf, f)
	assert.Contains(t, buf.String(), "Name must be at least 2 characters")
	assert.NotContains(t, buf.String(), SuccessMessage)

	fillForm(t, f, validInput())
	require.True(t, f.Submit(context.Background()))
	buf.Reset()
	RenderForm(&buf, f)
	assert.Contains(t, buf.String(), SuccessMessage)
}
