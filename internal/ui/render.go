package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ehr/recorder/internal/domain/biospecimen"
	"github.com/ehr/recorder/internal/domain/patient"
)

// Indicator is the label and colour shown for a backend status.
type Indicator struct {
	Label string
	Color string
}

func StatusIndicator(s biospecimen.SystemStatus) Indicator {
	switch s {
	case biospecimen.StatusReady:
		return Indicator{Label: "System Ready", Color: "green"}
	case biospecimen.StatusChecking:
		return Indicator{Label: "Checking System...", Color: "orange"}
	case biospecimen.StatusError:
		return Indicator{Label: "System Error", Color: "red"}
	default:
		return Indicator{Label: "Unknown Status", Color: "gray"}
	}
}

// FormatSimilarity renders a [0,1] score as a percentage with one decimal.
func FormatSimilarity(s float64) string {
	return strconv.FormatFloat(s*100, 'f', 1, 64) + "%"
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func RenderStatus(w io.Writer, s biospecimen.SystemStatus) {
	ind := StatusIndicator(s)
	fmt.Fprintf(w, "[%s] %s\n", ind.Color, ind.Label)
}

func RenderResult(w io.Writer, res *biospecimen.QueryResult) {
	if res == nil {
		return
	}
	fmt.Fprintln(w, "Answer")
	fmt.Fprintln(w, res.Answer)
	if res.ProcessingTime != "" {
		fmt.Fprintf(w, "Processed in %s\n", res.ProcessingTime)
	}
	if len(res.Sources) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSources (%d)\n", len(res.Sources))
	for i, src := range res.Sources {
		fmt.Fprintf(w, "%d. Similarity: %s\n", i+1, FormatSimilarity(src.Similarity))
		fmt.Fprintf(w, "   %s\n", src.Content)
		fmt.Fprintf(w, "   Type: %s  Site: %s\n", orUnknown(src.Metadata.SampleType), orUnknown(src.Metadata.PrimarySite))
	}
}

// RenderQueryView prints the indicator, the question box state, any error
// banner and the last result.
func RenderQueryView(w io.Writer, v *QueryView) {
	RenderStatus(w, v.Status())
	RenderQuestion(w, v)
	if v.Err() != "" {
		fmt.Fprintf(w, "Error: %s\n", v.Err())
	}
	RenderResult(w, v.Result())
}

// RenderQuestion prints the question box with its button label. The box is
// marked locked while the input is disabled.
func RenderQuestion(w io.Writer, v *QueryView) {
	lock := ""
	if v.InputDisabled() {
		lock = " (locked)"
	}
	fmt.Fprintf(w, "Question: %s  [%s]%s\n", v.Query(), v.ButtonLabel(), lock)
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64) + " kg"
}

// RenderTable prints the current page of t with a pager line.
func RenderTable(w io.Writer, t *PatientTable) {
	if t.Err() != "" {
		fmt.Fprintf(w, "Error: %s\n", t.Err())
	}
	if t.Total() == 0 {
		fmt.Fprintln(w, "No patient records found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tName\tEmail\tAge\tWeight\tLocation\tStage\tDiagnosed")
	for i, p := range t.Rows() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s (%s)\t%s\n",
			i+1, p.Name, p.Email, p.Age, formatWeight(p.Weight), p.Location,
			p.Stage.Label(), p.Stage.Color(), p.DateDiagnosed)
	}
	tw.Flush()

	fmt.Fprintf(w, "Page %d of %d (%d records)\n", t.Page(), t.PageCount(), t.Total())
}

// RenderForm prints the entry form with field errors, or the success banner
// while it is showing.
func RenderForm(w io.Writer, f *PatientForm) {
	if f.Success() {
		fmt.Fprintln(w, SuccessMessage)
	}
	renderInput(w, f.Values(), f.Errors())
}

// RenderEdit prints the open edit surface, if any.
func RenderEdit(w io.Writer, t *PatientTable) {
	values, ok := t.Editing()
	if !ok {
		return
	}
	fmt.Fprintln(w, "Edit Patient")
	renderInput(w, values, t.EditErrors())
}

func renderInput(w io.Writer, in patient.Input, errs patient.ValidationErrors) {
	if msg, ok := errs[FormErrorKey]; ok {
		fmt.Fprintf(w, "Error: %s\n", msg)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, field := range patient.Fields {
		line := fmt.Sprintf("%s\t%s", field, in.Get(field))
		if msg, ok := errs[field]; ok {
			line += "\t! " + msg
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()
}
