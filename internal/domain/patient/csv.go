package patient

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ExportFilename is the fixed name offered for CSV downloads.
const ExportFilename = "breast_cancer_patients.csv"

// CSVContentType is served alongside exported files.
const CSVContentType = "text/csv;charset=utf-8"

// CSVHeader is the fixed export header, in column order.
var CSVHeader = []string{
	"Name", "Email", "Age", "Weight (kg)", "Location", "Cancer Stage", "Date Diagnosed",
}

// GenerateCSV renders records as CSV: an unquoted header line followed by one
// line per record with every field quoted and embedded quotes doubled. Lines
// are joined with "\n" and there is no trailing newline.
func GenerateCSV(patients []Patient) string {
	lines := make([]string, 0, len(patients)+1)
	lines = append(lines, strings.Join(CSVHeader, ","))
	for _, p := range patients {
		row := csvRow(p)
		for i, v := range row {
			row[i] = quoteField(v)
		}
		lines = append(lines, strings.Join(row, ","))
	}
	return strings.Join(lines, "\n")
}

func csvRow(p Patient) []string {
	return []string{
		p.Name,
		p.Email,
		strconv.Itoa(p.Age),
		strconv.FormatFloat(p.Weight, 'f', -1, 64),
		p.Location,
		string(p.Stage),
		p.DateDiagnosed,
	}
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ReadCSV parses an export produced by GenerateCSV back into raw form values.
// The header must match CSVHeader exactly. encoding/csv folds a "\r\n" inside
// a quoted field to "\n", so CR bytes in values do not survive the round trip.
func ReadCSV(r io.Reader) ([]Input, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	for i, h := range CSVHeader {
		if header[i] != h {
			return nil, fmt.Errorf("csv: unexpected column %d %q, want %q", i+1, header[i], h)
		}
	}

	var out []Input
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row %d: %w", len(out)+1, err)
		}
		out = append(out, Input{
			Name:          rec[0],
			Email:         rec[1],
			Age:           rec[2],
			Weight:        rec[3],
			Location:      rec[4],
			Stage:         rec[5],
			DateDiagnosed: rec[6],
		})
	}
	return out, nil
}
