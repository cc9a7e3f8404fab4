package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ehr/recorder/internal/domain/patient"
	"github.com/ehr/recorder/internal/platform/blobstore"
)

const consoleHelp = `Patient form
  set FIELD VALUE     set a form field (name, email, age, weight, location, stage, dateDiagnosed)
  form                show the form
  submit              validate and record the patient
  clear               reset the form
Patient table
  list                show the current page
  reload              fetch the patient list again
  next | prev         move one page
  page N              jump to page N
  edit ROW            open the edit surface for a row on this page
  field FIELD VALUE   change a field on the edit surface
  save                save the edit
  delete ROW          ask to delete a row on this page
  confirm             confirm the pending delete
  cancel              close the edit or delete surface
  export              save the CSV export
  csv                 print the CSV export
Biospecimen questions
  status              show backend status
  ask [QUESTION]      ask a question (or resubmit the current one)
  examples            list example questions
  example N           load example N into the question box
Other
  help                show this help
  quit                leave the console
`

var errUnknownCommand = errors.New("unknown command")

// Console is a line-oriented front end over the three view models.
type Console struct {
	Form  *PatientForm
	Table *PatientTable
	Query *QueryView
	Store blobstore.Store

	in  *bufio.Scanner
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer, form *PatientForm, table *PatientTable, query *QueryView, store blobstore.Store) *Console {
	query.OnPending(func(v *QueryView) { RenderQuestion(out, v) })
	return &Console{
		Form:  form,
		Table: table,
		Query: query,
		Store: store,
		in:    bufio.NewScanner(in),
		out:   out,
	}
}

// Run loads the table, probes the backend and then reads commands until quit,
// EOF or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	_ = c.Table.Load(ctx)
	c.Query.Init(ctx)
	RenderStatus(c.out, c.Query.Status())
	RenderTable(c.out, c.Table)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			return c.in.Err()
		}
		quit, err := c.Exec(ctx, c.in.Text())
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func splitCommand(line string) (cmd, rest string) {
	cmd, rest, _ = strings.Cut(strings.TrimSpace(line), " ")
	return strings.ToLower(cmd), strings.TrimSpace(rest)
}

func parseRow(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q", s)
	}
	return n, nil
}

// Exec runs a single command line. It reports quit=true for quit and exit.
func (c *Console) Exec(ctx context.Context, line string) (quit bool, err error) {
	cmd, rest := splitCommand(line)
	switch cmd {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprint(c.out, consoleHelp)

	// form
	case "set":
		field, value := splitCommand(rest)
		if err := c.Form.Set(fieldName(field), value); err != nil {
			return false, err
		}
	case "form":
		RenderForm(c.out, c.Form)
	case "submit":
		c.Form.Submit(ctx)
		RenderForm(c.out, c.Form)
	case "clear":
		c.Form.Reset()

	// table
	case "list":
		RenderTable(c.out, c.Table)
	case "reload":
		_ = c.Table.Load(ctx)
		RenderTable(c.out, c.Table)
	case "next":
		c.Table.Next()
		RenderTable(c.out, c.Table)
	case "prev":
		c.Table.Prev()
		RenderTable(c.out, c.Table)
	case "page":
		n, err := parseRow(rest)
		if err != nil {
			return false, err
		}
		c.Table.GoTo(n)
		RenderTable(c.out, c.Table)
	case "edit":
		n, err := parseRow(rest)
		if err != nil {
			return false, err
		}
		id, err := c.Table.RowID(n)
		if err != nil {
			return false, err
		}
		if err := c.Table.BeginEdit(id); err != nil {
			return false, err
		}
		RenderEdit(c.out, c.Table)
	case "field":
		field, value := splitCommand(rest)
		if err := c.Table.SetEditField(fieldName(field), value); err != nil {
			return false, err
		}
	case "save":
		if _, ok := c.Table.Editing(); !ok {
			return false, ErrNotEditing
		}
		if !c.Table.SaveEdit(ctx) {
			RenderEdit(c.out, c.Table)
		}
		RenderTable(c.out, c.Table)
	case "delete":
		n, err := parseRow(rest)
		if err != nil {
			return false, err
		}
		id, err := c.Table.RowID(n)
		if err != nil {
			return false, err
		}
		if err := c.Table.BeginDelete(id); err != nil {
			return false, err
		}
		p, _ := c.Table.PendingDelete()
		fmt.Fprintf(c.out, "Are you sure you want to delete %s's record? (confirm/cancel)\n", p.Name)
	case "confirm":
		if _, ok := c.Table.PendingDelete(); !ok {
			return false, errors.New("no delete pending")
		}
		c.Table.ConfirmDelete(ctx)
		RenderTable(c.out, c.Table)
	case "cancel":
		c.Table.CancelEdit()
		c.Table.CancelDelete()
	case "export":
		if c.Store == nil {
			return false, errors.New("no export destination configured")
		}
		b, err := c.Table.Export(ctx, c.Store)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "Exported %d records to %s\n", c.Table.Total(), b.Location)
	case "csv":
		fmt.Fprintln(c.out, c.Table.ExportCSV())

	// questions
	case "status":
		RenderStatus(c.out, c.Query.Status())
	case "ask":
		if rest != "" {
			c.Query.SetQuery(rest)
		}
		err := c.Query.Submit(ctx)
		RenderQueryView(c.out, c.Query)
		if errors.Is(err, ErrSubmitRejected) {
			return false, err
		}
	case "examples":
		for i, q := range c.Query.Examples() {
			fmt.Fprintf(c.out, "%d. %s\n", i+1, q)
		}
	case "example":
		n, err := parseRow(rest)
		if err != nil {
			return false, err
		}
		if !c.Query.UseExample(n) {
			return false, fmt.Errorf("no example %d", n)
		}
		fmt.Fprintf(c.out, "Question: %s\n", c.Query.Query())

	default:
		return false, fmt.Errorf("%w %q, type help", errUnknownCommand, cmd)
	}
	return false, nil
}

// fieldName accepts the field names case-insensitively, plus "date" as a
// shorthand for dateDiagnosed.
func fieldName(s string) string {
	switch strings.ToLower(s) {
	case "datediagnosed", "date":
		return patient.FieldDateDiagnosed
	default:
		return strings.ToLower(s)
	}
}
