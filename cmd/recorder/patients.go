package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ehr/recorder/internal/domain/patient"
	"github.com/ehr/recorder/internal/platform/sandbox"
	"github.com/ehr/recorder/internal/ui"
)

func patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "List, add, delete, import and export patient records",
	}
	cmd.AddCommand(patientsListCmd())
	cmd.AddCommand(patientsAddCmd())
	cmd.AddCommand(patientsDeleteCmd())
	cmd.AddCommand(patientsExportCmd())
	cmd.AddCommand(patientsImportCmd())
	cmd.AddCommand(patientsSeedCmd())
	return cmd
}

// withTable loads the configured store into a PatientTable and runs fn.
func withTable(cmd *cobra.Command, fn func(a *app, table *ui.PatientTable) error) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, 0)
	defer cancel()

	repo, _, closeRepo, err := a.repository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	table := ui.NewPatientTable(repo, a.cfg.PageSize, time.Now)
	if err := table.Load(a.withCredential(ctx)); err != nil {
		return fmt.Errorf("load patients: %w", err)
	}
	cmd.SetContext(a.withCredential(ctx))
	return fn(a, table)
}

func patientsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, _ := cmd.Flags().GetInt("page")
			return withTable(cmd, func(_ *app, table *ui.PatientTable) error {
				table.GoTo(page)
				ui.RenderTable(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
	cmd.Flags().Int("page", 1, "Page to show")
	return cmd
}

func patientsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Validate and record a new patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTable(cmd, func(_ *app, table *ui.PatientTable) error {
				form := ui.NewPatientForm(table, time.Now)
				for _, field := range patient.Fields {
					v, _ := cmd.Flags().GetString(flagFor(field))
					if err := form.Set(field, v); err != nil {
						return err
					}
				}
				if !form.Submit(cmd.Context()) {
					ui.RenderForm(cmd.ErrOrStderr(), form)
					return fmt.Errorf("patient not recorded")
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessMessage)
				return nil
			})
		},
	}
	for _, field := range patient.Fields {
		cmd.Flags().String(flagFor(field), "", "Patient "+flagFor(field))
	}
	return cmd
}

// flagFor maps form fields to flag names; dateDiagnosed becomes --date.
func flagFor(field string) string {
	if field == patient.FieldDateDiagnosed {
		return "date"
	}
	return field
}

func patientsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a patient by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withTable(cmd, func(_ *app, table *ui.PatientTable) error {
				if err := table.BeginDelete(id); err != nil {
					return err
				}
				if !table.ConfirmDelete(cmd.Context()) {
					return fmt.Errorf("%s", table.Err())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				return nil
			})
		},
	}
}

func patientsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write " + patient.ExportFilename + " to a directory or S3 bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("out")
			bucket, _ := cmd.Flags().GetString("s3-bucket")
			return withTable(cmd, func(a *app, table *ui.PatientTable) error {
				store, err := a.exportStore(cmd.Context(), dir, bucket)
				if err != nil {
					return err
				}
				b, err := table.Export(cmd.Context(), store)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", table.Total(), b.Location)
				return nil
			})
		},
	}
	cmd.Flags().String("out", "", "Output directory (default EXPORT_DIR)")
	cmd.Flags().String("s3-bucket", "", "Upload to this S3 bucket instead (default EXPORT_S3_BUCKET)")
	return cmd
}

func patientsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Record every valid row of a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withTable(cmd, func(_ *app, table *ui.PatientTable) error {
				n, err := importCSV(cmd, f, table)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records\n", n)
				return err
			})
		},
	}
}

// importCSV records each row through a fresh form so rows get the same
// validation as interactive entry. Invalid rows are reported and skipped.
func importCSV(cmd *cobra.Command, r io.Reader, table *ui.PatientTable) (int, error) {
	rows, err := patient.ReadCSV(r)
	if err != nil {
		return 0, err
	}
	// Row numbers count the header line.
	return recordInputs(cmd, rows, table, 2), nil
}

// recordInputs submits each input through its own form and returns how many
// were recorded. first is the row number reported for rows[0].
func recordInputs(cmd *cobra.Command, rows []patient.Input, table *ui.PatientTable, first int) int {
	recorded := 0
	for i, in := range rows {
		form := ui.NewPatientForm(table, time.Now)
		for _, field := range patient.Fields {
			_ = form.Set(field, in.Get(field))
		}
		if !form.Submit(cmd.Context()) {
			fmt.Fprintf(cmd.ErrOrStderr(), "row %d skipped: %s\n", i+first, form.Errors().Error())
			continue
		}
		recorded++
	}
	return recorded
}

func patientsSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Record synthetic demo patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			seed, _ := cmd.Flags().GetInt64("seed")
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			return withTable(cmd, func(_ *app, table *ui.PatientTable) error {
				rows := sandbox.NewGenerator(seed, time.Now).Patients(count)
				n := recordInputs(cmd, rows, table, 1)
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d records\n", n)
				return nil
			})
		},
	}
	cmd.Flags().Int("count", 20, "Number of patients to generate")
	cmd.Flags().Int64("seed", 1, "Random seed")
	return cmd
}
