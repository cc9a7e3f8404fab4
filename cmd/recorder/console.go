package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ehr/recorder/internal/ui"
)

func consoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive session: record patients, browse the table, ask questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, 0)
			defer cancel()
			ctx = a.withCredential(ctx)

			repo, _, closeRepo, err := a.repository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			outDir, _ := cmd.Flags().GetString("out")
			bucket, _ := cmd.Flags().GetString("s3-bucket")
			store, err := a.exportStore(ctx, outDir, bucket)
			if err != nil {
				return err
			}

			table := ui.NewPatientTable(repo, a.cfg.PageSize, time.Now)
			form := ui.NewPatientForm(table, time.Now)
			query := ui.NewQueryView(a.queryClient())

			con := ui.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout(), form, table, query, store)
			return con.Run(ctx)
		},
	}
	cmd.Flags().String("out", "", "Export directory (default EXPORT_DIR)")
	cmd.Flags().String("s3-bucket", "", "Export to this S3 bucket (default EXPORT_S3_BUCKET)")
	return cmd
}
