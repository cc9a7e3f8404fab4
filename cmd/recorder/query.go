package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ehr/recorder/internal/domain/biospecimen"
	"github.com/ehr/recorder/internal/ui"
)

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask the biospecimen research assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, 0)
			defer cancel()
			ctx = a.withCredential(ctx)

			view := ui.NewQueryView(a.queryClient())
			view.OnPending(func(v *ui.QueryView) { ui.RenderQuestion(cmd.ErrOrStderr(), v) })
			view.Init(ctx)
			view.SetQuery(strings.Join(args, " "))
			err = view.Submit(ctx)
			ui.RenderQueryView(cmd.OutOrStdout(), view)
			return err
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the research assistant backend is ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, 0)
			defer cancel()

			status, err := a.queryClient().Status(a.withCredential(ctx))
			ui.RenderStatus(cmd.OutOrStdout(), status)
			if err != nil {
				return err
			}
			if status != biospecimen.StatusReady {
				return fmt.Errorf("backend is not ready")
			}
			return nil
		},
	}
}
