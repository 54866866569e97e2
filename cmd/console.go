package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"civicdesk/internal/bootstrap"
	"civicdesk/internal/bootstrap/logging"
	"civicdesk/internal/errs"
	"civicdesk/internal/usecase/deskconsole"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Terminal console commands",
}

var consoleDeskCmd = &cobra.Command{
	Use:   "desk",
	Short: "Start the authority review console",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		actor, _ := cmd.Flags().GetString("actor")
		status, _ := cmd.Flags().GetString("status")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		if refreshInterval <= 0 {
			refreshInterval = 5 * time.Second
		}
		var jurisdictionID *uint64
		if cmd.Flags().Changed("jurisdiction") {
			value, _ := cmd.Flags().GetUint64("jurisdiction")
			jurisdictionID = &value
		}

		model := deskconsole.NewDeskModel(ctx, svc.complaints, deskconsole.DeskOptions{
			Actor:           actor,
			Status:          status,
			JurisdictionID:  jurisdictionID,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run desk console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.AddCommand(consoleDeskCmd)
	consoleDeskCmd.Flags().String("actor", "", "Acting authority recorded on every transition")
	consoleDeskCmd.Flags().String("status", "RECEIVED", "Initial queue status (RECEIVED|IN_REVIEW|RESOLVED|REJECTED)")
	consoleDeskCmd.Flags().Uint64("jurisdiction", 0, "Only complaints routed to this jurisdiction")
	consoleDeskCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
	_ = consoleDeskCmd.MarkFlagRequired("actor")
}
