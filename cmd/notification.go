package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"civicdesk/internal/bootstrap"
	"civicdesk/internal/bootstrap/logging"
	"civicdesk/internal/errs"
)

var notificationCmd = &cobra.Command{
	Use:   "notification",
	Short: "Read and acknowledge citizen notifications",
}

var notificationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a citizen's notifications",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		citizenID, _ := cmd.Flags().GetUint64("citizen")
		unreadOnly, _ := cmd.Flags().GetBool("unread")

		items, err := svc.notifications.ListForCitizen(ctx, citizenID, unreadOnly)
		if err != nil {
			logging.Error(ctx, "list notifications failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list notifications")
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			if _, err := fmt.Fprintln(out, "no notifications"); err != nil {
				return errs.Wrap(err, "write list output")
			}
			return nil
		}
		for _, item := range items {
			marker := " "
			if !item.IsRead {
				marker = "*"
			}
			if _, err := fmt.Fprintf(out, "%s %d\t%s\t%s\t%s\n", marker, item.NotificationID, item.CreatedAt, item.Kind, item.Message); err != nil {
				return errs.Wrap(err, "write list output")
			}
		}
		return nil
	}),
}

var notificationReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Mark one notification as read",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		citizenID, _ := cmd.Flags().GetUint64("citizen")
		notificationID, _ := cmd.Flags().GetUint64("id")

		if err := svc.notifications.MarkRead(ctx, citizenID, notificationID); err != nil {
			logging.Error(ctx, "mark notification read failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "mark notification read")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "marked notification %d as read\n", notificationID); err != nil {
			return errs.Wrap(err, "write read output")
		}
		return nil
	}),
}

var notificationReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every unread notification of a citizen as read",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		citizenID, _ := cmd.Flags().GetUint64("citizen")

		changed, err := svc.notifications.MarkAllRead(ctx, citizenID)
		if err != nil {
			logging.Error(ctx, "mark all notifications read failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "mark all notifications read")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "marked %d notification(s) as read\n", changed); err != nil {
			return errs.Wrap(err, "write read-all output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(notificationCmd)
	notificationCmd.AddCommand(notificationListCmd)
	notificationCmd.AddCommand(notificationReadCmd)
	notificationCmd.AddCommand(notificationReadAllCmd)

	notificationListCmd.Flags().Uint64("citizen", 0, "Citizen id")
	notificationListCmd.Flags().Bool("unread", false, "Only unread notifications")
	_ = notificationListCmd.MarkFlagRequired("citizen")

	notificationReadCmd.Flags().Uint64("citizen", 0, "Citizen id")
	notificationReadCmd.Flags().Uint64("id", 0, "Notification id")
	_ = notificationReadCmd.MarkFlagRequired("citizen")
	_ = notificationReadCmd.MarkFlagRequired("id")

	notificationReadAllCmd.Flags().Uint64("citizen", 0, "Citizen id")
	_ = notificationReadAllCmd.MarkFlagRequired("citizen")
}
