package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"civicdesk/internal/bootstrap"
	"civicdesk/internal/bootstrap/logging"
	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
	"civicdesk/internal/usecase/complaint"
)

var complaintCmd = &cobra.Command{
	Use:   "complaint",
	Short: "Register, inspect and move complaints",
}

var complaintCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new complaint",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		flags := cmd.Flags()
		category, _ := flags.GetString("category")
		description, _ := flags.GetString("description")
		lat, _ := flags.GetFloat64("lat")
		lon, _ := flags.GetFloat64("lon")
		district, _ := flags.GetString("district")
		evidence, _ := flags.GetStringSlice("evidence")
		citizenID, _ := flags.GetUint64("citizen")

		input := complaint.IntakeInput{
			Owner:        domain.OwnedBy(citizenID),
			CategoryKey:  category,
			Description:  description,
			Latitude:     &lat,
			Longitude:    &lon,
			District:     district,
			Address:      optionalFlag(cmd, "address"),
			Reference:    optionalFlag(cmd, "reference"),
			VehiclePlate: optionalFlag(cmd, "plate"),
			EvidenceRefs: evidence,
		}

		result, err := svc.complaints.CreateComplaint(ctx, input)
		if err != nil {
			logging.Error(ctx, "create complaint failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create complaint")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created complaint: %s (%s)\n", result.TrackingCode, result.Status); err != nil {
			return errs.Wrap(err, "write create output")
		}
		return nil
	}),
}

var complaintGetCmd = &cobra.Command{
	Use:   "get <tracking-code>",
	Short: "Show the public view of a complaint",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		view, err := svc.complaints.GetByTrackingCode(ctx, cmd.Flags().Arg(0))
		if err != nil {
			logging.Error(ctx, "get complaint failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "get complaint")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", view.TrackingCode, view.Status, view.Category, view.District); err != nil {
			return errs.Wrap(err, "write complaint output")
		}
		for _, entry := range view.Timeline {
			if _, err := fmt.Fprintf(out, "  %s\t%s\t%s\n", entry.At, entry.Status, entry.Observation); err != nil {
				return errs.Wrap(err, "write timeline output")
			}
		}
		return nil
	}),
}

var complaintListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the complaints owned by a citizen",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		citizenID, _ := cmd.Flags().GetUint64("citizen")

		items, err := svc.complaints.ListForOwner(ctx, citizenID)
		if err != nil {
			logging.Error(ctx, "list complaints failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list complaints")
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			if _, err := fmt.Fprintln(out, "no complaints"); err != nil {
				return errs.Wrap(err, "write list output")
			}
			return nil
		}
		for _, item := range items {
			if _, err := fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n", item.TrackingCode, item.Status, item.Category, item.District, item.UpdatedAt); err != nil {
				return errs.Wrap(err, "write list output")
			}
		}
		return nil
	}),
}

var complaintQueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List complaints waiting in a status, oldest first",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		query := complaint.QueueQuery{Status: status, Limit: limit}
		if cmd.Flags().Changed("jurisdiction") {
			jurisdictionID, _ := cmd.Flags().GetUint64("jurisdiction")
			query.JurisdictionID = &jurisdictionID
		}

		items, err := svc.complaints.ListQueue(ctx, query)
		if err != nil {
			logging.Error(ctx, "list complaint queue failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list complaint queue")
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			if _, err := fmt.Fprintln(out, "queue is empty"); err != nil {
				return errs.Wrap(err, "write queue output")
			}
			return nil
		}
		for _, item := range items {
			if _, err := fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%s\n", item.ComplaintID, item.TrackingCode, item.Category, item.District, item.CreatedAt); err != nil {
				return errs.Wrap(err, "write queue output")
			}
		}
		return nil
	}),
}

var complaintTransitionCmd = &cobra.Command{
	Use:   "transition",
	Short: "Move a complaint to a new status",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		complaintID, _ := cmd.Flags().GetUint64("id")
		status, _ := cmd.Flags().GetString("status")
		actor, _ := cmd.Flags().GetString("actor")
		observation, _ := cmd.Flags().GetString("observation")

		result, err := svc.complaints.TransitionComplaint(ctx, complaint.TransitionInput{
			ComplaintID: complaintID,
			Target:      status,
			Actor:       actor,
			Observation: observation,
		})
		if err != nil {
			logging.Error(ctx, "transition complaint failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "transition complaint")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", result.TrackingCode, result.From, result.To); err != nil {
			return errs.Wrap(err, "write transition output")
		}
		return nil
	}),
}

var complaintHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the full audit trail of a complaint",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		complaintID, _ := cmd.Flags().GetUint64("id")

		items, err := svc.complaints.History(ctx, complaintID)
		if err != nil {
			logging.Error(ctx, "complaint history failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "complaint history")
		}

		out := cmd.OutOrStdout()
		for _, item := range items {
			actor := item.Actor
			if actor == "" {
				actor = "system"
			}
			if _, err := fmt.Fprintf(out, "%d\t%s\t%s -> %s\t%s\t%s\n", item.TransitionID, item.CreatedAt, item.From, item.To, actor, item.Observation); err != nil {
				return errs.Wrap(err, "write history output")
			}
		}
		return nil
	}),
}

var complaintAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Replay the audit trail and compare it with the stored status",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		complaintID, _ := cmd.Flags().GetUint64("id")

		status, err := svc.complaints.VerifyAuditTrail(ctx, complaintID)
		if err != nil {
			logging.Error(ctx, "verify audit trail failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "verify audit trail")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "audit trail consistent: %s\n", status); err != nil {
			return errs.Wrap(err, "write audit output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(complaintCmd)
	complaintCmd.AddCommand(complaintCreateCmd)
	complaintCmd.AddCommand(complaintGetCmd)
	complaintCmd.AddCommand(complaintListCmd)
	complaintCmd.AddCommand(complaintQueueCmd)
	complaintCmd.AddCommand(complaintTransitionCmd)
	complaintCmd.AddCommand(complaintHistoryCmd)
	complaintCmd.AddCommand(complaintAuditCmd)

	complaintCreateCmd.Flags().String("category", "", "Category key")
	complaintCreateCmd.Flags().String("description", "", "What happened")
	complaintCreateCmd.Flags().Float64("lat", 0, "Latitude")
	complaintCreateCmd.Flags().Float64("lon", 0, "Longitude")
	complaintCreateCmd.Flags().String("district", "", "District name")
	complaintCreateCmd.Flags().String("address", "", "Street address")
	complaintCreateCmd.Flags().String("reference", "", "Nearby landmark")
	complaintCreateCmd.Flags().String("plate", "", "Vehicle plate")
	complaintCreateCmd.Flags().StringSlice("evidence", nil, "Evidence reference(s)")
	complaintCreateCmd.Flags().Uint64("citizen", 0, "Owning citizen id (default: anonymous)")
	_ = complaintCreateCmd.MarkFlagRequired("category")
	_ = complaintCreateCmd.MarkFlagRequired("description")
	_ = complaintCreateCmd.MarkFlagRequired("district")
	_ = complaintCreateCmd.MarkFlagRequired("lat")
	_ = complaintCreateCmd.MarkFlagRequired("lon")

	complaintListCmd.Flags().Uint64("citizen", 0, "Citizen id")
	_ = complaintListCmd.MarkFlagRequired("citizen")

	complaintQueueCmd.Flags().String("status", "RECEIVED", "Queue status")
	complaintQueueCmd.Flags().Uint64("jurisdiction", 0, "Only complaints routed to this jurisdiction")
	complaintQueueCmd.Flags().Int("limit", 0, "Maximum number of complaints (default 50)")

	complaintTransitionCmd.Flags().Uint64("id", 0, "Complaint id")
	complaintTransitionCmd.Flags().String("status", "", "Target status (IN_REVIEW|RESOLVED|REJECTED)")
	complaintTransitionCmd.Flags().String("actor", "", "Acting authority (default: system)")
	complaintTransitionCmd.Flags().String("observation", "", "Observation recorded with the change")
	_ = complaintTransitionCmd.MarkFlagRequired("id")
	_ = complaintTransitionCmd.MarkFlagRequired("status")

	complaintHistoryCmd.Flags().Uint64("id", 0, "Complaint id")
	_ = complaintHistoryCmd.MarkFlagRequired("id")

	complaintAuditCmd.Flags().Uint64("id", 0, "Complaint id")
	_ = complaintAuditCmd.MarkFlagRequired("id")
}

// optionalFlag returns nil unless the flag was set explicitly.
func optionalFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetString(name)
	return &value
}
