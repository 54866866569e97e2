package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"civicdesk/internal/bootstrap"
	"civicdesk/internal/bootstrap/logging"
	"civicdesk/internal/errs"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage complaint categories and jurisdictions",
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load categories and jurisdictions from a YAML or TOML file",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		path, _ := cmd.Flags().GetString("file")

		result, err := svc.catalog.Load(ctx, path)
		if err != nil {
			logging.Error(ctx, "load catalog failed", slog.String("file", path), slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "load catalog")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "loaded %d categories, %d jurisdictions\n", result.Categories, result.Jurisdictions); err != nil {
			return errs.Wrap(err, "write load output")
		}
		return nil
	}),
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories and jurisdictions",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		categories, err := svc.catalog.ListCategories(ctx)
		if err != nil {
			logging.Error(ctx, "list categories failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list categories")
		}
		jurisdictions, err := svc.catalog.ListJurisdictions(ctx)
		if err != nil {
			logging.Error(ctx, "list jurisdictions failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list jurisdictions")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintln(out, "categories:"); err != nil {
			return errs.Wrap(err, "write list output")
		}
		for _, category := range categories {
			if _, err := fmt.Fprintf(out, "  %s\t%s\t%s\n", category.Key, activeLabel(category.Active), category.Name); err != nil {
				return errs.Wrap(err, "write list output")
			}
		}
		if _, err := fmt.Fprintln(out, "jurisdictions:"); err != nil {
			return errs.Wrap(err, "write list output")
		}
		for _, jurisdiction := range jurisdictions {
			if _, err := fmt.Fprintf(out, "  %d\t%s\t%s\t%s\n", jurisdiction.JurisdictionID, activeLabel(jurisdiction.Active), jurisdiction.District, jurisdiction.Name); err != nil {
				return errs.Wrap(err, "write list output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogLoadCmd)
	catalogCmd.AddCommand(catalogListCmd)

	catalogLoadCmd.Flags().String("file", "", "Path to catalog file (.yaml, .yml or .toml)")
	_ = catalogLoadCmd.MarkFlagRequired("file")
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
