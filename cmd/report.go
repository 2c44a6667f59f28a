package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KomaVR/KXS-Osint-Soft/internal/classifier"
	"github.com/KomaVR/KXS-Osint-Soft/internal/observability"
	"github.com/KomaVR/KXS-Osint-Soft/internal/report"
	"github.com/KomaVR/KXS-Osint-Soft/internal/service"
)

var (
	reportOutputDir string
	reportPrint     bool
)

var reportCmd = &cobra.Command{
	Use:   "report <identifier>",
	Short: "Generate an intelligence report for a stored entity profile.",
	Long: `Report fetches the stored profile for an identifier, runs a fresh
classification to ground the report prose, and exports the result as a flat
text file. The entity must have been searched before; unknown identifiers
fail rather than producing a report from nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportOutputDir, "output-dir", "", "directory for the exported report (default from config)")
	reportCmd.Flags().BoolVar(&reportPrint, "print", false, "print the report to stdout instead of writing a file")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	components, err := service.Build(ctx, appCfg, logger)
	if err != nil {
		return err
	}
	defer components.Shutdown()

	profile, err := components.Profiles.Get(ctx, args[0])
	if err != nil {
		return err
	}

	// Report prose needs a completed analysis, which is not persisted with
	// the profile. Classify again to obtain one.
	adapter := classifier.NewAdapter(components.Client, logger)
	analysis, err := adapter.Classify(ctx, profile.Identifier)
	if err != nil {
		return err
	}

	rep, err := components.Reports.Generate(ctx, profile, &analysis)
	if err != nil {
		return err
	}

	if reportPrint {
		fmt.Fprint(cmd.OutOrStdout(), report.Export(rep))
		return nil
	}

	dir := reportOutputDir
	if dir == "" {
		dir = appCfg.Report.OutputDir
	}
	path, err := components.Reports.WriteFile(rep, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
	return nil
}
