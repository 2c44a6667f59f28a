package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	json "github.com/json-iterator/go"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
	"github.com/KomaVR/KXS-Osint-Soft/internal/observability"
	"github.com/KomaVR/KXS-Osint-Soft/internal/service"
	"github.com/KomaVR/KXS-Osint-Soft/internal/workbench"
)

var (
	searchType    string
	searchRetries int
	searchReport  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <identifier>",
	Short: "Analyze an identifier and fold the result into the entity store.",
	Long: `Search runs the full analysis pipeline for one identifier: the external
inference service classifies it, the result is merged into the entity profile
store, and the correlation graph is laid out. Identifiers are matched
case-insensitively, so "John Doe" and "john doe" land on the same profile.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchType, "type", "", "force the entity type (email, username, domain, ip, phone) instead of trusting detection")
	searchCmd.Flags().IntVar(&searchRetries, "retries", -1, "extra attempts when the inference service is unavailable (default from config)")
	searchCmd.Flags().BoolVar(&searchReport, "report", false, "generate and print an intelligence report after the search")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	if searchType != "" && !schemas.KnownEntityType(schemas.EntityType(searchType)) {
		return fmt.Errorf("unknown entity type %q", searchType)
	}

	components, err := service.Build(ctx, appCfg, logger)
	if err != nil {
		return err
	}
	defer components.Shutdown()

	retries := searchRetries
	if retries < 0 {
		retries = appCfg.Search.Retries
	}

	result, err := searchWithRetry(ctx, components.Workbench, args[0], schemas.EntityType(searchType), retries, logger)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render search result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if searchReport {
		rep, err := components.Reports.Generate(ctx, result.Profile, &result.Analysis)
		if err != nil {
			return err
		}
		path, err := components.Reports.WriteFile(rep, appCfg.Report.OutputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
	}
	return nil
}

// searchWithRetry retries the pipeline on inference-service unavailability
// only. Every other failure, including malformed-but-parsed responses and
// validation errors, surfaces immediately.
func searchWithRetry(ctx context.Context, wb *workbench.Workbench, identifier string, entityType schemas.EntityType, retries int, logger *zap.Logger) (workbench.SearchResult, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
		backoff.WithMaxInterval(10*time.Second),
	), uint64(retries)), ctx)

	var result workbench.SearchResult
	operation := func() error {
		var err error
		result, err = wb.Search(ctx, identifier, entityType)
		if err == nil {
			return nil
		}
		if errors.Is(err, schemas.ErrClassifierUnavailable) {
			logger.Warn("Inference service unavailable, retrying", zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return workbench.SearchResult{}, err
	}
	return result, nil
}
