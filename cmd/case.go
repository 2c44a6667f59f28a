package cmd

import (
	encjson "encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	json "github.com/json-iterator/go"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
	"github.com/KomaVR/KXS-Osint-Soft/internal/investigation"
	"github.com/KomaVR/KXS-Osint-Soft/internal/observability"
	"github.com/KomaVR/KXS-Osint-Soft/internal/service"
)

var (
	caseDescription     string
	caseComplianceNotes string
	casePriority        string
	caseTags            []string
	caseStatusFilter    string
	caseSearchTerm      string
	findingType         string
	findingConfidence   float64
	findingData         string
)

var caseCmd = &cobra.Command{
	Use:   "case",
	Short: "Manage investigation case files.",
}

var caseCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Open a new investigation.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd, func(c *service.Components) error {
			inv, err := c.Investigations.Create(cmd.Context(), investigation.Draft{
				Title:           args[0],
				Description:     caseDescription,
				ComplianceNotes: caseComplianceNotes,
				Tags:            caseTags,
				Priority:        schemas.Priority(casePriority),
				CreatedBy:       appCfg.Search.CreatedBy,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, inv)
		})
	},
}

var caseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List investigations, optionally filtered by status or a search term.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd, func(c *service.Components) error {
			records, err := c.Investigations.List(cmd.Context(), schemas.InvestigationStatus(caseStatusFilter), caseSearchTerm)
			if err != nil {
				return err
			}
			stats, err := c.Investigations.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active: %d  Paused: %d  Completed: %d  Archived: %d  High priority: %d\n",
				stats.Active, stats.Paused, stats.Completed, stats.Archived, stats.HighPriority)
			return printJSON(cmd, records)
		})
	},
}

var caseShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one investigation in full.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd, func(c *service.Components) error {
			inv, err := c.Investigations.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, inv)
		})
	},
}

var caseStatusCmd = &cobra.Command{
	Use:   "status <id> <active|paused|completed|archived>",
	Short: "Move an investigation to a new lifecycle state.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd, func(c *service.Components) error {
			inv, err := c.Investigations.Transition(cmd.Context(), args[0], schemas.InvestigationStatus(args[1]))
			if err != nil {
				return err
			}
			return printJSON(cmd, inv)
		})
	},
}

var caseAddFindingCmd = &cobra.Command{
	Use:   "add-finding <id>",
	Short: "Append a finding to an investigation's evidence log.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd, func(c *service.Components) error {
			f := schemas.Finding{
				Type:       findingType,
				Confidence: findingConfidence,
			}
			if findingData != "" {
				f.Data = encjson.RawMessage(findingData)
			}
			inv, err := c.Investigations.AddFinding(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			return printJSON(cmd, inv)
		})
	},
}

var caseAddTargetCmd = &cobra.Command{
	Use:   "add-target <id> <identifier>",
	Short: "Record an identifier as a target entity of the investigation.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd, func(c *service.Components) error {
			inv, err := c.Investigations.AddTargetEntity(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, inv)
		})
	},
}

var caseTimelineCmd = &cobra.Command{
	Use:   "timeline <id>",
	Short: "Print the derived event timeline of an investigation.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd, func(c *service.Components) error {
			inv, err := c.Investigations.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, event := range investigation.Timeline(inv) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-14s %s\n",
					event.Timestamp.UTC().Format(time.RFC3339), event.Kind, event.Label)
			}
			return nil
		})
	},
}

func init() {
	caseCreateCmd.Flags().StringVar(&caseDescription, "description", "", "case description")
	caseCreateCmd.Flags().StringVar(&caseComplianceNotes, "compliance-notes", "", "legal or compliance context for the case")
	caseCreateCmd.Flags().StringVar(&casePriority, "priority", "", "case priority (low, medium, high, critical)")
	caseCreateCmd.Flags().StringSliceVar(&caseTags, "tag", nil, "case tag, repeatable")

	caseListCmd.Flags().StringVar(&caseStatusFilter, "status", "", "only list cases in this status")
	caseListCmd.Flags().StringVar(&caseSearchTerm, "search", "", "substring filter over title and description")

	caseAddFindingCmd.Flags().StringVar(&findingType, "type", "", "finding type label")
	caseAddFindingCmd.Flags().Float64Var(&findingConfidence, "confidence", 0.5, "finding confidence in [0,1]")
	caseAddFindingCmd.Flags().StringVar(&findingData, "data", "", "structured finding payload as a JSON document")

	caseCmd.AddCommand(caseCreateCmd, caseListCmd, caseShowCmd, caseStatusCmd,
		caseAddFindingCmd, caseAddTargetCmd, caseTimelineCmd)
	rootCmd.AddCommand(caseCmd)
}

// withComponents builds the component graph for one command invocation and
// tears it down afterwards.
func withComponents(cmd *cobra.Command, fn func(*service.Components) error) error {
	components, err := service.Build(cmd.Context(), appCfg, observability.GetLogger())
	if err != nil {
		return err
	}
	defer components.Shutdown()
	return fn(components)
}

func printJSON(cmd *cobra.Command, value any) error {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
