package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KomaVR/KXS-Osint-Soft/internal/service"
)

var (
	entitiesSort  string
	entitiesLimit int
)

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List stored entity profiles.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd, func(c *service.Components) error {
			profiles, err := c.Profiles.List(cmd.Context(), entitiesSort, entitiesLimit)
			if err != nil {
				return err
			}
			return printJSON(cmd, profiles)
		})
	},
}

func init() {
	entitiesCmd.Flags().StringVar(&entitiesSort, "sort", "-created_at", `sort key: "created_at" or "identifier", "-" prefix for descending`)
	entitiesCmd.Flags().IntVar(&entitiesLimit, "limit", 0, "maximum number of profiles to return (0 for all)")
	rootCmd.AddCommand(entitiesCmd)
}
