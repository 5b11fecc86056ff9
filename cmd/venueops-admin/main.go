package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/venueops-backend/internal/admincli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "venueops-admin",
		Short: "Operator tooling for the VenueOps backend",
		Long: `venueops-admin runs one-off maintenance against the configured database:
permission registry sync, system role grants and manual reminder passes.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(admincli.PermissionsCmd())
	rootCmd.AddCommand(admincli.UsersCmd())
	rootCmd.AddCommand(admincli.RemindersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
