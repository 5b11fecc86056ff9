package admincli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/venueops-backend/internal/permissions"
)

// PermissionsCmd returns the permissions command group.
func PermissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Inspect and sync the permission registry",
	}
	cmd.AddCommand(permissionsSyncCmd())
	cmd.AddCommand(permissionsListCmd())
	return cmd
}

func permissionsService(e *env) (permissions.Service, error) {
	return permissions.NewService(e.db, permissions.NewRepository(e.db.DB()), e.logg)
}

func permissionsSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Upsert the code registry and seed missing role defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			svc, err := permissionsService(e)
			if err != nil {
				return err
			}
			result, err := svc.Sync(cmd.Context())
			if err != nil {
				return fmt.Errorf("sync permissions: %w", err)
			}
			printSyncResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func permissionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the registry and the role-default matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			svc, err := permissionsService(e)
			if err != nil {
				return err
			}
			overview, err := svc.Overview(cmd.Context())
			if err != nil {
				return fmt.Errorf("load permissions: %w", err)
			}
			printOverview(cmd.OutOrStdout(), overview)
			return nil
		},
	}
}

func printSyncResult(w io.Writer, result permissions.SyncResult) {
	fmt.Fprintf(w, "%s upserted=%d deactivated=%d matrix_added=%d\n",
		color.New(color.FgGreen).Sprint("synced"), result.Upserted, result.Deactivated, result.MatrixAdded)
}

func printOverview(w io.Writer, overview *permissions.Overview) {
	granted := make(map[string]map[string]bool)
	for _, cell := range overview.Matrix {
		if granted[cell.PermissionCode] == nil {
			granted[cell.PermissionCode] = make(map[string]bool)
		}
		granted[cell.PermissionCode][string(cell.Role)] = cell.Granted
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "CODE\tGROUP")
	for _, role := range overview.Roles {
		fmt.Fprintf(tw, "\t%s", role)
	}
	fmt.Fprintln(tw)
	for _, perm := range overview.Permissions {
		code := perm.Code
		if !perm.IsActive {
			code = color.New(color.FgHiBlack).Sprintf("%s (inactive)", perm.Code)
		}
		fmt.Fprintf(tw, "%s\t%s", code, perm.Group)
		for _, role := range overview.Roles {
			mark := color.New(color.FgRed).Sprint("-")
			if granted[perm.Code][string(role)] {
				mark = color.New(color.FgGreen).Sprint("✓")
			}
			fmt.Fprintf(tw, "\t%s", mark)
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}
