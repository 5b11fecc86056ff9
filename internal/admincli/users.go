package admincli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/venueops-backend/internal/users"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// UsersCmd returns the users command group.
func UsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage platform users",
	}
	cmd.AddCommand(usersSetRoleCmd())
	return cmd
}

func usersSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <username|tg_user_id> <role>",
		Short: "Set a user's system role (SUPER_ADMIN, MODERATOR or NONE)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := enums.ParseSystemRole(strings.ToUpper(strings.TrimSpace(args[1])))
			if err != nil {
				return err
			}

			e, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			svc, err := users.NewService(users.NewRepository(e.db.DB()), e.logg)
			if err != nil {
				return err
			}
			user, err := svc.SetSystemRole(cmd.Context(), args[0], role)
			if err != nil {
				return fmt.Errorf("set role: %w", err)
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}
}

func printUser(w io.Writer, user *users.UserDTO) {
	name := "-"
	if user.TgUsername != nil {
		name = "@" + *user.TgUsername
	}
	fmt.Fprintf(w, "%s %s (tg %d) is now %s\n",
		color.New(color.FgGreen).Sprint("updated"), name, user.TgUserID,
		color.New(color.FgCyan).Sprint(user.SystemRole))
}
