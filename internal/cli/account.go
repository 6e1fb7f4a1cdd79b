package cli

import (
	"fmt"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/services"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Create, inspect and remove accounts",
}

var (
	accountEmail  string
	accountUserID int64
)

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account with its encryption salt and signup credits",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		accounts := services.NewAccountService(e.db, e.rm, e.logger)
		user, err := accounts.Register(cmd.Context(), accountEmail)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "user %d created with %d credits\n", user.ID, user.Credits)
		return nil
	},
}

var accountShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show an account's balance and provisioning state",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		accounts := services.NewAccountService(e.db, e.rm, e.logger)
		user, err := accounts.GetUser(cmd.Context(), accountUserID)
		if err != nil {
			return err
		}

		saltState := "provisioned"
		if len(user.EncryptionSalt) == 0 {
			saltState = "missing"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user %d\temail %s\tcredits %d\tsalt %s\n",
			user.ID, user.Email, user.Credits, saltState)
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete an account and its journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		accounts := services.NewAccountService(e.db, e.rm, e.logger)
		deleted, err := accounts.DeleteAccount(cmd.Context(), accountUserID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("user %d not found", accountUserID)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "user %d deleted\n", accountUserID)
		return nil
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&accountEmail, "email", "", "account email")
	_ = accountCreateCmd.MarkFlagRequired("email")

	accountShowCmd.Flags().Int64Var(&accountUserID, "user", 0, "user id")
	_ = accountShowCmd.MarkFlagRequired("user")

	accountDeleteCmd.Flags().Int64Var(&accountUserID, "user", 0, "user id")
	_ = accountDeleteCmd.MarkFlagRequired("user")

	accountCmd.AddCommand(accountCreateCmd, accountShowCmd, accountDeleteCmd)
	rootCmd.AddCommand(accountCmd)
}
