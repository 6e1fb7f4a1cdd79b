package cli

import (
	"fmt"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/services"
	"github.com/spf13/cobra"
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Inspect and adjust user credit balances",
}

var (
	creditsUserID      int64
	creditsAmount      int64
	creditsKind        string
	creditsRef         string
	creditsDescription string
	creditsLimit       int
)

var creditsGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Add credits to a user through the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		ledger := services.NewLedgerService(e.db, e.rm, e.logger)
		balance, err := ledger.Credit(cmd.Context(), creditsUserID, creditsAmount,
			creditsKind, creditsRef, creditsDescription)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "user %d: new balance %d\n", creditsUserID, balance)
		return nil
	},
}

var creditsBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show a user's current balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		ledger := services.NewLedgerService(e.db, e.rm, e.logger)
		balance, err := ledger.Balance(cmd.Context(), creditsUserID)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "user %d: balance %d\n", creditsUserID, balance)
		return nil
	},
}

var creditsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List a user's most recent ledger transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		ledger := services.NewLedgerService(e.db, e.rm, e.logger)
		list, err := ledger.History(cmd.Context(), creditsUserID, creditsLimit)
		if err != nil {
			return err
		}

		for _, t := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%+d\t%s\t%s\n",
				t.CreatedAt.Format("2006-01-02 15:04:05"), t.Amount, t.Kind, t.Description)
		}
		return nil
	},
}

func init() {
	creditsGrantCmd.Flags().Int64Var(&creditsUserID, "user", 0, "user id")
	creditsGrantCmd.Flags().Int64Var(&creditsAmount, "amount", 0, "credits to add")
	creditsGrantCmd.Flags().StringVar(&creditsKind, "kind", models.TransactionKindPurchase, "transaction kind (purchase or refund)")
	creditsGrantCmd.Flags().StringVar(&creditsRef, "ref", "", "external payment reference")
	creditsGrantCmd.Flags().StringVar(&creditsDescription, "description", "Achat de crédits", "ledger description")
	_ = creditsGrantCmd.MarkFlagRequired("user")
	_ = creditsGrantCmd.MarkFlagRequired("amount")

	creditsBalanceCmd.Flags().Int64Var(&creditsUserID, "user", 0, "user id")
	_ = creditsBalanceCmd.MarkFlagRequired("user")

	creditsHistoryCmd.Flags().Int64Var(&creditsUserID, "user", 0, "user id")
	creditsHistoryCmd.Flags().IntVar(&creditsLimit, "limit", 50, "max transactions to list")
	_ = creditsHistoryCmd.MarkFlagRequired("user")

	creditsCmd.AddCommand(creditsGrantCmd, creditsBalanceCmd, creditsHistoryCmd)
	rootCmd.AddCommand(creditsCmd)
}
