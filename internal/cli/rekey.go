package cli

import (
	"fmt"
	"os"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/config"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/cryptox"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rekeyNewSecretEnv string

var rekeyCmd = &cobra.Command{
	Use:   "rekey",
	Short: "Re-encrypt every stored entry under a new service secret",
	Long: `Reads the current secret from the configuration, takes the new secret
from the environment variable named by --new-secret-env or prompts for it,
and rewrites every envelope in place. Run this offline, then update
MA_SPIRITUALITE_SECRET before starting the service again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		newSecret, err := readNewSecret(rekeyNewSecretEnv)
		if err != nil {
			return err
		}
		if len(newSecret) < config.MinSecretLength {
			return fmt.Errorf("new secret must be at least %d characters", config.MinSecretLength)
		}
		if newSecret == e.cfg.ServiceSecret {
			return fmt.Errorf("new secret matches the current one")
		}

		oldDeriver := cryptox.NewDeriver([]byte(e.cfg.ServiceSecret), e.cfg.KDFIterations, e.cfg.KDFWorkers)
		newDeriver := cryptox.NewDeriver([]byte(newSecret), e.cfg.KDFIterations, e.cfg.KDFWorkers)

		rekey := services.NewRekeyService(e.db, e.rm, e.logger)
		entries, err := rekey.Rekey(cmd.Context(), oldDeriver, newDeriver)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d entries re-encrypted; set MA_SPIRITUALITE_SECRET to the new value\n", entries)
		return nil
	},
}

// readNewSecret takes the replacement secret from the named environment
// variable, or prompts without echo when running on a terminal.
func readNewSecret(envName string) (string, error) {
	if envName != "" {
		secret, ok := os.LookupEnv(envName)
		if !ok || secret == "" {
			return "", fmt.Errorf("environment variable %s is not set", envName)
		}
		return secret, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal, pass --new-secret-env instead")
	}

	fmt.Fprint(os.Stderr, "New secret: ")
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return string(secret), nil
}

func init() {
	rekeyCmd.Flags().StringVar(&rekeyNewSecretEnv, "new-secret-env", "", "environment variable holding the new secret")
	rootCmd.AddCommand(rekeyCmd)
}
