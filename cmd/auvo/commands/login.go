package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
	"github.com/fivetwenty-io/auvo-client/pkg/auvoclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		apiKey   string
		apiToken string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the Auvo API",
		Long: `Verify an API key and API token by signing in, then store them in the
configuration file. The API token is prompted for without echo when not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if apiKey == "" {
				apiKey = config.APIKey
			}

			if apiKey == "" {
				reader := bufio.NewReader(os.Stdin)
				_, _ = fmt.Fprint(cmd.OutOrStdout(), "API key: ")
				apiKey, _ = reader.ReadString('\n')
				apiKey = strings.TrimSpace(apiKey)
			}

			if apiToken == "" {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), "API token: ")

				byteToken, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read API token: %w", err)
				}

				apiToken = strings.TrimSpace(string(byteToken))

				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}

			config.APIKey = apiKey
			config.APIToken = apiToken

			clientConfig := config.clientConfig()
			clientConfig.SignInOnInit = true

			client, err := auvoclient.New(context.Background(), clientConfig)
			if err != nil {
				if auvo.IsAuthentication(err) {
					return fmt.Errorf("login failed, check the API key and API token: %w", err)
				}

				return fmt.Errorf("login failed: %w", err)
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			token := client.Auth().Token()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Authenticated against %s\n", viper.GetString(keyBaseURI))
			if token != nil && token.Expiration != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Access token valid until %s\n", token.Expiration)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Auvo API key")
	cmd.Flags().StringVar(&apiToken, "api-token", "", "Auvo API token (prompted when omitted)")

	return cmd
}
