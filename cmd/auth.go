package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tmessner/mailminder/internal/config"
	"github.com/tmessner/mailminder/internal/google"
)

func newAuthCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Run the Google OAuth flow and cache a Gmail token",
		Long: `Run the Google OAuth authorization flow for the Gmail source.

Requires an OAuth client secret file (credentials.json by default).
The command prints an authorization URL, waits for the resulting code
on standard input, and caches the exchanged token for the serve
command to use.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			creds := google.Credentials{
				CredentialsPath: cfg.GoogleCredentialsPath,
				TokenPath:       cfg.GoogleTokenPath,
			}

			if creds.HasToken() {
				cmd.Println("A cached token already exists; re-authorizing replaces it.")
			}

			url, err := creds.AuthURL()
			if err != nil {
				return err
			}
			cmd.Printf("Open the following URL in your browser:\n\n  %s\n\nAuthorization code: ", url)

			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("authorization code is required")
			}

			if err := creds.SaveToken(cmd.Context(), code); err != nil {
				return err
			}
			cmd.Printf("Token saved to %s\n", cfg.GoogleTokenPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration file")

	return cmd
}
