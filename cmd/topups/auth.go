package main

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/config"
	"github.com/Veraticus/wallet-topups/internal/gmail"
	"github.com/Veraticus/wallet-topups/internal/googleauth"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
		Long:  `Authenticate with Google so the service can read payment alerts and write reports.`,
	}

	cmd.AddCommand(authGoogleCmd("gmail", "Gmail", gmail.Scope, "gmail-token.json",
		"Run 'topups scan' to check the mailbox."))
	cmd.AddCommand(authGoogleCmd("sheets", "Google Sheets", sheetsapi.SpreadsheetsScope, "sheets-token.json",
		"Run 'topups export' to generate reports."))

	return cmd
}

func authGoogleCmd(section, title, scope, tokenName, next string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   section,
		Short: "Authenticate with " + title,
		Long: fmt.Sprintf(`Authenticate with %s using OAuth2.

This command will:
1. Open your browser to authenticate with Google
2. Save the token to %s
3. Store the refresh token in your config file

You'll need to run this once to set up the integration.`, title, tokenName),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuthGoogle(cmd, section, title, scope, tokenName, next)
		},
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")
	cmd.Flags().Bool("no-browser", false, "print the consent URL instead of opening a browser")

	return cmd
}

func runAuthGoogle(cmd *cobra.Command, section, title, scope, tokenName, next string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	clientID := viper.GetString(section + ".client_id")
	clientSecret := viper.GetString(section + ".client_secret")
	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}
	if clientID == "" || clientSecret == "" {
		return common.NewUserError(
			fmt.Sprintf("OAuth2 credentials not found. Set %s.client_id and %s.client_secret in config or use --client-id and --client-secret", section, section),
			fmt.Errorf("%w: %s oauth client", common.ErrMissingConfig, section),
		)
	}

	tokenFile := config.ExpandPath(viper.GetString(section + ".token_file"))
	if tokenFile == "" {
		tokenFile = filepath.Join(config.DataDir(), tokenName)
	}

	slog.Info("Starting Google authentication", "service", title, "token_file", tokenFile)

	noBrowser, _ := cmd.Flags().GetBool("no-browser")
	token, err := googleauth.AuthenticateInteractive(ctx, googleauth.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    tokenFile,
		Scopes:       []string{scope},
	}, func(url string) {
		cli.PrintInfo(out, "Open this URL to authorize %s:\n%s", title, url)
		if !noBrowser {
			openBrowser(url)
		}
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	viper.Set(section+".refresh_token", token.RefreshToken)
	viper.Set(section+".token_file", tokenFile)
	if err := saveConfig(); err != nil {
		slog.Warn("Failed to update config file with refresh token", "error", err)
		cli.PrintWarning(out, "Could not save the refresh token to the config file; %s still has it", tokenFile)
	}

	cli.PrintSuccess(out, "%s is now configured. %s", title, next)
	return nil
}

func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = filepath.Join(config.DataDir(), "config.yaml")
	}
	return config.WriteFile(viper.GetViper(), configFile)
}

// openBrowser tries to open the URL in the default browser.
func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start() //nolint:gosec
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start() //nolint:gosec
	case "darwin":
		err = exec.Command("open", url).Start() //nolint:gosec
	default:
		err = fmt.Errorf("unsupported platform")
	}
	if err != nil {
		slog.Debug("Failed to open browser", "error", err)
	}
}
