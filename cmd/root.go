package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/techtranslator/techtranslator/internal/auth"
	"github.com/techtranslator/techtranslator/internal/config"
)

var (
	cfgFile    string
	apiURLFlag string

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date

	rootCmd := &cobra.Command{
		Use:   "techtranslator",
		Short: "Data science concepts, translated for insurance professionals",
		Long: "techtranslator is an interactive chat client that explains data science\n" +
			"and machine learning concepts in insurance terms, tuned to your role.",
		// Running techtranslator with no subcommand starts chat mode.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/techtranslator/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "override query API base URL")

	// Subcommands
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newConfirmCmd())
	rootCmd.AddCommand(newResendCodeCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// displayVersion returns a formatted version string, e.g. "v1.0.2 (abc1234)".
func displayVersion() string {
	v := "v" + appVersion
	if appCommit != "" && appCommit != "none" {
		v += " (" + appCommit + ")"
	}
	return v
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config values
	if apiURLFlag != "" {
		cfg.API.BaseURL = apiURLFlag
	}

	return cfg
}

// buildGate creates the identity gate based on configuration.
func buildGate(cfg *config.Config) (*auth.Gate, error) {
	credDir := cfg.Storage.Dir
	if credDir == "" {
		d, err := auth.DefaultConfigDir()
		if err != nil {
			return nil, fmt.Errorf("determine config directory: %w", err)
		}
		credDir = d
	}
	creds, err := auth.NewCredentialStore(credDir)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	var provider auth.Provider
	switch cfg.Identity.Mode {
	case "mock":
		provider = auth.NewMockProvider()
	case "cognito", "":
		if cfg.Identity.ClientID == "" {
			return nil, fmt.Errorf(
				"identity client id not configured.\n" +
					"Set it via:\n" +
					"  - config file: identity.client_id\n" +
					"  - environment: TECHTRANSLATOR_CLIENT_ID\n" +
					"  - run: techtranslator init")
		}
		provider = auth.NewCognitoProvider(cfg.Identity.Region, cfg.Identity.ClientID)
	default:
		return nil, fmt.Errorf("unknown identity mode %q; use \"cognito\" or \"mock\"", cfg.Identity.Mode)
	}

	return auth.NewGate(provider, creds, nil), nil
}
