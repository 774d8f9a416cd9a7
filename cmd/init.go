package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/techtranslator/techtranslator/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive configuration wizard",
		Long:  "Guides you through setting up techtranslator: the query API URL, the identity provider, and where to save the config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)
	cfg := config.DefaultConfig()

	fmt.Println("Welcome to techtranslator configuration wizard!")
	fmt.Println()

	fmt.Printf("Query API base URL [%s]: ", cfg.API.BaseURL)
	if v := readLine(reader); v != "" {
		cfg.API.BaseURL = strings.TrimRight(v, "/")
	}

	fmt.Print("Identity mode (cognito/mock) [cognito]: ")
	if v := readLine(reader); v != "" {
		if v != "cognito" && v != "mock" {
			return fmt.Errorf("unknown identity mode %q", v)
		}
		cfg.Identity.Mode = v
	}

	if cfg.Identity.Mode == "cognito" {
		fmt.Printf("AWS region [%s]: ", cfg.Identity.Region)
		if v := readLine(reader); v != "" {
			cfg.Identity.Region = v
		}

		fmt.Print("User pool client id: ")
		cfg.Identity.ClientID = readLine(reader)
		if cfg.Identity.ClientID == "" {
			return fmt.Errorf("client id cannot be empty")
		}
	}

	// Check if config already exists
	if path, err := config.DefaultPath(); err == nil {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("\nConfig file already exists at %s\n", path)
			fmt.Print("Overwrite? [y/N]: ")
			if strings.ToLower(readLine(reader)) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	path, _ := config.DefaultPath()
	fmt.Printf("\nConfig saved to %s\n", path)
	fmt.Println("You can now run: techtranslator login")
	return nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
