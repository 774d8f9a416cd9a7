package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/techtranslator/techtranslator/internal/auth"
	"github.com/techtranslator/techtranslator/internal/config"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [email]",
		Short: "Log in and store credentials locally",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gate, err := buildGate(initConfig())
			if err != nil {
				return err
			}

			email, err := argOrPrompt(args, "Email: ")
			if err != nil {
				return err
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			tokens, err := gate.Login(context.Background(), email, password)
			if err != nil {
				return loginError(err)
			}
			fmt.Printf("Logged in as %s\n", tokens.Email)
			fmt.Println("Run: techtranslator")
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register [email]",
		Short: "Create a new account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gate, err := buildGate(initConfig())
			if err != nil {
				return err
			}

			email, err := argOrPrompt(args, "Email: ")
			if err != nil {
				return err
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			if err := gate.Register(context.Background(), email, password); err != nil {
				switch {
				case errors.Is(err, auth.ErrUserExists):
					return fmt.Errorf("an account with this email already exists")
				case errors.Is(err, auth.ErrWeakPassword):
					return fmt.Errorf("password does not meet the requirements")
				}
				return err
			}
			fmt.Println("Account created. Check your email for a verification code, then run:")
			fmt.Printf("  techtranslator confirm %s\n", email)
			return nil
		},
	}
}

func newConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm [email] [code]",
		Short: "Confirm a new account with the emailed code",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gate, err := buildGate(initConfig())
			if err != nil {
				return err
			}

			email, err := argOrPrompt(args, "Email: ")
			if err != nil {
				return err
			}
			code, err := argOrPrompt(args[min(len(args), 1):], "Verification code: ")
			if err != nil {
				return err
			}

			if err := gate.ConfirmRegistration(context.Background(), email, code); err != nil {
				switch {
				case errors.Is(err, auth.ErrCodeMismatch):
					return fmt.Errorf("verification code does not match")
				case errors.Is(err, auth.ErrCodeExpired):
					return fmt.Errorf("verification code expired. Run: techtranslator resend-code %s", email)
				}
				return err
			}
			fmt.Println("Account confirmed. Run: techtranslator login")
			return nil
		},
	}
}

func newResendCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resend-code [email]",
		Short: "Resend the account verification code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gate, err := buildGate(initConfig())
			if err != nil {
				return err
			}

			email, err := argOrPrompt(args, "Email: ")
			if err != nil {
				return err
			}

			if err := gate.ResendCode(context.Background(), email); err != nil {
				return err
			}
			fmt.Println("Verification code sent.")
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := initConfig()
			gate, err := buildGate(cfg)
			if err != nil {
				return err
			}

			// Local credentials are cleared even when remote revocation
			// fails; the next run always starts logged out.
			if err := gate.Logout(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}

			// The transcripts go with the credentials, so the next account
			// to log in never sees this one's chats.
			if err := clearLocalSessions(cfg, newLogger()); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

// clearLocalSessions wipes the persisted session store, memory and blob both.
func clearLocalSessions(cfg *config.Config, log *slog.Logger) error {
	store, err := openSessionStore(cfg, log)
	if err != nil {
		return err
	}
	store.Reset()
	return nil
}

func loginError(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fmt.Errorf("incorrect email or password")
	case errors.Is(err, auth.ErrUserNotConfirmed):
		return fmt.Errorf("account not confirmed. Run: techtranslator confirm")
	case errors.Is(err, auth.ErrUnknownUser):
		return fmt.Errorf("no account with this email. Run: techtranslator register")
	case errors.Is(err, auth.ErrRateLimited):
		return fmt.Errorf("too many attempts. Wait a minute and try again")
	}
	return err
}

// argOrPrompt returns the first positional argument, prompting when absent.
func argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("input cannot be empty")
	}
	return value, nil
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
