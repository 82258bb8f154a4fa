package main

import (
	"context" // Command context
	"fmt"     // Output formatting
	"io"      // Output writer
	"os"      // Exit codes and environment

	"accounts_service/internal/accounts" // User manager
	"accounts_service/internal/config"   // Configuration
	"accounts_service/internal/db"       // Database connection
	"accounts_service/internal/logging"  // Logger setup

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"github.com/spf13/cobra"     // CLI framework
	"gorm.io/gorm"               // GORM ORM library
)

// passwordEnv lets scripts pass the password without exposing it in the process list
const passwordEnv = "SUPERUSER_PASSWORD"

type options struct {
	email          string
	name           string
	phone          string
	password       string
	skipValidation bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an administrator account",
		Long: "Create an active SUPERUSER account with staff and superuser rights.\n" +
			"The password is read from --password or the " + passwordEnv + " environment variable;\n" +
			"without one the account gets an unusable password.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.password == "" {
				opts.password = os.Getenv(passwordEnv)
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := logging.Setup(cfg.IsProd, cfg.LogLevel); err != nil {
				return err
			}
			gdb, err := db.Open(cfg)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			return run(cmd.Context(), gdb, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "email address, used to log in (required)")
	cmd.Flags().StringVar(&opts.name, "name", "", "full name")
	cmd.Flags().StringVar(&opts.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.password, "password", "", "password, prefer "+passwordEnv)
	cmd.Flags().BoolVar(&opts.skipValidation, "skip-validation", false, "store the password even if it fails the password policy")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// run creates the account described by opts
func run(ctx context.Context, gdb *gorm.DB, opts options, out io.Writer) error {
	if opts.password != "" && !opts.skipValidation {
		if err := accounts.ValidatePassword(opts.password, nil); err != nil {
			return err
		}
	}
	params := accounts.CreateParams{Email: opts.email, Name: opts.name, Password: opts.password}
	if opts.phone != "" {
		params.PhoneNo = &opts.phone
	}
	user, err := accounts.CreateSuperuser(ctx, gdb, params)
	if err != nil {
		return err
	}
	if !user.HasUsablePassword() {
		logrus.WithField("email", user.Email).Warn("superuser created without a usable password")
	}
	fmt.Fprintf(out, "Superuser %s created successfully.\n", user.Email)
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
