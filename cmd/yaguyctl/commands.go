package main

import (
	"fmt"
	"os"
	"time"

	"askyaguy/internal/config"
	"askyaguy/internal/database"
	"askyaguy/internal/notify"
	"askyaguy/internal/payment"
	"askyaguy/internal/repository"
	"askyaguy/internal/services"

	"github.com/spf13/cobra"
)

// connect loads config and opens a migrated database
func connect() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := database.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := connect(); err != nil {
				return err
			}
			defer database.Close()
			fmt.Println("Schema is up to date")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote an existing user",
		Long: `Create an admin account, or promote an existing user to admin.

The password is read from --password or YAGUY_ADMIN_PASSWORD. It is required
for a new account and ignored when promoting an existing one.

Examples:
  yaguyctl create-admin --email admin@yaguy.com --password 's3cret-pass'
  YAGUY_ADMIN_PASSWORD=s3cret-pass yaguyctl create-admin --email admin@yaguy.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("YAGUY_ADMIN_PASSWORD")
			}
			if _, err := connect(); err != nil {
				return err
			}
			defer database.Close()

			users := repository.NewUserRepository(database.GetDB())
			created, err := ensureAdmin(cmd.Context(), users, email, password, name)
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("Admin user %s created\n", email)
			} else {
				fmt.Printf("User %s is now an admin\n", email)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", "", "password for a new account")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func slaRemindCmd() *cobra.Command {
	var within time.Duration

	cmd := &cobra.Command{
		Use:   "sla-remind",
		Short: "Email the admin about open questions close to their due date",
		Long: `Email the admin about every received or in-progress question due within
the window. Meant to be run periodically, for example from cron:

  */30 * * * * yaguyctl sla-remind --within 2h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := connect()
			if err != nil {
				return err
			}
			defer database.Close()

			sender, err := notify.NewSender(&cfg.Email)
			if err != nil {
				return err
			}
			db := database.GetDB()
			questions := repository.NewQuestionRepository(db)
			notifier := notify.NewNotifier(sender, questions, notify.NewTemplates(cfg.App.FrontendURL, cfg.Pricing.Currency), cfg.Email.AdminEmail)

			// Reminders never touch payments; the mock gateway satisfies the dependency
			svc := services.NewQuestionService(questions, repository.NewUserRepository(db), payment.NewMockGateway(false), notifier, cfg.Pricing, cfg.App.FrontendURL)

			sent, err := svc.SendSLAReminders(cmd.Context(), within)
			if err != nil {
				return err
			}
			fmt.Printf("Sent %d SLA reminder(s) to %s\n", sent, cfg.Email.AdminEmail)
			return nil
		},
	}

	cmd.Flags().DurationVar(&within, "within", 2*time.Hour, "remind about questions due within this window")

	return cmd
}
