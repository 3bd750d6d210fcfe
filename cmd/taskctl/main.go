package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"taskhub/internal/application"
	"taskhub/internal/identity"
	"taskhub/internal/platform/logger"
	"taskhub/internal/platform/postgres"
)

var databaseURL string

var rootCmd = &cobra.Command{
	Use:   "taskctl",
	Short: "Administrative tooling for the task service",
	Long: `taskctl seeds and inspects the task service's backing store directly,
without going through the HTTP API. It is meant for bootstrap and
operations work: creating the first admin account, permission groups
and application workspaces.`,
	SilenceUsage: true,
}

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin <username> <password> <email>",
	Short: "Create the admin group and an admin account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		users, _, err := services()
		if err != nil {
			return err
		}
		if err := users.CreateGroup(ctx, identity.AdminGroup); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "admin group: %v (continuing)\n", err)
		}
		user, err := users.CreateUser(ctx, identity.CreateUserInput{
			Username: args[0],
			Password: args[1],
			Email:    args[2],
			Groups:   []string{identity.AdminGroup},
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", user.Username)
		return nil
	},
}

var createGroupCmd = &cobra.Command{
	Use:   "create-group <name>",
	Short: "Create a permission group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		users, _, err := services()
		if err != nil {
			return err
		}
		if err := users.CreateGroup(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created group %s\n", args[0])
		return nil
	},
}

var (
	appStartDate    string
	appEndDate      string
	appPermitCreate string
)

var createAppCmd = &cobra.Command{
	Use:   "create-app <acronym>",
	Short: "Create an application workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		_, apps, err := services()
		if err != nil {
			return err
		}
		app, err := apps.Create(ctx, application.Application{
			Acronym:      args[0],
			StartDate:    appStartDate,
			EndDate:      appEndDate,
			PermitCreate: appPermitCreate,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created application %s\n", app.Acronym)
		return nil
	},
}

func services() (*identity.Service, *application.Service, error) {
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	db, err := postgres.Open(databaseURL)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		return nil, nil, fmt.Errorf("a database URL is required, set --database-url or DATABASE_URL")
	}
	log := logger.New()
	return identity.NewService(identity.NewPostgres(db), log),
		application.NewService(application.NewPostgres(db), log), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL)")
	createAppCmd.Flags().StringVar(&appStartDate, "start", "", "start date, dd-mm-yyyy (required)")
	createAppCmd.Flags().StringVar(&appEndDate, "end", "", "end date, dd-mm-yyyy (required)")
	createAppCmd.Flags().StringVar(&appPermitCreate, "permit-create", "", "group allowed to create tasks")
	rootCmd.AddCommand(seedAdminCmd, createGroupCmd, createAppCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
