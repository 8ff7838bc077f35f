package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskmaster/assistant/internal/application/services"
	"github.com/taskmaster/assistant/internal/ports"
)

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create and deactivate users directly against the configured database",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			if email == "" || password == "" {
				return errors.New("email and password are required")
			}
			if name == "" {
				name = email
			}

			return createUser(cmd.Context(), ports.SignupRequest{Name: name, Email: email, Password: password})
		},
	}
	createUserCmd.Flags().String("name", "", "Display name (defaults to the email)")
	createUserCmd.Flags().String("email", "", "User email (required)")
	createUserCmd.Flags().String("password", "", "User password (required)")

	deactivateCmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate a user and revoke their sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			if email == "" {
				return errors.New("email is required")
			}
			return deactivateUser(cmd.Context(), email)
		},
	}
	deactivateCmd.Flags().String("email", "", "User email (required)")

	userCmd.AddCommand(createUserCmd, deactivateCmd)
	return userCmd
}

func userService() (*services.UserService, func(), error) {
	cfg, appLogger, err := bootstrap()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Driver != "postgres" {
		return nil, nil, fmt.Errorf("user management needs the postgres driver, configured driver is %q", cfg.Database.Driver)
	}

	repos, db, err := storage(cfg, appLogger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = db.Close()
		_ = appLogger.Close()
	}
	return services.NewUserService(repos.Users, repos.Auth, appLogger), cleanup, nil
}

func createUser(ctx context.Context, req ports.SignupRequest) error {
	svc, cleanup, err := userService()
	if err != nil {
		return err
	}
	defer cleanup()

	user, err := svc.CreateUser(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User created successfully:\n")
	fmt.Printf("  ID: %s\n", user.ID)
	fmt.Printf("  Name: %s\n", user.Name)
	fmt.Printf("  Email: %s\n", user.Email)
	return nil
}

func deactivateUser(ctx context.Context, email string) error {
	svc, cleanup, err := userService()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.DeactivateByEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	fmt.Printf("User %s deactivated\n", email)
	return nil
}
