package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/augmentum/backend/internal/repository"
	"github.com/augmentum/backend/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminPassword string
	revokeEmail   string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage dashboard operators",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an operator account with a bcrypt-hashed password",
	Args:  cobra.NoArgs,
	RunE:  runAdminCreate,
}

var adminRevokeCmd = &cobra.Command{
	Use:   "revoke-sessions",
	Short: "Sign an operator out of every browser",
	Args:  cobra.NoArgs,
	RunE:  runAdminRevoke,
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd, adminRevokeCmd)
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "Operator email (required)")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "Password; falls back to $INBOXCTL_PASSWORD")
	_ = adminCreateCmd.MarkFlagRequired("email")
	adminRevokeCmd.Flags().StringVar(&revokeEmail, "email", "", "Operator email (required)")
	_ = adminRevokeCmd.MarkFlagRequired("email")
}

// openAuth connects to the database and builds the auth service.
// Callers close the returned pool.
func openAuth(cmd *cobra.Command) (*service.AuthServiceImpl, *pgxpool.Pool, error) {
	pool, err := repository.NewPool(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	sessions := service.NewSessionService(repository.NewPgSessionRepository(pool), cfg.SessionTTL)
	return service.NewAuthService(repository.NewPgAdminRepository(pool), sessions), pool, nil
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	password := adminPassword
	if password == "" {
		password = os.Getenv("INBOXCTL_PASSWORD")
	}
	if password == "" {
		return errors.New("--password or INBOXCTL_PASSWORD is required")
	}

	authService, pool, err := openAuth(cmd)
	if err != nil {
		return err
	}
	defer pool.Close()

	admin, err := authService.CreateAdmin(cmd.Context(), adminEmail, password)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%s: %s", verr.Field, verr.Code)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", admin.Email, admin.ID)
	return nil
}

func runAdminRevoke(cmd *cobra.Command, args []string) error {
	authService, pool, err := openAuth(cmd)
	if err != nil {
		return err
	}
	defer pool.Close()

	admin, err := authService.RevokeSessions(cmd.Context(), revokeEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("no admin with email %s", revokeEmail)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked all sessions of %s (%s)\n", admin.Email, admin.ID)
	return nil
}
