package cli

import (
	"context"
	"fmt"
	"time"

	"qc-tracker/backend/internal/app"
	"qc-tracker/backend/internal/config"
	"qc-tracker/backend/internal/logging"
	"qc-tracker/backend/internal/models"
	"qc-tracker/backend/internal/services"

	"github.com/spf13/cobra"
)

var (
	userName     string
	userEmail    string
	userPassword string
	userRole     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage QC users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user who can log in",
	Args:  cobra.NoArgs,
	RunE:  runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Login email")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Password, at least 8 characters")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(models.RoleQC), "Role: QC, Editor or Project Manager")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Server.Environment)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	auth := services.NewAuthService(store, nil, cfg.Auth.BCryptCost, log)
	user, err := auth.CreateUser(ctx, services.CreateUserInput{
		Name:     userName,
		Email:    userEmail,
		Password: userPassword,
		Role:     models.Role(userRole),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}
