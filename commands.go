package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/app/scheduler"
	"github.com/amirphl/Maskan/config"
	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/repository"
	"github.com/amirphl/Maskan/utils"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pruneClicksCmd)
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(issueTokenCmd)

	createUserCmd.Flags().String("name", "", "Full name of the user")
	createUserCmd.Flags().String("role", string(models.UserRoleAgent), "AGENT, PROMOTER or ADMIN")
	createUserCmd.Flags().Bool("approved", false, "Create the user already approved")
	createUserCmd.Flags().Uint("referrer", 0, "ID of the agent who recruited this user")

	issueTokenCmd.Flags().Uint("user-id", 0, "ID of the user to issue tokens for")
	_ = issueTokenCmd.MarkFlagRequired("user-id")
}

var rootCmd = &cobra.Command{
	Use:   "maskan",
	Short: "Referral attribution and commission settlement service",
	Long: `Maskan tracks shared listing links, attributes inquiries to the
promoters who brought them in, and settles commissions as inquiries
move through their lifecycle.`,
	SilenceUsage: true,
}

// loadConfig loads configuration and points the standard logger at its destination.
// The returned function flushes the log file.
func loadConfig() (*config.ProductionConfig, func(), error) {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	closer := setupLogging(cfg.Logging)
	return cfg, func() { _ = closer.Close() }, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := loadConfig()
		if err != nil {
			return err
		}
		defer done()
		return runServe(cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and seed default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := loadConfig()
		if err != nil {
			return err
		}
		defer done()

		db, err := initializeDatabase(cfg.Database)
		if err != nil {
			return err
		}
		if err := db.AutoMigrate(models.AllModels()...); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		if err := repository.NewSystemSettingRepository(db).SeedDefaults(ctx); err != nil {
			return fmt.Errorf("failed to seed settings: %w", err)
		}

		log.Println("Migration completed")
		return nil
	},
}

var pruneClicksCmd = &cobra.Command{
	Use:   "prune-clicks",
	Short: "Delete click events older than the retention window once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := loadConfig()
		if err != nil {
			return err
		}
		defer done()

		db, err := initializeDatabase(cfg.Database)
		if err != nil {
			return err
		}
		pruner := scheduler.NewClickPruner(
			repository.NewClickEventRepository(db),
			cfg.Attribution.ClickRetention,
			cfg.Attribution.ClickPruneInterval,
			log.Default(),
		)
		n, err := pruner.RunOnce(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to prune click events: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d click events\n", n)
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Register a marketplace user",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		roleFlag, _ := cmd.Flags().GetString("role")
		approved, _ := cmd.Flags().GetBool("approved")
		referrer, _ := cmd.Flags().GetUint("referrer")

		role := models.UserRole(strings.ToUpper(strings.TrimSpace(roleFlag)))
		if !role.Valid() {
			return fmt.Errorf("invalid role %q", roleFlag)
		}

		cfg, done, err := loadConfig()
		if err != nil {
			return err
		}
		defer done()

		db, err := initializeDatabase(cfg.Database)
		if err != nil {
			return err
		}
		userRepo := repository.NewUserRepository(db)

		user := &models.User{
			FullName:   strings.TrimSpace(name),
			Role:       role,
			IsApproved: approved,
			CreatedAt:  utils.UTCNow(),
			UpdatedAt:  utils.UTCNow(),
		}
		if referrer > 0 {
			recruiter, err := userRepo.ByID(cmd.Context(), referrer)
			if err != nil {
				return err
			}
			if recruiter == nil {
				return fmt.Errorf("referrer %d not found", referrer)
			}
			user.ReferrerID = utils.ToPtr(referrer)
		}

		if err := userRepo.Save(cmd.Context(), user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %d\n", user.Role, user.ID)
		return nil
	},
}

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Issue an access/refresh token pair for an existing user",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetUint("user-id")

		cfg, done, err := loadConfig()
		if err != nil {
			return err
		}
		defer done()

		db, err := initializeDatabase(cfg.Database)
		if err != nil {
			return err
		}
		user, err := repository.NewUserRepository(db).ByID(cmd.Context(), userID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %d not found", userID)
		}

		tokenService, err := initializeTokenService(cfg.JWT)
		if err != nil {
			return err
		}
		access, refresh, err := tokenService.GenerateTokens(user.ID, user.Role)
		if err != nil {
			return fmt.Errorf("failed to generate tokens: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(dto.TokenPairResponse{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    "Bearer",
			ExpiresIn:    int(cfg.JWT.AccessTokenTTL.Seconds()),
		})
	},
}
