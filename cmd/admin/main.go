package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vendora/backend/internal/database"
	"github.com/vendora/backend/internal/models"
	"github.com/vendora/backend/internal/repository"
	"github.com/vendora/backend/internal/social"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "vendora-admin",
	Short: "Vendora admin CLI - back-office operations against the database",
	Long: `Vendora admin CLI operates directly on the database for back-office
tasks: promoting admins, reviewing role conversion requests, and
repairing denormalized follow counters.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		if err := database.Initialize(); err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = database.Close()
	},
}

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Promote an account to admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var user models.User
		if err := database.DB.Where("LOWER(email) = LOWER(?)", args[0]).First(&user).Error; err != nil {
			return fmt.Errorf("no account with email %s", args[0])
		}

		if user.Role == models.RoleAdmin {
			fmt.Printf("%s is already an admin\n", user.Email)
			return nil
		}

		if err := database.DB.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
			return err
		}
		fmt.Printf("Promoted %s (%s) to admin\n", user.Email, user.ID)
		return nil
	},
}

var conversionsCmd = &cobra.Command{
	Use:   "conversions",
	Short: "Review role conversion requests",
}

var conversionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending conversion requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		var requests []models.RoleConversionRequest
		err := database.DB.Preload("User").
			Where("status = ?", models.ConversionPending).
			Order("created_at ASC").
			Find(&requests).Error
		if err != nil {
			return err
		}

		if len(requests) == 0 {
			fmt.Println("No pending conversion requests")
			return nil
		}

		for _, r := range requests {
			fmt.Printf("%s  %s (@%s)  %s -> %s  %s\n",
				r.ID, r.User.Email, r.User.Username,
				r.User.Role, r.RequestedRole,
				r.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

var conversionsDecideCmd = &cobra.Command{
	Use:   "decide <request-id> <approve|reject>",
	Short: "Approve or reject a conversion request",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		requestID, verdict := args[0], args[1]
		if verdict != "approve" && verdict != "reject" {
			return fmt.Errorf("verdict must be approve or reject, got %q", verdict)
		}

		var request models.RoleConversionRequest
		if err := database.DB.First(&request, "id = ?", requestID).Error; err != nil {
			return fmt.Errorf("no conversion request %s", requestID)
		}
		if request.Status != models.ConversionPending {
			return fmt.Errorf("request %s already decided: %s", requestID, request.Status)
		}

		status := models.ConversionRejected
		if verdict == "approve" {
			status = models.ConversionApproved
		}
		now := time.Now()

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&request).Updates(map[string]interface{}{
				"status":     status,
				"decided_at": now,
			}).Error; err != nil {
				return err
			}
			if status != models.ConversionApproved {
				return nil
			}
			return tx.Model(&models.User{}).
				Where("id = ?", request.UserID).
				Update("role", request.RequestedRole).Error
		})
		if err != nil {
			return err
		}

		fmt.Printf("Request %s %s\n", requestID, status)
		return nil
	},
}

var recountCmd = &cobra.Command{
	Use:   "recount <profile-id>",
	Short: "Recompute a profile's follow counters from the follows table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := repository.NewProfileRepository(database.DB)
		coordinator := social.NewSyncCoordinator(database.DB, repo, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := coordinator.Recount(ctx, args[0]); err != nil {
			return fmt.Errorf("recount failed: %w", err)
		}

		profile, err := repo.GetProfile(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s (@%s): %d followers, %d following\n",
			profile.ID, profile.Username,
			profile.FollowerCount, profile.FollowingCount)
		return nil
	},
}

func init() {
	conversionsCmd.AddCommand(conversionsListCmd)
	conversionsCmd.AddCommand(conversionsDecideCmd)

	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(conversionsCmd)
	rootCmd.AddCommand(recountCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
