package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"election-backend/models"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Election Admin", "admin display name")
	createAdminCmd.MarkFlagRequired("email")
	createAdminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createAdminCmd)
}

// createAdminCmd seeds an admin account directly in the store. Admins are
// regular voter records with the admin flag set and are not checked against
// the eligible roll.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(adminPassword) < 8 {
			return fmt.Errorf("admin password must be at least 8 characters")
		}

		app, err := openApp()
		if err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		admin := &models.Voter{
			ID:           uuid.New().String(),
			Email:        adminEmail,
			PasswordHash: string(hash),
			Name:         adminName,
			RegNumber:    "admin/" + uuid.New().String()[:6],
			IsAdmin:      true,
			RegisteredAt: time.Now(),
		}

		if err := app.store.CreateVoter(admin); err != nil {
			return err
		}

		fmt.Printf("Admin account %s created\n", adminEmail)
		return nil
	},
}
