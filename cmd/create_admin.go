package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"momentum/config"
	"momentum/models"
	"momentum/utils"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a global administrator, or promote an existing account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return err
		}
		account, created, err := createAdmin(config.DB, adminName, adminEmail, adminPassword)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Created admin %s (%s)\n", account.Email, account.ID)
		} else {
			fmt.Printf("Promoted %s (%s) to admin\n", account.Email, account.ID)
		}
		return nil
	},
}

// createAdmin is idempotent: an existing account with the email is promoted
// and verified, keeping its password.
func createAdmin(db *gorm.DB, name, email, password string) (*models.Account, bool, error) {
	email, err := utils.NormalizeEmail(email)
	if err != nil {
		return nil, false, err
	}

	var account models.Account
	err = db.Where("email = ?", email).Take(&account).Error
	if err == nil {
		err = db.Model(&account).Updates(map[string]interface{}{
			"role":        models.RoleAdmin,
			"is_active":   true,
			"is_verified": true,
		}).Error
		return &account, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if !utils.IsStrongPassword(password) {
		return nil, false, errors.New("password must be at least 8 characters with a letter, a digit and one of @$!%*#?&")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	account = models.Account{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
		IsVerified:   true,
	}
	if err := db.Create(&account).Error; err != nil {
		return nil, false, err
	}
	return &account, true, nil
}

func init() {
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "login email (required)")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "password for a new account")
	_ = createAdminCmd.MarkFlagRequired("email")
}
