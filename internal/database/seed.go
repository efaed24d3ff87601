package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedOptions controls the optional bootstrap admin.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// Seed inserts the reference data and, when configured, an admin holding
// every role. Existing rows are left alone, so Seed can be re-run.
func Seed(ctx context.Context, db *gorm.DB, opts SeedOptions, log logrus.FieldLogger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skipExisting := tx.Clauses(clause.OnConflict{DoNothing: true}).Session(&gorm.Session{})

		statuses := models.DefaultStatuses()
		if err := skipExisting.Create(&statuses).Error; err != nil {
			return fmt.Errorf("seed statuses: %w", err)
		}
		roles := models.DefaultRoles()
		if err := skipExisting.Create(&roles).Error; err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}
		types := models.DefaultIssueTypes()
		if err := skipExisting.Create(&types).Error; err != nil {
			return fmt.Errorf("seed types: %w", err)
		}
		priorities := models.DefaultPriorities()
		if err := skipExisting.Create(&priorities).Error; err != nil {
			return fmt.Errorf("seed priorities: %w", err)
		}
		log.Info("Reference data seeded")

		if opts.AdminEmail == "" || opts.AdminPassword == "" {
			return nil
		}

		var admin models.User
		err := tx.Where("email = ?", opts.AdminEmail).First(&admin).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}
			admin = models.User{
				FirstName:    "Admin",
				LastName:     "User",
				Email:        opts.AdminEmail,
				PasswordHash: string(hash),
			}
			if err := tx.Omit(clause.Associations).Create(&admin).Error; err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
		case err != nil:
			return fmt.Errorf("find admin: %w", err)
		}

		links := make([]models.UserRole, 0, len(roles))
		for _, r := range roles {
			links = append(links, models.UserRole{UserID: admin.ID, RoleID: r.ID})
		}
		if err := skipExisting.Create(&links).Error; err != nil {
			return fmt.Errorf("seed admin roles: %w", err)
		}

		log.WithField("email", admin.Email).Info("Admin user seeded")
		return nil
	})
}
