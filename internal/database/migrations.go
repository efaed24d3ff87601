package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// compositeIndexes back the list filters and history reads.
var compositeIndexes = []struct {
	table   string
	name    string
	columns string
}{
	{"issues", "idx_issues_status_resp_role", "status_id, resp_role_id"},
	{"issues", "idx_issues_creator_created", "creator_id, created_at"},
	{"status_history", "idx_status_history_issue_created", "issue_id, created_at"},
	{"comments", "idx_comments_issue_created", "issue_id, created_at"},
	{"user_roles", "idx_user_roles_role", "role_id"},
}

// AddIndexes creates the composite indexes GORM tags cannot express
func AddIndexes(db *gorm.DB, log logrus.FieldLogger) error {
	for _, idx := range compositeIndexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithField("index", idx.name).Infof("Created index on %s(%s)", idx.table, idx.columns)
	}

	return nil
}

// MigrateDatabase runs all database migrations
func MigrateDatabase(db *gorm.DB, log logrus.FieldLogger) error {
	log.Info("Running database migrations...")
	if err := AutoMigrate(db); err != nil {
		return err
	}

	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	log.Info("Database migrations completed")
	return nil
}
