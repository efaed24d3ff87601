package repository

import (
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds a row lock. SQLite has no FOR UPDATE; its single writer
// already serialises the transaction.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

// lockIssue loads an issue under a row lock inside tx.
func lockIssue(tx *gorm.DB, id uint64) (*models.Issue, error) {
	var issue models.Issue
	if err := forUpdate(tx).First(&issue, id).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}
