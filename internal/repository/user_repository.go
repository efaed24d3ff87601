package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func userRoleRows(userID uint64, roleIDs []models.RoleID) []models.UserRole {
	rows := make([]models.UserRole, 0, len(roleIDs))
	seen := make(map[models.RoleID]bool, len(roleIDs))
	for _, id := range roleIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, models.UserRole{UserID: userID, RoleID: id})
	}
	return rows
}

// Create creates the user and links its roles in one transaction
func (r *GormUserRepository) Create(ctx context.Context, user *models.User, roleIDs []models.RoleID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if rows := userRoleRows(user.ID, roleIDs); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("link roles: %w", err)
			}
		}
		return tx.Preload("Roles").First(user, user.ID).Error
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Roles").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByRefreshToken finds the user whose stored hash matches
func (r *GormUserRepository) FindByRefreshToken(ctx context.Context, hash string) (*models.User, error) {
	var user models.User
	if hash == "" {
		return nil, gorm.ErrRecordNotFound
	}
	if err := r.db.WithContext(ctx).Preload("Roles").Where("refresh_token = ?", hash).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List retrieves users with filtering and pagination
func (r *GormUserRepository) List(ctx context.Context, q *query.Query) ([]models.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Scopes(q.Filter()).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := []models.User{}
	if err := r.db.WithContext(ctx).Scopes(q.Scope()).Preload("Roles").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update saves the user and replaces the role set when roleIDs is non-nil
func (r *GormUserRepository) Update(ctx context.Context, user *models.User, roleIDs []models.RoleID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(user).Error; err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		if roleIDs != nil {
			if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserRole{}).Error; err != nil {
				return fmt.Errorf("clear roles: %w", err)
			}
			if rows := userRoleRows(user.ID, roleIDs); len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return fmt.Errorf("link roles: %w", err)
				}
			}
		}
		user.Roles = nil
		return tx.Preload("Roles").First(user, user.ID).Error
	})
}

// SetRefreshToken overwrites the single stored refresh token hash
func (r *GormUserRepository) SetRefreshToken(ctx context.Context, userID uint64, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("refresh_token", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the user's role links and then the user
func (r *GormUserRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CountRoles counts how many of the given role IDs exist
func (r *GormUserRepository) CountRoles(ctx context.Context, roleIDs []models.RoleID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Role{}).Where("id IN ?", roleIDs).Count(&count).Error
	return count, err
}
