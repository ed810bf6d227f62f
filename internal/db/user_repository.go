package db

import (
	"context"

	"github.com/terraincognita07/fastlog/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	database *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{database: database}
}

func (repo *UserRepository) FindByID(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	if err := repo.database.WithContext(ctx).First(&user, userID).Error; err != nil {
		return models.User{}, translateError(err)
	}
	return user, nil
}

func (repo *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	if err := repo.database.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return models.User{}, translateError(err)
	}
	return user, nil
}

func (repo *UserRepository) Create(ctx context.Context, user *models.User) error {
	return translateError(repo.database.WithContext(ctx).Create(user).Error)
}

func (repo *UserRepository) UpdatePasswordHash(ctx context.Context, userID uint, passwordHash string) error {
	result := repo.database.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}
