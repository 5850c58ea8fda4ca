package repositories

import (
	"context"
	"errors"

	"openshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// FavoriteRepository handles favorite data access
type FavoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Find returns the favorite for a (user, book) pair, or nil
func (r *FavoriteRepository) Find(ctx context.Context, userID, bookID uint) (*models.Favorite, error) {
	var fav models.Favorite
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&fav).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fav, nil
}

// Create creates a new favorite
func (r *FavoriteRepository) Create(ctx context.Context, fav *models.Favorite) error {
	return r.db.WithContext(ctx).Create(fav).Error
}

// Delete removes a favorite for a (user, book) pair
func (r *FavoriteRepository) Delete(ctx context.Context, userID, bookID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.Favorite{}).Error
}

// ListByUser returns a user's favorites with their books, newest first
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Favorite, error) {
	var favs []*models.Favorite
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Book.Category").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favs).Error
	return favs, err
}
