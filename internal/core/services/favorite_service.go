package services

import (
	"context"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
)

// FavoriteService handles bookmark business logic
type FavoriteService struct {
	favoriteRepo *repositories.FavoriteRepository
	bookRepo     *repositories.BookRepository
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(favoriteRepo *repositories.FavoriteRepository, bookRepo *repositories.BookRepository) *FavoriteService {
	return &FavoriteService{
		favoriteRepo: favoriteRepo,
		bookRepo:     bookRepo,
	}
}

// Toggle flips the favorite state for a (user, book) pair and reports
// the new state
func (s *FavoriteService) Toggle(ctx context.Context, userID, bookID uint) (bool, error) {
	if _, err := s.bookRepo.GetByID(ctx, bookID); err != nil {
		return false, err
	}

	existing, err := s.favoriteRepo.Find(ctx, userID, bookID)
	if err != nil {
		return false, err
	}

	if existing != nil {
		if err := s.favoriteRepo.Delete(ctx, userID, bookID); err != nil {
			return false, err
		}
		return false, nil
	}

	fav := &models.Favorite{UserID: userID, BookID: bookID}
	if err := s.favoriteRepo.Create(ctx, fav); err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser returns a user's favorites
func (s *FavoriteService) ListByUser(ctx context.Context, userID uint) ([]*models.Favorite, error) {
	return s.favoriteRepo.ListByUser(ctx, userID)
}
