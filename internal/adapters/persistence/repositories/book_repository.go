package repositories

import (
	"context"
	"errors"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"

	"gorm.io/gorm"
)

// BookRepository handles book data access and owns the copy ledger.
// Counter updates are single conditional UPDATEs so that concurrent
// reservations on the same book serialize inside the database and the
// aggregate invariant (available + borrowed == total) never breaks,
// not even transiently.
type BookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *BookRepository) WithTx(tx *gorm.DB) *BookRepository {
	return &BookRepository{db: tx}
}

// ============================================================
// Copy Ledger
// ============================================================

// ReserveCopy moves one copy from available to borrowed.
// Requires the book to be ACTIVE with available_copies > 0.
func (r *BookRepository) ReserveCopy(ctx context.Context, bookID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND status = ? AND available_copies > 0", bookID, models.BookStatusActive).
		Updates(map[string]interface{}{
			"available_copies": gorm.Expr("available_copies - 1"),
			"borrowed_copies":  gorm.Expr("borrowed_copies + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.classifyReserveFailure(ctx, bookID)
	}
	return nil
}

// classifyReserveFailure re-reads the row to report the precise reason
func (r *BookRepository) classifyReserveFailure(ctx context.Context, bookID uint) error {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrBookNotFound
		}
		return err
	}
	if book.Status != models.BookStatusActive {
		return domain.ErrBookInactive
	}
	return domain.ErrNoCopiesAvailable
}

// ReleaseCopy moves one copy from borrowed back to available.
// borrowed_copies > 0 is a defensive guard: a zero here means a caller
// released a copy it never reserved.
func (r *BookRepository) ReleaseCopy(ctx context.Context, bookID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND borrowed_copies > 0", bookID).
		Updates(map[string]interface{}{
			"available_copies": gorm.Expr("available_copies + 1"),
			"borrowed_copies":  gorm.Expr("borrowed_copies - 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var book models.Book
		if err := r.db.WithContext(ctx).First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBookNotFound
			}
			return err
		}
		return domain.ErrInvariantViolation
	}
	return nil
}

// AddCopies raises total_copies and available_copies by n
func (r *BookRepository) AddCopies(ctx context.Context, bookID uint, n int) error {
	if n <= 0 {
		return domain.ErrInvalidInput
	}
	res := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", bookID).
		Updates(map[string]interface{}{
			"total_copies":     gorm.Expr("total_copies + ?", n),
			"available_copies": gorm.Expr("available_copies + ?", n),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// RetireCopies lowers total_copies and available_copies by n.
// Copies currently borrowed cannot be retired, so total never drops
// below borrowed_copies.
func (r *BookRepository) RetireCopies(ctx context.Context, bookID uint, n int) error {
	if n <= 0 {
		return domain.ErrInvalidInput
	}
	res := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND available_copies >= ?", bookID, n).
		Updates(map[string]interface{}{
			"total_copies":     gorm.Expr("total_copies - ?", n),
			"available_copies": gorm.Expr("available_copies - ?", n),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var book models.Book
		if err := r.db.WithContext(ctx).First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBookNotFound
			}
			return err
		}
		return domain.ErrNoCopiesAvailable
	}
	return nil
}

// ============================================================
// Catalog Queries
// ============================================================

// Create creates a new book
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID gets a book by ID with its category
func (r *BookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByISBN gets a book by ISBN
func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("isbn = ?", isbn).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Update updates a book's catalog fields (not the copy counters)
func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete soft deletes a book
func (r *BookRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Book{}, id).Error
}

// List lists books with optional search and category filter, paginated
func (r *BookRepository) List(ctx context.Context, search string, categoryID *uint, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Book{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR author LIKE ? OR isbn LIKE ?", like, like, like)
	}
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Category").
		Order("title ASC").
		Offset(offset).
		Limit(limit).
		Find(&books).Error

	return books, total, err
}

// CountByStatus counts books grouped by status (for dashboard)
func (r *BookRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type result struct {
		Status string
		Count  int64
	}
	var results []result

	err := r.db.WithContext(ctx).Model(&models.Book{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Find(&results).Error

	counts := map[string]int64{
		models.BookStatusActive:   0,
		models.BookStatusInactive: 0,
	}
	for _, res := range results {
		counts[res.Status] = res.Count
	}
	return counts, err
}
