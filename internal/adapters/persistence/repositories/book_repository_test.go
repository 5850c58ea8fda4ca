package repositories

import (
	"context"
	"testing"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedBook(t *testing.T, db *gorm.DB, copies int) *models.Book {
	t.Helper()

	book := &models.Book{
		ISBN:            "978-1-1111-0001-0",
		Title:           "Ledger Test",
		Author:          "Author",
		TotalCopies:     copies,
		AvailableCopies: copies,
		Status:          models.BookStatusActive,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func TestReserveAndReleaseCopy(t *testing.T) {
	db := newTestDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()
	book := seedBook(t, db, 2)

	require.NoError(t, repo.ReserveCopy(ctx, book.ID))
	require.NoError(t, repo.ReserveCopy(ctx, book.ID))

	current, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, current.AvailableCopies)
	assert.Equal(t, 2, current.BorrowedCopies)
	assert.True(t, current.CountersConsistent())

	// Shelf is empty now
	err = repo.ReserveCopy(ctx, book.ID)
	assert.ErrorIs(t, err, domain.ErrNoCopiesAvailable)

	require.NoError(t, repo.ReleaseCopy(ctx, book.ID))
	current, err = repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.AvailableCopies)
	assert.Equal(t, 1, current.BorrowedCopies)
}

func TestReserveCopyUnknownBook(t *testing.T) {
	db := newTestDB(t)
	repo := NewBookRepository(db)

	err := repo.ReserveCopy(context.Background(), 9999)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestReserveCopyInactiveBook(t *testing.T) {
	db := newTestDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()
	book := seedBook(t, db, 3)

	require.NoError(t, db.Model(book).Update("status", models.BookStatusInactive).Error)

	err := repo.ReserveCopy(ctx, book.ID)
	assert.ErrorIs(t, err, domain.ErrBookInactive)
}

func TestReleaseCopyWithoutReservation(t *testing.T) {
	db := newTestDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()
	book := seedBook(t, db, 1)

	// Nothing is out on loan; releasing must not push counters negative
	err := repo.ReleaseCopy(ctx, book.ID)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	current, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.AvailableCopies)
	assert.Equal(t, 0, current.BorrowedCopies)
}

func TestAddCopies(t *testing.T) {
	db := newTestDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()
	book := seedBook(t, db, 1)

	require.NoError(t, repo.AddCopies(ctx, book.ID, 4))

	current, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, current.TotalCopies)
	assert.Equal(t, 5, current.AvailableCopies)
	assert.True(t, current.CountersConsistent())

	assert.ErrorIs(t, repo.AddCopies(ctx, book.ID, 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, repo.AddCopies(ctx, 9999, 1), domain.ErrBookNotFound)
}

func TestRetireCopiesOnlyIdle(t *testing.T) {
	db := newTestDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()
	book := seedBook(t, db, 3)

	require.NoError(t, repo.ReserveCopy(ctx, book.ID))

	// 2 idle copies: retiring 3 must fail, retiring 2 must pass
	err := repo.RetireCopies(ctx, book.ID, 3)
	assert.ErrorIs(t, err, domain.ErrNoCopiesAvailable)

	require.NoError(t, repo.RetireCopies(ctx, book.ID, 2))

	current, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.TotalCopies)
	assert.Equal(t, 0, current.AvailableCopies)
	assert.Equal(t, 1, current.BorrowedCopies)
	assert.True(t, current.CountersConsistent())
}
