package services

import (
	"testing"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/config"

	"github.com/benbjohnson/clock"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database. The pool is capped
// at one connection so the memory database survives for the whole test
// and concurrent writers serialize instead of hitting SQLITE_BUSY.
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

func testPolicy() config.CirculationConfig {
	return config.CirculationConfig{
		LoanPeriodDays:            30,
		MaxRenewals:               2,
		DailyFineRate:             decimal.RequireFromString("0.50"),
		RenewalBlockedWhenOverdue: true,
		DueSoonWindowDays:         3,
		SweepCronSpec:             "0 2 * * *",
	}
}

type testEnv struct {
	db          *gorm.DB
	clock       *clock.Mock
	policy      config.CirculationConfig
	bookRepo    *repositories.BookRepository
	loanRepo    *repositories.LoanRepository
	userRepo    repositories.UserRepository
	circulation *CirculationService
	scanner     *OverdueScanner
}

func newTestEnv(t *testing.T, policy config.CirculationConfig) *testEnv {
	t.Helper()

	db := newTestDB(t)
	clk := clock.NewMock()

	bookRepo := repositories.NewBookRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	userRepo := repositories.NewUserRepository(db)

	return &testEnv{
		db:          db,
		clock:       clk,
		policy:      policy,
		bookRepo:    bookRepo,
		loanRepo:    loanRepo,
		userRepo:    userRepo,
		circulation: NewCirculationService(db, bookRepo, loanRepo, userRepo, policy, clk),
		scanner:     NewOverdueScanner(loanRepo, policy, clk),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.org",
		Password: "irrelevant",
		Role:     "USER",
		Status:   models.UserStatusActive,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createBook(t *testing.T, isbn string, copies int) *models.Book {
	t.Helper()

	book := &models.Book{
		ISBN:            isbn,
		Title:           "Title " + isbn,
		Author:          "Author",
		TotalCopies:     copies,
		AvailableCopies: copies,
		Status:          models.BookStatusActive,
	}
	require.NoError(t, e.db.Create(book).Error)
	return book
}

func (e *testEnv) reloadBook(t *testing.T, id uint) *models.Book {
	t.Helper()

	var book models.Book
	require.NoError(t, e.db.First(&book, id).Error)
	return &book
}

func (e *testEnv) reloadLoan(t *testing.T, id uint) *models.LoanRecord {
	t.Helper()

	var loan models.LoanRecord
	require.NoError(t, e.db.First(&loan, id).Error)
	return &loan
}
