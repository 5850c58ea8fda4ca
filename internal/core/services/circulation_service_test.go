package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBorrowReturnRoundTrip(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0001-0", 3)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	assert.Equal(t, models.LoanStatusBorrowing, loan.Status)
	assert.Equal(t, 0, loan.RenewCount)
	assert.True(t, loan.FineAmount.IsZero())
	assert.Equal(t, env.clock.Now().Add(30*24*time.Hour), loan.DueDate)

	after := env.reloadBook(t, book.ID)
	assert.Equal(t, 2, after.AvailableCopies)
	assert.Equal(t, 1, after.BorrowedCopies)
	assert.True(t, after.CountersConsistent())

	// Return on time: no fine, copy goes back to the shelf
	env.clock.Add(10 * 24 * time.Hour)
	returned, err := env.circulation.Return(ctx, loan.ID)
	require.NoError(t, err)

	assert.Equal(t, models.LoanStatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.True(t, returned.FineAmount.IsZero())

	after = env.reloadBook(t, book.ID)
	assert.Equal(t, 3, after.AvailableCopies)
	assert.Equal(t, 0, after.BorrowedCopies)
	assert.True(t, after.CountersConsistent())
}

func TestBorrowNoCopiesAvailable(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	book := env.createBook(t, "978-0-0000-0002-0", 1)

	_, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: alice.ID, BookID: book.ID})
	require.NoError(t, err)

	_, err = env.circulation.Borrow(ctx, &BorrowInput{UserID: bob.ID, BookID: book.ID})
	assert.ErrorIs(t, err, domain.ErrNoCopiesAvailable)

	// The failed attempt must not leave a loan record behind
	var count int64
	require.NoError(t, env.db.Model(&models.LoanRecord{}).Where("user_id = ?", bob.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBorrowDuplicateActiveLoan(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0003-0", 5)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	_, err = env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	assert.ErrorIs(t, err, domain.ErrDuplicateActiveLoan)

	after := env.reloadBook(t, book.ID)
	assert.Equal(t, 4, after.AvailableCopies)

	// A second copy of the same title is fine once the first came back
	_, err = env.circulation.Return(ctx, loan.ID)
	require.NoError(t, err)

	_, err = env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	assert.NoError(t, err)
}

func TestBorrowRejectsDisabledUser(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	require.NoError(t, env.db.Model(user).Update("status", models.UserStatusDisabled).Error)
	book := env.createBook(t, "978-0-0000-0004-0", 1)

	_, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestBorrowRejectsInactiveBook(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0005-0", 2)
	require.NoError(t, env.db.Model(book).Update("status", models.BookStatusInactive).Error)

	_, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	assert.ErrorIs(t, err, domain.ErrBookInactive)
}

func TestReturnLateChargesFine(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0006-0", 1)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	// 5 full days past due at 0.50/day
	env.clock.Add(35 * 24 * time.Hour)
	returned, err := env.circulation.Return(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, returned.FineAmount.Equal(decimal.RequireFromString("2.50")),
		"got fine %s", returned.FineAmount)
}

func TestReturnPartialDayRoundsUp(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0007-0", 1)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	// One hour late still counts as one started day
	env.clock.Add(30*24*time.Hour + time.Hour)
	returned, err := env.circulation.Return(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, returned.FineAmount.Equal(decimal.RequireFromString("0.50")),
		"got fine %s", returned.FineAmount)
}

func TestReturnTwice(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0008-0", 1)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	_, err = env.circulation.Return(ctx, loan.ID)
	require.NoError(t, err)

	_, err = env.circulation.Return(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyReturned)

	// Counters untouched by the rejected second return
	after := env.reloadBook(t, book.ID)
	assert.Equal(t, 1, after.AvailableCopies)
	assert.Equal(t, 0, after.BorrowedCopies)
}

func TestRenewExtendsFromNow(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0009-0", 1)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	// Renewing 10 days in grants a full period from today, not a stack
	// on top of the old due date
	env.clock.Add(10 * 24 * time.Hour)
	renewed, err := env.circulation.Renew(ctx, loan.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, renewed.RenewCount)
	assert.Equal(t, env.clock.Now().Add(30*24*time.Hour), renewed.DueDate)
	assert.True(t, renewed.FineAmount.IsZero())
}

func TestRenewLimit(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0010-0", 1)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = env.circulation.Renew(ctx, loan.ID)
		require.NoError(t, err)
	}

	_, err = env.circulation.Renew(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrRenewLimitExceeded)

	current := env.reloadLoan(t, loan.ID)
	assert.Equal(t, 2, current.RenewCount)
}

func TestRenewReturnedLoan(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0011-0", 1)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)
	_, err = env.circulation.Return(ctx, loan.ID)
	require.NoError(t, err)

	_, err = env.circulation.Renew(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyReturned)
}

func TestRenewBlockedWhenOverdue(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0012-0", 1)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	env.clock.Add(31 * 24 * time.Hour)
	_, err = env.circulation.Renew(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrRenewalBlocked)
}

func TestRenewWhileOverdueLocksFine(t *testing.T) {
	policy := testPolicy()
	policy.RenewalBlockedWhenOverdue = false
	env := newTestEnv(t, policy)
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0013-0", 1)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	// 4 days late, then renew: 2.00 locked in, fresh period starts
	env.clock.Add(34 * 24 * time.Hour)
	renewed, err := env.circulation.Renew(ctx, loan.ID)
	require.NoError(t, err)

	assert.Equal(t, models.LoanStatusBorrowing, renewed.Status)
	assert.True(t, renewed.FineAmount.Equal(decimal.RequireFromString("2.00")),
		"got fine %s", renewed.FineAmount)
	assert.Equal(t, env.clock.Now().Add(30*24*time.Hour), renewed.DueDate)

	// Late again on the new period: 2 more days on top of the carried 2.00
	env.clock.Add(32 * 24 * time.Hour)
	returned, err := env.circulation.Return(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, returned.FineAmount.Equal(decimal.RequireFromString("3.00")),
		"got fine %s", returned.FineAmount)
}

func TestConcurrentBorrowLastCopy(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	book := env.createBook(t, "978-0-0000-0014-0", 1)

	const borrowers = 8
	users := make([]*models.User, borrowers)
	for i := range users {
		users[i] = env.createUser(t, "reader"+string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	errs := make([]error, borrowers)
	for i := 0; i < borrowers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.circulation.Borrow(ctx, &BorrowInput{UserID: users[i].ID, BookID: book.ID})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrNoCopiesAvailable)
		}
	}
	assert.Equal(t, 1, succeeded)

	after := env.reloadBook(t, book.ID)
	assert.Equal(t, 0, after.AvailableCopies)
	assert.Equal(t, 1, after.BorrowedCopies)
	assert.True(t, after.CountersConsistent())

	var openLoans int64
	require.NoError(t, env.db.Model(&models.LoanRecord{}).
		Where("book_id = ? AND status = ?", book.ID, models.LoanStatusBorrowing).
		Count(&openLoans).Error)
	assert.EqualValues(t, 1, openLoans)
}

func TestListDueSoon(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0015-0", 1)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	// Due in 30 days: outside the 3-day reminder window
	loans, err := env.circulation.ListDueSoon(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, loans)

	// A wider explicit window picks it up
	loans, err = env.circulation.ListDueSoon(ctx, 31)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, loan.ID, loans[0].ID)

	// Two days before due it enters the default window
	env.clock.Add(28 * 24 * time.Hour)
	loans, err = env.circulation.ListDueSoon(ctx, 0)
	require.NoError(t, err)
	require.Len(t, loans, 1)
}

func TestListByStatusRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t, testPolicy())

	_, _, err := env.circulation.ListByStatus(context.Background(), "LOST", 0, 20)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOverdueDays(t *testing.T) {
	due := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int64
	}{
		{"before due", due.Add(-time.Hour), 0},
		{"exactly due", due, 0},
		{"one second late", due.Add(time.Second), 1},
		{"23 hours late", due.Add(23 * time.Hour), 1},
		{"exactly one day", due.Add(24 * time.Hour), 1},
		{"one day and an hour", due.Add(25 * time.Hour), 2},
		{"a week late", due.Add(7 * 24 * time.Hour), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overdueDays(due, tt.now))
		})
	}
}
