package services

import (
	"context"
	"testing"
	"time"

	"openshelf/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepFlagsDuePastLoans(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	early := env.createBook(t, "978-0-0000-0100-0", 1)
	late := env.createBook(t, "978-0-0000-0101-0", 1)

	lateLoan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: alice.ID, BookID: early.ID})
	require.NoError(t, err)

	// Bob borrows 15 days later, so only Alice's loan is due-past below
	env.clock.Add(15 * 24 * time.Hour)
	freshLoan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: bob.ID, BookID: late.ID})
	require.NoError(t, err)

	env.clock.Add(16 * 24 * time.Hour)
	result, err := env.scanner.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Flagged)
	assert.Equal(t, 0, result.Refreshed)

	flagged := env.reloadLoan(t, lateLoan.ID)
	assert.Equal(t, models.LoanStatusOverdue, flagged.Status)
	assert.True(t, flagged.FineAmount.Equal(decimal.RequireFromString("0.50")),
		"got fine %s", flagged.FineAmount)

	fresh := env.reloadLoan(t, freshLoan.ID)
	assert.Equal(t, models.LoanStatusBorrowing, fresh.Status)
	assert.True(t, fresh.FineAmount.IsZero())
}

func TestSweepIsIdempotentAtSameInstant(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0102-0", 1)

	_, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	env.clock.Add(33 * 24 * time.Hour)
	first, err := env.scanner.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Flagged)

	second, err := env.scanner.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Flagged)
	assert.Equal(t, 0, second.Refreshed)
}

func TestSweepRefreshesGrowingFines(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0103-0", 1)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	env.clock.Add(31 * 24 * time.Hour)
	_, err = env.scanner.Sweep(ctx)
	require.NoError(t, err)

	env.clock.Add(2 * 24 * time.Hour)
	result, err := env.scanner.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Flagged)
	assert.Equal(t, 1, result.Refreshed)

	current := env.reloadLoan(t, loan.ID)
	assert.True(t, current.FineAmount.Equal(decimal.RequireFromString("1.50")),
		"got fine %s", current.FineAmount)
}

func TestReturnSupersedesProvisionalFine(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0104-0", 1)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	env.clock.Add(32 * 24 * time.Hour)
	_, err = env.scanner.Sweep(ctx)
	require.NoError(t, err)

	// Three more days pass without a sweep; the return settles the
	// definitive amount for the full 5 late days, not the stale 2
	env.clock.Add(3 * 24 * time.Hour)
	returned, err := env.circulation.Return(ctx, loan.ID)
	require.NoError(t, err)

	assert.True(t, returned.FineAmount.Equal(decimal.RequireFromString("2.50")),
		"got fine %s", returned.FineAmount)

	current := env.reloadLoan(t, loan.ID)
	assert.Equal(t, models.LoanStatusReturned, current.Status)
	assert.True(t, current.FineAmount.Equal(decimal.RequireFromString("2.50")))
}

func TestSweepKeepsFineCarriedByRenewal(t *testing.T) {
	policy := testPolicy()
	policy.RenewalBlockedWhenOverdue = false
	env := newTestEnv(t, policy)
	ctx := context.Background()

	user := env.createUser(t, "alice")
	book := env.createBook(t, "978-0-0000-0105-0", 1)

	loan, err := env.circulation.Borrow(ctx, &BorrowInput{UserID: user.ID, BookID: book.ID})
	require.NoError(t, err)

	// Renew 3 days late: 1.50 locked in
	env.clock.Add(33 * 24 * time.Hour)
	_, err = env.circulation.Renew(ctx, loan.ID)
	require.NoError(t, err)

	// Overdue again on the renewed period; the sweep must add the new
	// accrual on top of the locked-in amount, not start from zero
	env.clock.Add(32 * 24 * time.Hour)
	result, err := env.scanner.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Flagged)

	current := env.reloadLoan(t, loan.ID)
	assert.Equal(t, models.LoanStatusOverdue, current.Status)
	assert.True(t, current.FineAmount.Equal(decimal.RequireFromString("2.50")),
		"got fine %s", current.FineAmount)
}
