package services

import (
	"context"
	"log"
	"math"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/config"
	"openshelf/internal/core/domain"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CirculationService handles borrow, return and renewal business logic.
// Every state change that touches both a loan record and the book's copy
// counters runs inside one database transaction.
type CirculationService struct {
	db       *gorm.DB
	bookRepo *repositories.BookRepository
	loanRepo *repositories.LoanRepository
	userRepo repositories.UserRepository
	policy   config.CirculationConfig
	clock    clock.Clock
}

// NewCirculationService creates a new circulation service
func NewCirculationService(
	db *gorm.DB,
	bookRepo *repositories.BookRepository,
	loanRepo *repositories.LoanRepository,
	userRepo repositories.UserRepository,
	policy config.CirculationConfig,
	clk clock.Clock,
) *CirculationService {
	return &CirculationService{
		db:       db,
		bookRepo: bookRepo,
		loanRepo: loanRepo,
		userRepo: userRepo,
		policy:   policy,
		clock:    clk,
	}
}

// BorrowInput represents borrow input
type BorrowInput struct {
	UserID uint `json:"user_id" validate:"required"`
	BookID uint `json:"book_id" validate:"required"`
}

// RenewInput represents renewal input
type RenewInput struct {
	LoanID uint `json:"loan_id" validate:"required"`
}

// Borrow opens a loan: decrements the book's available counter and
// creates a BORROWING record in one transaction. A failure on either
// side rolls back both.
func (s *CirculationService) Borrow(ctx context.Context, input *BorrowInput) (*models.LoanRecord, error) {
	// 1. Check the borrower may open loans
	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, domain.ErrUserInactive
	}

	// 2. Check for an existing active loan on the same title
	existing, err := s.loanRepo.FindActiveLoan(ctx, input.UserID, input.BookID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateActiveLoan
	}

	now := s.clock.Now()
	due := now.Add(s.policy.LoanPeriod())

	loan := &models.LoanRecord{
		UserID:      input.UserID,
		BookID:      input.BookID,
		BorrowDate:  now,
		DueDate:     due,
		Status:      models.LoanStatusBorrowing,
		RenewCount:  0,
		FineAmount:  decimal.Zero,
		FineCarried: decimal.Zero,
	}

	// 3. Reserve a copy and insert the record atomically. ReserveCopy is
	// a conditional update, so two racing borrows of the last copy
	// resolve in the database: one succeeds, the other sees no rows.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.bookRepo.WithTx(tx).ReserveCopy(ctx, input.BookID); err != nil {
			return err
		}
		return s.loanRepo.WithTx(tx).Create(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Loan opened: user=%d book=%d due=%s", loan.UserID, loan.BookID, due.Format("2006-01-02"))
	return loan, nil
}

// Return closes a loan: computes the authoritative fine, flips the
// record to RETURNED and releases the copy back to the shelf. Returning
// is allowed regardless of accrued fines.
func (s *CirculationService) Return(ctx context.Context, loanID uint) (*models.LoanRecord, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.IsTerminal() {
		return nil, domain.ErrAlreadyReturned
	}

	now := s.clock.Now()
	loan.ReturnDate = &now
	loan.FineAmount = s.fineAtReturn(loan, now)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guarded flip; loses the race if another return got here first
		ok, err := s.loanRepo.WithTx(tx).Finalize(ctx, loan)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyReturned
		}
		return s.bookRepo.WithTx(tx).ReleaseCopy(ctx, loan.BookID)
	})
	if err != nil {
		return nil, err
	}

	loan.Status = models.LoanStatusReturned
	log.Printf("✅ Loan returned: id=%d fine=%s", loan.ID, loan.FineAmount.StringFixed(2))
	return loan, nil
}

// Renew pushes the due date forward from the renewal moment, not from
// the old due date. Overdue loans are rejected when the policy says so;
// otherwise the fine accrued so far is locked in before the new period
// starts.
func (s *CirculationService) Renew(ctx context.Context, loanID uint) (*models.LoanRecord, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.IsTerminal() {
		return nil, domain.ErrAlreadyReturned
	}
	if loan.RenewCount >= s.policy.MaxRenewals {
		return nil, domain.ErrRenewLimitExceeded
	}

	now := s.clock.Now()
	overdue := loan.Status == models.LoanStatusOverdue || now.After(loan.DueDate)
	if overdue && s.policy.RenewalBlockedWhenOverdue {
		return nil, domain.ErrRenewalBlocked
	}

	// Fine accrued up to this moment stays on the record
	fine := loan.FineCarried
	if overdue {
		fine = loan.FineCarried.Add(s.overdueFine(loan.DueDate, now))
	}

	newDue := now.Add(s.policy.LoanPeriod())
	ok, err := s.loanRepo.Extend(ctx, loan.ID, loan.RenewCount, newDue, fine)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Reload to tell a lost renewal race from a concurrent return
		current, err := s.loanRepo.GetByID(ctx, loan.ID)
		if err != nil {
			return nil, err
		}
		if current.IsTerminal() {
			return nil, domain.ErrAlreadyReturned
		}
		return nil, domain.ErrRenewLimitExceeded
	}

	loan.Status = models.LoanStatusBorrowing
	loan.DueDate = newDue
	loan.RenewCount++
	loan.FineAmount = fine
	loan.FineCarried = fine

	log.Printf("✅ Loan renewed: id=%d renewals=%d due=%s", loan.ID, loan.RenewCount, newDue.Format("2006-01-02"))
	return loan, nil
}

// GetByID returns a single loan record
func (s *CirculationService) GetByID(ctx context.Context, loanID uint) (*models.LoanRecord, error) {
	return s.loanRepo.GetByID(ctx, loanID)
}

// ListByUser returns a user's borrowing history
func (s *CirculationService) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*models.LoanRecord, int64, error) {
	return s.loanRepo.ListByUser(ctx, userID, offset, limit)
}

// ListByStatus returns loans filtered by status, earliest due first
func (s *CirculationService) ListByStatus(ctx context.Context, status string, offset, limit int) ([]*models.LoanRecord, int64, error) {
	switch status {
	case models.LoanStatusBorrowing, models.LoanStatusReturned, models.LoanStatusOverdue:
	default:
		return nil, 0, domain.ErrInvalidInput
	}
	return s.loanRepo.ListByStatus(ctx, status, offset, limit)
}

// ListOverdue returns every overdue loan, earliest due first
func (s *CirculationService) ListOverdue(ctx context.Context) ([]*models.LoanRecord, error) {
	return s.loanRepo.ListOverdue(ctx)
}

// ListDueSoon returns active loans due within the given number of days.
// days <= 0 falls back to the configured reminder window.
func (s *CirculationService) ListDueSoon(ctx context.Context, days int) ([]*models.LoanRecord, error) {
	window := s.policy.DueSoonWindow()
	if days > 0 {
		window = time.Duration(days) * 24 * time.Hour
	}
	return s.loanRepo.ListDueWithin(ctx, s.clock.Now(), window)
}

// fineAtReturn computes the final fine for a record being closed now:
// the portion locked in by past overdue renewals plus the span against
// the current due date. Any provisional amount the nightly sweep wrote
// into FineAmount is superseded by this recomputation.
func (s *CirculationService) fineAtReturn(loan *models.LoanRecord, now time.Time) decimal.Decimal {
	return loan.FineCarried.Add(s.overdueFine(loan.DueDate, now))
}

// overdueFine returns rate * ceil(days late), zero when not late
func (s *CirculationService) overdueFine(due, now time.Time) decimal.Decimal {
	days := overdueDays(due, now)
	if days == 0 {
		return decimal.Zero
	}
	return s.policy.DailyFineRate.Mul(decimal.NewFromInt(days)).Round(2)
}

// overdueDays counts started 24h periods past the due date
func overdueDays(due, now time.Time) int64 {
	if !now.After(due) {
		return 0
	}
	return int64(math.Ceil(now.Sub(due).Hours() / 24))
}
