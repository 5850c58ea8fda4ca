package repositories

import (
	"context"
	"errors"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanRepository handles loan record data access
type LoanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *LoanRepository) WithTx(tx *gorm.DB) *LoanRepository {
	return &LoanRepository{db: tx}
}

var activeStatuses = []string{models.LoanStatusBorrowing, models.LoanStatusOverdue}

// FindActiveLoan returns the single non-terminal record for the pair, or nil
func (r *LoanRepository) FindActiveLoan(ctx context.Context, userID, bookID uint) (*models.LoanRecord, error) {
	var loan models.LoanRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND status IN ?", userID, bookID, activeStatuses).
		First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Create inserts a new BORROWING record. The duplicate check here is
// defense-in-depth; CirculationService validates before calling.
func (r *LoanRepository) Create(ctx context.Context, loan *models.LoanRecord) error {
	existing, err := r.FindActiveLoan(ctx, loan.UserID, loan.BookID)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrDuplicateActiveLoan
	}
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan record by ID with user and book
func (r *LoanRepository) GetByID(ctx context.Context, id uint) (*models.LoanRecord, error) {
	var loan models.LoanRecord
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		First(&loan, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Update replaces a record's mutable fields by ID
func (r *LoanRepository) Update(ctx context.Context, loan *models.LoanRecord) error {
	res := r.db.WithContext(ctx).Model(&models.LoanRecord{}).
		Where("id = ?", loan.ID).
		Select("status", "due_date", "return_date", "renew_count", "fine_amount", "fine_carried").
		Updates(loan)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&models.LoanRecord{}).Where("id = ?", loan.ID).Count(&count)
		if count == 0 {
			return domain.ErrLoanNotFound
		}
	}
	return nil
}

// Finalize flips an active record to RETURNED in one guarded update.
// RowsAffected 0 means a concurrent return already finalized it.
func (r *LoanRepository) Finalize(ctx context.Context, loan *models.LoanRecord) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.LoanRecord{}).
		Where("id = ? AND status IN ?", loan.ID, activeStatuses).
		Updates(map[string]interface{}{
			"status":      models.LoanStatusReturned,
			"return_date": loan.ReturnDate,
			"fine_amount": loan.FineAmount,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Extend applies a renewal in one guarded update. The renew_count guard
// keeps two concurrent renewals from both counting. fineAmount carries
// any fine accrued so far, locked in at the moment of renewal.
func (r *LoanRepository) Extend(ctx context.Context, loanID uint, currentRenewCount int, newDueDate time.Time, fineAmount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.LoanRecord{}).
		Where("id = ? AND status IN ? AND renew_count = ?", loanID, activeStatuses, currentRenewCount).
		Updates(map[string]interface{}{
			"status":       models.LoanStatusBorrowing,
			"due_date":     newDueDate,
			"renew_count":  currentRenewCount + 1,
			"fine_amount":  fineAmount,
			"fine_carried": fineAmount,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ============================================================
// Read Queries (earliest-due first for prioritized display)
// ============================================================

// ListByStatus returns loan records with the given status
func (r *LoanRepository) ListByStatus(ctx context.Context, status string, offset, limit int) ([]*models.LoanRecord, int64, error) {
	var loans []*models.LoanRecord
	var total int64

	r.db.WithContext(ctx).Model(&models.LoanRecord{}).Where("status = ?", status).Count(&total)

	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("status = ?", status).
		Order("due_date ASC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// ListOverdue returns all OVERDUE records
func (r *LoanRepository) ListOverdue(ctx context.Context) ([]*models.LoanRecord, error) {
	var loans []*models.LoanRecord
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("status = ?", models.LoanStatusOverdue).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}

// ListDueWithin returns active records due between now and now+window
func (r *LoanRepository) ListDueWithin(ctx context.Context, now time.Time, window time.Duration) ([]*models.LoanRecord, error) {
	var loans []*models.LoanRecord
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("status IN ? AND due_date >= ? AND due_date <= ?", activeStatuses, now, now.Add(window)).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}

// ListDuePast returns BORROWING records whose due date passed (sweep input)
func (r *LoanRepository) ListDuePast(ctx context.Context, now time.Time) ([]*models.LoanRecord, error) {
	var loans []*models.LoanRecord
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", models.LoanStatusBorrowing, now).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}

// ListByUser returns a user's loan records, newest first
func (r *LoanRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*models.LoanRecord, int64, error) {
	var loans []*models.LoanRecord
	var total int64

	r.db.WithContext(ctx).Model(&models.LoanRecord{}).Where("user_id = ?", userID).Count(&total)

	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("borrow_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// CountByStatus counts loan records grouped by status (for dashboard)
func (r *LoanRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type result struct {
		Status string
		Count  int64
	}
	var results []result

	err := r.db.WithContext(ctx).Model(&models.LoanRecord{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Find(&results).Error

	counts := map[string]int64{
		models.LoanStatusBorrowing: 0,
		models.LoanStatusReturned:  0,
		models.LoanStatusOverdue:   0,
	}
	for _, res := range results {
		counts[res.Status] = res.Count
	}
	return counts, err
}

// SumFines totals fine_amount across all records (for dashboard)
func (r *LoanRepository) SumFines(ctx context.Context) (decimal.Decimal, error) {
	var raw *string
	err := r.db.WithContext(ctx).Model(&models.LoanRecord{}).
		Select("SUM(fine_amount)").
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	sum, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Round(2), nil
}
