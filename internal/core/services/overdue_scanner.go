package services

import (
	"context"
	"log"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/config"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
)

// OverdueScanner flags loans whose due date passed and keeps their
// provisional fines current. It runs from the nightly cron but Sweep is
// safe to call at any time: a second pass over the same records is a
// no-op unless more days have elapsed.
type OverdueScanner struct {
	loanRepo *repositories.LoanRepository
	policy   config.CirculationConfig
	clock    clock.Clock
}

// NewOverdueScanner creates a new overdue scanner
func NewOverdueScanner(loanRepo *repositories.LoanRepository, policy config.CirculationConfig, clk clock.Clock) *OverdueScanner {
	return &OverdueScanner{
		loanRepo: loanRepo,
		policy:   policy,
		clock:    clk,
	}
}

// SweepResult summarizes one scanner pass
type SweepResult struct {
	Flagged   int `json:"flagged"`
	Refreshed int `json:"refreshed"`
}

// Sweep marks due-past BORROWING records OVERDUE with a provisional
// fine, then refreshes fines on records already OVERDUE. Provisional
// fines only ever grow; the definitive amount is settled at return.
func (s *OverdueScanner) Sweep(ctx context.Context) (*SweepResult, error) {
	now := s.clock.Now()
	result := &SweepResult{}

	// Phase 1: flag newly overdue records
	duePast, err := s.loanRepo.ListDuePast(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, loan := range duePast {
		loan.Status = models.LoanStatusOverdue
		loan.FineAmount = s.provisionalFine(loan, now)
		if err := s.loanRepo.Update(ctx, loan); err != nil {
			log.Printf("⚠️ Sweep: failed to flag loan %d: %v", loan.ID, err)
			continue
		}
		result.Flagged++
	}

	// Phase 2: refresh provisional fines on known overdue records
	overdue, err := s.loanRepo.ListOverdue(ctx)
	if err != nil {
		return nil, err
	}
	for _, loan := range overdue {
		fine := s.provisionalFine(loan, now)
		// Monotonic: never lower a fine already on the record
		if fine.LessThanOrEqual(loan.FineAmount) {
			continue
		}
		loan.FineAmount = fine
		if err := s.loanRepo.Update(ctx, loan); err != nil {
			log.Printf("⚠️ Sweep: failed to refresh loan %d: %v", loan.ID, err)
			continue
		}
		result.Refreshed++
	}

	if result.Flagged > 0 || result.Refreshed > 0 {
		log.Printf("✅ Overdue sweep: %d flagged, %d refreshed", result.Flagged, result.Refreshed)
	}
	return result, nil
}

// provisionalFine computes the running fine for an active late record:
// the locked-in portion plus the span against the current due date
func (s *OverdueScanner) provisionalFine(loan *models.LoanRecord, now time.Time) decimal.Decimal {
	days := overdueDays(loan.DueDate, now)
	if days == 0 {
		return loan.FineAmount
	}
	return loan.FineCarried.Add(s.policy.DailyFineRate.Mul(decimal.NewFromInt(days)).Round(2))
}
