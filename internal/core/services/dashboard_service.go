package services

import (
	"context"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"

	"github.com/shopspring/decimal"
)

// DashboardService aggregates counters for the admin overview
type DashboardService struct {
	userRepo repositories.UserRepository
	bookRepo *repositories.BookRepository
	loanRepo *repositories.LoanRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	userRepo repositories.UserRepository,
	bookRepo *repositories.BookRepository,
	loanRepo *repositories.LoanRepository,
) *DashboardService {
	return &DashboardService{
		userRepo: userRepo,
		bookRepo: bookRepo,
		loanRepo: loanRepo,
	}
}

// Stats represents the dashboard summary
type Stats struct {
	Users struct {
		Total    int64 `json:"total"`
		Active   int64 `json:"active"`
		Disabled int64 `json:"disabled"`
	} `json:"users"`
	Books struct {
		Total    int64 `json:"total"`
		Active   int64 `json:"active"`
		Inactive int64 `json:"inactive"`
	} `json:"books"`
	Loans struct {
		Borrowing int64 `json:"borrowing"`
		Overdue   int64 `json:"overdue"`
		Returned  int64 `json:"returned"`
	} `json:"loans"`
	TotalFines decimal.Decimal `json:"total_fines"`
}

// GetStats builds the dashboard summary
func (s *DashboardService) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	userCounts, err := s.userRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats.Users.Active = userCounts[models.UserStatusActive]
	stats.Users.Disabled = userCounts[models.UserStatusDisabled]
	stats.Users.Total = stats.Users.Active + stats.Users.Disabled

	bookCounts, err := s.bookRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats.Books.Active = bookCounts[models.BookStatusActive]
	stats.Books.Inactive = bookCounts[models.BookStatusInactive]
	stats.Books.Total = stats.Books.Active + stats.Books.Inactive

	loanCounts, err := s.loanRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats.Loans.Borrowing = loanCounts[models.LoanStatusBorrowing]
	stats.Loans.Overdue = loanCounts[models.LoanStatusOverdue]
	stats.Loans.Returned = loanCounts[models.LoanStatusReturned]

	fines, err := s.loanRepo.SumFines(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalFines = fines

	return stats, nil
}
