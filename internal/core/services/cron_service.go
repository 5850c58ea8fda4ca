package services

import (
	"context"
	"log"
	"time"

	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/config"

	"github.com/robfig/cron/v3"
)

// CronService runs the scheduled background jobs: the nightly overdue
// sweep, due-soon reminders and expired refresh token cleanup.
type CronService struct {
	cron             *cron.Cron
	scanner          *OverdueScanner
	loanRepo         *repositories.LoanRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	policy           config.CirculationConfig
}

// NewCronService creates a new cron service
func NewCronService(
	scanner *OverdueScanner,
	loanRepo *repositories.LoanRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	policy config.CirculationConfig,
) *CronService {
	return &CronService{
		cron:             cron.New(),
		scanner:          scanner,
		loanRepo:         loanRepo,
		refreshTokenRepo: refreshTokenRepo,
		policy:           policy,
	}
}

// Start registers and launches all scheduled jobs
func (s *CronService) Start() error {
	// Nightly overdue sweep
	if _, err := s.cron.AddFunc(s.policy.SweepCronSpec, s.runSweep); err != nil {
		return err
	}

	// Due-soon reminders at 08:30 daily
	if _, err := s.cron.AddFunc("30 8 * * *", s.runDueSoonReminders); err != nil {
		return err
	}

	// Expired refresh token cleanup at 03:00 daily
	if _, err := s.cron.AddFunc("0 3 * * *", s.runTokenCleanup); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("🚀 CronService started (sweep: %q)", s.policy.SweepCronSpec)
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 CronService stopped")
}

func (s *CronService) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.scanner.Sweep(ctx); err != nil {
		log.Printf("❌ Overdue sweep failed: %v", err)
	}
}

func (s *CronService) runDueSoonReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	loans, err := s.loanRepo.ListDueWithin(ctx, time.Now(), s.policy.DueSoonWindow())
	if err != nil {
		log.Printf("❌ Due-soon query failed: %v", err)
		return
	}

	for _, loan := range loans {
		username := ""
		if loan.User != nil {
			username = loan.User.Username
		}
		title := ""
		if loan.Book != nil {
			title = loan.Book.Title
		}
		log.Printf("🔔 Due soon: loan=%d user=%s book=%q due=%s",
			loan.ID, username, title, loan.DueDate.Format("2006-01-02"))
	}
}

func (s *CronService) runTokenCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.refreshTokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("❌ Token cleanup failed: %v", err)
	}
}
