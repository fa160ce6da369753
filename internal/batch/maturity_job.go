package batch

import (
	"account-service/internal/domain/account"
	"account-service/internal/event"
	"account-service/internal/infrastructure/monitoring"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// MaturityScanJob finds fixed term accounts whose withdrawal date has
// passed and announces each one on the event bus.
type MaturityScanJob struct {
	accountRepo account.Repository
	publisher   event.EventPublisher
	logger      *slog.Logger
}

func NewMaturityScanJob(accountRepo account.Repository, publisher event.EventPublisher, logger *slog.Logger) *MaturityScanJob {
	if accountRepo == nil || logger == nil {
		panic("MaturityScanJob dependencies cannot be nil")
	}
	return &MaturityScanJob{
		accountRepo: accountRepo,
		publisher:   publisher,
		logger:      logger.With("job", "MaturityScan"),
	}
}

func (j *MaturityScanJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting fixed term maturity scan job.")

	matured, err := j.accountRepo.FindMaturedFixedTerm(ctx, startTime)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to find matured accounts, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to find matured accounts: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched matured fixed term accounts.", slog.Int("count", len(matured)))

	if len(matured) == 0 {
		j.logger.InfoContext(ctx, "No matured fixed term accounts to process.")
		j.logger.InfoContext(ctx, "Maturity scan job finished.", slog.Duration("duration", time.Since(startTime)))
		return nil
	}

	var wg sync.WaitGroup
	var publishedCount, errorCount atomic.Int32

	for _, acct := range matured {
		wg.Add(1)
		go func(acct *account.Account) {
			defer wg.Done()

			logCtx := j.logger.With(slog.String("accountID", acct.ID), slog.String("customerID", acct.CustomerID))

			monitoring.RecordAccountMatured()

			if j.publisher == nil {
				logCtx.DebugContext(ctx, "No event publisher configured, skipping maturity event.")
				publishedCount.Add(1)
				return
			}

			evt := event.AccountMaturedEvent{
				Timestamp: time.Now(),
				Payload: event.AccountEventPayload{
					AccountID:      acct.ID,
					CustomerID:     acct.CustomerID,
					AccountType:    string(acct.Type),
					Balance:        acct.Balance,
					WithdrawalDate: acct.WithdrawalDate,
				},
			}
			if err := j.publisher.PublishAccountMatured(ctx, evt); err != nil {
				logCtx.ErrorContext(ctx, "Failed to publish account matured event", slog.Any("error", err))
				errorCount.Add(1)
				return
			}
			publishedCount.Add(1)
		}(acct)
	}

	wg.Wait()
	duration := time.Since(startTime)
	summaryLog := j.logger.With(
		slog.Duration("duration", duration),
		slog.Int("accounts_matured", len(matured)),
		slog.Int("events_published", int(publishedCount.Load())),
		slog.Int("errors_encountered", int(errorCount.Load())),
	)
	if errorCount.Load() > 0 {
		summaryLog.WarnContext(ctx, "Maturity scan job finished with errors.")
		return fmt.Errorf("job completed with %d errors", errorCount.Load())
	}

	summaryLog.InfoContext(ctx, "Maturity scan job finished successfully.")
	return nil
}
