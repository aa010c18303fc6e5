package jobs

import (
	"context"
	"log"
	"log/slog"
	"time"

	"opsbot/internal/db"
)

// LedgerMonitor periodically reports idempotency records stuck in_progress
// past maxAge. It only observes: stuck rows are never reset or marked
// terminal automatically, recovery is an operator decision.
type LedgerMonitor struct {
	db       *db.DB
	interval time.Duration
	maxAge   time.Duration
}

// NewLedgerMonitor creates a new ledger monitor.
func NewLedgerMonitor(database *db.DB, interval, maxAge time.Duration) *LedgerMonitor {
	return &LedgerMonitor{
		db:       database,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Start begins the background monitoring loop.
func (m *LedgerMonitor) Start(ctx context.Context) {
	log.Printf("Ledger monitor started (interval: %v, maxAge: %v)", m.interval, m.maxAge)

	// Run immediately on start
	m.report(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Ledger monitor stopped")
			return
		case <-ticker.C:
			m.report(ctx)
		}
	}
}

func (m *LedgerMonitor) report(ctx context.Context) {
	count, err := m.db.CountStuckLedgerRecords(ctx, m.maxAge)
	if err != nil {
		log.Printf("Ledger monitor: failed to count stuck records: %v", err)
		return
	}
	if count > 0 {
		slog.Warn("idempotency records stuck in progress", "count", count, "older_than", m.maxAge.String())
	}
}
