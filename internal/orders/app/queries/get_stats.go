package queries

import (
	"context"
	"time"

	"github.com/ovenlight/checkout/internal/orders/ports"
)

// GetStatsQueryHandler serves the dashboard rollups. Projections are
// recomputed on demand; there is no cached materialized view, and readers
// tolerate eventual consistency.
type GetStatsQueryHandler struct {
	repo ports.OrderRepository
	now  func() time.Time
}

// NewGetStatsQueryHandler constructs a GetStatsQueryHandler. The clock is
// injectable so tests can pin the day boundary.
func NewGetStatsQueryHandler(repo ports.OrderRepository, now func() time.Time) *GetStatsQueryHandler {
	if now == nil {
		now = time.Now
	}
	return &GetStatsQueryHandler{repo: repo, now: now}
}

// Handle computes the rollups. "Today" means the current calendar day in
// server-local time.
func (h *GetStatsQueryHandler) Handle(ctx context.Context) (ports.OrderStats, error) {
	now := h.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return h.repo.Stats(ctx, startOfDay)
}
