package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
	"github.com/sifan077/PayLink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// AttributorDeps groups the collaborators of an Attributor.
type AttributorDeps struct {
	Logger      *zap.Logger
	Tx          repository.Transactor
	Analytics   repository.AnalyticsRepository
	Ledger      *BalanceLedger
	Rates       *RateTable
	Guard       ClickGuard
	DedupWindow time.Duration
}

// Attributor prices a visit, records it and credits the ledger as one unit
// of work: either the event and every counter change are stored, or nothing is.
type Attributor struct {
	logger      *zap.Logger
	tx          repository.Transactor
	analytics   repository.AnalyticsRepository
	ledger      *BalanceLedger
	rates       *RateTable
	guard       ClickGuard
	dedupWindow time.Duration
}

// NewAttributor builds an Attributor.
func NewAttributor(deps AttributorDeps) *Attributor {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Attributor{
		logger:      logger,
		tx:          deps.Tx,
		analytics:   deps.Analytics,
		ledger:      deps.Ledger,
		rates:       deps.Rates,
		guard:       deps.Guard,
		dedupWindow: deps.DedupWindow,
	}
}

// Attribute records visit against link. recorded is false when the event id
// was already attributed, in which case no counter is touched.
func (a *Attributor) Attribute(ctx context.Context, link *model.Link, visit model.Visit) (event *model.AnalyticsEvent, recorded bool, err error) {
	rate, found := a.rates.Lookup(visit.Country, visit.Device)
	credit := ComputeCredit(rate, found)
	if credit.IsPositive() && !a.firstVisit(ctx, link.ID, visit.IP) {
		credit = decimal.Zero
	}

	event = &model.AnalyticsEvent{
		ID:        visit.EventID,
		LinkID:    link.ID,
		IPAddress: visit.IP,
		UserAgent: visit.UserAgent,
		Country:   visit.Country,
		Device:    visit.Device,
		Referrer:  visit.Referrer,
		Earnings:  credit,
		Timestamp: visit.Timestamp,
	}

	err = a.tx.WithinTx(ctx, func(ctx context.Context) error {
		inserted, err := a.analytics.Create(ctx, event)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		recorded = true
		return a.ledger.Credit(ctx, link.ID, link.UserID, credit)
	})
	if err != nil {
		return nil, false, internalError("ATTRIBUTION_FAILED", "failed to attribute visit", err)
	}

	if recorded {
		prometheus.ObserveCredit(visit.Country, visit.Device, credit)
	}
	return event, recorded, nil
}

// firstVisit consults the click guard. Guard errors fail open.
func (a *Attributor) firstVisit(ctx context.Context, linkID, ip string) bool {
	if a.guard == nil || a.dedupWindow <= 0 || ip == "" {
		return true
	}
	first, err := a.guard.FirstVisit(ctx, linkID, ip, a.dedupWindow)
	if err != nil {
		a.logger.Warn("click guard unavailable, crediting visit", zap.Error(err), zap.String("link_id", linkID))
		return true
	}
	return first
}
