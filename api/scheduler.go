/*
scheduler.go - Automated overdue sweep scheduler

PURPOSE:
  Periodically refreshes late fees on unpaid schedule rows so that
  stored amounts track accrual even when nobody opens the dashboard.
  Reads through every service, recomputes each unpaid row's fee as of
  today, and persists rows whose fee changed.

DESIGN:
  - Runs on a cron expression (default: daily shortly after midnight)
  - Pure recomputation: the engine decides, the sweep only persists
  - Rows with linked payments are never touched (fees are frozen)
  - Errors on one service don't stop the sweep of the others

CONFIGURATION:
  - Schedule: cron expression (e.g. "15 0 * * *")
  - Enabled:  whether the sweep runs at all

USAGE:
  sweep := NewOverdueSweep(store, logger, "15 0 * * *")
  sweep.Start()
  // ... later
  sweep.Stop()

SEE ALSO:
  - schedule/latefee.go: RefreshLateFee, the rule the sweep applies
  - handlers.go: ListSchedules refreshes on read for live views
*/
package api

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/notluquis/finanzas-service-engine/schedule"
	"github.com/notluquis/finanzas-service-engine/store/sqlite"
)

// OverdueSweep persists late fee accrual on a cron schedule.
type OverdueSweep struct {
	Store    *sqlite.Store
	Schedule string
	Enabled  bool

	// Now is the accrual clock. Overridable in tests.
	Now func() schedule.Date

	log  *logrus.Logger
	cron *cron.Cron
}

// NewOverdueSweep creates a sweep running on the given cron expression.
func NewOverdueSweep(store *sqlite.Store, log *logrus.Logger, cronExpr string) *OverdueSweep {
	return &OverdueSweep{
		Store:    store,
		Schedule: cronExpr,
		Enabled:  true,
		Now:      schedule.Today,
		log:      log,
		cron:     cron.New(),
	}
}

// Start registers the sweep job and starts the cron scheduler.
func (s *OverdueSweep) Start() {
	if !s.Enabled {
		s.log.Info("overdue sweep disabled, not starting")
		return
	}

	if _, err := s.cron.AddFunc(s.Schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		s.log.WithError(err).Error("failed to schedule overdue sweep")
		return
	}

	s.cron.Start()
	s.log.WithField("schedule", s.Schedule).Info("overdue sweep started")
}

// Stop gracefully stops the scheduler, waiting for a running sweep.
func (s *OverdueSweep) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("overdue sweep stopped")
}

// RunOnce sweeps all services immediately. Exposed for admin use and tests.
func (s *OverdueSweep) RunOnce(ctx context.Context) {
	now := s.Now()

	services, err := s.Store.ListServices(ctx)
	if err != nil {
		s.log.WithError(err).Error("sweep: failed to list services")
		return
	}

	updated := 0
	for _, svc := range services {
		n, err := s.sweepService(ctx, svc, now)
		if err != nil {
			s.log.WithError(err).WithField("service", svc.ID).Error("sweep: service failed")
			continue
		}
		updated += n
	}

	if updated > 0 {
		s.log.WithFields(logrus.Fields{
			"updated": updated,
			"as_of":   now.String(),
		}).Info("sweep: late fees refreshed")
	}
}

func (s *OverdueSweep) sweepService(ctx context.Context, svc schedule.Service, now schedule.Date) (int, error) {
	rows, err := s.Store.ListSchedules(ctx, svc.ID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, row := range rows {
		if !row.Unpaid() {
			continue
		}

		changed, err := schedule.RefreshLateFee(&row, svc.LateFee, now)
		if err != nil {
			return updated, err
		}
		if !changed {
			continue
		}

		if err := s.Store.UpdateSchedule(ctx, row); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
