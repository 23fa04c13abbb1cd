package services

import (
	"context"
	"log"
	"parlayTracker/models"
	"parlayTracker/services/calendarService"
	"parlayTracker/services/catalogService"
	"parlayTracker/services/common"
	"parlayTracker/services/dashboardService"
	"parlayTracker/services/notifyService"
	"parlayTracker/services/parlayService"
	"parlayTracker/services/pickService"
	"parlayTracker/services/settlementService"
	"time"

	"github.com/shopspring/decimal"
)

// App owns the shared state handed to the HTTP handlers and cron jobs.
type App struct {
	Picks    *pickService.Assembly
	Store    *parlayService.Store
	Settler  *settlementService.Settler
	Catalog  *catalogService.Catalog
	Notifier notifyService.Notifier
	Calendar *calendarService.Calendar
	Reporter *common.ErrorReporter
	Now      func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

func (a *App) notifier() notifyService.Notifier {
	if a.Notifier == nil {
		return notifyService.NoopNotifier{}
	}
	return a.Notifier
}

// LockCurrent locks the picks being assembled and clears them. It returns nil when
// there was nothing to lock.
func (a *App) LockCurrent(ctx context.Context, stake decimal.Decimal) *models.Slip {
	picks := a.Picks.Take()
	slip := a.Store.Lock(ctx, stake, picks)
	if slip == nil {
		return nil
	}

	if err := a.notifier().SlipLocked(ctx, *slip); err != nil {
		log.Printf("Error notifying lock of %s: %v", slip.ID, err)
	}
	return slip
}

func (a *App) Settle(ctx context.Context, slipID string, isWin bool, payout decimal.Decimal) (settlementService.Settlement, error) {
	return a.Settler.Settle(ctx, slipID, isWin, payout)
}

// Dashboard builds the calendar view for a month from the reconciled slip list.
// A store read failure still yields a dashboard over the local slips.
func (a *App) Dashboard(ctx context.Context, year int, month time.Month) (dashboardService.Month, error) {
	slips, err := a.Store.List(ctx)
	return dashboardService.BuildMonth(slips, year, month, a.now(), a.Calendar), err
}

// TeamCounts counts picks per team, optionally only for teams playing today.
func (a *App) TeamCounts(ctx context.Context, scheduledOnly bool) ([]dashboardService.TeamCount, error) {
	teams, err := a.Catalog.Teams(ctx)
	if err != nil {
		a.Reporter.Report("services.TeamCounts", err)
	}

	var scheduled map[string]bool
	if scheduledOnly {
		var schedErr error
		scheduled, schedErr = a.Catalog.ScheduledTeams(ctx, a.Calendar.Today(a.now()))
		if schedErr != nil && err == nil {
			err = schedErr
		}
	}

	return dashboardService.TeamCounts(a.Store.Snapshot(), teams, scheduled), err
}
