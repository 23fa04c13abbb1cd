package scheduler

import (
	"errors"
	"fmt"
	"parlayTracker/config"
	"parlayTracker/scheduler/scheduler_jobs"
	"parlayTracker/services"
	"time"

	"github.com/robfig/cron/v3"
)

// SetupCron registers the background jobs and starts the scheduler. Specs carry a
// seconds field.
func SetupCron(app *services.App, cfg *config.Config) (*cron.Cron, error) {
	cronService := cron.New(cron.WithSeconds())

	var errs []error
	add := func(name string, spec string, job func() error) {
		_, err := cronService.AddFunc(spec, func() {
			if err := job(); err != nil {
				fmt.Println(err)
				app.Reporter.Report("cron."+name, err)
			}
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s (%q): %v", name, spec, err))
		}
	}

	add("SyncLocalSlips", cfg.SyncSchedule, func() error {
		// Every 10 minutes by default
		return scheduler_jobs.SyncLocalSlips(app.Store)
	})
	add("RepairLedger", cfg.LedgerSchedule, func() error {
		// Hourly by default
		return scheduler_jobs.RepairLedger(app.Settler)
	})
	add("WarmCatalog", cfg.CatalogSchedule, func() error {
		// Every 5 minutes by default
		return scheduler_jobs.WarmCatalog(app.Catalog, time.Now())
	})

	err := errors.Join(errs...)
	if err != nil {
		app.Reporter.Report("cron.setup", err)
	}

	cronService.Start()
	return cronService, err
}
