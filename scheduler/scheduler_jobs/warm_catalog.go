package scheduler_jobs

import (
	"context"
	"fmt"
	"log"
	"parlayTracker/models"
	"runtime/debug"
	"time"
)

type catalogRefresher interface {
	Today(now time.Time) string
	Refresh(ctx context.Context, day string) ([]models.Game, error)
}

// WarmCatalog refetches today's games so handlers read them from cache.
func WarmCatalog(catalog catalogRefresher, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovered in WarmCatalog", r)
			debug.PrintStack()
			err = fmt.Errorf("panic recovered in WarmCatalog: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	day := catalog.Today(now)
	if _, err := catalog.Refresh(ctx, day); err != nil {
		return fmt.Errorf("error warming games for %s: %v", day, err)
	}
	return nil
}
