package scheduler_jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"parlayTracker/services/parlayService"
	"runtime/debug"
	"time"
)

type slipSyncer interface {
	SyncLocal(ctx context.Context) (int, error)
	RetryRemovals(ctx context.Context) (int, error)
}

// SyncLocalSlips pushes slips that were locked while the backing store was down and
// re-sends deletes the backing store missed.
func SyncLocalSlips(store slipSyncer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovered in SyncLocalSlips", r)
			debug.PrintStack()
			err = fmt.Errorf("panic recovered in SyncLocalSlips: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	synced, syncErr := store.SyncLocal(ctx)
	if errors.Is(syncErr, parlayService.ErrStoreUnavailable) {
		return nil
	}
	if synced > 0 {
		log.Printf("Synced %d local slips", synced)
	}

	deleted, deleteErr := store.RetryRemovals(ctx)
	if deleted > 0 {
		log.Printf("Deleted %d removed slips from the backing store", deleted)
	}
	return errors.Join(syncErr, deleteErr)
}
