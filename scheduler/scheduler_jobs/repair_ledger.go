package scheduler_jobs

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"time"
)

type ledgerRepairer interface {
	RepairLedger(ctx context.Context) (int, error)
}

func RepairLedger(settler ledgerRepairer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovered in RepairLedger", r)
			debug.PrintStack()
			err = fmt.Errorf("panic recovered in RepairLedger: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	_, err = settler.RepairLedger(ctx)
	return err
}
