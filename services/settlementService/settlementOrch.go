package settlementService

import (
	"context"
	"errors"
	"fmt"
	"log"
	"parlayTracker/database"
	"parlayTracker/models"
	"parlayTracker/services/common"
	"parlayTracker/services/notifyService"
	"parlayTracker/services/parlayService"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrSlipNotOpen   = errors.New("slip is already settled")
	ErrSlipNotSynced = errors.New("slip has not been saved to the backing store yet")
	ErrParlayNotOpen = errors.New("parlay is not open in the backing store")
)

// Settler moves open slips to win or loss in the backing store and then locally.
type Settler struct {
	DB       *gorm.DB
	Store    *parlayService.Store
	Reporter *common.ErrorReporter
	Notifier notifyService.Notifier
	Timeout  time.Duration
	now      func() time.Time
}

func NewSettler(db *gorm.DB, store *parlayService.Store, reporter *common.ErrorReporter, notifier notifyService.Notifier, timeout time.Duration) *Settler {
	if notifier == nil {
		notifier = notifyService.NoopNotifier{}
	}
	if timeout <= 0 {
		timeout = parlayService.DefaultPersistTimeout
	}
	return &Settler{
		DB:       db,
		Store:    store,
		Reporter: reporter,
		Notifier: notifier,
		Timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Settlement is the outcome of a successful Settle.
type Settlement struct {
	Slip   models.Slip     `json:"slip"`
	Profit decimal.Decimal `json:"profit"`
	Atomic bool            `json:"atomic"`
}

// Settle records a win with the given payout, or a loss. Payout is ignored for a
// loss. The slip stays open when neither the stored routine nor the fallback
// statements succeed.
func (s *Settler) Settle(ctx context.Context, slipID string, isWin bool, payout decimal.Decimal) (Settlement, error) {
	slip, ok := s.Store.Get(slipID)
	if !ok {
		return Settlement{}, parlayService.ErrSlipNotFound
	}
	if slip.Status != models.SlipOpen {
		return Settlement{}, ErrSlipNotOpen
	}
	if !parlayService.IsServerID(slip.ID) {
		return Settlement{}, ErrSlipNotSynced
	}
	if s.DB == nil {
		return Settlement{}, parlayService.ErrStoreUnavailable
	}

	status := models.SlipLoss
	resultAmount := decimal.Zero
	if isWin {
		status = models.SlipWin
		resultAmount = common.NonNegative(payout)
	}

	atomic := true
	atomicErr := s.settleAtomic(ctx, slip.ID, isWin, resultAmount)
	if atomicErr != nil {
		log.Printf("settle_parlay failed for %s, using fallback: %v", slip.ID, atomicErr)
		atomic = false
		fallbackErr := s.settleFallback(ctx, slip.ID, status, resultAmount)
		if errors.Is(fallbackErr, ErrParlayNotOpen) {
			// The routine may have committed before its error reached us.
			if settled, err := s.serverOutcome(ctx, slip.ID); err == nil {
				log.Printf("Parlay %s already settled as %s in the backing store", slip.ID, settled.Status)
				status = models.SlipStatus(settled.Status)
				resultAmount = settled.ResultAmount
				fallbackErr = nil
			} else {
				fallbackErr = errors.Join(fallbackErr, err)
			}
		}
		if fallbackErr != nil {
			err := fmt.Errorf("error settling parlay %s: %w", slip.ID, errors.Join(atomicErr, fallbackErr))
			s.Reporter.Report("settlementService.Settle", err)
			return Settlement{}, err
		}
	}

	updated, err := s.Store.SetStatus(slip.ID, status, resultAmount)
	if err != nil {
		// Removed locally while the write was in flight; the server row is settled.
		updated = slip
		updated.Status = status
		updated.ResultAmount = resultAmount
	}

	if err := s.Notifier.SlipSettled(ctx, updated); err != nil {
		log.Printf("Error notifying settlement of %s: %v", updated.ID, err)
	}

	return Settlement{
		Slip:   updated,
		Profit: updated.Profit(),
		Atomic: atomic,
	}, nil
}

func (s *Settler) settleAtomic(ctx context.Context, id string, isWin bool, payout decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	return s.DB.WithContext(ctx).Exec(database.SettleCall(s.DB), id, isWin, payout).Error
}

// settleFallback runs the routine's steps as separate statements. Once the status
// update lands the settlement counts; ledger rows that fail after that are left
// for RepairLedger.
func (s *Settler) settleFallback(ctx context.Context, id string, status models.SlipStatus, payout decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	db := s.DB.WithContext(ctx)

	result := db.Model(&models.Parlay{}).
		Where("id = ? AND status = ?", id, string(models.SlipOpen)).
		Updates(map[string]interface{}{
			"status":        string(status),
			"result_amount": payout,
			"settled_at":    s.now(),
		})
	if result.Error != nil {
		return fmt.Errorf("error updating parlay status: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrParlayNotOpen
	}

	if err := s.writeLedger(db, id, status, payout); err != nil {
		s.Reporter.Report("settlementService.unledgered", fmt.Errorf("parlay %s settled without ledger rows: %v", id, err))
	}
	return nil
}

// serverOutcome reads a parlay's stored status. Only a settled row is returned.
func (s *Settler) serverOutcome(ctx context.Context, id string) (models.Parlay, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var parlay models.Parlay
	err := s.DB.WithContext(ctx).Select("status", "result_amount").Where("id = ?", id).Take(&parlay).Error
	if err != nil {
		return models.Parlay{}, fmt.Errorf("error reading parlay status: %v", err)
	}
	switch models.SlipStatus(parlay.Status) {
	case models.SlipWin, models.SlipLoss:
		return parlay, nil
	}
	return models.Parlay{}, fmt.Errorf("parlay status is %q", parlay.Status)
}

func (s *Settler) writeLedger(db *gorm.DB, id string, status models.SlipStatus, payout decimal.Decimal) error {
	isWin := status == models.SlipWin
	if err := db.Create(&models.ParlayResult{ParlayID: id, Win: isWin, Lose: !isWin}).Error; err != nil {
		return fmt.Errorf("error inserting result: %v", err)
	}

	var parlay models.Parlay
	if err := db.Select("stake").Where("id = ?", id).Take(&parlay).Error; err != nil {
		return fmt.Errorf("error reading stake: %v", err)
	}

	pnl := models.ParlayPnl{
		ParlayID: id,
		Margin:   parlay.Stake,
		Profit:   profitFor(isWin, parlay.Stake, payout),
	}
	if err := db.Create(&pnl).Error; err != nil {
		return fmt.Errorf("error inserting pnl: %v", err)
	}
	return nil
}

func profitFor(isWin bool, stake decimal.Decimal, payout decimal.Decimal) decimal.Decimal {
	if isWin {
		return payout.Sub(stake)
	}
	return stake.Neg()
}
