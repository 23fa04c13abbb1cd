package settlementService

import (
	"context"
	"fmt"
	"log"
	"parlayTracker/models"

	"gorm.io/gorm"
)

var settledStatuses = []string{string(models.SlipWin), string(models.SlipLoss)}

// RepairLedger inserts the result and pnl rows missing for settled parlays and
// returns how many rows it wrote.
func (s *Settler) RepairLedger(ctx context.Context) (int, error) {
	if s.DB == nil {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	var missingResult []models.Parlay
	err := db.Where("status IN ?", settledStatuses).
		Where("NOT EXISTS (SELECT 1 FROM result WHERE result.parlay_id = parlays.id)").
		Find(&missingResult).Error
	if err != nil {
		return 0, fmt.Errorf("error finding parlays without result: %v", err)
	}

	var missingPnl []models.Parlay
	err = db.Where("status IN ?", settledStatuses).
		Where("NOT EXISTS (SELECT 1 FROM pnl WHERE pnl.parlay_id = parlays.id)").
		Find(&missingPnl).Error
	if err != nil {
		return 0, fmt.Errorf("error finding parlays without pnl: %v", err)
	}

	repaired := 0
	for _, p := range missingResult {
		if err := insertResult(db, p); err != nil {
			return repaired, err
		}
		repaired++
	}
	for _, p := range missingPnl {
		if err := insertPnl(db, p); err != nil {
			return repaired, err
		}
		repaired++
	}

	if repaired > 0 {
		log.Printf("Repaired %d ledger rows", repaired)
	}
	return repaired, nil
}

func insertResult(db *gorm.DB, p models.Parlay) error {
	isWin := p.Status == string(models.SlipWin)
	if err := db.Create(&models.ParlayResult{ParlayID: p.ID, Win: isWin, Lose: !isWin}).Error; err != nil {
		return fmt.Errorf("error inserting result for %s: %v", p.ID, err)
	}
	return nil
}

func insertPnl(db *gorm.DB, p models.Parlay) error {
	isWin := p.Status == string(models.SlipWin)
	pnl := models.ParlayPnl{
		ParlayID: p.ID,
		Margin:   p.Stake,
		Profit:   profitFor(isWin, p.Stake, p.ResultAmount),
	}
	if err := db.Create(&pnl).Error; err != nil {
		return fmt.Errorf("error inserting pnl for %s: %v", p.ID, err)
	}
	return nil
}
