package parlayService

import (
	"context"
	"fmt"
	"parlayTracker/models"
	"time"

	"gorm.io/gorm"
)

const DefaultPersistTimeout = 10 * time.Second

// RemoteStore is the backing store of record for locked slips.
type RemoteStore interface {
	CreateParlay(ctx context.Context, draft models.Slip) (models.Slip, error)
	ListParlays(ctx context.Context) ([]models.Slip, error)
	DeleteParlay(ctx context.Context, id string) error
}

// GormRemote keeps slips in the parlays and picks tables.
type GormRemote struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewGormRemote(db *gorm.DB, timeout time.Duration) *GormRemote {
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}
	return &GormRemote{DB: db, Timeout: timeout}
}

func (r *GormRemote) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.Timeout)
}

// CreateParlay writes the parent row and its picks in one transaction and returns
// the slip under its new id.
func (r *GormRemote) CreateParlay(ctx context.Context, draft models.Slip) (models.Slip, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	parlay := models.Parlay{
		Stake:     draft.Amount,
		Status:    string(models.SlipOpen),
		CreatedAt: draft.CreatedAt,
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Picks").Create(&parlay).Error; err != nil {
			return fmt.Errorf("error creating parlay: %v", err)
		}

		rows := models.ParlayPicksFrom(draft.Picks)
		for i := range rows {
			rows[i].ParlayID = parlay.ID
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("error creating parlay picks: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Slip{}, err
	}

	saved := draft
	saved.ID = parlay.ID
	saved.Status = models.SlipOpen
	if !parlay.CreatedAt.IsZero() {
		saved.CreatedAt = parlay.CreatedAt
	}
	return saved, nil
}

// ListParlays returns every parlay, newest first, with picks in insertion order.
func (r *GormRemote) ListParlays(ctx context.Context) ([]models.Slip, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var parlays []models.Parlay
	err := r.DB.WithContext(ctx).
		Preload("Picks", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).
		Order("created_at desc").
		Find(&parlays).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching parlays: %v", err)
	}

	slips := make([]models.Slip, 0, len(parlays))
	for _, p := range parlays {
		slips = append(slips, models.SlipFromParlay(p))
	}
	return slips, nil
}

// DeleteParlay removes the picks and then the parent row. The two deletes are not
// wrapped in a transaction; a failure between them leaves an empty parlay behind.
func (r *GormRemote) DeleteParlay(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	db := r.DB.WithContext(ctx)
	if err := db.Where("parlay_id = ?", id).Delete(&models.ParlayPick{}).Error; err != nil {
		return fmt.Errorf("error deleting picks for parlay %s: %v", id, err)
	}
	if err := db.Where("id = ?", id).Delete(&models.Parlay{}).Error; err != nil {
		return fmt.Errorf("error deleting parlay %s: %v", id, err)
	}
	return nil
}
