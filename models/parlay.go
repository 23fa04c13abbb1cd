package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Parlay is the durable parent row of a locked slip.
type Parlay struct {
	ID           string          `gorm:"primaryKey;size:36"`
	UserID       *string         `gorm:"size:64"`
	Stake        decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status       string          `gorm:"size:8;index"` // "open", "win", "loss"
	ResultAmount decimal.Decimal `gorm:"type:decimal(12,2)"`
	CreatedAt    time.Time
	SettledAt    *time.Time
	Picks        []ParlayPick `gorm:"foreignKey:ParlayID"`
}

func (p *Parlay) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// ParlayPick is one leg of a parlay. Lives in the "picks" table.
type ParlayPick struct {
	ID       uint   `gorm:"primaryKey"`
	ParlayID string `gorm:"size:36;index"`
	GameID   *int
	PickTeam string
	Visitor  string
	Home     string
	Odds     *int
}

func (ParlayPick) TableName() string {
	return "picks"
}

// ParlayResult records the win/lose outcome of a settled parlay.
type ParlayResult struct {
	ID        uint   `gorm:"primaryKey"`
	ParlayID  string `gorm:"size:36;index"`
	Win       bool
	Lose      bool
	CreatedAt time.Time
}

func (ParlayResult) TableName() string {
	return "result"
}

// ParlayPnl is the profit ledger row. Margin holds the stake that was at risk.
type ParlayPnl struct {
	ID        uint            `gorm:"primaryKey"`
	ParlayID  string          `gorm:"size:36;index"`
	Margin    decimal.Decimal `gorm:"type:decimal(12,2)"`
	Profit    decimal.Decimal `gorm:"type:decimal(12,2)"`
	CreatedAt time.Time
}

func (ParlayPnl) TableName() string {
	return "pnl"
}
