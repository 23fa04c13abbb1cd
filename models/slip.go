package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SlipStatus string

const (
	SlipOpen SlipStatus = "open"
	SlipWin  SlipStatus = "win"
	SlipLoss SlipStatus = "loss"
)

// Pick is a single chosen side for one game.
type Pick struct {
	GameID  int    `json:"gameId" validate:"required"`
	Pick    string `json:"pick" validate:"required"`
	Home    string `json:"home"`
	Visitor string `json:"visitor"`
	Date    string `json:"date,omitempty"`
	Odds    *int   `json:"odds,omitempty"`
}

// Slip is a locked parlay as the app sees it, whether or not it reached the backing store.
type Slip struct {
	ID           string          `json:"id"`
	Picks        []Pick          `json:"picks"`
	Amount       decimal.Decimal `json:"amount"`
	Status       SlipStatus      `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	ResultAmount decimal.Decimal `json:"resultAmount"`
	SettledAt    *time.Time      `json:"settledAt,omitempty"`
}

// Profit is payout minus stake for a win, the full stake lost for a loss, and zero while open.
func (s Slip) Profit() decimal.Decimal {
	switch s.Status {
	case SlipWin:
		return s.ResultAmount.Sub(s.Amount)
	case SlipLoss:
		return s.Amount.Neg()
	}
	return decimal.Zero
}

func (s Slip) Settled() bool {
	return s.Status == SlipWin || s.Status == SlipLoss
}

// SlipFromParlay converts a backing store row into a Slip.
func SlipFromParlay(p Parlay) Slip {
	status := SlipStatus(p.Status)
	if status == "" {
		status = SlipOpen
	}

	picks := make([]Pick, 0, len(p.Picks))
	for _, pr := range p.Picks {
		pick := Pick{
			Pick:    pr.PickTeam,
			Home:    pr.Home,
			Visitor: pr.Visitor,
			Odds:    pr.Odds,
		}
		if pr.GameID != nil {
			pick.GameID = *pr.GameID
		}
		picks = append(picks, pick)
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return Slip{
		ID:           p.ID,
		Picks:        picks,
		Amount:       p.Stake,
		Status:       status,
		CreatedAt:    createdAt,
		ResultAmount: p.ResultAmount,
		SettledAt:    p.SettledAt,
	}
}

// ParlayPicksFrom builds the child rows for a new parlay.
func ParlayPicksFrom(picks []Pick) []ParlayPick {
	rows := make([]ParlayPick, 0, len(picks))
	for _, p := range picks {
		gameID := p.GameID
		rows = append(rows, ParlayPick{
			GameID:   &gameID,
			PickTeam: p.Pick,
			Visitor:  p.Visitor,
			Home:     p.Home,
			Odds:     p.Odds,
		})
	}
	return rows
}
