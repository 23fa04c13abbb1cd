package settlementService

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"parlayTracker/models"
	"parlayTracker/services/parlayService"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})

	return gormDB, mock, err
}

func assertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// decimalArg matches a decimal bound as its string form.
type decimalArg string

func (d decimalArg) Match(v driver.Value) bool {
	var raw string
	switch val := v.(type) {
	case string:
		raw = val
	case []byte:
		raw = string(val)
	default:
		return false
	}
	got, err := decimal.NewFromString(raw)
	if err != nil {
		return false
	}
	return got.Equal(decimal.RequireFromString(string(d)))
}

type serverRemote struct {
	next int
}

func (r *serverRemote) CreateParlay(ctx context.Context, draft models.Slip) (models.Slip, error) {
	r.next++
	draft.ID = fmt.Sprintf("00000000-0000-4000-8000-%012d", r.next)
	return draft, nil
}

func (r *serverRemote) ListParlays(ctx context.Context) ([]models.Slip, error) {
	return nil, nil
}

func (r *serverRemote) DeleteParlay(ctx context.Context, id string) error {
	return nil
}

type failingRemote struct {
	serverRemote
}

func (r *failingRemote) CreateParlay(ctx context.Context, draft models.Slip) (models.Slip, error) {
	return models.Slip{}, errors.New("connection refused")
}

type recordingNotifier struct {
	settled []models.Slip
}

func (n *recordingNotifier) SlipLocked(ctx context.Context, slip models.Slip) error {
	return nil
}

func (n *recordingNotifier) SlipSettled(ctx context.Context, slip models.Slip) error {
	n.settled = append(n.settled, slip)
	return nil
}

func picks() []models.Pick {
	return []models.Pick{
		{GameID: 1, Pick: "Boston Celtics", Home: "Boston Celtics", Visitor: "Washington Wizards"},
		{GameID: 2, Pick: "Dallas Mavericks", Home: "Denver Nuggets", Visitor: "Dallas Mavericks"},
	}
}

func setup(t *testing.T, stake int64) (*Settler, sqlmock.Sqlmock, *recordingNotifier, string) {
	t.Helper()
	db, mock, err := newMockDB()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}

	store := parlayService.NewStore(&serverRemote{}, nil, nil)
	slip := store.Lock(context.Background(), decimal.NewFromInt(stake), picks())

	notifier := &recordingNotifier{}
	settler := NewSettler(db, store, nil, notifier, time.Second)
	return settler, mock, notifier, slip.ID
}

func TestSettle_Atomic(t *testing.T) {
	t.Run("win payout 25 on stake 10", func(t *testing.T) {
		settler, mock, notifier, id := setup(t, 10)

		mock.ExpectExec(regexp.QuoteMeta("CALL settle_parlay(?, ?, ?)")).
			WithArgs(id, true, decimalArg("25")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		result, err := settler.Settle(context.Background(), id, true, decimal.NewFromInt(25))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		assertEqual(t, "15", result.Profit.String(), "profit")
		assertEqual(t, models.SlipWin, result.Slip.Status, "status")
		assertEqual(t, "25", result.Slip.ResultAmount.String(), "result amount")
		assertEqual(t, true, result.Atomic, "atomic path")
		assertEqual(t, 0, len(settler.Store.Open()), "slip leaves the open view")
		assertEqual(t, 1, len(notifier.settled), "notified")

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	t.Run("loss records minus stake", func(t *testing.T) {
		settler, mock, _, id := setup(t, 20)

		mock.ExpectExec(regexp.QuoteMeta("CALL settle_parlay(?, ?, ?)")).
			WithArgs(id, false, decimalArg("0")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		result, err := settler.Settle(context.Background(), id, false, decimal.NewFromInt(99))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		assertEqual(t, "-20", result.Profit.String(), "profit")
		assertEqual(t, models.SlipLoss, result.Slip.Status, "status")
		assertEqual(t, true, result.Slip.ResultAmount.IsZero(), "result amount zero")

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})
}

func TestSettle_Fallback(t *testing.T) {
	t.Run("writes status result and pnl", func(t *testing.T) {
		settler, mock, _, id := setup(t, 10)

		mock.ExpectExec("CALL settle_parlay").
			WillReturnError(errors.New("PROCEDURE settle_parlay does not exist"))
		mock.ExpectExec("UPDATE `parlays` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO `result`").
			WithArgs(id, true, false, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("SELECT `stake` FROM `parlays`").
			WillReturnRows(sqlmock.NewRows([]string{"stake"}).AddRow("10.00"))
		mock.ExpectExec("INSERT INTO `pnl`").
			WithArgs(id, decimalArg("10"), decimalArg("15"), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		result, err := settler.Settle(context.Background(), id, true, decimal.NewFromInt(25))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		assertEqual(t, false, result.Atomic, "fallback path")
		assertEqual(t, "15", result.Profit.String(), "profit")

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	t.Run("ledger failure after status update still settles", func(t *testing.T) {
		settler, mock, _, id := setup(t, 10)

		mock.ExpectExec("CALL settle_parlay").
			WillReturnError(errors.New("timeout"))
		mock.ExpectExec("UPDATE `parlays` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO `result`").
			WillReturnError(errors.New("deadlock"))

		result, err := settler.Settle(context.Background(), id, false, decimal.Zero)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		assertEqual(t, models.SlipLoss, result.Slip.Status, "status")

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	t.Run("both paths failing leaves the slip open", func(t *testing.T) {
		settler, mock, notifier, id := setup(t, 10)

		mock.ExpectExec("CALL settle_parlay").
			WillReturnError(errors.New("parlay is not open"))
		mock.ExpectExec("UPDATE `parlays` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT `status`,`result_amount` FROM `parlays`").
			WillReturnRows(sqlmock.NewRows([]string{"status", "result_amount"}).AddRow("open", "0.00"))

		_, err := settler.Settle(context.Background(), id, true, decimal.NewFromInt(25))
		if !errors.Is(err, ErrParlayNotOpen) {
			t.Fatalf("Expected ErrParlayNotOpen, got %v", err)
		}

		slip, _ := settler.Store.Get(id)
		assertEqual(t, models.SlipOpen, slip.Status, "still open")
		assertEqual(t, 0, len(notifier.settled), "not notified")

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})
}

func TestSettle_CommittedBeforeTimeout(t *testing.T) {
	tests := []struct {
		name           string
		isWin          bool
		payout         int64
		storedStatus   string
		storedResult   string
		expectedStatus models.SlipStatus
		expectedProfit string
	}{
		{name: "stored win", isWin: true, payout: 25, storedStatus: "win", storedResult: "25.00", expectedStatus: models.SlipWin, expectedProfit: "15"},
		{name: "stored outcome wins over the request", isWin: true, payout: 25, storedStatus: "loss", storedResult: "0.00", expectedStatus: models.SlipLoss, expectedProfit: "-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settler, mock, notifier, id := setup(t, 10)

			mock.ExpectExec("CALL settle_parlay").
				WillReturnError(context.DeadlineExceeded)
			mock.ExpectExec("UPDATE `parlays` SET").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery("SELECT `status`,`result_amount` FROM `parlays`").
				WillReturnRows(sqlmock.NewRows([]string{"status", "result_amount"}).AddRow(tt.storedStatus, tt.storedResult))

			result, err := settler.Settle(context.Background(), id, tt.isWin, decimal.NewFromInt(tt.payout))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			assertEqual(t, tt.expectedStatus, result.Slip.Status, "status")
			assertEqual(t, tt.expectedProfit, result.Profit.String(), "profit")
			assertEqual(t, false, result.Atomic, "not atomic")

			slip, _ := settler.Store.Get(id)
			assertEqual(t, tt.expectedStatus, slip.Status, "local status")
			assertEqual(t, 1, len(notifier.settled), "notified")

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestSettle_Preconditions(t *testing.T) {
	t.Run("unknown slip", func(t *testing.T) {
		settler, _, _, _ := setup(t, 10)
		if _, err := settler.Settle(context.Background(), "missing", true, decimal.Zero); !errors.Is(err, parlayService.ErrSlipNotFound) {
			t.Errorf("Expected ErrSlipNotFound, got %v", err)
		}
	})

	t.Run("already settled", func(t *testing.T) {
		settler, _, _, id := setup(t, 10)
		settler.Store.SetStatus(id, models.SlipLoss, decimal.Zero)
		if _, err := settler.Settle(context.Background(), id, true, decimal.Zero); !errors.Is(err, ErrSlipNotOpen) {
			t.Errorf("Expected ErrSlipNotOpen, got %v", err)
		}
	})

	t.Run("local only slip", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		store := parlayService.NewStore(&failingRemote{}, nil, nil)
		slip := store.Lock(context.Background(), decimal.NewFromInt(10), picks())

		settler := NewSettler(db, store, nil, nil, time.Second)
		if _, err := settler.Settle(context.Background(), slip.ID, true, decimal.NewFromInt(25)); !errors.Is(err, ErrSlipNotSynced) {
			t.Errorf("Expected ErrSlipNotSynced, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("No statements expected: %v", err)
		}
	})
}

func TestRepairLedger(t *testing.T) {
	db, mock, err := newMockDB()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}

	columns := []string{"id", "user_id", "stake", "status", "result_amount", "created_at", "settled_at"}
	now := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `parlays` WHERE status IN .* NOT EXISTS \\(SELECT 1 FROM result").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("win-parlay-0001", nil, "10.00", "win", "25.00", now, now))
	mock.ExpectQuery("SELECT \\* FROM `parlays` WHERE status IN .* NOT EXISTS \\(SELECT 1 FROM pnl").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("loss-parlay-001", nil, "20.00", "loss", "0.00", now, now))
	mock.ExpectExec("INSERT INTO `result`").
		WithArgs("win-parlay-0001", true, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `pnl`").
		WithArgs("loss-parlay-001", decimalArg("20"), decimalArg("-20"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	settler := NewSettler(db, parlayService.NewStore(nil, nil, nil), nil, nil, time.Second)
	repaired, err := settler.RepairLedger(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertEqual(t, 2, repaired, "rows repaired")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestProfitFor(t *testing.T) {
	tests := []struct {
		name     string
		isWin    bool
		stake    string
		payout   string
		expected string
	}{
		{"win", true, "10", "25", "15"},
		{"loss ignores payout", false, "20", "99", "-20"},
		{"win below stake", true, "10", "4.5", "-5.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := profitFor(tt.isWin, decimal.RequireFromString(tt.stake), decimal.RequireFromString(tt.payout))
			assertEqual(t, true, got.Equal(decimal.RequireFromString(tt.expected)), fmt.Sprintf("profit %s", got))
		})
	}
}
