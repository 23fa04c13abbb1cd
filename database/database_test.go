package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
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

func TestMysqlDSN(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		expected string
	}{
		{name: "no params", dsn: "u:p@tcp(localhost:3306)/parlays", expected: "u:p@tcp(localhost:3306)/parlays?charset=utf8mb4&parseTime=True&loc=UTC"},
		{name: "existing params", dsn: "u:p@tcp(localhost:3306)/parlays?tls=true", expected: "u:p@tcp(localhost:3306)/parlays?tls=true&charset=utf8mb4&parseTime=True&loc=UTC"},
		{name: "parseTime already set", dsn: "u:p@tcp(localhost:3306)/parlays?parseTime=true", expected: "u:p@tcp(localhost:3306)/parlays?parseTime=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mysqlDSN(tt.dsn); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestOpen_RejectsUnknownScheme(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Expected error for empty DATABASE_URL")
	}
	if _, err := Open("redis://localhost:6379/0"); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestSettleCall_Mysql(t *testing.T) {
	db, _, err := newMockDB()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	if got := SettleCall(db); got != "CALL settle_parlay(?, ?, ?)" {
		t.Errorf("Unexpected settle call %q", got)
	}
}

func TestEnsureSettleProcedure(t *testing.T) {
	t.Run("installs once", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}

		mock.ExpectQuery("SELECT \\* FROM `migrations`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "dialect"}))
		mock.ExpectExec("DROP PROCEDURE IF EXISTS settle_parlay").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE PROCEDURE settle_parlay").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO `migrations`").
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := EnsureSettleProcedure(db); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("already installed", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}

		mock.ExpectQuery("SELECT \\* FROM `migrations`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "dialect"}).AddRow(1, settleProcedureMigration, "mysql"))

		if err := EnsureSettleProcedure(db); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})
}
