package database

import (
	"database/sql"
	"fmt"
	"log"
	"parlayTracker/models"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/xo/dburl"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to DATABASE_URL. The scheme picks the dialect: postgres, mysql or sqlserver.
func Open(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set in environment variables")
	}

	u, err := dburl.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing DATABASE_URL: %v", err)
	}

	dialector, err := dialectorFor(u)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Warn),
		SkipDefaultTransaction: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

func dialectorFor(u *dburl.URL) (gorm.Dialector, error) {
	switch u.Driver {
	case "mysql":
		return mysql.Open(mysqlDSN(u.DSN)), nil
	case "postgres":
		conn, err := sql.Open("postgres", u.DSN)
		if err != nil {
			return nil, fmt.Errorf("error opening postgres connection: %v", err)
		}
		return postgres.New(postgres.Config{Conn: conn}), nil
	case "sqlserver":
		conn, err := sql.Open("sqlserver", u.DSN)
		if err != nil {
			return nil, fmt.Errorf("error opening sqlserver connection: %v", err)
		}
		return sqlserver.New(sqlserver.Config{Conn: conn}), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", u.Driver)
}

func mysqlDSN(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "charset=utf8mb4&parseTime=True&loc=UTC"
}

// Migrate creates the tables and installs the settle_parlay routine once per dialect.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Parlay{},
		&models.ParlayPick{},
		&models.ParlayResult{},
		&models.ParlayPnl{},
		&models.ErrorLog{},
		&models.Migration{},
	)
	if err != nil {
		return fmt.Errorf("error migrating database: %v", err)
	}

	return EnsureSettleProcedure(db)
}

const settleProcedureMigration = "settle_parlay_v1"

func EnsureSettleProcedure(db *gorm.DB) error {
	dialect := db.Dialector.Name()

	var existingMigration models.Migration
	result := db.Where("name = ? AND dialect = ?", settleProcedureMigration, dialect).Limit(1).Find(&existingMigration)
	if result.Error != nil {
		return fmt.Errorf("error checking migrations: %v", result.Error)
	}
	if existingMigration.ID != 0 {
		return nil
	}

	statements, ok := settleProcedureSQL[dialect]
	if !ok {
		log.Printf("No settle_parlay routine for dialect %s; settlements will use the fallback path", dialect)
		return nil
	}

	log.Printf("Installing settle_parlay routine for %s...", dialect)
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("error installing settle_parlay: %v", err)
		}
	}

	migration := models.Migration{
		Name:       settleProcedureMigration,
		Dialect:    dialect,
		ExecutedAt: time.Now().UTC(),
	}
	if err := db.Create(&migration).Error; err != nil {
		return fmt.Errorf("error marking migration as complete: %v", err)
	}

	return nil
}

// SettleCall is the statement that invokes settle_parlay with (parlay_id, is_win, payout).
func SettleCall(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "CALL settle_parlay(?, ?, ?)"
	case "sqlserver":
		return "EXEC settle_parlay ?, ?, ?"
	}
	return "SELECT settle_parlay(?, ?, ?)"
}
