package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// localDSN appends sslmode=disable for local databases that don't say otherwise.
func localDSN(dsn string) string {
	if !strings.Contains(dsn, "localhost") && !strings.Contains(dsn, "127.0.0.1") {
		return dsn
	}
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&sslmode=disable"
	}
	return dsn + "?sslmode=disable"
}

// gormConfig is shared by the Postgres and test dialectors. Unique and FK
// violations come back as gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func gormConfig(now func() time.Time) *gorm.Config {
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             1500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &gorm.Config{
		Logger:         gLogger,
		NowFunc:        now,
		TranslateError: true,
	}
}

// openDatabase connects through pgx (simple protocol, IPv4 only) and wraps the pool in GORM.
func openDatabase(cfg Config) (*gorm.DB, error) {
	pgCfg, err := pgx.ParseConfig(localDSN(cfg.Database.URL))
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	pgCfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	// Force IPv4 to avoid IPv6-only routes on some hosts
	pgCfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		d := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
		return d.DialContext(ctx, "tcp4", addr)
	}

	sqlDB := stdlib.OpenDB(*pgCfg)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig(nil))
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	// Fast fail if unreachable
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	if err := pingDatabase(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	log.Println("[DB] connected")
	return db, nil
}

func pingDatabase(ctx context.Context, db *gorm.DB) error {
	var one int
	if err := db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	if one != 1 {
		return fmt.Errorf("connect failed: SELECT 1 returned %d", one)
	}
	return nil
}

// autoMigrate creates or updates all app tables.
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Note{},
		&Task{},
	)
}
