package sqlite

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wonny/insight/internal/contracts"
)

// Store implements contracts.Store on SQLite through gorm.
// Used for local runs and tests without PostgreSQL.
type Store struct {
	db *gorm.DB

	candles  *CandleRepository
	symbols  *SymbolRepository
	insights *InsightRepository
}

var _ contracts.Store = (*Store)(nil)

// Open opens (or creates) a SQLite database file and migrates it
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}

	// SQLite는 단일 writer
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return New(db)
}

// New wraps an existing gorm handle and migrates the schema
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return &Store{
		db:       db,
		candles:  NewCandleRepository(db),
		symbols:  NewSymbolRepository(db),
		insights: NewInsightRepository(db),
	}, nil
}

func (s *Store) Candles() contracts.CandleRepository   { return s.candles }
func (s *Store) Symbols() contracts.SymbolRepository   { return s.symbols }
func (s *Store) Insights() contracts.InsightRepository { return s.insights }

// Ping checks the underlying connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
