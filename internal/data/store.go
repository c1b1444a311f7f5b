package data

import (
	"context"
	"fmt"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/data/repos"
	"github.com/wonny/insight/internal/s0_data"
	"github.com/wonny/insight/internal/store/sqlite"
	"github.com/wonny/insight/pkg/config"
	"github.com/wonny/insight/pkg/database"
	"github.com/wonny/insight/pkg/logger"
)

// PostgresStore implements contracts.Store on pgx
type PostgresStore struct {
	db       *database.DB
	candles  *s0_data.CandleRepository
	symbols  *s0_data.SymbolRepository
	insights *repos.InsightRepository
}

var _ contracts.Store = (*PostgresStore)(nil)

// NewPostgresStore wires the repositories over an open pool
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{
		db:       db,
		candles:  s0_data.NewCandleRepository(db.Pool),
		symbols:  s0_data.NewSymbolRepository(db.Pool),
		insights: repos.NewInsightRepository(db.Pool),
	}
}

func (s *PostgresStore) Candles() contracts.CandleRepository   { return s.candles }
func (s *PostgresStore) Symbols() contracts.SymbolRepository   { return s.symbols }
func (s *PostgresStore) Insights() contracts.InsightRepository { return s.insights }

// Ping checks the pool
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB exposes the pool for health reporting
func (s *PostgresStore) DB() *database.DB {
	return s.db
}

// Open connects the configured backend, ensures its schema and seeds the
// insight type catalog
// ⭐ SSOT: 저장소 백엔드 선택은 여기서만
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (contracts.Store, error) {
	var store contracts.Store

	switch cfg.Store.Backend {
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = s
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := repos.EnsureSchema(ctx, db.Pool); err != nil {
			db.Close()
			return nil, err
		}
		store = NewPostgresStore(db)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}

	if err := store.Insights().SeedInsightTypes(ctx, contracts.DefaultInsightTypes()); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to seed insight types: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"backend": cfg.Store.Backend,
	}).Info("Store opened")

	return store, nil
}
