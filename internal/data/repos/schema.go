package repos

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements creates every table the scanner reads or writes
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS data`,
	`CREATE SCHEMA IF NOT EXISTS insights`,
	`CREATE TABLE IF NOT EXISTS data.daily_candles (
		symbol      VARCHAR(32)   NOT NULL,
		trade_date  DATE          NOT NULL,
		open_price  NUMERIC(18,4) NOT NULL,
		high_price  NUMERIC(18,4) NOT NULL,
		low_price   NUMERIC(18,4) NOT NULL,
		close_price NUMERIC(18,4) NOT NULL,
		volume      BIGINT        NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS data.screened_stocks (
		symbol      VARCHAR(32) PRIMARY KEY,
		exchange    VARCHAR(16) NOT NULL DEFAULT 'NSE',
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS insights.insight_types (
		id          SERIAL PRIMARY KEY,
		code        VARCHAR(64)  NOT NULL UNIQUE,
		name        VARCHAR(128) NOT NULL,
		category    VARCHAR(32)  NOT NULL,
		description TEXT         NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS insights.stock_insights (
		id              BIGSERIAL PRIMARY KEY,
		symbol          VARCHAR(32)      NOT NULL,
		insight_type_id INTEGER          NOT NULL REFERENCES insights.insight_types(id),
		trade_date      DATE             NOT NULL,
		signal_type     VARCHAR(8)       NOT NULL,
		price           DOUBLE PRECISION NOT NULL,
		score           DOUBLE PRECISION NOT NULL,
		attributes      JSONB            NOT NULL DEFAULT '{}',
		created_at      TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		UNIQUE (symbol, insight_type_id, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS insights.stock_scores (
		symbol         VARCHAR(32)      NOT NULL,
		trade_date     DATE             NOT NULL,
		combined_score DOUBLE PRECISION NOT NULL,
		details        JSONB            NOT NULL,
		created_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (symbol, trade_date)
	)`,
}

// EnsureSchema creates missing schemas and tables
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
