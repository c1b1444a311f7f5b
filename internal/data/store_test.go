package data

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/pkg/config"
	"github.com/wonny/insight/pkg/logger"
)

func TestOpen_SQLiteSeedsCatalog(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{
			Backend:    config.BackendSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "insight.db"),
		},
	}

	ctx := context.Background()
	store, err := Open(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(ctx))

	types, err := store.Insights().ListInsightTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, len(contracts.DefaultInsightTypes()))
	assert.Equal(t, contracts.CodeEMACross, types[0].Code)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: "mongo"}}
	_, err := Open(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
