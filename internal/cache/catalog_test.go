package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/pkg/logger"
	"github.com/wonny/insight/pkg/redis"
)

type countingCatalog struct {
	types map[contracts.InsightCode]contracts.InsightType
	calls int
}

func (c *countingCatalog) GetInsightType(_ context.Context, code contracts.InsightCode) (*contracts.InsightType, error) {
	c.calls++
	it, ok := c.types[code]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return &it, nil
}

func newCatalog() *countingCatalog {
	return &countingCatalog{types: map[contracts.InsightCode]contracts.InsightType{
		contracts.CodeBreakout: {ID: 4, Code: contracts.CodeBreakout, Name: "Resistance Breakout", Category: contracts.CategoryPattern},
	}}
}

func TestCatalogCache_MissThenFill(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	next := newCatalog()
	c := NewCatalogCache(next, redis.NewFromRedis(rdb), time.Hour, logger.Nop())

	payload, err := json.Marshal(next.types[contracts.CodeBreakout])
	require.NoError(t, err)

	mock.ExpectGet("insight:cache:insight_type:BREAKOUT").RedisNil()
	mock.ExpectSet("insight:cache:insight_type:BREAKOUT", payload, time.Hour).SetVal("OK")

	it, err := c.GetInsightType(context.Background(), contracts.CodeBreakout)
	require.NoError(t, err)
	assert.Equal(t, int64(4), it.ID)
	assert.Equal(t, 1, next.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogCache_Hit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	next := newCatalog()
	c := NewCatalogCache(next, redis.NewFromRedis(rdb), time.Hour, logger.Nop())

	mock.ExpectGet("insight:cache:insight_type:EMA_CROSS").
		SetVal(`{"id":1,"code":"EMA_CROSS","name":"EMA Crossover","category":"FORMULA"}`)

	it, err := c.GetInsightType(context.Background(), contracts.CodeEMACross)
	require.NoError(t, err)
	assert.Equal(t, int64(1), it.ID)
	assert.Equal(t, contracts.CategoryFormula, it.Category)
	assert.Zero(t, next.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogCache_RedisErrorFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	next := newCatalog()
	c := NewCatalogCache(next, redis.NewFromRedis(rdb), time.Hour, logger.Nop())

	payload, err := json.Marshal(next.types[contracts.CodeBreakout])
	require.NoError(t, err)

	mock.ExpectGet("insight:cache:insight_type:BREAKOUT").SetErr(errors.New("connection refused"))
	mock.ExpectSet("insight:cache:insight_type:BREAKOUT", payload, time.Hour).SetErr(errors.New("connection refused"))

	it, err := c.GetInsightType(context.Background(), contracts.CodeBreakout)
	require.NoError(t, err)
	assert.Equal(t, contracts.CodeBreakout, it.Code)
	assert.Equal(t, 1, next.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogCache_UnknownCodeNotCached(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	c := NewCatalogCache(newCatalog(), redis.NewFromRedis(rdb), time.Hour, logger.Nop())

	mock.ExpectGet("insight:cache:insight_type:VOLUME_SPIKE").RedisNil()

	_, err := c.GetInsightType(context.Background(), "VOLUME_SPIKE")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogCache_Disabled(t *testing.T) {
	next := newCatalog()
	c := NewCatalogCache(next, redis.NewFromRedis(nil), 0, logger.Nop())

	for i := 0; i < 2; i++ {
		_, err := c.GetInsightType(context.Background(), contracts.CodeBreakout)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, next.calls)
	assert.NoError(t, c.Invalidate(context.Background(), contracts.CodeBreakout))
}
