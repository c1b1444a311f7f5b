package s2_signals

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insight/internal/contracts"
)

type staticWeights map[contracts.InsightCode]float64

func (w staticWeights) ResolveWeight(ctx context.Context, code contracts.InsightCode) (float64, error) {
	v, ok := w[code]
	if !ok {
		return 0, contracts.ErrUnknownInsightType
	}
	return v, nil
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()
	weights := staticWeights{
		contracts.CodeEMACross: 1.0,
		contracts.CodeBreakout: 1.5,
	}
	signals := []contracts.Signal{
		{Code: contracts.CodeEMACross, Direction: contracts.DirectionBuy, Score: 0.8},
		{Code: contracts.CodeBreakout, Direction: contracts.DirectionSell, Score: 0.4},
	}

	score, err := Aggregate(ctx, "TEST", baseDate, signals, weights)
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.InDelta(t, 0.08, score.Combined, 1e-12)
	assert.Equal(t, score.Combined, score.Details.Combined)
	assert.Equal(t, "-1 to 1", score.Details.Scale)
	require.Len(t, score.Details.Insights, 2)

	byType := map[contracts.InsightCode]contracts.ScoreComponent{}
	for _, c := range score.Details.Insights {
		byType[c.Type] = c
	}
	assert.Equal(t, -0.4, byType[contracts.CodeBreakout].Score)
	assert.Equal(t, 1.5, byType[contracts.CodeBreakout].Weight)
	assert.Equal(t, contracts.DirectionSell, byType[contracts.CodeBreakout].SignalType)
}

func TestAggregate_Idempotent(t *testing.T) {
	ctx := context.Background()
	weights := staticWeights{
		contracts.CodeEMACross:    1.0,
		contracts.CodeRSIOversold: 1.0,
		contracts.CodeBreakout:    1.5,
	}
	signals := []contracts.Signal{
		{Code: contracts.CodeEMACross, Direction: contracts.DirectionBuy, Score: 0.37},
		{Code: contracts.CodeRSIOversold, Direction: contracts.DirectionBuy, Score: 0.91},
		{Code: contracts.CodeBreakout, Direction: contracts.DirectionBuy, Score: 1.0},
	}
	reversed := []contracts.Signal{signals[2], signals[1], signals[0]}

	first, _ := Aggregate(ctx, "TEST", baseDate, signals, weights)
	second, _ := Aggregate(ctx, "TEST", baseDate, signals, weights)
	third, _ := Aggregate(ctx, "TEST", baseDate, reversed, weights)

	assert.Equal(t, first, second)
	assert.InDelta(t, first.Combined, third.Combined, 1e-12)
	assert.Equal(t, first.Details.Insights, third.Details.Insights)
}

func TestAggregate_Empty(t *testing.T) {
	score, err := Aggregate(context.Background(), "TEST", baseDate, nil, staticWeights{})
	assert.NoError(t, err)
	assert.Nil(t, score)
}

func TestAggregate_UnknownTypeFallsBack(t *testing.T) {
	signals := []contracts.Signal{
		{Code: "SENTIMENT_SPIKE", Direction: contracts.DirectionSell, Score: 0.5},
		{Code: contracts.CodeBreakout, Direction: contracts.DirectionBuy, Score: 1.0},
	}

	score, err := Aggregate(context.Background(), "TEST", baseDate, signals, staticWeights{contracts.CodeBreakout: 1.5})
	require.NoError(t, err)
	require.NotNil(t, score)
	// (-0.5*1.0 + 1.0*1.5) / 2.5
	assert.InDelta(t, 0.4, score.Combined, 1e-12)
}

func TestAggregate_Bounds(t *testing.T) {
	all := []contracts.Signal{
		{Code: contracts.CodeEMACross, Direction: contracts.DirectionSell, Score: 1},
		{Code: contracts.CodeRSIOverbought, Direction: contracts.DirectionSell, Score: 1},
	}
	score, err := Aggregate(context.Background(), "TEST", baseDate, all, staticWeights{})
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.Equal(t, -1.0, score.Combined)
}

// flakyWeights fails every lookup with a transport error
type flakyWeights struct {
	err error
}

func (w flakyWeights) ResolveWeight(ctx context.Context, code contracts.InsightCode) (float64, error) {
	return 0, w.err
}

func TestAggregate_ResolverErrorIsReturned(t *testing.T) {
	connReset := errors.New("connection reset by peer")
	signals := []contracts.Signal{
		{Code: contracts.CodeEMACross, Direction: contracts.DirectionBuy, Score: 0.8},
		{Code: contracts.CodeBreakout, Direction: contracts.DirectionSell, Score: 0.4},
	}

	score, err := Aggregate(context.Background(), "TEST", baseDate, signals, flakyWeights{err: connReset})
	assert.ErrorIs(t, err, connReset)
	assert.Nil(t, score)
}

func TestAggregate_WrappedUnknownTypeFallsBack(t *testing.T) {
	signals := []contracts.Signal{
		{Code: contracts.CodeEMACross, Direction: contracts.DirectionBuy, Score: 0.5},
	}
	weights := flakyWeights{err: fmt.Errorf("%w: %s", contracts.ErrUnknownInsightType, contracts.CodeEMACross)}

	score, err := Aggregate(context.Background(), "TEST", baseDate, signals, weights)
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.Equal(t, FallbackWeight, score.Details.Insights[0].Weight)
	assert.InDelta(t, 0.5, score.Combined, 1e-12)
}
