package s2_signals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/insight/internal/contracts"
)

// WeightResolver returns the aggregation weight for an insight code
type WeightResolver interface {
	ResolveWeight(ctx context.Context, code contracts.InsightCode) (float64, error)
}

// FallbackWeight applies to codes the catalog does not know
const FallbackWeight = 1.0

// Aggregate blends signals into a composite score:
// combined = Σ(sign·score·weight) / Σweight. An empty list yields a nil score.
// Only ErrUnknownInsightType falls back to FallbackWeight; any other resolver
// error is returned so no score is computed from a wrong weight.
func Aggregate(ctx context.Context, symbol string, date time.Time, signals []contracts.Signal, weights WeightResolver) (*contracts.CompositeScore, error) {
	if len(signals) == 0 {
		return nil, nil
	}

	components := make([]contracts.ScoreComponent, 0, len(signals))
	for _, sig := range signals {
		w, err := weights.ResolveWeight(ctx, sig.Code)
		switch {
		case errors.Is(err, contracts.ErrUnknownInsightType):
			w = FallbackWeight
		case err != nil:
			return nil, fmt.Errorf("resolve weight for %s: %w", sig.Code, err)
		case w <= 0:
			w = FallbackWeight
		}
		components = append(components, contracts.ScoreComponent{
			Type:       sig.Code,
			Score:      sig.Direction.Sign() * sig.Score,
			Weight:     w,
			SignalType: sig.Direction,
		})
	}

	// canonical order keeps the sum and the payload independent of detector order
	sort.SliceStable(components, func(i, j int) bool {
		if components[i].Type != components[j].Type {
			return components[i].Type < components[j].Type
		}
		return components[i].Score < components[j].Score
	})

	var weighted, total float64
	for _, c := range components {
		weighted += c.Score * c.Weight
		total += c.Weight
	}
	combined := weighted / total

	return &contracts.CompositeScore{
		Symbol:   symbol,
		Date:     contracts.TradingDay(date),
		Combined: combined,
		Details: contracts.ScoreDetails{
			Insights: components,
			Combined: combined,
			Scale:    contracts.ScoreScale,
		},
	}, nil
}
