package s2_signals

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/detectorconfig"
)

// TypeResolver resolves insight codes through the catalog and memoizes the
// result. One instance is shared by every scan in a batch.
type TypeResolver struct {
	catalog contracts.InsightTypeCatalog
	weights detectorconfig.WeightConfig

	mu    sync.Mutex
	cache map[contracts.InsightCode]*contracts.InsightType
}

// NewTypeResolver creates a resolver over the catalog
func NewTypeResolver(catalog contracts.InsightTypeCatalog, weights detectorconfig.WeightConfig) *TypeResolver {
	return &TypeResolver{
		catalog: catalog,
		weights: weights,
		cache:   make(map[contracts.InsightCode]*contracts.InsightType),
	}
}

// ResolveTypeID returns the catalog key for a code
func (r *TypeResolver) ResolveTypeID(ctx context.Context, code contracts.InsightCode) (int64, error) {
	it, err := r.lookup(ctx, code)
	if err != nil {
		return 0, err
	}
	return it.ID, nil
}

// ResolveWeight returns the category weight for a code
func (r *TypeResolver) ResolveWeight(ctx context.Context, code contracts.InsightCode) (float64, error) {
	it, err := r.lookup(ctx, code)
	if err != nil {
		return 0, err
	}
	return r.weights.ForCategory(it.Category), nil
}

func (r *TypeResolver) lookup(ctx context.Context, code contracts.InsightCode) (*contracts.InsightType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if it, ok := r.cache[code]; ok {
		return it, nil
	}

	it, err := r.catalog.GetInsightType(ctx, code)
	if errors.Is(err, contracts.ErrNotFound) || (err == nil && it == nil) {
		return nil, fmt.Errorf("%w: %s", contracts.ErrUnknownInsightType, code)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve insight type %s: %w", code, err)
	}

	r.cache[code] = it
	return it, nil
}
