package networkdefinition

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FeeModelCache remembers per chain id whether the chain prices transactions
// with EIP-1559. A probe runs at most once per chain at a time; a failed probe
// is not cached.
type FeeModelCache struct {
	mu     sync.RWMutex
	known  map[uint64]bool
	flight singleflight.Group
}

func NewFeeModelCache() *FeeModelCache {
	return &FeeModelCache{known: make(map[uint64]bool)}
}

// Lookup returns the cached flag and whether it is known.
func (c *FeeModelCache) Lookup(chainID uint64) (isEIP1559, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	isEIP1559, ok = c.known[chainID]
	return isEIP1559, ok
}

// Resolve returns the cached flag or runs probe to compute and publish it.
func (c *FeeModelCache) Resolve(
	ctx context.Context,
	chainID uint64,
	probe func(ctx context.Context) (bool, error),
) (bool, error) {
	if v, ok := c.Lookup(chainID); ok {
		return v, nil
	}
	res, err, _ := c.flight.Do(strconv.FormatUint(chainID, 10), func() (interface{}, error) {
		if v, ok := c.Lookup(chainID); ok {
			return v, nil
		}
		v, err := probe(ctx)
		if err != nil {
			return false, err
		}
		c.mu.Lock()
		c.known[chainID] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

var defaultFeeModels = NewFeeModelCache() //nolint:gochecknoglobals

// DefaultFeeModels is the process-wide cache shared by all on-chain clients.
func DefaultFeeModels() *FeeModelCache { return defaultFeeModels }
