package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/summary"
)

const cacheTTL = 1 * time.Second

// GetOrder serves the query side from the read model only, with a short
// redis read-through cache in front. It never touches the event store;
// callers needing read-your-writes use the command's committed version.
type GetOrder struct {
	redisClient *redis.Client
	summaries   summary.Store
}

func NewGetOrder(redisClient *redis.Client, summaries summary.Store) *GetOrder {
	return &GetOrder{redisClient: redisClient, summaries: summaries}
}

func (uc *GetOrder) Execute(ctx context.Context, orderID string) (*summary.OrderSummary, error) {
	cacheKey := fmt.Sprintf("order-summary:%s", orderID)

	if uc.redisClient != nil {
		val, err := uc.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var s summary.OrderSummary
			if err := json.Unmarshal([]byte(val), &s); err == nil {
				return &s, nil
			}
		}
	}

	s, err := uc.summaries.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(s); err == nil {
			// Short TTL: the projection keeps moving and stale reads
			// should age out quickly.
			uc.redisClient.Set(ctx, cacheKey, data, cacheTTL)
		}
	}

	return s, nil
}
