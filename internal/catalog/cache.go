package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/neiist-dev/shop-backend/pkg/db/models"
	"github.com/neiist-dev/shop-backend/pkg/logger"
	"github.com/neiist-dev/shop-backend/pkg/redis"
)

// ProductCache is a read-through cache in front of the catalog repository.
// All methods are safe on a nil receiver so the service can run without
// redis configured.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewProductCache wraps the redis client with the configured TTL.
func NewProductCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *ProductCache {
	if client == nil {
		return nil
	}
	return &ProductCache{client: client, ttl: ttl, log: log}
}

// Get returns the cached product, or false on a miss. Corrupt payloads are
// dropped and reported as misses.
func (c *ProductCache) Get(ctx context.Context, productID string) (*models.Product, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, c.client.ProductKey(productID))
	if err != nil {
		if !redis.IsMiss(err) {
			c.warn(ctx, "catalog cache read failed")
		}
		return nil, false
	}
	var product models.Product
	if err := json.Unmarshal([]byte(payload), &product); err != nil {
		_ = c.client.Del(ctx, c.client.ProductKey(productID))
		return nil, false
	}
	return &product, true
}

// Set stores the product best-effort; failures only log.
func (c *ProductCache) Set(ctx context.Context, product *models.Product) {
	if c == nil || c.client == nil || product == nil {
		return
	}
	payload, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.client.ProductKey(product.ID), string(payload), c.ttl); err != nil {
		c.warn(ctx, "catalog cache write failed")
	}
}

// Invalidate drops the cached entries for the given products. Called after
// an order decrements stock so availability is not served stale.
func (c *ProductCache) Invalidate(ctx context.Context, productIDs ...string) {
	if c == nil || c.client == nil || len(productIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, c.client.ProductKey(id))
	}
	if err := c.client.Del(ctx, keys...); err != nil {
		c.warn(ctx, "catalog cache invalidation failed")
	}
}

func (c *ProductCache) warn(ctx context.Context, msg string) {
	if c.log == nil {
		return
	}
	c.log.Warn(ctx, msg)
}
