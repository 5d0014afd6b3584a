// cache — кэш карточек товаров в Redis для публичного чтения каталога.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/go-social-shop/internal/models"
)

// ProductCache — минимальный контракт кэша товаров.
type ProductCache interface {
	// Get возвращает товар и признак его наличия в кэше.
	Get(ctx context.Context, id string) (*models.Product, bool, error)
	// Set сохраняет товар с TTL.
	Set(ctx context.Context, p *models.Product, ttl time.Duration) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "shop:product:".
func NewRedisCache(ctx context.Context, redisURL, prefix string) (ProductCache, error) {
	if prefix == "" {
		prefix = "shop:product:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(id string) string { return c.prefix + id }

// Храним как Redis Hash с полями: name, price, stock, created (unix ms).
func (c *redisCache) Get(ctx context.Context, id string) (*models.Product, bool, error) {
	m, err := c.rdb.HGetAll(ctx, c.key(id)).Result()
	if err != nil {
		return nil, false, err
	}

	if len(m) == 0 {
		return nil, false, nil
	}

	price, err := strconv.ParseFloat(m["price"], 64)
	if err != nil {
		return nil, false, err
	}

	stock, err := strconv.Atoi(m["stock"])
	if err != nil {
		return nil, false, err
	}

	created, err := strconv.ParseInt(m["created"], 10, 64)
	if err != nil {
		return nil, false, err
	}

	return &models.Product{
		ID:        id,
		Name:      m["name"],
		Price:     price,
		Stock:     stock,
		CreatedAt: time.UnixMilli(created).UTC(),
	}, true, nil
}

func (c *redisCache) Set(ctx context.Context, p *models.Product, ttl time.Duration) error {
	kv := map[string]string{
		"name":    p.Name,
		"price":   strconv.FormatFloat(p.Price, 'f', -1, 64),
		"stock":   strconv.Itoa(p.Stock),
		"created": strconv.FormatInt(p.CreatedAt.UnixMilli(), 10),
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, c.key(p.ID), kv)
	pipe.Expire(ctx, c.key(p.ID), ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) Close() error { return c.rdb.Close() }
