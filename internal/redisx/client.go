package redisx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// idem:order:create:{key} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	TTLIdempotency = 24 * time.Hour
)

func New(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping başarısız: %w", err)
	}
	return rdb, nil
}

// OrderIdempotency Idempotency-Key başlığını sipariş ID'sine eşler.
type OrderIdempotency struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewOrderIdempotency(rdb *redis.Client) *OrderIdempotency {
	return &OrderIdempotency{RDB: rdb, TTL: TTLIdempotency}
}

func (o *OrderIdempotency) Lookup(ctx context.Context, key string) (uint, bool, error) {
	v, err := o.RDB.Get(ctx, fmt.Sprintf(KeyIdemOrderCreate, key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency anahtarı okunamadı: %w", err)
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency değeri bozuk (%q): %w", v, err)
	}
	return uint(id), true, nil
}

func (o *OrderIdempotency) Remember(ctx context.Context, key string, orderID uint) error {
	err := o.RDB.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, key), strconv.FormatUint(uint64(orderID), 10), o.TTL).Err()
	if err != nil {
		return fmt.Errorf("idempotency anahtarı yazılamadı: %w", err)
	}
	return nil
}
