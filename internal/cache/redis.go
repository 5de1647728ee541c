package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/config"
)

// RedisStore persists client state in Redis so it survives restarts.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func snapshotKey(userID uuid.UUID) string  { return "shop:snapshot:" + userID.String() }
func purchasedKey(userID uuid.UUID) string { return "shop:purchased:" + userID.String() }
func redeemedKey(userID uuid.UUID) string  { return "shop:redeemed:" + userID.String() }
func unameKey(userID uuid.UUID) string     { return "shop:uname_changed:" + userID.String() }

func (r *RedisStore) GetSnapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	data, err := r.client.Get(ctx, snapshotKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (r *RedisStore) PutSnapshot(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return r.client.Set(ctx, snapshotKey(snap.UserID), data, 0).Err()
}

func (r *RedisStore) DeleteSnapshot(ctx context.Context, userID uuid.UUID) error {
	return r.client.Del(ctx, snapshotKey(userID)).Err()
}

func (r *RedisStore) MarkPurchased(ctx context.Context, userID uuid.UUID, productID string) error {
	return r.client.SAdd(ctx, purchasedKey(userID), productID).Err()
}

func (r *RedisStore) IsPurchased(ctx context.Context, userID uuid.UUID, productID string) (bool, error) {
	return r.client.SIsMember(ctx, purchasedKey(userID), productID).Result()
}

func (r *RedisStore) PurchasedIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return r.client.SMembers(ctx, purchasedKey(userID)).Result()
}

func (r *RedisStore) MarkRedeemed(ctx context.Context, userID uuid.UUID, code string) error {
	return r.client.SAdd(ctx, redeemedKey(userID), code).Err()
}

func (r *RedisStore) RedeemedCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return r.client.SMembers(ctx, redeemedKey(userID)).Result()
}

func (r *RedisStore) SetLastUsernameChange(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.client.Set(ctx, unameKey(userID), at.UTC().Format(time.RFC3339), 0).Err()
}

func (r *RedisStore) LastUsernameChange(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	val, err := r.client.Get(ctx, unameKey(userID)).Result()
	if err == redis.Nil {
		return time.Time{}, ErrMiss
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get username change: %w", err)
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse username change: %w", err)
	}
	return t, nil
}
