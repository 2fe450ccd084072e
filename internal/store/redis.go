package store

import (
	"context"
	"fmt"
	"time"

	"tenantpay/internal/models"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(host string, port int, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// RedisStore persists payment state as JSON blobs under fixed keys.
// The poller is the only writer for a given order (state-machine guard),
// so plain read-modify-write is sufficient here.
type RedisStore struct {
	client *redis.Client
	limit  int
}

func NewRedisStore(client *redis.Client, limit int) *RedisStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &RedisStore{client: client, limit: limit}
}

func (s *RedisStore) SavePending(ctx context.Context, p *models.PendingPayment) error {
	data, err := sonic.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode pending payment: %w", err)
	}
	if err := s.client.Set(ctx, PendingKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store pending payment: %w", err)
	}
	return nil
}

func (s *RedisStore) GetPending(ctx context.Context) (*models.PendingPayment, error) {
	data, err := s.client.Get(ctx, PendingKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending payment: %w", err)
	}

	var p models.PendingPayment
	if err := sonic.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode pending payment: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) ClearPending(ctx context.Context, merchantOrderID string) error {
	p, err := s.GetPending(ctx)
	if err != nil || p == nil {
		return err
	}
	if p.MerchantOrderID != merchantOrderID {
		return nil
	}
	return s.client.Del(ctx, PendingKey).Err()
}

func (s *RedisStore) AppendHistory(ctx context.Context, entry models.PaymentHistoryEntry) (bool, error) {
	history, err := s.History(ctx)
	if err != nil {
		return false, err
	}

	for _, e := range history {
		if e.MerchantOrderID == entry.MerchantOrderID {
			return false, nil
		}
	}

	history = append([]models.PaymentHistoryEntry{entry}, history...)
	if len(history) > s.limit {
		history = history[:s.limit]
	}

	data, err := sonic.Marshal(history)
	if err != nil {
		return false, fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.client.Set(ctx, HistoryKey, data, 0).Err(); err != nil {
		return false, fmt.Errorf("failed to store history: %w", err)
	}
	return true, nil
}

func (s *RedisStore) History(ctx context.Context) ([]models.PaymentHistoryEntry, error) {
	data, err := s.client.Get(ctx, HistoryKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var history []models.PaymentHistoryEntry
	if err := sonic.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return history, nil
}
