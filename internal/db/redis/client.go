// Package redis implements db.Store on Redis Stack or Valkey with the search module loaded.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/seeker/internal/db"
)

var _ db.Store = (*Store)(nil)

const readinessPoll = 100 * time.Millisecond

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store queries chunk indexes through rueidis.
type Store struct {
	client rueidis.Client
}

// NewStore dials the first reachable address. FT.SEARCH replies are parsed as RESP2 arrays.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis: at least one address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect: %w", err)
	}
	return &Store{client: client}, nil
}

// NewStoreForTest wraps an existing client, usually a rueidis mock.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}

// HealthCheck sends PING. It backs the "retriever" entry of /health.
func (s *Store) HealthCheck(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// WaitForReady pings until the store answers or timeout elapses.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readinessPoll)
	defer ticker.Stop()

	var last error
	for {
		select {
		case <-ctx.Done():
			if last == nil {
				last = ctx.Err()
			}
			return fmt.Errorf("%w after %s: %w", db.ErrNotReady, timeout, last)
		case <-ticker.C:
			if last = s.HealthCheck(ctx); last == nil {
				return nil
			}
		}
	}
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.client.Close()
}

// isRedisErr reports whether err is a server reply whose message contains substr, ignoring case.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
