// Package store persists the daily risk snapshot between process restarts.
//
// A snapshot is the key-value encoding from risk.State.Encode, stored under a
// trading-day key such as "2025-03-03". The loss limit is configuration and is
// supplied on load.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/ivtrader/risk"
)

var ErrNotFound = errors.New("risk snapshot not found")

// DayLayout formats trading-day keys.
const DayLayout = "2006-01-02"

// Day returns the key for the trading day containing t.
func Day(t time.Time) string { return t.Format(DayLayout) }

type Store interface {
	// Load returns ErrNotFound when nothing was saved for day.
	Load(ctx context.Context, day string) (map[string]string, error)
	Save(ctx context.Context, day string, kv map[string]string) error
	Delete(ctx context.Context, day string) error
	Close() error
}

// LoadState reads the snapshot for day. A missing snapshot is a fresh day.
func LoadState(ctx context.Context, s Store, day string, limit float64) (risk.State, error) {
	kv, err := s.Load(ctx, day)
	if errors.Is(err, ErrNotFound) {
		return risk.State{DailyLossLimit: limit}, nil
	}
	if err != nil {
		return risk.State{}, fmt.Errorf("load %s: %w", day, err)
	}
	return risk.Decode(kv, limit)
}

func SaveState(ctx context.Context, s Store, day string, st risk.State) error {
	if err := s.Save(ctx, day, st.Encode()); err != nil {
		return fmt.Errorf("save %s: %w", day, err)
	}
	return nil
}

// Memory keeps snapshots in process; it is the default when nothing durable
// is configured.
type Memory struct {
	mu   sync.Mutex
	days map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{days: make(map[string]map[string]string)}
}

func (m *Memory) Load(_ context.Context, day string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv, ok := m.days[day]
	if !ok {
		return nil, ErrNotFound
	}
	return copyKV(kv), nil
}

func (m *Memory) Save(_ context.Context, day string, kv map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.days[day] = copyKV(kv)
	return nil
}

func (m *Memory) Delete(_ context.Context, day string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.days, day)
	return nil
}

func (m *Memory) Close() error { return nil }

func copyKV(kv map[string]string) map[string]string {
	out := make(map[string]string, len(kv))
	for k, v := range kv {
		out[k] = v
	}
	return out
}
