// Package cache is a two-tier response cache: a fast shared primary tier
// (Redis) in front of a durable local tier (SQLite). Backend failures never
// surface to callers; a broken tier just means a miss.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Backend is a single cache tier.
type Backend interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores the value. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear drops every entry in this tier.
	Clear(ctx context.Context) error
	Close() error
}

// Manager reads through the primary tier first, falling back to the durable
// tier, and writes to both. Either tier may be nil.
type Manager struct {
	primary Backend
	durable Backend
	ttl     time.Duration
	log     *slog.Logger
}

// NewManager wires the tiers together. ttl is the default expiry used when
// Set is called with ttl 0.
func NewManager(primary, durable Backend, ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{primary: primary, durable: durable, ttl: ttl, log: logger}
}

// Disabled returns a manager with no tiers: every Get misses, every Set is
// dropped.
func Disabled() *Manager {
	return NewManager(nil, nil, 0, nil)
}

// Get looks the key up in the primary tier, then the durable tier. A hit in
// the durable tier refills the primary. Backend errors are logged and
// treated as misses.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, bool) {
	if m.primary != nil {
		val, ok, err := m.primary.Get(ctx, key)
		if err != nil {
			m.log.Warn("primary cache read failed", "key", key, "error", err)
		} else if ok {
			return val, true
		}
	}

	if m.durable != nil {
		val, ok, err := m.durable.Get(ctx, key)
		if err != nil {
			m.log.Warn("durable cache read failed", "key", key, "error", err)
			return nil, false
		}
		if !ok {
			return nil, false
		}
		if m.primary != nil {
			if err := m.primary.Set(ctx, key, val, m.ttl); err != nil {
				m.log.Debug("primary cache refill failed", "key", key, "error", err)
			}
		}
		return val, true
	}

	return nil, false
}

// Set writes the value to both tiers. It reports whether at least one tier
// accepted the write; failures are logged, never returned.
func (m *Manager) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = m.ttl
	}

	stored := false
	if m.primary != nil {
		if err := m.primary.Set(ctx, key, value, ttl); err != nil {
			m.log.Warn("primary cache write failed", "key", key, "error", err)
		} else {
			stored = true
		}
	}
	if m.durable != nil {
		if err := m.durable.Set(ctx, key, value, ttl); err != nil {
			m.log.Warn("durable cache write failed", "key", key, "error", err)
		} else {
			stored = true
		}
	}
	return stored
}

// Enabled reports whether any tier is configured.
func (m *Manager) Enabled() bool {
	return m.primary != nil || m.durable != nil
}

// Clear empties both tiers.
func (m *Manager) Clear(ctx context.Context) error {
	var errs []error
	if m.primary != nil {
		if err := m.primary.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if m.durable != nil {
		if err := m.durable.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases both tiers.
func (m *Manager) Close() error {
	var errs []error
	if m.primary != nil {
		errs = append(errs, m.primary.Close())
	}
	if m.durable != nil {
		errs = append(errs, m.durable.Close())
	}
	return errors.Join(errs...)
}
