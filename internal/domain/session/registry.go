package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSessionKey is used when a client does not identify its session.
const DefaultSessionKey = "default"

// Registry hands out one Controller per client session over shared collaborators.
// Every controller it creates shares one store lock, so concurrent sessions
// never save over each other.
type Registry struct {
	cfg         Config
	idle        time.Duration
	now         func() time.Time
	mu          sync.Mutex
	controllers map[string]*registryEntry
}

type registryEntry struct {
	controller *Controller
	lastUsed   time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIdleTimeout drops controllers not used for d. Zero keeps them until Close.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idle = d }
}

// WithRegistryClock overrides the clock used for idle tracking.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates a registry whose controllers share cfg.
func NewRegistry(cfg Config, opts ...RegistryOption) *Registry {
	if cfg.StoreLock == nil {
		cfg.StoreLock = &sync.Mutex{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	r := &Registry{cfg: cfg, now: time.Now, controllers: make(map[string]*registryEntry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the controller for key, creating it on first use.
// Idle controllers are evicted first.
func (r *Registry) Get(ctx context.Context, key string) (*Controller, error) {
	if key == "" {
		key = DefaultSessionKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictIdleLocked(now)

	if e, ok := r.controllers[key]; ok {
		e.lastUsed = now
		return e.controller, nil
	}
	c, err := NewController(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	r.controllers[key] = &registryEntry{controller: c, lastUsed: now}
	r.cfg.Logger.Debug("session controller created", "session_id", key)
	return c, nil
}

// Close drops the controller for key. Its unsaved round edit is discarded.
func (r *Registry) Close(key string) {
	if key == "" {
		key = DefaultSessionKey
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.controllers[key]; ok {
		delete(r.controllers, key)
		r.cfg.Logger.Debug("session controller closed", "session_id", key)
	}
}

func (r *Registry) evictIdleLocked(now time.Time) {
	if r.idle <= 0 {
		return
	}
	for key, e := range r.controllers {
		if now.Sub(e.lastUsed) > r.idle {
			delete(r.controllers, key)
			r.cfg.Logger.Debug("session controller evicted", "session_id", key, "idle", now.Sub(e.lastUsed))
		}
	}
}
