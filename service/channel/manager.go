package channel

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"shiny/service/event"
	"shiny/service/registry"
)

// RebuildEvent describes one completed rebuild attempt.
type RebuildEvent struct {
	Categories int
	Err        error
	At         time.Time
}

// Manager keeps a Registry consistent with the channels in a Store.
//
// Every mutation is followed by a full rebuild: read all channels, add the
// Default channel, translate, and replace the registry's set in one call.
// Mutations are not serialized. Concurrent callers race on the store and
// the registry, and the rebuild that completes last decides what the
// registry holds.
type Manager struct {
	store    Store
	registry registry.Registry
	logger   *slog.Logger

	startOnce sync.Once
	rebuilds  event.Feed[RebuildEvent]

	mu   sync.RWMutex
	last *RebuildEvent
}

func NewManager(store Store, reg registry.Registry, logger *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		registry: reg,
		logger:   logger.With("component", "channels"),
	}
}

// Start rebuilds the registry in the background. Only the first call has
// any effect. Failures are logged and never returned.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		m.logger.Info("Starting channel manager")
		go func() {
			if err := m.Rebuild(ctx); err != nil {
				m.logger.Error("Error rebuilding category catalog", "error", err)
				return
			}
			m.logger.Info("Channel manager started")
		}()
	})
}

func (m *Manager) Add(ctx context.Context, c Channel) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c = c.Clone()

	// a channel the registry cannot render is never stored
	if _, err := BuildCategories([]Channel{c}); err != nil {
		return err
	}

	if err := m.store.Set(ctx, c.Identifier, c); err != nil {
		return &PersistenceError{Op: "set", Key: c.Identifier, Err: err}
	}
	m.logger.Debug("Saved channel", "channel", c.Identifier, "actions", len(c.Actions))

	return m.Rebuild(ctx)
}

func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := m.store.Remove(ctx, id); err != nil {
		return &PersistenceError{Op: "remove", Key: id, Err: err}
	}
	m.logger.Debug("Removed channel", "channel", id)

	return m.Rebuild(ctx)
}

func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return &PersistenceError{Op: "clear", Err: err}
	}
	m.logger.Debug("Cleared channels")

	return m.Rebuild(ctx)
}

// Get returns ErrNotFound when no channel has the identifier.
func (m *Manager) Get(ctx context.Context, id string) (*Channel, error) {
	c, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "get", Key: id, Err: err}
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// GetAll returns persisted channels only; Default is not among them.
func (m *Manager) GetAll(ctx context.Context) ([]Channel, error) {
	channels, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "get all", Err: err}
	}
	return channels, nil
}

// Resolve returns the channel a notification should use: the persisted one,
// Default for the Default identifier, or Default when id is unknown.
func (m *Manager) Resolve(ctx context.Context, id string) (Channel, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == DefaultIdentifier {
		return Default(), nil
	}

	c, err := m.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		m.logger.Debug("Unknown channel, falling back to default", "channel", id)
		return Default(), nil
	}
	if err != nil {
		return Channel{}, err
	}
	return *c, nil
}

// Categories computes the set a rebuild would apply right now. The registry
// itself is never read.
func (m *Manager) Categories(ctx context.Context) ([]registry.Category, error) {
	channels, err := m.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return BuildCategories(append(channels, Default()))
}

// Rebuild replaces the registry's category set with the one derived from
// the store. A translation failure leaves the registry untouched.
func (m *Manager) Rebuild(ctx context.Context) error {
	categories, err := m.Categories(ctx)
	if err != nil {
		if IsPersistence(err) {
			return m.finish(0, err)
		}
		return m.finish(0, &RebuildError{Err: err})
	}

	if err := m.registry.SetCategories(ctx, categories); err != nil {
		return m.finish(0, &RebuildError{Err: err})
	}

	m.logger.Debug("Rebuilt native categories", "categories", len(categories))
	return m.finish(len(categories), nil)
}

func (m *Manager) finish(categories int, err error) error {
	ev := RebuildEvent{Categories: categories, Err: err, At: time.Now()}

	m.mu.Lock()
	m.last = &ev
	m.mu.Unlock()

	m.rebuilds.Publish(ev)
	return err
}

// LastRebuild returns the most recent rebuild outcome, or nil before the first.
func (m *Manager) LastRebuild() *RebuildEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return nil
	}
	ev := *m.last
	return &ev
}

// Subscribe delivers every later rebuild outcome until the subscription is cancelled.
func (m *Manager) Subscribe(buffer int) (<-chan RebuildEvent, event.Subscription) {
	return m.rebuilds.Subscribe(buffer)
}
