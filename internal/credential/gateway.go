// Package credential holds the single active API credential for the
// process and persists it across sessions.
package credential

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrEmpty is returned by Set for a value that is empty after trimming.
// Content beyond that is never validated locally; only the backend can
// judge a key.
var ErrEmpty = errors.New("credential: empty value")

// Store persists the credential value. Load returns ok=false when no value
// is stored.
type Store interface {
	Load(ctx context.Context) (value string, ok bool, err error)
	Save(ctx context.Context, value string) error
	Delete(ctx context.Context) error
}

// Gateway is the only mutation path for the credential. Set and Clear
// persist synchronously before returning, so session-entry gating can rely
// on Get immediately afterwards. Observers registered with Subscribe are
// notified after every change.
type Gateway struct {
	mu    sync.RWMutex
	store Store
	value string
	set   bool
	subs  []func(value string, present bool)
}

func NewGateway(ctx context.Context, store Store) (*Gateway, error) {
	g := &Gateway{store: store}
	if store != nil {
		v, ok, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		g.value, g.set = v, ok
	}
	return g, nil
}

// Subscribe registers an observer called after every Set or Clear. The
// callback runs outside the gateway lock.
func (g *Gateway) Subscribe(fn func(value string, present bool)) {
	g.mu.Lock()
	g.subs = append(g.subs, fn)
	g.mu.Unlock()
}

func (g *Gateway) Get() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value, g.set
}

// Set trims the value, persists it and replaces the active credential.
func (g *Gateway) Set(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return ErrEmpty
	}

	g.mu.Lock()
	if g.store != nil {
		if err := g.store.Save(ctx, value); err != nil {
			g.mu.Unlock()
			return err
		}
	}
	g.value, g.set = value, true
	subs := make([]func(string, bool), len(g.subs))
	copy(subs, g.subs)
	g.mu.Unlock()

	for _, fn := range subs {
		fn(value, true)
	}
	return nil
}

func (g *Gateway) Clear(ctx context.Context) error {
	g.mu.Lock()
	if g.store != nil {
		if err := g.store.Delete(ctx); err != nil {
			g.mu.Unlock()
			return err
		}
	}
	g.value, g.set = "", false
	subs := make([]func(string, bool), len(g.subs))
	copy(subs, g.subs)
	g.mu.Unlock()

	for _, fn := range subs {
		fn("", false)
	}
	return nil
}
