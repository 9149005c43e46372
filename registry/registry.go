// Package registry resolves application keys to registered applications.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/smis/sso"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/models"
)

// Option configures a Registry.
type Option func(*Registry)

// WithCache keeps up to size applications for ttl. A size of zero disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(r *Registry) {
		if size <= 0 {
			r.cache = nil
			return
		}
		r.cache = expirable.NewLRU[string, models.Application](size, nil, ttl)
	}
}

// Registry is the read path for applications. Find may answer from the cache;
// Require always asks the store, so an application deleted elsewhere stops
// issuing sessions at once. Misses are never cached.
type Registry struct {
	store sso.ApplicationStore
	cache *expirable.LRU[string, models.Application]
}

func New(store sso.ApplicationStore, opts ...Option) *Registry {
	r := &Registry{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func validKey(key string) bool {
	return key != "" && len(key) <= sso.MaxApplicationKeyLength
}

// Find returns the application registered under key, or nil.
func (r *Registry) Find(ctx context.Context, key string) (*models.Application, error) {
	if !validKey(key) {
		return nil, nil
	}
	if r.cache != nil {
		if app, ok := r.cache.Get(key); ok {
			return copyApplication(app), nil
		}
	}
	return r.load(ctx, key)
}

// Require fails with ErrUnknownApplication when key is not registered.
// It bypasses the cache and refreshes it with what the store returned.
func (r *Registry) Require(ctx context.Context, key string) (*models.Application, error) {
	var app *models.Application
	if validKey(key) {
		var err error
		if app, err = r.load(ctx, key); err != nil {
			return nil, err
		}
	}
	if app == nil {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownApplication, key)
	}
	return app, nil
}

func (r *Registry) load(ctx context.Context, key string) (*models.Application, error) {
	app, err := r.store.FindByKey(ctx, key)
	if err != nil {
		return nil, errors.Infrastructure("find application", err)
	}
	if app == nil {
		r.Invalidate(key)
		return nil, nil
	}
	if r.cache != nil {
		r.cache.Add(key, *copyApplication(*app))
	}
	return app, nil
}

// Invalidate drops key from the cache after an administrative change.
func (r *Registry) Invalidate(key string) {
	if r.cache != nil {
		r.cache.Remove(key)
	}
}

func copyApplication(app models.Application) *models.Application {
	app.DefaultRoles = app.DefaultRoles.Clone()
	app.DefaultPermissions = app.DefaultPermissions.Clone()
	return &app
}
