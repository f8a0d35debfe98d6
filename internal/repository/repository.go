// Package repository composes the structured and the flat storage backends
// behind one failover policy.
//
// Writes go to the primary backend. When a primary write fails the value is
// written to the fallback instead and the key is remembered as shadowed, so
// later reads of that key prefer the fallback until the primary catches up.
// Reads try the primary first, consult the fallback on a miss or an error and
// copy a recovered value back into the primary. A value neither backend can
// produce is reported as absent; read failures never reach the caller.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/vrsandeep/anisync/internal/models"
)

// Backend is a storage backend. Missing entries return models.ErrNotFound.
type Backend interface {
	Name() string
	GetSeason(ctx context.Context, key string) (*models.SeasonCatalog, error)
	SaveSeason(ctx context.Context, key string, catalog *models.SeasonCatalog) error
	GetSelected(ctx context.Context) ([]int, error)
	SaveSelected(ctx context.Context, ids []int) error
	GetRules(ctx context.Context) ([]models.AutoRule, error)
	SaveRules(ctx context.Context, rules []models.AutoRule) error
	GetSetting(ctx context.Context, key string, v interface{}) error
	SaveSetting(ctx context.Context, key string, v interface{}) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Stats counts failover events since start.
type Stats struct {
	Primary         string `json:"primary"`
	Fallback        string `json:"fallback"`
	PrimaryFailures int64  `json:"primary_failures"`
	FallbackWrites  int64  `json:"fallback_writes"`
	FallbackReads   int64  `json:"fallback_reads"`
	Migrations      int64  `json:"migrations"`
}

// Repository is safe for concurrent use.
type Repository struct {
	primary  Backend
	fallback Backend

	mu       sync.Mutex
	shadowed map[string]bool
	// rulesMu serializes read-modify-write of the rule list.
	rulesMu sync.Mutex

	primaryFailures atomic.Int64
	fallbackWrites  atomic.Int64
	fallbackReads   atomic.Int64
	migrations      atomic.Int64
}

// New creates a repository. fallback may be nil, in which case primary
// failures are only logged.
func New(primary, fallback Backend) *Repository {
	return &Repository{
		primary:  primary,
		fallback: fallback,
		shadowed: make(map[string]bool),
	}
}

// Stats returns a snapshot of the failover counters.
func (r *Repository) Stats() Stats {
	s := Stats{
		Primary:         r.primary.Name(),
		PrimaryFailures: r.primaryFailures.Load(),
		FallbackWrites:  r.fallbackWrites.Load(),
		FallbackReads:   r.fallbackReads.Load(),
		Migrations:      r.migrations.Load(),
	}
	if r.fallback != nil {
		s.Fallback = r.fallback.Name()
	}
	return s
}

// Ping checks the primary backend when it supports it.
func (r *Repository) Ping(ctx context.Context) error {
	if p, ok := r.primary.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (r *Repository) isShadowed(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shadowed[key]
}

func (r *Repository) setShadowed(key string, v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v {
		r.shadowed[key] = true
	} else {
		delete(r.shadowed, key)
	}
}

// write stores a value in the primary, falling through to the fallback.
func (r *Repository) write(ctx context.Context, key string, save func(Backend) error) error {
	err := save(r.primary)
	if err == nil {
		r.setShadowed(key, false)
		return nil
	}
	r.primaryFailures.Add(1)
	log.Printf("Repository Error: primary write of %s failed: %v", key, err)
	if r.fallback == nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if ferr := save(r.fallback); ferr != nil {
		log.Printf("Repository Error: fallback write of %s failed: %v", key, ferr)
		return fmt.Errorf("write %s: primary: %v, fallback: %w", key, err, ferr)
	}
	r.fallbackWrites.Add(1)
	r.setShadowed(key, true)
	log.Printf("Repository: %s written to %s fallback", key, r.fallback.Name())
	return nil
}

// readThrough implements the read policy for one key.
func readThrough[T any](ctx context.Context, r *Repository, key string, get func(Backend) (T, error), save func(Backend, T) error) (T, bool) {
	var zero T

	if !r.isShadowed(key) {
		v, err := get(r.primary)
		if err == nil {
			return v, true
		}
		if !errors.Is(err, models.ErrNotFound) {
			r.primaryFailures.Add(1)
			log.Printf("Repository Error: primary read of %s failed: %v", key, err)
		}
	}
	if r.fallback == nil {
		return zero, false
	}

	v, err := get(r.fallback)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Printf("Repository Error: fallback read of %s failed: %v", key, err)
		}
		return zero, false
	}
	r.fallbackReads.Add(1)

	if merr := save(r.primary, v); merr != nil {
		log.Printf("Repository Error: could not migrate %s into primary: %v", key, merr)
	} else {
		r.migrations.Add(1)
		r.setShadowed(key, false)
	}
	return v, true
}
