// Package lookup serves the dropdown options that link records to each other
// (teachers, group leaders, SC students, CBU/CBO groups).
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/welfaredesk/welfaredesk/internal/backend"
)

// loadTimeout bounds one shared backend load.
const loadTimeout = 15 * time.Second

// ErrUnknownEntity is returned for entities outside the configured set.
var ErrUnknownEntity = errors.New("lookup: unknown entity")

// Source reads options from the backend.
type Source interface {
	Dropdown(ctx context.Context, entity string) ([]backend.Option, error)
}

// Config tunes the cache tiers.
type Config struct {
	Entities []string
	TTL      time.Duration
	Size     int
}

// Service answers option lookups from an in-process LRU, then Redis, then the
// backend. Concurrent misses for one entity share a single backend call.
type Service struct {
	source   Source
	cache    *Cache
	local    *expirable.LRU[string, []backend.Option]
	group    singleflight.Group
	entities map[string]struct{}
	metrics  *cacheMetrics
	logger   *slog.Logger
}

// NewService builds the service. cache may be nil to skip the Redis tier.
func NewService(source Source, cache *Cache, cfg Config, registerer prometheus.Registerer, logger *slog.Logger) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Size <= 0 {
		cfg.Size = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	entities := make(map[string]struct{}, len(cfg.Entities))
	for _, e := range cfg.Entities {
		entities[e] = struct{}{}
	}
	return &Service{
		source:   source,
		cache:    cache,
		local:    expirable.NewLRU[string, []backend.Option](cfg.Size, nil, cfg.TTL),
		entities: entities,
		metrics:  newCacheMetrics(registerer),
		logger:   logger,
	}
}

// Entities lists the configured entities.
func (s *Service) Entities() []string {
	out := make([]string, 0, len(s.entities))
	for e := range s.entities {
		out = append(out, e)
	}
	return out
}

// Known reports whether entity may be looked up.
func (s *Service) Known(entity string) bool {
	_, ok := s.entities[entity]
	return ok
}

// Options returns the options of entity.
func (s *Service) Options(ctx context.Context, entity string) ([]backend.Option, error) {
	if !s.Known(entity) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	if opts, ok := s.local.Get(entity); ok {
		s.metrics.observe(entity, "local")
		return opts, nil
	}

	// The shared load outlives any single caller; it keeps the caller's
	// values (backend token) but not its cancellation.
	ch := s.group.DoChan(entity, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.load(loadCtx, entity)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]backend.Option), nil
	}
}

func (s *Service) load(ctx context.Context, entity string) ([]backend.Option, error) {
	key, err := s.cache.BuildKey(ctx, entity)
	if err != nil {
		s.logger.Warn("lookup cache version", slog.String("entity", entity), slog.Any("error", err))
	} else if opts, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("lookup cache read", slog.String("entity", entity), slog.Any("error", err))
	} else if ok {
		s.metrics.observe(entity, "redis")
		s.local.Add(entity, opts)
		return opts, nil
	}

	opts, err := s.source.Dropdown(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", entity, err)
	}
	s.metrics.observe(entity, "backend")
	s.local.Add(entity, opts)
	if key != "" {
		if err := s.cache.Set(ctx, key, opts); err != nil {
			s.logger.Warn("lookup cache write", slog.String("entity", entity), slog.Any("error", err))
		}
	}
	return opts, nil
}

// OptionsFor loads several entities. Failures are logged and yield an empty
// list so a form can still render.
func (s *Service) OptionsFor(ctx context.Context, entities []string) map[string][]backend.Option {
	out := make(map[string][]backend.Option, len(entities))
	for _, entity := range entities {
		opts, err := s.Options(ctx, entity)
		if err != nil {
			s.logger.Error("load lookup options", slog.String("entity", entity), slog.Any("error", err))
			opts = []backend.Option{}
		}
		out[entity] = opts
	}
	return out
}

// Invalidate drops entity everywhere. Unknown entities are ignored.
func (s *Service) Invalidate(ctx context.Context, entity string) error {
	if !s.Known(entity) {
		return nil
	}
	s.local.Remove(entity)
	return s.cache.Bump(ctx, entity)
}

// Warm refreshes every configured entity from the backend.
func (s *Service) Warm(ctx context.Context) error {
	var errs []error
	for entity := range s.entities {
		if err := s.cache.Bump(ctx, entity); err != nil {
			errs = append(errs, fmt.Errorf("bump %s: %w", entity, err))
			continue
		}
		s.local.Remove(entity)
		if _, err := s.Options(ctx, entity); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Listen evicts local entries when another instance invalidates an entity.
func (s *Service) Listen(ctx context.Context) {
	s.cache.ListenForInvalidation(ctx, s.logger, func(entity string) {
		s.local.Remove(entity)
	})
}
