package settings

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/quotedesk/quotedesk/internal/platform/cache"
)

const cacheKey = "company"

// Service serves the settings singleton through a Redis cache. Readers may
// observe a value up to one TTL old; the quotation counter is never cached.
type Service struct {
	repo   Repository
	cache  *cache.JSONCache
	group  singleflight.Group
	logger *slog.Logger
}

// NewService constructs a Service. A nil cache reads straight from the repository.
func NewService(repo Repository, c *cache.JSONCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, logger: logger}
}

// Current returns the (possibly cached) settings used for rendering and mail.
func (s *Service) Current(ctx context.Context) (CompanySettings, error) {
	key, err := s.cache.BuildKey(ctx, cacheKey)
	if err != nil {
		s.logger.Warn("settings cache unavailable", slog.Any("error", err))
		return s.repo.Get(ctx)
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var (
			out     CompanySettings
			loadErr error
		)
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			value, err := s.repo.Get(ctx)
			loadErr = err
			return value, err
		})
		if err != nil && loadErr == nil {
			s.logger.Warn("settings cache read failed", slog.Any("error", err))
			return s.repo.Get(ctx)
		}
		return out, err
	})
	if err != nil {
		return CompanySettings{}, err
	}
	return v.(CompanySettings), nil
}

// Fresh bypasses the cache. The admin view uses it to show the live counter.
func (s *Service) Fresh(ctx context.Context) (CompanySettings, error) {
	return s.repo.Get(ctx)
}

// Update validates and persists in, then invalidates cached copies.
func (s *Service) Update(ctx context.Context, in UpdateInput) (CompanySettings, error) {
	if err := in.Validate(); err != nil {
		return CompanySettings{}, err
	}
	updated, err := s.repo.Update(ctx, in)
	if err != nil {
		return CompanySettings{}, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("settings cache invalidation failed", slog.Any("error", err))
	}
	return updated, nil
}
