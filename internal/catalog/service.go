package catalog

import (
	"context"
	"errors"
)

type repoProvider interface {
	List(ctx context.Context, limit, offset int) ([]Product, error)
	Count(ctx context.Context) (int64, error)
	BySlug(ctx context.Context, slug string) (Product, error)
	ByIDs(ctx context.Context, ids []string) (map[string]Product, error)
}

// Service orchestrates catalog reads and response caching.
type Service struct {
	repo         repoProvider
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repo         repoProvider
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Product
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("catalog: repo is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		repo:         cfg.Repo,
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// List returns a page of products, served from cache when possible.
func (s *Service) List(ctx context.Context, page, limit int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	offset := (page - 1) * limit

	var cached ListResult
	if hit, err := s.cache.GetJSON(ctx, ListKey(limit, offset), &cached); err == nil && hit {
		return cached, nil
	}

	items, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Items: items, Total: total, Page: page, Limit: limit}
	_ = s.cache.SetJSON(ctx, ListKey(limit, offset), result)
	return result, nil
}

// Detail returns a single product by slug, served from cache when possible.
func (s *Service) Detail(ctx context.Context, slug string) (Product, error) {
	var cached Product
	if hit, err := s.cache.GetJSON(ctx, DetailKey(slug), &cached); err == nil && hit {
		return cached, nil
	}
	p, err := s.repo.BySlug(ctx, slug)
	if err != nil {
		return Product{}, err
	}
	_ = s.cache.SetJSON(ctx, DetailKey(slug), p)
	return p, nil
}

// ProductsByIDs resolves product identifiers in one batched read. Results are
// always authoritative: cart validation must never see cached prices or stock.
func (s *Service) ProductsByIDs(ctx context.Context, ids []string) (map[string]Product, error) {
	return s.repo.ByIDs(ctx, ids)
}
