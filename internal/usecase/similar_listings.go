package usecase

import (
	"context"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/logger"
	"foodshare/pkg/metrics"
)

// CandidateProvider is one tier of the similar-listings chain. It returns at most quota
// available listings whose ids are not in exclude.
type CandidateProvider interface {
	Name() string
	Candidates(ctx context.Context, source *entity.Listing, exclude map[string]struct{}, quota int) ([]*entity.Listing, error)
}

// queryProvider runs one listing query narrowed by narrow. When narrow reports false the
// source has nothing to match on and the tier yields nothing.
type queryProvider struct {
	name        string
	listingRepo repository.ListingRepository
	narrow      func(source *entity.Listing, q *repository.ListingQuery) bool
}

func (p *queryProvider) Name() string {
	return p.name
}

func (p *queryProvider) Candidates(ctx context.Context, source *entity.Listing, exclude map[string]struct{}, quota int) ([]*entity.Listing, error) {
	// Over-fetch by the exclusion count so filtering locally still leaves quota results
	// whenever that many exist.
	q := repository.ListingQuery{Limit: quota + len(exclude)}
	if p.narrow != nil && !p.narrow(source, &q) {
		return nil, nil
	}

	metrics.ListingQueries.WithLabelValues("similar_" + p.name).Inc()
	found, err := p.listingRepo.QueryAvailable(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]*entity.Listing, 0, quota)
	for _, listing := range found {
		if _, skip := exclude[listing.ID]; skip {
			continue
		}
		out = append(out, listing)
		if len(out) == quota {
			break
		}
	}
	return out, nil
}

// DefaultSimilarProviders is the category, then city, then anything chain.
func DefaultSimilarProviders(listingRepo repository.ListingRepository) []CandidateProvider {
	return []CandidateProvider{
		&queryProvider{
			name:        "category",
			listingRepo: listingRepo,
			narrow: func(source *entity.Listing, q *repository.ListingQuery) bool {
				q.Category = source.Category
				return source.Category != ""
			},
		},
		&queryProvider{
			name:        "city",
			listingRepo: listingRepo,
			narrow: func(source *entity.Listing, q *repository.ListingQuery) bool {
				q.City = source.Location.City
				return source.Location.City != ""
			},
		},
		&queryProvider{
			name:        "any",
			listingRepo: listingRepo,
		},
	}
}

type SimilarListingsFinder struct {
	listingRepo repository.ListingRepository
	providers   []CandidateProvider
	target      int
}

func NewSimilarListingsFinder(listingRepo repository.ListingRepository, providers []CandidateProvider, target int) *SimilarListingsFinder {
	if target <= 0 {
		target = 4
	}
	return &SimilarListingsFinder{
		listingRepo: listingRepo,
		providers:   providers,
		target:      target,
	}
}

// Similar loads the listing and returns up to target related listings, never including
// the listing itself.
func (f *SimilarListingsFinder) Similar(ctx context.Context, listingID string) ([]*entity.Listing, error) {
	source, err := f.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return f.ForListing(ctx, source)
}

// ForListing walks the providers in order until target is met. If a provider fails, the
// listings gathered so far are returned together with the error.
func (f *SimilarListingsFinder) ForListing(ctx context.Context, source *entity.Listing) ([]*entity.Listing, error) {
	exclude := map[string]struct{}{source.ID: {}}
	result := make([]*entity.Listing, 0, f.target)

	for _, provider := range f.providers {
		remaining := f.target - len(result)
		if remaining <= 0 {
			break
		}

		found, err := provider.Candidates(ctx, source, exclude, remaining)
		if err != nil {
			logger.Warn("Similar listings for %s: %s tier failed: %v", source.ID, provider.Name(), err)
			return result, err
		}

		for _, listing := range found {
			if _, dup := exclude[listing.ID]; dup {
				continue
			}
			exclude[listing.ID] = struct{}{}
			result = append(result, listing)
			if len(result) == f.target {
				break
			}
		}
	}

	return result, nil
}
