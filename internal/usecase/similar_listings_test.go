package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

func listingIn(id, category, city string, minutes int) *entity.Listing {
	return &entity.Listing{
		ID:          id,
		Category:    category,
		Location:    entity.Location{City: city},
		IsAvailable: true,
		CreatedAt:   baseTime.Add(time.Duration(minutes) * time.Minute),
	}
}

func assertDistinctWithout(t *testing.T, listings []*entity.Listing, self string) {
	t.Helper()
	seen := map[string]bool{}
	for _, l := range listings {
		assert.NotEqual(t, self, l.ID)
		assert.False(t, seen[l.ID], "duplicate %s", l.ID)
		seen[l.ID] = true
	}
}

func TestSimilar_FirstTierSatisfiesTarget(t *testing.T) {
	source := listingIn("src", "bakery", "Pune", 0)
	repo := newFakeListingRepo(
		source,
		listingIn("b1", "bakery", "Delhi", 1),
		listingIn("b2", "bakery", "Delhi", 2),
		listingIn("b3", "bakery", "Pune", 3),
		listingIn("b4", "bakery", "Goa", 4),
		listingIn("b5", "bakery", "Goa", 5),
		listingIn("p1", "produce", "Pune", 6),
	)
	f := NewSimilarListingsFinder(repo, DefaultSimilarProviders(repo), 4)

	got, err := f.Similar(context.Background(), "src")
	require.NoError(t, err)

	assert.Len(t, got, 4)
	for _, l := range got {
		assert.Equal(t, "bakery", l.Category)
	}
	assertDistinctWithout(t, got, "src")
	// Later tiers never run.
	require.Equal(t, 1, repo.queryCount())
	assert.Equal(t, "bakery", repo.queries[0].Category)
}

func TestSimilar_FallsBackThroughTiersWithoutDuplicates(t *testing.T) {
	source := listingIn("src", "bakery", "Pune", 0)
	repo := newFakeListingRepo(
		source,
		listingIn("b1", "bakery", "Pune", 1), // matches tiers 1 and 2
		listingIn("p1", "produce", "Pune", 2),
		listingIn("d1", "dairy", "Goa", 3),
		listingIn("d2", "dairy", "Goa", 4),
	)
	f := NewSimilarListingsFinder(repo, DefaultSimilarProviders(repo), 4)

	got, err := f.Similar(context.Background(), "src")
	require.NoError(t, err)

	require.Len(t, got, 4)
	assertDistinctWithout(t, got, "src")
	assert.Equal(t, "b1", got[0].ID)
	assert.Equal(t, "p1", got[1].ID)
	assert.ElementsMatch(t, []string{"d1", "d2"}, ids2(got[2:]))
	assert.Equal(t, 3, repo.queryCount())
}

func TestSimilar_ReturnsAllDistinctWhenCatalogueIsSmall(t *testing.T) {
	source := listingIn("src", "bakery", "Pune", 0)
	unavailable := listingIn("gone", "bakery", "Pune", 5)
	unavailable.IsAvailable = false
	repo := newFakeListingRepo(
		source,
		unavailable,
		listingIn("b1", "bakery", "Goa", 1),
		listingIn("p1", "produce", "Pune", 2),
	)
	f := NewSimilarListingsFinder(repo, DefaultSimilarProviders(repo), 4)

	got, err := f.Similar(context.Background(), "src")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"b1", "p1"}, ids2(got))
}

func TestSimilar_OnlySelfAvailable(t *testing.T) {
	repo := newFakeListingRepo(listingIn("src", "bakery", "Pune", 0))
	f := NewSimilarListingsFinder(repo, DefaultSimilarProviders(repo), 4)

	got, err := f.Similar(context.Background(), "src")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSimilar_ExclusionDoesNotStarveLaterTiers(t *testing.T) {
	// Newest listings are all in the same city; tier 2 must still find the remaining one.
	source := listingIn("src", "bakery", "Pune", 100)
	repo := newFakeListingRepo(
		source,
		listingIn("b1", "bakery", "Pune", 90),
		listingIn("b2", "bakery", "Pune", 80),
		listingIn("b3", "bakery", "Pune", 70),
		listingIn("p1", "produce", "Pune", 10),
	)
	f := NewSimilarListingsFinder(repo, DefaultSimilarProviders(repo), 4)

	got, err := f.Similar(context.Background(), "src")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2", "b3", "p1"}, ids2(got))
	assert.Equal(t, 2, repo.queryCount())
}

type stubProvider struct {
	name   string
	result []*entity.Listing
	err    error
	calls  int
	quotas []int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Candidates(ctx context.Context, source *entity.Listing, exclude map[string]struct{}, quota int) ([]*entity.Listing, error) {
	p.calls++
	p.quotas = append(p.quotas, quota)
	return p.result, p.err
}

func TestSimilar_ProviderFailureKeepsGatheredResults(t *testing.T) {
	source := listingIn("src", "bakery", "Pune", 0)
	repo := newFakeListingRepo(source)
	first := &stubProvider{name: "first", result: []*entity.Listing{listingIn("a", "", "", 1)}}
	broken := &stubProvider{name: "broken", err: errors.RemoteFailed("Failed to query listings", fmt.Errorf("offline"))}
	never := &stubProvider{name: "never"}
	f := NewSimilarListingsFinder(repo, []CandidateProvider{first, broken, never}, 4)

	got, err := f.Similar(context.Background(), "src")

	assert.True(t, errors.Is(err, errors.CodeRemoteFailed))
	assert.Equal(t, []string{"a"}, ids2(got))
	assert.Equal(t, []int{4}, first.quotas)
	assert.Equal(t, []int{3}, broken.quotas)
	assert.Zero(t, never.calls)
}

func TestSimilar_ChainDropsDuplicatesAndSelfFromProviders(t *testing.T) {
	source := listingIn("src", "bakery", "Pune", 0)
	repo := newFakeListingRepo(source)
	first := &stubProvider{name: "first", result: []*entity.Listing{listingIn("a", "", "", 1), listingIn("src", "", "", 0)}}
	second := &stubProvider{name: "second", result: []*entity.Listing{listingIn("a", "", "", 1), listingIn("b", "", "", 2)}}
	third := &stubProvider{name: "third", result: []*entity.Listing{listingIn("c", "", "", 3), listingIn("d", "", "", 4), listingIn("e", "", "", 5)}}
	f := NewSimilarListingsFinder(repo, []CandidateProvider{first, second, third}, 4)

	got, err := f.Similar(context.Background(), "src")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids2(got))
}

func TestSimilar_UnknownListing(t *testing.T) {
	repo := newFakeListingRepo()
	f := NewSimilarListingsFinder(repo, DefaultSimilarProviders(repo), 4)

	_, err := f.Similar(context.Background(), "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestQueryProvider_OverFetchesByExclusions(t *testing.T) {
	repo := newFakeListingRepo()
	p := DefaultSimilarProviders(repo)[2]

	_, err := p.Candidates(context.Background(), listingIn("src", "", "", 0), map[string]struct{}{"src": {}, "x": {}}, 3)
	require.NoError(t, err)
	require.Equal(t, 1, repo.queryCount())
	assert.Equal(t, repository.ListingQuery{Limit: 5}, repo.queries[0])
}
