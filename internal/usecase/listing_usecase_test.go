package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/domain/entity"
	"foodshare/pkg/errors"
)

func newListingUseCase(repo *fakeListingRepo, images ImageStore) *ListingUseCase {
	uc := NewListingUseCase(repo, images)
	uc.now = func() time.Time { return baseTime }
	return uc
}

func validListingInput() ListingInput {
	return ListingInput{
		Title:     "Leftover paneer tikka",
		Category:  "cooked",
		Location:  entity.Location{Address: "4 FC Road", City: "Pune", State: "MH"},
		ExpiresAt: baseTime.Add(6 * time.Hour),
	}
}

func TestListingUseCase_CreateListing(t *testing.T) {
	repo := newFakeListingRepo()
	uc := newListingUseCase(repo, nil)

	listing, err := uc.CreateListing(context.Background(), "owner-1", validListingInput())
	require.NoError(t, err)

	stored := repo.get(listing.ID)
	assert.Equal(t, "owner-1", stored.OwnerID)
	assert.True(t, stored.IsAvailable)
	assert.True(t, stored.IsFree)

	input := validListingInput()
	input.Price = floatPtr(50)
	priced, err := uc.CreateListing(context.Background(), "owner-1", input)
	require.NoError(t, err)
	assert.False(t, repo.get(priced.ID).IsFree)
}

func TestListingUseCase_CreateListingValidation(t *testing.T) {
	uc := newListingUseCase(newFakeListingRepo(), nil)

	expired := validListingInput()
	expired.ExpiresAt = baseTime.Add(-time.Minute)
	noCity := validListingInput()
	noCity.Location.City = ""
	negative := validListingInput()
	negative.Price = floatPtr(-1)

	for name, input := range map[string]ListingInput{"expired": expired, "no city": noCity, "negative price": negative} {
		t.Run(name, func(t *testing.T) {
			_, err := uc.CreateListing(context.Background(), "owner-1", input)
			assert.True(t, errors.Is(err, errors.CodeValidationFailed))
		})
	}
}

func TestListingUseCase_OwnerOnlyMutations(t *testing.T) {
	repo := newFakeListingRepo(&entity.Listing{ID: "L", OwnerID: "owner-1", Title: "Old", IsAvailable: true})
	uc := newListingUseCase(repo, nil)
	ctx := context.Background()

	_, err := uc.UpdateListing(ctx, "L", "intruder", validListingInput())
	assert.True(t, errors.Is(err, errors.CodeAccessDenied))
	assert.True(t, errors.Is(uc.DeleteListing(ctx, "L", "intruder"), errors.CodeAccessDenied))

	updated, err := uc.UpdateListing(ctx, "L", "owner-1", validListingInput())
	require.NoError(t, err)
	assert.Equal(t, "Leftover paneer tikka", updated.Title)
	assert.True(t, repo.get("L").IsAvailable)

	require.NoError(t, uc.DeleteListing(ctx, "L", "owner-1"))
	assert.False(t, repo.get("L").IsAvailable)

	mine, err := uc.ListMyListings(ctx, "owner-1", 10)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestListingUseCase_UploadImage(t *testing.T) {
	images := &fakeImageStore{}
	uc := newListingUseCase(newFakeListingRepo(), images)
	ctx := context.Background()

	url, err := uc.UploadImage(ctx, "owner-1", strings.NewReader("jpeg"), "dal.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, url, "owner-1/dal.jpg")

	_, err = uc.UploadImage(ctx, "owner-1", strings.NewReader("pdf"), "menu.pdf", "application/pdf")
	assert.True(t, errors.Is(err, errors.CodeValidationFailed))

	unconfigured := newListingUseCase(newFakeListingRepo(), nil)
	_, err = unconfigured.UploadImage(ctx, "owner-1", strings.NewReader("jpeg"), "dal.jpg", "image/jpeg")
	assert.True(t, errors.Is(err, errors.CodeInternal))
}

// saleDuringEditRepo completes a checkout right after the first read of a listing, between
// the owner's read and write.
type saleDuringEditRepo struct {
	*fakeListingRepo
	buyerID string
	sold    bool
}

func (r *saleDuringEditRepo) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	listing, err := r.fakeListingRepo.GetByID(ctx, id)
	if err == nil && !r.sold {
		r.sold = true
		if err := r.fakeListingRepo.MarkSold(ctx, id, r.buyerID); err != nil {
			return nil, err
		}
	}
	return listing, err
}

func TestListingUseCase_UpdateKeepsConcurrentSale(t *testing.T) {
	fake := newFakeListingRepo(&entity.Listing{ID: "L", OwnerID: "owner-1", Title: "Old", IsAvailable: true})
	repo := &saleDuringEditRepo{fakeListingRepo: fake, buyerID: "buyer-9"}
	uc := NewListingUseCase(repo, nil)
	uc.now = func() time.Time { return baseTime }

	updated, err := uc.UpdateListing(context.Background(), "L", "owner-1", validListingInput())
	require.NoError(t, err)

	stored := fake.get("L")
	assert.Equal(t, "Leftover paneer tikka", stored.Title)
	assert.False(t, stored.IsAvailable)
	assert.Equal(t, "buyer-9", stored.SoldTo)

	assert.False(t, updated.IsAvailable)
	assert.Equal(t, "buyer-9", updated.SoldTo)
}
