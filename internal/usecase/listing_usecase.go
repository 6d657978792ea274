package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

type ListingUseCase struct {
	listingRepo repository.ListingRepository
	imageStore  ImageStore
	now         func() time.Time
}

func NewListingUseCase(listingRepo repository.ListingRepository, imageStore ImageStore) *ListingUseCase {
	return &ListingUseCase{
		listingRepo: listingRepo,
		imageStore:  imageStore,
		now:         time.Now,
	}
}

type ListingInput struct {
	Title       string          `json:"title" validate:"required,min=3,max=120"`
	Description string          `json:"description" validate:"max=2000"`
	Price       *float64        `json:"price" validate:"omitempty,gte=0"`
	IsDonation  bool            `json:"is_donation"`
	Category    string          `json:"category" validate:"required,max=60"`
	Location    entity.Location `json:"location"`
	ImageURLs   []string        `json:"image_urls" validate:"max=6,dive,url"`
	ExpiresAt   time.Time       `json:"expires_at" validate:"required"`
}

func (uc *ListingUseCase) validate(input ListingInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return errors.ValidationFailed("title is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return errors.ValidationFailed("category is required")
	}
	if strings.TrimSpace(input.Location.City) == "" {
		return errors.ValidationFailed("location.city is required")
	}
	if input.Price != nil && *input.Price < 0 {
		return errors.ValidationFailed("price cannot be negative")
	}
	if !input.ExpiresAt.After(uc.now()) {
		return errors.ValidationFailed("expires_at must be in the future")
	}
	return nil
}

func (uc *ListingUseCase) CreateListing(ctx context.Context, ownerID string, input ListingInput) (*entity.Listing, error) {
	if err := uc.validate(input); err != nil {
		return nil, err
	}

	listing := &entity.Listing{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Price:       input.Price,
		IsDonation:  input.IsDonation,
		IsAvailable: true,
		Category:    strings.TrimSpace(input.Category),
		Location:    input.Location,
		ImageURLs:   input.ImageURLs,
		ExpiresAt:   input.ExpiresAt,
	}
	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	logger.Info("Listing %s created by %s", listing.ID, ownerID)
	return listing, nil
}

func (uc *ListingUseCase) GetListing(ctx context.Context, id string) (*entity.Listing, error) {
	return uc.listingRepo.GetByID(ctx, id)
}

func (uc *ListingUseCase) UpdateListing(ctx context.Context, id, ownerID string, input ListingInput) (*entity.Listing, error) {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != ownerID {
		return nil, errors.AccessDenied("You can only update your own listings")
	}
	if err := uc.validate(input); err != nil {
		return nil, err
	}

	listing.Title = strings.TrimSpace(input.Title)
	listing.Description = input.Description
	listing.Price = input.Price
	listing.IsDonation = input.IsDonation
	listing.Category = strings.TrimSpace(input.Category)
	listing.Location = input.Location
	listing.ImageURLs = input.ImageURLs
	listing.ExpiresAt = input.ExpiresAt

	if err := uc.listingRepo.Update(ctx, listing); err != nil {
		return nil, err
	}

	// Availability may have changed since the read above.
	current, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		logger.Warn("Listing %s updated but could not be re-read: %v", id, err)
		return listing, nil
	}
	return current, nil
}

// DeleteListing hides the listing by marking it unavailable. Documents are never removed.
func (uc *ListingUseCase) DeleteListing(ctx context.Context, id, ownerID string) error {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if listing.OwnerID != ownerID {
		return errors.AccessDenied("You can only delete your own listings")
	}

	return uc.listingRepo.SoftDelete(ctx, id)
}

func (uc *ListingUseCase) ListMyListings(ctx context.Context, ownerID string, limit int) ([]*entity.Listing, error) {
	return uc.listingRepo.ListByOwner(ctx, ownerID, limit)
}

func (uc *ListingUseCase) UploadImage(ctx context.Context, ownerID string, file io.Reader, filename, contentType string) (string, error) {
	if uc.imageStore == nil {
		return "", errors.Internal("Image storage is not configured", nil)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", errors.ValidationFailed("Only image uploads are allowed")
	}

	url, err := uc.imageStore.UploadListingImage(ctx, ownerID, file, filename, contentType)
	if err != nil {
		return "", errors.RemoteFailed("Failed to upload image", err)
	}
	return url, nil
}
