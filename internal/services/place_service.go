package services

import (
	"context"
	"errors"
	"strings"

	"shareplace_backend/internal/assets"
	"shareplace_backend/internal/cache"
	"shareplace_backend/internal/logger"
	"shareplace_backend/internal/models"
	"shareplace_backend/internal/repositories"
	"shareplace_backend/internal/services/dto"
	"shareplace_backend/internal/validator"
	"shareplace_backend/pkg/apperrors"
)

const placeDomain = "place"

// Saga operation names.
const (
	opCreatePlace = "create-place"
	opDeletePlace = "delete-place"
	opSignup      = "signup"
)

// PlaceService owns every mutation of a place. It keeps the place record,
// the owner's place list and the image asset consistent.
type PlaceService interface {
	CreatePlace(ctx context.Context, ownerID string, req *dto.CreatePlaceRequest, image []byte) (*dto.PlaceResponse, error)
	UpdatePlace(ctx context.Context, ownerID, placeID string, req *dto.UpdatePlaceRequest) (*dto.PlaceResponse, error)
	DeletePlace(ctx context.Context, ownerID, placeID string) error
}

type placeService struct {
	store     repositories.RecordStore
	assets    assets.AssetStore
	images    *imagePolicy
	janitor   *assetJanitor
	validator *validator.Validator
	cache     cache.PlaceCache
}

func NewPlaceService(deps Dependencies) PlaceService {
	return &placeService{
		store:     deps.Store,
		assets:    deps.Assets,
		images:    &imagePolicy{assets: deps.Assets, processor: deps.Images},
		janitor:   &assetJanitor{store: deps.Store, assets: deps.Assets},
		validator: deps.Validator,
		cache:     deps.cacheOrNoop(),
	}
}

func (s *placeService) CreatePlace(ctx context.Context, ownerID string, req *dto.CreatePlaceRequest, image []byte) (*dto.PlaceResponse, error) {
	// 1. Validation, before any I/O
	errs := fieldErrors(s.validator.Validate(req))
	image, ext := s.images.prepare(image, errs)
	if len(errs) > 0 {
		return nil, apperrors.ValidationError(errs)
	}

	// 2. Owner
	if _, err := s.store.Users().FindByID(ctx, ownerID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("user", "Could not find user for provided id")
		}
		return nil, apperrors.UnknownError(placeDomain, err)
	}

	key := s.assets.NewKey(assets.FolderPlaces, req.Title, ext)

	var (
		imageURL string
		created  *models.Place
	)

	steps := []sagaStep{
		{
			name: stepUploadAsset,
			run: func(ctx context.Context) error {
				url, err := s.assets.Upload(ctx, image, key)
				if err != nil {
					return err
				}
				imageURL = url
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.janitor.release(ctx, key, opCreatePlace+" compensation")
			},
		},
		{
			name: stepCommitRecords,
			run: func(ctx context.Context) error {
				err := s.store.Transaction(ctx, func(tx repositories.RecordStore) error {
					// Lock the owner first so concurrent creates queue on the row.
					owner, err := tx.Users().LockByID(ctx, ownerID)
					if err != nil {
						return err
					}

					place := &models.Place{
						Title:       strings.TrimSpace(req.Title),
						Description: req.Description,
						Address:     strings.TrimSpace(req.Address),
						ImageURL:    imageURL,
						ImageKey:    key,
						CreatorID:   owner.ID,
					}
					place.SetPoint(models.GeoPoint{Lat: *req.Lat, Lng: *req.Lng})
					if err := tx.Places().Save(ctx, place); err != nil {
						return err
					}

					owner.AddPlace(place.ID)
					if err := tx.Users().Save(ctx, owner); err != nil {
						return err
					}

					created = place
					return nil
				})
				if err != nil {
					return apperrors.TransactionFailed(placeDomain, err)
				}
				return nil
			},
		},
	}

	if err := runSaga(ctx, opCreatePlace, steps); err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "Place created", "place_id", created.ID, "owner_id", ownerID, "image_key", key)
	return dto.NewPlaceResponse(created), nil
}

func (s *placeService) UpdatePlace(ctx context.Context, ownerID, placeID string, req *dto.UpdatePlaceRequest) (*dto.PlaceResponse, error) {
	if errs := fieldErrors(s.validator.Validate(req)); len(errs) > 0 {
		return nil, apperrors.ValidationError(errs)
	}

	place, err := s.loadPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}

	if place.CreatorID != ownerID {
		return nil, apperrors.NewForbiddenError(placeDomain, "You are not allowed to edit this place")
	}

	// UpdateDetails never inserts, so a delete committed since the load
	// surfaces as ErrPlaceNotFound instead of resurrecting the place.
	txCtx := context.WithoutCancel(ctx)
	var updated *models.Place
	err = s.store.Transaction(txCtx, func(tx repositories.RecordStore) error {
		if err := tx.Places().UpdateDetails(txCtx, place.ID, strings.TrimSpace(req.Title), req.Description); err != nil {
			return err
		}
		p, err := tx.Places().FindByID(txCtx, place.ID)
		updated = p
		return err
	})
	switch {
	case errors.Is(err, repositories.ErrPlaceNotFound):
		// deleted concurrently
		return nil, apperrors.NewNotFoundError(placeDomain, "Could not find place for this id")
	case err != nil:
		return nil, apperrors.PersistenceError(placeDomain, err)
	}
	s.cache.Invalidate(ctx, place.ID)

	return dto.NewPlaceResponse(updated), nil
}

// DeletePlace removes the asset first, best effort, and then the records.
// If the record transaction fails the asset stays deleted.
func (s *placeService) DeletePlace(ctx context.Context, ownerID, placeID string) error {
	place, err := s.loadPlace(ctx, placeID)
	if err != nil {
		return err
	}

	if place.CreatorID != ownerID {
		return apperrors.NewForbiddenError(placeDomain, "You are not allowed to delete this place")
	}

	steps := []sagaStep{
		{
			name:       stepDeleteAsset,
			bestEffort: true,
			run: func(ctx context.Context) error {
				return s.janitor.release(ctx, place.ImageKey, opDeletePlace+" cleanup")
			},
		},
		{
			name: stepCommitRecords,
			run: func(ctx context.Context) error {
				err := s.store.Transaction(ctx, func(tx repositories.RecordStore) error {
					owner, err := tx.Users().LockByID(ctx, place.CreatorID)
					if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
						return err
					}

					if err := tx.Places().Delete(ctx, place.ID); err != nil {
						return err
					}

					if owner == nil {
						return nil
					}
					owner.RemovePlace(place.ID)
					return tx.Users().Save(ctx, owner)
				})
				switch {
				case err == nil:
					return nil
				case errors.Is(err, repositories.ErrPlaceNotFound):
					// deleted concurrently
					return apperrors.NewNotFoundError(placeDomain, "Could not find place for this id")
				default:
					return apperrors.TransactionFailed(placeDomain, err)
				}
			},
		},
	}

	if err := runSaga(ctx, opDeletePlace, steps); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, place.ID)

	logger.CtxInfo(ctx, "Place deleted", "place_id", place.ID, "owner_id", ownerID)
	return nil
}

func (s *placeService) loadPlace(ctx context.Context, placeID string) (*models.Place, error) {
	place, err := s.store.Places().FindByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlaceNotFound) {
			return nil, apperrors.NewNotFoundError(placeDomain, "Could not find place for this id")
		}
		return nil, apperrors.UnknownError(placeDomain, err)
	}
	return place, nil
}

// fieldErrors turns a validator result into a mutable field map.
func fieldErrors(err error) map[string]string {
	errs := make(map[string]string)
	if err == nil {
		return errs
	}

	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		for field, msg := range verr.Errors {
			errs[field] = msg
		}
		return errs
	}

	errs["body"] = err.Error()
	return errs
}
