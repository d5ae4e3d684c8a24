package services

import (
	"context"
	"errors"
	"strings"

	"shareplace_backend/internal/cache"
	"shareplace_backend/internal/repositories"
	"shareplace_backend/internal/services/dto"
	"shareplace_backend/pkg/apperrors"
)

// PlaceQueryService is the read side. It never mutates.
type PlaceQueryService interface {
	GetPlaceByID(ctx context.Context, placeID string) (*dto.PlaceResponse, error)
	GetPlaces(ctx context.Context) ([]*dto.PlaceResponse, error)
	GetPlacesByOwner(ctx context.Context, ownerID string) ([]*dto.PlaceResponse, error)
	SearchPlaces(ctx context.Context, term string) ([]*dto.PlaceResponse, error)
}

type placeQueryService struct {
	store repositories.RecordStore
	cache cache.PlaceCache
}

func NewPlaceQueryService(deps Dependencies) PlaceQueryService {
	return &placeQueryService{
		store: deps.Store,
		cache: deps.cacheOrNoop(),
	}
}

func (s *placeQueryService) GetPlaceByID(ctx context.Context, placeID string) (*dto.PlaceResponse, error) {
	if cached, ok := s.cache.Get(ctx, placeID); ok {
		return cached, nil
	}

	place, err := s.store.Places().FindByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlaceNotFound) {
			return nil, apperrors.NewNotFoundError(placeDomain, "Could not find place for the provided id")
		}
		return nil, apperrors.UnknownError(placeDomain, err)
	}

	resp := dto.NewPlaceResponse(place)
	s.cache.Set(ctx, resp)
	return resp, nil
}

func (s *placeQueryService) GetPlaces(ctx context.Context) ([]*dto.PlaceResponse, error) {
	places, err := s.store.Places().FindAll(ctx)
	if err != nil {
		return nil, apperrors.UnknownError(placeDomain, err)
	}
	return dto.NewPlaceResponses(places), nil
}

// GetPlacesByOwner returns an empty list for an owner without places or an
// unknown owner.
func (s *placeQueryService) GetPlacesByOwner(ctx context.Context, ownerID string) ([]*dto.PlaceResponse, error) {
	places, err := s.store.Places().FindByCreator(ctx, ownerID)
	if err != nil {
		return nil, apperrors.UnknownError(placeDomain, err)
	}
	return dto.NewPlaceResponses(places), nil
}

func (s *placeQueryService) SearchPlaces(ctx context.Context, term string) ([]*dto.PlaceResponse, error) {
	places, err := s.store.Places().Search(ctx, strings.TrimSpace(term))
	if err != nil {
		return nil, apperrors.UnknownError(placeDomain, err)
	}
	return dto.NewPlaceResponses(places), nil
}
