package services

import (
	"shareplace_backend/internal/assets"
	"shareplace_backend/internal/cache"
	"shareplace_backend/internal/imageprocessor"
	"shareplace_backend/internal/repositories"
	"shareplace_backend/internal/validator"
)

// TokenIssuer signs credentials for signup and login.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// Dependencies are the collaborators shared by all services.
type Dependencies struct {
	Store     repositories.RecordStore
	Assets    assets.AssetStore
	Images    *imageprocessor.Processor // nil disables downscaling
	Validator *validator.Validator
	Cache     cache.PlaceCache // nil disables caching
	Tokens    TokenIssuer
}

func (d Dependencies) cacheOrNoop() cache.PlaceCache {
	if d.Cache == nil {
		return cache.Noop{}
	}
	return d.Cache
}

// ServiceContainer holds every service of the application.
type ServiceContainer struct {
	PlaceService      PlaceService
	PlaceQueryService PlaceQueryService
	UserService       UserService
}

func NewServiceContainer(deps Dependencies) *ServiceContainer {
	return &ServiceContainer{
		PlaceService:      NewPlaceService(deps),
		PlaceQueryService: NewPlaceQueryService(deps),
		UserService:       NewUserService(deps),
	}
}
