package dto

import (
	"time"

	"shareplace_backend/internal/models"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CreatePlaceRequest is bound from a multipart form; the image travels
// separately.
type CreatePlaceRequest struct {
	Title       string   `form:"title" json:"title" validate:"required,notblank"`
	Description string   `form:"description" json:"description" validate:"required,min=5"`
	Address     string   `form:"address" json:"address" validate:"required,notblank"`
	Lat         *float64 `form:"lat" json:"lat" validate:"required,gte=-90,lte=90"`
	Lng         *float64 `form:"lng" json:"lng" validate:"required,gte=-180,lte=180"`
}

type UpdatePlaceRequest struct {
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description" validate:"required,min=5"`
}

type SearchPlacesRequest struct {
	Search string `json:"search"`
}

// PlaceResponse is a detached snapshot of a place.
type PlaceResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Location    Location  `json:"location"`
	Image       string    `json:"image"`
	Creator     string    `json:"creator"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type PlaceEnvelope struct {
	Place *PlaceResponse `json:"place"`
}

type PlacesEnvelope struct {
	Places []*PlaceResponse `json:"places"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewPlaceResponse(p *models.Place) *PlaceResponse {
	point := p.Point()
	return &PlaceResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Address:     p.Address,
		Location:    Location{Lat: point.Lat, Lng: point.Lng},
		Image:       p.ImageURL,
		Creator:     p.CreatorID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewPlaceResponses(places []*models.Place) []*PlaceResponse {
	out := make([]*PlaceResponse, 0, len(places))
	for _, p := range places {
		out = append(out, NewPlaceResponse(p))
	}
	return out
}
