package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shareplace_backend/internal/services"
	"shareplace_backend/internal/services/dto"
)

type PlaceHandler struct {
	*BaseHandler
	placeService services.PlaceService
	queryService services.PlaceQueryService
}

func NewPlaceHandler(base *BaseHandler, placeService services.PlaceService, queryService services.PlaceQueryService) *PlaceHandler {
	return &PlaceHandler{
		BaseHandler:  base,
		placeService: placeService,
		queryService: queryService,
	}
}

func (h *PlaceHandler) RegisterRoutes(r *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	// Public routes
	public := r.Group("/places")
	{
		public.GET("", h.GetPlaces)
		public.POST("/search", h.SearchPlaces)
		public.GET("/:pid", h.GetPlaceByID)
		public.GET("/user/:uid", h.GetPlacesByUserID)
	}

	// Protected routes
	places := r.Group("/places")
	places.Use(authMiddleware)
	{
		places.POST("", h.CreatePlace)
		places.PATCH("/:pid", h.UpdatePlace)
		places.DELETE("/:pid", h.DeletePlace)
	}
}

// GetPlaces lists every place, or searches when ?search= is present.
func (h *PlaceHandler) GetPlaces(c *gin.Context) {
	var (
		places []*dto.PlaceResponse
		err    error
	)
	if term, ok := c.GetQuery("search"); ok {
		places, err = h.queryService.SearchPlaces(c.Request.Context(), term)
	} else {
		places, err = h.queryService.GetPlaces(c.Request.Context())
	}
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PlacesEnvelope{Places: places})
}

func (h *PlaceHandler) SearchPlaces(c *gin.Context) {
	var req dto.SearchPlacesRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	places, err := h.queryService.SearchPlaces(c.Request.Context(), req.Search)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PlacesEnvelope{Places: places})
}

func (h *PlaceHandler) GetPlaceByID(c *gin.Context) {
	place, err := h.queryService.GetPlaceByID(c.Request.Context(), c.Param("pid"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PlaceEnvelope{Place: place})
}

func (h *PlaceHandler) GetPlacesByUserID(c *gin.Context) {
	places, err := h.queryService.GetPlacesByOwner(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PlacesEnvelope{Places: places})
}

func (h *PlaceHandler) CreatePlace(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreatePlaceRequest
	if !h.Bind(c, &req) {
		return
	}

	image, ok := h.ReadImage(c, "image")
	if !ok {
		return
	}

	place, err := h.placeService.CreatePlace(c.Request.Context(), userID, &req, image)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.PlaceEnvelope{Place: place})
}

func (h *PlaceHandler) UpdatePlace(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdatePlaceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	place, err := h.placeService.UpdatePlace(c.Request.Context(), userID, c.Param("pid"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PlaceEnvelope{Place: place})
}

func (h *PlaceHandler) DeletePlace(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.placeService.DeletePlace(c.Request.Context(), userID, c.Param("pid")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Deleted place."})
}
