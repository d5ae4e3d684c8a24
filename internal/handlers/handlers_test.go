package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareplace_backend/internal/middleware"
	"shareplace_backend/internal/services/dto"
	"shareplace_backend/internal/storage"
	"shareplace_backend/pkg/apperrors"
)

type stubPlaceService struct {
	ownerID string
	image   []byte
	req     *dto.CreatePlaceRequest
	err     error
}

func (s *stubPlaceService) CreatePlace(ctx context.Context, ownerID string, req *dto.CreatePlaceRequest, image []byte) (*dto.PlaceResponse, error) {
	s.ownerID, s.req, s.image = ownerID, req, image
	if s.err != nil {
		return nil, s.err
	}
	return &dto.PlaceResponse{ID: "p1", Title: req.Title, Creator: ownerID}, nil
}

func (s *stubPlaceService) UpdatePlace(ctx context.Context, ownerID, placeID string, req *dto.UpdatePlaceRequest) (*dto.PlaceResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.PlaceResponse{ID: placeID, Title: req.Title}, nil
}

func (s *stubPlaceService) DeletePlace(ctx context.Context, ownerID, placeID string) error {
	return s.err
}

type stubQueryService struct {
	term     string
	searched bool
	err      error
}

func (s *stubQueryService) GetPlaceByID(ctx context.Context, placeID string) (*dto.PlaceResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.PlaceResponse{ID: placeID}, nil
}

func (s *stubQueryService) GetPlaces(ctx context.Context) ([]*dto.PlaceResponse, error) {
	return []*dto.PlaceResponse{{ID: "a"}, {ID: "b"}}, s.err
}

func (s *stubQueryService) GetPlacesByOwner(ctx context.Context, ownerID string) ([]*dto.PlaceResponse, error) {
	return []*dto.PlaceResponse{}, s.err
}

func (s *stubQueryService) SearchPlaces(ctx context.Context, term string) ([]*dto.PlaceResponse, error) {
	s.term, s.searched = term, true
	return []*dto.PlaceResponse{{ID: "a"}}, s.err
}

// fakeAuth authenticates every request as the user named in X-Test-User.
func fakeAuth(c *gin.Context) {
	userID := c.GetHeader("X-Test-User")
	if userID == "" {
		apperrors.HandleError(c, apperrors.NewUnauthenticatedError("Authentication failed"))
		return
	}
	c.Set(middleware.ContextUserID, userID)
	c.Next()
}

func newPlaceRouter(places *stubPlaceService, queries *stubQueryService, maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewPlaceHandler(NewBaseHandler(maxUpload), places, queries).RegisterRoutes(r.Group("/api"), fakeAuth)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "pic.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreatePlace_BindsFormAndImage(t *testing.T) {
	places := &stubPlaceService{}
	r := newPlaceRouter(places, &stubQueryService{}, 1024)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Eiffel Tower",
		"description": "A landmark",
		"address":     "Paris",
		"lat":         "48.85",
		"lng":         "2.29",
	}, []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/places", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-User", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "alice", places.ownerID)
	assert.Equal(t, []byte("png-bytes"), places.image)
	require.NotNil(t, places.req.Lat)
	assert.Equal(t, 48.85, *places.req.Lat)
	assert.Equal(t, "Eiffel Tower", places.req.Title)
}

func TestCreatePlace_OversizedImageIsTruncatedAtLimit(t *testing.T) {
	places := &stubPlaceService{}
	r := newPlaceRouter(places, &stubQueryService{}, 8)

	body, contentType := multipartBody(t, map[string]string{"title": "x"}, bytes.Repeat([]byte{1}, 100))
	req := httptest.NewRequest(http.MethodPost, "/api/places", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-User", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, places.image, 9)
}

func TestCreatePlace_Unauthenticated(t *testing.T) {
	places := &stubPlaceService{}
	r := newPlaceRouter(places, &stubQueryService{}, 1024)

	req := httptest.NewRequest(http.MethodPost, "/api/places", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, places.ownerID)
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"forbidden", apperrors.NewForbiddenError("places", "You are not allowed to delete this place."), http.StatusForbidden},
		{"not found", apperrors.NewNotFoundError("places", "Could not find place for the provided id."), http.StatusNotFound},
		{"transaction", apperrors.TransactionFailed("places", errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newPlaceRouter(&stubPlaceService{err: tc.err}, &stubQueryService{}, 1024)

			req := httptest.NewRequest(http.MethodDelete, "/api/places/p1", nil)
			req.Header.Set("X-Test-User", "bob")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code)
			var resp map[string]map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"]["code"])
			assert.NotContains(t, w.Body.String(), "boom")
		})
	}
}

func TestDeletePlace_Message(t *testing.T) {
	r := newPlaceRouter(&stubPlaceService{}, &stubQueryService{}, 1024)

	req := httptest.NewRequest(http.MethodDelete, "/api/places/p1", nil)
	req.Header.Set("X-Test-User", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Deleted place."}`, w.Body.String())
}

func TestGetPlaces_SearchQuery(t *testing.T) {
	queries := &stubQueryService{}
	r := newPlaceRouter(&stubPlaceService{}, queries, 1024)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/places", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, queries.searched)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/places?search=tower", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, queries.searched)
	assert.Equal(t, "tower", queries.term)
}

func TestSearchPlaces_Body(t *testing.T) {
	queries := &stubQueryService{}
	r := newPlaceRouter(&stubPlaceService{}, queries, 1024)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/places/search", strings.NewReader(`{"search":"Tower"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tower", queries.term)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/places/search", strings.NewReader(`{"search":`)))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestFileHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	backend := storage.NewMemoryStorage("/files")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	require.NoError(t, backend.Save(context.Background(), "places/a.png", bytes.NewReader(png), "image/png"))

	r := gin.New()
	NewFileHandler(NewBaseHandler(0), backend).RegisterRoutes(r.Group("/files"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/places/a.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, png, w.Body.Bytes())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/places/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHealthHandler(map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"cache":    func(context.Context) error { return errors.New("down") },
	}).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"database":"up","cache":"down"}}`, w.Body.String())
}
