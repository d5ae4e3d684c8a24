package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shareplace_backend/internal/services"
	"shareplace_backend/internal/services/dto"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("", h.GetUsers)
		users.POST("/signup", h.Signup)
		users.POST("/login", h.Login)
	}
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.userService.GetUsers(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UsersEnvelope{Users: users})
}

func (h *UserHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !h.Bind(c, &req) {
		return
	}

	image, ok := h.ReadImage(c, "image")
	if !ok {
		return
	}

	resp, err := h.userService.Signup(c.Request.Context(), &req, image)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
