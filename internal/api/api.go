package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dkowalsky/favourites-api/internal/auth"
	"github.com/dkowalsky/favourites-api/internal/store"
)

type Handler struct {
	authService *auth.Service
	codec       *auth.Codec
	store       store.Store
	logger      *zap.Logger
}

func NewHandler(authService *auth.Service, codec *auth.Codec, userStore store.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{authService: authService, codec: codec, store: userStore, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	userGroup := router.Group("/api/user")
	userGroup.POST("/register", h.handleRegister)
	userGroup.POST("/login", h.handleLogin)

	favGroup := userGroup.Group("/favourites")
	favGroup.Use(h.requireAuth())
	favGroup.GET("", h.handleListFavourites)
	favGroup.PUT("/:id", h.handleAddFavourite)
	favGroup.DELETE("/:id", h.handleRemoveFavourite)
}

type credentialsRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "invalid payload"})
		return
	}

	message, err := h.authService.Register(c.Request.Context(), req.UserName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNameRequired), errors.Is(err, auth.ErrPasswordRequired):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		case errors.Is(err, store.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		default:
			h.logger.Error("register failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to register user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "invalid payload"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.UserName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		case errors.Is(err, auth.ErrIncorrectPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "incorrect password"})
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to login"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User Logged In", "token": result.Token})
}

func (h *Handler) handleListFavourites(c *gin.Context) {
	claims := mustClaims(c)

	favourites, err := h.store.GetFavourites(c.Request.Context(), claims.UserID)
	if err != nil {
		h.writeFavouritesError(c, err)
		return
	}

	c.JSON(http.StatusOK, favourites)
}

func (h *Handler) handleAddFavourite(c *gin.Context) {
	claims := mustClaims(c)

	favourites, err := h.store.AddFavourite(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		h.writeFavouritesError(c, err)
		return
	}

	c.JSON(http.StatusOK, favourites)
}

func (h *Handler) handleRemoveFavourite(c *gin.Context) {
	claims := mustClaims(c)

	favourites, err := h.store.RemoveFavourite(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		h.writeFavouritesError(c, err)
		return
	}

	c.JSON(http.StatusOK, favourites)
}

func (h *Handler) writeFavouritesError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	h.logger.Error("favourites operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "favourites operation failed"})
}
