package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskflow/platform/shared/cqrs"
	"github.com/taskflow/platform/shared/middleware"
	"github.com/taskflow/platform/shared/models"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	RegisterUser(context.Context, cqrs.RegisterUserCommand) (*models.User, error)
	UpdateUserProfile(context.Context, cqrs.UpdateUserProfileCommand) (*models.User, error)
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(context.Context, cqrs.GetUserQuery) (*models.User, error)
	AuthenticateUser(context.Context, cqrs.AuthenticateQuery) (*models.User, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// UserHandler handles registration, login and profile requests.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
	tokens   TokenIssuer
	logger   *slog.Logger
}

type RegisterUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier, tokens TokenIssuer, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{commands: commands, queries: queries, tokens: tokens, logger: logger}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.commands.RegisterUser(c.Request.Context(), cqrs.RegisterUserCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondWithServiceError(c, err, "Failed to register user")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.queries.AuthenticateUser(c.Request.Context(), cqrs.AuthenticateQuery{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondWithServiceError(c, err, "Failed to authenticate")
		return
	}
	if user == nil {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.respondWithServiceError(c, err, "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.commands.UpdateUserProfile(c.Request.Context(), cqrs.UpdateUserProfileCommand{
		UserID: userID,
		Name:   req.Name,
	})
	if err != nil {
		h.respondWithServiceError(c, err, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUser answers 200 or 404. The task service relies on exactly that to
// validate task owners.
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{UserID: userID})
	if err != nil {
		h.respondWithServiceError(c, err, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) respondWithServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrDuplicateEmail):
		middleware.RespondWithError(c, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, models.ErrInvalidInput):
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "User not found")
	default:
		h.logger.Error(fallback, slog.String("path", c.FullPath()), slog.Any("error", err))
		middleware.RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}
