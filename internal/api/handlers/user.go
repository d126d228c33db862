package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pet-service/internal/database"
	"pet-service/internal/models"
	"pet-service/internal/services"
)

type UserHandler struct {
	userService *services.UserService
	storage     *database.MinIOClient
}

func NewUserHandler(userService *services.UserService, storage *database.MinIOClient) *UserHandler {
	return &UserHandler{userService: userService, storage: storage}
}

func currentUserID(c *gin.Context) uint {
	return c.MustGet("user_id").(uint)
}

// GetProfile godoc
// @Summary Get the authenticated user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetProfile(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Code:    http.StatusNotFound,
			Message: "User not found",
		})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update username, password or avatar
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateProfileRequest true "Profile changes"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} models.ErrorResponse "Bad request"
// @Failure 401 {object} models.ErrorResponse "Wrong current password"
// @Router /users/me [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	user, err := h.userService.UpdateProfile(currentUserID(c), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "Current password is incorrect",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to update profile",
		})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UploadAvatar godoc
// @Summary Upload a profile picture
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} map[string]string "Avatar URL"
// @Failure 400 {object} models.ErrorResponse "Missing file"
// @Failure 500 {object} models.ErrorResponse "Upload failed"
// @Router /users/me/avatar [post]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Code:    http.StatusServiceUnavailable,
			Message: "Avatar storage is not configured",
		})
		return
	}
	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "avatar file is required",
		})
		return
	}

	userID := currentUserID(c)
	url, err := h.storage.UploadAvatar(c.Request.Context(), userID, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to upload avatar",
		})
		return
	}
	if err := h.userService.SetAvatar(userID, url); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to save avatar",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar": url})
}
