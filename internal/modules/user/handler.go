package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vidtube/internal/media"
	"vidtube/internal/middleware"
	"vidtube/internal/pkg/apierror"
	"vidtube/internal/pkg/response"
)

type Handler struct {
	service *Service
	stager  *media.Stager
}

func NewHandler(service *Service, stager *media.Stager) *Handler {
	return &Handler{service: service, stager: stager}
}

// RegisterProtectedRoutes mounts the account routes. All of them expect
// middleware.JWTAuth in front.
func (h *Handler) RegisterProtectedRoutes(users *gin.RouterGroup) {
	users.GET("/me", h.GetMe)
	users.PATCH("/update-user-data", h.UpdateAccount)
	users.PATCH("/avatar", h.UpdateAvatar)
	users.PATCH("/cover-image", h.UpdateCoverImage)
	users.GET("/user-profile", h.GetChannelProfile)
	users.GET("/c/:username", h.GetChannelProfile)
	users.GET("/watch-history", h.GetWatchHistory)
}

// GetMe godoc
// @Summary		Current user
// @Tags		Users
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{}
// @Router		/users/me [GET]
func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.service.GetCurrentUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "User fetched successfully", user)
}

// UpdateAccount godoc
// @Summary		Update email and/or full name
// @Tags		Users
// @Security	BearerAuth
// @Param		request	body	UpdateAccountRequest	true	"email, fullName"
// @Success		200	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}	"Nothing to update or bad email"
// @Failure		409	{object}	map[string]interface{}	"Email already in use"
// @Router		/users/update-user-data [PATCH]
func (h *Handler) UpdateAccount(c *gin.Context) {
	var req UpdateAccountRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Fail(c, apierror.Validation("Invalid request body"))
		return
	}

	user, err := h.service.UpdateAccountDetails(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Account details updated successfully", user)
}

// UpdateAvatar godoc
// @Summary		Replace avatar
// @Tags		Users
// @Security	BearerAuth
// @Accept		multipart/form-data
// @Param		avatar	formData	file	true	"Avatar image"
// @Success		200	{object}	map[string]interface{}
// @Router		/users/avatar [PATCH]
func (h *Handler) UpdateAvatar(c *gin.Context) {
	path, err := h.stager.StageField(c.Request, "avatar")
	if err != nil && !errors.Is(err, media.ErrNoFile) {
		response.Fail(c, stageError(err))
		return
	}
	defer media.Discard(path)

	user, err := h.service.UpdateAvatar(c.Request.Context(), middleware.CurrentUserID(c), path)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Avatar image updated successfully", user)
}

// UpdateCoverImage godoc
// @Summary		Replace cover image
// @Tags		Users
// @Security	BearerAuth
// @Accept		multipart/form-data
// @Param		coverImage	formData	file	true	"Cover image"
// @Success		200	{object}	map[string]interface{}
// @Router		/users/cover-image [PATCH]
func (h *Handler) UpdateCoverImage(c *gin.Context) {
	path, err := h.stager.StageField(c.Request, "coverImage")
	if err != nil && !errors.Is(err, media.ErrNoFile) {
		response.Fail(c, stageError(err))
		return
	}
	defer media.Discard(path)

	user, err := h.service.UpdateCoverImage(c.Request.Context(), middleware.CurrentUserID(c), path)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Cover image updated successfully", user)
}

// GetChannelProfile godoc
// @Summary		Channel profile
// @Tags		Users
// @Security	BearerAuth
// @Param		username	query	string	false	"Channel username"
// @Success		200	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}	"No such channel"
// @Router		/users/user-profile [GET]
func (h *Handler) GetChannelProfile(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		username = c.Query("username")
	}

	profile, err := h.service.GetChannelProfile(c.Request.Context(), username, middleware.CurrentUserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "User channel fetched successfully", profile)
}

// GetWatchHistory godoc
// @Summary		Watch history
// @Tags		Users
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{}
// @Router		/users/watch-history [GET]
func (h *Handler) GetWatchHistory(c *gin.Context) {
	videos, err := h.service.GetWatchHistory(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Watch history fetched successfully", videos)
}

// stageError keeps server-side staging failures (and their paths) out of
// the response.
func stageError(err error) error {
	if reason, ok := media.Rejection(err); ok {
		return ErrInvalidImage.WithDetails(reason)
	}
	return apierror.Internal("Could not process the uploaded file", err)
}
