package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vidtube/internal/media"
	"vidtube/internal/middleware"
	"vidtube/internal/pkg/apierror"
	"vidtube/internal/pkg/response"
)

const RefreshTokenCookie = "refreshToken"

// CookieOptions controls the session cookies set on login and refresh.
type CookieOptions struct {
	Secure     bool
	SameSite   http.SameSite
	Path       string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ParseSameSite maps Lax/None/Strict (any case) to http.SameSite.
func ParseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}

// Handler manages all HTTP interactions for the session lifecycle
type Handler struct {
	service *Service
	stager  *media.Stager
	cookies CookieOptions
}

func NewHandler(service *Service, stager *media.Stager, cookies CookieOptions) *Handler {
	if cookies.Path == "" {
		cookies.Path = "/"
	}
	return &Handler{service: service, stager: stager, cookies: cookies}
}

func (h *Handler) RegisterPublicRoutes(users *gin.RouterGroup) {
	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.POST("/refresh-token", h.RefreshToken)
}

func (h *Handler) RegisterProtectedRoutes(users *gin.RouterGroup) {
	users.POST("/logout", h.Logout)
	users.PATCH("/update-password", h.ChangePassword)
}

// Register creates an account from a multipart form.
// @Summary		Register a user
// @Tags		Auth
// @Accept		multipart/form-data
// @Param		username	formData	string	true	"Username"
// @Param		email		formData	string	true	"Email"
// @Param		fullName	formData	string	true	"Full name"
// @Param		password	formData	string	true	"Password"
// @Param		avatar		formData	file	true	"Avatar image"
// @Param		coverImage	formData	file	false	"Cover image"
// @Success		201	{object}	map[string]interface{}	"Created user without password and refresh token"
// @Failure		400	{object}	map[string]interface{}	"Blank field or missing avatar"
// @Failure		409	{object}	map[string]interface{}	"Username or email already taken"
// @Router		/users/register [POST]
func (h *Handler) Register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		response.Fail(c, apierror.Validation("Invalid request body"))
		return
	}

	avatarPath, err := h.stager.StageField(c.Request, "avatar")
	if err != nil && !errors.Is(err, media.ErrNoFile) {
		response.Fail(c, stageError(ErrAvatarRequired, err))
		return
	}
	coverPath, err := h.stager.StageField(c.Request, "coverImage")
	if err != nil && !errors.Is(err, media.ErrNoFile) {
		// a rejected cover is dropped like a failed cover upload
		if _, rejected := media.Rejection(err); !rejected {
			media.Discard(avatarPath)
			response.Fail(c, stageError(ErrAvatarRequired, err))
			return
		}
	}
	defer media.Discard(avatarPath, coverPath)

	user, err := h.service.Register(c.Request.Context(), RegisterInput{
		Username:       form.Username,
		Email:          form.Email,
		FullName:       form.FullName,
		Password:       form.Password,
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "User registered successfully", user)
}

// Login authenticates by username or email and sets the session cookies.
// @Summary		Log in
// @Tags		Auth
// @Param		request	body	LoginRequest	true	"username or email, and password"
// @Success		200	{object}	map[string]interface{}	"User and token pair"
// @Failure		400	{object}	map[string]interface{}	"No identifier supplied"
// @Failure		401	{object}	map[string]interface{}	"Wrong password"
// @Failure		404	{object}	map[string]interface{}	"No such user"
// @Router		/users/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Fail(c, apierror.Validation("Invalid request body"))
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.setSessionCookies(c, result.AccessToken, result.RefreshToken)
	response.Success(c, http.StatusOK, "User logged in successfully", result)
}

// Logout clears the stored refresh token and the session cookies.
// @Summary		Log out
// @Tags		Auth
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{}
// @Router		/users/logout [POST]
func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		response.Fail(c, err)
		return
	}

	h.clearSessionCookies(c)
	response.Success(c, http.StatusOK, "User logged out", gin.H{})
}

// RefreshToken exchanges the refresh token from the cookie or body.
// @Summary		Refresh the access token
// @Tags		Auth
// @Param		request	body	RefreshRequest	false	"refreshToken, when not sent as cookie"
// @Success		200	{object}	map[string]interface{}	"New token pair"
// @Failure		401	{object}	map[string]interface{}	"Missing, invalid, expired or already used token"
// @Router		/users/refresh-token [POST]
func (h *Handler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(RefreshTokenCookie)
	if token == "" {
		var req RefreshRequest
		_ = c.ShouldBind(&req)
		token = strings.TrimSpace(req.RefreshToken)
	}

	pair, err := h.service.RefreshAccessToken(c.Request.Context(), token)
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.setSessionCookies(c, pair.AccessToken, pair.RefreshToken)
	response.Success(c, http.StatusOK, "Access token refreshed", pair)
}

// ChangePassword verifies the old password and stores the new one.
// @Summary		Change password
// @Tags		Auth
// @Security	BearerAuth
// @Param		request	body	ChangePasswordRequest	true	"oldPassword and newPassword"
// @Success		200	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{}	"Old password does not match"
// @Router		/users/update-password [PATCH]
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Fail(c, apierror.Validation("Invalid request body"))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), middleware.CurrentUserID(c), req); err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Password changed successfully", gin.H{})
}

// stageError maps a staging failure to rejected with a client-safe reason,
// or to an internal error when the server could not stage the file.
func stageError(rejected *apierror.Error, err error) error {
	if reason, ok := media.Rejection(err); ok {
		return rejected.WithDetails(reason)
	}
	return apierror.Internal("Could not process the uploaded file", err)
}

func (h *Handler) setSessionCookies(c *gin.Context, access, refresh string) {
	c.SetSameSite(h.cookies.SameSite)
	c.SetCookie(middleware.AccessTokenCookie, access, int(h.cookies.AccessTTL.Seconds()), h.cookies.Path, "", h.cookies.Secure, true)
	c.SetCookie(RefreshTokenCookie, refresh, int(h.cookies.RefreshTTL.Seconds()), h.cookies.Path, "", h.cookies.Secure, true)
}

func (h *Handler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(h.cookies.SameSite)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, h.cookies.Path, "", h.cookies.Secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, h.cookies.Path, "", h.cookies.Secure, true)
}
