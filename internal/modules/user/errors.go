package user

import "vidtube/internal/pkg/apierror"

var (
	ErrFieldsRequired  = apierror.Validation("All fields are required")
	ErrAvatarMissing   = apierror.Validation("Avatar file is missing")
	ErrAvatarUpload    = apierror.Validation("Error while uploading avatar")
	ErrCoverMissing    = apierror.Validation("Cover image file is missing")
	ErrCoverUpload     = apierror.Validation("Error while uploading cover image")
	ErrInvalidImage    = apierror.Validation("Invalid image file")
	ErrUsernameMissing = apierror.Validation("username is missing")
	ErrEmailTaken      = apierror.Conflict("Email is already in use")
	ErrUserNotFound    = apierror.NotFound("User does not exist")
	ErrChannelNotFound = apierror.NotFound("channel does not exist")
)
