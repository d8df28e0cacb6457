package auth

import "vidtube/internal/pkg/apierror"

var (
	ErrFieldsRequired      = apierror.Validation("All fields are required")
	ErrIdentifierRequired  = apierror.Validation("username or email is required")
	ErrAvatarRequired      = apierror.Validation("Avatar file is required")
	ErrNewPasswordRequired = apierror.Validation("New password is required")
	ErrUserExists          = apierror.Conflict("User with email or username already exists")
	ErrUserNotFound        = apierror.NotFound("User does not exist")
	ErrInvalidCredentials  = apierror.Unauthorized("Invalid user credentials")
	ErrInvalidOldPassword  = apierror.Unauthorized("Invalid old password")
	ErrUnauthorizedRequest = apierror.Unauthorized("Unauthorized request")
	ErrInvalidRefreshToken = apierror.Unauthorized("Invalid refresh token")
	ErrRefreshTokenUsed    = apierror.Unauthorized("Refresh token is expired or used")
	ErrTokenGeneration     = apierror.Internal("Something went wrong while generating access and refresh tokens", nil)
	ErrRegistrationFailed  = apierror.Internal("Something went wrong while registering the user", nil)
)
