package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vidtube/internal/domain"
	"vidtube/internal/pkg/jwt"
	"vidtube/internal/pkg/response"
)

const (
	ctxUserID = "user_id"
	ctxUser   = "user"

	AccessTokenCookie = "accessToken"
)

type AccessVerifier interface {
	VerifyAccess(token string) (*jwt.AccessClaims, error)
}

// UserLoader returns the sanitized user for a verified token subject.
type UserLoader interface {
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
}

// JWTAuth authenticates the request with the access token from the
// Authorization header or the accessToken cookie, then loads the user.
// Handlers read it back with CurrentUser / CurrentUserID.
func JWTAuth(verifier AccessVerifier, users UserLoader, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		token, code := accessToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, code, "Unauthorized request")
			c.Abort()
			return
		}

		claims, err := verifier.VerifyAccess(token)
		if err != nil {
			log.Debug("access token rejected",
				zap.String("reason", jwt.Reason(err)),
				zap.String("request_id", requestID(c)),
			)
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid access token")
			c.Abort()
			return
		}

		user, err := users.CurrentUser(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid access token")
			c.Abort()
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Set(ctxUser, user)
		c.Next()
	}
}

// accessToken prefers the cookie, as browsers send it implicitly. When no
// token is found the second value is the error code to report.
func accessToken(c *gin.Context) (string, string) {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie, ""
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		return "", "AUTH_HEADER_MISSING"
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "INVALID_AUTH_FORMAT"
	}
	return strings.TrimSpace(parts[1]), ""
}

func CurrentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}
