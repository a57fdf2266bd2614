package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/auth"
	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/profile"
)

const (
	identityKey = "auth_identity"
	profileKey  = "auth_profile"
)

// Authenticate verifies the bearer token and stores the caller's identity in
// the request context.
func Authenticate(v *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := v.Verify(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, err.Error())
			return
		}

		c.Set(identityKey, IdentityFromClaims(claims))
		c.Next()
	}
}

// ResolveProfile loads the caller's profile, creating it with a default farm on
// first use. It must run after Authenticate.
func ResolveProfile(profiles *profile.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := Identity(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}

		p, err := profiles.Resolve(c.Request.Context(), id)
		if err != nil {
			c.Error(err)
			if apperrors.Is(err, apperrors.KindUnauthorized) {
				abort(c, http.StatusUnauthorized, "authentication required")
				return
			}
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.Set(profileKey, p)
		c.Next()
	}
}

func IdentityFromClaims(claims *auth.JWTClaims) profile.Identity {
	first, last := claims.Names()
	return profile.Identity{
		Subject:   claims.Subject,
		FirstName: first,
		LastName:  last,
		AvatarURL: claims.Picture,
	}
}

func Identity(c *gin.Context) (profile.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return profile.Identity{}, false
	}
	id, ok := v.(profile.Identity)
	return id, ok
}

// CurrentProfile returns the profile set by ResolveProfile.
func CurrentProfile(c *gin.Context) *models.Profile {
	v, ok := c.Get(profileKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Profile)
	return p
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}
