package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/barangay-api/internal/middleware"
	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
	"github.com/noah-isme/barangay-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// currentUser writes a 401 and reports false when the route ran without JWT claims.
func currentUser(c *gin.Context) (*models.JWTClaims, bool) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// clientOf prefers the caller recorded by the JWT middleware and falls back to
// the raw request on public routes.
func clientOf(c *gin.Context) models.ClientInfo {
	if info := models.ClientFrom(c.Request.Context()); info.IP != "" {
		return info
	}
	return models.ClientInfo{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}
