package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/speaker-match-api/internal/middleware"
	"github.com/noah-isme/speaker-match-api/internal/models"
	appErrors "github.com/noah-isme/speaker-match-api/pkg/errors"
	"github.com/noah-isme/speaker-match-api/pkg/response"
)

// currentUser returns the authenticated caller. It writes a 401 and returns false when absent.
func currentUser(c *gin.Context) (models.UserInfo, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.UserInfo{}, false
	}
	return models.UserInfo{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     claims.Role,
	}, true
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Validation(err, message))
		return false
	}
	return true
}

// listQuery reads a list parameter given either repeated (?grades=a&grades=b) or comma separated.
func listQuery(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func boolQuery(c *gin.Context, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid "+key+" parameter")
	}
	return &val, nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if val, err := strconv.Atoi(c.Query(key)); err == nil {
		return val
	}
	return fallback
}
