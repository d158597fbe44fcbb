package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/bloodlink/internal/middleware"
)

func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}

// currentUserID returns the authenticated user id placed by the auth middleware.
func currentUserID(c *gin.Context) (string, bool) {
	value, ok := c.Get(middleware.CtxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

func currentSessionID(c *gin.Context) (string, bool) {
	value, ok := c.Get(middleware.CtxSessionIDKey)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

func currentRole(c *gin.Context) string {
	value, ok := c.Get(middleware.CtxRoleKey)
	if !ok {
		return ""
	}
	role, _ := value.(string)
	return role
}
