package auth

import (
	"github.com/gin-gonic/gin"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
)

// IdentityMiddleware copies the session identity, if any, into the Gin
// context so handlers and templates can read it without the store.
func IdentityMiddleware(store SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := store.Current(c.Request.Context()); id != nil {
			c.Set(ContextKeyUserID, id.UserID)
			c.Set(ContextKeyUsername, id.Name)
		}
		c.Next()
	}
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 for anonymous requests.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUsername retrieves the authenticated user's name from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

// IsAuthenticated returns true if the request carries a signed-in session.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != 0
}

// TemplateData merges the values every page layout needs into data.
func TemplateData(c *gin.Context, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["IsAuthenticated"] = IsAuthenticated(c)
	data["Username"] = GetUsername(c)
	data["UserID"] = GetUserID(c)
	data["CSRFToken"] = GetCSRFToken(c)
	data["CSRFField"] = CSRFTokenField(c)
	return data
}
