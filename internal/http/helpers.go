package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/logging"
)

// Template names
const (
	templateList    = "list.html"
	templateView    = "view.html"
	templateForm    = "form.html"
	templateSearch  = "search.html"
	templateMyPage  = "mypage.html"
	templateProfile = "profile.html"
	templateError   = "error.html"
)

// render executes a page template with the per-request layout data merged in.
func render(c *gin.Context, status int, name string, data gin.H) {
	c.HTML(status, name, auth.TemplateData(c, data))
}

// renderError renders the error page with the given status.
func renderError(c *gin.Context, status int, message string) {
	render(c, status, templateError, gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}

// renderInternalError logs the error and renders a generic 500 page.
// The actual error is logged but not exposed to the client.
func renderInternalError(c *gin.Context, log logrus.FieldLogger, err error, context string) {
	logging.WithRequest(log, c).WithError(err).Errorf("internal error (%s)", context)
	_ = c.Error(err)
	renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

// parseID parses a positive integer path parameter.
func parseID(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parsePageToken reads the page_token query parameter as a non-negative offset.
// An absent token means the first page.
func parsePageToken(c *gin.Context) (int, bool) {
	raw := c.Query("page_token")
	if raw == "" {
		return 0, true
	}
	cursor, err := strconv.Atoi(raw)
	if err != nil || cursor < 0 {
		return 0, false
	}
	return cursor, true
}

// firstNonEmpty returns the first non-empty form value among keys.
func firstNonEmpty(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if v := c.PostForm(key); v != "" {
			return v
		}
		if v := c.Query(key); v != "" {
			return v
		}
	}
	return ""
}

func uintToString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
