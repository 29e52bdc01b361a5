package http

import (
	"html/template"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Books    BookStore
	Database *database.Database
	Audit    ActivityLog
	Logger   *logrus.Logger

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	CSRFSecret     []byte // CSRF protection is off when empty
	SecureCookies  bool

	// UI
	TemplatesPath string
	StaticPath    string
	Templates     *template.Template // Overrides TemplatesPath when set
	Covers        CoverCache         // nil serves covers straight from their URLs
	PageSize      int

	// Application info
	Version string
}
