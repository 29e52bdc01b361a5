package http

import (
	"html/template"
	"io"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/logging"
)

// TemplateFuncs are available to every page template.
var TemplateFuncs = template.FuncMap{
	"add": func(a, b int) int {
		return a + b
	},
	"stars": func(n int) string {
		if n <= 0 {
			return ""
		}
		if n > 10 {
			n = 10
		}
		return strings.Repeat("★", n)
	},
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	var activity ActivityLog = cfg.Audit
	if activity == nil {
		activity = (*audit.Service)(nil)
	}

	router := gin.New()
	router.Use(logging.Middleware(log))
	router.Use(gin.Recovery())
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
		router.Use(auth.IdentityMiddleware(cfg.SessionManager))
	}

	tmpl := cfg.Templates
	if tmpl == nil {
		tmpl = template.Must(template.New("").Funcs(TemplateFuncs).ParseGlob(filepath.Join(cfg.TemplatesPath, "*.html")))
	}
	router.SetHTMLTemplate(tmpl)

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	if cfg.AuthService != nil && cfg.SessionManager != nil {
		auth.NewAuthController(cfg.AuthService, cfg.SessionManager, activity, log).RegisterRoutes(router)

		profiles := NewProfileController(cfg.Books, cfg.AuthService, cfg.SessionManager, activity, log)
		router.GET("/mypage", profiles.MyPage)
		router.GET("/mypage/edit/:id", profiles.EditPage)
		router.POST("/mypage/edit/:id", profiles.Edit)

		router.GET("/activity", NewActivityController(activity, log).ActivityPage)
	}

	search := NewSearchController(cfg.Books, log)
	router.GET("/search", search.SearchPage)
	router.POST("/search", search.Search)

	booksController := NewBooksController(cfg.Books, activity, cfg.Covers, log, cfg.PageSize)
	router.GET("/", booksController.List)
	router.GET("/add", booksController.AddPage)
	router.POST("/add", booksController.Add)
	router.GET("/:id", booksController.View)
	router.POST("/:id", booksController.View)
	router.GET("/:id/edit", booksController.EditPage)
	router.POST("/:id/edit", booksController.Edit)
	router.GET("/:id/delete", booksController.Delete)

	router.GET("/:id/cover", NewCoversController(cfg.Covers, cfg.Books, log).GetCover)

	return router
}
