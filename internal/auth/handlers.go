package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/audit"
)

// Templates rendered by AuthController.
const (
	TemplateLogin    = "login.html"
	TemplateRegister = "register.html"
	TemplateNotice   = "notice.html"
)

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com) and scheme or backslash tricks
	if strings.HasPrefix(path, "//") || strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// AuthEventLogger records sign-in activity. *audit.Service satisfies it.
type AuthEventLogger interface {
	LogAuth(userID uint, action, name, ipAddr string, err error)
}

// AuthController handles login, registration and logout.
type AuthController struct {
	service  *Service
	sessions SessionStore
	audit    AuthEventLogger
	log      logrus.FieldLogger
}

// NewAuthController creates a new authentication controller. auditor may be nil.
func NewAuthController(service *Service, sessions SessionStore, auditor AuthEventLogger, log logrus.FieldLogger) *AuthController {
	if auditor == nil {
		auditor = (*audit.Service)(nil)
	}
	return &AuthController{
		service:  service,
		sessions: sessions,
		audit:    auditor,
		log:      log,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/signin", ac.LoginPage)
	router.POST("/signin", ac.Login)
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)
	router.GET("/logout", ac.Logout)
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if IsAuthenticated(c) {
		ac.renderAlreadyLoggedIn(c)
		return
	}

	c.HTML(http.StatusOK, TemplateLogin, TemplateData(c, gin.H{
		"Title": "Login",
		"Next":  sanitizeRedirectPath(c.Query("next")),
	}))
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	if IsAuthenticated(c) {
		ac.renderAlreadyLoggedIn(c)
		return
	}

	name := c.PostForm("name")
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))

	user, err := ac.service.Authenticate(name, password)
	if err != nil {
		ac.audit.LogAuth(0, audit.ActionLogin, name, c.ClientIP(), err)

		message := "Incorrect username."
		switch {
		case errors.Is(err, ErrInvalidPassword):
			message = "Incorrect password."
		case !errors.Is(err, ErrInvalidUsername):
			ac.log.WithError(err).Error("login failed")
			message = "Login failed, please try again."
		}

		c.HTML(http.StatusOK, TemplateLogin, TemplateData(c, gin.H{
			"Title": "Login",
			"Next":  next,
			"Name":  name,
			"Error": message,
		}))
		return
	}

	if _, err := ac.sessions.Establish(c.Request.Context(), user); err != nil {
		ac.log.WithError(err).Error("failed to establish session")
		c.HTML(http.StatusOK, TemplateLogin, TemplateData(c, gin.H{
			"Title": "Login",
			"Next":  next,
			"Name":  name,
			"Error": "Failed to create session",
		}))
		return
	}

	ac.audit.LogAuth(user.ID, audit.ActionLogin, user.Name, c.ClientIP(), nil)
	c.Redirect(http.StatusSeeOther, next)
}

// RegisterPage renders the registration form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	if IsAuthenticated(c) {
		ac.renderAlreadyLoggedIn(c)
		return
	}

	c.HTML(http.StatusOK, TemplateRegister, TemplateData(c, gin.H{
		"Title": "Register",
	}))
}

// Register creates the account, signs it in and shows its page.
func (ac *AuthController) Register(c *gin.Context) {
	if IsAuthenticated(c) {
		ac.renderAlreadyLoggedIn(c)
		return
	}

	name := c.PostForm("name")
	password := c.PostForm("password")

	user, err := ac.service.Register(name, password)
	if err != nil {
		var message string
		switch {
		case errors.Is(err, ErrUsernameRequired):
			message = "Name is required."
		case errors.Is(err, ErrPasswordRequired):
			message = "Password is required."
		case errors.Is(err, ErrUserExists):
			message = "That name is already taken."
		default:
			ac.log.WithError(err).Error("registration failed")
			message = "Registration failed, please try again."
		}
		ac.audit.LogAuth(0, audit.ActionRegister, name, c.ClientIP(), err)

		c.HTML(http.StatusOK, TemplateRegister, TemplateData(c, gin.H{
			"Title": "Register",
			"Name":  name,
			"Error": message,
		}))
		return
	}

	if _, err := ac.sessions.Establish(c.Request.Context(), user); err != nil {
		ac.log.WithError(err).Error("failed to establish session")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	ac.audit.LogAuth(user.ID, audit.ActionRegister, user.Name, c.ClientIP(), nil)
	c.Redirect(http.StatusSeeOther, "/mypage")
}

// Logout clears the session and returns to the list. Safe to call anonymously.
func (ac *AuthController) Logout(c *gin.Context) {
	if IsAuthenticated(c) {
		ac.audit.LogAuth(GetUserID(c), audit.ActionLogout, GetUsername(c), c.ClientIP(), nil)
	}

	if err := ac.sessions.Clear(c.Request.Context()); err != nil {
		ac.log.WithError(err).Warn("failed to clear session")
	}
	c.Redirect(http.StatusFound, "/")
}

func (ac *AuthController) renderAlreadyLoggedIn(c *gin.Context) {
	c.HTML(http.StatusOK, TemplateNotice, TemplateData(c, gin.H{
		"Title":   "Already Logged In",
		"Message": "You are already logged in as " + GetUsername(c) + ".",
	}))
}
