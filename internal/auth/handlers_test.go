package auth

import (
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database/users"
)

const testAuthTemplates = `
{{define "login.html"}}login form {{.Error}}{{end}}
{{define "register.html"}}register form {{.Error}}{{end}}
{{define "notice.html"}}{{.Title}}: {{.Message}}{{end}}
`

func setupAuthRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()

	svc := NewService(users.NewRepository(setupTestDB(t)), PlaintextHasher{})
	sm, err := NewSessionManager(nil, config.Auth{SessionLifetime: time.Hour})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.New("auth").Parse(testAuthTemplates)))
	router.Use(sm.SessionLoadSave(), IdentityMiddleware(sm))
	NewAuthController(svc, sm, nil, log).RegisterRoutes(router)
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, GetUsername(c))
	})

	return router, svc
}

func doPost(router http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestAuthController_RegisterLoginLogout(t *testing.T) {
	router, _ := setupAuthRouter(t)

	rr := doPost(router, "/register", url.Values{"name": {"alice"}, "password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/mypage", rr.Header().Get("Location"))
	cookie := sessionCookie(t, rr)

	rr = doGet(router, "/whoami", cookie)
	assert.Equal(t, "alice", rr.Body.String())

	for _, path := range []string{"/login", "/signin", "/register"} {
		rr = doGet(router, path, cookie)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Already Logged In", path)
	}

	rr = doGet(router, "/logout", cookie)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	rr = doGet(router, "/login", cookie)
	assert.Contains(t, rr.Body.String(), "login form")

	rr = doPost(router, "/signin", url.Values{"name": {"alice"}, "password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	rr = doGet(router, "/whoami", sessionCookie(t, rr))
	assert.Equal(t, "alice", rr.Body.String())
}

func TestAuthController_LoginFailures(t *testing.T) {
	router, svc := setupAuthRouter(t)
	_, err := svc.Register("alice", "Secret")
	require.NoError(t, err)

	rr := doPost(router, "/login", url.Values{"name": {"bob"}, "password": {"Secret"}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Incorrect username.")

	rr = doPost(router, "/login", url.Values{"name": {"alice"}, "password": {"secret"}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Incorrect password.")
}

func TestAuthController_LoginRedirectsToLocalNext(t *testing.T) {
	router, svc := setupAuthRouter(t)
	_, err := svc.Register("alice", "pw")
	require.NoError(t, err)

	rr := doPost(router, "/login", url.Values{"name": {"alice"}, "password": {"pw"}, "next": {"/mypage"}})
	assert.Equal(t, "/mypage", rr.Header().Get("Location"))

	rr = doPost(router, "/login", url.Values{"name": {"alice"}, "password": {"pw"}, "next": {"//evil.example"}})
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestAuthController_RegisterFailures(t *testing.T) {
	router, svc := setupAuthRouter(t)
	_, err := svc.Register("alice", "pw")
	require.NoError(t, err)

	rr := doPost(router, "/register", url.Values{"name": {""}, "password": {"pw"}})
	assert.Contains(t, rr.Body.String(), "Name is required.")

	rr = doPost(router, "/register", url.Values{"name": {"bob"}, "password": {""}})
	assert.Contains(t, rr.Body.String(), "Password is required.")

	rr = doPost(router, "/register", url.Values{"name": {"alice"}, "password": {"x"}})
	assert.Contains(t, rr.Body.String(), "That name is already taken.")
}

func TestAuthController_LogoutWhenAnonymous(t *testing.T) {
	router, _ := setupAuthRouter(t)

	rr := doGet(router, "/logout")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestSanitizeRedirectPath(t *testing.T) {
	assert.Equal(t, "/mypage", sanitizeRedirectPath("/mypage"))
	assert.Equal(t, "/", sanitizeRedirectPath(""))
	assert.Equal(t, "/", sanitizeRedirectPath("https://evil.example"))
	assert.Equal(t, "/", sanitizeRedirectPath("//evil.example"))
	assert.Equal(t, "/", sanitizeRedirectPath("/\\evil"))
}
