package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/auth"
)

var csrfFieldPattern = regexp.MustCompile(`name="` + regexp.QuoteMeta(auth.CSRFFieldName) + `" value="([^"]+)"`)

// browser drives the router with the shipped templates and CSRF on,
// carrying cookies between requests.
type browser struct {
	app     *testApp
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T) *browser {
	t.Helper()
	app := setupApp(t, func(cfg *RouterConfig) {
		cfg.Templates = nil
		cfg.TemplatesPath = "../../templates"
		cfg.CSRFSecret = auth.CSRFKey("rendering-secret")
	})
	return &browser{app: app, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	b.app.router.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rr
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// submit loads formPage, copies its CSRF token into form and posts it to action.
func (b *browser) submit(t *testing.T, formPage, action string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	page := b.get(formPage)
	require.Equal(t, http.StatusOK, page.Code, formPage)
	m := csrfFieldPattern.FindStringSubmatch(page.Body.String())
	require.Len(t, m, 2, "no token on %s", formPage)

	form.Set(auth.CSRFFieldName, m[1])
	req := httptest.NewRequest(http.MethodPost, action, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func TestTemplates_Anonymous(t *testing.T) {
	b := newBrowser(t)
	dune := b.app.createBook(t, "Dune", "Frank Herbert")

	tests := []struct {
		path   string
		status int
		marker string
	}{
		{"/", http.StatusOK, `<a href="/` + fmt.Sprint(dune.ID) + `">Dune</a>`},
		{fmt.Sprintf("/%d", dune.ID), http.StatusOK, "<h1>Dune</h1>"},
		{"/999", http.StatusNotFound, "Book not found"},
		{"/add", http.StatusOK, `name="` + auth.CSRFFieldName + `"`},
		{fmt.Sprintf("/%d/edit", dune.ID), http.StatusOK, `value="Frank Herbert"`},
		{"/search", http.StatusOK, `<select name="category">`},
		{"/login", http.StatusOK, "<h1>Login</h1>"},
		{"/register", http.StatusOK, "<h1>Register</h1>"},
		{"/mypage", http.StatusOK, "You are not logged in yet."},
		{"/activity", http.StatusOK, "You are not logged in yet."},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := b.get(tt.path)
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.marker)
			assert.Contains(t, rr.Body.String(), `<a href="/login">Login</a>`)
		})
	}
}

func TestTemplates_SignedIn(t *testing.T) {
	b := newBrowser(t)

	rr := b.submit(t, "/register", "/register", url.Values{"name": {"alice"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/mypage", rr.Header().Get("Location"))
	require.Contains(t, b.cookies, "session")

	rr = b.submit(t, "/add", "/add", url.Values{
		"title":         {"Dune"},
		"author":        {"Frank Herbert"},
		"publishedDate": {"1965.08.01"},
		"rating":        {"5"},
	})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	bookPage := rr.Header().Get("Location")
	b.app.audit.Wait()

	rr = b.get(bookPage)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Added by alice")
	assert.Contains(t, rr.Body.String(), "★★★★★")

	tests := []struct {
		path   string
		marker string
	}{
		{"/", `<a href="/mypage">alice</a>`},
		{"/mypage", "alice's books"},
		{"/mypage", "Recent activity"},
		{"/mypage/edit/1", "<h1>Edit profile</h1>"},
		{"/activity", "Page 1 of 1"},
		{"/login", "Already Logged In"},
		{"/register", "Already Logged In"},
		{bookPage + "/edit", `value="1965.08.01"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := b.get(tt.path)
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.marker)
		})
	}

	t.Run("search results", func(t *testing.T) {
		rr := b.submit(t, "/search", "/search", url.Values{"category": {"Title"}, "q": {"Dun"}})
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `<a href="`+bookPage+`">Dune</a>`)
	})

	t.Run("invalid edit shows the error", func(t *testing.T) {
		rr := b.submit(t, bookPage+"/edit", bookPage+"/edit", url.Values{"bogus": {"x"}})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `<p class="error">`)
	})

	t.Run("post without token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader("title=Emma"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.Equal(t, http.StatusForbidden, b.do(req).Code)
	})
}
