package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database/users"
)

const recentActivityLimit = 10

// ProfileController serves the signed-in user's own pages.
type ProfileController struct {
	books    BookStore
	profiles ProfileStore
	sessions auth.SessionStore
	audit    ActivityLog
	log      logrus.FieldLogger
}

// NewProfileController creates a new ProfileController.
func NewProfileController(store BookStore, profiles ProfileStore, sessions auth.SessionStore, auditLog ActivityLog, log logrus.FieldLogger) *ProfileController {
	return &ProfileController{
		books:    store,
		profiles: profiles,
		sessions: sessions,
		audit:    auditLog,
		log:      log,
	}
}

// MyPage lists the books created by the signed-in user.
func (pc *ProfileController) MyPage(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == 0 {
		renderNotLoggedIn(c)
		return
	}

	owned, err := pc.books.ListByOwner(strconv.FormatUint(uint64(userID), 10))
	if err != nil {
		renderInternalError(c, pc.log, err, "list owned books")
		return
	}

	activity, err := pc.audit.RecentForUser(userID, recentActivityLimit)
	if err != nil {
		pc.log.WithError(err).Warn("failed to load recent activity")
	}

	render(c, http.StatusOK, templateMyPage, gin.H{
		"Title":    "My books",
		"Books":    owned,
		"Activity": activity,
	})
}

// EditPage renders the profile form for the signed-in user.
func (pc *ProfileController) EditPage(c *gin.Context) {
	id, ok := pc.ownProfileID(c)
	if !ok {
		return
	}

	user, err := pc.profiles.GetUserByID(id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			renderError(c, http.StatusNotFound, "User not found.")
			return
		}
		renderInternalError(c, pc.log, err, "load profile")
		return
	}

	render(c, http.StatusOK, templateProfile, gin.H{
		"Title": "Edit profile",
		"Name":  user.Name,
	})
}

// Edit updates name and/or password and keeps the session name in step.
func (pc *ProfileController) Edit(c *gin.Context) {
	id, ok := pc.ownProfileID(c)
	if !ok {
		return
	}

	name := c.PostForm("name")
	password := c.PostForm("password")

	user, err := pc.profiles.UpdateProfile(id, name, password)
	if err != nil {
		var message string
		switch {
		case errors.Is(err, auth.ErrUserExists):
			message = "That name is already taken."
		case errors.Is(err, users.ErrNotFound):
			renderError(c, http.StatusNotFound, "User not found.")
			return
		default:
			renderInternalError(c, pc.log, err, "update profile")
			return
		}
		pc.audit.LogAuth(id, audit.ActionProfile, name, c.ClientIP(), err)

		render(c, http.StatusOK, templateProfile, gin.H{
			"Title": "Edit profile",
			"Name":  name,
			"Error": message,
		})
		return
	}

	pc.sessions.Rename(c.Request.Context(), user.Name)
	pc.audit.LogAuth(id, audit.ActionProfile, user.Name, c.ClientIP(), nil)
	c.Redirect(http.StatusSeeOther, "/mypage")
}

// ownProfileID returns the :id parameter when it names the signed-in user,
// rendering the appropriate page otherwise.
func (pc *ProfileController) ownProfileID(c *gin.Context) (uint, bool) {
	userID := auth.GetUserID(c)
	if userID == 0 {
		renderNotLoggedIn(c)
		return 0, false
	}

	id, ok := parseID(c, "id")
	if !ok || id != userID {
		renderError(c, http.StatusForbidden, "You can only edit your own profile.")
		return 0, false
	}
	return id, true
}

func renderNotLoggedIn(c *gin.Context) {
	render(c, http.StatusOK, auth.TemplateNotice, gin.H{
		"Title":   "Not logged in",
		"Message": "You are not logged in yet.",
	})
}
