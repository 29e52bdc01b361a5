package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const (
	templateActivity  = "activity.html"
	activityPageLimit = 25
)

// EventTypeOption is one entry of the activity filter dropdown.
type EventTypeOption struct {
	Value string
	Label string
}

// ActivityController shows the signed-in user's audit trail.
type ActivityController struct {
	audit ActivityLog
	log   logrus.FieldLogger
}

func NewActivityController(auditLog ActivityLog, log logrus.FieldLogger) *ActivityController {
	return &ActivityController{audit: auditLog, log: log}
}

// ActivityPage renders one page of audit events.
// GET /activity?page=N&type=create
func (ac *ActivityController) ActivityPage(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == 0 {
		renderNotLoggedIn(c)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	eventType := entities.AuditEventType(c.Query("type"))

	events, total, err := ac.audit.Events(userID, eventType, activityPageLimit, (page-1)*activityPageLimit)
	if err != nil {
		renderInternalError(c, ac.log, err, "load activity")
		return
	}

	totalPages := (int(total) + activityPageLimit - 1) / activityPageLimit
	if totalPages < 1 {
		totalPages = 1
	}

	render(c, http.StatusOK, templateActivity, gin.H{
		"Title":       "Activity",
		"Events":      events,
		"CurrentPage": page,
		"TotalPages":  totalPages,
		"TotalEvents": total,
		"EventType":   string(eventType),
		"EventTypes":  eventTypeOptions(),
	})
}

func eventTypeOptions() []EventTypeOption {
	return []EventTypeOption{
		{Value: "", Label: "All events"},
		{Value: string(entities.AuditEventCreate), Label: "Added"},
		{Value: string(entities.AuditEventUpdate), Label: "Edited"},
		{Value: string(entities.AuditEventDelete), Label: "Deleted"},
		{Value: string(entities.AuditEventAuth), Label: "Sign-ins"},
	}
}
