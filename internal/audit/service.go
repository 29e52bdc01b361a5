// Package audit records who changed which book and when, and who signed in.
package audit

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const maxMessageLen = 500

// Auth actions recorded by LogAuth.
const (
	ActionLogin    = "login"
	ActionLogout   = "logout"
	ActionRegister = "register"
	ActionProfile  = "profile_update"
)

// Service provides high-level audit logging functionality.
// A nil *Service is valid and records nothing.
type Service struct {
	repo *audit.Repository
	log  logrus.FieldLogger
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, log: log}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	if s == nil {
		return nil
	}
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	if s == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			s.log.WithError(err).WithField("action", event.Action).Warn("failed to log audit event")
		}
	}()
}

// Wait blocks until every pending LogAsync write has finished.
func (s *Service) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

// LogBookCreate records a new book.
func (s *Service) LogBookCreate(userID uint, book *entities.Book, ipAddr string) {
	s.logBook(userID, entities.AuditEventCreate, "book_create", "Added book: "+book.Title, book.ID, ipAddr)
}

// LogBookUpdate records an edit of an existing book.
func (s *Service) LogBookUpdate(userID uint, book *entities.Book, ipAddr string) {
	s.logBook(userID, entities.AuditEventUpdate, "book_update", "Edited book: "+book.Title, book.ID, ipAddr)
}

// LogBookDelete records a deletion. The id may not have existed.
func (s *Service) LogBookDelete(userID uint, bookID uint, ipAddr string) {
	s.logBook(userID, entities.AuditEventDelete, "book_delete", fmt.Sprintf("Deleted book #%d", bookID), bookID, ipAddr)
}

func (s *Service) logBook(userID uint, eventType entities.AuditEventType, action, description string, bookID uint, ipAddr string) {
	if s == nil {
		return
	}
	id := bookID
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   eventType,
		Action:      action,
		Description: truncate(description, maxMessageLen),
		EntityType:  "book",
		EntityID:    &id,
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogAuth records an authentication event. err is the reason for a failure.
func (s *Service) LogAuth(userID uint, action, name, ipAddr string, err error) {
	if s == nil {
		return
	}
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventAuth,
		Action:      action,
		Description: truncate(action+": "+name, maxMessageLen),
		EntityType:  "user",
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	}
	if userID > 0 {
		id := userID
		event.EntityID = &id
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxMessageLen)
	}

	s.LogAsync(event)
}

// RecentForUser returns the latest events caused by userID.
func (s *Service) RecentForUser(userID uint, limit int) ([]entities.AuditEvent, error) {
	if s == nil {
		return nil, nil
	}
	events, _, err := s.repo.GetEvents(audit.EventFilter{UserID: userID}, limit, 0)
	return events, err
}

// Events returns a page of userID's events, optionally narrowed to one type,
// together with the total number of matches.
func (s *Service) Events(userID uint, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	if s == nil {
		return nil, 0, nil
	}
	return s.repo.GetEvents(audit.EventFilter{UserID: userID, EventType: eventType}, limit, offset)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
