package http

import (
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// This file consolidates the store interfaces used by HTTP controllers.

// BookStore is the record store and query layer for books.
type BookStore interface {
	Create(fields books.Fields) (*entities.Book, error)
	Read(id uint) (*entities.Book, error)
	Update(fields books.Fields, id uint) (*entities.Book, error)
	Delete(id uint) error
	List(limit, cursor int) ([]entities.Book, *int, error)
	Search(q books.SearchQuery) ([]entities.Book, error)
	ListByOwner(ownerID string) ([]entities.Book, error)
}

// ProfileStore reads and edits the signed-in user's account.
type ProfileStore interface {
	GetUserByID(id uint) (*entities.User, error)
	UpdateProfile(id uint, name, password string) (*entities.User, error)
}

// ActivityLog records and lists audit events. *audit.Service satisfies it,
// including a nil one.
type ActivityLog interface {
	LogBookCreate(userID uint, book *entities.Book, ipAddr string)
	LogBookUpdate(userID uint, book *entities.Book, ipAddr string)
	LogBookDelete(userID uint, bookID uint, ipAddr string)
	LogAuth(userID uint, action, name, ipAddr string, err error)
	RecentForUser(userID uint, limit int) ([]entities.AuditEvent, error)
	Events(userID uint, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
}
