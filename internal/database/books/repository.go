// Package books provides the book record store and the query layer built on
// top of it.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	fields, err := books.ParseForm(form)
//	book, err := repo.Create(fields)
//	page, next, err := repo.List(10, 0)
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var ErrNotFound = errors.New("book not found")

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a book built from the supplied fields and returns it with
// its generated id.
func (r *Repository) Create(fields Fields) (*entities.Book, error) {
	book := &entities.Book{}
	fields.apply(book)

	if err := r.db.Create(book).Error; err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return book, nil
}

// Read retrieves a book by id. A missing book yields nil with no error.
func (r *Repository) Read(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &book, nil
}

// Update overwrites the supplied fields of an existing book.
// Returns ErrNotFound when no book has the given id.
func (r *Repository) Update(fields Fields, id uint) (*entities.Book, error) {
	book, err := r.Read(id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrNotFound
	}

	if fields.IsEmpty() {
		return book, nil
	}

	if err := r.db.Model(book).Updates(fields.columns()).Error; err != nil {
		return nil, fmt.Errorf("failed to update book %d: %w", id, err)
	}
	fields.apply(book)

	return book, nil
}

// Delete removes a book by id. Deleting a missing id is a no-op.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.Book{}, id).Error
}
