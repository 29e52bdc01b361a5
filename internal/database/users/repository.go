// Package users provides database operations for login identities.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByName("alice")
package users

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var ErrNotFound = errors.New("user not found")

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UserPatch lists the user columns an update may touch. Nil means unchanged.
type UserPatch struct {
	Name     *string
	Password *string
}

// CreateUser stores a user. password is persisted as given; hashing, when
// configured, happens before this call.
func (r *Repository) CreateUser(name, password string) (*entities.User, error) {
	user := &entities.User{
		Name:     name,
		Password: password,
	}

	if err := r.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByName retrieves the first user registered under name.
func (r *Repository) GetUserByName(name string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("name = ?", name).Order("id ASC").First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies the supplied patch fields to user id.
func (r *Repository) UpdateUser(patch UserPatch, id uint) (*entities.User, error) {
	user, err := r.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	cols := make(map[string]any)
	if patch.Name != nil {
		cols["name"] = *patch.Name
		user.Name = *patch.Name
	}
	if patch.Password != nil {
		cols["password"] = *patch.Password
		user.Password = *patch.Password
	}
	if len(cols) == 0 {
		return user, nil
	}

	if err := r.db.Model(&entities.User{ID: id}).Updates(cols).Error; err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return user, nil
}

// CountUsers returns the number of registered users.
func (r *Repository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}
