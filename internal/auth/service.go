package auth

import (
	"errors"
	"fmt"

	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
)

var (
	ErrInvalidUsername  = errors.New("incorrect username")
	ErrInvalidPassword  = errors.New("incorrect password")
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrUserExists       = errors.New("user already exists")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	CreateUser(name, password string) (*entities.User, error)
	GetUserByID(id uint) (*entities.User, error)
	GetUserByName(name string) (*entities.User, error)
	UpdateUser(patch users.UserPatch, id uint) (*entities.User, error)
}

// Service handles authentication and user management.
// There is no rate limiting or lockout on failed attempts.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
}

// NewService creates a new authentication service.
func NewService(repo UserRepository, hasher PasswordHasher) *Service {
	if hasher == nil {
		hasher = PlaintextHasher{}
	}
	return &Service{
		users:  repo,
		hasher: hasher,
	}
}

// Authenticate validates credentials and returns the user.
func (s *Service) Authenticate(name, password string) (*entities.User, error) {
	user, err := s.users.GetUserByName(name)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrInvalidUsername
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.hasher.Compare(user.Password, password); err != nil {
		return nil, err
	}

	return user, nil
}

// Register creates a user. Names are unique at this layer even though the
// schema does not enforce it.
func (s *Service) Register(name, password string) (*entities.User, error) {
	if name == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	if err := s.ensureNameFree(name, 0); err != nil {
		return nil, err
	}

	stored, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	return s.users.CreateUser(name, stored)
}

// UpdateProfile changes the name and/or password of user id. Empty values
// leave the corresponding column unchanged.
func (s *Service) UpdateProfile(id uint, name, password string) (*entities.User, error) {
	var patch users.UserPatch

	if name != "" {
		if err := s.ensureNameFree(name, id); err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if password != "" {
		stored, err := s.hasher.Hash(password)
		if err != nil {
			return nil, err
		}
		patch.Password = &stored
	}

	return s.users.UpdateUser(patch, id)
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	return s.users.GetUserByID(id)
}

// ensureNameFree fails with ErrUserExists when name belongs to a user other
// than self.
func (s *Service) ensureNameFree(name string, self uint) error {
	existing, err := s.users.GetUserByName(name)
	switch {
	case err == nil:
		if existing.ID != self {
			return ErrUserExists
		}
		return nil
	case errors.Is(err, users.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check existing user: %w", err)
	}
}
