// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or mysql) and table bootstrap
//	├── books/           # Book record store and query layer
//	├── users/           # User record store
//	└── audit/           # Audit event persistence
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database, database.Options{})
//
//	booksRepo := books.NewRepository(db.DB)
//	usersRepo := users.NewRepository(db.DB)
//
//	book, err := booksRepo.Read(123)      // nil, nil when absent
//	page, next, err := booksRepo.List(10, 0)
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register the entity in Database.Migrate
//  5. Add compile-time interface checks in internal/interfaces
package database
