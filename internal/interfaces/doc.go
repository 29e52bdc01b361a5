// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BookStore: record store and query layer for books (internal/http/stores.go)
//   - UserRepository: user rows behind the auth service (internal/auth/service.go)
//   - AuditEventCleaner: retention deletes for audit_events (internal/tasks/cleanup_audit.go)
//
// ## Authentication Interfaces
//
//   - PasswordHasher: plaintext or bcrypt password storage (internal/auth/password.go)
//   - SessionStore: the signed-in identity kept in the session (internal/auth/sessions.go)
//   - ProfileStore: profile reads and edits for /mypage (internal/http/stores.go)
//
// ## Audit Interfaces
//
//   - ActivityLog: book and account events plus the activity pages (internal/http/stores.go)
//   - AuthEventLogger: login, logout and register events (internal/auth/handlers.go)
//
// A nil *audit.Service satisfies both and records nothing.
//
// ## Background Work
//
//   - AuditCleanupEnqueuer: hands a retention pass to the backlite queue or runs
//     it inline (internal/scheduler/audit_cleanup.go)
//
// # Adding a Store
//
// Define the interface next to its consumer, accept it in the constructor,
// and add a compile-time check to checks.go:
//
//	var _ http.BookStore = (*books.Repository)(nil)
package interfaces
