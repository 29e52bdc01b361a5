package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/covers"
	auditrepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// BookStore implementations
var _ http.BookStore = (*books.Repository)(nil)

// UserRepository implementations
var _ auth.UserRepository = (*users.Repository)(nil)

// CoverCache implementations
var _ http.CoverCache = (*covers.Cache)(nil)

// AuditEventCleaner implementations
var _ tasks.AuditEventCleaner = (*auditrepo.Repository)(nil)

// =============================================================================
// Authentication
// =============================================================================

var _ http.ProfileStore = (*auth.Service)(nil)
var _ auth.SessionStore = (*auth.SessionManager)(nil)
var _ scs.CtxStore = (*auth.RedisStore)(nil)
var _ auth.PasswordHasher = auth.PlaintextHasher{}
var _ auth.PasswordHasher = auth.BcryptHasher{}

// =============================================================================
// Audit Trail
// =============================================================================

var _ http.ActivityLog = (*audit.Service)(nil)
var _ auth.AuthEventLogger = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ scheduler.AuditCleanupEnqueuer = (*tasks.Client)(nil)
var _ scheduler.AuditCleanupEnqueuer = tasks.InlineAuditCleanup{}
