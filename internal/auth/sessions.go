package auth

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID   = "user_id"
	SessionKeyUsername = "username"
)

// Identity is the signed-in user as recorded in the session.
type Identity struct {
	UserID uint
	Name   string
}

// SessionStore is the per-request view of session state. Every method reads
// or writes the session loaded into ctx by the session middleware.
type SessionStore interface {
	// Establish binds user to a fresh session token and returns the token.
	Establish(ctx context.Context, user *entities.User) (string, error)
	// Current returns the signed-in identity, or nil for an anonymous session.
	Current(ctx context.Context) *Identity
	// Clear drops the session. Clearing an anonymous session is a no-op.
	Clear(ctx context.Context) error
	// Rename updates the name stored for the current identity.
	Rename(ctx context.Context, name string)
}

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
}

var _ SessionStore = (*SessionManager)(nil)

// NewSessionManager creates a configured session manager.
// Sessions are kept in Redis when cfg.RedisAddr is set, otherwise in sqlDB
// (the *sql.DB under GORM's SQLite connection) when non-nil, otherwise in
// process memory.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()

	switch {
	case cfg.RedisAddr != "":
		sm.Store = NewRedisStore(redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		}), "")
	case sqlDB != nil:
		_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
		if err != nil {
			return nil, err
		}
		sm.Store = sqlite3store.New(sqlDB)
	default:
		sm.Store = memstore.New()
	}

	if cfg.SessionLifetime > 0 {
		sm.Lifetime = cfg.SessionLifetime
	}

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// Establish renews the session token to prevent fixation, then records the
// user in it.
func (sm *SessionManager) Establish(ctx context.Context, user *entities.User) (string, error) {
	if err := sm.RenewToken(ctx); err != nil {
		return "", err
	}

	// Store user ID as int to match GetInt() retrieval
	sm.Put(ctx, SessionKeyUserID, int(user.ID))
	sm.Put(ctx, SessionKeyUsername, user.Name)

	return sm.Token(ctx), nil
}

func (sm *SessionManager) Current(ctx context.Context) *Identity {
	userID := sm.GetInt(ctx, SessionKeyUserID)
	if userID <= 0 {
		return nil
	}
	return &Identity{
		UserID: uint(userID),
		Name:   sm.GetString(ctx, SessionKeyUsername),
	}
}

func (sm *SessionManager) Clear(ctx context.Context) error {
	return sm.Destroy(ctx)
}

func (sm *SessionManager) Rename(ctx context.Context, name string) {
	sm.Put(ctx, SessionKeyUsername, name)
}
