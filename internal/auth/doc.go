// Package auth signs users in and out.
//
// Users authenticate with a name and password. The password is stored as
// supplied by default (AUTH_PASSWORD_SCHEME=plaintext) so databases created
// by the original bookshelf keep working; AUTH_PASSWORD_SCHEME=bcrypt stores
// bcrypt hashes instead. There is no rate limiting or lockout.
//
// Session state lives server-side in scs and is reached through the
// SessionStore interface. Forms are protected by gorilla/csrf.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<any string>   # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h          # Session duration
//	AUTH_PASSWORD_SCHEME=plaintext     # or bcrypt
//	AUTH_BCRYPT_COST=12                # bcrypt cost factor
//	AUTH_SECURE_COOKIES=false          # HTTPS-only cookies
//	AUTH_CSRF_ENABLED=true
//
// # Usage
//
//	sm, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	router.Use(sm.SessionLoadSave(), auth.IdentityMiddleware(sm))
//
// Extract user in handlers:
//
//	userID := auth.GetUserID(c) // 0 when anonymous
package auth
