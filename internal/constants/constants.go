package constants

import "time"

// Context keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyPrincipal = "principal"
)

// Session
const (
	SessionCookieName = "issue_session"
	SessionKeyRefresh = "refresh_token"
)

// Authentication
const (
	MinPasswordLength      = 8
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 24 * time.Hour
	RefreshTokenBytes      = 48
)

// Pagination
const (
	MinPageSize  = 1
	MaxListLimit = 1000
)

// Uploads
const (
	MaxUploadFileSize  = 10 * 1024 * 1024
	MaxUploadFiles     = 5
	UploadFormField    = "files"
	UploadCommentField = "comment_id"
)

// Login rate limiting
const (
	DefaultLoginRateLimit  = 3
	DefaultLoginRateWindow = 10 * time.Minute
)
