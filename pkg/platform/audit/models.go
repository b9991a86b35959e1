package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies and routing.
type EventCategory string

const (
	// CategorySecurity covers events relevant to security monitoring:
	// logins, login failures, token issuance.
	CategorySecurity EventCategory = "security"

	// CategoryContent covers editorial actions on the blog:
	// article/category/tag lifecycle.
	CategoryContent EventCategory = "content"

	// CategoryOperations covers events useful for debugging and operational
	// visibility, such as presigned upload URLs being handed out.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// UserID is the account the action concerns.
	UserID string
	// ActorID tracks who performed the action when different from UserID,
	// e.g. an admin editing another author's article.
	ActorID string
	// Subject identifies the affected entity (article ID, category slug, ...).
	Subject string
	Action  string
	Reason  string
	// Device is a human-readable browser/OS summary captured at login.
	Device    string
	RequestID string
}

type AuditEvent string

const (
	EventUserLogin       AuditEvent = "user_login"
	EventLoginFailed     AuditEvent = "login_failed"
	EventProfileAccessed AuditEvent = "profile_accessed"

	EventArticleCreated  AuditEvent = "article_created"
	EventArticleUpdated  AuditEvent = "article_updated"
	EventArticleDeleted  AuditEvent = "article_deleted"
	EventCategoryCreated AuditEvent = "category_created"
	EventTagCreated      AuditEvent = "tag_created"

	EventUploadPresigned AuditEvent = "upload_presigned"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}

// Sink receives a copy of every event for out-of-process delivery (Kafka).
type Sink interface {
	Write(ctx context.Context, event Event) error
	Close() error
}
