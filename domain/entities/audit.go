package entities

import (
	"time"

	"github.com/google/uuid"
)

// AuditKind tags an audit event with the category of activity it records.
type AuditKind string

const (
	AuditKindMessage   AuditKind = "message"
	AuditKindAuth      AuditKind = "auth"
	AuditKindToolUse   AuditKind = "tool_use"
	AuditKindError     AuditKind = "error"
	AuditKindRateLimit AuditKind = "rate_limit"
)

// AuditEvent is one record in the gateway's audit trail. Actor identifies
// who triggered the activity (a device ID or a system component name).
type AuditEvent struct {
	ID        string    `json:"id" bson:"_id"`
	Kind      AuditKind `json:"kind" bson:"kind"`
	Actor     string    `json:"actor" bson:"actor"`
	Detail    string    `json:"detail" bson:"detail"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// NewAuditEvent creates an audit event stamped with the current time.
func NewAuditEvent(kind AuditKind, actor, detail string) AuditEvent {
	return AuditEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Actor:     actor,
		Detail:    detail,
		Timestamp: time.Now(),
	}
}
