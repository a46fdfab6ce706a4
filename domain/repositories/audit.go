package repositories

import (
	"context"

	"github.com/satriahrh/swara/domain/entities"
)

// AuditTrail is the sink for audit events produced by the gateway.
type AuditTrail interface {
	Record(ctx context.Context, event entities.AuditEvent) error
}
