package audit

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/satriahrh/swara/domain/entities"
	"github.com/satriahrh/swara/domain/repositories"
)

// MongoAuditTrail persists audit events into a MongoDB collection
type MongoAuditTrail struct {
	collection *mongo.Collection
}

// NewMongoAuditTrail creates a MongoDB-backed audit trail
func NewMongoAuditTrail(db *mongo.Database) repositories.AuditTrail {
	return &MongoAuditTrail{
		collection: db.Collection("audit_events"),
	}
}

// Record implements repositories.AuditTrail
func (t *MongoAuditTrail) Record(ctx context.Context, event entities.AuditEvent) error {
	if _, err := t.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}
