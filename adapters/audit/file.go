package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/swara/domain/entities"
	"github.com/satriahrh/swara/domain/repositories"
)

// FileAuditTrail appends audit events to a local file, one JSON document
// per line. It is the fallback sink when MongoDB is not configured.
type FileAuditTrail struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// Ensure FileAuditTrail implements the AuditTrail interface
var _ repositories.AuditTrail = (*FileAuditTrail)(nil)

// NewFileAuditTrail creates a file-backed audit trail writing to path
func NewFileAuditTrail(path string, logger *zap.Logger) *FileAuditTrail {
	return &FileAuditTrail{
		path:   path,
		logger: logger,
	}
}

// Record implements repositories.AuditTrail
func (t *FileAuditTrail) Record(ctx context.Context, event entities.AuditEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	file, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}

	return nil
}
