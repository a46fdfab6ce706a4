package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/satriahrh/swara/domain/entities"
	"github.com/satriahrh/swara/domain/repositories"
)

// SessionRepository is an in-memory implementation of
// repositories.SessionRepository. Sessions do not survive restarts; it is
// the fallback when no database is configured.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[primitive.ObjectID]*entities.Session
	byDevice map[string][]primitive.ObjectID
}

var _ repositories.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates an empty in-memory session repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[primitive.ObjectID]*entities.Session),
		byDevice: make(map[string][]primitive.ObjectID),
	}
}

// Create implements repositories.SessionRepository
func (r *SessionRepository) Create(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	stored := *session
	r.sessions[session.ID] = &stored
	r.byDevice[session.DeviceID] = append(r.byDevice[session.DeviceID], session.ID)

	return nil
}

// GetLastByDeviceID implements repositories.SessionRepository
func (r *SessionRepository) GetLastByDeviceID(ctx context.Context, deviceID string) (*entities.Session, error) {
	if deviceID == "" {
		return nil, errors.New("device ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byDevice[deviceID]
	if len(ids) == 0 {
		return nil, nil
	}

	var last *entities.Session
	for _, id := range ids {
		session := r.sessions[id]
		if last == nil || session.LastActiveAt.After(last.LastActiveAt) {
			last = session
		}
	}

	sessionCopy := *last
	return &sessionCopy, nil
}

// Update implements repositories.SessionRepository
func (r *SessionRepository) Update(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if session.ID.IsZero() {
		return errors.New("session ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; !exists {
		return errors.New("session not found")
	}

	stored := *session
	r.sessions[session.ID] = &stored

	return nil
}
