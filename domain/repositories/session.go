package repositories

import (
	"context"

	"github.com/satriahrh/swara/domain/entities"
)

// SessionRepository defines data access methods for conversation sessions
type SessionRepository interface {
	Create(ctx context.Context, session *entities.Session) error
	// GetLastByDeviceID returns the most recent session for a device, or
	// nil when the device has no sessions yet.
	GetLastByDeviceID(ctx context.Context, deviceID string) (*entities.Session, error)
	Update(ctx context.Context, session *entities.Session) error
}

// DeviceRepository defines data access methods for devices
type DeviceRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Device, error)
	GetBySerialNumber(ctx context.Context, serialNumber string) (*entities.Device, error)
	// ValidateDevice validates device credentials for authentication
	ValidateDevice(serialNumber, secret string) (*entities.Device, error)
}
