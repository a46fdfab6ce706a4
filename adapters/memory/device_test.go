package memory

import (
	"context"
	"testing"

	"github.com/satriahrh/swara/domain/entities"
)

func newTestDevice() *entities.Device {
	return &entities.Device{
		SerialNumber: "SN-001",
		Model:        "swara-mini",
	}
}

func TestRegisterAndValidateDevice(t *testing.T) {
	repo := NewDeviceRepository()

	device := newTestDevice()
	if err := repo.Register(device, "super-secret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if device.ID == "" {
		t.Error("Expected an ID to be generated")
	}

	validated, err := repo.ValidateDevice("SN-001", "super-secret")
	if err != nil {
		t.Fatalf("ValidateDevice failed: %v", err)
	}
	if validated.SerialNumber != "SN-001" {
		t.Errorf("Expected serial SN-001, got %s", validated.SerialNumber)
	}
}

func TestValidateDeviceWrongSecret(t *testing.T) {
	repo := NewDeviceRepository()
	if err := repo.Register(newTestDevice(), "super-secret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := repo.ValidateDevice("SN-001", "wrong"); err == nil {
		t.Error("Expected error for wrong secret")
	}
	if _, err := repo.ValidateDevice("SN-999", "super-secret"); err == nil {
		t.Error("Expected error for unknown device")
	}
}

func TestRegisterDuplicateSerial(t *testing.T) {
	repo := NewDeviceRepository()
	if err := repo.Register(newTestDevice(), "one"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := repo.Register(newTestDevice(), "two"); err == nil {
		t.Error("Expected error for duplicate serial number")
	}
}

func TestGetByIDReturnsCopy(t *testing.T) {
	repo := NewDeviceRepository()
	device := newTestDevice()
	if err := repo.Register(device, "super-secret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := repo.GetByID(context.Background(), device.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	got.Model = "mutated"

	again, err := repo.GetBySerialNumber(context.Background(), "SN-001")
	if err != nil {
		t.Fatalf("GetBySerialNumber failed: %v", err)
	}
	if again.Model != "swara-mini" {
		t.Errorf("Stored device was mutated through a returned copy")
	}
}
