package mongo

import (
	"os"
	"testing"
	"time"
)

func TestNewClientConfigFromEnv(t *testing.T) {
	os.Unsetenv("MONGODB_URI")
	os.Unsetenv("MONGODB_DATABASE")

	config := NewClientConfigFromEnv()
	if config.URI != defaultURI {
		t.Errorf("Expected default URI %s, got %s", defaultURI, config.URI)
	}
	if config.Database != defaultDatabase {
		t.Errorf("Expected default database %s, got %s", defaultDatabase, config.Database)
	}
	if config.ConnectTimeout != 10*time.Second {
		t.Errorf("Expected 10s connect timeout, got %s", config.ConnectTimeout)
	}

	os.Setenv("MONGODB_URI", "mongodb://db.internal:27017")
	os.Setenv("MONGODB_DATABASE", "swara_test")
	defer os.Unsetenv("MONGODB_URI")
	defer os.Unsetenv("MONGODB_DATABASE")

	config = NewClientConfigFromEnv()
	if config.URI != "mongodb://db.internal:27017" {
		t.Errorf("Expected URI from environment, got %s", config.URI)
	}
	if config.Database != "swara_test" {
		t.Errorf("Expected database from environment, got %s", config.Database)
	}
}

func TestValidateClientConfig(t *testing.T) {
	valid := NewClientConfigFromEnv()
	if err := ValidateClientConfig(valid); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ClientConfig)
	}{
		{"missing URI", func(c *ClientConfig) { c.URI = "" }},
		{"missing database", func(c *ClientConfig) { c.Database = "" }},
		{"zero max pool size", func(c *ClientConfig) { c.MaxPoolSize = 0 }},
		{"min pool above max", func(c *ClientConfig) { c.MinPoolSize = c.MaxPoolSize + 1 }},
		{"zero connect timeout", func(c *ClientConfig) { c.ConnectTimeout = 0 }},
		{"zero selection timeout", func(c *ClientConfig) { c.ServerSelectionTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewClientConfigFromEnv()
			tt.mutate(&config)
			if err := ValidateClientConfig(config); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
