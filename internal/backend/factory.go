// Package backend wires a concrete store implementation from
// application configuration.
package backend

import (
	"fmt"

	"dompet/internal/amqp"
	"dompet/internal/config"
	applog "dompet/internal/log"
	"dompet/internal/store"
	"dompet/internal/store/memory"
	"dompet/internal/store/sqlite"
)

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources
type CleanupFunc func() error

// Result contains the store instance and optional extras
type Result struct {
	Store   store.Store
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration
type Factory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentBackend)
	}
	return &Factory{logger: logger}
}

// Create builds the store described by cfg.
func (f *Factory) Create(cfg *config.Config) (*Result, error) {
	backendType := BackendType(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch backendType {
	case SQLiteBackend:
		return f.createSQLite(cfg)
	case MemoryBackend:
		return f.createMemory()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}

func (f *Factory) createSQLite(cfg *config.Config) (*Result, error) {
	repo, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional: without it the store still works, changes just
	// stay local to this process.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change fan-out", applog.FieldError, err)
		} else {
			repo.SetNotifier(amqpClient)
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	cleanup := func() error {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				f.logger.Warn("AMQP close failed", applog.FieldError, err)
			}
		}
		return repo.Close()
	}

	return &Result{Store: repo, AMQP: amqpClient, Cleanup: cleanup}, nil
}

func (f *Factory) createMemory() (*Result, error) {
	st := memory.New()

	f.logger.Info("Initialized memory backend")

	return &Result{Store: st, Cleanup: st.Close}, nil
}
