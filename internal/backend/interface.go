// Package backend opens the ledger store selected by configuration,
// together with the optional RabbitMQ publisher for ledger events.
package backend

import (
	"context"

	"budget/internal/amqp"
	"budget/internal/ports"
	"budget/internal/services"
)

// BackendType names a store implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config selects the store and, when AMQPURL is set, the broker that
// receives ledger events.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	// DataDirectory is where the memory backend looks for seed files.
	DataDirectory string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// AMQPPrefetch bounds unacknowledged deliveries for consumers; zero
	// keeps the client default.
	AMQPPrefetch int
}

type CleanupFunc func() error

// BackendResult is an opened backend. Publisher is nil when AMQP is not
// configured or the broker could not be reached.
type BackendResult struct {
	Store     ports.Store
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Events returns the publisher as a services.EventPublisher, or a nil
// interface when the backend runs without events.
func (r *BackendResult) Events() services.EventPublisher {
	if r == nil || r.Publisher == nil {
		return nil
	}
	return r.Publisher
}

// HasEvents reports whether ledger events are published.
func (r *BackendResult) HasEvents() bool {
	return r != nil && r.Publisher != nil
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
