package backend

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"budget/internal/config"
)

// FromAppConfig maps the db and amqp sections of the application config.
// The memory backend seeds from the directory of db.path.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(strings.ToLower(strings.TrimSpace(appConfig.DB.Backend)))
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type %q: must be one of %s",
			appConfig.DB.Backend, strings.Join(GetBackendTypeStrings(), ", "))
	}

	dataDir := "data"
	if appConfig.DB.Path != "" {
		dataDir = filepath.Dir(appConfig.DB.Path)
	}

	return Config{
		Type:          backendType,
		SQLiteDBPath:  appConfig.DB.Path,
		DataDirectory: dataDir,
		AMQPURL:       appConfig.AMQP.URL,
		AMQPExchange:  appConfig.AMQP.Exchange,
		AMQPQueue:     appConfig.AMQP.Queue,
		AMQPPrefetch:  appConfig.Worker.Prefetch,
	}, nil
}

// Validate reports the first problem that would stop CreateBackend.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return errors.New("AMQP exchange and queue are required when AMQP URL is set")
	}
	if c.AMQPPrefetch < 0 {
		return fmt.Errorf("invalid AMQP prefetch %d", c.AMQPPrefetch)
	}
	return nil
}

func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}

func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
