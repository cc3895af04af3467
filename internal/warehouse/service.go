package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/snowflakedb/gosnowflake"

	"roiflow/pkg/errors"
	"roiflow/pkg/models"
)

// Service provides Snowflake read/write operations for pipeline runs.
type Service struct {
	db             *sql.DB
	config         Config
	connected      bool
	circuitBreaker *errors.CircuitBreaker
}

// Config holds Snowflake connection configuration
type Config struct {
	Account   string
	Username  string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	Role      string
	Timeout   time.Duration
}

// ConfigFromModel maps the persisted snowflake block onto a connection config.
func ConfigFromModel(m models.Snowflake) Config {
	return Config{
		Account:   m.Account,
		Username:  m.Username,
		Password:  m.Password,
		Database:  m.Database,
		Schema:    m.Schema,
		Warehouse: m.Warehouse,
		Role:      m.Role,
		Timeout:   30 * time.Second,
	}
}

// NewService creates a new warehouse service
func NewService(config Config) *Service {
	return &Service{
		config:         config,
		circuitBreaker: errors.NewCircuitBreaker("snowflake", 5, 30*time.Second),
	}
}

// NewServiceWithDB wraps an existing database handle. Used by tests.
func NewServiceWithDB(db *sql.DB, config Config) *Service {
	s := NewService(config)
	s.db = db
	s.connected = true
	return s
}

// ValidateConfig checks the connection settings before dialing.
func ValidateConfig(config Config) error {
	if config.Account == "" {
		return errors.ConfigError("account is required", "snowflake.account")
	}
	if config.Username == "" {
		return errors.ConfigError("username is required", "snowflake.username")
	}
	if config.Password == "" {
		return errors.ConfigError("password is required", "snowflake.password")
	}
	if config.Warehouse == "" {
		return errors.ConfigError("warehouse is required", "snowflake.warehouse")
	}
	return nil
}

// Connect establishes a connection to Snowflake
func (s *Service) Connect() error {
	if s.connected {
		return nil
	}

	if err := ValidateConfig(s.config); err != nil {
		return err
	}

	// Use circuit breaker for connection attempts
	return s.circuitBreaker.Execute(context.Background(), func() error {
		return errors.RetryWithBackoff(context.Background(), func(ctx context.Context) error {
			dsn := fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s&role=%s",
				s.config.Username,
				s.config.Password,
				s.config.Account,
				s.config.Database,
				s.config.Schema,
				s.config.Warehouse,
				s.config.Role,
			)

			db, err := sql.Open("snowflake", dsn)
			if err != nil {
				return errors.ConnectionError("Failed to open Snowflake connection", err).
					WithContext("account", s.config.Account).
					WithContext("warehouse", s.config.Warehouse)
			}

			db.SetMaxOpenConns(10)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(10 * time.Minute)

			// Test the connection
			connCtx, cancel := s.getContext()
			defer cancel()

			if err := db.PingContext(connCtx); err != nil {
				db.Close()

				if strings.Contains(err.Error(), "authentication") {
					return errors.New(errors.ErrCodeAuthenticationFailed, "Authentication failed").
						WithContext("user", s.config.Username).
						WithSuggestions(
							"Verify your username and password",
							"Check if your account is locked",
						)
				}

				return errors.ConnectionError("Failed to connect to Snowflake", err).
					WithContext("account", s.config.Account).
					AsRecoverable()
			}

			s.db = db
			s.connected = true
			return nil
		})
	})
}

// Close closes the database connection
func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	s.connected = false
	return s.db.Close()
}

// getContext returns a context with the configured timeout
func (s *Service) getContext() (context.Context, context.CancelFunc) {
	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// quoteIdent validates that an identifier is safe to interpolate into DDL.
// Table and schema names come from configuration, not user data, but they
// still must not smuggle statement delimiters.
func quoteIdent(name string) (string, error) {
	if name == "" {
		return "", errors.New(errors.ErrCodeValidationFailed, "Empty identifier")
	}
	for _, r := range name {
		ok := r == '_' || r == '$' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return "", errors.New(errors.ErrCodeValidationFailed,
				fmt.Sprintf("Invalid identifier %q", name))
		}
	}
	return name, nil
}

// qualifiedName builds DATABASE.SCHEMA.TABLE from validated parts.
func qualifiedName(database, schema, table string) (string, error) {
	parts := make([]string, 0, 3)
	for _, p := range []string{database, schema, table} {
		if p == "" {
			continue
		}
		q, err := quoteIdent(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, q)
	}
	if len(parts) == 0 {
		return "", errors.New(errors.ErrCodeValidationFailed, "No table name given")
	}
	return strings.Join(parts, "."), nil
}
