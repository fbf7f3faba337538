package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/historytracker/internal/config"
	"github.com/dbsmedya/historytracker/internal/logger"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.DatabaseConfig
		expected string
	}{
		{
			name: "basic DSN",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				Database: "app",
				TLS:      "preferred",
			},
			expected: "root:secret@tcp(localhost:3306)/app?parseTime=true&loc=UTC&tls=preferred",
		},
		{
			name: "DSN without database",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				TLS:      "preferred",
			},
			expected: "root:secret@tcp(localhost:3306)/?parseTime=true&loc=UTC&tls=preferred",
		},
		{
			name: "DSN with TLS disabled",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				Database: "app",
				TLS:      "disable",
			},
			expected: "root:secret@tcp(localhost:3306)/app?parseTime=true&loc=UTC&tls=false",
		},
		{
			name: "DSN with TLS required",
			cfg: &config.DatabaseConfig{
				Host:     "db.internal",
				Port:     3307,
				User:     "auditor",
				Password: "p@ssw0rd!",
				Database: "audit",
				TLS:      "required",
			},
			expected: "auditor:p@ssw0rd!@tcp(db.internal:3307)/audit?parseTime=true&loc=UTC&tls=true",
		},
		{
			name: "Empty password and TLS",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Database: "app",
			},
			expected: "root:@tcp(localhost:3306)/app?parseTime=true&loc=UTC&tls=preferred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildDSN(tt.cfg)
			if result != tt.expected {
				t.Errorf("BuildDSN() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestNewManager(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "localhost", Port: 3306, User: "root", Database: "app"}

	manager := NewManager(cfg, nil)
	if manager == nil {
		t.Fatal("NewManager() returned nil")
	}
	if manager.config != cfg {
		t.Error("manager.config should point to provided config")
	}
	if manager.History != nil {
		t.Error("History should be nil before Connect()")
	}
	if manager.logger == nil {
		t.Error("logger should default when nil is passed")
	}
}

func TestManagerCloseWithoutConnect(t *testing.T) {
	manager := NewManager(&config.DatabaseConfig{Host: "localhost"}, logger.NewNop())

	// Should not panic when closing unconnected manager
	if err := manager.Close(); err != nil {
		t.Errorf("Close() returned error for unconnected manager: %v", err)
	}
}

func TestManagerPingWithoutConnect(t *testing.T) {
	manager := NewManager(&config.DatabaseConfig{Host: "localhost"}, logger.NewNop())
	assert.EqualError(t, manager.Ping(context.Background()), "history database is not connected")
}

func newTestManager(open func(string) (*sql.DB, error)) *Manager {
	m := NewManager(&config.DatabaseConfig{
		Host:               "localhost",
		Port:               3306,
		User:               "root",
		Database:           "app",
		MaxConnections:     4,
		MaxIdleConnections: 2,
	}, logger.NewNop())
	m.open = open
	m.backoff = time.Millisecond
	return m
}

func TestManagerConnect(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	var gotDSN string
	m := newTestManager(func(dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return db, nil
	})

	mock.ExpectPing()
	mock.ExpectPing()
	mock.ExpectClose()

	require.NoError(t, m.Connect(context.Background()))
	assert.Same(t, db, m.History)
	assert.Equal(t, "root:@tcp(localhost:3306)/app?parseTime=true&loc=UTC&tls=preferred", gotDSN)

	require.NoError(t, m.Ping(context.Background()))
	require.NoError(t, m.Close())
	assert.Nil(t, m.History)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManagerConnectRetries(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	attempts := 0
	m := newTestManager(func(string) (*sql.DB, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return db, nil
	})
	mock.ExpectPing()

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, 3, attempts)
}

func TestManagerConnectGivesUp(t *testing.T) {
	attempts := 0
	m := newTestManager(func(string) (*sql.DB, error) {
		attempts++
		return nil, errors.New("connection refused")
	})

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed after 3 retries"))
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, 3, attempts)
	assert.Nil(t, m.History)
}

func TestManagerConnectPingFailure(t *testing.T) {
	m := newTestManager(func(string) (*sql.DB, error) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			return nil, err
		}
		mock.ExpectPing().WillReturnError(errors.New("access denied"))
		return db, nil
	})

	err := m.Connect(context.Background())
	assert.ErrorContains(t, err, "access denied")
}

func TestManagerConnectCanceled(t *testing.T) {
	m := newTestManager(func(string) (*sql.DB, error) {
		return nil, errors.New("connection refused")
	})
	m.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Connect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
