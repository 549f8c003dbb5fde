package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the sqlite-backed persistence layer for the scheduling engine.
type Store struct {
	db     *sql.DB
	logger *zerolog.Logger

	// stylistLocks serializes booking attempts per stylist. The map itself is
	// guarded by mu; each entry is held only for the re-check-then-insert
	// sequence of a booking.
	mu           sync.Mutex
	stylistLocks map[int64]*sync.Mutex
}

// NewStore opens (and if needed creates) the database at path and ensures the
// schema exists.
func NewStore(path string, logger *zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &Store{db: db, logger: logger, stylistLocks: make(map[int64]*sync.Mutex)}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            timezone TEXT NOT NULL DEFAULT 'America/Bogota',
            working_hours TEXT NOT NULL DEFAULT '{}',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS stylists (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            tenant_id INTEGER NOT NULL REFERENCES tenants(id),
            name TEXT NOT NULL,
            active BOOLEAN NOT NULL DEFAULT 1,
            last_service_at DATETIME,
            working_hours TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS services (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            tenant_id INTEGER NOT NULL REFERENCES tenants(id),
            name TEXT NOT NULL,
            duration_minutes INTEGER NOT NULL,
            active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS stylist_services (
            stylist_id INTEGER NOT NULL REFERENCES stylists(id),
            service_id INTEGER NOT NULL REFERENCES services(id),
            PRIMARY KEY (stylist_id, service_id)
        )`,
		`CREATE TABLE IF NOT EXISTS clients (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            tenant_id INTEGER NOT NULL REFERENCES tenants(id),
            first_name TEXT NOT NULL,
            last_name TEXT,
            phone TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (tenant_id, phone)
        )`,
		`CREATE TABLE IF NOT EXISTS appointments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            ref TEXT NOT NULL UNIQUE,
            tenant_id INTEGER NOT NULL REFERENCES tenants(id),
            client_id INTEGER NOT NULL REFERENCES clients(id),
            stylist_id INTEGER NOT NULL REFERENCES stylists(id),
            service_id INTEGER NOT NULL REFERENCES services(id),
            start_time DATETIME NOT NULL,
            end_time DATETIME NOT NULL,
            status TEXT NOT NULL DEFAULT 'scheduled',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_appointments_stylist_start ON appointments(stylist_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_tenant ON appointments(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_stylists_tenant ON stylists(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_services_tenant ON services(tenant_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("exec %q: %w", query[:40], err)
		}
	}
	return nil
}

// stylistLock returns the mutex serializing bookings for one stylist.
func (s *Store) stylistLock(stylistID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.stylistLocks[stylistID]
	if !ok {
		lock = &sync.Mutex{}
		s.stylistLocks[stylistID] = lock
	}
	return lock
}

func (s *Store) Close() error {
	return s.db.Close()
}
