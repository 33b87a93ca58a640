// Package iocache persists fingerprints and comparison runs in SQL stores.
package iocache

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for the pawprint store.
const (
	fingerprintsTable = "pawprint_fingerprints"
	comparisonsTable  = "pawprint_comparisons"
	changesTable      = "pawprint_changes"
)

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// StoreManager manages the fingerprint and comparison stores.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	fingerprints contract.FingerprintStore
	comparisons  contract.ComparisonStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetFingerprintStore returns the FingerprintStore.
func (mgr *StoreManager) GetFingerprintStore() contract.FingerprintStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.fingerprints
}

// GetComparisonStore returns the ComparisonStore.
func (mgr *StoreManager) GetComparisonStore() contract.ComparisonStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.comparisons
}

// driverName maps a backend to its database/sql driver.
func driverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// openStoreDB opens and pings a connection, then makes sure the tables exist.
func openStoreDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetStoreDBFilePath()
		}
		db, err = sql.Open(driver, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		db, err = sql.Open(driver, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname?parseTime=true", err)
		}

	case schema.PostgreSQLBackend:
		db, err = sql.Open(driver, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... port=... dbname=...", err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	if err := createStoreTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create store tables: %w", err)
	}
	return db, nil
}

// createStoreTables runs the statements of the initial migration. They are all
// idempotent, so a later MigrateStore call sees a consistent schema.
func createStoreTables(db *sql.DB, backend schema.DatabaseBackend) error {
	data, err := migrationsFS.ReadFile(fmt.Sprintf("migrations/%s/000001_init.up.sql", backend))
	if err != nil {
		return fmt.Errorf("failed to read initial migration: %w", err)
	}
	for stmt := range strings.SplitSeq(string(data), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// quoteTableName quotes a table name for the backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// bindVar returns the i-th (1-based) parameter placeholder for the backend.
func bindVar(backend schema.DatabaseBackend, i int) string {
	if backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// bindVars returns n comma-separated placeholders.
func bindVars(backend schema.DatabaseBackend, n int) string {
	vars := make([]string, n)
	for i := range vars {
		vars[i] = bindVar(backend, i+1)
	}
	return strings.Join(vars, ", ")
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(sqliteTimeLayout)
	default:
		return t.UTC()
	}
}

// storedTime scans a time column regardless of how the backend returns it.
type storedTime struct {
	Time time.Time
}

// Scan implements sql.Scanner.
func (st *storedTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		st.Time = v.UTC()
		return nil
	case string:
		return st.parse(v)
	case []byte:
		return st.parse(string(v))
	case nil:
		st.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
}

func (st *storedTime) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			st.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("failed to parse stored time %q", s)
}
