package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// storeTables lists every table owned by the store, children first.
var storeTables = []string{changesTable, comparisonsTable, fingerprintsTable}

// InitStores initializes the global manager with the fingerprint and comparison stores.
// An empty backend leaves both stores unset.
func InitStores(backend schema.DatabaseBackend, connStr string, cacheSize int) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		if backend == "" {
			return
		}

		fingerprints, err := NewFingerprintStore(backend, connStr, cacheSize)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize fingerprint store: %w", err)
			return
		}

		comparisons, err := NewComparisonStore(backend, connStr)
		if err != nil {
			_ = fingerprints.Close()
			initErr = fmt.Errorf("failed to initialize comparison store: %w", err)
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.fingerprints = fingerprints
		Manager.comparisons = comparisons
	})

	// After once.Do, initErr will contain any error from the initialization block.
	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.fingerprints != nil {
			_ = Manager.fingerprints.Close()
		}
		if Manager.comparisons != nil {
			_ = Manager.comparisons.Close()
		}
	})
}

// ClearStore clears the pawprint store for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the store tables.
// For NoneBackend, it does nothing.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		driver, _ := driverName(backend)
		for _, table := range storeTables {
			if err := clearSQLTable(driver, connStr, quoteTableName(table, backend)); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported store backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(driverName, connStr, tableName string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}

	return nil
}

// GetStoreStatus merges the status of both stores held by mgr.
func GetStoreStatus(mgr contract.StoreManager) (schema.StoreStatus, error) {
	status := schema.StoreStatus{Backend: string(schema.NoneBackend), TableSizes: make(map[string]int64)}
	fingerprints := mgr.GetFingerprintStore()
	comparisons := mgr.GetComparisonStore()
	if fingerprints == nil || comparisons == nil {
		return status, nil
	}

	fpStatus, err := fingerprints.GetStatus()
	if err != nil {
		return status, fmt.Errorf("failed to get fingerprint store status: %w", err)
	}
	cmpStatus, err := comparisons.GetStatus()
	if err != nil {
		return status, fmt.Errorf("failed to get comparison store status: %w", err)
	}

	status = cmpStatus
	status.Connected = fpStatus.Connected && cmpStatus.Connected
	status.TotalFingerprints = fpStatus.TotalFingerprints
	if status.TableSizes == nil {
		status.TableSizes = make(map[string]int64)
	}
	for table, size := range fpStatus.TableSizes {
		status.TableSizes[table] = size
	}
	return status, nil
}

// PrintStoreStatus prints store status information.
func PrintStoreStatus(status schema.StoreStatus) {
	fmt.Printf("Store Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Fingerprints: %d\n", status.TotalFingerprints)
	fmt.Printf("Total Comparisons: %d\n", status.TotalComparisons)
	if status.TotalComparisons > 0 {
		fmt.Printf("Registry Version: %s\n", status.SchemaVersion)
		fmt.Printf("Last Comparison: %s\n", status.LastComparison.Format("2006-01-02 15:04:05"))
		fmt.Printf("Oldest Comparison: %s\n", status.OldestComparison.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("Table Sizes:")
	for _, table := range storeTables {
		if size, ok := status.TableSizes[table]; ok {
			fmt.Printf("  %s: %d rows\n", table, size)
		}
	}
}
