package iocache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
	lru "github.com/hashicorp/golang-lru/v2"
)

// FingerprintStoreImpl implements the FingerprintStore interface with an LRU in front of reads.
type FingerprintStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	cache   *lru.Cache[string, schema.FingerprintRecord]
}

var _ contract.FingerprintStore = &FingerprintStoreImpl{} // Compile-time check

// NewFingerprintStore creates a new FingerprintStore with the specified backend.
// cacheSize bounds the number of records kept in memory; <= 0 uses the default.
func NewFingerprintStore(backend schema.DatabaseBackend, connStr string, cacheSize int) (*FingerprintStoreImpl, error) {
	if cacheSize <= 0 {
		cacheSize = contract.DefaultFingerprintCache
	}
	cache, err := lru.New[string, schema.FingerprintRecord](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create fingerprint cache: %w", err)
	}

	if backend == schema.NoneBackend {
		// Return a no-op store for disabled persistence
		return &FingerprintStoreImpl{backend: backend, cache: cache}, nil
	}

	db, err := openStoreDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	return &FingerprintStoreImpl{db: db, backend: backend, cache: cache}, nil
}

// Put inserts or replaces the fingerprint stored for record.SourceID.
func (fs *FingerprintStoreImpl) Put(ctx context.Context, record schema.FingerprintRecord) error {
	if fs.backend == schema.NoneBackend || fs.db == nil {
		return nil
	}
	if record.SourceID == "" {
		return fmt.Errorf("fingerprint record needs a source id")
	}
	record.GeneratedAt = record.GeneratedAt.UTC()
	record.StoredAt = record.StoredAt.UTC()

	_, err := fs.db.ExecContext(ctx, fs.getUpsertQuery(),
		record.SourceID,
		record.SchemaVersion,
		formatTime(record.GeneratedAt, fs.backend),
		formatTime(record.StoredAt, fs.backend),
		string(record.Document),
	)
	if err != nil {
		return fmt.Errorf("failed to store fingerprint %q: %w", record.SourceID, err)
	}
	fs.cache.Add(record.SourceID, record)
	return nil
}

// Get returns the stored fingerprint for sourceID, or sql.ErrNoRows.
func (fs *FingerprintStoreImpl) Get(ctx context.Context, sourceID string) (schema.FingerprintRecord, error) {
	if fs.backend == schema.NoneBackend || fs.db == nil {
		return schema.FingerprintRecord{}, sql.ErrNoRows
	}
	if record, ok := fs.cache.Get(sourceID); ok {
		return record, nil
	}

	query := fmt.Sprintf(`SELECT source_id, schema_version, generated_at, stored_at, document FROM %s WHERE source_id = %s`,
		quoteTableName(fingerprintsTable, fs.backend), bindVar(fs.backend, 1))
	record, err := scanFingerprint(fs.db.QueryRowContext(ctx, query, sourceID))
	if err != nil {
		return schema.FingerprintRecord{}, err
	}
	fs.cache.Add(sourceID, record)
	return record, nil
}

// List returns all stored fingerprints ordered by source id.
func (fs *FingerprintStoreImpl) List(ctx context.Context) ([]schema.FingerprintRecord, error) {
	if fs.backend == schema.NoneBackend || fs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT source_id, schema_version, generated_at, stored_at, document FROM %s ORDER BY source_id`,
		quoteTableName(fingerprintsTable, fs.backend))
	rows, err := fs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FingerprintRecord
	for rows.Next() {
		record, err := scanFingerprint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fingerprints: %w", err)
	}
	return results, nil
}

// GetStatus returns status information about the fingerprint table.
func (fs *FingerprintStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(fs.backend),
		Connected:  fs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if fs.backend == schema.NoneBackend || fs.db == nil {
		return status, nil
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(fingerprintsTable, fs.backend))
	if err := fs.db.QueryRow(query).Scan(&count); err != nil {
		return status, fmt.Errorf("failed to get count for table %s: %w", fingerprintsTable, err)
	}
	status.TotalFingerprints = int(count)
	status.TableSizes[fingerprintsTable] = count
	return status, nil
}

// Close closes the underlying DB connection.
func (fs *FingerprintStoreImpl) Close() error {
	fs.cache.Purge()
	if fs.db != nil {
		return fs.db.Close()
	}
	return nil
}

// getUpsertQuery returns the UPSERT query for the backend.
func (fs *FingerprintStoreImpl) getUpsertQuery() string {
	quotedTableName := quoteTableName(fingerprintsTable, fs.backend)
	switch fs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (source_id, schema_version, generated_at, stored_at, document) VALUES (?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE schema_version = new.schema_version, generated_at = new.generated_at, stored_at = new.stored_at, document = new.document`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (source_id, schema_version, generated_at, stored_at, document) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (source_id) DO UPDATE SET schema_version = EXCLUDED.schema_version, generated_at = EXCLUDED.generated_at, stored_at = EXCLUDED.stored_at, document = EXCLUDED.document`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (source_id, schema_version, generated_at, stored_at, document) VALUES (?, ?, ?, ?, ?)`, quotedTableName)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFingerprint(row rowScanner) (schema.FingerprintRecord, error) {
	var record schema.FingerprintRecord
	var generatedAt, storedAt storedTime
	var document string
	if err := row.Scan(&record.SourceID, &record.SchemaVersion, &generatedAt, &storedAt, &document); err != nil {
		return record, err
	}
	record.GeneratedAt = generatedAt.Time
	record.StoredAt = storedAt.Time
	record.Document = []byte(document)
	return record, nil
}
