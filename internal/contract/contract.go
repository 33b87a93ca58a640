// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/aimarketingflow/pawprint/schema"
)

// RegistrySource resolves the schema registry used for validation, scoring and diffing.
// This allows configuration to be tested without touching the filesystem.
type RegistrySource interface {
	// LoadRegistry returns the registry at path, or the built-in registry when path is empty.
	LoadRegistry(ctx context.Context, path string) (*schema.Registry, error)
}

// FingerprintSource reads fingerprint documents from files or other locations.
type FingerprintSource interface {
	// LoadFingerprint reads, structurally validates and decodes one fingerprint.
	LoadFingerprint(ctx context.Context, reg *schema.Registry, location string) (*schema.Fingerprint, error)
}

// StoreManager defines the interface for managing the pawprint stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetFingerprintStore() FingerprintStore
	GetComparisonStore() ComparisonStore
}

// FingerprintStore keeps the latest fingerprint document per source.
type FingerprintStore interface {
	// Put inserts or replaces the fingerprint stored for record.SourceID.
	Put(ctx context.Context, record schema.FingerprintRecord) error

	// Get returns the stored fingerprint for sourceID, or sql.ErrNoRows.
	Get(ctx context.Context, sourceID string) (schema.FingerprintRecord, error)

	// List returns all stored fingerprints ordered by source id.
	List(ctx context.Context) ([]schema.FingerprintRecord, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// ComparisonStore records comparison runs and their flattened changes.
type ComparisonStore interface {
	// RecordComparison stores one run and its changes in a single transaction.
	RecordComparison(ctx context.Context, record schema.ComparisonRecord, changes []schema.ChangeRecord) error

	// ListComparisons returns the most recent runs first; limit <= 0 returns all.
	ListComparisons(ctx context.Context, limit int) ([]schema.ComparisonRecord, error)

	// ListChanges returns every stored change ordered by run and position.
	ListChanges(ctx context.Context) ([]schema.ChangeRecord, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// ReportSink persists a rendered report under a name and returns where it went.
type ReportSink interface {
	Write(ctx context.Context, name string, data []byte, contentType string) (string, error)
}
