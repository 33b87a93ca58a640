package iocache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
)

// ComparisonStoreImpl implements the ComparisonStore interface.
type ComparisonStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.ComparisonStore = &ComparisonStoreImpl{} // Compile-time check

// NewComparisonStore creates a new ComparisonStore with the specified backend.
func NewComparisonStore(backend schema.DatabaseBackend, connStr string) (*ComparisonStoreImpl, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &ComparisonStoreImpl{backend: backend}, nil
	}
	db, err := openStoreDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	return &ComparisonStoreImpl{db: db, backend: backend}, nil
}

// RecordComparison stores one run and its changes in a single transaction.
func (cs *ComparisonStoreImpl) RecordComparison(ctx context.Context, record schema.ComparisonRecord, changes []schema.ChangeRecord) error {
	if cs.backend == schema.NoneBackend || cs.db == nil {
		return nil
	}
	if record.RunID == "" {
		return fmt.Errorf("comparison record needs a run id")
	}

	tx, err := cs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	runQuery := fmt.Sprintf(`INSERT INTO %s (run_id, before_source, after_source, schema_version, created_at,
		added, removed, modified, unchanged, divergence_score, highest_severity, trend_profile, report)
		VALUES (%s)`, quoteTableName(comparisonsTable, cs.backend), bindVars(cs.backend, 13))
	_, err = tx.ExecContext(ctx, runQuery,
		record.RunID, record.BeforeSource, record.AfterSource, record.SchemaVersion,
		formatTime(record.CreatedAt, cs.backend),
		record.Added, record.Removed, record.Modified, record.Unchanged,
		record.DivergenceScore, record.HighestSeverity, record.TrendProfile, string(record.Report),
	)
	if err != nil {
		return fmt.Errorf("failed to insert comparison run: %w", err)
	}

	changeQuery := fmt.Sprintf(`INSERT INTO %s (run_id, seq, category, metric, kind, before_value, after_value, magnitude, severity)
		VALUES (%s)`, quoteTableName(changesTable, cs.backend), bindVars(cs.backend, 9))
	stmt, err := tx.PrepareContext(ctx, changeQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare change insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range changes {
		if _, err := stmt.ExecContext(ctx, record.RunID, c.Seq, c.Category, c.Metric, c.Kind, c.Before, c.After, c.Magnitude, c.Severity); err != nil {
			return fmt.Errorf("failed to insert change %s.%s: %w", c.Category, c.Metric, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit comparison run: %w", err)
	}
	return nil
}

// ListComparisons returns the most recent runs first; limit <= 0 returns all.
func (cs *ComparisonStoreImpl) ListComparisons(ctx context.Context, limit int) ([]schema.ComparisonRecord, error) {
	if cs.backend == schema.NoneBackend || cs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, before_source, after_source, schema_version, created_at,
		added, removed, modified, unchanged, divergence_score, highest_severity, trend_profile, report
		FROM %s ORDER BY created_at DESC, run_id`, quoteTableName(comparisonsTable, cs.backend))
	var args []any
	if limit > 0 {
		query += " LIMIT " + bindVar(cs.backend, 1)
		args = append(args, limit)
	}

	rows, err := cs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparison runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ComparisonRecord
	for rows.Next() {
		var record schema.ComparisonRecord
		var createdAt storedTime
		var report string
		if err := rows.Scan(&record.RunID, &record.BeforeSource, &record.AfterSource, &record.SchemaVersion, &createdAt,
			&record.Added, &record.Removed, &record.Modified, &record.Unchanged,
			&record.DivergenceScore, &record.HighestSeverity, &record.TrendProfile, &report); err != nil {
			return nil, fmt.Errorf("failed to scan comparison run: %w", err)
		}
		record.CreatedAt = createdAt.Time
		record.Report = []byte(report)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comparison runs: %w", err)
	}
	return results, nil
}

// ListChanges returns every stored change ordered by run and position.
func (cs *ComparisonStoreImpl) ListChanges(ctx context.Context) ([]schema.ChangeRecord, error) {
	if cs.backend == schema.NoneBackend || cs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, seq, category, metric, kind, before_value, after_value, magnitude, severity
		FROM %s ORDER BY run_id, seq`, quoteTableName(changesTable, cs.backend))
	rows, err := cs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ChangeRecord
	for rows.Next() {
		var c schema.ChangeRecord
		if err := rows.Scan(&c.RunID, &c.Seq, &c.Category, &c.Metric, &c.Kind, &c.Before, &c.After, &c.Magnitude, &c.Severity); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating changes: %w", err)
	}
	return results, nil
}

// GetStatus returns status information about the comparison tables.
func (cs *ComparisonStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(cs.backend),
		Connected:  cs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if cs.backend == schema.NoneBackend || cs.db == nil {
		return status, nil
	}

	for _, table := range []string{comparisonsTable, changesTable} {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, cs.backend))
		if err := cs.db.QueryRow(query).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalComparisons = int(status.TableSizes[comparisonsTable])
	if status.TotalComparisons == 0 {
		return status, nil
	}

	quotedTableName := quoteTableName(comparisonsTable, cs.backend)
	lastQuery := fmt.Sprintf("SELECT created_at, schema_version FROM %s ORDER BY created_at DESC LIMIT 1", quotedTableName)
	var last storedTime
	if err := cs.db.QueryRow(lastQuery).Scan(&last, &status.SchemaVersion); err != nil {
		return status, fmt.Errorf("failed to get last comparison: %w", err)
	}
	status.LastComparison = last.Time

	oldestQuery := fmt.Sprintf("SELECT created_at FROM %s ORDER BY created_at ASC LIMIT 1", quotedTableName)
	var oldest storedTime
	if err := cs.db.QueryRow(oldestQuery).Scan(&oldest); err != nil {
		return status, fmt.Errorf("failed to get oldest comparison: %w", err)
	}
	status.OldestComparison = oldest.Time

	return status, nil
}

// Close closes the underlying DB connection.
func (cs *ComparisonStoreImpl) Close() error {
	if cs.db != nil {
		return cs.db.Close()
	}
	return nil
}
