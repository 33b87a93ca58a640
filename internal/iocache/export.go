package iocache

import (
	"context"
	"errors"
	"fmt"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/internal/parquet"
)

// ExportResult lists the files written by ExecuteStoreExport.
type ExportResult struct {
	ComparisonsFile string
	ChangesFile     string
	Comparisons     int
	Changes         int
}

// ExecuteStoreExport exports the stored comparison runs and changes to Parquet files
// named <outputFile>.comparisons.parquet and <outputFile>.changes.parquet.
func ExecuteStoreExport(ctx context.Context, mgr contract.StoreManager, outputFile string) (ExportResult, error) {
	var result ExportResult
	if outputFile == "" {
		return result, errors.New("--output-file is required for export command")
	}

	store := mgr.GetComparisonStore()
	if store == nil {
		return result, errors.New("comparison store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return result, fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalComparisons == 0 {
		return result, errors.New("no comparison data found to export")
	}

	runs, err := store.ListComparisons(ctx, 0)
	if err != nil {
		return result, fmt.Errorf("failed to retrieve comparison runs: %w", err)
	}
	changes, err := store.ListChanges(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to retrieve changes: %w", err)
	}

	result.ComparisonsFile = outputFile + ".comparisons.parquet"
	if err := parquet.WriteComparisonsParquet(parquet.ConvertComparisonRecords(runs), result.ComparisonsFile); err != nil {
		return result, fmt.Errorf("failed to write comparison runs: %w", err)
	}
	result.Comparisons = len(runs)

	result.ChangesFile = outputFile + ".changes.parquet"
	if err := parquet.WriteChangesParquet(parquet.ConvertChangeRecords(changes), result.ChangesFile); err != nil {
		return result, fmt.Errorf("failed to write changes: %w", err)
	}
	result.Changes = len(changes)

	return result, nil
}
