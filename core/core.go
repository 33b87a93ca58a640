package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/internal/loader"
	"github.com/aimarketingflow/pawprint/schema"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// StorePrefix marks an input that resolves from the fingerprint store instead of a file.
const StorePrefix = "store:"

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, src contract.FingerprintSource, mgr contract.StoreManager) error

// ExecuteCompare compares exactly two fingerprints and prints the report.
// It serves as the main entry point for the 'compare' command.
func ExecuteCompare(ctx context.Context, cfg *contract.Config, src contract.FingerprintSource, mgr contract.StoreManager) error {
	start := time.Now()
	report, err := GetCompareResults(ctx, cfg, src, mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	return outWriterFrom(ctx).WriteReport(ctx, report, cfg, duration)
}

// GetCompareResults loads the two inputs, compares them and records the run when persistence is on.
func GetCompareResults(ctx context.Context, cfg *contract.Config, src contract.FingerprintSource, mgr contract.StoreManager) (*schema.Report, error) {
	if len(cfg.Inputs) != 2 {
		return nil, fmt.Errorf("compare needs exactly 2 fingerprints, got %d", len(cfg.Inputs))
	}
	before, err := resolveFingerprint(ctx, cfg, src, mgr, cfg.Inputs[0])
	if err != nil {
		return nil, err
	}
	after, err := resolveFingerprint(ctx, cfg, src, mgr, cfg.Inputs[1])
	if err != nil {
		return nil, err
	}

	if !shouldSuppressHeader(ctx) {
		contract.LogInfo("Comparing %s → %s with registry v%s", before.SourceID, after.SourceID, cfg.Registry.Version)
	}

	report, err := newEngine(cfg).Compare(before, after)
	if err != nil {
		return nil, err
	}
	logWarnings(ctx, report.Before.SourceID, report.Summary.Warnings)

	if cfg.Persist {
		persistComparison(ctx, cfg, mgr, report, before, after)
	}
	return report, nil
}

// ExecuteScore scores every input and prints one column per fingerprint.
func ExecuteScore(ctx context.Context, cfg *contract.Config, src contract.FingerprintSource, mgr contract.StoreManager) error {
	start := time.Now()
	results, err := GetScoreResults(ctx, cfg, src, mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	return outWriterFrom(ctx).WriteScores(ctx, results, cfg, duration)
}

// GetScoreResults scores each input in order. Anomalies become warnings on the result.
func GetScoreResults(ctx context.Context, cfg *contract.Config, src contract.FingerprintSource, mgr contract.StoreManager) ([]schema.ScoreResult, error) {
	if len(cfg.Inputs) == 0 {
		return nil, errors.New("score needs at least 1 fingerprint")
	}
	fps, err := resolveAll(ctx, cfg, src, mgr, cfg.Inputs)
	if err != nil {
		return nil, err
	}

	engine := newEngine(cfg)
	results := make([]schema.ScoreResult, len(fps))
	for i, fp := range fps {
		scores, anoms := engine.Score(fp)
		warnings := make([]string, len(anoms))
		for j, a := range anoms {
			warnings[j] = a.String()
		}
		logWarnings(ctx, fp.SourceID, warnings)
		results[i] = schema.ScoreResult{
			SourceID:      fp.SourceID,
			SchemaVersion: fp.SchemaVersion,
			GeneratedAt:   fp.GeneratedAt,
			Scores:        scores,
			Warnings:      warnings,
		}
	}
	return results, nil
}

// ExecuteValidate validates every input and fails when any of them is invalid.
func ExecuteValidate(ctx context.Context, cfg *contract.Config, src contract.FingerprintSource, mgr contract.StoreManager) error {
	results, err := GetValidationResults(ctx, cfg, src, mgr)
	if err != nil {
		return err
	}
	if err := outWriterFrom(ctx).WriteValidation(ctx, results, cfg); err != nil {
		return err
	}
	invalid := 0
	for _, r := range results {
		if !r.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d documents failed validation", invalid, len(results))
	}
	return nil
}

// GetValidationResults runs structural and registry validation on every input.
// Directories are expanded. Invalid documents are reported, not returned as errors.
func GetValidationResults(ctx context.Context, cfg *contract.Config, src contract.FingerprintSource, mgr contract.StoreManager) ([]schema.ValidationResult, error) {
	locations, err := expandInputs(ctx, cfg, cfg.Inputs)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, errors.New("validate needs at least 1 fingerprint")
	}

	results := make([]schema.ValidationResult, len(locations))
	for i, loc := range locations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := schema.ValidationResult{Location: loc}
		fp, err := resolveFingerprint(ctx, cfg, src, mgr, loc)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Valid = true
			result.SourceID = fp.SourceID
		}
		results[i] = result
	}
	return results, nil
}

// ExecuteBatch compares every target against the first input.
func ExecuteBatch(ctx context.Context, cfg *contract.Config, src contract.FingerprintSource, mgr contract.StoreManager) error {
	start := time.Now()
	result, err := GetBatchResults(ctx, cfg, src, mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	return outWriterFrom(ctx).WriteBatch(ctx, result, cfg, duration)
}

// GetBatchResults treats the first input as the baseline and every other input,
// with directories expanded, as a target. Targets that fail to load get an
// entry with the error and do not stop the batch.
func GetBatchResults(ctx context.Context, cfg *contract.Config, src contract.FingerprintSource, mgr contract.StoreManager) (*schema.BatchResult, error) {
	if len(cfg.Inputs) < 2 {
		return nil, fmt.Errorf("batch needs a baseline and at least 1 target, got %d inputs", len(cfg.Inputs))
	}
	baseline, err := resolveFingerprint(ctx, cfg, src, mgr, cfg.Inputs[0])
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline: %w", err)
	}
	locations, err := expandInputs(ctx, cfg, cfg.Inputs[1:])
	if err != nil {
		return nil, err
	}

	loaded := make([]*schema.Fingerprint, len(locations))
	loadErrs := make([]error, len(locations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, loc := range locations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			loaded[i], loadErrs[i] = resolveFingerprint(gctx, cfg, src, mgr, loc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var targets []*schema.Fingerprint
	for i, fp := range loaded {
		if loadErrs[i] == nil {
			targets = append(targets, fp)
		}
	}

	if !shouldSuppressHeader(ctx) {
		contract.LogInfo("Comparing %d targets against %s with registry v%s", len(locations), baseline.SourceID, cfg.Registry.Version)
	}

	compared, err := newEngine(cfg).CompareBatch(ctx, baseline, targets)
	if err != nil {
		return nil, err
	}

	result := &schema.BatchResult{Baseline: baseline.SourceID, Entries: make([]schema.BatchEntry, 0, len(locations))}
	next := 0
	for i, loc := range locations {
		if loadErrs[i] != nil {
			result.Entries = append(result.Entries, schema.BatchEntry{Target: loc, Error: loadErrs[i].Error()})
			continue
		}
		entry := compared.Entries[next]
		next++
		if entry.Report != nil {
			logWarnings(ctx, entry.Target, entry.Report.Summary.Warnings)
			if cfg.Persist {
				persistComparison(ctx, cfg, mgr, entry.Report, baseline, loaded[i])
			}
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

// ExecuteRegistry prints the resolved registry with threshold overrides applied.
func ExecuteRegistry(ctx context.Context, cfg *contract.Config, _ contract.FingerprintSource, _ contract.StoreManager) error {
	return outWriterFrom(ctx).WriteRegistry(ctx, cfg.Registry, cfg)
}

// ExecuteStoreImport validates every input and saves it as the latest fingerprint of its source.
func ExecuteStoreImport(ctx context.Context, cfg *contract.Config, src contract.FingerprintSource, mgr contract.StoreManager) error {
	store := fingerprintStore(cfg, mgr)
	if store == nil {
		return errors.New("fingerprint store is not enabled (store-backend is none)")
	}
	locations, err := expandInputs(ctx, cfg, cfg.Inputs)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		return errors.New("store import needs at least 1 fingerprint")
	}

	imported := 0
	for _, loc := range locations {
		fp, err := src.LoadFingerprint(ctx, cfg.Registry, loc)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", loc, err)
		}
		if err := putFingerprint(ctx, store, fp); err != nil {
			return fmt.Errorf("failed to store %s: %w", fp.SourceID, err)
		}
		imported++
	}
	if !shouldSuppressHeader(ctx) {
		contract.LogInfo("Imported %d fingerprints", imported)
	}
	return nil
}

// ExecuteStoreList prints the most recent stored comparisons.
func ExecuteStoreList(ctx context.Context, cfg *contract.Config, _ contract.FingerprintSource, mgr contract.StoreManager) error {
	store := comparisonStore(cfg, mgr)
	if store == nil {
		return errors.New("comparison store is not enabled (store-backend is none)")
	}
	runs, err := store.ListComparisons(ctx, cfg.Limit)
	if err != nil {
		return fmt.Errorf("failed to list comparisons: %w", err)
	}
	return outWriterFrom(ctx).WriteComparisonRuns(ctx, runs, cfg)
}

// fingerprintStore returns nil when persistence is disabled, even though the
// none backend installs no-op stores.
func fingerprintStore(cfg *contract.Config, mgr contract.StoreManager) contract.FingerprintStore {
	if mgr == nil || cfg.StoreBackend == schema.NoneBackend {
		return nil
	}
	return mgr.GetFingerprintStore()
}

func comparisonStore(cfg *contract.Config, mgr contract.StoreManager) contract.ComparisonStore {
	if mgr == nil || cfg.StoreBackend == schema.NoneBackend {
		return nil
	}
	return mgr.GetComparisonStore()
}

// newEngine builds an engine from the validated config.
func newEngine(cfg *contract.Config) *Engine {
	return NewEngine(cfg.Registry, Options{
		Workers:          cfg.Workers,
		MinSeverity:      cfg.MinSeverity,
		ClusterThreshold: cfg.ClusterThreshold,
		IncludeUnchanged: cfg.IncludeUnchanged,
	})
}

// resolveAll loads every location in order, failing on the first error.
func resolveAll(ctx context.Context, cfg *contract.Config, src contract.FingerprintSource, mgr contract.StoreManager, locations []string) ([]*schema.Fingerprint, error) {
	fps := make([]*schema.Fingerprint, len(locations))
	for i, loc := range locations {
		fp, err := resolveFingerprint(ctx, cfg, src, mgr, loc)
		if err != nil {
			return nil, err
		}
		fps[i] = fp
	}
	return fps, nil
}

// resolveFingerprint loads location from the source, or from the fingerprint
// store when it carries the store: prefix.
func resolveFingerprint(ctx context.Context, cfg *contract.Config, src contract.FingerprintSource, mgr contract.StoreManager, location string) (*schema.Fingerprint, error) {
	sourceID, fromStore := strings.CutPrefix(location, StorePrefix)
	if !fromStore {
		return src.LoadFingerprint(ctx, cfg.Registry, location)
	}

	store := fingerprintStore(cfg, mgr)
	if store == nil {
		return nil, fmt.Errorf("cannot resolve %s: fingerprint store is not enabled", location)
	}
	rec, err := store.Get(ctx, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no stored fingerprint for source %q", sourceID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stored fingerprint %q: %w", sourceID, err)
	}
	return schema.DecodeFingerprintJSON(cfg.Registry, rec.Document)
}

// expandInputs replaces each directory input with the fingerprint files inside it.
// Store references and files pass through unchanged.
func expandInputs(ctx context.Context, cfg *contract.Config, inputs []string) ([]string, error) {
	var out []string
	for _, in := range inputs {
		if strings.HasPrefix(in, StorePrefix) {
			out = append(out, in)
			continue
		}
		info, err := os.Stat(in)
		if err != nil || !info.IsDir() {
			out = append(out, in)
			continue
		}
		files, err := loader.ListFingerprintFiles(ctx, in, cfg.Excludes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", in, err)
		}
		out = append(out, files...)
	}
	return out, nil
}

// persistComparison records one run and both fingerprints. Store failures
// are logged and never fail the comparison.
func persistComparison(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, report *schema.Report, before, after *schema.Fingerprint) {
	if mgr == nil {
		return
	}
	if store := fingerprintStore(cfg, mgr); store != nil {
		for _, fp := range []*schema.Fingerprint{before, after} {
			if err := putFingerprint(ctx, store, fp); err != nil {
				logTrackingError("Put", fp.SourceID, err)
			}
		}
	}

	store := comparisonStore(cfg, mgr)
	if store == nil {
		return
	}
	encoded, err := json.Marshal(report)
	if err != nil {
		logTrackingError("Marshal", report.Before.SourceID, err)
		return
	}
	runID := uuid.NewString()
	record := schema.NewComparisonRecord(runID, time.Now(), report, encoded)
	if err := store.RecordComparison(ctx, record, schema.NewChangeRecords(runID, report)); err != nil {
		logTrackingError("RecordComparison", runID, err)
	}
}

// putFingerprint stores the canonical JSON form of fp.
func putFingerprint(ctx context.Context, store contract.FingerprintStore, fp *schema.Fingerprint) error {
	doc, err := json.Marshal(fp.Document())
	if err != nil {
		return err
	}
	return store.Put(ctx, schema.FingerprintRecord{
		SourceID:      fp.SourceID,
		SchemaVersion: fp.SchemaVersion,
		GeneratedAt:   fp.GeneratedAt,
		StoredAt:      time.Now().UTC(),
		Document:      doc,
	})
}

// logTrackingError logs store failures without interrupting the command.
func logTrackingError(op, key string, err error) {
	contract.LogWarn(fmt.Sprintf("Store %s failed for %s", op, key), err)
}

// logWarnings surfaces anomalies on stderr unless headers are suppressed.
func logWarnings(ctx context.Context, source string, warnings []string) {
	if shouldSuppressHeader(ctx) {
		return
	}
	for _, w := range warnings {
		contract.LogWarn("Anomaly in "+source, errors.New(w))
	}
}
