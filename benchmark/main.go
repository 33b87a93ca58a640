// Package main provides a performance benchmarking tool for the pawprint CLI.
// It generates synthetic fingerprints of increasing size, times compare and
// batch runs with the store disabled and with SQLite persistence, treats the
// first persisted run as cold and averages the rest as warm, and writes the
// timings to CSV.
//
// Prerequisites:
// - pawprint binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated fingerprints and the benchmark store
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-store average, cold run and average of warm runs).
type BenchmarkResult struct {
	Size        string
	Command     string
	NoStoreTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoStoreRuns int
	StoreRuns   int
	BatchSize   int
	Sizes       map[string]int // label -> entries per sequence and frequency metric
	SizeOrder   []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     2 * time.Minute,
		Workers:     8,
		NoStoreRuns: 3,
		StoreRuns:   4,
		BatchSize:   25,
		Sizes:       map[string]int{"small": 10, "medium": 1000, "large": 50000},
		SizeOrder:   []string{"small", "medium", "large"},
	}

	if _, err := exec.LookPath("pawprint"); err != nil {
		fmt.Printf("Prerequisites check failed: pawprint binary not found in PATH\n")
		os.Exit(1)
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks generates fixtures for every size and times compare and batch on them.
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %v timeout, %d workers, no-store: %d runs, store: %d runs\n",
		len(config.SizeOrder), config.Timeout, config.Workers, config.NoStoreRuns, config.StoreRuns)

	for _, size := range config.SizeOrder {
		dir := filepath.Join(config.WorkDir, size)
		files, err := generateFingerprints(dir, config.Sizes[size], config.BatchSize+1)
		if err != nil {
			return nil, fmt.Errorf("generating %s fingerprints: %w", size, err)
		}
		fmt.Printf("Benchmarking %s fingerprints (%d entries per collection)\n", size, config.Sizes[size])

		results = append(results, runBenchmarkSuite(config, size, "compare", files[0], files[1]))
		results = append(results, runBenchmarkSuite(config, size, "batch", files...))
	}
	return results, nil
}

// runBenchmarkSuite runs both no-store and persisted benchmarks for a command.
func runBenchmarkSuite(config BenchmarkConfig, size, command string, inputs ...string) BenchmarkResult {
	dbPath := filepath.Join(config.WorkDir, size+"-"+command+".db")
	_ = os.Remove(dbPath)

	runPhase := func(backend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		args := []string{command, "--output", "json", "--output-file", os.DevNull, "--workers", fmt.Sprint(config.Workers), "--store-backend", backend}
		if backend == "sqlite" {
			args = append(args, "--store-db-connect", dbPath, "--persist")
		}
		args = append(args, inputs...)

		cold, times := runBenchmark(config, args, numRuns)
		if len(times) == 0 {
			return cold, "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	_, noStoreAvg := runPhase("none", config.NoStoreRuns, "No-store")
	coldTime, warmAvg := runPhase("sqlite", config.StoreRuns, "Store")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-store average: %s, Cold time: %s, Warm average: %s\n", noStoreAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Size:        size,
		Command:     command,
		NoStoreTime: noStoreAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes pawprint numRuns times and returns the cold time and the warm times.
// A run that fails or exceeds the timeout is not counted.
func runBenchmark(config BenchmarkConfig, args []string, numRuns int) (coldTime float64, warmTimes []float64) {
	var times []float64
	for range numRuns {
		start := time.Now()
		cmd := exec.Command("pawprint", args...)

		done := make(chan error, 1)
		go func() {
			done <- cmd.Run()
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// generateFingerprints writes count related fingerprints to dir, each with
// entries items per collection metric, and returns their paths.
func generateFingerprints(dir string, entries, count int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(uint64(entries), uint64(count)))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	paths := make([]string, 0, count)
	for i := range count {
		extensions := make(map[string]float64, entries)
		executables := make([]map[string]any, 0, entries)
		for j := range entries {
			extensions[fmt.Sprintf("ext%d", j)] = float64(rng.IntN(500))
			// Drift a few entries per generation so every comparison has changes.
			if rng.IntN(20) != 0 || i == 0 {
				executables = append(executables, map[string]any{"id": fmt.Sprintf("bin-%d", j), "name": fmt.Sprintf("bin/tool%d", j)})
			}
		}
		doc := map[string]any{
			"source_id":      fmt.Sprintf("bench-%d", i),
			"schema_version": "1",
			"generated_at":   base.Add(time.Duration(i) * time.Hour),
			"categories": map[string]any{
				"structure": map[string]any{
					"file_count": 200 + rng.IntN(600),
					"dir_count":  20 + rng.IntN(100),
					"extensions": extensions,
				},
				"permissions": map[string]any{
					"world_writable": rng.IntN(10) == 0,
					"setuid_count":   rng.IntN(5),
					"executables":    executables,
					"owner":          "root",
				},
			},
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf("fp-%03d.json", i))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("pawprint_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"size", "cmd", "no_store_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Size, result.Command, result.NoStoreTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	printCommandSummary(results, "compare", "Compare:")
	printCommandSummary(results, "batch", "Batch:")
}

// printCommandSummary displays results for a specific command.
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: No-store: %s, Cold: %s, Warm: %s\n", result.Size, result.NoStoreTime, result.ColdTime, result.WarmTime)
		}
	}
}
