package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aimarketingflow/pawprint/schema"
	"github.com/fatih/color"
)

// S3Scheme prefixes output targets that go to object storage.
const S3Scheme = "s3://"

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // criticalColor represents standard danger.
	HighColor     = color.New(color.FgMagenta, color.Bold) // highColor represents strong, distinct warning.
	MediumColor   = color.New(color.FgYellow)              // mediumColor represents standard caution, not bold.
	LowColor      = color.New(color.FgCyan)                // lowColor represents informational / low-priority signal.
	InfoColor     = color.New(color.FgHiBlack)
	AddedColor    = color.New(color.FgGreen)
	RemovedColor  = color.New(color.FgRed)
	ModifiedColor = color.New(color.FgYellow)
)

// GetPlainLabel returns a plain text label for a severity tier. This is the core
// logic used for CSV, JSON, and table printing.
func GetPlainLabel(sev schema.Severity) string {
	switch sev {
	case schema.SeverityCritical:
		return "Critical"
	case schema.SeverityHigh:
		return "High"
	case schema.SeverityMedium:
		return "Medium"
	case schema.SeverityLow:
		return "Low"
	case schema.SeverityInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// GetColorLabel returns a colored severity label for console output (table).
func GetColorLabel(sev schema.Severity) string {
	text := GetPlainLabel(sev)

	switch sev {
	case schema.SeverityCritical:
		return CriticalColor.Sprint(text)
	case schema.SeverityHigh:
		return HighColor.Sprint(text)
	case schema.SeverityMedium:
		return MediumColor.Sprint(text)
	case schema.SeverityLow:
		return LowColor.Sprint(text)
	default:
		return InfoColor.Sprint(text)
	}
}

// GetColorKind returns a colored change kind for console output.
func GetColorKind(kind schema.ChangeKind) string {
	switch kind {
	case schema.Added:
		return AddedColor.Sprint(string(kind))
	case schema.Removed:
		return RemovedColor.Sprint(string(kind))
	case schema.Modified:
		return ModifiedColor.Sprint(string(kind))
	default:
		return string(kind)
	}
}

// GetColorDivergence returns the colored divergence label for a score in [0,1].
func GetColorDivergence(score float64) string {
	text := schema.GetDivergenceLabel(score)
	switch text {
	case "Critical":
		return CriticalColor.Sprint(text)
	case "High":
		return HighColor.Sprint(text)
	case "Moderate":
		return MediumColor.Sprint(text)
	case "Low":
		return LowColor.Sprint(text)
	default:
		return InfoColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given path matches any of the exclude patterns.
// It supports simple glob patterns (using filepath.Match) when the pattern
// contains wildcard characters (*, ?, [ ]). Patterns ending with '/' are treated
// as prefixes. Patterns starting with '.' are treated as suffix (extension) matches.
// A user can provide patterns like "archive/", "*.tmp", ".bak".
func ShouldIgnore(path string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		// If the pattern contains glob characters, try filepath.Match.
		if strings.ContainsAny(ex, "*?[") {
			pat := strings.ReplaceAll(ex, "**", "*")
			if ok, err := filepath.Match(pat, path); err == nil && ok {
				return true
			}
			// Also try matching against the base filename (e.g. *.tmp)
			if ok, err := filepath.Match(pat, filepath.Base(path)); err == nil && ok {
				return true
			}
			continue
		}

		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(path, ex) || strings.Contains(path, "/"+ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(path, ex) {
				return true
			}
		case strings.Contains(path, ex):
			return true
		}
	}
	return false
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", CriticalColor.Sprint("Fatal"), msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", MediumColor.Sprint("Warn"), msg, err)
}

// LogInfo logs a status line to stderr so stdout stays machine-readable.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", LowColor.Sprint("Info"), fmt.Sprintf(format, args...))
}

// GetStoreDBFilePath returns the path to the SQLite DB file for the pawprint store.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".pawprint.db"
	}
	return filepath.Join(homeDir, ".pawprint.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// SplitS3Target splits "s3://key/path" into its object key. ok is false for other targets.
func SplitS3Target(target string) (string, bool) {
	if !strings.HasPrefix(target, S3Scheme) {
		return "", false
	}
	return strings.TrimPrefix(target, S3Scheme), true
}
