package core

import (
	"context"

	"github.com/aimarketingflow/pawprint/internal/outwriter"
)

// Context keys for execution options
type contextKey string

const (
	suppressHeaderKey contextKey = "suppressHeader"
	writerKey         contextKey = "outWriter"
)

// WithSuppressHeader marks the context so that status lines and anomaly
// warnings are not logged. Used by the MCP server.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// WithOutWriter routes Execute* output through ow instead of stdout.
func WithOutWriter(ctx context.Context, ow *outwriter.OutWriter) context.Context {
	return context.WithValue(ctx, writerKey, ow)
}

// outWriterFrom returns the writer stored in ctx, or one bound to stdout.
func outWriterFrom(ctx context.Context) *outwriter.OutWriter {
	if ow, ok := ctx.Value(writerKey).(*outwriter.OutWriter); ok && ow != nil {
		return ow
	}
	return outwriter.NewOutWriter()
}
