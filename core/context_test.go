package core

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/aimarketingflow/pawprint/internal/outwriter"
	"github.com/stretchr/testify/assert"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	var buf bytes.Buffer
	ow := outwriter.NewOutWriterTo(&buf)
	ctx := WithOutWriter(WithSuppressHeader(context.Background()), ow)

	const numGoroutines = 50
	var wg sync.WaitGroup
	for i := range numGoroutines {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.True(t, shouldSuppressHeader(ctx), "Goroutine %d: shouldSuppressHeader should be true", id)
			assert.Same(t, ow, outWriterFrom(ctx), "Goroutine %d: writer should be the stored one", id)
		}(i)
	}
	wg.Wait()
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	assert.False(t, shouldSuppressHeader(ctx))
	assert.NotNil(t, outWriterFrom(ctx))

	// A wrong value type does not count as suppression.
	ctx = context.WithValue(ctx, suppressHeaderKey, "yes")
	assert.False(t, shouldSuppressHeader(ctx))
}
