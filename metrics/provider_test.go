package metrics

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop_DiscardsEverything(t *testing.T) {
	r := Nop()

	// Must be safe to call without any provider wired up.
	r.EntryRecorded("contrast")
	r.BatchShipped(10)
	r.BatchFailed(3)
	r.FlushDuration(5 * time.Millisecond)
}

func TestProvider_RecordAndScrape(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(ctx, Config{
		ServiceName:    "a11ylog-test",
		ServiceVersion: "0.0.0",
		Environment:    "test",
	})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, p.Shutdown(ctx))
	}()

	rec := p.Recorder()
	rec.EntryRecorded("contrast")
	rec.EntryRecorded("wcag")
	rec.BatchShipped(2)
	rec.BatchFailed(1)
	rec.FlushDuration(12 * time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "a11ylog_entries_recorded")
	assert.Contains(t, body, "a11ylog_flush_duration")
}
