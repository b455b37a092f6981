package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

func withObservedLogger(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	prev := Diag()
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}

func TestEcho_Format(t *testing.T) {
	logs := withObservedLogger(t)

	Echo("error", "text must have sufficient contrast", map[string]interface{}{
		"type":     "contrast",
		"selector": ".hero > p",
		"ratio":    2.1,
	})

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "[A11y ERROR] text must have sufficient contrast", entries[0].Message)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "contrast", ctx["type"])
	assert.Equal(t, ".hero > p", ctx["selector"])
}

func TestEcho_LevelMapping(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"info", zap.InfoLevel},
		{"warn", zap.WarnLevel},
		{"error", zap.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logs := withObservedLogger(t)
			Echo(tt.level, "msg", nil)
			entries := logs.All()
			assert.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Level)
		})
	}
}

func TestReportTransportFailure_Throttled(t *testing.T) {
	logs := withObservedLogger(t)

	prev := failureLimiter
	failureLimiter = rate.NewLimiter(rate.Every(time.Hour), 3)
	t.Cleanup(func() { failureLimiter = prev })

	for i := 0; i < 10; i++ {
		ReportTransportFailure(errors.New("connection refused"), 5)
	}

	// Only the limiter burst gets through.
	assert.Len(t, logs.All(), 3)
	assert.Equal(t, int64(5), logs.All()[0].ContextMap()["batch_size"])
}
