package shipper

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stonewall-labs/a11ylog/config"
)

func lokiSettings(url string) config.Settings {
	cfg := config.Defaults()
	cfg.LokiURL = url
	cfg.LokiEnabled = true
	return cfg
}

func TestLokiClient_PushPayload(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	at := time.UnixMilli(1717000000123)
	ratio := 2.5
	entries := []LogEntry{
		{
			Level:     LevelError,
			Message:   "low contrast",
			Timestamp: at,
			Labels:    map[string]interface{}{"type": "contrast", "ratio": ratio},
		},
		{
			Level:     LevelInfo,
			Message:   "audit complete",
			Timestamp: at.Add(50 * time.Millisecond),
			SessionID: "sess-1",
			Labels:    map[string]interface{}{"type": "evaluation"},
		},
	}

	client := NewLokiClient()
	require.NoError(t, client.Push(context.Background(), entries, lokiSettings(server.URL)))

	assert.Equal(t, "/loki/api/v1/push", gotPath)
	assert.Equal(t, "application/json", gotContentType)

	var payload struct {
		Streams []struct {
			Stream map[string]string `json:"stream"`
			Values [][]string        `json:"values"`
		} `json:"streams"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))

	// Exactly one stream carrying the configured identity labels.
	require.Len(t, payload.Streams, 1)
	stream := payload.Streams[0]
	assert.Equal(t, map[string]string{
		"job":         "accessibility",
		"container":   "stonewall-sveltekit",
		"environment": "development",
		"service":     "a11y-monitoring",
	}, stream.Stream)

	// One value per entry, in enqueue order.
	require.Len(t, stream.Values, 2)

	assert.Equal(t, strconv.FormatInt(1717000000123*int64(time.Millisecond), 10), stream.Values[0][0])

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stream.Values[0][1]), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "low contrast", line["msg"])
	assert.Equal(t, "contrast", line["type"])
	assert.Equal(t, 2.5, line["ratio"])
	_, hasSession := line["sessionId"]
	assert.False(t, hasSession)

	require.NoError(t, json.Unmarshal([]byte(stream.Values[1][1]), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "sess-1", line["sessionId"])
}

func TestLokiClient_TimestampMillisecondPrecision(t *testing.T) {
	// Sub-millisecond digits are always zero.
	at := time.UnixMilli(1717000000123).Add(456 * time.Microsecond)
	entry := LogEntry{Level: LevelInfo, Message: "m", Timestamp: at}

	assert.Equal(t, "1717000000123000000", entry.lokiTimestamp())
}

func TestLokiClient_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewLokiClient()
	err := client.Push(context.Background(), []LogEntry{{Level: LevelInfo, Message: "m", Timestamp: time.Now()}}, lokiSettings(server.URL))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestLokiClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // the address now refuses connections

	client := NewLokiClient()
	err := client.Push(context.Background(), []LogEntry{{Level: LevelInfo, Message: "m", Timestamp: time.Now()}}, lokiSettings(server.URL))

	require.Error(t, err)
}

func TestShipper_EndToEndAgainstHTTPServer(t *testing.T) {
	pushes := make(chan []byte, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		pushes <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	store := config.NewStore()
	enabled := true
	size := 2
	interval := time.Hour
	store.Apply(config.Override{
		LokiURL:       &server.URL,
		LokiEnabled:   &enabled,
		MaxBufferSize: &size,
		FlushInterval: &interval,
	})

	s := New(store)
	s.Contrast("low contrast", ContrastData{Ratio: floatPtr(2.1)})
	s.Summary(SummaryData{Issues: 1, CriticalIssues: 1})

	var body []byte
	select {
	case body = <-pushes:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for push")
	}

	var payload lokiPayload
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Len(t, payload.Streams, 1)
	require.Len(t, payload.Streams[0].Values, 2)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload.Streams[0].Values[1][1]), &line))
	assert.Equal(t, "Accessibility summary: 1 issues (1 critical)", line["msg"])
}
