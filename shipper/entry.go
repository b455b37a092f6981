package shipper

import (
	"encoding/json"
	"strconv"
	"time"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// LogEntry is one audit event queued for shipment. Entries are immutable once
// created; a flushed entry belongs to exactly one batch.
type LogEntry struct {
	Level     Level
	Message   string
	Timestamp time.Time
	SessionID string
	Labels    map[string]interface{}
}

// lokiTimestamp renders the entry timestamp as a nanosecond epoch string.
// Precision is milliseconds; the sub-millisecond digits are always zero so
// the value round-trips through its text form.
func (e LogEntry) lokiTimestamp() string {
	return strconv.FormatInt(e.Timestamp.UnixMilli()*int64(time.Millisecond), 10)
}

// lokiLine renders the entry as the JSON log line Loki stores alongside the
// timestamp: level and msg plus every label field, flattened into one object.
func (e LogEntry) lokiLine() (string, error) {
	line := make(map[string]interface{}, len(e.Labels)+2)
	for k, v := range e.Labels {
		line[k] = v
	}
	line["level"] = string(e.Level)
	line["msg"] = e.Message
	if e.SessionID != "" {
		line["sessionId"] = e.SessionID
	}

	data, err := json.Marshal(line)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
