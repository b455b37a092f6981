package shipper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stonewall-labs/a11ylog/config"
)

// Transport pushes one detached batch as a single request. Implementations
// must treat the batch as all-or-nothing: either the whole batch goes out in
// one request or the push fails as a unit.
type Transport interface {
	Push(ctx context.Context, entries []LogEntry, cfg config.Settings) error
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

type lokiPayload struct {
	Streams []lokiStream `json:"streams"`
}

// LokiClient ships batches to Loki's HTTP push endpoint.
type LokiClient struct {
	client *http.Client
}

func NewLokiClient() *LokiClient {
	return &LokiClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Push sends the whole batch as one stream, values in enqueue order.
func (c *LokiClient) Push(ctx context.Context, entries []LogEntry, cfg config.Settings) error {
	values := make([][]string, 0, len(entries))
	for _, entry := range entries {
		line, err := entry.lokiLine()
		if err != nil {
			return fmt.Errorf("failed to encode log line: %w", err)
		}
		values = append(values, []string{entry.lokiTimestamp(), line})
	}

	payload := lokiPayload{
		Streams: []lokiStream{{
			Stream: map[string]string{
				"job":         cfg.JobLabel,
				"container":   cfg.ContainerLabel,
				"environment": cfg.Environment,
				"service":     cfg.ServiceLabel,
			},
			Values: values,
		}},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Loki payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/loki/api/v1/push", cfg.LokiURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create Loki request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send logs to Loki: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Loki push failed with status: %d", resp.StatusCode)
	}

	return nil
}
