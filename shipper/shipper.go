// Package shipper buffers structured accessibility-audit events and ships
// them to Loki in batches, falling back to local console echo when the remote
// sink is disabled. Delivery is best-effort and at-most-once: a batch that
// fails to send is reported to the diagnostic sink and dropped, never retried.
package shipper

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/stonewall-labs/a11ylog/config"
	"github.com/stonewall-labs/a11ylog/logger"
	"github.com/stonewall-labs/a11ylog/metrics"
)

// Shipper owns the event queue and the single pending flush timer. Recording
// methods never block on I/O and never return an error to the caller.
type Shipper struct {
	settings *config.Store
	remote   Transport
	echo     func(LogEntry)
	metrics  metrics.Recorder
	onExit   func(func())

	mu            sync.Mutex
	queue         []LogEntry
	timer         *time.Timer
	hookInstalled bool
}

type Option func(*Shipper)

// WithTransport replaces the Loki transport.
func WithTransport(t Transport) Option {
	return func(s *Shipper) { s.remote = t }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Shipper) { s.metrics = r }
}

// WithOnExit injects the process-exit registration capability used for
// automatic flush-on-exit. Without one the shutdown hook is silently skipped.
func WithOnExit(register func(func())) Option {
	return func(s *Shipper) { s.onExit = register }
}

// WithEcho replaces the local echo used when Loki is disabled in development.
func WithEcho(echo func(LogEntry)) Option {
	return func(s *Shipper) { s.echo = echo }
}

// New creates a shipper reading its settings from the given store. A nil
// store means defaults only.
func New(settings *config.Store, opts ...Option) *Shipper {
	if settings == nil {
		settings = config.NewStore()
	}

	s := &Shipper{
		settings: settings,
		remote:   NewLokiClient(),
		metrics:  metrics.Nop(),
	}
	s.echo = func(e LogEntry) {
		logger.Echo(string(e.Level), e.Message, e.Labels)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// record is the single entry point behind every event kind: stamp, ensure the
// shutdown hook, enqueue, and decide between threshold flush and timer.
func (s *Shipper) record(level Level, message, sessionID string, labels map[string]interface{}) {
	if kind, ok := labels["type"].(string); ok {
		s.metrics.EntryRecorded(kind)
	}

	entry := LogEntry{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Labels:    labels,
	}

	cfg := s.settings.Snapshot()
	s.ensureExitHook(cfg)

	s.mu.Lock()
	s.queue = append(s.queue, entry)

	if len(s.queue) >= cfg.MaxBufferSize {
		s.stopTimerLocked()
		batch := s.detachLocked()
		s.mu.Unlock()
		// Fire and forget: threshold flushes never block the recording call.
		go s.send(context.Background(), batch)
		return
	}

	s.ensureTimerLocked(cfg.FlushInterval)
	s.mu.Unlock()
}

// Flush drains the queue and performs the send before returning. Transport
// failures are absorbed; an empty queue returns immediately.
func (s *Shipper) Flush(ctx context.Context) {
	s.mu.Lock()
	s.stopTimerLocked()
	batch := s.detachLocked()
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	s.send(ctx, batch)
}

// Reset forces the scheduler back to its initial state: empty queue, no
// pending timer, shutdown hook forgotten. Meant for tests and process
// re-initialization.
func (s *Shipper) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.queue = nil
	s.hookInstalled = false
}

// Buffered returns the number of entries currently queued.
func (s *Shipper) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// detachLocked transfers ownership of the queued entries to the caller and
// leaves a fresh queue behind. This happens before any I/O so producers that
// run while a send is in flight only ever touch the new queue.
func (s *Shipper) detachLocked() []LogEntry {
	batch := s.queue
	s.queue = nil
	return batch
}

// ensureTimerLocked arms the one-shot flush timer if none is pending.
func (s *Shipper) ensureTimerLocked(interval time.Duration) {
	if s.timer != nil {
		return
	}
	s.timer = time.AfterFunc(interval, s.onTimerFire)
}

func (s *Shipper) stopTimerLocked() {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timer = nil
}

func (s *Shipper) onTimerFire() {
	s.mu.Lock()
	s.timer = nil
	batch := s.detachLocked()
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	s.send(context.Background(), batch)
}

// send dispatches one detached batch. Settings are re-read here so a batch is
// routed according to the configuration at flush time, not enqueue time.
func (s *Shipper) send(ctx context.Context, batch []LogEntry) {
	cfg := s.settings.Snapshot()
	start := time.Now()
	defer func() {
		s.metrics.FlushDuration(time.Since(start))
	}()

	if !cfg.LokiEnabled {
		if cfg.IsDevelopment {
			for _, entry := range batch {
				s.echo(entry)
			}
		}
		return
	}

	if err := s.remote.Push(ctx, batch, cfg); err != nil {
		logger.ReportTransportFailure(err, len(batch))
		s.metrics.BatchFailed(len(batch))
		return
	}
	s.metrics.BatchShipped(len(batch))
}

// ensureExitHook registers the flush-on-exit callback at most once per
// shipper lifetime. No capability or disabled setting means a silent skip.
func (s *Shipper) ensureExitHook(cfg config.Settings) {
	if !cfg.RegisterShutdownHook || s.onExit == nil {
		return
	}

	s.mu.Lock()
	if s.hookInstalled {
		s.mu.Unlock()
		return
	}
	s.hookInstalled = true
	register := s.onExit
	s.mu.Unlock()

	register(func() {
		s.Flush(context.Background())
	})
}

// SignalOnExit returns an exit-registration capability backed by os/signal,
// for host processes that want flush-on-exit wired to SIGINT/SIGTERM.
func SignalOnExit(signals ...os.Signal) func(func()) {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	return func(fn func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, signals...)
		go func() {
			<-ch
			fn()
		}()
	}
}
