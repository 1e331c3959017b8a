package hub

import (
	"context"
	"sync"
	"time"

	"github.com/voidnologo/bokeh-graph/internal/report"
	"github.com/voidnologo/bokeh-graph/internal/watcher"
	"go.uber.org/zap"
)

const subscriberBuffer = 4

// Builder produces a fresh report. *report.Builder satisfies it.
type Builder interface {
	Build() (report.Report, error)
}

// Update announces that a new report generation is available.
type Update struct {
	Generation uint64    `json:"generation"`
	BuiltAt    time.Time `json:"built_at"`
}

// Hub owns the current report, rebuilds it on file change events and
// notifies all subscribers of every successful rebuild.
type Hub struct {
	builder Builder
	input   <-chan watcher.Event
	logger  *zap.Logger

	mu          sync.RWMutex
	current     report.Report
	generation  uint64
	builtAt     time.Time
	lastErr     error
	subscribers map[chan Update]struct{}
	dropped     int64
}

// New creates a Hub. input may be nil when the file is not watched.
func New(b Builder, input <-chan watcher.Event, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		builder:     b,
		input:       input,
		logger:      logger,
		subscribers: make(map[chan Update]struct{}),
	}
}

// Load performs the initial build. Unlike later rebuilds, its error is fatal
// to the caller since there is no previous report to fall back on.
func (h *Hub) Load() error {
	rep, err := h.builder.Build()
	if err != nil {
		return err
	}
	h.publish(rep)
	return nil
}

// Current returns the latest report and its generation.
func (h *Hub) Current() (report.Report, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current, h.generation
}

// Status returns the time of the last successful build and the error of
// the most recent failed one, if it failed after that.
func (h *Hub) Status() (time.Time, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.builtAt, h.lastErr
}

// Subscribe returns a buffered channel that receives an Update per rebuild.
func (h *Hub) Subscribe() <-chan Update {
	ch := make(chan Update, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (h *Hub) Unsubscribe(sub <-chan Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		if ch == sub {
			delete(h.subscribers, ch)
			close(ch)
			return
		}
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns the total number of updates dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Start rebuilds the report on every input event.
// Blocks until the context is cancelled or the input channel is closed.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-h.input:
			if !ok {
				return
			}
			h.logger.Debug("log file changed", zap.String("path", ev.Path), zap.Stringer("op", ev.Op))
			h.Rebuild()
		}
	}
}

// Rebuild runs the builder once. On failure the previous report stays current.
func (h *Hub) Rebuild() {
	rep, err := h.builder.Build()
	if err != nil {
		h.mu.Lock()
		h.lastErr = err
		h.mu.Unlock()
		h.logger.Warn("rebuild failed, keeping previous report", zap.Error(err))
		return
	}
	h.publish(rep)
}

// publish swaps in rep and notifies every subscriber.
// If a subscriber's channel is full, the update is dropped for that subscriber.
func (h *Hub) publish(rep report.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = rep
	h.generation++
	h.builtAt = time.Now()
	h.lastErr = nil

	u := Update{Generation: h.generation, BuiltAt: h.builtAt}
	for ch := range h.subscribers {
		select {
		case ch <- u:
		default:
			h.dropped++
			h.logger.Debug("dropped update for slow consumer", zap.Int64("total_dropped", h.dropped))
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = make(map[chan Update]struct{})
}
