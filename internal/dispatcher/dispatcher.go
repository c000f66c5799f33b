// Package dispatcher routes host commands to handlers.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrUnknownCommand is returned for commands without a handler.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrQueueFull is returned when a non-blocking buffered handler drops an event.
	ErrQueueFull = errors.New("queue full")
	// ErrClosed is returned for events dispatched after Close.
	ErrClosed = errors.New("dispatcher closed")
)

// Queued is the result returned for events accepted by a buffered handler.
const Queued = "queued"

// Event is one command received from the host.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger is the logging surface the dispatcher needs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*handlerConfig)

type handlerConfig struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered runs the handler on its own goroutine behind a queue of the given size.
func Buffered(size int) Option {
	return func(c *handlerConfig) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler wait for room instead of dropping.
func Blocking() Option {
	return func(c *handlerConfig) {
		c.blocking = true
	}
}

// Logged logs every event at debug level and failures at error level.
func Logged() Option {
	return func(c *handlerConfig) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	logger Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	queues   map[string]chan Event
	closed   bool
	workers  sync.WaitGroup

	queueSize metric.Int64ObservableGauge
	handled   metric.Int64Counter
	dropped   metric.Int64Counter
	latency   metric.Float64Histogram
}

// New creates a Dispatcher. Metrics go to the global OTel meter provider,
// which is a no-op until telemetry is configured.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
		queues:   make(map[string]chan Event),
	}

	m := meter()
	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"navlink.dispatch.queue.size",
		metric.WithDescription("Events waiting in a buffered handler queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	_, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		d.mu.RLock()
		defer d.mu.RUnlock()
		for cmd, q := range d.queues {
			o.ObserveInt64(d.queueSize, int64(len(q)), metric.WithAttributes(attribute.String("command", cmd)))
		}
		return nil
	}, d.queueSize)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.handled, err = m.Int64Counter(
		"navlink.dispatch.handled",
		metric.WithDescription("Events handled, by command and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating handled counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"navlink.dispatch.dropped",
		metric.WithDescription("Events dropped because a queue was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	d.latency, err = m.Float64Histogram(
		"navlink.dispatch.duration",
		metric.WithDescription("Handler execution time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating latency histogram: %w", err)
	}

	return d, nil
}

// Register adds a handler for the command, replacing any previous one.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &handlerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := d.measured(command, h)
	if cfg.logged {
		handler = d.withLogging(command, handler)
	}
	if cfg.bufferSize > 0 {
		handler = d.withQueue(command, cfg.bufferSize, cfg.blocking, handler)
	}

	d.mu.Lock()
	d.handlers[command] = handler
	d.mu.Unlock()
}

// Dispatch routes an event to its handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	h, ok := d.handlers[e.Command]
	closed := d.closed
	d.mu.RUnlock()

	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return h(e)
}

// HasHandler reports whether a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[command]
	return ok
}

// Commands returns the registered command names in sorted order.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for cmd := range d.handlers {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

// Close stops accepting events and waits for buffered queues to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	d.workers.Wait()
}

func (d *Dispatcher) measured(command string, h HandlerFunc) HandlerFunc {
	cmdAttr := attribute.String("command", command)
	return func(e Event) (any, error) {
		start := time.Now()
		result, err := h(e)

		status := "ok"
		if err != nil {
			status = "error"
		}
		ctx := context.Background()
		d.handled.Add(ctx, 1, metric.WithAttributes(cmdAttr, attribute.String("status", status)))
		d.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(cmdAttr))
		return result, err
	}
}

func (d *Dispatcher) withQueue(command string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	queue := make(chan Event, size)

	d.mu.Lock()
	d.queues[command] = queue
	d.mu.Unlock()

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for e := range queue {
			if _, err := h(e); err != nil && d.logger != nil {
				d.logger.Error("queued event failed", "command", command, "error", err)
			}
		}
	}()

	cmdAttr := attribute.String("command", command)
	return func(e Event) (any, error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return nil, ErrClosed
		}

		if blocking {
			queue <- e
			return Queued, nil
		}
		select {
		case queue <- e:
			return Queued, nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, command)
		}
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	if d.logger == nil {
		return h
	}
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "args", len(e.Args))

		result, err := h(e)
		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		}
		return result, err
	}
}
