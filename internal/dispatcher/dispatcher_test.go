package dispatcher

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) log(level, msg string, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("%s: %s %v", level, msg, kv))
}

func (l *testLogger) Debug(msg string, kv ...any) { l.log("DEBUG", msg, kv) }
func (l *testLogger) Info(msg string, kv ...any)  { l.log("INFO", msg, kv) }
func (l *testLogger) Error(msg string, kv ...any) { l.log("ERROR", msg, kv) }

func (l *testLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	t.Helper()
	logger := &testLogger{}
	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	return d, logger
}

func TestDispatch_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register(":LINK:GET:", func(e Event) (any, error) {
		got = e
		return "result", nil
	})

	result, err := d.Dispatch(Event{Command: ":LINK:GET:", Args: []string{"ramp"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "result" {
		t.Errorf("expected 'result', got %v", result)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected dispatch to stamp the event")
	}
	if !reflect.DeepEqual(got.Args, []string{"ramp"}) {
		t.Errorf("unexpected args %v", got.Args)
	}
}

func TestDispatch_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(Event{Command: ":NOPE:"})
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestDispatch_HandlerError(t *testing.T) {
	d, _ := newTestDispatcher(t)
	boom := errors.New("boom")
	d.Register(":FAIL:", func(Event) (any, error) { return nil, boom })

	if _, err := d.Dispatch(Event{Command: ":FAIL:"}); !errors.Is(err, boom) {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestRegister_Replaces(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.Register(":CMD:", func(Event) (any, error) { return 1, nil })
	d.Register(":CMD:", func(Event) (any, error) { return 2, nil })

	result, _ := d.Dispatch(Event{Command: ":CMD:"})
	if result != 2 {
		t.Errorf("expected latest handler, got %v", result)
	}
}

func TestCommands_Sorted(t *testing.T) {
	d, _ := newTestDispatcher(t)
	noop := func(Event) (any, error) { return nil, nil }
	d.Register(":UNDO:", noop)
	d.Register(":LINK:CREATE:", noop)
	d.Register(":REDO:", noop)

	want := []string{":LINK:CREATE:", ":REDO:", ":UNDO:"}
	if got := d.Commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if !d.HasHandler(":UNDO:") || d.HasHandler(":VERSION:") {
		t.Error("HasHandler mismatch")
	}
}

func TestBuffered_ProcessesAll(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	d.Register(":LINK:SNAP:", func(Event) (any, error) {
		processed.Add(1)
		return nil, nil
	}, Buffered(100))

	for i := 0; i < 3; i++ {
		result, err := d.Dispatch(Event{Command: ":LINK:SNAP:"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != Queued {
			t.Errorf("expected %q, got %v", Queued, result)
		}
	}

	d.Close()
	if processed.Load() != 3 {
		t.Errorf("expected 3 processed after Close, got %d", processed.Load())
	}
}

func TestBuffered_DropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	started := make(chan struct{}, 1)
	block := make(chan struct{})
	d.Register(":FULL:", func(Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(2))

	d.Dispatch(Event{Command: ":FULL:"})
	<-started
	d.Dispatch(Event{Command: ":FULL:"})
	d.Dispatch(Event{Command: ":FULL:"})

	_, err := d.Dispatch(Event{Command: ":FULL:"})
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}

	close(block)
	d.Close()
}

func TestBuffered_Blocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	started := make(chan struct{}, 1)
	block := make(chan struct{})
	d.Register(":BLOCKING:", func(Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	d.Dispatch(Event{Command: ":BLOCKING:"})
	<-started
	d.Dispatch(Event{Command: ":BLOCKING:"})

	done := make(chan struct{})
	go func() {
		d.Dispatch(Event{Command: ":BLOCKING:"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	<-done
	d.Close()
}

func TestBuffered_LogsAsyncFailures(t *testing.T) {
	d, logger := newTestDispatcher(t)
	d.Register(":ASYNC:", func(Event) (any, error) {
		return nil, errors.New("nope")
	}, Buffered(1))

	d.Dispatch(Event{Command: ":ASYNC:"})
	d.Close()

	if logger.count() != 1 {
		t.Errorf("expected one error log, got %d", logger.count())
	}
}

func TestClose_RejectsFurtherEvents(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.Register(":CMD:", func(Event) (any, error) { return nil, nil }, Buffered(1))

	d.Close()
	d.Close()

	if _, err := d.Dispatch(Event{Command: ":CMD:"}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestLogged(t *testing.T) {
	d, logger := newTestDispatcher(t)
	d.Register(":LOGGED:", func(Event) (any, error) { return "ok", nil }, Logged())

	d.Dispatch(Event{Command: ":LOGGED:", Args: []string{"a", "b"}})

	if logger.count() != 2 {
		t.Errorf("expected 2 log messages, got %d", logger.count())
	}
}

func TestLogged_NilLogger(t *testing.T) {
	d, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	d.Register(":LOGGED:", func(Event) (any, error) { return "ok", nil }, Logged())

	if result, err := d.Dispatch(Event{Command: ":LOGGED:"}); err != nil || result != "ok" {
		t.Errorf("unexpected result %v, %v", result, err)
	}
}
