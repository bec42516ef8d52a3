package notify

import (
	"context"
	"sync"
	"time"

	"emhana.org/internal/obs"
)

// Message is a templated notification for a single recipient. Context holds
// the values interpolated into the template body.
type Message struct {
	To       string
	Subject  string
	Template string
	Context  map[string]any
}

// Notifier delivers a message. Implementations must treat Send as a blocking
// call bounded by ctx.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

const defaultSendTimeout = 10 * time.Second

// Dispatcher delivers messages in the background. A delivery failure is
// logged and counted, never surfaced to the caller: credential operations
// must not fail because mail is down.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher wraps a notifier. A nil notifier produces a dispatcher that
// drops every message, which keeps dev setups without SMTP working.
func NewDispatcher(n Notifier) *Dispatcher {
	return &Dispatcher{notifier: n, timeout: defaultSendTimeout}
}

// Dispatch queues a message for background delivery and returns immediately.
func (d *Dispatcher) Dispatch(msg Message) {
	if d == nil || d.notifier == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.notifier.Send(ctx, msg); err != nil {
			obs.IncMailFailure()
			obs.LogEvent(map[string]any{
				"ts":       time.Now().UTC().Format(time.RFC3339Nano),
				"level":    "error",
				"msg":      "mail delivery failed",
				"to":       msg.To,
				"template": msg.Template,
				"error":    err.Error(),
			})
		}
	}()
}

// Wait blocks until all in-flight deliveries finish. Called on shutdown and
// by tests that assert on delivered mail.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// Recorder is a Notifier for tests: it stores messages instead of sending.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}
