// Package notification delivers best-effort emails off the request path.
package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fest-portal-api/internal/domain"
	"github.com/fest-portal-api/internal/pkg/id"
)

var (
	errQueueFull = errors.New("notification queue full")
	errStopped   = errors.New("notification dispatcher stopped")
)

// Notifier accepts messages for background delivery.
type Notifier interface {
	Enqueue(msg domain.Message)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type failureStore interface {
	Create(ctx context.Context, f *domain.NotificationFailure) error
}

type DispatcherDeps struct {
	Mailer      mailer
	FailureRepo failureStore
	Workers     int
	QueueSize   int
	Clock       func() time.Time
}

// Dispatcher sends queued messages with a fixed pool of workers. Messages
// that cannot be queued or delivered are recorded in the failure store.
type Dispatcher struct {
	mailer   mailer
	failures failureStore
	clock    func() time.Time
	queue    chan domain.Message
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	workers := deps.Workers
	if workers < 1 {
		workers = 1
	}
	size := deps.QueueSize
	if size < 1 {
		size = 1
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	d := &Dispatcher{
		mailer:   deps.Mailer,
		failures: deps.FailureRepo,
		clock:    clock,
		queue:    make(chan domain.Message, size),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Enqueue does not wait for queue space. A message that cannot be queued
// is written to the failure store before Enqueue returns.
func (d *Dispatcher) Enqueue(msg domain.Message) {
	if msg.To == "" {
		return
	}
	if err := d.offer(msg); err != nil {
		d.recordFailure(msg, err)
	}
}

func (d *Dispatcher) offer(msg domain.Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errStopped
	}
	select {
	case d.queue <- msg:
		return nil
	default:
		return errQueueFull
	}
}

// Shutdown stops accepting messages and waits for queued ones to be sent.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		if err := d.mailer.SendEmail(msg.To, msg.Subject, msg.Body); err != nil {
			d.recordFailure(msg, err)
			continue
		}
		slog.Info("notification sent", "subject", msg.Subject)
	}
}

func (d *Dispatcher) recordFailure(msg domain.Message, cause error) {
	slog.Error("notification failed", "to", msg.To, "subject", msg.Subject, "err", cause)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := &domain.NotificationFailure{
		FailureID: id.New(),
		Recipient: msg.To,
		Subject:   msg.Subject,
		Error:     cause.Error(),
		CreatedAt: d.clock().UTC(),
	}
	if err := d.failures.Create(ctx, f); err != nil {
		slog.Warn("failed to record notification failure", "subject", msg.Subject, "err", err)
	}
}
