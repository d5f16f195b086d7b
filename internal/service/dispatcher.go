package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/suar-net/leadintake/internal/metrics"
	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/pkg/logging"
)

const defaultSinkTimeout = 10 * time.Second

// Dispatcher accepts leads into a bounded queue and hands them to a sink from
// a fixed pool of workers, so intake responses never wait on the sink.
type Dispatcher struct {
	sink    LeadAcceptor
	queue   chan *model.Lead
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.IntakeMetrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sink LeadAcceptor, queueSize, workers int, logger *logging.Logger, m *metrics.IntakeMetrics) *Dispatcher {
	if queueSize < 0 {
		queueSize = 0
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Default()
	}

	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan *model.Lead, queueSize),
		timeout: defaultSinkTimeout,
		logger:  logger,
		metrics: m,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Accept enqueues lead without blocking. It fails with ErrQueueFull when the
// workers are behind and ErrDispatcherClosed after Close.
func (d *Dispatcher) Accept(_ context.Context, lead *model.Lead) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- lead:
		return nil
	default:
		d.metrics.ObserveDispatch("dropped")
		return ErrQueueFull
	}
}

// Close stops intake and waits for queued leads to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
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
	for lead := range d.queue {
		d.deliver(lead)
	}
}

func (d *Dispatcher) deliver(lead *model.Lead) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Errorw("lead sink panicked", "lead_id", lead.ID, "panic", rec)
			d.metrics.ObserveDispatch("error")
		}
	}()

	if err := d.sink.Accept(ctx, lead); err != nil {
		d.logger.Errorw("lead sink failed", "lead_id", lead.ID, "error", err)
		d.metrics.ObserveDispatch("error")
		return
	}
	d.metrics.ObserveDispatch("ok")
}

// MultiAcceptor hands each lead to every acceptor and joins their errors.
type MultiAcceptor []LeadAcceptor

func (m MultiAcceptor) Accept(ctx context.Context, lead *model.Lead) error {
	var errs []error
	for _, a := range m {
		if err := a.Accept(ctx, lead); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogAcceptor records accepted leads in the log. It is the sink used when no
// database or email sink is configured.
type LogAcceptor struct {
	Logger *logging.Logger
}

func (a LogAcceptor) Accept(_ context.Context, lead *model.Lead) error {
	a.Logger.Infow("lead received",
		"lead_id", lead.ID,
		"name", lead.Submission.Name,
		"phone", lead.Submission.Phone,
		"monthly_bill", lead.Submission.MonthlyBill,
		"property_type", lead.Submission.PropertyType,
		"received_at", lead.ReceivedAt,
	)
	return nil
}
