package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
	"github.com/folioapp/portfolio-api/internal/infrastructure/metrics"
)

const (
	defaultWorkers     = 4
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	defaultBackoff     = time.Second
	channelBuffer      = 256
)

// Options tunes the worker pool. Zero values fall back to the defaults.
type Options struct {
	Workers     int
	Timeout     time.Duration
	MaxAttempts int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

// Dispatcher delivers notifications in the background on a fixed set of
// workers. Messages are sharded by recipient, so one recipient's messages are
// sent in the order they were dispatched.
type Dispatcher struct {
	workers     []chan domain.Notification
	sink        ports.Notifier
	log         zerolog.Logger
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher delivering to sink. Call Start before
// the first Dispatch is expected to make progress.
func NewDispatcher(sink ports.Notifier, opts Options, log zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}

	d := &Dispatcher{
		workers:     make([]chan domain.Notification, opts.Workers),
		sink:        sink,
		log:         log.With().Str("component", "dispatcher").Logger(),
		timeout:     opts.Timeout,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		done:        make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// messages still queued at that point are abandoned.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
	go func() {
		<-ctx.Done()
		d.stopOnce.Do(func() { close(d.done) })
	}()
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispatch queues n for delivery and returns immediately. When the worker's
// channel is full, or the dispatcher has stopped, the message is dropped.
func (d *Dispatcher) Dispatch(n domain.Notification) {
	select {
	case <-d.done:
		d.drop(n, "dispatcher stopped")
		return
	default:
	}

	idx := d.shardIndex(n.To)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(n, "queue full")
	}
}

func (d *Dispatcher) drop(n domain.Notification, reason string) {
	metrics.NotificationsDroppedTotal.WithLabelValues(string(n.Kind)).Inc()
	d.log.Error().
		Str("notification_id", n.ID).
		Str("kind", string(n.Kind)).
		Str("reason", reason).
		Msg("notification dropped")
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Notification) {
	defer d.wg.Done()
	depth := metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			if pending := len(ch); pending > 0 {
				d.log.Warn().Int("worker_id", id).Int("pending", pending).Msg("worker stopped with pending notifications")
			}
			return
		case n := <-ch:
			depth.Set(float64(len(ch)))
			d.deliver(ctx, id, n)
		}
	}
}

// deliver makes up to maxAttempts calls to the sink, waiting backoff*attempt
// between them. The final failure is logged and counted.
func (d *Dispatcher) deliver(ctx context.Context, workerID int, n domain.Notification) {
	start := time.Now()
	kind := string(n.Kind)

	var err error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err = d.sink.Send(attemptCtx, n)
		cancel()
		if err == nil {
			metrics.NotificationsSentTotal.WithLabelValues(kind).Inc()
			metrics.NotificationDeliveryDuration.WithLabelValues("sent").Observe(time.Since(start).Seconds())
			return
		}

		d.log.Warn().Err(err).
			Str("notification_id", n.ID).
			Int("attempt", attempt).
			Int("worker_id", workerID).
			Msg("notification attempt failed")

		if attempt == d.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			attempt = d.maxAttempts
		case <-time.After(d.backoff * time.Duration(attempt)):
		}
	}

	metrics.NotificationsFailedTotal.WithLabelValues(kind).Inc()
	metrics.NotificationDeliveryDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
	d.log.Error().Err(err).
		Str("notification_id", n.ID).
		Str("kind", kind).
		Int("worker_id", workerID).
		Msg("notification delivery failed")
}
