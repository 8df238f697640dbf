// Package recorder provides an asynchronous worker pool for persisting chat
// turns using the provided history.Driver.
//
// The pool decouples history writes from the chat loop so a slow or failing
// store never delays the next prompt. Storage errors are logged, never
// returned to the caller.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/langchat/pkg/history"
)

var (
	defaultNumWorkers   uint = 1
	defaultJobQueueSize uint = 256
	defaultPutTimeout        = 10 * time.Second
)

// Config is the configuration options for the recorder pool.
type Config struct {
	// Driver is the history backend turns are written to.
	Driver history.Driver

	// NumWorkers is the number of background workers in the pool. A single
	// worker keeps turns written in the order they were recorded.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// PutTimeout bounds each write to the driver (defaults to 10s).
	PutTimeout time.Duration

	Logger *slog.Logger
}

// Recorder persists turns asynchronously via a worker pool.
type Recorder struct {
	config *Config
	queue  chan *history.Turn
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// New creates a new Recorder and starts its worker goroutines.
func New(c *Config) (*Recorder, error) {
	if c.Driver == nil {
		return nil, errors.New("recorder requires a history driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PutTimeout == 0 {
		c.PutTimeout = defaultPutTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	r := &Recorder{
		config: c,
		queue:  make(chan *history.Turn, c.QueueSize),
		logger: c.Logger,
	}

	r.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go r.worker(i)
	}

	return r, nil
}

// Record submits a turn for persistence.
// Returns true if enqueued, false if the queue is full or the recorder is
// closed, resulting in the turn being dropped.
func (r *Recorder) Record(turn *history.Turn) bool {
	if turn == nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Warn("turn not recorded, recorder closed", "turn_id", turn.ID)
		return false
	}

	select {
	case r.queue <- turn:
		r.logger.Debug("turn queued",
			"turn_id", turn.ID,
			"session_id", turn.SessionID,
		)
		return true
	default:
		r.logger.Error("turn not queued, queue full, turn dropped",
			"turn_id", turn.ID,
			"session_id", turn.SessionID,
		)
		return false
	}
}

// Close stops accepting turns and waits for queued turns to drain.
// It is safe to call more than once.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()

		r.wg.Wait()
	})
}

// worker is the inner worker thread that continuously pulls turns off the queue
func (r *Recorder) worker(id uint) {
	defer r.wg.Done()
	r.logger.Debug("recorder worker started", "worker_id", id)

	for turn := range r.queue {
		r.store(turn)
	}

	r.logger.Debug("recorder worker stopped", "worker_id", id)
}

func (r *Recorder) store(turn *history.Turn) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.PutTimeout)
	defer cancel()

	if err := r.config.Driver.Put(ctx, turn); err != nil {
		r.logger.Error("async history storage failed",
			"turn_id", turn.ID,
			"error", err,
		)
		return
	}

	r.logger.Debug("turn stored",
		"turn_id", turn.ID,
		"session_id", turn.SessionID,
		"streamed", turn.Streamed,
	)
}
