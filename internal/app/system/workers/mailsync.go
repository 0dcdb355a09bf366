// internal/app/system/workers/mailsync.go
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/memberhub/internal/app/lifecycle"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the mail-sync queue has no room left.
	ErrQueueFull = errors.New("mail sync queue is full")
	// ErrStopped is returned once the worker has been stopped.
	ErrStopped = errors.New("mail sync worker is stopped")
)

// FailureRecorder records provider calls the worker gave up on.
type FailureRecorder interface {
	MailingListFailed(ctx context.Context, userID primitive.ObjectID, op, jobID string, err error)
}

// MailSyncConfig tunes the worker. Zero values get defaults.
type MailSyncConfig struct {
	QueueSize int           // default 256
	Attempts  int           // default 3
	Backoff   time.Duration // wait before the second attempt, doubled after that; default 2s
}

type mailJob struct {
	id       string
	op       string
	user     models.User
	oldEmail string
	newEmail string
}

// MailSync delivers mailing-list changes in the background so requests do
// not wait on the mail provider. It implements lifecycle.MailingList.
type MailSync struct {
	target   lifecycle.MailingList
	rec      FailureRecorder
	log      *zap.Logger
	attempts int
	backoff  time.Duration

	queue  chan mailJob
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewMailSync creates a worker that forwards jobs to target. rec may be nil.
func NewMailSync(target lifecycle.MailingList, rec FailureRecorder, logger *zap.Logger, cfg MailSyncConfig) *MailSync {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 2 * time.Second
	}
	return &MailSync{
		target:   target,
		rec:      rec,
		log:      logger,
		attempts: cfg.Attempts,
		backoff:  cfg.Backoff,
		queue:    make(chan mailJob, cfg.QueueSize),
		stopCh:   make(chan struct{}),
	}
}

// Start begins processing queued jobs.
func (w *MailSync) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("mail sync worker started",
		zap.Int("queue_size", cap(w.queue)),
		zap.Int("attempts", w.attempts))
}

// Stop rejects new jobs, makes one attempt at each job still queued and
// waits for the worker to finish.
func (w *MailSync) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	w.log.Info("mail sync worker stopped")
}

// Pending returns the number of queued jobs.
func (w *MailSync) Pending() int {
	return len(w.queue)
}

func (w *MailSync) UpdateUserEmail(ctx context.Context, user models.User, oldEmail, newEmail string) error {
	return w.enqueue(mailJob{op: lifecycle.OpUpdateEmail, user: user, oldEmail: oldEmail, newEmail: newEmail})
}

func (w *MailSync) RemoveUser(ctx context.Context, user models.User) error {
	return w.enqueue(mailJob{op: lifecycle.OpRemoveUser, user: user})
}

func (w *MailSync) Welcome(ctx context.Context, user models.User) error {
	return w.enqueue(mailJob{op: lifecycle.OpWelcome, user: user})
}

func (w *MailSync) enqueue(j mailJob) error {
	j.id = uuid.NewString()

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- j:
		w.log.Debug("mail sync job queued",
			zap.String("job_id", j.id),
			zap.String("op", j.op),
			zap.String("user_id", j.user.ID.Hex()))
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *MailSync) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			w.drain()
			return
		case j := <-w.queue:
			w.process(j, w.attempts)
		}
	}
}

func (w *MailSync) drain() {
	for {
		select {
		case j := <-w.queue:
			w.process(j, 1)
		default:
			return
		}
	}
}

func (w *MailSync) process(j mailJob, attempts int) {
	var err error
	wait := w.backoff
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = w.call(j); err == nil {
			return
		}
		if attempt == attempts {
			break
		}
		w.log.Debug("mail sync attempt failed",
			zap.String("job_id", j.id),
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-time.After(wait):
			wait *= 2
		case <-w.stopCh:
			attempts = attempt
		}
	}

	w.log.Warn("mail sync job failed",
		zap.String("job_id", j.id),
		zap.String("op", j.op),
		zap.String("user_id", j.user.ID.Hex()),
		zap.Int("attempts", attempts),
		zap.Error(err))
	if w.rec != nil {
		ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Short(), w.log, "record mail sync failure")
		defer cancel()
		w.rec.MailingListFailed(ctx, j.user.ID, j.op, j.id, err)
	}
}

func (w *MailSync) call(j mailJob) error {
	ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Long(), w.log, "mail sync "+j.op)
	defer cancel()

	switch j.op {
	case lifecycle.OpUpdateEmail:
		return w.target.UpdateUserEmail(ctx, j.user, j.oldEmail, j.newEmail)
	case lifecycle.OpRemoveUser:
		return w.target.RemoveUser(ctx, j.user)
	case lifecycle.OpWelcome:
		return w.target.Welcome(ctx, j.user)
	}
	return errors.New("unknown mail sync op " + j.op)
}
