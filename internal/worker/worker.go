package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"qc-tracker/backend/internal/cache"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type JobType string

const JobTypeEmailNotification JobType = "email_notification"

const (
	DefaultQueue     = "qc:mail"
	DefaultDeadQueue = "qc:mail:dead"
	jobRecordPrefix  = "qc:mail:job:"
	jobRecordTTL     = 24 * time.Hour
)

type JobStatus string

const (
	JobStatusQueued JobStatus = "queued"
	JobStatusSent   JobStatus = "sent"
	JobStatusFailed JobStatus = "failed"
)

type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// JobRecord is the last known state of a job, kept for a day after enqueue.
type JobRecord struct {
	ID        string    `json:"id"`
	Type      JobType   `json:"type"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

// Worker pops jobs from one Redis list and runs each exactly once. A failed job
// is pushed to the dead-letter list and never retried.
type Worker struct {
	cache        *cache.RedisCache
	client       *redis.Client
	handlers     map[JobType]JobHandler
	queue        string
	deadQueue    string
	pollInterval time.Duration
	jobTimeout   time.Duration
	log          logrus.FieldLogger
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

type WorkerConfig struct {
	Cache        *cache.RedisCache
	Queue        string
	DeadQueue    string
	PollInterval time.Duration
	JobTimeout   time.Duration
	Logger       logrus.FieldLogger
}

func NewWorker(config WorkerConfig) *Worker {
	if config.Queue == "" {
		config.Queue = DefaultQueue
	}
	if config.DeadQueue == "" {
		config.DeadQueue = DefaultDeadQueue
	}
	if config.PollInterval < time.Second {
		config.PollInterval = time.Second
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}

	return &Worker{
		cache:        config.Cache,
		client:       config.Cache.Client(),
		handlers:     make(map[JobType]JobHandler),
		queue:        config.Queue,
		deadQueue:    config.DeadQueue,
		pollInterval: config.PollInterval,
		jobTimeout:   config.JobTimeout,
		log:          config.Logger.WithField("component", "worker"),
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

func (w *Worker) Start(ctx context.Context, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.log.WithField("concurrency", concurrency).Info("starting mail worker")

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop()
	}
}

func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.log.Info("stopping mail worker")
	w.cancel()
	w.wg.Wait()
	w.log.Info("mail worker stopped")
}

func (w *Worker) workerLoop() {
	defer w.wg.Done()

	for {
		if w.ctx.Err() != nil {
			return
		}
		if err := w.processNextJob(); err != nil {
			w.log.WithError(err).Error("error processing job")
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

func (w *Worker) processNextJob() error {
	result, err := w.client.BLPop(w.ctx, w.pollInterval, w.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}
	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		raw, _ := json.Marshal(result[1])
		return w.moveToDeadQueue(&Job{ID: "unknown", Payload: raw}, fmt.Errorf("failed to unmarshal job: %w", err))
	}
	return w.executeJob(&job)
}

func (w *Worker) executeJob(job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	entry := w.log.WithFields(logrus.Fields{"job_id": job.ID, "job_type": job.Type})
	if !exists {
		return w.moveToDeadQueue(job, fmt.Errorf("no handler registered for job type: %s", job.Type))
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), w.jobTimeout)
	defer cancel()

	if err := handler(ctx, job); err != nil {
		entry.WithError(err).Warn("job failed")
		return w.moveToDeadQueue(job, err)
	}

	entry.Info("job completed")
	w.record(job, JobStatusSent, nil)
	return nil
}

func (w *Worker) moveToDeadQueue(job *Job, jobErr error) error {
	w.record(job, JobStatusFailed, jobErr)

	deadJob := map[string]interface{}{
		"job":       job,
		"error":     jobErr.Error(),
		"failed_at": time.Now().UTC(),
	}
	data, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), 5*time.Second)
	defer cancel()
	return w.client.RPush(ctx, w.deadQueue, data).Err()
}

func (w *Worker) record(job *Job, status JobStatus, jobErr error) {
	rec := JobRecord{ID: job.ID, Type: job.Type, Status: status, UpdatedAt: time.Now().UTC()}
	if jobErr != nil {
		rec.Error = jobErr.Error()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), 2*time.Second)
	defer cancel()
	if err := w.cache.Set(ctx, jobRecordPrefix+job.ID, rec, jobRecordTTL); err != nil {
		w.log.WithError(err).WithField("job_id", job.ID).Warn("failed to record job status")
	}
}
