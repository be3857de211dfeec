package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"qc-tracker/backend/internal/cache"

	"github.com/gofrs/uuid"
)

type JobQueue struct {
	cache *cache.RedisCache
	queue string
}

func NewJobQueue(c *cache.RedisCache, queue string) *JobQueue {
	if queue == "" {
		queue = DefaultQueue
	}
	return &JobQueue{cache: c, queue: queue}
}

func (q *JobQueue) Enqueue(ctx context.Context, jobType JobType, payload interface{}) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate job id: %w", err)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := &Job{ID: id.String(), Type: jobType, Payload: raw, CreatedAt: time.Now().UTC()}
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	rec := JobRecord{ID: job.ID, Type: jobType, Status: JobStatusQueued, UpdatedAt: job.CreatedAt}
	if err := q.cache.Set(ctx, jobRecordPrefix+job.ID, rec, jobRecordTTL); err != nil {
		return "", err
	}
	if err := q.cache.Client().RPush(ctx, q.queue, data).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}
	return job.ID, nil
}

func (q *JobQueue) EnqueueEmail(ctx context.Context, to, subject, body string) (string, error) {
	return q.Enqueue(ctx, JobTypeEmailNotification, EmailPayload{To: to, Subject: subject, Body: body})
}

func (q *JobQueue) Size(ctx context.Context, queue string) (int64, error) {
	return q.cache.Client().LLen(ctx, queue).Result()
}

func (q *JobQueue) Status(ctx context.Context, id string) (*JobRecord, error) {
	var rec JobRecord
	if err := q.cache.Get(ctx, jobRecordPrefix+id, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
