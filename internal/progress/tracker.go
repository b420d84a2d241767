// Package progress tracks chunked generation jobs in Redis so the UI can
// poll cumulative counts while a bulk import is being processed one chunk
// at a time.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobTTL bounds how long a finished or abandoned job stays readable.
const JobTTL = 24 * time.Hour

// ErrNotFound indicates an unknown or expired job ID.
var ErrNotFound = errors.New("progress job not found")

// Job is the cumulative state of one chunked generation job.
type Job struct {
	JobID        string    `json:"job_id"`
	EventID      string    `json:"event_id"`
	Status       string    `json:"status"` // running, completed
	CurrentChunk int       `json:"current_chunk"`
	TotalChunks  int       `json:"total_chunks"`
	Generated    int       `json:"generated"`
	Failed       int       `json:"failed"`
	Errors       []string  `json:"errors,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Tracker stores job state in Redis.
type Tracker struct {
	rdb *redis.Client
}

// NewTracker creates a progress tracker.
func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb}
}

// Start registers a new job before its first chunk is submitted.
func (t *Tracker) Start(ctx context.Context, jobID, eventID string, totalChunks int) error {
	now := time.Now().UTC()
	return t.save(ctx, &Job{
		JobID:       jobID,
		EventID:     eventID,
		Status:      "running",
		TotalChunks: totalChunks,
		Errors:      []string{},
		StartedAt:   now,
		UpdatedAt:   now,
	})
}

// Record folds one chunk's result into the job. chunk is 1-based; the job
// is marked completed when the last chunk reports in.
func (t *Tracker) Record(ctx context.Context, jobID string, chunk, generated, failed int, errs []string) (*Job, error) {
	job, err := t.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	job.CurrentChunk = chunk
	job.Generated += generated
	job.Failed += failed
	job.Errors = append(job.Errors, errs...)
	job.UpdatedAt = time.Now().UTC()
	if job.TotalChunks > 0 && chunk >= job.TotalChunks {
		job.Status = "completed"
	}

	if err := t.save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get returns the current state of a job.
func (t *Tracker) Get(ctx context.Context, jobID string) (*Job, error) {
	data, err := t.rdb.Get(ctx, key(jobID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &job, nil
}

func (t *Tracker) save(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := t.rdb.Set(ctx, key(job.JobID), data, JobTTL).Err(); err != nil {
		return fmt.Errorf("store progress: %w", err)
	}
	return nil
}

func key(jobID string) string {
	return "certportal:progress:" + jobID
}
