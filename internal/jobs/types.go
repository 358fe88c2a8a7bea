// Package jobs defines the background-processing contracts for the API
// server: uploaded statements are queued as jobs and a worker drives the
// agent pipeline for each one.
package jobs

import (
	"context"
	"time"

	"github.com/tejuiceB/finSight/internal/domain"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeProcessStatements runs the agent pipeline over uploaded files.
	JobTypeProcessStatements JobType = "process_statements"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ProcessStatementsJob carries one batch of extracted statement files
// through the pipeline. There is no automatic retry: a failed run stays
// failed until the user re-triggers processing.
type ProcessStatementsJob struct {
	JobID string `json:"job_id"`

	// Files are the extracted statements to process.
	Files []domain.ParsedFile `json:"files"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds the failure message when Status is failed.
	Error string `json:"error,omitempty"`

	// Progress mirrors the pipeline's latest status update.
	Progress domain.ProcessingStatus `json:"progress"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ProcessStatementsJob) GetID() string        { return j.JobID }
func (j *ProcessStatementsJob) GetType() JobType     { return JobTypeProcessStatements }
func (j *ProcessStatementsJob) GetStatus() JobStatus { return j.Status }

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishProcessStatements publishes a statement-processing job.
	PublishProcessStatements(ctx context.Context, job *ProcessStatementsJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job; a returned error marks the job failed.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state so callers can poll progress.
type JobStore interface {
	SaveJob(ctx context.Context, job *ProcessStatementsJob) error
	GetJob(ctx context.Context, jobID string) (*ProcessStatementsJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ProcessStatementsJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}
