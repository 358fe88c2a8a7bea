package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tejuiceB/finSight/internal/domain"
	"github.com/tejuiceB/finSight/internal/jobs"
)

func newJob(files int) *jobs.ProcessStatementsJob {
	fs := make([]domain.ParsedFile, files)
	for i := range fs {
		fs[i] = domain.ParsedFile{Filename: "f.txt", Text: "x", FileType: "txt"}
	}
	return &jobs.ProcessStatementsJob{Files: fs}
}

func waitForStatus(t *testing.T, store jobs.JobStore, jobID string, want jobs.JobStatus) *jobs.ProcessStatementsJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return nil
}

func TestQueuePublishAndComplete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	processed := make(chan string, 1)
	err := queue.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		processed <- job.GetID()
		return nil
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	job := newJob(1)
	if err := queue.PublishProcessStatements(ctx, job); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("publish must assign a job ID")
	}
	if job.Status != jobs.JobStatusPending && job.Status != jobs.JobStatusRunning && job.Status != jobs.JobStatusCompleted {
		t.Errorf("unexpected initial status %s", job.Status)
	}

	select {
	case id := <-processed:
		if id != job.JobID {
			t.Errorf("handler saw job %s, want %s", id, job.JobID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never invoked")
	}

	final := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if final.StartedAt == nil || final.CompletedAt == nil {
		t.Error("completed job missing timestamps")
	}
	if final.Error != "" {
		t.Errorf("completed job carries error %q", final.Error)
	}
}

func TestQueueFailureStaysFailed(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	calls := 0
	queue.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		calls++
		return errors.New("pipeline exploded")
	})

	job := newJob(1)
	if err := queue.PublishProcessStatements(ctx, job); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	final := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if final.Error != "pipeline exploded" {
		t.Errorf("error = %q", final.Error)
	}

	// No retry: give the worker time to (incorrectly) re-run, then check.
	time.Sleep(50 * time.Millisecond)
	if calls != 1 {
		t.Errorf("handler invoked %d times, want exactly 1", calls)
	}
}

func TestQueueSequentialOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	var order []string
	done := make(chan struct{}, 3)
	queue.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		order = append(order, job.GetID()) // single worker, no race
		done <- struct{}{}
		return nil
	})

	var ids []string
	for i := 0; i < 3; i++ {
		job := newJob(1)
		if err := queue.PublishProcessStatements(ctx, job); err != nil {
			t.Fatalf("publish %d failed: %v", i, err)
		}
		ids = append(ids, job.JobID)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("jobs did not complete")
		}
	}

	for i := range ids {
		if order[i] != ids[i] {
			t.Errorf("job %d ran out of order: got %s, want %s", i, order[i], ids[i])
		}
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	queue := NewQueue(1, NewStore())
	if err := queue.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := queue.PublishProcessStatements(context.Background(), newJob(1)); err == nil {
		t.Error("expected error publishing to closed queue")
	}
	// Closing twice is fine.
	if err := queue.Close(); err != nil {
		t.Errorf("second close errored: %v", err)
	}
}

func TestQueueStopWaitsForInflight(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	queue := NewQueue(1, store)

	started := make(chan struct{})
	queue.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	job := newJob(1)
	queue.PublishProcessStatements(ctx, job)
	<-started

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := queue.Stop(stopCtx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	final, err := store.GetJob(ctx, job.JobID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if final.Status != jobs.JobStatusCompleted {
		t.Errorf("in-flight job not finished before stop returned: %s", final.Status)
	}
}
