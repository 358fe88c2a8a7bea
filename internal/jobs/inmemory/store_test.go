package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/tejuiceB/finSight/internal/jobs"
)

func TestStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	job := &jobs.ProcessStatementsJob{
		JobID:     "job-1",
		Status:    jobs.JobStatusPending,
		CreatedAt: time.Now(),
	}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.JobID != "job-1" || got.Status != jobs.JobStatusPending {
		t.Errorf("unexpected job %+v", got)
	}

	// Stored copy must be shielded from later mutation of the original.
	job.Status = jobs.JobStatusFailed
	got, _ = store.GetJob(ctx, "job-1")
	if got.Status != jobs.JobStatusPending {
		t.Error("store leaked a reference to the caller's job")
	}
}

func TestStoreSaveRequiresID(t *testing.T) {
	if err := NewStore().SaveJob(context.Background(), &jobs.ProcessStatementsJob{}); err == nil {
		t.Error("expected error for empty job ID")
	}
}

func TestStoreGetMissing(t *testing.T) {
	if _, err := NewStore().GetJob(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown job")
	}
}

func TestStoreListJobs(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Now()

	for i, st := range []jobs.JobStatus{jobs.JobStatusCompleted, jobs.JobStatusFailed, jobs.JobStatusCompleted} {
		store.SaveJob(ctx, &jobs.ProcessStatementsJob{
			JobID:     string(rune('a' + i)),
			Status:    st,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	t.Run("newest first", func(t *testing.T) {
		list, err := store.ListJobs(ctx, jobs.JobFilter{})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("expected 3 jobs, got %d", len(list))
		}
		if list[0].JobID != "c" || list[2].JobID != "a" {
			t.Errorf("wrong order: %s, %s, %s", list[0].JobID, list[1].JobID, list[2].JobID)
		}
	})

	t.Run("status filter", func(t *testing.T) {
		list, _ := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
		if len(list) != 1 || list[0].JobID != "b" {
			t.Errorf("unexpected filtered list %+v", list)
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		list, _ := store.ListJobs(ctx, jobs.JobFilter{Limit: 1, Offset: 1})
		if len(list) != 1 || list[0].JobID != "b" {
			t.Errorf("unexpected page %+v", list)
		}

		list, _ = store.ListJobs(ctx, jobs.JobFilter{Offset: 10})
		if len(list) != 0 {
			t.Errorf("expected empty page, got %d", len(list))
		}
	})
}
