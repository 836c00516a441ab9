package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cianhughes/bank-analyzer/internal/jobs"
)

func TestQueueDeliversJobs(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 2, store)
	defer q.Close()

	var mu sync.Mutex
	received := make(map[string]bool)
	done := make(chan struct{}, 3)

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		received[job.GetID()] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}

	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 3; i++ {
		job := &jobs.AnalyzeStatementJob{
			ObjectURI:   "gs://statements/nov.pdf",
			FileName:    "nov.pdf",
			CountryCode: "IE",
			UserEmail:   "user@example.com",
		}
		if err := q.PublishAnalyzeStatement(context.Background(), job); err != nil {
			t.Fatalf("publish: %v", err)
		}
		if job.JobID == "" {
			t.Fatal("publish did not assign a job ID")
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 3 {
		t.Errorf("handled %d distinct jobs, want 3", len(received))
	}
}

func TestQueueRetriesFailedJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 1, store)
	defer q.Close()

	var mu sync.Mutex
	attempts := 0
	succeeded := make(chan string, 1)

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 2 {
			return errors.New("transient failure")
		}
		succeeded <- job.GetID()
		return nil
	}

	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.AnalyzeStatementJob{ObjectURI: "gs://statements/nov.pdf", MaxRetries: 3}
	if err := q.PublishAnalyzeStatement(context.Background(), job); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var jobID string
	select {
	case jobID = <-succeeded:
	case <-time.After(5 * time.Second):
		t.Fatal("job never succeeded after retry")
	}

	// The store eventually reflects completion.
	deadline := time.Now().Add(2 * time.Second)
	for {
		saved, err := store.GetJob(context.Background(), jobID)
		if err == nil && saved.Status == jobs.JobStatusCompleted {
			if saved.RetryCount != 1 {
				t.Errorf("retry_count = %d, want 1", saved.RetryCount)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never marked completed: %+v (err %v)", saved, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(1, 1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	err := q.PublishAnalyzeStatement(context.Background(), &jobs.AnalyzeStatementJob{})
	if err == nil {
		t.Fatal("expected publish to fail on closed queue")
	}
}

func TestStoreFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []*jobs.AnalyzeStatementJob{
		{JobID: "a", UserEmail: "one@example.com", Status: jobs.JobStatusPending},
		{JobID: "b", UserEmail: "one@example.com", Status: jobs.JobStatusCompleted},
		{JobID: "c", UserEmail: "two@example.com", Status: jobs.JobStatusPending},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob: %v", err)
		}
	}

	byUser, err := store.ListJobs(ctx, jobs.JobFilter{UserEmail: "one@example.com"})
	if err != nil || len(byUser) != 2 {
		t.Errorf("by user: %d jobs (err %v), want 2", len(byUser), err)
	}

	pending, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusPending})
	if err != nil || len(pending) != 2 {
		t.Errorf("pending: %d jobs (err %v), want 2", len(pending), err)
	}

	if err := store.UpdateJobStatus(ctx, "a", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateJobStatus: %v", err)
	}
	got, err := store.GetJob(ctx, "a")
	if err != nil || got.Status != jobs.JobStatusFailed || got.Error != "boom" {
		t.Errorf("got %+v (err %v)", got, err)
	}
}

func TestStoreCopiesJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.AnalyzeStatementJob{JobID: "a", Status: jobs.JobStatusPending}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}
	job.Status = jobs.JobStatusFailed

	saved, err := store.GetJob(ctx, "a")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if saved.Status != jobs.JobStatusPending {
		t.Errorf("stored job mutated externally: %+v", saved)
	}
}
