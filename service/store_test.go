package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Jdeww/Mesa-U-Hacks-2.0/config"
	"github.com/Jdeww/Mesa-U-Hacks-2.0/model"
)

func newTestStore(maxJobs int) *MemoryStore {
	return NewMemoryStore(&config.StoreConfig{MaxJobs: maxJobs})
}

func pendingJob(id string) *model.Job {
	return &model.Job{
		ID:        id,
		Filename:  "notes.txt",
		SourceRef: fmt.Sprintf("uploads/%s/notes.txt", id),
		Status:    model.StatusPending,
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	if err := store.Create(ctx, pendingJob("job-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != model.StatusPending {
		t.Errorf("expected pending status, got %s", got.Status)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set on create")
	}
	if got.Summary != "" || len(got.Quiz) != 0 {
		t.Error("pending job must have empty artifacts")
	}
}

func TestMemoryStoreCreateDuplicate(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	if err := store.Create(ctx, pendingJob("job-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Create(ctx, pendingJob("job-1")); !errors.Is(err, ErrDuplicateJob) {
		t.Errorf("expected ErrDuplicateJob, got %v", err)
	}
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	store := newTestStore(0)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	if err := store.Create(ctx, pendingJob("job-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, _ := store.Get(ctx, "job-1")
	first.Status = "mutated"

	second, _ := store.Get(ctx, "job-1")
	if second.Status != model.StatusPending {
		t.Error("mutation of a returned job leaked into the store")
	}
}

func TestMemoryStoreUpdateResult(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	if err := store.Create(ctx, pendingJob("job-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	bundle := &model.StudyBundle{
		Summary:  "Summary text",
		QuizText: "1. Q?",
	}
	if err := store.UpdateResult(ctx, "job-1", bundle); err != nil {
		t.Fatalf("UpdateResult failed: %v", err)
	}

	got, _ := store.Get(ctx, "job-1")
	if got.Status != model.StatusReady {
		t.Errorf("expected ready status, got %s", got.Status)
	}
	if got.Summary != "Summary text" {
		t.Errorf("bundle not stored: %q", got.Summary)
	}
	if got.ErrorMsg != "" {
		t.Errorf("error message should be cleared, got %q", got.ErrorMsg)
	}
}

func TestMemoryStoreUpdateStatusClearsBundle(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	if err := store.Create(ctx, pendingJob("job-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.UpdateResult(ctx, "job-1", &model.StudyBundle{Summary: "stale"}); err != nil {
		t.Fatalf("UpdateResult failed: %v", err)
	}

	if err := store.UpdateStatus(ctx, "job-1", model.StatusError, "generation failed"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, _ := store.Get(ctx, "job-1")
	if got.Status != model.StatusError {
		t.Errorf("expected error status, got %s", got.Status)
	}
	if got.ErrorMsg != "generation failed" {
		t.Errorf("expected error message, got %q", got.ErrorMsg)
	}
	if got.Summary != "" {
		t.Error("stale bundle must not survive a non-ready status")
	}
}

func TestMemoryStoreUpdateStatusNotFound(t *testing.T) {
	store := newTestStore(0)

	err := store.UpdateStatus(context.Background(), "missing", model.StatusError, "x")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryStoreListOrdered(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		job := pendingJob(fmt.Sprintf("job-%d", i))
		job.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := store.Create(ctx, job); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	jobs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	for i, job := range jobs {
		if want := fmt.Sprintf("job-%d", i); job.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, job.ID)
		}
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	if err := store.Create(ctx, pendingJob("job-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Delete(ctx, "job-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "job-1"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "job-1"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound on double delete, got %v", err)
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	store := newTestStore(2)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 4; i++ {
		job := pendingJob(fmt.Sprintf("job-%d", i))
		job.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := store.Create(ctx, job); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 jobs after cleanup, got %d", count)
	}

	// the oldest records are the evicted ones
	if _, err := store.Get(ctx, "job-0"); !errors.Is(err, ErrJobNotFound) {
		t.Error("oldest job should be evicted")
	}
	if _, err := store.Get(ctx, "job-3"); err != nil {
		t.Errorf("newest job should survive cleanup: %v", err)
	}
}

func TestMemoryStoreUpdateStatusReadyKeepsBundle(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	if err := store.Create(ctx, pendingJob("job-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.UpdateResult(ctx, "job-1", &model.StudyBundle{Summary: "kept"}); err != nil {
		t.Fatalf("UpdateResult failed: %v", err)
	}

	if err := store.UpdateStatus(ctx, "job-1", model.StatusReady, ""); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, _ := store.Get(ctx, "job-1")
	if got.Summary != "kept" {
		t.Error("ready status must not clear a stored bundle")
	}
}

func TestMemoryStoreScoresOrdered(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	for _, s := range []model.Score{
		{Name: "ana", Points: 900, AvgScore: 3.5},
		{Name: "bo", Points: 1740, AvgScore: 4.0},
		{Name: "cy", Points: 1200, AvgScore: 4.5},
	} {
		score := s
		if err := store.SaveScore(ctx, &score); err != nil {
			t.Fatalf("SaveScore failed: %v", err)
		}
		if score.LastPlayed.IsZero() {
			t.Error("SaveScore should stamp last_played")
		}
	}

	scores, err := store.ListScores(ctx)
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}
	for i, want := range []string{"bo", "cy", "ana"} {
		if scores[i].Name != want {
			t.Errorf("position %d: expected %s, got %s", i, want, scores[i].Name)
		}
	}
}

func TestMemoryStoreListScoresEmpty(t *testing.T) {
	store := newTestStore(0)

	scores, err := store.ListScores(context.Background())
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected no scores, got %d", len(scores))
	}
}
