package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Jdeww/Mesa-U-Hacks-2.0/config"
	"github.com/Jdeww/Mesa-U-Hacks-2.0/model"
)

// JobStore persists job records keyed by job id. Individual operations are
// atomic per id; concurrent generation runs for the same id are not ordered
// by the store, the last writer wins.
type JobStore interface {
	Create(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, id string) (*model.Job, error)
	UpdateStatus(ctx context.Context, id, status, errMsg string) error
	UpdateResult(ctx context.Context, id string, bundle *model.StudyBundle) error
	List(ctx context.Context) ([]*model.Job, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// ScoreStore persists quiz scoreboard records. ListScores orders by points
// descending.
type ScoreStore interface {
	SaveScore(ctx context.Context, score *model.Score) error
	ListScores(ctx context.Context) ([]*model.Score, error)
}

// Store is the full persistence surface: jobs plus the scoreboard. Both
// backends implement it.
type Store interface {
	JobStore
	ScoreStore
}

// MemoryStore is an in-memory Store. Suitable for single-process
// deployments; the sqlite store covers anything that must survive restarts.
type MemoryStore struct {
	jobs    map[string]*model.Job
	scores  []model.Score
	mu      sync.RWMutex
	maxJobs int // Maximum jobs to keep, 0 = unlimited
}

// NewMemoryStore creates an in-memory job store with configuration
func NewMemoryStore(cfg *config.StoreConfig) *MemoryStore {
	maxJobs := cfg.MaxJobs
	if maxJobs < 0 {
		maxJobs = 0
	}
	return &MemoryStore{
		jobs:    make(map[string]*model.Job),
		maxJobs: maxJobs,
	}
}

func (s *MemoryStore) Create(ctx context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return ErrDuplicateJob
	}

	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	stored := *job
	s.jobs[job.ID] = &stored

	s.cleanupIfNeeded()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id, status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = status
	job.ErrorMsg = errMsg
	if status != model.StatusReady {
		// artifacts are only valid on a ready record
		job.StudyBundle = model.StudyBundle{}
	}
	job.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) UpdateResult(ctx context.Context, id string, bundle *model.StudyBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.StudyBundle = *bundle
	job.Status = model.StatusReady
	job.ErrorMsg = ""
	job.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*model.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		copied := *job
		jobs = append(jobs, &copied)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrJobNotFound
	}
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs), nil
}

func (s *MemoryStore) SaveScore(ctx context.Context, score *model.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if score.LastPlayed.IsZero() {
		score.LastPlayed = time.Now()
	}
	s.scores = append(s.scores, *score)
	return nil
}

func (s *MemoryStore) ListScores(ctx context.Context) ([]*model.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scores := make([]*model.Score, 0, len(s.scores))
	for i := range s.scores {
		copied := s.scores[i]
		scores = append(scores, &copied)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Points > scores[j].Points
	})
	return scores, nil
}

// cleanupIfNeeded removes oldest jobs if store exceeds maxJobs
// Must be called with lock held
func (s *MemoryStore) cleanupIfNeeded() {
	if s.maxJobs <= 0 {
		return // Unlimited
	}

	if len(s.jobs) <= s.maxJobs {
		return
	}

	jobs := make([]*model.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})

	removeCount := len(jobs) - s.maxJobs
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old job",
			"job_id", jobs[i].ID,
			"created_at", jobs[i].CreatedAt,
		)
		delete(s.jobs, jobs[i].ID)
	}
}
