package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Jdeww/Mesa-U-Hacks-2.0/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	source_ref   TEXT NOT NULL,
	status       TEXT NOT NULL,
	summary      TEXT NOT NULL DEFAULT '',
	flashcards   TEXT NOT NULL DEFAULT '[]',
	quiz         TEXT NOT NULL DEFAULT '[]',
	quiz_text    TEXT NOT NULL DEFAULT '',
	answers_text TEXT NOT NULL DEFAULT '',
	error_msg    TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);

CREATE TABLE IF NOT EXISTS scores (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	points      INTEGER NOT NULL,
	avg_score   REAL NOT NULL,
	last_played TIMESTAMP NOT NULL
);
`

// SQLiteStore is a Store backed by a local sqlite database. Structured
// bundle fields are stored as JSON columns; everything else maps to plain
// columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// sqlite allows a single writer; a larger pool just trades errors for
	// lock contention
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, job *model.Job) error {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	flashcards, quiz, err := marshalBundle(&job.StudyBundle)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, filename, source_ref, status, summary, flashcards, quiz, quiz_text, answers_text, error_msg, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Filename, job.SourceRef, job.Status,
		job.Summary, flashcards, quiz, job.QuizText, job.AnswersText,
		job.ErrorMsg, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateJob
		}
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, source_ref, status, summary, flashcards, quiz, quiz_text, answers_text, error_msg, created_at, updated_at
		FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id, status, errMsg string) error {
	query := `
		UPDATE jobs
		SET status = ?, error_msg = ?, updated_at = ?
		WHERE id = ?`
	if status != model.StatusReady {
		// artifacts are only valid on a ready record
		query = `
		UPDATE jobs
		SET status = ?, error_msg = ?, updated_at = ?,
		    summary = '', flashcards = '[]', quiz = '[]', quiz_text = '', answers_text = ''
		WHERE id = ?`
	}
	res, err := s.db.ExecContext(ctx, query, status, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) UpdateResult(ctx context.Context, id string, bundle *model.StudyBundle) error {
	flashcards, quiz, err := marshalBundle(bundle)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = ?, error_msg = '',
		    summary = ?, flashcards = ?, quiz = ?, quiz_text = ?, answers_text = ?,
		    updated_at = ?
		WHERE id = ?`,
		model.StatusReady, bundle.Summary, flashcards, quiz,
		bundle.QuizText, bundle.AnswersText, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update job result: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) List(ctx context.Context) ([]*model.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, source_ref, status, summary, flashcards, quiz, quiz_text, answers_text, error_msg, created_at, updated_at
		FROM jobs ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) SaveScore(ctx context.Context, score *model.Score) error {
	if score.LastPlayed.IsZero() {
		score.LastPlayed = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scores (name, points, avg_score, last_played)
		VALUES (?, ?, ?, ?)`,
		score.Name, score.Points, score.AvgScore, score.LastPlayed)
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListScores(ctx context.Context) ([]*model.Score, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, points, avg_score, last_played
		FROM scores ORDER BY points DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []*model.Score
	for rows.Next() {
		var score model.Score
		if err := rows.Scan(&score.Name, &score.Points, &score.AvgScore, &score.LastPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, &score)
	}
	return scores, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var job model.Job
	var flashcards, quiz string

	err := row.Scan(
		&job.ID, &job.Filename, &job.SourceRef, &job.Status,
		&job.Summary, &flashcards, &quiz, &job.QuizText, &job.AnswersText,
		&job.ErrorMsg, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	if err := json.Unmarshal([]byte(flashcards), &job.Flashcards); err != nil {
		return nil, fmt.Errorf("failed to decode flashcards column: %w", err)
	}
	if err := json.Unmarshal([]byte(quiz), &job.Quiz); err != nil {
		return nil, fmt.Errorf("failed to decode quiz column: %w", err)
	}
	return &job, nil
}

func marshalBundle(bundle *model.StudyBundle) (flashcards, quiz string, err error) {
	fc, err := json.Marshal(bundle.Flashcards)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode flashcards: %w", err)
	}
	q, err := json.Marshal(bundle.Quiz)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode quiz: %w", err)
	}
	return string(fc), string(q), nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// isUniqueViolation matches the driver's constraint error without binding to
// its concrete error type.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
