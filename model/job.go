package model

import (
	"time"
)

// Job represents one tracked study-bundle generation request, from upload
// to finished or errored bundle
type Job struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	SourceRef string `json:"source_ref"`
	Status    string `json:"status"` // pending, ready, error
	StudyBundle
	ErrorMsg  string    `json:"error_msg,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobStatus constants
const (
	StatusPending = "pending"
	StatusReady   = "ready"
	StatusError   = "error"
)

// StudyBundle holds the generated artifacts of a ready job. All fields are
// empty until the job reaches the ready status.
type StudyBundle struct {
	Summary     string         `json:"summary"`
	Flashcards  []Flashcard    `json:"flashcards"`
	Quiz        []QuestionItem `json:"quiz"`
	QuizText    string         `json:"quiz_text"`
	AnswersText string         `json:"answers_text"`
}

// Flashcard is a single front/back study card
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// QuestionKind discriminates quiz entries
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindShortAnswer    QuestionKind = "short_answer"
)

// QuestionItem is one quiz entry. Options and AnswerIndex are set for
// multiple-choice items, AnswerText for short-answer items.
type QuestionItem struct {
	Prompt      string       `json:"prompt"`
	Kind        QuestionKind `json:"kind"`
	Options     []string     `json:"options,omitempty"`
	AnswerIndex *int         `json:"answer_index,omitempty"`
	AnswerText  string       `json:"answer_text,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
}
