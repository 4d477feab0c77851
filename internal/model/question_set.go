package model

import (
	"time"

	"github.com/google/uuid"
)

// SetKind enumerates the three places practice questions are served from.
type SetKind string

const (
	SetKindSubject  SetKind = "subject"
	SetKindTopic    SetKind = "topic"
	SetKindMockTest SetKind = "mock_test"
)

// Valid reports whether k is a known kind.
func (k SetKind) Valid() bool {
	switch k {
	case SetKindSubject, SetKindTopic, SetKindMockTest:
		return true
	}
	return false
}

// Paged reports whether the set is served one page at a time.
func (k SetKind) Paged() bool {
	return k == SetKindSubject || k == SetKindTopic
}

// QuestionSet is an ordered bank of questions: a subject, a topic quiz or a named mock test.
type QuestionSet struct {
	ID              uuid.UUID `json:"id"`
	Kind            SetKind   `json:"kind"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

// QuestionSetPayload is the Redis-cached set with all of its questions in order.
type QuestionSetPayload struct {
	Set       QuestionSet `json:"set"`
	Questions []Question  `json:"questions"`
}

// QuestionPage is one page of a set.
type QuestionPage struct {
	Set        QuestionSet `json:"set"`
	Questions  []Question  `json:"questions"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	TotalItems int         `json:"total_items"`
}

// SetSummary is the metadata view of a set.
type SetSummary struct {
	QuestionSet
	QuestionCount int `json:"question_count"`
	TotalPages    int `json:"total_pages"`
	PageSize      int `json:"page_size"`
}

// SetRef identifies a set in a URL: /sets/:kind/:slug.
type SetRef struct {
	Kind string `uri:"kind" binding:"required,oneof=subject topic mock_test"`
	Slug string `uri:"slug" binding:"required,min=1,max=255"`
}

// PageQuery is the page selector on browse and session URLs.
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}
