package model

import (
	"github.com/google/uuid"
)

// Question is a single practice question, read-only to the session engine.
type Question struct {
	ID            uuid.UUID `json:"id"`
	SetID         uuid.UUID `json:"set_id"`
	Text          string    `json:"question_text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
	OrderNum      int       `json:"order_num"`
}

// HasOptions reports whether the question is multiple choice.
func (q Question) HasOptions() bool {
	return len(q.Options) > 0
}
