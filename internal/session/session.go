package session

import (
	"errors"

	"github.com/google/uuid"
)

// Status enumerates session phases.
type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusRunning    Status = "RUNNING"
	StatusTerminated Status = "TERMINATED"
)

// Reason records why a session stopped accepting answers.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonCompleted Reason = "completed"
	ReasonTimeout   Reason = "timeout"
	ReasonManual    Reason = "manual"
)

// Domain errors. All of them are recoverable; callers report them and carry on.
var (
	ErrNoQuestions         = errors.New("session has no questions")
	ErrSessionTerminated   = errors.New("session is terminated")
	ErrSessionClosed       = errors.New("session is closed")
	ErrNotTerminated       = errors.New("session is not terminated")
	ErrAlreadyAnswered     = errors.New("question already answered")
	ErrUnknownQuestion     = errors.New("question is not part of this session")
	ErrBrowseMode          = errors.New("exam mode is disabled")
	ErrNotPaged            = errors.New("question set is not paged")
	ErrNoPendingNavigation = errors.New("no navigation is waiting for confirmation")
)

// Answer is a recorded selection for one question.
type Answer struct {
	Selected  string `json:"selected"`
	Correct   string `json:"correct"`
	IsCorrect bool   `json:"is_correct"`
}

// NewAnswer grades selected against correct.
func NewAnswer(selected, correct string) Answer {
	return Answer{
		Selected:  selected,
		Correct:   correct,
		IsCorrect: Equivalent(selected, correct),
	}
}

// Session is a copy of one attempt's state. Answers are keyed by question text.
type Session struct {
	ID            uuid.UUID         `json:"id"`
	Status        Status            `json:"status"`
	Answers       map[string]Answer `json:"answers"`
	TimeLeft      int               `json:"time_left"`
	Reason        Reason            `json:"reason"`
	Score         int               `json:"score"`
	QuestionCount int               `json:"question_count"`
}

// Result is the outcome of a terminated session.
type Result struct {
	SessionID     uuid.UUID `json:"session_id"`
	Score         int       `json:"score"`
	Answered      int       `json:"answered"`
	QuestionCount int       `json:"question_count"`
	Reason        Reason    `json:"reason"`
}

// Score counts answers whose selection normalizes to the correct answer.
func Score(answers map[string]Answer) int {
	n := 0
	for _, a := range answers {
		if Equivalent(a.Selected, a.Correct) {
			n++
		}
	}
	return n
}
