package session

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Summary is the result panel for a terminated session.
type Summary struct {
	SessionID      uuid.UUID `json:"session_id"`
	Score          int       `json:"score"`
	QuestionCount  int       `json:"question_count"`
	Answered       int       `json:"answered"`
	Percentage     float64   `json:"percentage"`
	PercentageText string    `json:"percentage_text"`
	Reason         Reason    `json:"reason"`
	ReasonText     string    `json:"reason_text"`
	CanRetry       bool      `json:"can_retry"`
	CanContinue    bool      `json:"can_continue"`
}

var reasonText = map[Reason]string{
	ReasonCompleted: "All questions answered",
	ReasonTimeout:   "Time is up",
	ReasonManual:    "Session ended early",
}

// NewSummary builds the panel for r. canContinue is false on the last page and
// for single-session variants.
func NewSummary(r Result, canContinue bool) Summary {
	pct := Percentage(r.Score, r.QuestionCount)
	return Summary{
		SessionID:      r.SessionID,
		Score:          r.Score,
		QuestionCount:  r.QuestionCount,
		Answered:       r.Answered,
		Percentage:     pct,
		PercentageText: strconv.FormatFloat(pct, 'f', 2, 64),
		Reason:         r.Reason,
		ReasonText:     ReasonText(r.Reason),
		CanRetry:       true,
		CanContinue:    canContinue,
	}
}

// Percentage is score/count*100. A zero count yields zero.
func Percentage(score, count int) float64 {
	if count <= 0 {
		return 0
	}
	return float64(score) / float64(count) * 100
}

// ReasonText is the human-readable form of r.
func ReasonText(r Reason) string {
	if s, ok := reasonText[r]; ok {
		return s
	}
	return "In progress"
}

func (s Summary) String() string {
	return fmt.Sprintf("%d/%d (%s%%) - %s", s.Score, s.QuestionCount, s.PercentageText, s.ReasonText)
}
