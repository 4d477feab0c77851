package session

import (
	"github.com/google/uuid"
	"github.com/stemsi/exstem-practice/internal/model"
)

// View is the full render model sent to the client. SessionID changes on every
// new attempt; clients key their per-question selection state on it.
type View struct {
	Kind      model.SetKind     `json:"kind"`
	ExamMode  bool              `json:"exam_mode"`
	SessionID uuid.UUID         `json:"session_id"`
	Status    Status            `json:"status"`
	TimeLeft  int               `json:"time_left"`
	Position  Position          `json:"position"`
	Cursor    int               `json:"cursor"`
	ReadOnly  bool              `json:"read_only"`
	Empty     bool              `json:"empty"`
	Questions []QuestionView    `json:"questions"`
	Summary   *Summary          `json:"summary,omitempty"`
	Pending   *NavigationIntent `json:"pending,omitempty"`
}

// QuestionView is one question as the client renders it.
type QuestionView struct {
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	Selected      string   `json:"selected,omitempty"`
	IsCorrect     *bool    `json:"is_correct,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
}

func (h *Host) viewLocked() View {
	s := h.ctrl.Snapshot()

	v := View{
		Kind:      h.kind,
		ExamMode:  h.examMode,
		SessionID: s.ID,
		Status:    s.Status,
		TimeLeft:  s.TimeLeft,
		Position:  h.set.Position,
		Cursor:    h.cursor,
		ReadOnly:  !h.examMode || s.Status == StatusTerminated,
		Empty:     len(h.set.Questions) == 0,
		Questions: make([]QuestionView, 0, len(h.set.Questions)),
	}

	// Correct answers are only revealed once nothing can be scored any more.
	reveal := v.ReadOnly
	for _, q := range h.set.Questions {
		qv := QuestionView{Text: q.Text, Options: q.Options}
		if h.examMode {
			if a, ok := s.Answers[q.Text]; ok {
				qv.Selected = a.Selected
				correct := a.IsCorrect
				qv.IsCorrect = &correct
			}
		}
		if reveal {
			qv.CorrectAnswer = q.CorrectAnswer
		}
		v.Questions = append(v.Questions, qv)
	}

	if h.examMode {
		if r, ok := h.ctrl.Result(); ok {
			sum := NewSummary(r, h.canContinue.Load())
			v.Summary = &sum
		}
	}
	if intent, ok := h.guard.Pending(); ok {
		v.Pending = &intent
	}
	return v
}
