package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/countdown"
	"github.com/stemsi/exstem-practice/internal/model"
)

// Controller is the session state machine: Idle -> Running -> Terminated.
//
// Answers, timer callbacks and host requests all go through one mutex, so the
// three event sources are serialized. Termination checks the status under that
// mutex and is therefore entered at most once per session.
type Controller struct {
	mu        sync.Mutex
	timer     *countdown.Timer
	duration  int
	questions []model.Question
	known     map[string]struct{}
	session   Session
	closed    bool
	notify    func(Event)
	log       zerolog.Logger
}

// NewController creates an Idle session over questions. notify is called with
// the controller lock held; it must not call back into the Controller.
func NewController(
	questions []model.Question,
	duration time.Duration,
	timer *countdown.Timer,
	notify func(Event),
	log zerolog.Logger,
) *Controller {
	if duration < time.Second {
		duration = countdown.DefaultPageDuration
	}
	if timer == nil {
		timer = countdown.New(nil)
	}

	c := &Controller{
		timer:    timer,
		duration: int(duration / time.Second),
		notify:   notify,
		log:      log.With().Str("component", "session_controller").Logger(),
	}
	c.resetLocked(questions)
	return c
}

// RecordAnswer stores the first answer for questionText. The first answer starts
// the countdown; the answer that covers every question terminates the session
// as completed.
func (c *Controller) RecordAnswer(questionText, selected, correctAnswer string) (Answer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Answer{}, ErrSessionClosed
	}
	if len(c.questions) == 0 {
		return Answer{}, ErrNoQuestions
	}
	if c.session.Status == StatusTerminated {
		return Answer{}, ErrSessionTerminated
	}
	if _, ok := c.known[questionText]; !ok {
		return Answer{}, ErrUnknownQuestion
	}
	if existing, ok := c.session.Answers[questionText]; ok {
		return existing, ErrAlreadyAnswered
	}

	if c.session.Status == StatusIdle {
		c.startLocked()
	}

	answer := NewAnswer(selected, correctAnswer)
	c.session.Answers[questionText] = answer
	c.emit(EventAnswered, AnsweredPayload{
		SessionID: c.session.ID,
		Question:  questionText,
		Selected:  answer.Selected,
		IsCorrect: answer.IsCorrect,
	})

	// Duplicate question texts share one slot, so such a page never completes
	// by answering; the timer or Finish ends it.
	if len(c.session.Answers) == len(c.questions) {
		c.terminateLocked(ReasonCompleted)
	}

	return answer, nil
}

// Finish terminates the session on request. It is accepted from Idle as well,
// which scores zero.
func (c *Controller) Finish() (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Result{}, ErrSessionClosed
	}
	if len(c.questions) == 0 {
		return Result{}, ErrNoQuestions
	}
	if c.session.Status == StatusTerminated {
		return c.resultLocked(), ErrSessionTerminated
	}

	c.terminateLocked(ReasonManual)
	return c.resultLocked(), nil
}

// Retry re-arms the same questions under a new session identity.
func (c *Controller) Retry() (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Session{}, ErrSessionClosed
	}
	if c.session.Status != StatusTerminated {
		return Session{}, ErrNotTerminated
	}

	c.resetLocked(c.questions)
	return c.snapshotLocked(), nil
}

// Reset drops the current session, whatever its phase, and starts an Idle one
// over questions. No result is produced.
func (c *Controller) Reset(questions []model.Question) Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked(questions)
	return c.snapshotLocked()
}

// Discard drops the current session without scoring and re-arms the same questions.
func (c *Controller) Discard() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Status == StatusRunning {
		c.log.Debug().
			Str("session_id", c.session.ID.String()).
			Int("answered", len(c.session.Answers)).
			Msg("Session discarded")
	}
	c.resetLocked(c.questions)
	return c.snapshotLocked()
}

// Close stops the countdown for good. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.timer.Stop()
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Result returns the outcome once the session is terminated.
func (c *Controller) Result() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Status != StatusTerminated {
		return Result{}, false
	}
	return c.resultLocked(), true
}

// HasUnsavedProgress reports a running session with at least one answer.
func (c *Controller) HasUnsavedProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Status == StatusRunning && len(c.session.Answers) > 0
}

// ─── Internal ───────────────────────────────────────────────────────

func (c *Controller) resetLocked(questions []model.Question) {
	c.timer.Reset(c.duration)

	c.questions = questions
	c.known = make(map[string]struct{}, len(questions))
	for _, q := range questions {
		c.known[q.Text] = struct{}{}
	}

	c.session = Session{
		ID:            uuid.New(),
		Status:        StatusIdle,
		Answers:       make(map[string]Answer, len(questions)),
		TimeLeft:      c.duration,
		QuestionCount: len(questions),
	}
}

func (c *Controller) startLocked() {
	id := c.session.ID
	c.session.Status = StatusRunning
	c.timer.Start(c.session.TimeLeft, c.onTick(id), c.onExpire(id))

	c.log.Debug().
		Str("session_id", id.String()).
		Int("time_left", c.session.TimeLeft).
		Msg("Session started")

	c.emit(EventStarted, StartedPayload{SessionID: id, TimeLeft: c.session.TimeLeft})
}

func (c *Controller) terminateLocked(reason Reason) {
	if c.session.Status == StatusTerminated {
		return
	}

	c.timer.Stop()
	c.session.Status = StatusTerminated
	c.session.Reason = reason
	c.session.Score = Score(c.session.Answers)

	result := c.resultLocked()
	c.log.Info().
		Str("session_id", result.SessionID.String()).
		Str("reason", string(reason)).
		Int("score", result.Score).
		Int("answered", result.Answered).
		Int("questions", result.QuestionCount).
		Msg("Session terminated")

	c.emit(EventTerminated, result)
}

// onTick and onExpire bind a callback to one session identity; callbacks from
// an earlier attempt are ignored.
func (c *Controller) onTick(id uuid.UUID) func(int) {
	return func(remaining int) {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed || c.session.ID != id || c.session.Status != StatusRunning {
			return
		}
		c.session.TimeLeft = remaining
		c.emit(EventTick, TickPayload{SessionID: id, TimeLeft: remaining})
	}
}

func (c *Controller) onExpire(id uuid.UUID) func() {
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed || c.session.ID != id || c.session.Status != StatusRunning {
			return
		}
		c.session.TimeLeft = 0
		c.terminateLocked(ReasonTimeout)
	}
}

func (c *Controller) resultLocked() Result {
	return Result{
		SessionID:     c.session.ID,
		Score:         c.session.Score,
		Answered:      len(c.session.Answers),
		QuestionCount: len(c.questions),
		Reason:        c.session.Reason,
	}
}

func (c *Controller) snapshotLocked() Session {
	s := c.session
	s.Answers = make(map[string]Answer, len(c.session.Answers))
	for k, v := range c.session.Answers {
		s.Answers[k] = v
	}
	return s
}

func (c *Controller) emit(t EventType, data any) {
	if c.notify != nil {
		c.notify(Event{Type: t, Data: data})
	}
}
