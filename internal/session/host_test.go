package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exstem-practice/internal/model"
)

type fakeNavigator struct {
	mu      sync.Mutex
	pages   []int
	targets []string
}

func (n *fakeNavigator) ShowPage(page int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pages = append(n.pages, page)
}

func (n *fakeNavigator) Navigate(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
}

func (n *fakeNavigator) Pages() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int(nil), n.pages...)
}

func (n *fakeNavigator) Targets() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

type fakePreferences struct {
	mu    sync.Mutex
	calls []bool
	err   error
}

func (p *fakePreferences) SetExamMode(_ context.Context, enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, enabled)
	return p.err
}

func (p *fakePreferences) Calls() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.calls...)
}

type hostFixture struct {
	host   *Host
	clock  *clockwork.FakeClock
	events *eventLog
	nav    *fakeNavigator
	prefs  *fakePreferences
	hooks  *countingHooks
}

func newHostFixture(t *testing.T, kind model.SetKind, duration time.Duration, examMode bool) *hostFixture {
	t.Helper()
	f := &hostFixture{
		clock:  clockwork.NewFakeClock(),
		events: newEventLog(),
		nav:    &fakeNavigator{},
		prefs:  &fakePreferences{},
		hooks:  &countingHooks{},
	}
	f.host = NewHost(Options{
		Kind:     kind,
		Duration: duration,
		ExamMode: examMode,
		Clock:    f.clock,
	}, Deps{
		Navigator:   f.nav,
		Hooks:       f.hooks,
		Preferences: f.prefs,
		Sink:        f.events,
		Log:         zerolog.Nop(),
	})
	t.Cleanup(f.host.Close)
	return f
}

func pageOf(qs []model.Question, page, total int) QuestionSet {
	return QuestionSet{Questions: qs, Position: Position{Page: page, TotalPages: total, PageSize: len(qs)}}
}

func terminatedSummary(t *testing.T, events *eventLog) Summary {
	t.Helper()
	e := events.waitFor(t, EventTerminated)
	s, ok := e.Data.(Summary)
	require.True(t, ok, "terminated event carries %T", e.Data)
	return s
}

func TestHost_PracticePageCompletes(t *testing.T) {
	f := newHostFixture(t, model.SetKindSubject, 0, true)
	qs := makeQuestions(3)
	f.host.Load(pageOf(qs, 1, 2))

	state := f.events.waitFor(t, EventState).Data.(View)
	assert.Equal(t, StatusIdle, state.Status)
	assert.Equal(t, 300, state.TimeLeft)
	assert.False(t, state.ReadOnly)
	assert.Empty(t, state.Questions[0].CorrectAnswer)

	for _, q := range qs {
		a, err := f.host.Answer(q.Text, "A. yes")
		require.NoError(t, err)
		assert.True(t, a.IsCorrect)
	}

	sum := terminatedSummary(t, f.events)
	assert.Equal(t, 3, sum.Score)
	assert.Equal(t, ReasonCompleted, sum.Reason)
	assert.Equal(t, "100.00", sum.PercentageText)
	assert.True(t, sum.CanContinue)

	assert.EqualValues(t, 1, f.hooks.installs.Load())
	assert.EqualValues(t, 1, f.hooks.removes.Load())

	v := f.host.View()
	assert.True(t, v.ReadOnly)
	require.NotNil(t, v.Summary)
	assert.Equal(t, "A. yes", v.Questions[0].CorrectAnswer)
	require.NotNil(t, v.Questions[0].IsCorrect)
	assert.True(t, *v.Questions[0].IsCorrect)
}

func TestHost_AnswerUsesLoadedCorrectAnswer(t *testing.T) {
	f := newHostFixture(t, model.SetKindTopic, 0, true)
	qs := makeQuestions(2)
	f.host.Load(pageOf(qs, 1, 1))

	a, err := f.host.Answer(qs[0].Text, "B. no")
	require.NoError(t, err)
	assert.Equal(t, "A. yes", a.Correct)
	assert.False(t, a.IsCorrect)

	_, err = f.host.Answer("made up", "A. yes")
	require.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestHost_TimeoutThroughHost(t *testing.T) {
	f := newHostFixture(t, model.SetKindSubject, 3*time.Second, true)
	qs := makeQuestions(3)
	f.host.Load(pageOf(qs, 1, 1))

	_, err := f.host.Answer(qs[0].Text, "yes")
	require.NoError(t, err)
	f.events.waitFor(t, EventStarted)

	for want := 2; want >= 0; want-- {
		f.clock.Advance(time.Second)
		e := f.events.waitFor(t, EventTick)
		require.Equal(t, want, e.Data.(TickPayload).TimeLeft)
	}

	sum := terminatedSummary(t, f.events)
	assert.Equal(t, ReasonTimeout, sum.Reason)
	assert.Equal(t, 1, sum.Score)
	assert.False(t, sum.CanContinue)
	assert.False(t, f.host.BeforeUnload())
	assert.EqualValues(t, 1, f.hooks.removes.Load())
}

func TestHost_ContinueClampsAtLastPage(t *testing.T) {
	f := newHostFixture(t, model.SetKindSubject, 0, true)
	qs := makeQuestions(2)

	f.host.Load(pageOf(qs, 2, 2))
	_, err := f.host.Continue()
	require.ErrorIs(t, err, ErrNotTerminated)

	_, err = f.host.Finish()
	require.NoError(t, err)
	assert.False(t, terminatedSummary(t, f.events).CanContinue)

	moved, err := f.host.Continue()
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Empty(t, f.nav.Pages())

	f.host.Load(pageOf(qs, 1, 2))
	_, err = f.host.Finish()
	require.NoError(t, err)

	moved, err = f.host.Continue()
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []int{2}, f.nav.Pages())
	assert.Equal(t, 2, f.events.waitFor(t, EventPage).Data.(PagePayload).Page)
}

func TestHost_PageChangeWithoutAnswersMovesRightAway(t *testing.T) {
	f := newHostFixture(t, model.SetKindSubject, 0, true)
	f.host.Load(pageOf(makeQuestions(2), 2, 3))

	moved, err := f.host.NextPage()
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = f.host.GoToPage(99)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = f.host.GoToPage(2)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = f.host.PrevPage()
	require.NoError(t, err)
	assert.True(t, moved)

	assert.Equal(t, []int{3, 3, 1}, f.nav.Pages())
}

func TestHost_PageChangeWithAnswersTerminatesManual(t *testing.T) {
	f := newHostFixture(t, model.SetKindSubject, 0, true)
	qs := makeQuestions(3)
	f.host.Load(pageOf(qs, 3, 3))

	_, err := f.host.Answer(qs[0].Text, "yes")
	require.NoError(t, err)

	moved, err := f.host.PrevPage()
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Empty(t, f.nav.Pages())

	sum := terminatedSummary(t, f.events)
	assert.Equal(t, ReasonManual, sum.Reason)
	assert.Equal(t, 1, sum.Score)
	assert.True(t, sum.CanContinue, "continue goes to the requested page even from the last page")

	moved, err = f.host.Continue()
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []int{2}, f.nav.Pages())
}

func TestHost_LinkWithUnsavedProgressStayAndLeave(t *testing.T) {
	f := newHostFixture(t, model.SetKindTopic, 0, true)
	qs := makeQuestions(3)
	f.host.Load(pageOf(qs, 1, 1))

	_, err := f.host.Answer(qs[0].Text, "yes")
	require.NoError(t, err)
	before := f.host.ctrl.Snapshot()
	assert.True(t, f.host.BeforeUnload())

	assert.Equal(t, DecisionPrompt, f.host.Navigate("/topics/waves"))
	assert.Equal(t, "/topics/waves", f.events.waitFor(t, EventConfirm).Data.(ConfirmPayload).Target)
	require.NotNil(t, f.host.View().Pending)

	require.NoError(t, f.host.Stay())
	assert.Equal(t, before, f.host.ctrl.Snapshot())
	assert.Equal(t, StatusRunning, f.host.View().Status)
	assert.Empty(t, f.nav.Targets())
	require.ErrorIs(t, f.host.Stay(), ErrNoPendingNavigation)

	assert.Equal(t, DecisionPrompt, f.host.Navigate("/topics/waves"))
	intent, err := f.host.Leave(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/topics/waves", intent.Target)
	assert.Equal(t, []string{"/topics/waves"}, f.nav.Targets())

	v := f.host.View()
	assert.Equal(t, StatusIdle, v.Status)
	assert.NotEqual(t, before.ID, v.SessionID)
	assert.Nil(t, v.Summary)
	assert.EqualValues(t, 1, f.hooks.removes.Load())
	assert.Zero(t, countType(f.events.drain(), EventTerminated))

	_, err = f.host.Leave(context.Background())
	require.ErrorIs(t, err, ErrNoPendingNavigation)
}

func TestHost_HeldLinkSurvivesTimeout(t *testing.T) {
	f := newHostFixture(t, model.SetKindTopic, 3*time.Second, true)
	qs := makeQuestions(3)
	f.host.Load(pageOf(qs, 1, 1))

	_, err := f.host.Answer(qs[0].Text, "yes")
	require.NoError(t, err)
	f.events.waitFor(t, EventStarted)

	assert.Equal(t, DecisionPrompt, f.host.Navigate("/topics/waves"))
	f.events.waitFor(t, EventConfirm)

	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Second)
		f.events.waitFor(t, EventTick)
	}
	sum := terminatedSummary(t, f.events)
	assert.Equal(t, ReasonTimeout, sum.Reason)
	assert.EqualValues(t, 1, f.hooks.removes.Load())
	require.NotNil(t, f.host.View().Pending)

	intent, err := f.host.Leave(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/topics/waves", intent.Target)
	assert.Equal(t, []string{"/topics/waves"}, f.nav.Targets())

	v := f.host.View()
	assert.Equal(t, StatusTerminated, v.Status)
	require.NotNil(t, v.Summary)
	assert.Equal(t, 1, v.Summary.Score)
	assert.Nil(t, v.Pending)
	assert.EqualValues(t, 1, f.hooks.removes.Load())
}

func TestHost_RetryDropsHeldLink(t *testing.T) {
	f := newHostFixture(t, model.SetKindTopic, 2*time.Second, true)
	qs := makeQuestions(2)
	f.host.Load(pageOf(qs, 1, 1))

	_, err := f.host.Answer(qs[0].Text, "yes")
	require.NoError(t, err)
	f.events.waitFor(t, EventStarted)
	assert.Equal(t, DecisionPrompt, f.host.Navigate("/topics/waves"))

	for i := 0; i < 2; i++ {
		f.clock.Advance(time.Second)
		f.events.waitFor(t, EventTick)
	}
	f.events.waitFor(t, EventTerminated)

	_, err = f.host.Retry()
	require.NoError(t, err)
	assert.Nil(t, f.host.View().Pending)
	_, err = f.host.Leave(context.Background())
	require.ErrorIs(t, err, ErrNoPendingNavigation)
	assert.Empty(t, f.nav.Targets())
}

func TestHost_LinkWithoutProgressNavigates(t *testing.T) {
	f := newHostFixture(t, model.SetKindTopic, 0, true)
	qs := makeQuestions(1)
	f.host.Load(pageOf(qs, 1, 1))

	assert.Equal(t, DecisionProceed, f.host.Navigate("/topics/waves"))
	assert.Equal(t, []string{"/topics/waves"}, f.nav.Targets())

	// Nothing left to lose once terminated.
	_, err := f.host.Answer(qs[0].Text, "yes")
	require.NoError(t, err)
	assert.Equal(t, DecisionProceed, f.host.Navigate("/topics/light"))
	assert.Len(t, f.nav.Targets(), 2)
}

func TestHost_ToggleOffWithProgressNeedsConfirmation(t *testing.T) {
	f := newHostFixture(t, model.SetKindSubject, 0, true)
	qs := makeQuestions(2)
	f.host.Load(pageOf(qs, 1, 4))

	_, err := f.host.Answer(qs[0].Text, "yes")
	require.NoError(t, err)

	d, err := f.host.SetExamMode(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, DecisionPrompt, d)
	assert.True(t, f.host.ExamMode())
	assert.Empty(t, f.prefs.Calls())

	intent, err := f.host.Leave(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TargetToggleOff, intent.Target)
	assert.Empty(t, f.nav.Targets())
	assert.False(t, f.host.ExamMode())
	assert.Equal(t, []bool{false}, f.prefs.Calls())

	_, err = f.host.Answer(qs[1].Text, "yes")
	require.ErrorIs(t, err, ErrBrowseMode)
	_, err = f.host.Finish()
	require.ErrorIs(t, err, ErrBrowseMode)

	v := f.host.View()
	assert.False(t, v.ExamMode)
	assert.True(t, v.ReadOnly)
	assert.Nil(t, v.Summary)
	assert.Equal(t, "A. yes", v.Questions[0].CorrectAnswer)
	assert.Empty(t, v.Questions[0].Selected)
}

func TestHost_ToggleWithoutProgress(t *testing.T) {
	f := newHostFixture(t, model.SetKindSubject, 0, false)
	f.host.Load(pageOf(makeQuestions(2), 1, 1))

	d, err := f.host.SetExamMode(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, DecisionProceed, d)
	assert.True(t, f.host.ExamMode())
	assert.True(t, f.events.waitFor(t, EventMode).Data.(ModePayload).ExamMode)

	d, err = f.host.SetExamMode(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, DecisionProceed, d)

	assert.Equal(t, []bool{true, false}, f.prefs.Calls())
}

func TestHost_PreferenceFailureDoesNotBlockToggle(t *testing.T) {
	f := newHostFixture(t, model.SetKindTopic, 0, true)
	f.prefs.err = errors.New("redis down")
	f.host.Load(pageOf(makeQuestions(1), 1, 1))

	_, err := f.host.SetExamMode(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, f.host.ExamMode())
}

func TestHost_MockTestCursorAndFinish(t *testing.T) {
	f := newHostFixture(t, model.SetKindMockTest, 30*time.Minute, true)
	qs := makeQuestions(20)
	f.host.Load(QuestionSet{Questions: qs, Position: Position{Page: 1, TotalPages: 1, PageSize: 20}})
	assert.Equal(t, 1800, f.host.View().TimeLeft)

	for i := 0; i < 25; i++ {
		f.host.NextQuestion()
	}
	assert.Equal(t, 19, f.host.View().Cursor)
	assert.Equal(t, 18, f.host.PrevQuestion())

	_, err := f.host.NextPage()
	require.ErrorIs(t, err, ErrNotPaged)

	for i, q := range qs[:15] {
		selected := "no"
		if i < 12 {
			selected = "yes"
		}
		_, err := f.host.Answer(q.Text, selected)
		require.NoError(t, err)
	}

	r, err := f.host.Finish()
	require.NoError(t, err)
	assert.Equal(t, ReasonManual, r.Reason)
	assert.Equal(t, 12, r.Score)

	sum := terminatedSummary(t, f.events)
	assert.Equal(t, "60.00", sum.PercentageText)
	assert.False(t, sum.CanContinue)

	_, err = f.host.Continue()
	require.ErrorIs(t, err, ErrNotPaged)

	_, err = f.host.SetExamMode(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, f.prefs.Calls())
}

func TestHost_RetryIssuesNewIdentity(t *testing.T) {
	f := newHostFixture(t, model.SetKindSubject, 0, true)
	qs := makeQuestions(2)
	f.host.Load(pageOf(qs, 1, 1))

	answerAllHost := func() {
		for _, q := range qs {
			_, err := f.host.Answer(q.Text, "yes")
			require.NoError(t, err)
		}
	}

	answerAllHost()
	first := f.host.View()
	require.Equal(t, StatusTerminated, first.Status)

	_, err := f.host.Retry()
	require.NoError(t, err)

	v := f.host.View()
	assert.NotEqual(t, first.SessionID, v.SessionID)
	assert.Equal(t, StatusIdle, v.Status)
	assert.Equal(t, 300, v.TimeLeft)
	for _, q := range v.Questions {
		assert.Empty(t, q.Selected)
		assert.Nil(t, q.IsCorrect)
	}

	answerAllHost()
	assert.Equal(t, StatusTerminated, f.host.View().Status)
	assert.EqualValues(t, 2, f.hooks.installs.Load())
}

func TestHost_EmptySet(t *testing.T) {
	f := newHostFixture(t, model.SetKindTopic, 0, true)
	f.host.Load(pageOf(nil, 1, 1))

	f.events.waitFor(t, EventEmpty)
	assert.True(t, f.host.View().Empty)

	_, err := f.host.Answer("anything", "yes")
	require.ErrorIs(t, err, ErrNoQuestions)
	_, err = f.host.Finish()
	require.ErrorIs(t, err, ErrNoQuestions)
}

func TestHost_CloseTearsDown(t *testing.T) {
	f := newHostFixture(t, model.SetKindSubject, 0, true)
	qs := makeQuestions(2)
	f.host.Load(pageOf(qs, 1, 1))

	_, err := f.host.Answer(qs[0].Text, "yes")
	require.NoError(t, err)

	f.host.Close()
	f.host.Close()

	assert.EqualValues(t, 1, f.hooks.removes.Load())
	assert.False(t, f.host.ctrl.timer.Running())

	_, err = f.host.Answer(qs[1].Text, "yes")
	require.ErrorIs(t, err, ErrSessionClosed)
}
