package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/middleware"
	"github.com/stemsi/exstem-practice/internal/model"
	"github.com/stemsi/exstem-practice/internal/response"
	"github.com/stemsi/exstem-practice/internal/service"
	"github.com/stemsi/exstem-practice/internal/session"
	"github.com/stemsi/exstem-practice/internal/validator"
	ws "github.com/stemsi/exstem-practice/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// SessionHandler runs timed practice sessions over WebSocket, one session
// host per connection.
type SessionHandler struct {
	questionService   *service.QuestionService
	preferenceService *service.PreferenceService
	clock             clockwork.Clock
	log               zerolog.Logger
	upgrader          websocket.Upgrader
}

// NewSessionHandler creates a new SessionHandler. A nil clock uses the real one.
func NewSessionHandler(
	questionService *service.QuestionService,
	preferenceService *service.PreferenceService,
	log zerolog.Logger,
	allowedOrigins []string,
	clock clockwork.Clock,
) *SessionHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionHandler{
		questionService:   questionService,
		preferenceService: preferenceService,
		clock:             clock,
		log:               log.With().Str("component", "session_handler").Logger(),
		upgrader:          buildUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/sets/:kind/:slug/session?page=&page_size=
// Upgrades to WebSocket and hosts a practice session over the set.
func (h *SessionHandler) Stream(c *gin.Context) {
	var ref model.SetRef
	if fields := validator.BindURI(c, &ref); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	var q model.PageQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	kind := model.SetKind(ref.Kind)
	first, err := h.questionService.Page(c.Request.Context(), kind, ref.Slug, q.Page, q.PageSize)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	clientID := middleware.GetClientID(c)
	examMode := true
	if kind.Paged() {
		examMode = h.preferenceService.ExamMode(c.Request.Context(), clientID)
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(ws.MaxMessageBytes)

	wsLog := h.log.With().
		Str("kind", ref.Kind).
		Str("set", ref.Slug).
		Str("client_id", clientID).
		Logger()

	// The request context ends with the hijacked handler, not with the socket.
	st := newStream(context.Background(), conn, wsLog)
	defer st.cancel()

	var prefs session.Preferences
	if clientID != "" {
		prefs = h.preferenceService.ForClient(clientID)
	}

	host := session.NewHost(session.Options{
		Kind:     kind,
		Duration: h.questionService.Duration(first.Set),
		ExamMode: examMode,
		Clock:    h.clock,
	}, session.Deps{
		Navigator:   st,
		Hooks:       st,
		Preferences: prefs,
		Sink:        st,
		Log:         wsLog,
	})
	defer host.Close()

	go st.writeLoop()
	reqs := make(chan ws.Request)
	go st.readLoop(reqs)

	wsLog.Info().Bool("exam_mode", examMode).Int("page", first.Page).Msg("Client connected")
	host.Load(toQuestionSet(first))

	for {
		select {
		case <-st.ctx.Done():
			return
		case page := <-st.pages:
			next, err := h.questionService.Page(st.ctx, kind, ref.Slug, page, q.PageSize)
			if err != nil {
				wsLog.Error().Err(err).Int("page", page).Msg("Failed to load page")
				st.sendError("failed to load page")
				continue
			}
			host.Load(toQuestionSet(next))
		case req, ok := <-reqs:
			if !ok {
				ws.WriteClose(conn, websocket.CloseNormalClosure, "")
				return
			}
			h.dispatch(st, host, req)
		}
	}
}

func (h *SessionHandler) dispatch(st *stream, host *session.Host, req ws.Request) {
	var err error

	switch req.Action {
	case ws.ActionAnswer:
		if req.Question == "" {
			st.sendError("question is required")
			return
		}
		_, err = host.Answer(req.Question, req.Selected)
	case ws.ActionFinish:
		_, err = host.Finish()
	case ws.ActionRetry:
		_, err = host.Retry()
	case ws.ActionContinue:
		var moved bool
		if moved, err = host.Continue(); err == nil && !moved {
			st.sendError("no further page")
			return
		}
	case ws.ActionPage:
		_, err = host.GoToPage(req.Page)
	case ws.ActionNextPage:
		_, err = host.NextPage()
	case ws.ActionPrevPage:
		_, err = host.PrevPage()
	case ws.ActionNextQuestion:
		host.NextQuestion()
	case ws.ActionPrevQuestion:
		host.PrevQuestion()
	case ws.ActionNavigate:
		if req.Target == "" {
			st.sendError("target is required")
			return
		}
		host.Navigate(req.Target)
	case ws.ActionLeave:
		_, err = host.Leave(st.ctx)
	case ws.ActionStay:
		err = host.Stay()
	case ws.ActionSetExamMode:
		if req.Enabled == nil {
			st.sendError("enabled is required")
			return
		}
		_, err = host.SetExamMode(st.ctx, *req.Enabled)
	case ws.ActionUnload:
		st.send(ws.Message{Event: ws.EventUnload, Data: ws.UnloadResponse{Prompt: host.BeforeUnload()}})
	case ws.ActionSync:
		st.send(ws.Message{Event: ws.EventState, Data: host.View()})
	case ws.ActionPing:
		st.send(ws.PongResponse{Event: ws.EventPong})
	default:
		st.log.Warn().Str("action", string(req.Action)).Msg("Unknown action")
		st.sendError("unknown action: " + string(req.Action))
		return
	}

	if err != nil {
		if errors.Is(err, session.ErrSessionClosed) {
			st.cancel()
			return
		}
		st.log.Debug().Err(err).Str("action", string(req.Action)).Msg("Action rejected")
		st.sendError(err.Error())
	}
}

func toQuestionSet(p *model.QuestionPage) session.QuestionSet {
	return session.QuestionSet{
		Questions: p.Questions,
		Position: session.Position{
			Page:       p.Page,
			TotalPages: p.TotalPages,
			PageSize:   p.PageSize,
		},
	}
}
