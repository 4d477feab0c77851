package handler

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/session"
	ws "github.com/stemsi/exstem-practice/internal/websocket"
)

// outboxSize is how many events may queue behind a slow client.
const outboxSize = 256

// stream is one WebSocket connection seen from the session host: it is the
// event sink, the guard hooks and the navigator. Only the write loop writes to
// conn; everything else queues on out.
type stream struct {
	ctx    context.Context
	cancel context.CancelFunc
	conn   *websocket.Conn
	out    chan any
	// pages holds the latest page request only.
	pages chan int
	log   zerolog.Logger
}

func newStream(ctx context.Context, conn *websocket.Conn, log zerolog.Logger) *stream {
	ctx, cancel := context.WithCancel(ctx)
	return &stream{
		ctx:    ctx,
		cancel: cancel,
		conn:   conn,
		out:    make(chan any, outboxSize),
		pages:  make(chan int, 1),
		log:    log,
	}
}

// Publish implements session.Sink.
func (s *stream) Publish(e session.Event) {
	s.send(ws.Message{Event: ws.Event(e.Type), Data: e.Data})
}

// Install implements session.Hooks.
func (s *stream) Install() {
	s.send(ws.Message{Event: ws.EventGuardArmed})
}

// Remove implements session.Hooks.
func (s *stream) Remove() {
	s.send(ws.Message{Event: ws.EventGuardDisarmed})
}

// ShowPage implements session.Navigator. It never blocks: an unread request
// is replaced by the newer one.
func (s *stream) ShowPage(page int) {
	select {
	case <-s.pages:
	default:
	}
	select {
	case s.pages <- page:
	default:
	}
}

// Navigate implements session.Navigator. The host has already published the
// navigate event; the client performs the navigation.
func (s *stream) Navigate(target string) {
	s.log.Debug().Str("target", target).Msg("Client navigating away")
}

func (s *stream) send(v any) {
	select {
	case s.out <- v:
	case <-s.ctx.Done():
	}
}

func (s *stream) sendError(msg string) {
	s.send(ws.ErrorResponse{Event: ws.EventError, Error: msg})
}

func (s *stream) writeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case v := <-s.out:
			if err := ws.WriteTyped(s.conn, v); err != nil {
				s.log.Debug().Err(err).Msg("Write failed, closing stream")
				s.cancel()
				return
			}
		}
	}
}

// readLoop decodes client messages into reqs and closes it when the
// connection ends. Malformed JSON is reported and skipped.
func (s *stream) readLoop(reqs chan<- ws.Request) {
	defer close(reqs)

	for {
		var req ws.Request
		if err := ws.ReadJSON(s.conn, &req); err != nil {
			if errors.Is(err, ws.ErrMalformed) {
				s.sendError("malformed message")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				s.log.Debug().Msg("Connection closed")
			}
			return
		}

		select {
		case reqs <- req:
		case <-s.ctx.Done():
			return
		}
	}
}
