package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/session"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSHandler plays one quiz attempt per connection.
type WSHandler struct {
	play     *app.PlayService
	api      *API
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

func NewWSHandler(play *app.PlayService, api *API) *WSHandler {
	return &WSHandler{
		play: play,
		api:  api,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logrus.WithField("component", "ws"),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// answerPayload carries one of option, text or order depending on the
// question type.
type answerPayload struct {
	Option *int     `json:"option"`
	Text   *string  `json:"text"`
	Order  []string `json:"order"`
}

func (p answerPayload) answer() (domain.Answer, bool) {
	switch {
	case p.Order != nil:
		return domain.OrderAnswer(p.Order), true
	case p.Text != nil:
		return domain.TextAnswer(*p.Text), true
	case p.Option != nil:
		return domain.OptionAnswer(*p.Option), true
	}
	return domain.Answer{}, false
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type completePayload struct {
	View    session.View `json:"view"`
	Outcome app.Outcome  `json:"outcome"`
}

// ServeWS upgrades the request and runs a quiz attempt over it. The server
// pushes presented, tick, revealed and complete events; the client sends
// answer and continue messages.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		writeError(w, domain.Invalid("missing quizId"))
		return
	}
	user, err := h.api.userFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	// The attempt outlives individual requests on this connection but not
	// the connection itself.
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	sess, err := h.play.Start(ctx, user, quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.play.Release(ctx, user.ID, sess)

	events, cancel, err := h.play.Subscribe(ctx, user.ID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				msg := outboundMessage[any]{Type: string(ev.Type), Payload: ev}
				if ev.Type == session.EventClosed {
					// The attempt is over or a newer one replaced it. Stop
					// reading so later answers can not reach another attempt.
					select {
					case send <- msg:
					case <-closeSignals:
					}
					_ = conn.SetReadDeadline(time.Now())
					return
				}
				if ev.Type == session.EventComplete {
					outcome, err := h.play.FinishAttempt(ctx, user, sess)
					if err != nil {
						msg = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
					} else {
						msg.Payload = completePayload{View: ev.View, Outcome: outcome}
					}
				}
				select {
				case send <- msg:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply *outboundMessage[any]
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply = &outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				break
			}
			answer, ok := payload.answer()
			if !ok {
				reply = &outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				break
			}
			if _, err := h.play.Answer(ctx, user.ID, answer); err != nil {
				reply = &outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "continue":
			if _, err := h.play.Continue(ctx, user.ID); err != nil {
				reply = &outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		default:
			reply = &outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
		if reply != nil {
			select {
			case send <- *reply:
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}
