package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"oraclia-chat-platform/internal/bus"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/usecase"

	"github.com/go-chi/chi/v5"
)

const ssePingInterval = 25 * time.Second

func sseHeaders(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher, true
}

func sseEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

// conversationEventsHandler streams each message published on the
// conversation as one SSE event. The bus invokes listeners synchronously, so
// delivery goes through a buffered channel; a client that cannot keep up
// loses the overflow rather than stalling publishers.
func conversationEventsHandler(b *bus.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := sseHeaders(w)
		if !ok {
			return
		}
		conversationID := chi.URLParam(r, "conversationID")

		msgs := make(chan *model.Message, 32)
		handle := b.Subscribe(conversationID, func(_ string, msg *model.Message) {
			select {
			case msgs <- msg:
			default:
			}
		})
		defer b.Unsubscribe(handle)

		ping := time.NewTicker(ssePingInterval)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ping.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case msg := <-msgs:
				sseEvent(w, flusher, "message", toMessageView(msg))
			}
		}
	}
}

// sessionEventsHandler streams the metering clock of one session: ticks,
// the low balance warning and the terminal close event. The stream ends
// when the session's event channel closes.
func sessionEventsHandler(sessions usecase.SessionUseCase) http.HandlerFunc {
	type eventView struct {
		Type             string     `json:"type"`
		SessionID        string     `json:"session_id"`
		RemainingSeconds int        `json:"remaining_seconds"`
		Usage            *usageView `json:"usage,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := sessions.Events(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		flusher, ok := sseHeaders(w)
		if !ok {
			return
		}

		ping := time.NewTicker(ssePingInterval)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ping.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case ev, open := <-events:
				if !open {
					return
				}
				view := eventView{
					Type:             string(ev.Type),
					SessionID:        ev.SessionID,
					RemainingSeconds: ev.RemainingSeconds,
				}
				if ev.Type == usecase.EventClosed {
					view.Usage = &usageView{
						FreeMinutesUsed: ev.Usage.FreeMinutesUsed,
						PaidMinutesUsed: ev.Usage.PaidMinutesUsed,
					}
				}
				sseEvent(w, flusher, string(ev.Type), view)
			}
		}
	}
}
