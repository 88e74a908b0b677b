package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"gridpool-service/internal/app"
	"gridpool-service/internal/domain"
)

// WSHandler streams ranked standings for one tenant season over a
// websocket: an initial snapshot on connect, then one message per
// completed scoring pass.
type WSHandler struct {
	notifier *app.StandingsNotifier
	boards   LeaderboardReader
	upgrader websocket.Upgrader
}

func NewWSHandler(notifier *app.StandingsNotifier, boards LeaderboardReader) *WSHandler {
	return &WSHandler{
		notifier: notifier,
		boards:   boards,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

// ServeWS upgrades the request and forwards standings snapshots until the
// client goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tenantSeasonID := r.URL.Query().Get("tenantSeason")
	if tenantSeasonID == "" {
		http.Error(w, "missing tenantSeason", http.StatusBadRequest)
		return
	}

	initial, err := h.boards.Leaderboard(r.Context(), tenantSeasonID)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.notifier.Subscribe(tenantSeasonID)
	defer cancel()

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})

	// single writer goroutine so snapshots never interleave on the wire
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send <- outboundMessage{Type: "standings", Payload: initial}

loop:
	for {
		select {
		case lb, ok := <-updates:
			if !ok {
				break loop
			}
			select {
			case send <- outboundMessage{Type: "standings", Payload: lb}:
			case <-writerDone:
				break loop
			case <-readerDone:
				break loop
			}
		case <-writerDone:
			break loop
		case <-readerDone:
			break loop
		}
	}
	close(send)
	<-writerDone
}
