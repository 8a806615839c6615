package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"hostel_booking/internal/app"
	"hostel_booking/internal/domain"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 << 10,
}

// streamFrame is one fetch-state snapshot of the hostel list.
type streamFrame struct {
	Status              app.FetchStatus `json:"status"`
	Generation          uint64          `json:"generation"`
	CommittedGeneration uint64          `json:"committedGeneration"`
	Refreshing          bool            `json:"refreshing"`
	Stale               bool            `json:"stale"`
	HasData             bool            `json:"hasData"`
	Error               *app.ErrorInfo  `json:"error,omitempty"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	Hostels             []domain.Hostel `json:"hostels,omitempty"`
}

func frameOf(s app.FetchState[[]domain.Hostel], withData bool) streamFrame {
	f := streamFrame{
		Status:              s.Status,
		Generation:          s.Generation,
		CommittedGeneration: s.CommittedGeneration,
		Refreshing:          s.Refreshing,
		Stale:               s.Stale(),
		HasData:             s.HasData,
		Error:               s.Error,
		UpdatedAt:           s.UpdatedAt,
	}
	if withData {
		f.Hostels = s.Data
	}
	return f
}

// streamHostels pushes list state snapshots over a websocket. Data is only
// sent when the committed generation changes; ?data=false never sends it.
func (h *Handlers) streamHostels(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sendData := r.URL.Query().Get("data") != "false"
	states, stop := h.Listing.Subscribe()
	defer stop()

	// reader: only needed for control frames and to notice the client leaving
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	var lastCommitted uint64
	sentData := false
	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case s, ok := <-states:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(streamWriteWait))
				return
			}
			withData := sendData && s.HasData && (!sentData || s.CommittedGeneration != lastCommitted)
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(frameOf(s, withData)); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}
			if withData {
				sentData = true
				lastCommitted = s.CommittedGeneration
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}
