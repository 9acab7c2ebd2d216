package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phuslu/log"

	"github.com/dyike/tickerview/internal/analysis"
	"github.com/dyike/tickerview/internal/page"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	PhaseAlert = "alert"
	writeWait  = 10 * time.Second
)

// StreamMessage is pushed to websocket clients. Phase is "loading", "done"
// or "alert".
type StreamMessage struct {
	Phase   string               `json:"phase"`
	Ticker  string               `json:"ticker,omitempty"`
	Error   string               `json:"error,omitempty"`
	Loading bool                 `json:"loading"`
	Regions map[page.Slot]string `json:"regions,omitempty"`
}

// handleWebSocket binds one view per connection. Each {"ticker": ...}
// message starts a run; the client receives the loading snapshot as soon as
// it is written and the final snapshot when the run settles. Runs are not
// cancelled by later messages.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	view, err := s.bind()
	if err != nil {
		log.Error().Err(err).Msg("bind page")
		return
	}

	var writeMu sync.Mutex
	send := func(msg StreamMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
		}
	}

	ctrl := analysis.NewController(s.analyzer, view, analysis.WithObserver(
		func(phase analysis.Phase, ticker string, snap page.Snapshot) {
			send(StreamMessage{
				Phase:   string(phase),
				Ticker:  ticker,
				Loading: snap.Loading,
				Regions: snap.Regions,
			})
		}))

	var runs sync.WaitGroup
	defer runs.Wait()

	for {
		var req AnalyzeRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}

		if s.limiter != nil && !s.limiter.Allow() {
			send(StreamMessage{Phase: PhaseAlert, Error: "too many requests"})
			continue
		}

		runs.Add(1)
		go func(raw string) {
			defer runs.Done()
			if _, err := ctrl.Run(context.Background(), raw); err != nil {
				send(StreamMessage{Phase: PhaseAlert, Error: err.Error()})
			}
		}(req.Ticker)
	}
}
