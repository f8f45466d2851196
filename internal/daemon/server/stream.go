package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/grovetools/sessiond/internal/daemon/store"
	"github.com/grovetools/sessiond/internal/index"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The socket file's 0600 mode is the access control; origin checks
	// do not apply to local unix-socket clients.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamEvent is one message pushed to /api/stream subscribers.
type StreamEvent struct {
	Type       string   `json:"type"` // snapshot, discontinuity or hello
	Generation uint64   `json:"generation"`
	Sessions   int      `json:"sessions,omitempty"`
	Active     int      `json:"active,omitempty"`
	Rebuilt    []string `json:"rebuilt,omitempty"`
}

// handleStream upgrades to a websocket and pushes an event for every
// store update. Events carry summary counts; clients re-query the REST
// endpoints for full data.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		http.Error(w, "engine not initialized", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := s.engine.Store().Subscribe()
	defer s.engine.Store().Unsubscribe(ch)

	s.logger.Debug("Stream client connected")

	// Discard client frames but notice disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snap := s.engine.Store().Snapshot()
	hello := StreamEvent{
		Type:       "hello",
		Generation: snap.Generation(),
		Sessions:   snap.Len(),
		Active:     len(snap.Active(s.activeSet(snap))),
	}
	if err := conn.WriteJSON(hello); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			s.logger.Debug("Stream client disconnected")
			return
		case update := <-ch:
			event, ok := s.toStreamEvent(update)
			if !ok {
				continue
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

func (s *Server) toStreamEvent(u store.Update) (StreamEvent, bool) {
	switch u.Type {
	case store.UpdateSnapshot:
		event := StreamEvent{Type: "snapshot", Generation: u.Generation}
		if snap, ok := u.Payload.(*index.Snapshot); ok {
			event.Sessions = snap.Len()
			event.Active = len(snap.Active(s.activeSet(snap)))
		}
		return event, true
	case store.UpdateDiscontinuity:
		event := StreamEvent{Type: "discontinuity", Generation: u.Generation}
		if ids, ok := u.Payload.([]string); ok {
			event.Rebuilt = ids
		}
		return event, true
	}
	return StreamEvent{}, false
}
