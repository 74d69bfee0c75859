package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"banjocap/internal/domain"
	"banjocap/internal/observability"
)

const streamWriteTimeout = 10 * time.Second

// handleStream upgrades to websocket and sends a ScanResponse for every snapshot
// until the client disconnects. The current snapshot, if any, is sent first.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	observability.SetStreamClients(int(s.streamClients.Add(1)))
	defer func() {
		observability.SetStreamClients(int(s.streamClients.Add(-1)))
	}()

	updates, cancel := s.backend.Subscribe()
	defer cancel()

	// Reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if cur := s.backend.CurrentScan(); cur != nil {
		if err := s.send(conn, cur); err != nil {
			return
		}
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := s.send(conn, st); err != nil {
				s.logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, st *domain.ScanState) error {
	msg, err := json.Marshal(newScanResponse(st))
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, msg)
}
