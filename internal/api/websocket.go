package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bbernstein/lacylights-palette/internal/services/pubsub"
)

const writeWait = 5 * time.Second

// feed streams favorites.Event values for the served step domain as
// JSON text frames until the client goes away.
func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	sub := s.pubsub.Subscribe(pubsub.TopicFavoriteChanged, s.store.Signature(), 16)
	defer s.pubsub.Unsubscribe(sub)
	s.log.Debug("websocket client connected", zap.String("subscriber", sub.ID), zap.String("remote", r.RemoteAddr))

	// Read pump: only needed to notice the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			s.log.Debug("websocket client disconnected", zap.String("subscriber", sub.ID))
			return
		case <-r.Context().Done():
			return
		case msg, ok := <-sub.Channel:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
