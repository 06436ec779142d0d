package hub

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/hivecraft/portal/config"
	"github.com/hivecraft/portal/globals"
)

func newUpgrader(cfg *config.Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // non-browser clients
			}
			return origin == cfg.ServerConfig.FrontendOrigin
		},
	}
}

// Handler upgrades incoming requests and attaches them to the hub. The
// connection starts unauthenticated, identity is established by the
// client's authenticate event.
func Handler(h *Hub) http.HandlerFunc {
	upgrader := newUpgrader(h.cfg)
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			globals.AppLogger.Error("websocket upgrade error", "error", err)
			return
		}
		c := NewClient(h, conn)
		h.Register(c)
		globals.AppLogger.Debug("connection registered", "conn", c.id)
		go c.WriteLoop()
		go c.ReadLoop()
	}
}
