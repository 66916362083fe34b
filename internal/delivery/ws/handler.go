package ws

import (
	"net/http"

	"github.com/Vovarama1992/grenades/internal/metrics"
)

const defaultRoom = "maps"

// WSHandler subscribes the caller to ?room= (default "maps") and keeps the
// connection open until the client goes away. The feed is server to client only.
func WSHandler(hub *Hub, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			roomID = defaultRoom
		}

		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		hub.Register(roomID, conn)
		m.WSConnected(1)
		defer func() {
			m.WSConnected(-1)
			hub.Unregister(roomID, conn)
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
