package brainsrv

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"silexa/brain/internal/wstate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true }, // localhost companion UI only
}

// NewHTTPMux builds the Brain's ambient HTTP surface: a health endpoint, and
// a websocket that streams get_state snapshots on an interval, for
// presentation-layer clients that would rather subscribe than poll the IPC
// port. Grounded on agents/dashboard's chi.NewRouter() wiring.
func (b *Brain) NewHTTPMux() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws/state", b.serveSnapshotWS)
	return r
}

func (b *Brain) serveSnapshotWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if b.Logger != nil {
			b.Logger.Printf("ws upgrade: %v", err)
		}
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		snap, err := wstate.Do(b.Store, func(w *wstate.World) (string, error) {
			return Snapshot(w)
		})
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(snap)); err != nil {
			return
		}
	}
}
