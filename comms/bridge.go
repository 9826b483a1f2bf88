package comms

import (
	"log"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"github.com/CodedInternet/hexastat/onboard"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Bridge exposes the device over HTTP: a state snapshot endpoint plus a
// websocket carrying commands in and telemetry out. Inbound frames are fed
// into the same command stream as the serial input, so remote clients get
// identical validation and the same all-or-nothing commit.
type Bridge struct {
	Device onboard.HexastatInterface
}

func NewBridge(device onboard.HexastatInterface) *Bridge {
	return &Bridge{Device: device}
}

func (b *Bridge) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/state", b.State)
	r.Get("/ws", b.Socket)
	return r
}

// State renders the snapshot published by the latest control cycle.
func (b *Bridge) State(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, NewStatePayload(b.Device.Snapshot()))
}

// Socket upgrades to a websocket session. Text frames received are command
// lines; telemetry snapshots are pushed back as JSON.
func (b *Bridge) Socket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer conn.Close()

	snaps := b.Device.Subscribe()
	defer b.Device.Unsubscribe(snaps)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case snap := <-snaps:
				if err := conn.WriteJSON(NewStatePayload(snap)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Println("read:", err)
			return
		}
		b.Device.Feed(append(msg, '\n'))
	}
}
