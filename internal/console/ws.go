package console

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/guidebook/internal/session"
)

// Handler serves one session per websocket connection. Each connection
// opens start, then answers commands until the peer goes away. checkOrigin
// vets the handshake; nil accepts only pages served from the request's own
// host.
func Handler(newSession func() *session.Session, start func(r *http.Request) string, checkOrigin func(r *http.Request) bool) http.HandlerFunc {
	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("console: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		ctx := r.Context()
		sess := newSession()
		log.Printf("console: session %s connected", sess.ID())

		if err := sess.Open(ctx, start(r)); err != nil {
			send(conn, Response{Type: "error", Content: err.Error()})
		} else {
			send(conn, state(sess, ""))
		}

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("console: websocket read: %v", err)
				}
				return
			}
			var cmd Command
			if err := json.Unmarshal(msg, &cmd); err != nil {
				send(conn, Response{Type: "error", Content: "invalid message format"})
				continue
			}
			send(conn, Exec(ctx, sess, cmd))
		}
	}
}

func send(conn *websocket.Conn, resp Response) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("console: websocket write: %v", err)
	}
}
