package shellio

import (
	"encoding/binary"
	"net/url"

	"github.com/gorilla/websocket"
)

// WS is the backend for ConnHTTP sectors: a remote shell relayed through a
// websocket endpoint rather than a direct socket, for hosts reachable only
// over HTTP(S) (e.g. behind a reverse proxy that won't forward raw TCP).
// Frames are binary; a resize is sent as its own frame prefixed with a
// single 'R' byte followed by two big-endian uint16s, so the relay on the
// other end can tell a resize from a data write without a second channel.
type WS struct {
	conn *websocket.Conn
	buf  []byte
}

// DialWS connects to a wss://.../shell-style endpoint and announces the
// initial terminal size.
func DialWS(endpoint string, rows, cols uint16) (*WS, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}
	w := &WS{conn: conn}
	if err := w.Resize(rows, cols); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return w, nil
}

func (w *WS) Read(p []byte) (int, error) {
	for len(w.buf) == 0 {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		w.buf = data
	}
	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *WS) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WS) Resize(rows, cols uint16) error {
	frame := make([]byte, 5)
	frame[0] = 'R'
	binary.BigEndian.PutUint16(frame[1:3], rows)
	binary.BigEndian.PutUint16(frame[3:5], cols)
	return w.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (w *WS) Wait() error {
	_, _, err := w.conn.ReadMessage()
	return err
}

func (w *WS) Close() error {
	return w.conn.Close()
}
