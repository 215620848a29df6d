package link

import (
	"net/http"
	"sync"

	"golang.org/x/net/websocket"
)

// WebSocket implements PacketReadWriter with one binary frame per packet.
type WebSocket struct {
	Conn *websocket.Conn

	done chan struct{}
	once sync.Once
}

// NewWebSocket wraps websocket.Conn.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{Conn: conn, done: make(chan struct{})}
}

// DialWebSocket connects to a websocket server.
func DialWebSocket(url, origin string) (*WebSocket, error) {
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	return NewWebSocket(conn), nil
}

// ReadPacket implements PacketReader.
func (p *WebSocket) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive(p.Conn, &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *WebSocket) WritePacket(pkt []byte) error {
	return websocket.Message.Send(p.Conn, pkt)
}

// Close implements io.Closer.
func (p *WebSocket) Close() error {
	p.once.Do(func() { close(p.done) })
	return p.Conn.Close()
}

// Done is closed once the WebSocket is closed.
func (p *WebSocket) Done() <-chan struct{} {
	return p.done
}

// WebSocketHandler accepts websocket connections and hands each one over
// to accept. The connection is kept open until it's closed.
func WebSocketHandler(accept func(*WebSocket)) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		ws := NewWebSocket(conn)
		accept(ws)
		<-ws.Done()
	})
}
