package link

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/link/mqtt"
	"github.com/robotalks/tickprog/pkg/periph"
)

// Endpoints identifies both nodes of a link.
type Endpoints struct {
	Local periph.Address
	Peer  periph.Address
}

// Open opens a link from URL:
//
//	mem://name            in-process link, shared by two callers
//	tcp://host:port       connect to a stream listener
//	tcp+listen://:port    accept one stream connection
//	ws://host:port/path   connect to a websocket listener
//	ws+listen://:port/path accept one websocket connection
//	mqtt://broker/prefix  exchange packets through a broker
func Open(ctx context.Context, rawURL string, ep Endpoints) (PacketConn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "mem":
		return NamedPipe(u.Host + u.Path), nil
	case "tcp":
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return NewStream(conn), nil
	case "tcp+listen":
		return acceptStream(ctx, u.Host)
	case "ws", "wss":
		return DialWebSocket(rawURL, "http://"+u.Host)
	case "ws+listen":
		return acceptWebSocket(ctx, u.Host, u.Path)
	case "mqtt", "mqtts":
		q, err := mqtt.NewQueueFromURL(rawURL)
		if err != nil {
			return nil, err
		}
		if err = q.Connect(); err != nil {
			return nil, fmt.Errorf("mqtt connect %s: %v", u.Host, err)
		}
		rw := mqtt.NewReadWriter(q, ep.Local, ep.Peer)
		if err = rw.Start(); err != nil {
			q.Close()
			return nil, err
		}
		return &queueConn{ReadWriter: rw, queue: q}, nil
	}
	return nil, fmt.Errorf("unsupported link %q", rawURL)
}

type queueConn struct {
	*mqtt.ReadWriter
	queue *mqtt.Queue
}

func (c *queueConn) Close() error {
	err := c.ReadWriter.Close()
	c.queue.Close()
	return err
}

func acceptStream(ctx context.Context, addr string) (PacketConn, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	glog.Infof("link: waiting for connection on %s", ln.Addr())
	var conn net.Conn
	err = framework.RunWithContextCloser(ctx, ln, func() (err error) {
		conn, err = ln.Accept()
		return
	})
	if err != nil {
		return nil, err
	}
	return NewStream(conn), nil
}

func acceptWebSocket(ctx context.Context, addr, path string) (PacketConn, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	glog.Infof("link: waiting for websocket on %s%s", ln.Addr(), path)
	connCh := make(chan *WebSocket, 1)
	mux := http.NewServeMux()
	mux.Handle(path, WebSocketHandler(func(ws *WebSocket) {
		select {
		case connCh <- ws:
		default:
			// only one peer is accepted.
			ws.Close()
		}
	}))
	server := &http.Server{Handler: mux}
	go server.Serve(ln)
	select {
	case ws := <-connCh:
		ln.Close()
		return ws, nil
	case <-ctx.Done():
		server.Close()
		return nil, ctx.Err()
	}
}
