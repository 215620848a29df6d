package link

import (
	"context"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func exchange(t *testing.T, a, b PacketReadWriter) {
	errCh := make(chan error, 1)
	go func() { errCh <- a.WritePacket([]byte{1, 2, 3}) }()
	pkt, err := b.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, pkt)
	require.NoError(t, <-errCh)

	go func() { errCh <- b.WritePacket(nil) }()
	pkt, err = a.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	require.NoError(t, <-errCh)
}

func TestPipe(t *testing.T) {
	a, b := NewPipe(1)
	exchange(t, a, b)

	buf := []byte{7}
	require.NoError(t, a.WritePacket(buf))
	buf[0] = 8
	pkt, err := b.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{7}, pkt)

	require.NoError(t, b.Close())
	_, err = a.ReadPacket()
	require.Equal(t, io.EOF, err)
	require.Equal(t, ErrClosed, a.WritePacket([]byte{1}))
	require.NoError(t, a.Close())
}

func TestNamedPipe(t *testing.T) {
	a := NamedPipe("test")
	b := NamedPipe("test")
	exchange(t, a, b)
	c := NamedPipe("test")
	require.NotEqual(t, a, c)
}

func TestStream(t *testing.T) {
	c1, c2 := net.Pipe()
	a, b := NewStream(c1), NewStream(c2)
	exchange(t, a, b)
	require.Equal(t, ErrPacketSize, a.WritePacket(make([]byte, MaxPacketSize+1)))
	require.NoError(t, a.Close())
	_, err := b.ReadPacket()
	require.Error(t, err)
}

func TestStreamRejectsOversize(t *testing.T) {
	c1, c2 := net.Pipe()
	go c1.Write([]byte{0xff, 0xff, 0xff, 0x7f})
	_, err := NewStream(c2).ReadPacket()
	require.Equal(t, ErrPacketSize, err)
	c1.Close()
}

func TestWebSocket(t *testing.T) {
	accepted := make(chan *WebSocket, 1)
	server := httptest.NewServer(WebSocketHandler(func(ws *WebSocket) { accepted <- ws }))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, err := DialWebSocket(url, server.URL)
	require.NoError(t, err)
	defer client.Close()
	ws := <-accepted
	exchange(t, client, ws)
	require.NoError(t, ws.Close())
	_, err = client.ReadPacket()
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("mem", func(t *testing.T) {
		a, err := Open(ctx, "mem://open", Endpoints{})
		require.NoError(t, err)
		b, err := Open(ctx, "mem://open", Endpoints{})
		require.NoError(t, err)
		exchange(t, a, b)
	})

	t.Run("tcp", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()
		accepted := make(chan net.Conn, 1)
		go func() {
			conn, err := ln.Accept()
			if err == nil {
				accepted <- conn
			}
		}()
		a, err := Open(ctx, "tcp://"+ln.Addr().String(), Endpoints{})
		require.NoError(t, err)
		defer a.Close()
		b := NewStream(<-accepted)
		defer b.Close()
		exchange(t, a, b)
	})

	t.Run("listen cancelled", func(t *testing.T) {
		lctx, lcancel := context.WithCancel(ctx)
		lcancel()
		_, err := Open(lctx, "tcp+listen://127.0.0.1:0", Endpoints{})
		require.Error(t, err)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := Open(ctx, "udp://host:1", Endpoints{})
		require.Error(t, err)
	})
}
