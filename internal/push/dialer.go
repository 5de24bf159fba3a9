package push

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
)

// Dialer opens the byte stream the STOMP session runs over. The stream lives
// until ctx is cancelled or it is closed.
type Dialer interface {
	Dial(ctx context.Context, token string) (net.Conn, error)
}

// NewDialer picks the transport from the URL scheme: ws and wss speak STOMP
// over WebSocket, tcp speaks plain STOMP.
func NewDialer(rawURL string) (Dialer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse push url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
		return &WebSocketDialer{URL: rawURL}, nil
	case "tcp":
		return &TCPDialer{Addr: u.Host}, nil
	default:
		return nil, fmt.Errorf("unsupported push url scheme %q", u.Scheme)
	}
}

// WebSocketDialer connects to a STOMP-over-WebSocket endpoint.
type WebSocketDialer struct {
	URL       string
	ReadLimit int64
}

func (d *WebSocketDialer) Dial(ctx context.Context, token string) (net.Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	c, _, err := websocket.Dial(ctx, d.URL, &websocket.DialOptions{
		HTTPHeader:   header,
		Subprotocols: []string{"v12.stomp", "v11.stomp", "v10.stomp"},
	})
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	limit := d.ReadLimit
	if limit <= 0 {
		limit = 1 << 20
	}
	c.SetReadLimit(limit)
	return websocket.NetConn(ctx, c, websocket.MessageText), nil
}

// TCPDialer connects to a broker speaking STOMP directly over TCP.
type TCPDialer struct {
	Addr string
}

func (d *TCPDialer) Dial(ctx context.Context, _ string) (net.Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		return nil, fmt.Errorf("tcp dial: %w", err)
	}
	return conn, nil
}
