package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSConn 行协议跑在 WebSocket 文本帧上：一帧可以包含一行或多行
type WSConn struct {
	ws      *websocket.Conn
	pending []string
	mu      sync.Mutex // 保护写端
	one     sync.Once
	err     error
}

// DialWS 建立 WebSocket 连接
func DialWS(ctx context.Context, url string) (*WSConn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWSConn(ws), nil
}

// NewWSConn 包装已建立的 WebSocket 连接
func NewWSConn(ws *websocket.Conn) *WSConn {
	ws.SetReadLimit(1 << 20) // 1MB
	return &WSConn{ws: ws}
}

func (c *WSConn) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		typ, payload, err := c.ws.ReadMessage()
		if err != nil {
			return "", err
		}
		if typ != websocket.TextMessage {
			continue
		}
		text := strings.TrimRight(string(payload), "\r\n")
		c.pending = strings.Split(text, "\n")
	}
	line := strings.TrimRight(c.pending[0], "\r")
	c.pending = c.pending[1:]
	return line, nil
}

func (c *WSConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.ws.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *WSConn) Close() error {
	c.one.Do(func() { c.err = c.ws.Close() })
	return c.err
}
