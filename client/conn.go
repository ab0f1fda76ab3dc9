package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// Conn 按行收发的服务端连接。读写两端随 Close 一起释放。
type Conn interface {
	// ReadLine 阻塞读取一行（不含换行）
	ReadLine() (string, error)
	// WriteLine 写出一行（调用方负责换行）
	WriteLine(line string) error
	Close() error
}

// Dial 根据地址选择传输：ws:// 或 wss:// 走 WebSocket，其余按 TCP host:port 处理
func Dial(ctx context.Context, addr string, timeout time.Duration) (Conn, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		ws, err := DialWS(ctx, addr)
		if err != nil {
			return nil, err
		}
		return ws, nil
	}
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewTCPConn(nc), nil
}

// MaxLineSize 单行长度上限，与 WebSocket 的读取上限一致
const MaxLineSize = 1 << 20

// TCPConn 基于 net.Conn 的行协议连接
type TCPConn struct {
	nc  net.Conn
	sc  *bufio.Scanner
	w   *bufio.Writer
	mu  sync.Mutex // 保护写端
	one sync.Once
	err error
}

// NewTCPConn 包装已建立的连接（测试中可传入 net.Pipe 的一端）
func NewTCPConn(nc net.Conn) *TCPConn {
	sc := bufio.NewScanner(nc)
	sc.Buffer(make([]byte, 0, 4096), MaxLineSize)
	return &TCPConn{
		nc: nc,
		sc: sc,
		w:  bufio.NewWriter(nc),
	}
}

// ReadLine 流结束前的半行同样交给上层；超过 MaxLineSize 的行返回 bufio.ErrTooLong
func (c *TCPConn) ReadLine() (string, error) {
	if c.sc.Scan() {
		return c.sc.Text(), nil
	}
	if err := c.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (c *TCPConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.WriteString(line); err != nil {
		return err
	}
	return c.w.Flush()
}

// Close 只关闭一次，重复调用返回第一次的结果
func (c *TCPConn) Close() error {
	c.one.Do(func() { c.err = c.nc.Close() })
	return c.err
}
