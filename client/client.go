package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
)

// ErrStreamClosed 服务端关闭了连接
var ErrStreamClosed = errors.New("server closed the connection")

// Options 客户端运行参数
type Options struct {
	Username string
	Password string
	Game     GameConfig

	Metrics    *Metrics    // 可为 nil
	Transcript *Transcript // 可为 nil
}

// Client 持有连接与状态机，单线程驱动事件循环
type Client struct {
	conn       Conn
	game       *Game
	opts       Options
	metrics    *Metrics
	transcript *Transcript
}

// New 创建客户端；conn 的所有权转移给 Client，由 Close 释放
func New(conn Conn, opts Options) *Client {
	if opts.Metrics == nil {
		opts.Metrics = &Metrics{}
	}
	return &Client{
		conn:       conn,
		game:       NewGame(opts.Username, opts.Game, opts.Metrics),
		opts:       opts,
		metrics:    opts.Metrics,
		transcript: opts.Transcript,
	}
}

// Game 状态机（只应在 Run 返回后或测试中读取）
func (c *Client) Game() *Game { return c.game }

// Run 发送 join 后逐行处理服务端消息，直到：
//   - 收到 error 消息，返回 nil；
//   - ctx 被取消，返回 nil（取消会关闭连接以打断阻塞中的读取）；
//   - 读写失败、字段无法解析或世界模型不一致，返回错误。
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()
	defer c.game.Terminate()

	Log.Info("Sending JOIN to join next game")
	if err := c.send(Join(c.opts.Username, c.opts.Password)); err != nil {
		return err
	}

	empty := 0
	for {
		if ctx.Err() != nil {
			Log.Info("Cancelled, leaving")
			return nil
		}

		line, err := c.conn.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				Log.Info("Cancelled, leaving")
				return nil
			}
			if errors.Is(err, io.EOF) {
				return ErrStreamClosed
			}
			return fmt.Errorf("read: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			empty++
			c.metrics.IncEmpty()
			continue
		}
		if empty > 0 {
			Log.Debugf("Skipped %d empty messages", empty)
			empty = 0
		}
		c.metrics.IncReceived()
		c.record("in", line)
		Log.Debugf("Received message: %s", line)

		ev, err := Decode(ParseLine(line))
		if err != nil {
			return err
		}
		cmd, err := c.game.Handle(ev)
		if err != nil {
			return err
		}
		if cmd != nil {
			if err := c.send(*cmd); err != nil {
				return err
			}
		}
		if c.game.State() == StateTerminated {
			return nil
		}
	}
}

func (c *Client) send(cmd Command) error {
	line, err := cmd.Line()
	if err != nil {
		return err
	}
	Log.Debugf("Sending msg: %s", cmd)
	c.record("out", cmd.String())
	if err := c.conn.WriteLine(line); err != nil {
		return fmt.Errorf("write %s: %w", cmd.Type, err)
	}
	switch cmd.Type {
	case "move":
		c.metrics.IncMove()
	case "chat":
		c.metrics.IncChat()
	}
	return nil
}

func (c *Client) record(dir, line string) {
	if c.transcript == nil {
		return
	}
	if err := c.transcript.Record(dir, line); err != nil {
		Log.Warnf("transcript: %v", err)
	}
}

// Close 一并释放连接与会话记录
func (c *Client) Close() error {
	err := c.conn.Close()
	if c.transcript != nil {
		err = multierr.Append(err, c.transcript.Close())
	}
	return err
}
