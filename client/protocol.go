package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gridbot/world"
)

// 入站消息类型
const (
	TypeMotd   = "motd"
	TypeGame   = "game"
	TypeTick   = "tick"
	TypePlayer = "player"
	TypePos    = "pos"
	TypeChat   = "chat"
	TypeDie    = "die"
	TypeLose   = "lose"
	TypeWin    = "win"
	TypeError  = "error"
)

// ErrMissingField 消息字段数量不足
var ErrMissingField = errors.New("missing field")

// FieldError 描述无法解析的字段；协议没有重新同步机制，调用方应将其视为致命错误
type FieldError struct {
	Type  string
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrMissingField) {
		return fmt.Sprintf("%s: missing field %s", e.Type, e.Field)
	}
	return fmt.Sprintf("%s: cannot parse %s %q: %v", e.Type, e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Message 一行协议文本拆分后的结果
type Message struct {
	Type string
	Args []string
}

// ParseLine 按 '|' 拆分一行，去掉行尾换行与各字段首尾空白
func ParseLine(line string) Message {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return Message{Type: parts[0], Args: parts[1:]}
}

// Event 解码后的入站事件
type Event interface {
	EventType() string
}

type (
	MotdEvent struct{ Text string }
	GameEvent struct {
		Width  int
		Height int
		OwnID  world.PlayerID
	}
	TickEvent   struct{}
	PlayerEvent struct {
		ID   world.PlayerID
		Name string
	}
	PosEvent struct {
		ID world.PlayerID
		X  int
		Y  int
	}
	ChatEvent struct {
		ID   world.PlayerID
		Text string
	}
	DieEvent  struct{ IDs []world.PlayerID }
	LoseEvent struct{ Wins, Losses uint64 }
	// WinEvent 的计数字段是可选的，服务端未发送时 HasCounts 为 false
	WinEvent struct {
		Wins, Losses uint64
		HasCounts    bool
	}
	ErrorEvent   struct{ Reason string }
	UnknownEvent struct{ Type string }
)

func (MotdEvent) EventType() string      { return TypeMotd }
func (GameEvent) EventType() string      { return TypeGame }
func (TickEvent) EventType() string      { return TypeTick }
func (PlayerEvent) EventType() string    { return TypePlayer }
func (PosEvent) EventType() string       { return TypePos }
func (ChatEvent) EventType() string      { return TypeChat }
func (DieEvent) EventType() string       { return TypeDie }
func (LoseEvent) EventType() string      { return TypeLose }
func (WinEvent) EventType() string       { return TypeWin }
func (ErrorEvent) EventType() string     { return TypeError }
func (e UnknownEvent) EventType() string { return e.Type }

// fields 按顺序读取消息参数，第一次出错后后续读取均为空操作
type fields struct {
	msg Message
	i   int
	err error
}

func (f *fields) str(name string) string {
	if f.err != nil {
		return ""
	}
	if f.i >= len(f.msg.Args) {
		f.err = &FieldError{Type: f.msg.Type, Field: name, Err: ErrMissingField}
		return ""
	}
	v := f.msg.Args[f.i]
	f.i++
	return v
}

func (f *fields) num(name string, bits int) uint64 {
	s := f.str(name)
	if f.err != nil {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		f.err = &FieldError{Type: f.msg.Type, Field: name, Value: s, Err: err}
		return 0
	}
	return n
}

func (f *fields) id(name string) world.PlayerID { return world.PlayerID(f.num(name, 16)) }
func (f *fields) coord(name string) int         { return int(f.num(name, 16)) }

// rest 余下字段按原样以 '|' 拼回（聊天内容等自由文本）
func (f *fields) rest() string {
	if f.err != nil || f.i >= len(f.msg.Args) {
		return ""
	}
	v := strings.Join(f.msg.Args[f.i:], "|")
	f.i = len(f.msg.Args)
	return v
}

// Decode 将消息解码为事件。未知类型返回 UnknownEvent，不视为错误。
func Decode(msg Message) (Event, error) {
	f := &fields{msg: msg}
	var ev Event
	switch msg.Type {
	case TypeMotd:
		ev = MotdEvent{Text: f.rest()}
	case TypeGame:
		ev = GameEvent{Width: f.coord("width"), Height: f.coord("height"), OwnID: f.id("own id")}
	case TypeTick:
		ev = TickEvent{}
	case TypePlayer:
		ev = PlayerEvent{ID: f.id("player id"), Name: f.str("name")}
	case TypePos:
		ev = PosEvent{ID: f.id("player id"), X: f.coord("x"), Y: f.coord("y")}
	case TypeChat:
		id := f.id("player id")
		ev = ChatEvent{ID: id, Text: f.rest()}
	case TypeDie:
		die := DieEvent{IDs: []world.PlayerID{f.id("player id")}}
		for f.err == nil && f.i < len(msg.Args) {
			die.IDs = append(die.IDs, f.id("player id"))
		}
		ev = die
	case TypeLose:
		ev = LoseEvent{Wins: f.num("wins", 32), Losses: f.num("losses", 32)}
	case TypeWin:
		win := WinEvent{}
		if len(msg.Args) >= 2 {
			win.Wins, win.Losses, win.HasCounts = f.num("wins", 32), f.num("losses", 32), true
		}
		ev = win
	case TypeError:
		ev = ErrorEvent{Reason: f.rest()}
	default:
		return UnknownEvent{Type: msg.Type}, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return ev, nil
}
