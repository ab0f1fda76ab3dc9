package client

import (
	"errors"
	"fmt"
	"strings"

	"gridbot/world"
)

// ErrUnrepresentable 字段中含有协议无法表示的字符（'|' 或换行）
var ErrUnrepresentable = errors.New("field not representable on the wire")

// Command 发往服务端的一条命令
// 示例：move|up
type Command struct {
	Type string
	Args []string
}

// Join 请求加入下一局
func Join(username, password string) Command {
	return Command{Type: "join", Args: []string{username, password}}
}

// Move 提交本 Tick 的移动
func Move(dir world.Direction) Command {
	return Command{Type: "move", Args: []string{dir.String()}}
}

// Chat 发送聊天
func Chat(text string) Command {
	return Command{Type: "chat", Args: []string{text}}
}

// Line 编码为带换行的一行文本
func (c Command) Line() (string, error) {
	for i, a := range c.Args {
		if strings.ContainsAny(a, "|\r\n") {
			return "", fmt.Errorf("%s: arg %d: %w", c.Type, i, ErrUnrepresentable)
		}
	}
	if len(c.Args) == 0 {
		return c.Type + "\n", nil
	}
	return c.Type + "|" + strings.Join(c.Args, "|") + "\n", nil
}

// String 用于日志，隐藏 join 的密码
func (c Command) String() string {
	args := c.Args
	if c.Type == "join" && len(args) == 2 {
		args = []string{args[0], "***"}
	}
	if len(args) == 0 {
		return c.Type
	}
	return c.Type + "|" + strings.Join(args, "|")
}
