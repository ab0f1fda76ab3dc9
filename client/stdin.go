package client

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// WatchStdin 读取标准输入，输入 q / quit / exit 时调用 cancel。
// 只持有 cancel，不访问世界模型；输入结束（EOF）时直接返回，不取消。
func WatchStdin(ctx context.Context, r io.Reader, cancel context.CancelFunc) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "q", "quit", "exit":
			Log.Info("Quit requested on stdin")
			cancel()
			return
		}
	}
}
