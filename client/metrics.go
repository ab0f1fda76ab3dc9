package client

import (
	"sync/atomic"
)

// Metrics 记录客户端运行期的关键指标。事件循环写入，状态接口并发读取。
type Metrics struct {
	LinesReceived int64 // 收到的非空行
	EmptyLines    int64 // 收到的空行
	UnknownTypes  int64 // 未知消息类型
	Ticks         int64
	MovesSent     int64
	ChatsSent     int64
	Epochs        int64 // 开局次数
	Deaths        int64 // die 事件中移除的玩家数
	Wins          int64
	Losses        int64

	state atomic.Int32
}

func (m *Metrics) IncReceived() { atomic.AddInt64(&m.LinesReceived, 1) }
func (m *Metrics) IncEmpty() { atomic.AddInt64(&m.EmptyLines, 1) }
func (m *Metrics) IncUnknown() { atomic.AddInt64(&m.UnknownTypes, 1) }
func (m *Metrics) IncTick() { atomic.AddInt64(&m.Ticks, 1) }
func (m *Metrics) IncMove() { atomic.AddInt64(&m.MovesSent, 1) }
func (m *Metrics) IncChat() { atomic.AddInt64(&m.ChatsSent, 1) }
func (m *Metrics) IncEpoch() { atomic.AddInt64(&m.Epochs, 1) }
func (m *Metrics) AddDeaths(n int64) { atomic.AddInt64(&m.Deaths, n) }
func (m *Metrics) IncWin() { atomic.AddInt64(&m.Wins, 1) }
func (m *Metrics) IncLoss() { atomic.AddInt64(&m.Losses, 1) }

// SetState 记录状态机当前状态，供状态接口读取
func (m *Metrics) SetState(s State) { m.state.Store(int32(s)) }

// State 状态机当前状态
func (m *Metrics) State() State { return State(m.state.Load()) }

// Snapshot 返回只读副本，便于 HTTP 输出与退出日志
func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"state":          m.State().String(),
		"lines_received": atomic.LoadInt64(&m.LinesReceived),
		"empty_lines":    atomic.LoadInt64(&m.EmptyLines),
		"unknown_types":  atomic.LoadInt64(&m.UnknownTypes),
		"ticks":          atomic.LoadInt64(&m.Ticks),
		"moves_sent":     atomic.LoadInt64(&m.MovesSent),
		"chats_sent":     atomic.LoadInt64(&m.ChatsSent),
		"epochs":         atomic.LoadInt64(&m.Epochs),
		"deaths":         atomic.LoadInt64(&m.Deaths),
		"wins":           atomic.LoadInt64(&m.Wins),
		"losses":         atomic.LoadInt64(&m.Losses),
	}
}
