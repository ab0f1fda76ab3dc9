package world

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// PlayerID 服务端分配的玩家编号
type PlayerID uint16

// Unknown 未注册（或已移除）玩家的名字
const Unknown = "UNKNOWN"

var (
	// ErrNoEpoch 在 StartEpoch 之前修改世界
	ErrNoEpoch = errors.New("world: no game epoch started")
	// ErrOutOfBounds 坐标越界，说明与服务端状态不同步
	ErrOutOfBounds = errors.New("world: coordinate out of bounds")
	// ErrGridTooLarge 开局尺寸超过 MaxCells
	ErrGridTooLarge = errors.New("world: grid too large")
)

// MaxCells 单局网格格子数上限
const MaxCells = 1 << 20

// Position 网格坐标
type Position struct {
	X int
	Y int
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Cell 单个格子：仅记录占领者
type Cell struct {
	owner   PlayerID
	claimed bool
}

// Owner 返回占领者；未占领时 ok=false
func (c Cell) Owner() (PlayerID, bool) { return c.owner, c.claimed }

// World 一局游戏的世界模型：网格、玩家表、自身身份与位置。
// 只由事件循环单线程访问，不加锁。
type World struct {
	username string

	width  int
	height int
	cells  []Cell // 行优先，nil 表示尚未开局

	players map[PlayerID]string

	me     PlayerID
	hasMe  bool
	pos    Position
	hasPos bool
}

// New 创建世界模型；username 用于识别自己
func New(username string) *World {
	return &World{
		username: username,
		players:  make(map[PlayerID]string),
	}
}

// StartEpoch 开始新一局：重新分配网格，设置自身编号，清空玩家表与位置
func (w *World) StartEpoch(width, height int, ownID PlayerID) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("world: invalid dimensions %dx%d", width, height)
	}
	if width > MaxCells/height {
		return fmt.Errorf("%w: width %d x height %d exceeds %d cells", ErrGridTooLarge, width, height, MaxCells)
	}
	w.width = width
	w.height = height
	w.cells = make([]Cell, width*height)
	w.players = make(map[PlayerID]string)
	w.me = ownID
	w.hasMe = true
	w.pos = Position{}
	w.hasPos = false
	return nil
}

// Started 是否已开局
func (w *World) Started() bool { return w.cells != nil }

// Size 网格尺寸
func (w *World) Size() (width, height int) { return w.width, w.height }

// Me 自身编号
func (w *World) Me() (PlayerID, bool) { return w.me, w.hasMe }

// Position 自身当前位置（收到自己的 pos 之后才有效）
func (w *World) Position() (Position, bool) { return w.pos, w.hasPos }

// RegisterPlayer 登记玩家。名字等于配置的用户名时视为自己并返回 true；
// 其他玩家先到先得，已有名字的编号不会被覆盖。
func (w *World) RegisterPlayer(id PlayerID, name string) (bool, error) {
	if !w.Started() {
		return false, ErrNoEpoch
	}
	if name == w.username {
		if w.hasMe && w.me != id {
			w.hasPos = false
		}
		w.me = id
		w.hasMe = true
		return true, nil
	}
	if _, ok := w.players[id]; !ok {
		w.players[id] = name
	}
	return false, nil
}

// Claim 将 (x,y) 标记为 id 占领，直接覆盖原占领者；id 是自己时同步更新位置
func (w *World) Claim(id PlayerID, x, y int) error {
	if !w.Started() {
		return ErrNoEpoch
	}
	if !w.inBounds(x, y) {
		return fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, x, y, w.width, w.height)
	}
	w.cells[y*w.width+x] = Cell{owner: id, claimed: true}
	if w.hasMe && id == w.me {
		w.pos = Position{X: x, Y: y}
		w.hasPos = true
	}
	return nil
}

// RemovePlayer 移除玩家并释放其占领的所有格子（全表扫描），返回释放数量
func (w *World) RemovePlayer(id PlayerID) (int, error) {
	if !w.Started() {
		return 0, ErrNoEpoch
	}
	delete(w.players, id)
	released := 0
	for i := range w.cells {
		if c := w.cells[i]; c.claimed && c.owner == id {
			w.cells[i] = Cell{}
			released++
		}
	}
	return released, nil
}

// Name 查询玩家名字，不存在时返回 Unknown
func (w *World) Name(id PlayerID) string {
	if name, ok := w.players[id]; ok {
		return name
	}
	return Unknown
}

// Players 已登记的玩家编号（升序）
func (w *World) Players() []PlayerID {
	ids := make([]PlayerID, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsClaimed 格子是否被占领
func (w *World) IsClaimed(x, y int) bool {
	return w.cell(x, y).claimed
}

// Owner 格子的占领者
func (w *World) Owner(x, y int) (PlayerID, bool) {
	return w.cell(x, y).Owner()
}

// Claims 统计某玩家占领的格子数
func (w *World) Claims(id PlayerID) int {
	n := 0
	for _, c := range w.cells {
		if c.claimed && c.owner == id {
			n++
		}
	}
	return n
}

func (w *World) inBounds(x, y int) bool {
	return x >= 0 && x < w.width && y >= 0 && y < w.height
}

// cell 查询越界属于调用方编程错误，直接 panic
func (w *World) cell(x, y int) Cell {
	if !w.Started() {
		panic("world: query before game epoch started")
	}
	if !w.inBounds(x, y) {
		panic(fmt.Sprintf("world: query (%d,%d) outside %dx%d", x, y, w.width, w.height))
	}
	return w.cells[y*w.width+x]
}

// String 以 ASCII 输出网格，便于调试日志：'.' 空地，'@' 自己，其余为编号末位
func (w *World) String() string {
	if !w.Started() {
		return "<no epoch>\n"
	}
	var sb strings.Builder
	sb.Grow((w.width + 1) * w.height)
	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			c := w.cells[y*w.width+x]
			switch {
			case !c.claimed:
				sb.WriteByte('.')
			case w.hasMe && c.owner == w.me:
				sb.WriteByte('@')
			default:
				sb.WriteByte(byte('0' + c.owner%10))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
