package client

import (
	"fmt"

	"gridbot/world"
)

// State 客户端状态机
type State int32

const (
	StateAwaitingGame State = iota // 已发送 join，等待开局
	StateInEpoch                   // 对局进行中
	StateTerminated                // 终止（吸收态）
)

func (s State) String() string {
	switch s {
	case StateAwaitingGame:
		return "awaiting_game"
	case StateInEpoch:
		return "in_epoch"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// GameConfig 对局相关配置
type GameConfig struct {
	Greeting string // 开局时发送的聊天，空则不发
	BeamMode world.BeamMode
}

// Game 由事件循环独占的状态机：按入站事件修改世界模型，并给出至多一条回复命令
type Game struct {
	world   *world.World
	cfg     GameConfig
	state   State
	metrics *Metrics
}

// NewGame 创建状态机；metrics 可为 nil
func NewGame(username string, cfg GameConfig, metrics *Metrics) *Game {
	if metrics == nil {
		metrics = &Metrics{}
	}
	g := &Game{
		world:   world.New(username),
		cfg:     cfg,
		metrics: metrics,
	}
	g.setState(StateAwaitingGame)
	return g
}

// World 世界模型（只应在事件循环内访问）
func (g *Game) World() *world.World { return g.world }

// State 当前状态
func (g *Game) State() State { return g.state }

// Terminate 进入终止态，之后的事件全部忽略
func (g *Game) Terminate() { g.setState(StateTerminated) }

func (g *Game) setState(s State) {
	g.state = s
	g.metrics.SetState(s)
}

// Handle 处理一个入站事件。返回的错误均为致命错误（字段越界、未开局即修改等）。
func (g *Game) Handle(ev Event) (*Command, error) {
	if g.state == StateTerminated {
		return nil, nil
	}
	switch e := ev.(type) {
	case MotdEvent:
		Log.Infof("MOTD: %s", e.Text)

	case GameEvent:
		return g.onGame(e)

	case TickEvent:
		return g.onTick(), nil

	case PlayerEvent:
		self, err := g.world.RegisterPlayer(e.ID, e.Name)
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", e.ID, err)
		}
		if self {
			Log.Infof("Found my ID: %d", e.ID)
		} else {
			Log.Debugf("Registering player %d %q", e.ID, e.Name)
		}

	case PosEvent:
		if err := g.world.Claim(e.ID, e.X, e.Y); err != nil {
			return nil, fmt.Errorf("pos %d: %w", e.ID, err)
		}

	case ChatEvent:
		name := world.Unknown
		if n := g.world.Name(e.ID); n != world.Unknown {
			name = fmt.Sprintf("%q", n)
		}
		Log.Infof("Player %d (%s) said: %q", e.ID, name, e.Text)

	case DieEvent:
		for _, id := range e.IDs {
			name := g.world.Name(id)
			released, err := g.world.RemovePlayer(id)
			if err != nil {
				return nil, fmt.Errorf("die %d: %w", id, err)
			}
			Log.Debugf("Player %d (%s) died, released %d cells", id, name, released)
		}
		g.metrics.AddDeaths(int64(len(e.IDs)))

	case LoseEvent:
		g.metrics.IncLoss()
		Log.Infof("Lost. Won %d times, lost %d times.", e.Wins, e.Losses)
		g.endEpoch()

	case WinEvent:
		g.metrics.IncWin()
		if e.HasCounts {
			Log.Infof("Won! Won %d times, lost %d times.", e.Wins, e.Losses)
		} else {
			Log.Info("Won!")
		}
		g.endEpoch()

	case ErrorEvent:
		Log.Errorf("Server error: %s", e.Reason)
		g.Terminate()

	default:
		g.metrics.IncUnknown()
		Log.Debugf("Ignoring message type %q", ev.EventType())
	}
	return nil, nil
}

func (g *Game) onGame(e GameEvent) (*Command, error) {
	if err := g.world.StartEpoch(e.Width, e.Height, e.OwnID); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	g.metrics.IncEpoch()
	g.setState(StateInEpoch)
	Log.Infof("New game has started! %dx%d, my ID: %d", e.Width, e.Height, e.OwnID)
	if g.cfg.Greeting == "" {
		return nil, nil
	}
	cmd := Chat(g.cfg.Greeting)
	return &cmd, nil
}

func (g *Game) endEpoch() {
	if g.world.Started() {
		Log.Debugf("Final board:\n%s", g.world)
	}
	g.setState(StateAwaitingGame)
}
