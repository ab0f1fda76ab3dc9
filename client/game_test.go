package client

import (
	"errors"
	"testing"

	"gridbot/world"
)

// feed 逐行解码并交给状态机，返回所有回复命令
func feed(t *testing.T, g *Game, lines ...string) []Command {
	t.Helper()
	var out []Command
	for _, line := range lines {
		ev, err := Decode(ParseLine(line))
		if err != nil {
			t.Fatalf("Decode(%q): %v", line, err)
		}
		cmd, err := g.Handle(ev)
		if err != nil {
			t.Fatalf("Handle(%q): %v", line, err)
		}
		if cmd != nil {
			out = append(out, *cmd)
		}
	}
	return out
}

func TestGameOpenGridTick(t *testing.T) {
	g := NewGame("Bot", GameConfig{}, nil)
	cmds := feed(t, g, "game|4|4|0", "player|0|Bot", "pos|0|0|0", "tick")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands want 1: %v", len(cmds), cmds)
	}
	line, _ := cmds[0].Line()
	if line != "move|right\n" {
		t.Fatalf("got %q want move|right", line)
	}
	if g.State() != StateInEpoch {
		t.Fatalf("state=%s want in_epoch", g.State())
	}
	// 同样的输入总是得到同样的结果
	again := feed(t, NewGame("Bot", GameConfig{}, nil), "game|4|4|0", "player|0|Bot", "pos|0|0|0", "tick")
	if again[0].String() != cmds[0].String() {
		t.Fatalf("non-deterministic: %v vs %v", again, cmds)
	}
}

func TestGameGreetingOnStart(t *testing.T) {
	g := NewGame("Bot", GameConfig{Greeting: DefaultGreeting}, nil)
	cmds := feed(t, g, "motd|welcome", "game|10|10|3")
	if len(cmds) != 1 || cmds[0].Type != "chat" || cmds[0].Args[0] != DefaultGreeting {
		t.Fatalf("cmds=%v want greeting chat", cmds)
	}
}

func TestGameDieUnknownPlayer(t *testing.T) {
	g := NewGame("Bot", GameConfig{}, nil)
	feed(t, g, "game|5|5|0", "player|1|alice", "pos|1|2|2", "pos|0|1|1")
	before := g.World().String()
	feed(t, g, "die|2")
	if after := g.World().String(); after != before {
		t.Fatalf("grid changed:\n%s\nwant\n%s", after, before)
	}
	if g.World().Name(1) != "alice" {
		t.Fatalf("unrelated registry entry touched")
	}
}

func TestGameDieReleasesClaims(t *testing.T) {
	m := &Metrics{}
	g := NewGame("Bot", GameConfig{}, m)
	feed(t, g, "game|3|1|0", "player|1|alice", "pos|0|0|0", "pos|1|1|0", "pos|1|2|0")
	// 两侧都被占领：光束为 0
	if got := world.BeamLength(g.World(), world.Position{}, world.DirRight); got != 0 {
		t.Fatalf("beam=%d want 0", got)
	}
	feed(t, g, "die|1")
	if g.World().IsClaimed(1, 0) || g.World().IsClaimed(2, 0) {
		t.Fatalf("claims not released:\n%s", g.World())
	}
	if m.Deaths != 1 {
		t.Fatalf("deaths=%d want 1", m.Deaths)
	}
}

func TestGameLifecycle(t *testing.T) {
	m := &Metrics{}
	g := NewGame("Bot", GameConfig{}, m)
	if g.State() != StateAwaitingGame {
		t.Fatalf("initial state=%s", g.State())
	}
	feed(t, g, "game|4|4|1")
	if g.State() != StateInEpoch {
		t.Fatalf("state=%s want in_epoch", g.State())
	}
	feed(t, g, "lose|0|1")
	if g.State() != StateAwaitingGame {
		t.Fatalf("state=%s after lose", g.State())
	}
	feed(t, g, "game|6|6|2", "win")
	if g.State() != StateAwaitingGame {
		t.Fatalf("state=%s after win", g.State())
	}
	feed(t, g, "error|bye")
	if g.State() != StateTerminated {
		t.Fatalf("state=%s after error", g.State())
	}
	// 终止态吸收一切
	if cmds := feed(t, g, "game|4|4|0", "tick"); len(cmds) != 0 {
		t.Fatalf("terminated game replied %v", cmds)
	}
	if m.Epochs != 2 || m.Wins != 1 || m.Losses != 1 {
		t.Fatalf("metrics=%v", m.Snapshot())
	}
	if m.State() != StateTerminated {
		t.Fatalf("metrics state=%s", m.State())
	}
}

func TestGameNewEpochReplacesWorld(t *testing.T) {
	g := NewGame("Bot", GameConfig{}, nil)
	feed(t, g, "game|4|4|0", "player|1|alice", "pos|1|3|3", "pos|0|0|0")
	feed(t, g, "game|2|2|5")
	w := g.World()
	if w.Name(1) != world.Unknown {
		t.Fatalf("registry survived epoch")
	}
	if me, _ := w.Me(); me != 5 {
		t.Fatalf("me=%d want 5", me)
	}
	if _, ok := w.Position(); ok {
		t.Fatalf("position survived epoch")
	}
}

func TestGameTickWithoutPosition(t *testing.T) {
	m := &Metrics{}
	g := NewGame("Bot", GameConfig{}, m)
	cmds := feed(t, g, "tick", "game|4|4|0", "tick")
	if len(cmds) != 2 {
		t.Fatalf("cmds=%v", cmds)
	}
	for _, c := range cmds {
		if c.String() != "move|right" {
			t.Fatalf("got %s want move|right", c)
		}
	}
	if m.Ticks != 2 {
		t.Fatalf("ticks=%d", m.Ticks)
	}
}

func TestGameFatalErrors(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		want  error
	}{
		{"claim out of bounds", []string{"game|4|4|0", "pos|1|4|0"}, world.ErrOutOfBounds},
		{"grid too large", []string{"game|65535|65535|0"}, world.ErrGridTooLarge},
		{"claim before game", []string{"pos|1|0|0"}, world.ErrNoEpoch},
		{"player before game", []string{"player|1|x"}, world.ErrNoEpoch},
		{"die before game", []string{"die|1"}, world.ErrNoEpoch},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := NewGame("Bot", GameConfig{}, nil)
			var err error
			for _, line := range c.lines {
				ev, derr := Decode(ParseLine(line))
				if derr != nil {
					t.Fatalf("Decode: %v", derr)
				}
				if _, err = g.Handle(ev); err != nil {
					break
				}
			}
			if !errors.Is(err, c.want) {
				t.Fatalf("err=%v want %v", err, c.want)
			}
		})
	}
}

func TestGameTickAfterEpochEnds(t *testing.T) {
	g := NewGame("Bot", GameConfig{}, nil)
	// 自己在 (0,0)，右侧被占满，进行中应向下
	cmds := feed(t, g, "game|3|3|0", "pos|1|1|0", "pos|1|2|0", "pos|0|0|0", "tick")
	if len(cmds) != 1 || cmds[0].String() != "move|down" {
		t.Fatalf("cmds=%v want move|down", cmds)
	}
	cmds = feed(t, g, "lose|0|1", "tick")
	if len(cmds) != 1 || cmds[0].String() != "move|right" {
		t.Fatalf("after lose cmds=%v want fallback move|right", cmds)
	}
}

func TestGameUnknownTypeIgnored(t *testing.T) {
	m := &Metrics{}
	g := NewGame("Bot", GameConfig{}, m)
	if cmds := feed(t, g, "game|2|2|0", "message|1|hi", "spectate"); len(cmds) != 0 {
		t.Fatalf("cmds=%v", cmds)
	}
	if m.UnknownTypes != 2 {
		t.Fatalf("unknown=%d want 2", m.UnknownTypes)
	}
}
