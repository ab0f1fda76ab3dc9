package world

import (
	"fmt"
	"strings"
)

// Direction 移动方向。枚举顺序即平局时的优先顺序。
type Direction int

const (
	DirRight Direction = iota // x 增大
	DirLeft                   // x 减小
	DirDown                   // y 增大
	DirUp                     // y 减小
)

// Directions 按枚举顺序列出全部方向
var Directions = [...]Direction{DirRight, DirLeft, DirDown, DirUp}

// String 返回协议中 move 命令使用的名字
func (d Direction) String() string {
	switch d {
	case DirRight:
		return "right"
	case DirLeft:
		return "left"
	case DirDown:
		return "down"
	case DirUp:
		return "up"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// BeamMode 光束计数方式
type BeamMode int

const (
	// BeamSweep 统计整条光束上的空格数，遇到障碍不停止
	BeamSweep BeamMode = iota
	// BeamRay 遇到第一个被占领的格子即停止
	BeamRay
)

func (m BeamMode) String() string {
	if m == BeamRay {
		return "ray"
	}
	return "sweep"
}

// ParseBeamMode 解析配置中的光束模式
func ParseBeamMode(s string) (BeamMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sweep":
		return BeamSweep, nil
	case "ray":
		return BeamRay, nil
	default:
		return BeamSweep, fmt.Errorf("unknown beam mode %q", s)
	}
}

// Grid 选择器只需要的只读视图
type Grid interface {
	Size() (width, height int)
	IsClaimed(x, y int) bool
}

// BeamLength 从 origin 沿 dir 投射光束（环绕网格），统计 extent-1 步中空格的数量。
// 减小方向先加 extent 再取模，避免负数。
func BeamLength(g Grid, origin Position, dir Direction) int {
	return beamLength(g, origin, dir, BeamSweep)
}

func beamLength(g Grid, origin Position, dir Direction, mode BeamMode) int {
	width, height := g.Size()
	extent := width
	if dir == DirDown || dir == DirUp {
		extent = height
	}
	n := 0
	for i := 1; i < extent; i++ {
		x, y := origin.X, origin.Y
		switch dir {
		case DirRight:
			x = (origin.X + i) % extent
		case DirLeft:
			x = (origin.X + extent - i) % extent
		case DirDown:
			y = (origin.Y + i) % extent
		case DirUp:
			y = (origin.Y + extent - i) % extent
		}
		if g.IsClaimed(x, y) {
			if mode == BeamRay {
				break
			}
			continue
		}
		n++
	}
	return n
}

// SelectDirection 在四个方向中选光束最长者，严格大于才替换，平局取枚举顺序靠前的方向
func SelectDirection(g Grid, origin Position) Direction {
	return SelectDirectionMode(g, origin, BeamSweep)
}

// SelectDirectionMode 同 SelectDirection，可指定光束模式
func SelectDirectionMode(g Grid, origin Position, mode BeamMode) Direction {
	best, bestLen := Directions[0], -1
	for _, d := range Directions {
		if l := beamLength(g, origin, d, mode); l > bestLen {
			best, bestLen = d, l
		}
	}
	return best
}
