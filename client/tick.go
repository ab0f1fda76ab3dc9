package client

import "gridbot/world"

// onTick 每个 Tick 必须回复一条 move：
// 从自身位置向四个方向投射光束，选空地最多的方向
func (g *Game) onTick() *Command {
	g.metrics.IncTick()
	dir := world.Directions[0]
	if pos, ok := g.world.Position(); ok && g.state == StateInEpoch {
		dir = world.SelectDirectionMode(g.world, pos, g.cfg.BeamMode)
	} else {
		Log.Warnf("Tick without known position (state=%s), moving %s", g.state, dir)
	}
	cmd := Move(dir)
	return &cmd
}
