package animation

import "slices"

// 通知回调
//
// 回调同步执行，按注册顺序调用，运行在调用 Tick/SetState 的同一 goroutine 中。
// 回调 panic 会被捕获并记录日志，不会破坏播放器状态，后续回调照常执行。
// 已释放的播放器不再接受注册，只记录一条警告。

// OnFrameChange 注册帧变化回调，参数为新的帧索引
func (p *Player) OnFrameChange(fn func(index int)) {
	if !p.acceptCallback("frame change", fn == nil) {
		return
	}
	p.onFrame = append(p.onFrame, fn)
}

// OnStateChange 注册状态切换回调，参数为新的状态名
func (p *Player) OnStateChange(fn func(state string)) {
	if !p.acceptCallback("state change", fn == nil) {
		return
	}
	p.onState = append(p.onState, fn)
}

// OnComplete 注册播放完成回调（仅 once 模式），每次完成只触发一次
func (p *Player) OnComplete(fn func()) {
	if !p.acceptCallback("complete", fn == nil) {
		return
	}
	p.onComplete = append(p.onComplete, fn)
}

// OnCycle 注册循环回调：loop 模式回到第 0 帧、pingpong 模式在端点折返时触发
//
// count 为本次通知代表的循环次数，通常为 1；一次 Tick 跨越多个完整周期时，
// 被整体跳过的循环合并成一次通知报告。
func (p *Player) OnCycle(fn func(state string, count int)) {
	if !p.acceptCallback("cycle", fn == nil) {
		return
	}
	p.onCycle = append(p.onCycle, fn)
}

func (p *Player) acceptCallback(kind string, isNil bool) bool {
	if p.released {
		p.logger.Warnf("ignore %s callback on released player", kind)
		return false
	}
	if isNil {
		p.logger.Warnf("ignore nil %s callback", kind)
		return false
	}
	return true
}

func (p *Player) emitFrame(index int) {
	for _, fn := range slices.Clone(p.onFrame) {
		p.safeCall("frame change", func() { fn(index) })
	}
}

func (p *Player) emitState(state string) {
	for _, fn := range slices.Clone(p.onState) {
		p.safeCall("state change", func() { fn(state) })
	}
}

func (p *Player) emitComplete() {
	for _, fn := range slices.Clone(p.onComplete) {
		p.safeCall("complete", fn)
	}
}

func (p *Player) emitCycle(state string, count int) {
	for _, fn := range slices.Clone(p.onCycle) {
		p.safeCall("cycle", func() { fn(state, count) })
	}
}

func (p *Player) safeCall(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("%s callback failed: %v", kind, r)
		}
	}()
	fn()
}
