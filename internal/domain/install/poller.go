package install

// ReadinessPoller 以節拍計數等待外部 resolve 操作安定
// 外部系統不提供完成信號，這是刻意的盡力等待：
// 計數達到安定閾值視為「大概已完成」，達到嘗試上限視為超時
// 兩條路徑都恰好觸發一次 onSettled
type ReadinessPoller struct {
	settleThreshold int
	maxAttempts     int
	attempts        int
	settled         bool
	onSettled       func(timedOut bool)
}

// NewReadinessPoller 創建輪詢器
// settleThreshold 為推定安定所需的節拍數，maxAttempts 為硬上限
func NewReadinessPoller(settleThreshold, maxAttempts int, onSettled func(timedOut bool)) *ReadinessPoller {
	return &ReadinessPoller{
		settleThreshold: settleThreshold,
		maxAttempts:     maxAttempts,
		onSettled:       onSettled,
	}
}

// Tick 每個調度節拍調用一次；安定之後的 Tick 是無操作
// 返回 true 表示本次節拍觸發了 onSettled
func (p *ReadinessPoller) Tick() bool {
	if p.settled {
		return false
	}

	p.attempts++

	if p.attempts >= p.settleThreshold {
		p.finish(false)
		return true
	}
	if p.attempts >= p.maxAttempts {
		p.finish(true)
		return true
	}
	return false
}

// Settled 是否已經安定（含超時）
func (p *ReadinessPoller) Settled() bool {
	return p.settled
}

// Attempts 已經歷的節拍數
func (p *ReadinessPoller) Attempts() int {
	return p.attempts
}

func (p *ReadinessPoller) finish(timedOut bool) {
	p.settled = true
	if p.onSettled != nil {
		p.onSettled(timedOut)
	}
}
