package install

import "fmt"

// Stage 安裝序列中的一個獨立單元
// Action 收到的完成回調必須恰好調用一次：
// 不調用會讓序列永遠停在原地（表現為進度條卡住，不是崩潰）；
// 重複調用會 panic，因為那意味著後續階段會被跳過
type Stage struct {
	ID          string
	DisplayName string
	Action      func(done func())
}

// Sequencer 依序驅動各 Stage，只在前一個回報完成後才啟動下一個
// 失敗的 Stage 由其自身記錄錯誤後照常回報完成，序列不會因此中斷
type Sequencer struct {
	stages     []Stage
	index      int
	running    bool
	doneCalled []bool
	onFinished func()
}

// NewSequencer 創建序列器
// onFinished 在最後一個 Stage 完成後調用，負責收尾轉移
func NewSequencer(onFinished func()) *Sequencer {
	return &Sequencer{onFinished: onFinished}
}

// Run 從第一個 Stage 開始執行整個序列
func (s *Sequencer) Run(stages []Stage) {
	s.stages = stages
	s.index = 0
	s.doneCalled = make([]bool, len(stages))
	s.running = true
	s.startCurrent()
}

// Running 序列是否仍在進行
func (s *Sequencer) Running() bool {
	return s.running
}

// Index 當前執行到的 Stage 序號
func (s *Sequencer) Index() int {
	return s.index
}

func (s *Sequencer) startCurrent() {
	if s.index >= len(s.stages) {
		s.running = false
		if s.onFinished != nil {
			s.onFinished()
		}
		return
	}

	idx := s.index
	s.stages[idx].Action(func() {
		s.complete(idx)
	})
}

func (s *Sequencer) complete(idx int) {
	if s.doneCalled[idx] {
		panic(fmt.Sprintf("install: stage %q 的完成回調被重複調用", s.stages[idx].ID))
	}
	s.doneCalled[idx] = true
	s.index = idx + 1
	s.startCurrent()
}
