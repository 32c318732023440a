package state

import (
	"fmt"

	"github.com/Yat-Muk/lumen/internal/domain/install"
)

// InstallState 安裝進度的展示狀態
// 快照由追蹤器經 ProgressSink 同步寫入，調度循環之外不得改動
type InstallState struct {
	Snapshot   install.State
	IsFinished bool // 標記安裝流程是否結束 (無論成功失敗)
}

// NewInstallState 創建安裝狀態管理器
func NewInstallState() *InstallState {
	return &InstallState{}
}

// Apply 接收追蹤器發佈的最新快照
func (s *InstallState) Apply(snap install.State) {
	s.Snapshot = snap
}

// Finish 標記流程結束，進度視圖據此解鎖按鍵
func (s *InstallState) Finish() {
	s.IsFinished = true
}

// Reset 清空展示狀態，準備下一次運行
func (s *InstallState) Reset() {
	s.Snapshot = install.State{}
	s.IsFinished = false
}

// LogLines 渲染用的日誌行，帶時間戳前綴
func (s *InstallState) LogLines() []string {
	lines := make([]string, 0, len(s.Snapshot.Logs))
	for _, entry := range s.Snapshot.Logs {
		lines = append(lines, fmt.Sprintf("[%s] %s", entry.Time.Format("15:04:05"), entry.Message))
	}
	return lines
}

// CurrentStageName 當前階段的顯示名稱
func (s *InstallState) CurrentStageName() string {
	return s.Snapshot.CurrentStep.DisplayName()
}
