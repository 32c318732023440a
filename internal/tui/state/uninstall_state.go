package state

import (
	"github.com/Yat-Muk/lumen/internal/tui/types"
)

// UninstallState 卸載狀態
type UninstallState struct {
	Scanning    bool
	ConfirmStep int // 0: 選擇保留項, 1: 最終確認

	// 掃描結果，掃描完成前為 nil
	Info *types.UninstallInfo

	// 卸載執行後各步驟的結果
	Steps []types.UninstallStep

	// 用戶選擇保留的項目
	KeepConfig  bool
	KeepBackups bool
	KeepLogs    bool

	// 執行狀態
	Uninstalling bool
}

// NewUninstallState 創建卸載狀態
func NewUninstallState() *UninstallState {
	return &UninstallState{
		Scanning: true,
	}
}

// Reset 重置狀態
func (s *UninstallState) Reset() {
	s.Info = nil
	s.Scanning = true
	s.ConfirmStep = 0
	s.Steps = nil
	s.KeepConfig = false
	s.KeepBackups = false
	s.KeepLogs = false
	s.Uninstalling = false
}

// NextConfirmStep 進入下一步
func (s *UninstallState) NextConfirmStep() {
	s.ConfirmStep++
}
