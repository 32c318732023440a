package state

import (
	"github.com/Yat-Muk/lumen/internal/tui/types"
)

// EnvState 環境檢查視圖的狀態
type EnvState struct {
	Checking bool
	Summary  types.EnvSummary
}

// NewEnvState 創建環境檢查狀態
func NewEnvState() *EnvState {
	return &EnvState{}
}

// Begin 標記一次檢查開始
func (s *EnvState) Begin() {
	s.Checking = true
	s.Summary = types.EnvSummary{}
}

// Apply 寫入檢查結果
func (s *EnvState) Apply(sum types.EnvSummary) {
	s.Summary = sum
	s.Checking = false
}
