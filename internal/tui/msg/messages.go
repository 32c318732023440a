package msg

import (
	domainConfig "github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/domain/install"
	"github.com/Yat-Muk/lumen/internal/suite"
	"github.com/Yat-Muk/lumen/internal/tui/types"
)

// ConfigLoadedMsg 配置加載消息
type ConfigLoadedMsg struct {
	Config *domainConfig.Config
	Err    error
	Silent bool
}

// ConfigUpdateMsg 配置保存結果消息
type ConfigUpdateMsg struct {
	Err     error
	Applied bool
	Message string
}

// InstallStartMsg 請求啟動安裝序列
// 由嚮導確認頁發出，路由器收到後構建追蹤器與序列器
type InstallStartMsg struct{}

// EnvCheckedMsg 環境檢查結果消息
// ForInstall 為 true 時表示檢查屬於安裝序列的第一階段，
// 而不是主菜單觸發的獨立檢查視圖
type EnvCheckedMsg struct {
	Summary    types.EnvSummary
	Err        error
	ForInstall bool
}

// BootstrapRegisteredMsg 引導套件寫入清單並觸發宿主解析的結果
type BootstrapRegisteredMsg struct {
	Patched bool
	Err     error
}

// PackageClonedMsg 單個套件倉庫克隆結果
type PackageClonedMsg struct {
	Package string
	Dir     string
	Index   int
	Total   int
	Err     error
}

// RegistryLookupMsg 次級安裝器查找結果
type RegistryLookupMsg struct {
	Installer suite.Installer
	Err       error
}

// RetryLookupMsg 查找退避結束，發起下一輪查找
type RetryLookupMsg struct {
	Cycle int
}

// SecondaryStepMsg 次級安裝器上報的步驟碼
type SecondaryStepMsg struct {
	Code   int
	Detail string
}

// SecondaryDoneMsg 次級安裝器運行結束
type SecondaryDoneMsg struct {
	Err error
}

// InstallFinishedMsg 安裝序列收尾
type InstallFinishedMsg struct {
	State install.State
}

// BackupListMsg 備份列表消息
type BackupListMsg struct {
	Entries []types.BackupItem
	Err     error
}

// BackupCreateMsg 備份創建消息
type BackupCreateMsg struct {
	Name string
	Err  error
}

// BackupRestoreMsg 備份恢復消息
type BackupRestoreMsg struct {
	Name string
	Err  error
}

// BackupDeleteMsg 備份刪除消息
type BackupDeleteMsg struct {
	Name string
	Err  error
}

// UpdateCheckedMsg 版本更新查詢結果
type UpdateCheckedMsg struct {
	Latest string
	Err    error
}

// UninstallInfoMsg 卸載前掃描消息
type UninstallInfoMsg struct {
	Info *types.UninstallInfo
	Err  error
}

// UninstallCompleteMsg 卸載完成消息
type UninstallCompleteMsg struct {
	Steps   []types.UninstallStep
	Success bool
	Err     error
}
