package types

import "time"

// EnvSummary 環境檢查結果的展示模型
// 由命令層從基礎設施報告轉換而來，視圖只消費這裏的字段
type EnvSummary struct {
	Checked          bool
	Hostname         string
	OS               string
	Arch             string
	Kernel           string
	GitFound         bool
	GitVersion       string
	GitPath          string
	DiskTotal        string
	DiskFree         string
	Writable         bool
	WorkspaceDir     string
	ManifestPresent  bool
	AlreadyInstalled bool
}

// BackupItem 備份列表條目
type BackupItem struct {
	Name     string
	Path     string
	ModTime  time.Time
	Size     int64
	Verified bool
}

// UninstallInfo 卸載前掃描到的現場情況
type UninstallInfo struct {
	Installed    bool
	BootstrapID  string
	ManifestPath string
	LockPresent  bool
	PackageDirs  []string
	BackupCount  int

	// 渲染前由狀態層回填的確認進度與保留選項
	ConfirmStep int
	KeepConfig  bool
	KeepBackup  bool
	KeepLog     bool
}

// UninstallStep 卸載過程中單個步驟的結果
type UninstallStep struct {
	Name    string
	Status  string // "ok" / "fail" / "skip"
	Message string
}
