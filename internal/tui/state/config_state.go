package state

import (
	"strconv"

	domainConfig "github.com/Yat-Muk/lumen/internal/domain/config"
)

// SettingsField 偏好設定中可編輯的字段
type SettingsField int

const (
	FieldNone SettingsField = iota
	FieldWorkspaceDir
	FieldBootstrapVersion
	FieldCoreRepo
	FieldAssetsRepo
	FieldTickInterval
	FieldSettleThreshold
	FieldMaxAttempts
	FieldCloneDepth
)

// Label 字段在設定視圖中的顯示名稱
func (f SettingsField) Label() string {
	switch f {
	case FieldWorkspaceDir:
		return "工作區目錄"
	case FieldBootstrapVersion:
		return "引導套件版本"
	case FieldCoreRepo:
		return "lumen-core 倉庫地址"
	case FieldAssetsRepo:
		return "lumen-assets 倉庫地址"
	case FieldTickInterval:
		return "輪詢節拍間隔 (毫秒)"
	case FieldSettleThreshold:
		return "推定安定節拍數"
	case FieldMaxAttempts:
		return "輪詢節拍上限"
	case FieldCloneDepth:
		return "git 克隆深度 (0 為完整歷史)"
	default:
		return ""
	}
}

// ConfigState 配置的內存副本與編輯狀態
type ConfigState struct {
	Config            *domainConfig.Config
	Editing           SettingsField // 正在編輯的設定項
	ExitConfirmMode   bool          // 有未保存修改時的退出確認
	HasUnsavedChanges bool          // 內存中有尚未落盤的修改
}

// NewConfigState 構造函數
func NewConfigState(cfg *domainConfig.Config) *ConfigState {
	if cfg == nil {
		cfg = domainConfig.DefaultConfig()
	}
	return &ConfigState{
		Config:  cfg,
		Editing: FieldNone,
	}
}

// GetConfig 獲取配置
func (s *ConfigState) GetConfig() *domainConfig.Config {
	if s.Config == nil {
		s.Config = domainConfig.DefaultConfig()
	}
	return s.Config
}

// UpdateConfig 更新配置 (從磁盤加載或保存成功後調用)
func (s *ConfigState) UpdateConfig(cfg *domainConfig.Config) {
	if cfg == nil {
		cfg = domainConfig.DefaultConfig()
	}
	s.Config = cfg
	s.Editing = FieldNone
	s.ExitConfirmMode = false
	s.HasUnsavedChanges = false
}

// MarkUnsaved 記錄一次內存修改
func (s *ConfigState) MarkUnsaved() {
	s.HasUnsavedChanges = true
}

// FieldValue 取字段當前值的字符串形式，供設定視圖回顯
func (s *ConfigState) FieldValue(f SettingsField) string {
	cfg := s.GetConfig()
	switch f {
	case FieldWorkspaceDir:
		return cfg.Workspace.Dir
	case FieldBootstrapVersion:
		return cfg.Suite.BootstrapVersion
	case FieldCoreRepo:
		return s.PackageRepo("lumen-core")
	case FieldAssetsRepo:
		return s.PackageRepo("lumen-assets")
	case FieldTickInterval:
		return strconv.Itoa(cfg.Resolve.TickIntervalMS)
	case FieldSettleThreshold:
		return strconv.Itoa(cfg.Resolve.SettleThreshold)
	case FieldMaxAttempts:
		return strconv.Itoa(cfg.Resolve.MaxAttempts)
	case FieldCloneDepth:
		return strconv.Itoa(cfg.Git.CloneDepth)
	default:
		return ""
	}
}

// PackageRepo 按套件名取倉庫地址，找不到返回空串
func (s *ConfigState) PackageRepo(name string) string {
	for _, pkg := range s.GetConfig().Suite.Packages {
		if pkg.Name == name {
			return pkg.RepoURL
		}
	}
	return ""
}

// SetPackageRepo 按套件名寫倉庫地址，套件不存在時追加一條
func (s *ConfigState) SetPackageRepo(name, url string) {
	cfg := s.GetConfig()
	for i := range cfg.Suite.Packages {
		if cfg.Suite.Packages[i].Name == name {
			cfg.Suite.Packages[i].RepoURL = url
			return
		}
	}
	cfg.Suite.Packages = append(cfg.Suite.Packages, domainConfig.PackageConfig{Name: name, RepoURL: url})
}
