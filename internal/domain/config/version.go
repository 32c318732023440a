package config

import (
	"fmt"

	"github.com/Yat-Muk/lumen/internal/domain/validator"
)

const (
	// ConfigVersionLatest 最新配置版本
	ConfigVersionLatest = 2

	// ConfigVersionV1 V1 版本（舊版，輪詢參數硬編碼、單倉庫字段）
	ConfigVersionV1 = 1
)

// Migrator 配置遷移器
type Migrator struct{}

// NewMigrator 創建遷移器
func NewMigrator() *Migrator {
	return &Migrator{}
}

// MigrateToLatest 自動遷移到最新版本
func (m *Migrator) MigrateToLatest(cfg *Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置為空，無法遷移")
	}

	// 已經是最新版本
	if cfg.Version == ConfigVersionLatest {
		return cfg, nil
	}

	// V1 -> V2
	if cfg.Version == ConfigVersionV1 || cfg.Version == 0 {
		return m.migrateV1ToV2(cfg)
	}

	// 未來版本降級（例如從 V3 回退到 V2）
	if cfg.Version > ConfigVersionLatest {
		return nil, fmt.Errorf("配置版本過高 (v%d)，當前程序僅支持 v%d", cfg.Version, ConfigVersionLatest)
	}

	return cfg, nil
}

// migrateV1ToV2 V1 -> V2 遷移邏輯
func (m *Migrator) migrateV1ToV2(oldCfg *Config) (*Config, error) {
	newCfg := *oldCfg // 淺拷貝
	newCfg.Version = ConfigVersionLatest

	def := DefaultConfig()

	// 1. V1 沒有 resolve 輪詢段，整段補默認值
	if newCfg.Resolve.SettleThreshold <= 0 {
		newCfg.Resolve = def.Resolve
	}

	// 2. V1 沒有 progress 進度區段
	if (newCfg.Progress == ProgressConfig{}) {
		newCfg.Progress = def.Progress
	}

	// 3. 驗證並修復套件來源
	if newCfg.Suite.BootstrapID == "" || !validator.ValidateManifestID(newCfg.Suite.BootstrapID) {
		newCfg.Suite.BootstrapID = def.Suite.BootstrapID
		newCfg.Suite.BootstrapVersion = def.Suite.BootstrapVersion
	}
	if !validator.ValidateModuleName(newCfg.Suite.InstallerModule) {
		newCfg.Suite.InstallerModule = def.Suite.InstallerModule
	}
	if len(newCfg.Suite.Packages) == 0 {
		newCfg.Suite.Packages = append([]PackageConfig(nil), def.Suite.Packages...)
	}

	// 4. 驗證克隆超時範圍
	if newCfg.Git.TimeoutSeconds < 0 || newCfg.Git.TimeoutSeconds > 3600 {
		newCfg.Git.TimeoutSeconds = 0 // 標記為未設置，後續由 FillDefaults 補全
	}

	return &newCfg, nil
}

// NeedsMigration 檢查是否需要遷移
func (m *Migrator) NeedsMigration(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	return cfg.Version < ConfigVersionLatest
}

// GetMigrationPath 獲取遷移路徑描述
func (m *Migrator) GetMigrationPath(fromVersion int) string {
	if fromVersion >= ConfigVersionLatest {
		return "無需遷移"
	}

	if fromVersion == ConfigVersionV1 || fromVersion == 0 {
		return "V1 -> V2: 輪詢配置補全, 進度區段補全, 套件來源驗證"
	}

	return fmt.Sprintf("未知遷移路徑 (v%d -> v%d)", fromVersion, ConfigVersionLatest)
}
