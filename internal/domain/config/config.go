package config

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Yat-Muk/lumen/internal/domain/install"
	"github.com/Yat-Muk/lumen/internal/domain/validator"
	"github.com/Yat-Muk/lumen/internal/pkg/crypto"
)

// Repository 配置倉庫接口
type Repository interface {
	// Load 加載配置
	Load(ctx context.Context) (*Config, error)

	// Save 保存配置
	Save(ctx context.Context, cfg *Config) error
}

// Config 主配置結構
type Config struct {
	Version   int             `yaml:"version"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Suite     SuiteConfig     `yaml:"suite"`
	Git       GitConfig       `yaml:"git"`
	Resolve   ResolveConfig   `yaml:"resolve"`
	Progress  ProgressConfig  `yaml:"progress"`
	Log       LogConfig       `yaml:"log"`
	Backup    BackupConfig    `yaml:"backup"`
}

// WorkspaceConfig 目標工作區配置
type WorkspaceConfig struct {
	Dir string `yaml:"dir"` // 工作區根目錄，安裝嚮導可覆蓋
}

// SuiteConfig 套件來源配置
type SuiteConfig struct {
	BootstrapID      string          `yaml:"bootstrap_id"`      // 清單依賴鍵
	BootstrapVersion string          `yaml:"bootstrap_version"` // 清單依賴值
	InstallerModule  string          `yaml:"installer_module"`  // 次級安裝器模組名
	Packages         []PackageConfig `yaml:"packages"`          // 需要克隆的套件倉庫
}

// PackageConfig 單個套件倉庫
type PackageConfig struct {
	Name    string `yaml:"name"`             // 落地目錄名
	RepoURL string `yaml:"repo_url"`         // 倉庫地址
	Branch  string `yaml:"branch,omitempty"` // 可選分支
}

// GitConfig git 執行配置
type GitConfig struct {
	Binary         string `yaml:"binary"`                 // git 可執行名
	AccessToken    string `yaml:"access_token,omitempty"` // 私有倉庫憑證，落盤加密
	CloneDepth     int    `yaml:"clone_depth"`            // 淺克隆深度，0 表示完整歷史
	TimeoutSeconds int    `yaml:"timeout_seconds"`        // 單次克隆的超時
}

// CloneTimeout 克隆超時時長
func (g GitConfig) CloneTimeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// ResolveConfig 等待宿主 resolve 的輪詢配置
type ResolveConfig struct {
	TickIntervalMS  int   `yaml:"tick_interval_ms"` // 輪詢節拍間隔
	SettleThreshold int   `yaml:"settle_threshold"` // 推定安定所需節拍數
	MaxAttempts     int   `yaml:"max_attempts"`     // 節拍硬上限
	RetryBackoffMS  []int `yaml:"retry_backoff_ms"` // 模組查找失敗後各輪重試的退避
}

// TickInterval 節拍間隔時長
func (r ResolveConfig) TickInterval() time.Duration {
	if r.TickIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(r.TickIntervalMS) * time.Millisecond
}

// RetryBackoff 第 cycle 輪重試前的退避時長（cycle 從 1 開始）
func (r ResolveConfig) RetryBackoff(cycle int) time.Duration {
	if cycle < 1 || len(r.RetryBackoffMS) == 0 {
		return 2 * time.Second
	}
	idx := cycle - 1
	if idx >= len(r.RetryBackoffMS) {
		idx = len(r.RetryBackoffMS) - 1
	}
	return time.Duration(r.RetryBackoffMS[idx]) * time.Millisecond
}

// MaxRetryCycles 模組查找的最大重試輪數
func (r ResolveConfig) MaxRetryCycles() int {
	return len(r.RetryBackoffMS)
}

// BandConfig 單個階段的進度區段
type BandConfig struct {
	Base float64 `yaml:"base"`
	Span float64 `yaml:"span"`
}

// ProgressConfig 各階段在整體進度軸上的區段分配
// 各階段耗時並不均勻，比例是配置而不是代碼常量
type ProgressConfig struct {
	CheckEnvironment  BandConfig `yaml:"check_environment"`
	RegisterBootstrap BandConfig `yaml:"register_bootstrap"`
	DownloadCore      BandConfig `yaml:"download_core"`
	DownloadAssets    BandConfig `yaml:"download_assets"`
	LaunchInstaller   BandConfig `yaml:"launch_installer"`
	RunInstall        BandConfig `yaml:"run_install"`
}

// Bands 轉換為安裝追蹤器使用的區段表
func (p ProgressConfig) Bands() install.Bands {
	return install.Bands{
		install.StepCheckEnvironment:         {Base: p.CheckEnvironment.Base, Span: p.CheckEnvironment.Span},
		install.StepDownloadPackage:          {Base: p.RegisterBootstrap.Base, Span: p.RegisterBootstrap.Span},
		install.StepInstallSecondaryA:        {Base: p.DownloadCore.Base, Span: p.DownloadCore.Span},
		install.StepInstallSecondaryB:        {Base: p.DownloadAssets.Base, Span: p.DownloadAssets.Span},
		install.StepLaunchSecondaryInstaller: {Base: p.LaunchInstaller.Base, Span: p.LaunchInstaller.Span},
		install.StepRunSecondaryInstall:      {Base: p.RunInstall.Base, Span: p.RunInstall.Span},
	}
}

// LogConfig 日誌配置
type LogConfig struct {
	Level      string `yaml:"level"`
	OutputPath string `yaml:"output_path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// BackupConfig 清單備份配置
type BackupConfig struct {
	Enabled  bool `yaml:"enabled"`   // 修改清單前是否自動備份
	MaxFiles int  `yaml:"max_files"` // 最大保留備份數
}

// DefaultConfig 默認配置
func DefaultConfig() *Config {
	return &Config{
		Version: ConfigVersionLatest,
		Workspace: WorkspaceConfig{
			Dir: "",
		},
		Suite: SuiteConfig{
			BootstrapID:      "com.lumen.bootstrap",
			BootstrapVersion: "1.4.0",
			InstallerModule:  "Lumen.Suite.Installer",
			Packages: []PackageConfig{
				{Name: "lumen-core", RepoURL: "https://github.com/Yat-Muk/lumen-core.git"},
				{Name: "lumen-assets", RepoURL: "https://github.com/Yat-Muk/lumen-assets.git"},
			},
		},
		Git: GitConfig{
			Binary:         "git",
			CloneDepth:     1,
			TimeoutSeconds: 300,
		},
		Resolve: ResolveConfig{
			TickIntervalMS:  500,
			SettleThreshold: 10,
			MaxAttempts:     40,
			RetryBackoffMS:  []int{2000, 5000, 10000},
		},
		Progress: ProgressConfig{
			CheckEnvironment:  BandConfig{Base: 0.00, Span: 0.05},
			RegisterBootstrap: BandConfig{Base: 0.05, Span: 0.15},
			DownloadCore:      BandConfig{Base: 0.20, Span: 0.25},
			DownloadAssets:    BandConfig{Base: 0.45, Span: 0.25},
			LaunchInstaller:   BandConfig{Base: 0.70, Span: 0.05},
			RunInstall:        BandConfig{Base: 0.75, Span: 0.25},
		},
		Log: LogConfig{
			Level:      "info",
			OutputPath: "", // 留空則由啟動流程按運行環境補全
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
		Backup: BackupConfig{
			Enabled:  true,
			MaxFiles: 30,
		},
	}
}

// Validate 驗證配置
func (c *Config) Validate() error {
	if c.Suite.BootstrapID == "" || !validator.ValidateManifestID(c.Suite.BootstrapID) {
		return fmt.Errorf("無效的清單依賴鍵: %q", c.Suite.BootstrapID)
	}
	if c.Suite.BootstrapVersion == "" {
		return fmt.Errorf("清單依賴版本不能為空")
	}
	if !validator.ValidateModuleName(c.Suite.InstallerModule) {
		return fmt.Errorf("無效的次級安裝器模組名: %q", c.Suite.InstallerModule)
	}
	if len(c.Suite.Packages) == 0 {
		return fmt.Errorf("至少需要一個套件倉庫")
	}

	seen := make(map[string]bool, len(c.Suite.Packages))
	for _, pkg := range c.Suite.Packages {
		if err := validator.ValidatePackageName(pkg.Name); err != nil {
			return fmt.Errorf("套件 %q: %w", pkg.Name, err)
		}
		if !validator.ValidateRepoURL(pkg.RepoURL) {
			return fmt.Errorf("套件 %q 的倉庫地址無效: %q", pkg.Name, pkg.RepoURL)
		}
		if seen[pkg.Name] {
			return fmt.Errorf("套件名重複: %q", pkg.Name)
		}
		seen[pkg.Name] = true
	}

	if c.Git.Binary == "" {
		return fmt.Errorf("git 可執行名不能為空")
	}
	if c.Resolve.SettleThreshold <= 0 || c.Resolve.MaxAttempts <= 0 {
		return fmt.Errorf("輪詢節拍配置必須為正數")
	}

	if err := c.Progress.Bands().Validate(); err != nil {
		return fmt.Errorf("進度區段配置無效: %w", err)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("無效的日誌級別: %q", c.Log.Level)
	}

	return nil
}

// DeepCopy 深拷貝配置（序列化回環策略）
// Marshal -> Unmarshal 自動覆蓋所有切片與嵌套結構，新增字段零維護
func (c *Config) DeepCopy() *Config {
	if c == nil {
		return nil
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		// Config 內只有可序列化字段，失敗意味着嚴重編程錯誤
		panic(fmt.Errorf("DeepCopy 序列化失敗 (這是一個 Bug): %w", err))
	}

	var newCfg Config
	if err := yaml.Unmarshal(data, &newCfg); err != nil {
		panic(fmt.Errorf("DeepCopy 反序列化失敗 (這是一個 Bug): %w", err))
	}

	return &newCfg
}

// FillDefaults 補全留空的可選字段
func (c *Config) FillDefaults() {
	def := DefaultConfig()

	if c.Git.Binary == "" {
		c.Git.Binary = def.Git.Binary
	}
	if c.Git.TimeoutSeconds <= 0 {
		c.Git.TimeoutSeconds = def.Git.TimeoutSeconds
	}
	if c.Resolve.TickIntervalMS <= 0 {
		c.Resolve.TickIntervalMS = def.Resolve.TickIntervalMS
	}
	if c.Resolve.SettleThreshold <= 0 {
		c.Resolve.SettleThreshold = def.Resolve.SettleThreshold
	}
	if c.Resolve.MaxAttempts <= 0 {
		c.Resolve.MaxAttempts = def.Resolve.MaxAttempts
	}
	if len(c.Resolve.RetryBackoffMS) == 0 {
		c.Resolve.RetryBackoffMS = append([]int(nil), def.Resolve.RetryBackoffMS...)
	}
	if (c.Progress == ProgressConfig{}) {
		c.Progress = def.Progress
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.MaxSize <= 0 {
		c.Log.MaxSize = def.Log.MaxSize
	}
	if c.Backup.MaxFiles <= 0 {
		c.Backup.MaxFiles = def.Backup.MaxFiles
	}
}

// EncryptSensitiveFields 加密所有敏感字段
func (c *Config) EncryptSensitiveFields(encryptor *crypto.Encryptor) error {
	if encryptor == nil {
		return nil
	}

	if c.Git.AccessToken != "" && !crypto.IsEncrypted(c.Git.AccessToken) {
		encrypted, err := encryptor.Encrypt(c.Git.AccessToken)
		if err != nil {
			return fmt.Errorf("加密 git 憑證失敗: %w", err)
		}
		c.Git.AccessToken = encrypted
	}

	return nil
}

// DecryptSensitiveFields 解密所有敏感字段
func (c *Config) DecryptSensitiveFields(encryptor *crypto.Encryptor) error {
	if encryptor == nil {
		return nil
	}

	if crypto.IsEncrypted(c.Git.AccessToken) {
		decrypted, err := encryptor.Decrypt(c.Git.AccessToken)
		if err != nil {
			return fmt.Errorf("解密 git 憑證失敗: %w", err)
		}
		c.Git.AccessToken = decrypted
	}

	return nil
}
