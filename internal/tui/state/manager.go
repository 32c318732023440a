package state

import (
	domainConfig "github.com/Yat-Muk/lumen/internal/domain/config"
	"go.uber.org/zap"
)

// Config 初始化配置
type Config struct {
	Log           *zap.Logger
	InitialConfig *domainConfig.Config
	AppVersion    string
}

// Manager 狀態管理器 (State Container)
type Manager struct {
	log *zap.Logger

	// 各個子狀態模塊
	ui        *UIState
	config    *ConfigState
	env       *EnvState
	install   *InstallState
	backup    *BackupState
	uninstall *UninstallState

	appVersion string
}

// NewManager 創建狀態管理器
func NewManager(cfg *Config) *Manager {
	m := &Manager{
		log:        cfg.Log,
		appVersion: cfg.AppVersion,
	}

	// 初始化各個子狀態
	m.ui = NewUIState()
	m.config = NewConfigState(cfg.InitialConfig)
	m.env = NewEnvState()
	m.install = NewInstallState()
	m.backup = NewBackupState()
	m.uninstall = NewUninstallState()

	return m
}

// Getters 訪問器

func (m *Manager) UI() *UIState               { return m.ui }
func (m *Manager) Config() *ConfigState       { return m.config }
func (m *Manager) Env() *EnvState             { return m.env }
func (m *Manager) Install() *InstallState     { return m.install }
func (m *Manager) Backup() *BackupState       { return m.backup }
func (m *Manager) Uninstall() *UninstallState { return m.uninstall }
