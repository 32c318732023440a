package handlers

import (
	"github.com/Yat-Muk/lumen/internal/application"
	"github.com/Yat-Muk/lumen/internal/infra/backup"
	"github.com/Yat-Muk/lumen/internal/pkg/appctx"
	"github.com/Yat-Muk/lumen/internal/tui/state"
	"go.uber.org/zap"
)

// Config 用於初始化 Handlers 的配置結構體
type Config struct {
	Log          *zap.Logger
	StateMgr     *state.Manager
	ConfigSvc    *application.ConfigService
	InstallSvc   *application.InstallService
	UninstallSvc *application.UninstallService
	BackupMgr    *backup.Manager
	Paths        *appctx.Paths
}
