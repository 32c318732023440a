package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/infra/backup"
	"github.com/Yat-Muk/lumen/internal/infra/host"
	"github.com/Yat-Muk/lumen/internal/infra/manifest"
	"github.com/Yat-Muk/lumen/internal/pkg/appctx"
	"github.com/Yat-Muk/lumen/internal/pkg/errors"
	"github.com/Yat-Muk/lumen/internal/suite"
)

// UninstallReport 卸載各動作的結果彙總
// 卸載是盡力而為的：單個動作失敗不中斷其餘動作，失敗進 Problems
type UninstallReport struct {
	ManifestRemoved bool     // 清單裏的引導依賴被移除
	HostNotified    bool     // 宿主的模組記錄被移除
	RemovedDirs     []string // 實際刪除的套件目錄
	LockRemoved     bool
	Problems        []string
}

// Clean 是否全部動作都成功
func (r *UninstallReport) Clean() bool {
	return len(r.Problems) == 0
}

// UninstallService 卸載服務
type UninstallService struct {
	editor    manifest.Editor
	hostCli   host.Client
	backupMgr *backup.Manager
	logger    *zap.Logger
}

// NewUninstallService 創建卸載服務
func NewUninstallService(
	editor manifest.Editor,
	hostCli host.Client,
	backupMgr *backup.Manager,
	logger *zap.Logger,
) *UninstallService {
	return &UninstallService{
		editor:    editor,
		hostCli:   hostCli,
		backupMgr: backupMgr,
		logger:    logger,
	}
}

// Uninstall 移除套件的全部痕跡：清單依賴、宿主模組記錄、克隆目錄、鎖定文件
// 每個動作單獨記錄，不做任何靜默恢復
func (s *UninstallService) Uninstall(ctx context.Context, cfg *config.Config, ws *appctx.WorkspacePaths) (*UninstallReport, error) {
	if cfg == nil || ws == nil {
		return nil, fmt.Errorf("卸載參數不完整")
	}

	report := &UninstallReport{}
	s.logger.Info("開始卸載 Lumen 套件", zap.String("workspace", ws.Root))

	// 1. 備份後移除清單依賴
	if s.backupMgr != nil && cfg.Backup.Enabled {
		if err := s.backupMgr.Backup(ws.ManifestFile, "pre-uninstall"); err != nil {
			s.logger.Warn("清單備份失敗", zap.Error(err))
		}
	}

	removed, err := s.editor.Remove(ctx, ws.ManifestFile, cfg.Suite.BootstrapID)
	switch {
	case err != nil && stderrors.Is(err, errors.ErrManifestNotFound):
		// 清單都不在了，沒有依賴可移除
		s.logger.Warn("依賴清單不存在，跳過清單修改", zap.String("path", ws.ManifestFile))
	case err != nil:
		s.problem(report, "移除清單依賴失敗", err)
	case removed:
		report.ManifestRemoved = true
		s.logger.Info("清單依賴已移除", zap.String("id", cfg.Suite.BootstrapID))
	default:
		s.logger.Info("清單中沒有引導依賴，跳過")
	}

	// 2. 通知宿主移除模組記錄（同步調用，可能失敗）
	if err := s.hostCli.Remove(ctx, ws, cfg.Suite.BootstrapID); err != nil {
		s.problem(report, "宿主模組記錄移除失敗", err)
	} else {
		report.HostNotified = true
	}

	// 3. 刪除克隆的套件目錄
	for _, pkg := range cfg.Suite.Packages {
		dir := ws.PackageDir(pkg.Name)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			s.problem(report, fmt.Sprintf("刪除套件目錄 %s 失敗", pkg.Name), err)
			continue
		}
		report.RemovedDirs = append(report.RemovedDirs, dir)
		s.logger.Info("套件目錄已刪除", zap.String("dir", dir))
	}

	// 4. 清理鎖定文件與交接文件
	if err := os.Remove(suite.LockPath(ws)); err == nil {
		report.LockRemoved = true
	} else if !os.IsNotExist(err) {
		s.problem(report, "刪除鎖定文件失敗", err)
	}
	if err := os.Remove(ws.ResolveRequest); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("刪除交接文件失敗", zap.Error(err))
	}

	s.logger.Info("卸載完成",
		zap.Bool("clean", report.Clean()),
		zap.Int("removed_dirs", len(report.RemovedDirs)),
	)
	return report, nil
}

func (s *UninstallService) problem(report *UninstallReport, msg string, err error) {
	report.Problems = append(report.Problems, fmt.Sprintf("%s: %v", msg, err))
	s.logger.Error(msg, zap.Error(err))
}
