package application

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/infra/backup"
	"github.com/Yat-Muk/lumen/internal/infra/git"
	"github.com/Yat-Muk/lumen/internal/infra/host"
	"github.com/Yat-Muk/lumen/internal/infra/manifest"
	"github.com/Yat-Muk/lumen/internal/infra/system"
	"github.com/Yat-Muk/lumen/internal/pkg/appctx"
	"github.com/Yat-Muk/lumen/internal/pkg/errors"
	"github.com/Yat-Muk/lumen/internal/suite"
)

// EnvCheck 安裝前環境檢查的彙總結果
// 阻斷性問題以錯誤返回；結果本身在出錯時依然有效，檢查視圖據此完整展示
type EnvCheck struct {
	Report           *system.EnvReport
	ManifestPresent  bool
	AlreadyInstalled bool // 鎖定文件與清單依賴同時存在
}

// InstallService 安裝流程的 I/O 編排
// 只做動作與事實採集；階段推進、進度歸屬與重試節奏由 TUI 調度循環決定
type InstallService struct {
	inspector *system.Inspector
	editor    manifest.Editor
	hostCli   host.Client
	gitRunner git.Runner
	registry  *suite.Registry
	backupMgr *backup.Manager
	logger    *zap.Logger
}

// NewInstallService 創建安裝服務
func NewInstallService(
	inspector *system.Inspector,
	editor manifest.Editor,
	hostCli host.Client,
	gitRunner git.Runner,
	registry *suite.Registry,
	backupMgr *backup.Manager,
	logger *zap.Logger,
) *InstallService {
	return &InstallService{
		inspector: inspector,
		editor:    editor,
		hostCli:   hostCli,
		gitRunner: gitRunner,
		registry:  registry,
		backupMgr: backupMgr,
		logger:    logger,
	}
}

// CheckEnvironment 檢查安裝環境
// git 缺失 (ENV002) 與工作區形狀不對 (ENV003) 是阻斷性錯誤；
// 套件已安裝不是錯誤，以 AlreadyInstalled 標記返回，調用方據此跳過後續階段
func (s *InstallService) CheckEnvironment(ctx context.Context, cfg *config.Config, ws *appctx.WorkspacePaths) (*EnvCheck, error) {
	s.logger.Info("開始環境檢查", zap.String("workspace", ws.Root))

	report, err := s.inspector.Inspect(ctx, cfg.Git.Binary, ws.Root)
	if err != nil {
		return nil, fmt.Errorf("環境探測失敗: %w", err)
	}

	check := &EnvCheck{Report: report}
	if _, err := os.Stat(ws.ManifestFile); err == nil {
		check.ManifestPresent = true
	}

	// 1. git 必須可用
	if !report.GitFound() {
		return check, errors.Wrap(errors.ErrGitNotFound, "ENV002",
			fmt.Sprintf("找不到 git 可執行文件 %q", cfg.Git.Binary))
	}

	// 2. 工作區必須是宿主工具認識的形狀
	if info, err := os.Stat(ws.PackagesDir); err != nil || !info.IsDir() {
		return check, errors.Wrap(errors.ErrWorkspaceInvalid, "ENV003",
			fmt.Sprintf("工作區缺少 packages 目錄: %s", ws.PackagesDir))
	}
	if !check.ManifestPresent {
		return check, errors.Wrap(errors.ErrWorkspaceInvalid, "ENV003",
			fmt.Sprintf("工作區缺少依賴清單: %s", ws.ManifestFile))
	}
	if !report.Writable {
		return check, errors.Wrap(errors.ErrWorkspaceInvalid, "ENV003", "工作區目錄不可寫")
	}

	// 3. 已安裝檢測 (ENV001：跳過，不是錯誤)
	check.AlreadyInstalled = s.detectInstalled(cfg, ws)
	if check.AlreadyInstalled {
		s.logger.Info("環境已滿足，無需安裝",
			zap.String("code", "ENV001"),
			zap.String("id", cfg.Suite.BootstrapID),
		)
		return check, nil
	}

	s.logger.Info("環境檢查通過",
		zap.String("git", report.GitVersion),
		zap.String("disk_free", system.FormatBytes(report.DiskFree)),
	)
	return check, nil
}

// detectInstalled 鎖定文件在且清單裏有引導依賴才算已安裝
// 只剩其中之一視爲殘留，照常走安裝流程自愈（補丁冪等、克隆跳過已有倉庫）
func (s *InstallService) detectInstalled(cfg *config.Config, ws *appctx.WorkspacePaths) bool {
	if _, err := os.Stat(suite.LockPath(ws)); err != nil {
		return false
	}
	data, err := os.ReadFile(ws.ManifestFile)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "\""+cfg.Suite.BootstrapID+"\"")
}

// RegisterBootstrap 把引導依賴寫進清單並觸發宿主解析
// 返回清單是否被實際改動（依賴已存在時為 false）；改動前先做清單備份
func (s *InstallService) RegisterBootstrap(ctx context.Context, cfg *config.Config, ws *appctx.WorkspacePaths, runID string) (bool, error) {
	if s.backupMgr != nil && cfg.Backup.Enabled {
		if err := s.backupMgr.Backup(ws.ManifestFile, "pre-install"); err != nil {
			s.logger.Warn("清單備份失敗，繼續安裝", zap.Error(err))
		}
	}

	patched, err := s.editor.Patch(ctx, ws.ManifestFile, cfg.Suite.BootstrapID, cfg.Suite.BootstrapVersion)
	if err != nil {
		return false, err
	}

	if patched {
		s.logger.Info("清單已寫入引導依賴",
			zap.String("id", cfg.Suite.BootstrapID),
			zap.String("version", cfg.Suite.BootstrapVersion),
		)
	} else {
		s.logger.Info("引導依賴已存在，清單未改動", zap.String("id", cfg.Suite.BootstrapID))
	}

	// 解析是射後不理的：就緒與否由輪詢觀察 modules.json 得知
	if err := s.hostCli.Resolve(ctx, ws, runID); err != nil {
		return patched, fmt.Errorf("觸發宿主解析失敗: %w", err)
	}

	return patched, nil
}

// ClonePackage 克隆一個套件倉庫到工作區，目標已是 git 倉庫時跳過
// 返回套件的落地目錄
func (s *InstallService) ClonePackage(ctx context.Context, cfg *config.Config, ws *appctx.WorkspacePaths, pkg config.PackageConfig) (string, error) {
	target := ws.PackageDir(pkg.Name)

	if s.gitRunner.IsRepo(target) {
		s.logger.Info("套件目錄已是 git 倉庫，跳過克隆",
			zap.String("package", pkg.Name),
			zap.String("dir", target),
		)
		return target, nil
	}

	opts := git.Options{
		Binary:      cfg.Git.Binary,
		CloneDepth:  cfg.Git.CloneDepth,
		Timeout:     cfg.Git.CloneTimeout(),
		AccessToken: cfg.Git.AccessToken,
	}
	if err := s.gitRunner.Clone(ctx, opts, pkg.RepoURL, pkg.Branch, target); err != nil {
		return target, err
	}

	s.logger.Info("套件克隆完成", zap.String("package", pkg.Name))
	return target, nil
}

// LookupInstaller 查找已註冊且被宿主解析的次級安裝器
// 未解析 (REG001, ErrModuleUnresolved) 屬於可重試錯誤，由調度層驅動下一輪輪詢
func (s *InstallService) LookupInstaller(ctx context.Context, ws *appctx.WorkspacePaths, moduleName string) (suite.Installer, error) {
	inst, err := s.registry.Lookup(ctx, ws, moduleName)
	if err != nil {
		s.logger.Debug("次級安裝器查找未命中",
			zap.String("module", moduleName),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("次級安裝器就緒", zap.String("module", moduleName))
	return inst, nil
}

// RunSecondary 把控制權交給次級安裝器，步驟碼經 report 流回調度層
// 任何失敗都歸入 RUN001；成功以安裝器自己上報的完成碼爲準
func (s *InstallService) RunSecondary(ctx context.Context, ws *appctx.WorkspacePaths, inst suite.Installer, report suite.ReportFunc) error {
	if inst == nil {
		return errors.Wrap(errors.ErrHandoffFailed, "RUN001", "次級安裝器不可用")
	}

	s.logger.Info("移交次級安裝器", zap.String("module", inst.Name()))

	if err := inst.Run(ctx, ws, report); err != nil {
		if errors.CodeOf(err) == "" {
			err = errors.Wrap(err, "RUN001", "次級安裝器執行失敗")
		}
		s.logger.Error("次級安裝器執行失敗", zap.Error(err))
		return err
	}
	return nil
}
