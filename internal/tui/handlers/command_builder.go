package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Yat-Muk/lumen/internal/application"
	domainConfig "github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/infra/backup"
	"github.com/Yat-Muk/lumen/internal/infra/system"
	"github.com/Yat-Muk/lumen/internal/pkg/appctx"
	"github.com/Yat-Muk/lumen/internal/pkg/version"
	"github.com/Yat-Muk/lumen/internal/suite"
	"github.com/Yat-Muk/lumen/internal/tui/msg"
	"github.com/Yat-Muk/lumen/internal/tui/state"
	"github.com/Yat-Muk/lumen/internal/tui/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 各類命令的超時，安裝序列中的克隆超時由配置決定
const (
	configTimeout    = 5 * time.Second
	envCheckTimeout  = 15 * time.Second
	registerTimeout  = 30 * time.Second
	lookupTimeout    = 5 * time.Second
	secondaryTimeout = 10 * time.Minute
	uninstallTimeout = 60 * time.Second
	updateTimeout    = 8 * time.Second
)

type CommandBuilder struct {
	log          *zap.Logger
	stateMgr     *state.Manager
	configSvc    *application.ConfigService
	installSvc   *application.InstallService
	uninstallSvc *application.UninstallService
	backupMgr    *backup.Manager
	paths        *appctx.Paths
}

// NewCommandBuilder 構造函數
func NewCommandBuilder(
	log *zap.Logger,
	stateMgr *state.Manager,
	configSvc *application.ConfigService,
	installSvc *application.InstallService,
	uninstallSvc *application.UninstallService,
	backupMgr *backup.Manager,
	paths *appctx.Paths,
) *CommandBuilder {
	return &CommandBuilder{
		log:          log,
		stateMgr:     stateMgr,
		configSvc:    configSvc,
		installSvc:   installSvc,
		uninstallSvc: uninstallSvc,
		backupMgr:    backupMgr,
		paths:        paths,
	}
}

// workspacePaths 由當前配置推導工作區路徑
// 每次構建命令時重新推導，設定頁修改的目錄即時生效
func (b *CommandBuilder) workspacePaths(cfg *domainConfig.Config) (*appctx.WorkspacePaths, error) {
	return appctx.NewWorkspacePaths(cfg.Workspace.Dir)
}

// ========================================
// 配置命令
// ========================================

// LoadConfigCmd 加載配置
func (b *CommandBuilder) LoadConfigCmd(m *state.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), configTimeout)
		defer cancel()

		if b.configSvc == nil {
			return msg.ConfigLoadedMsg{Err: fmt.Errorf("ConfigService 未初始化")}
		}

		cfg, err := b.configSvc.GetConfig(ctx)
		return msg.ConfigLoadedMsg{Config: cfg, Err: err}
	}
}

// LoadConfigSilentCmd 靜默加載配置，保存成功後刷新狀態用
func (b *CommandBuilder) LoadConfigSilentCmd(m *state.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), configTimeout)
		defer cancel()

		cfg, err := b.configSvc.GetConfig(ctx)
		if err != nil {
			return msg.ConfigLoadedMsg{Err: err, Silent: true}
		}

		return msg.ConfigLoadedMsg{Config: cfg, Silent: true}
	}
}

// SaveConfigCmd 將設定頁的修改寫入配置文件
// 合併與驗證都在服務裏完成，未通過驗證的表單不會落盤
func (b *CommandBuilder) SaveConfigCmd(m *state.Manager) tea.Cmd {
	cfg := m.Config().GetConfig()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), configTimeout)
		defer cancel()

		if _, err := b.configSvc.ApplySettings(ctx, cfg); err != nil {
			return msg.ConfigUpdateMsg{Err: err}
		}

		return msg.ConfigUpdateMsg{Applied: true, Message: "設定已保存"}
	}
}

// ========================================
// 環境檢查命令
// ========================================

// EnvCheckCmd 檢查主機與工作區環境
// forInstall 為 true 時結果驅動安裝序列，否則只更新檢查視圖
func (b *CommandBuilder) EnvCheckCmd(m *state.Manager, forInstall bool) tea.Cmd {
	cfg := m.Config().GetConfig()
	ws, wsErr := b.workspacePaths(cfg)

	return func() tea.Msg {
		if wsErr != nil {
			return msg.EnvCheckedMsg{Err: wsErr, ForInstall: forInstall}
		}

		ctx, cancel := context.WithTimeout(context.Background(), envCheckTimeout)
		defer cancel()

		check, err := b.installSvc.CheckEnvironment(ctx, cfg, ws)

		summary := types.EnvSummary{WorkspaceDir: ws.Root}
		if check != nil && check.Report != nil {
			rep := check.Report
			summary = types.EnvSummary{
				Checked:          true,
				Hostname:         rep.Hostname,
				OS:               rep.OS,
				Arch:             rep.Arch,
				Kernel:           rep.Kernel,
				GitFound:         rep.GitFound(),
				GitVersion:       rep.GitVersion,
				GitPath:          rep.GitPath,
				DiskTotal:        system.FormatBytes(rep.DiskTotal),
				DiskFree:         system.FormatBytes(rep.DiskFree),
				Writable:         rep.Writable,
				WorkspaceDir:     ws.Root,
				ManifestPresent:  check.ManifestPresent,
				AlreadyInstalled: check.AlreadyInstalled,
			}
		}

		return msg.EnvCheckedMsg{Summary: summary, Err: err, ForInstall: forInstall}
	}
}

// ========================================
// 安裝序列命令
// ========================================

// RegisterBootstrapCmd 把引導依賴寫入清單並觸發宿主解析
func (b *CommandBuilder) RegisterBootstrapCmd(m *state.Manager) tea.Cmd {
	cfg := m.Config().GetConfig()
	ws, wsErr := b.workspacePaths(cfg)

	return func() tea.Msg {
		if wsErr != nil {
			return msg.BootstrapRegisteredMsg{Err: wsErr}
		}

		ctx, cancel := context.WithTimeout(context.Background(), registerTimeout)
		defer cancel()

		runID := uuid.New().String()
		patched, err := b.installSvc.RegisterBootstrap(ctx, cfg, ws, runID)
		return msg.BootstrapRegisteredMsg{Patched: patched, Err: err}
	}
}

// ClonePackageCmd 克隆單個套件倉庫到工作區
func (b *CommandBuilder) ClonePackageCmd(m *state.Manager, pkg domainConfig.PackageConfig, index, total int) tea.Cmd {
	cfg := m.Config().GetConfig()
	ws, wsErr := b.workspacePaths(cfg)

	return func() tea.Msg {
		if wsErr != nil {
			return msg.PackageClonedMsg{Package: pkg.Name, Index: index, Total: total, Err: wsErr}
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Git.CloneTimeout())
		defer cancel()

		dir, err := b.installSvc.ClonePackage(ctx, cfg, ws, pkg)
		return msg.PackageClonedMsg{
			Package: pkg.Name,
			Dir:     dir,
			Index:   index,
			Total:   total,
			Err:     err,
		}
	}
}

// LookupInstallerCmd 在註冊表中查找次級安裝器
func (b *CommandBuilder) LookupInstallerCmd(m *state.Manager) tea.Cmd {
	cfg := m.Config().GetConfig()
	moduleName := cfg.Suite.InstallerModule
	ws, wsErr := b.workspacePaths(cfg)

	return func() tea.Msg {
		if wsErr != nil {
			return msg.RegistryLookupMsg{Err: wsErr}
		}

		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()

		inst, err := b.installSvc.LookupInstaller(ctx, ws, moduleName)
		return msg.RegistryLookupMsg{Installer: inst, Err: err}
	}
}

// StartSecondaryCmd 啟動次級安裝器
// 安裝器在獨立 goroutine 中運行，步驟碼經 ch 回流事件循環；
// 命令本身阻塞等待第一條消息，後續消息由 ListenSecondaryCmd 接力
func (b *CommandBuilder) StartSecondaryCmd(m *state.Manager, inst suite.Installer, ch chan tea.Msg) tea.Cmd {
	cfg := m.Config().GetConfig()
	ws, wsErr := b.workspacePaths(cfg)

	return func() tea.Msg {
		if wsErr != nil {
			return msg.SecondaryDoneMsg{Err: wsErr}
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), secondaryTimeout)
			defer cancel()

			err := b.installSvc.RunSecondary(ctx, ws, inst, func(code int, detail string) {
				ch <- msg.SecondaryStepMsg{Code: code, Detail: detail}
			})
			ch <- msg.SecondaryDoneMsg{Err: err}
		}()

		return <-ch
	}
}

// ListenSecondaryCmd 等待次級安裝器的下一條消息
func (b *CommandBuilder) ListenSecondaryCmd(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// ========================================
// 備份命令
// ========================================

// ListBackupsCmd 列出清單備份
func (b *CommandBuilder) ListBackupsCmd() tea.Cmd {
	return func() tea.Msg {
		files, err := b.backupMgr.List()
		if err != nil {
			return msg.BackupListMsg{Err: err}
		}

		entries := make([]types.BackupItem, 0, len(files))
		for _, f := range files {
			entries = append(entries, types.BackupItem{
				Name:     f.Name,
				Path:     f.Path,
				ModTime:  f.ModTime,
				Size:     f.Size,
				Verified: f.Verified,
			})
		}
		return msg.BackupListMsg{Entries: entries}
	}
}

// CreateBackupCmd 立即備份當前清單文件
func (b *CommandBuilder) CreateBackupCmd(m *state.Manager) tea.Cmd {
	cfg := m.Config().GetConfig()
	ws, wsErr := b.workspacePaths(cfg)

	return func() tea.Msg {
		if wsErr != nil {
			return msg.BackupCreateMsg{Err: wsErr}
		}

		if _, err := os.Stat(ws.ManifestFile); err != nil {
			return msg.BackupCreateMsg{Err: fmt.Errorf("清單文件不存在: %s", ws.ManifestFile)}
		}

		err := b.backupMgr.Backup(ws.ManifestFile, "manual")
		return msg.BackupCreateMsg{Name: "manifest.json", Err: err}
	}
}

// RestoreBackupCmd 將指定備份恢復到清單路徑
func (b *CommandBuilder) RestoreBackupCmd(m *state.Manager, name string) tea.Cmd {
	cfg := m.Config().GetConfig()
	ws, wsErr := b.workspacePaths(cfg)

	return func() tea.Msg {
		if wsErr != nil {
			return msg.BackupRestoreMsg{Name: name, Err: wsErr}
		}

		err := b.backupMgr.Restore(name, ws.ManifestFile)
		return msg.BackupRestoreMsg{Name: name, Err: err}
	}
}

// DeleteBackupCmd 刪除指定備份
func (b *CommandBuilder) DeleteBackupCmd(name string) tea.Cmd {
	return func() tea.Msg {
		err := b.backupMgr.Delete(name)
		return msg.BackupDeleteMsg{Name: name, Err: err}
	}
}

// ========================================
// 版本命令
// ========================================

// CheckUpdateCmd 查詢 GitHub 最新發佈標籤
func (b *CommandBuilder) CheckUpdateCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()

		latest, err := version.Latest(ctx)
		return msg.UpdateCheckedMsg{Latest: latest, Err: err}
	}
}

// ========================================
// 卸載命令
// ========================================

// UninstallScanCmd 掃描卸載前的現場情況
func (b *CommandBuilder) UninstallScanCmd(m *state.Manager) tea.Cmd {
	cfg := m.Config().GetConfig()
	ws, wsErr := b.workspacePaths(cfg)

	return func() tea.Msg {
		if wsErr != nil {
			return msg.UninstallInfoMsg{Err: wsErr}
		}

		info := &types.UninstallInfo{
			BootstrapID:  cfg.Suite.BootstrapID,
			ManifestPath: ws.ManifestFile,
		}

		if _, err := os.Stat(suite.LockPath(ws)); err == nil {
			info.LockPresent = true
		}

		// 不解析 JSON，僅探測依賴鍵是否出現在清單文本中
		manifestHasDep := false
		if data, err := os.ReadFile(ws.ManifestFile); err == nil {
			manifestHasDep = strings.Contains(string(data), `"`+cfg.Suite.BootstrapID+`"`)
		}
		info.Installed = manifestHasDep || info.LockPresent

		for _, pkg := range cfg.Suite.Packages {
			dir := ws.PackageDir(pkg.Name)
			if st, err := os.Stat(dir); err == nil && st.IsDir() {
				info.PackageDirs = append(info.PackageDirs, dir)
			}
		}

		if files, err := b.backupMgr.List(); err == nil {
			info.BackupCount = len(files)
		}

		return msg.UninstallInfoMsg{Info: info}
	}
}

// UninstallCmd 執行卸載
// 工作區清理交給服務層；本機數據（設定、備份、日誌）按
// 保留選項在這裏處理，每一步的結果都彙總進步驟列表
func (b *CommandBuilder) UninstallCmd(m *state.Manager) tea.Cmd {
	cfg := m.Config().GetConfig()
	ws, wsErr := b.workspacePaths(cfg)

	u := m.Uninstall()
	keepConfig := u.KeepConfig
	keepBackups := u.KeepBackups
	keepLogs := u.KeepLogs

	return func() tea.Msg {
		if wsErr != nil {
			return msg.UninstallCompleteMsg{Err: wsErr}
		}

		ctx, cancel := context.WithTimeout(context.Background(), uninstallTimeout)
		defer cancel()

		report, err := b.uninstallSvc.Uninstall(ctx, cfg, ws)

		var steps []types.UninstallStep
		if err != nil {
			steps = append(steps, types.UninstallStep{
				Name:    "卸載中止",
				Status:  "fail",
				Message: err.Error(),
			})
			return msg.UninstallCompleteMsg{Steps: steps, Err: err}
		}

		if report.ManifestRemoved {
			steps = append(steps, types.UninstallStep{Name: "移除清單引導依賴", Status: "ok"})
		} else {
			steps = append(steps, types.UninstallStep{
				Name:    "移除清單引導依賴",
				Status:  "skip",
				Message: "清單中未找到引導依賴",
			})
		}

		if report.HostNotified {
			steps = append(steps, types.UninstallStep{Name: "通知宿主工具撤銷解析", Status: "ok"})
		} else {
			steps = append(steps, types.UninstallStep{
				Name:    "通知宿主工具撤銷解析",
				Status:  "fail",
				Message: "宿主工具未能撤銷模組解析",
			})
		}

		if len(report.RemovedDirs) > 0 {
			steps = append(steps, types.UninstallStep{
				Name:    "刪除套件目錄",
				Status:  "ok",
				Message: fmt.Sprintf("共 %d 個", len(report.RemovedDirs)),
			})
		} else {
			steps = append(steps, types.UninstallStep{Name: "刪除套件目錄", Status: "skip", Message: "無套件目錄"})
		}

		if report.LockRemoved {
			steps = append(steps, types.UninstallStep{Name: "移除安裝鎖定文件", Status: "ok"})
		} else {
			steps = append(steps, types.UninstallStep{Name: "移除安裝鎖定文件", Status: "skip", Message: "鎖定文件不存在"})
		}

		for _, p := range report.Problems {
			steps = append(steps, types.UninstallStep{Name: "清理異常", Status: "fail", Message: p})
		}

		localOK := true
		steps = append(steps, b.removeLocalData(&localOK, keepConfig, keepBackups, keepLogs)...)

		success := report.Clean() && localOK
		return msg.UninstallCompleteMsg{Steps: steps, Success: success}
	}
}

// removeLocalData 按保留選項清理本機數據，返回對應的步驟記錄
func (b *CommandBuilder) removeLocalData(ok *bool, keepConfig, keepBackups, keepLogs bool) []types.UninstallStep {
	var steps []types.UninstallStep

	remove := func(name, path string, keep bool, removeAll bool) {
		if keep {
			steps = append(steps, types.UninstallStep{Name: name, Status: "skip", Message: "按選項保留"})
			return
		}

		var err error
		if removeAll {
			err = os.RemoveAll(path)
		} else {
			err = os.Remove(path)
		}

		if err != nil && !os.IsNotExist(err) {
			*ok = false
			steps = append(steps, types.UninstallStep{Name: name, Status: "fail", Message: err.Error()})
			return
		}
		steps = append(steps, types.UninstallStep{Name: name, Status: "ok"})
	}

	remove("刪除本機設定文件", b.paths.ConfigFile, keepConfig, false)
	remove("刪除清單備份目錄", b.paths.BackupDir, keepBackups, true)
	remove("刪除日誌目錄", b.paths.LogDir, keepLogs, true)

	return steps
}
