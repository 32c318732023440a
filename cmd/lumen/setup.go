package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Yat-Muk/lumen/internal/application"
	domainConfig "github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/infra/backup"
	infraConfig "github.com/Yat-Muk/lumen/internal/infra/config"
	"github.com/Yat-Muk/lumen/internal/infra/git"
	"github.com/Yat-Muk/lumen/internal/infra/host"
	"github.com/Yat-Muk/lumen/internal/infra/manifest"
	infraSystem "github.com/Yat-Muk/lumen/internal/infra/system"
	"github.com/Yat-Muk/lumen/internal/pkg/appctx"
	"github.com/Yat-Muk/lumen/internal/pkg/crypto"
	"github.com/Yat-Muk/lumen/internal/pkg/version"
	"github.com/Yat-Muk/lumen/internal/suite"
	"github.com/Yat-Muk/lumen/internal/tui/handlers"
	"github.com/Yat-Muk/lumen/internal/tui/state"
	"go.uber.org/zap"
)

type AppDependencies struct {
	Log            *zap.Logger
	Paths          *appctx.Paths
	Config         *domainConfig.Config
	InstallService *application.InstallService
	HandlerConfig  *handlers.Config
}

func initializeDependencies(log *zap.Logger, paths *appctx.Paths, workspaceOverride string) (*AppDependencies, error) {
	// ==========================================
	// 1. 基礎設施層 (Infrastructure Layer)
	// ==========================================

	executor := infraSystem.NewExecutor(log)
	inspector := infraSystem.NewInspector(executor, log)

	// 主密鑰供配置加密與備份校驗共用，LUMEN_MASTER_KEY 可整體覆蓋
	encryptor, err := crypto.NewEncryptor(filepath.Join(paths.DataDir, "master.key"))
	if err != nil {
		return nil, fmt.Errorf("初始化主密鑰失敗: %w", err)
	}

	configRepo := infraConfig.NewFileRepository(paths.ConfigFile, encryptor, log)

	// ==========================================
	// 2. 加載初始配置
	// ==========================================
	configSvc := application.NewConfigService(configRepo, log)

	initialConfig, err := configSvc.LoadWithMigration(context.Background())
	if err != nil {
		log.Warn("加載配置失敗，使用默認值", zap.Error(err))
		initialConfig = domainConfig.DefaultConfig()
	}
	if err := configSvc.SaveWithDefaults(context.Background(), initialConfig); err != nil {
		log.Warn("初始化保存配置失敗", zap.Error(err))
	}

	// -workspace 是會話級覆蓋：只改內存中的配置，不落盤
	if workspaceOverride != "" {
		initialConfig.Workspace.Dir = workspaceOverride
		log.Info("工作區目錄被命令行覆蓋", zap.String("dir", workspaceOverride))
	}

	// ==========================================
	// 3. 安裝基礎設施
	// ==========================================

	backupMgr, err := backup.NewManager(paths.BackupDir, encryptor, backup.RetentionPolicy{
		MaxFiles: initialConfig.Backup.MaxFiles,
	})
	if err != nil {
		return nil, fmt.Errorf("備份管理器初始化失敗: %w", err)
	}

	editor := manifest.NewFileEditor(log)
	hostCli := host.NewFileClient(log)
	gitRunner := git.NewCommandRunner(executor, log)

	registry := suite.NewRegistry(hostCli, log)
	bootstrap := suite.NewBootstrapInstaller(
		initialConfig.Suite.InstallerModule,
		packageNames(initialConfig),
		log,
	)
	if err := registry.Register(bootstrap); err != nil {
		return nil, fmt.Errorf("註冊引導安裝器失敗: %w", err)
	}

	// ==========================================
	// 4. 應用服務層 (Application Layer)
	// ==========================================

	installSvc := application.NewInstallService(inspector, editor, hostCli, gitRunner, registry, backupMgr, log)
	uninstallSvc := application.NewUninstallService(editor, hostCli, backupMgr, log)

	// ==========================================
	// 5. 狀態管理 (State Management)
	// ==========================================
	stateCfg := &state.Config{
		Log:           log,
		InitialConfig: initialConfig,
		AppVersion:    version.Short(),
	}
	stateMgr := state.NewManager(stateCfg)

	// ==========================================
	// 6. TUI Handler 配置
	// ==========================================
	handlerCfg := &handlers.Config{
		Log:          log,
		StateMgr:     stateMgr,
		ConfigSvc:    configSvc,
		InstallSvc:   installSvc,
		UninstallSvc: uninstallSvc,
		BackupMgr:    backupMgr,
		Paths:        paths,
	}

	return &AppDependencies{
		Log:            log,
		Paths:          paths,
		Config:         initialConfig,
		InstallService: installSvc,
		HandlerConfig:  handlerCfg,
	}, nil
}

// packageNames 取出配置中全部套件的落地目錄名
func packageNames(cfg *domainConfig.Config) []string {
	names := make([]string, 0, len(cfg.Suite.Packages))
	for _, p := range cfg.Suite.Packages {
		names = append(names, p.Name)
	}
	return names
}

// runEnvCheck 在終端直接輸出環境檢查報告，-check 模式用
func runEnvCheck(ctx context.Context, log *zap.Logger, deps *AppDependencies) error {
	cfg := deps.Config

	ws, err := appctx.NewWorkspacePaths(cfg.Workspace.Dir)
	if err != nil {
		return fmt.Errorf("工作區路徑無效: %w", err)
	}

	check, err := deps.InstallService.CheckEnvironment(ctx, cfg, ws)

	// 出錯時報告仍可能帶回部分事實，先展示再判定
	if check != nil && check.Report != nil {
		rep := check.Report
		fmt.Printf("主機:     %s\n", rep.Hostname)
		fmt.Printf("系統:     %s (%s)\n", rep.OS, rep.Arch)
		fmt.Printf("內核:     %s\n", rep.Kernel)
		if rep.GitFound() {
			fmt.Printf("Git:      %s (%s)\n", rep.GitVersion, rep.GitPath)
		} else {
			fmt.Println("Git:      未找到")
		}
		fmt.Printf("磁盤:     可用 %s / 共 %s\n",
			infraSystem.FormatBytes(rep.DiskFree), infraSystem.FormatBytes(rep.DiskTotal))
		fmt.Printf("工作區:   %s (可寫: %v)\n", ws.Root, rep.Writable)
		fmt.Printf("清單文件: %v\n", check.ManifestPresent)
		fmt.Printf("既有安裝: %v\n", check.AlreadyInstalled)
	}

	if err != nil {
		fmt.Printf("\n檢查未通過: %v\n", err)
		return err
	}

	fmt.Println("\n環境就緒，可以開始安裝。")
	return nil
}
