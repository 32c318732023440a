package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/Yat-Muk/lumen/internal/pkg/appctx"
	"github.com/Yat-Muk/lumen/internal/pkg/logger"
	"github.com/Yat-Muk/lumen/internal/pkg/version"
	"github.com/Yat-Muk/lumen/internal/tui/model"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// 1. 命令行參數解析
	var (
		workDir      = flag.String("dir", "", "指定應用數據目錄 (默認: /etc/lumen 或 ~/.lumen)")
		workspaceDir = flag.String("workspace", "", "覆蓋本次會話的工作區目錄 (不寫入配置)")
		checkMode    = flag.Bool("check", false, "檢查安裝環境並退出")
		showVer      = flag.Bool("version", false, "顯示版本信息")
		debugFlag    = flag.Bool("debug", false, "開啟調試模式")
	)
	flag.Parse()

	if *showVer {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// 2. 環境初始化
	paths, err := appctx.NewPaths(*workDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "致命錯誤: 無法初始化路徑: %v\n", err)
		os.Exit(1)
	}

	stdErrFile := filepath.Join(paths.LogDir, "stderr.log")
	redirectStdErr(stdErrFile)

	logConfig := logger.DefaultConfig()
	logConfig.OutputPath = filepath.Join(paths.LogDir, "lumen.log")
	logConfig.Console = false
	if *debugFlag {
		logConfig.Level = "debug"
	}

	log, logLevel, err := logger.New(logConfig)
	if err != nil {
		panic(fmt.Sprintf("日誌初始化失敗: %v", err))
	}
	defer log.Sync()

	log.Info("Lumen 正在啟動",
		zap.String("version", version.Version),
		zap.String("commit", version.GitCommit),
		zap.Bool("check_mode", *checkMode),
	)

	// 3. 依賴注入
	deps, err := initializeDependencies(log, paths, *workspaceDir)
	if err != nil {
		log.Fatal("依賴初始化失敗", zap.Error(err))
	}

	// 配置文件裏的日誌級別此刻才可用，-debug 優先
	if !*debugFlag {
		if lvl, perr := zapcore.ParseLevel(deps.Config.Log.Level); perr == nil {
			logLevel.SetLevel(lvl)
		}
	}

	// 4. 模式分發
	if *checkMode {
		log.Info("進入環境檢查模式")
		if err := runEnvCheck(context.Background(), log, deps); err != nil {
			log.Error("環境檢查未通過", zap.Error(err))
			os.Exit(1)
		}
		log.Info("環境檢查完成")
		return
	}

	runTUI(deps)
}

func runTUI(deps *AppDependencies) {
	// 初始化業務路由 (Router)
	router := model.NewRouter(deps.HandlerConfig)

	mainModel := model.NewModel(router)

	// 啟動 Bubble Tea
	p := tea.NewProgram(
		mainModel,
		tea.WithAltScreen(),
	)

	// 崩潰保護
	defer func() {
		if r := recover(); r != nil {
			p.ReleaseTerminal()
			fmt.Printf("\n\n❌ 程序崩潰: %v\n", r)
			deps.Log.Error("Panic", zap.Any("error", r), zap.String("stack", string(debug.Stack())))
			os.Exit(1)
		}
	}()

	if _, err := p.Run(); err != nil {
		fmt.Printf("程序運行錯誤: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("👋 Bye!")
}

func redirectStdErr(filename string) {
	_ = os.MkdirAll(filepath.Dir(filename), 0755)
	f, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err == nil {
		os.Stderr = f
	}
}
