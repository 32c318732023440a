package suite

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Yat-Muk/lumen/internal/pkg/appctx"
	"github.com/Yat-Muk/lumen/internal/pkg/errors"
)

// lockFileName 套件鎖定文件，記錄本次安裝的產物清單
const lockFileName = "suite.lock"

// suiteLock suite.lock 的內容
type suiteLock struct {
	SchemaVersion int           `json:"schema_version"`
	InstalledAt   string        `json:"installed_at"`
	Packages      []lockPackage `json:"packages"`
}

type lockPackage struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Files int    `json:"files"`
}

// BootstrapInstaller Lumen 套件的次級安裝器
// 克隆完成後接管：校驗套件落地是否完整，落下鎖定文件，清理交接痕跡。
// 每個階段通過 report 上報一個步驟碼，安裝完成上報 StepCodeFinished
type BootstrapInstaller struct {
	name     string
	packages []string // 期望存在的套件目錄名
	logger   *zap.Logger
}

// NewBootstrapInstaller 創建引導安裝器
func NewBootstrapInstaller(name string, packages []string, logger *zap.Logger) *BootstrapInstaller {
	return &BootstrapInstaller{
		name:     name,
		packages: packages,
		logger:   logger,
	}
}

// Name 模組名
func (b *BootstrapInstaller) Name() string {
	return b.name
}

// Run 在指定工作區執行套件安裝
func (b *BootstrapInstaller) Run(ctx context.Context, ws *appctx.WorkspacePaths, report ReportFunc) error {
	if report == nil {
		report = func(int, string) {}
	}

	code := StepCodeFirst
	step := func(detail string) {
		report(code, detail)
		code++
	}

	step("開始安裝 Lumen 套件")
	b.logger.Info("次級安裝器啓動",
		zap.String("module", b.name),
		zap.String("workspace", ws.Root),
		zap.Strings("packages", b.packages),
	)

	// 逐個套件校驗落地情況
	lock := suiteLock{
		SchemaVersion: 1,
		InstalledAt:   time.Now().Format(time.RFC3339),
	}
	for _, name := range b.packages {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "RUN001", "安裝被取消")
		}

		step(fmt.Sprintf("校驗套件 %s", name))
		dir := ws.PackageDir(name)
		files, err := countPackageFiles(dir)
		if err != nil {
			b.logger.Error("套件校驗失敗", zap.String("package", name), zap.Error(err))
			return errors.Wrap(err, "RUN001", fmt.Sprintf("套件 %s 不完整", name))
		}
		if files == 0 {
			return errors.New("RUN001", fmt.Sprintf("套件 %s 是空目錄", name))
		}

		lock.Packages = append(lock.Packages, lockPackage{
			Name:  name,
			Path:  dir,
			Files: files,
		})
	}

	// 落下鎖定文件
	step("寫入套件鎖定文件")
	if err := writeLock(ws, &lock); err != nil {
		return errors.Wrap(err, "RUN001", "寫入鎖定文件失敗")
	}

	// 交接完成，解析請求文件的使命已經結束
	step("清理交接文件")
	if err := os.Remove(ws.ResolveRequest); err != nil && !os.IsNotExist(err) {
		// 清理失敗不值得讓整個安裝失敗
		b.logger.Warn("清理解析請求失敗", zap.Error(err))
	}

	report(StepCodeFinished, "套件安裝完成")
	b.logger.Info("次級安裝器完成", zap.String("module", b.name))
	return nil
}

// LockPath 某工作區的套件鎖定文件路徑
// 鎖定文件存在即視爲套件已安裝，卸載時一併移除
func LockPath(paths *appctx.WorkspacePaths) string {
	return filepath.Join(paths.StateDir, lockFileName)
}

func writeLock(ws *appctx.WorkspacePaths, lock *suiteLock) error {
	if err := os.MkdirAll(ws.StateDir, 0755); err != nil {
		return fmt.Errorf("創建狀態目錄失敗: %w", err)
	}
	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化鎖定文件失敗: %w", err)
	}
	if err := os.WriteFile(LockPath(ws), data, 0644); err != nil {
		return fmt.Errorf("寫入鎖定文件失敗: %w", err)
	}
	return nil
}

// countPackageFiles 統計套件目錄裏的常規文件數，.git 不算產物
func countPackageFiles(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
