package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// EnvReport 安裝前的環境探測結果
// 只採集事實，判定（例如磁盤是否夠用）由上層完成
type EnvReport struct {
	Hostname   string
	OS         string // 發行版名稱
	Kernel     string
	Arch       string
	GitPath    string // git 可執行文件路徑，未找到時為空
	GitVersion string
	DiskTotal  uint64 // 工作區所在文件系統總量 (Bytes)
	DiskFree   uint64 // 可用空間 (Bytes)
	Writable   bool   // 工作區目錄可寫
}

// GitFound git 是否可用
func (r *EnvReport) GitFound() bool {
	return r.GitPath != ""
}

// Inspector 環境探測器
type Inspector struct {
	exec         Executor
	log          *zap.Logger
	cachedOSName string
}

// NewInspector 初始化
func NewInspector(exec Executor, log *zap.Logger) *Inspector {
	i := &Inspector{
		exec: exec,
		log:  log,
	}
	i.initOSName()
	return i
}

func (i *Inspector) initOSName() {
	i.cachedOSName = "Linux"
	if data, err := os.ReadFile("/etc/os-release"); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.HasPrefix(line, "PRETTY_NAME=") {
				i.cachedOSName = strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
				return
			}
		}
	}
}

// Inspect 探測安裝環境 (核心方法)
// gitBinary 來自配置，workspaceDir 是即將安裝的工作區
func (i *Inspector) Inspect(ctx context.Context, gitBinary, workspaceDir string) (*EnvReport, error) {
	report := &EnvReport{
		OS:   i.cachedOSName,
		Arch: runtime.GOARCH,
	}

	// 1. 基礎信息
	report.Hostname, _ = os.Hostname()

	// 2. 內核
	if data, err := os.ReadFile("/proc/sys/kernel/osrelease"); err == nil {
		report.Kernel = strings.TrimSpace(string(data))
	} else {
		report.Kernel = "Unknown"
	}

	// 3. git 探測
	if path, err := exec.LookPath(gitBinary); err == nil {
		report.GitPath = path
		if out, err := i.exec.Execute(ctx, gitBinary, "--version"); err == nil {
			report.GitVersion = parseGitVersion(out)
		}
	} else {
		i.log.Warn("未找到 git 可執行文件", zap.String("binary", gitBinary))
	}

	// 4. 磁盤（工作區所在文件系統）
	if total, free, err := i.getDiskSpace(ctx, workspaceDir); err == nil {
		report.DiskTotal = total
		report.DiskFree = free
	} else {
		i.log.Warn("磁盤空間探測失敗", zap.Error(err))
	}

	// 5. 工作區可寫性
	report.Writable = i.probeWritable(workspaceDir)

	return report, nil
}

// --- 內部實現方法 ---

// parseGitVersion "git version 2.43.0" -> "2.43.0"
func parseGitVersion(out string) string {
	fields := strings.Fields(out)
	if len(fields) >= 3 && fields[0] == "git" && fields[1] == "version" {
		return fields[2]
	}
	return strings.TrimSpace(out)
}

// getDiskSpace 通過 df 讀取目錄所在文件系統的總量與可用量
// 目錄尚不存在時向上找最近的已存在父目錄
func (i *Inspector) getDiskSpace(ctx context.Context, dir string) (uint64, uint64, error) {
	probe := dir
	for probe != "" {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}
	if probe == "" {
		probe = "/"
	}

	out, err := i.exec.Execute(ctx, "df", "-B1", probe)
	if err != nil {
		return 0, 0, err
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return 0, 0, fmt.Errorf("df 輸出格式異常")
	}
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 4 {
		return 0, 0, fmt.Errorf("df 輸出解析失敗")
	}
	total, _ := strconv.ParseUint(fields[1], 10, 64)
	free, _ := strconv.ParseUint(fields[3], 10, 64)
	return total, free, nil
}

// probeWritable 在目錄裏創建並刪除一個臨時文件
func (i *Inspector) probeWritable(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	f, err := os.CreateTemp(dir, ".lumen-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

// --- 格式化工具 ---

// FormatBytes 人類可讀的容量
func FormatBytes(bytes uint64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	fBytes := float64(bytes) / 1024.0
	units := []string{"KB", "MB", "GB", "TB", "PB"}
	unitIdx := 0
	for fBytes >= 1024 && unitIdx < len(units)-1 {
		fBytes /= 1024
		unitIdx++
	}
	return fmt.Sprintf("%.2f %s", fBytes, units[unitIdx])
}

// FormatDuration 人類可讀的時長
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d秒", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%d分鐘%d秒", int(d.Minutes()), int(d.Seconds())%60)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%d小時%d分鐘", hours, minutes)
}
