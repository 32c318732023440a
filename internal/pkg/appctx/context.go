package appctx

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths 定義應用程序所有的關鍵路徑
type Paths struct {
	BaseDir   string
	ConfigDir string
	DataDir   string
	LogDir    string
	BackupDir string

	ConfigFile string
}

func NewPaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		if isProduction() {
			baseDir = "/etc/lumen"
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("無法獲取用戶主目錄: %w", err)
			}
			baseDir = filepath.Join(home, ".lumen")
		}
	}

	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("無法解析絕對路徑: %w", err)
	}

	configDir := absPath
	dataDir := filepath.Join(absPath, "data")
	backupDir := filepath.Join(absPath, "backups")
	configFile := filepath.Join(configDir, "config.yaml")

	// 日誌目錄邏輯
	logDir := filepath.Join(absPath, "logs")
	if isProduction() {
		logDir = "/var/log/lumen"
	}

	paths := &Paths{
		BaseDir:    absPath,
		ConfigDir:  configDir,
		DataDir:    dataDir,
		LogDir:     logDir,
		BackupDir:  backupDir,
		ConfigFile: configFile,
	}

	// 確保目錄存在
	dirs := []string{
		paths.ConfigDir,
		paths.DataDir,
		paths.LogDir,
		paths.BackupDir,
	}

	for _, dir := range dirs {
		perm := os.FileMode(0700)
		if dir == paths.LogDir {
			perm = 0755
		}
		if err := os.MkdirAll(dir, perm); err != nil {
			return nil, fmt.Errorf("無法創建目錄 %s: %w", dir, err)
		}
	}

	return paths, nil
}

// WorkspacePaths 定義一個目標工作區內 Lumen 關心的路徑
type WorkspacePaths struct {
	Root           string
	PackagesDir    string
	ManifestFile   string
	StateDir       string
	ModulesFile    string
	ResolveRequest string
}

// NewWorkspacePaths 由工作區根目錄推導各路徑，不做任何磁盤操作
func NewWorkspacePaths(root string) (*WorkspacePaths, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("無法解析工作區路徑: %w", err)
	}

	packagesDir := filepath.Join(absRoot, "packages")
	stateDir := filepath.Join(packagesDir, ".lumen")

	return &WorkspacePaths{
		Root:           absRoot,
		PackagesDir:    packagesDir,
		ManifestFile:   filepath.Join(packagesDir, "manifest.json"),
		StateDir:       stateDir,
		ModulesFile:    filepath.Join(stateDir, "modules.json"),
		ResolveRequest: filepath.Join(stateDir, "resolve-request"),
	}, nil
}

// PackageDir 返回某個套件倉庫在工作區內的落地目錄
func (w *WorkspacePaths) PackageDir(name string) string {
	return filepath.Join(w.PackagesDir, name)
}

func isProduction() bool {
	return os.Geteuid() == 0 || os.Getenv("LUMEN_ENV") == "production"
}
