package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	domainConfig "github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/pkg/crypto"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileRepository 基於文件的配置倉庫
// 內存緩存一份已解密的副本，按文件修改時間判斷是否需要重新讀盤；
// git 憑證只以密文落盤，加載後解密供克隆流程使用
type FileRepository struct {
	filePath     string
	mu           sync.RWMutex
	fileMu       sync.Mutex // 底層文件 I/O 互斥
	encryptor    *crypto.Encryptor
	logger       *zap.Logger
	cachedConfig *domainConfig.Config
	lastModTime  time.Time
}

func NewFileRepository(path string, encryptor *crypto.Encryptor, logger *zap.Logger) *FileRepository {
	return &FileRepository{
		filePath:  path,
		encryptor: encryptor,
		logger:    logger,
	}
}

// Load 加載配置，文件未變時直接命中緩存
// 文件不存在不算錯誤：首次啟動返回默認配置，由啟動流程負責落盤
func (r *FileRepository) Load(ctx context.Context) (*domainConfig.Config, error) {
	// 快速路徑：讀鎖下檢查緩存
	r.mu.RLock()
	stat, err := os.Stat(r.filePath)

	if os.IsNotExist(err) {
		r.mu.RUnlock()
		r.logger.Debug("配置文件不存在，返回默認配置", zap.String("path", r.filePath))
		return domainConfig.DefaultConfig(), nil
	}
	if err != nil {
		r.mu.RUnlock()
		return nil, fmt.Errorf("檢查配置文件狀態失敗: %w", err)
	}

	if r.cachedConfig != nil && !stat.ModTime().After(r.lastModTime) {
		// 必須返回深拷貝，否則調用方的修改會污染緩存
		cfg := r.cachedConfig.DeepCopy()
		r.mu.RUnlock()
		return cfg, nil
	}
	r.mu.RUnlock()

	// 慢速路徑：寫鎖下重新讀盤
	r.mu.Lock()
	defer r.mu.Unlock()

	// 雙重檢查：等鎖期間可能已有其他協程完成加載
	stat, err = os.Stat(r.filePath)
	if os.IsNotExist(err) {
		return domainConfig.DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("檢查配置文件狀態失敗: %w", err)
	}
	if r.cachedConfig != nil && !stat.ModTime().After(r.lastModTime) {
		return r.cachedConfig.DeepCopy(), nil
	}

	r.fileMu.Lock()
	content, err := os.ReadFile(r.filePath)
	r.fileMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("讀取配置文件失敗: %w", err)
	}

	cfg := &domainConfig.Config{}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件格式失敗: %w", err)
	}

	// 磁盤上的 git 憑證是密文，解密失敗（比如主密鑰被換過）直接報錯，
	// 否則克隆流程會拿密文當憑證用
	if r.encryptor != nil {
		if err := cfg.DecryptSensitiveFields(r.encryptor); err != nil {
			r.logger.Error("配置解密失敗", zap.Error(err))
			return nil, fmt.Errorf("解密敏感配置失敗: %w", err)
		}
	}

	// 緩存一份已解密的乾淨副本
	r.cachedConfig = cfg.DeepCopy()
	r.lastModTime = stat.ModTime()

	r.logger.Info("配置文件已從磁盤重新加載",
		zap.String("path", r.filePath),
		zap.Time("mod_time", r.lastModTime),
	)

	return cfg, nil
}

// Save 保存配置（憑證加密後原子寫入）
func (r *FileRepository) Save(ctx context.Context, cfg *domainConfig.Config) error {
	if cfg == nil {
		return fmt.Errorf("配置對象為空")
	}

	r.fileMu.Lock()
	defer r.fileMu.Unlock()

	// 在副本上加密，不動調用方手裏的明文配置
	cfgCopy := cfg.DeepCopy()
	if r.encryptor != nil {
		if err := cfgCopy.EncryptSensitiveFields(r.encryptor); err != nil {
			return fmt.Errorf("加密配置失敗: %w", err)
		}
	}

	data, err := yaml.Marshal(cfgCopy)
	if err != nil {
		return fmt.Errorf("序列化配置失敗: %w", err)
	}

	if err := r.writeAtomic(data); err != nil {
		return err
	}

	// 緩存未加密的版本，修改時間取寫入後的實際值
	r.mu.Lock()
	r.cachedConfig = cfg.DeepCopy()
	if stat, err := os.Stat(r.filePath); err == nil {
		r.lastModTime = stat.ModTime()
	}
	r.mu.Unlock()

	return nil
}

// writeAtomic 臨時文件 -> Sync -> Rename，寫壞時不會留下半截配置
func (r *FileRepository) writeAtomic(data []byte) error {
	dir := filepath.Dir(r.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("創建配置目錄失敗: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "config.*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("創建臨時文件失敗: %w", err)
	}
	tmpName := tmpFile.Name()

	writeSuccess := false
	defer func() {
		if !writeSuccess {
			tmpFile.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("寫入數據失敗: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("同步磁盤失敗: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("關閉臨時文件失敗: %w", err)
	}
	if err := os.Rename(tmpName, r.filePath); err != nil {
		return fmt.Errorf("替換配置文件失敗: %w", err)
	}

	// 配置裏可能有 git 憑證，僅所有者可讀寫
	if err := os.Chmod(r.filePath, 0600); err != nil {
		r.logger.Warn("設置文件權限失敗", zap.Error(err))
	}

	writeSuccess = true
	return nil
}
