package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Yat-Muk/lumen/internal/domain/validator"
	"github.com/Yat-Muk/lumen/internal/pkg/crypto"
)

const (
	BackupFileMode os.FileMode = 0600
	BackupDirMode  os.FileMode = 0700
	ChecksumSuffix             = ".sha256"
)

// Manager 負責清單與配置文件的快照備份。
// 備份內容保持原始字節（不加密），另存一個 HMAC 校驗旁文件；
// 恢復前先驗證完整性，損壞或被篡改的備份拒絕恢復。
type Manager struct {
	backupDir string
	retention RetentionPolicy
	encryptor *crypto.Encryptor
}

type RetentionPolicy struct {
	MaxFiles int
	MaxAge   time.Duration
}

type BackupFile struct {
	Name     string
	Path     string
	ModTime  time.Time
	Size     int64
	Verified bool
}

// NewManager 接收共享的主密鑰加密器，HMAC 校驗和配置加密用同一把密鑰
func NewManager(backupDir string, encryptor *crypto.Encryptor, retention RetentionPolicy) (*Manager, error) {
	if encryptor == nil {
		return nil, fmt.Errorf("校驗密鑰未初始化")
	}

	if err := os.MkdirAll(backupDir, BackupDirMode); err != nil {
		return nil, fmt.Errorf("創建備份目錄失敗: %w", err)
	}

	return &Manager{
		backupDir: backupDir,
		retention: retention,
		encryptor: encryptor,
	}, nil
}

// Backup 為 srcPath 建立一份帶時間戳的快照。
// 與上一次同源備份內容相同時直接跳過（按源文件名分組去重）。
func (m *Manager) Backup(srcPath string, tag string) error {
	if m.encryptor == nil {
		return fmt.Errorf("校驗密鑰未初始化")
	}

	if err := validator.ValidateSafePath(filepath.Dir(srcPath), filepath.Base(srcPath)); err != nil {
		return fmt.Errorf("源文件路徑不安全: %w", err)
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("讀取源文件失敗: %w", err)
	}

	prefix := sourcePrefix(srcPath)

	// 簡單去重
	hash := sha256.Sum256(data)
	hashStr := hex.EncodeToString(hash[:])
	if m.isDuplicateContent(prefix, hashStr) {
		return nil
	}

	timestamp := time.Now().Format("20060102-150405")
	backupName := fmt.Sprintf("%s-%s.bak", prefix, timestamp)
	if tag != "" {
		backupName = fmt.Sprintf("%s-%s-%s.bak", prefix, timestamp, tag)
	}
	dstPath := filepath.Join(m.backupDir, backupName)

	if err := os.WriteFile(dstPath, data, BackupFileMode); err != nil {
		return fmt.Errorf("寫入備份失敗: %w", err)
	}

	if err := m.saveChecksum(dstPath, data); err != nil {
		os.Remove(dstPath)
		return fmt.Errorf("生成校驗文件失敗: %w", err)
	}

	m.saveLastHash(prefix, hashStr)
	m.enforcePolicy()

	return nil
}

func (m *Manager) saveChecksum(filePath string, data []byte) error {
	checksum := m.encryptor.ComputeHMAC(data)
	tmpPath := filePath + ChecksumSuffix + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(checksum), BackupFileMode); err != nil {
		return err
	}
	return os.Rename(tmpPath, filePath+ChecksumSuffix)
}

func (m *Manager) verifyChecksum(filePath string, data []byte) bool {
	checksumPath := filePath + ChecksumSuffix
	expected, err := os.ReadFile(checksumPath)
	if err != nil {
		return false
	}
	return m.encryptor.VerifyHMAC(data, string(expected))
}

// Restore 將備份原樣寫回 targetPath，保留目標文件原有的權限位。
func (m *Manager) Restore(backupName string, targetPath string) error {
	if err := validator.ValidateSafePath(m.backupDir, backupName); err != nil {
		return fmt.Errorf("備份名不合法: %w", err)
	}

	srcPath := filepath.Join(m.backupDir, backupName)
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("讀取備份文件失敗: %w", err)
	}

	if !m.verifyChecksum(srcPath, data) {
		return fmt.Errorf("備份完整性校驗失敗: %s", backupName)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(targetPath); err == nil {
		mode = info.Mode().Perm()
	}

	tmpFile := targetPath + ".tmp"
	if err := os.WriteFile(tmpFile, data, mode); err != nil {
		return fmt.Errorf("寫入臨時文件失敗: %w", err)
	}

	if err := os.Rename(tmpFile, targetPath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("替換目標文件失敗: %w", err)
	}

	return nil
}

// Delete 移除一份備份及其校驗旁文件
func (m *Manager) Delete(backupName string) error {
	if err := validator.ValidateSafePath(m.backupDir, backupName); err != nil {
		return fmt.Errorf("備份名不合法: %w", err)
	}

	path := filepath.Join(m.backupDir, backupName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("刪除備份失敗: %w", err)
	}
	os.Remove(path + ChecksumSuffix)
	return nil
}

func (m *Manager) List() ([]BackupFile, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupFile{}, nil
		}
		return nil, fmt.Errorf("讀取備份目錄失敗: %w", err)
	}

	var backups []BackupFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".bak") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(m.backupDir, entry.Name())

		var verified bool
		if data, err := os.ReadFile(path); err == nil {
			verified = m.verifyChecksum(path, data)
		}

		backups = append(backups, BackupFile{
			Name:     entry.Name(),
			Path:     path,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
			Verified: verified,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModTime.After(backups[j].ModTime)
	})

	return backups, nil
}

func (m *Manager) enforcePolicy() {
	backups, err := m.List()
	if err != nil {
		return
	}

	now := time.Now()
	for i, b := range backups {
		shouldDelete := false
		if m.retention.MaxFiles > 0 && i >= m.retention.MaxFiles {
			shouldDelete = true
		} else if m.retention.MaxAge > 0 && now.Sub(b.ModTime) > m.retention.MaxAge {
			shouldDelete = true
		}

		if shouldDelete {
			os.Remove(b.Path)
			os.Remove(b.Path + ChecksumSuffix)
		}
	}
}

// sourcePrefix 從源文件名推導備份名前綴：manifest.json -> manifest
func sourcePrefix(srcPath string) string {
	base := filepath.Base(srcPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (m *Manager) isDuplicateContent(prefix, hash string) bool {
	hashFile := filepath.Join(m.backupDir, ".last-hash-"+prefix)
	lastHash, err := os.ReadFile(hashFile)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(lastHash)) == hash
}

func (m *Manager) saveLastHash(prefix, hash string) {
	hashFile := filepath.Join(m.backupDir, ".last-hash-"+prefix)
	tmpFile := hashFile + ".tmp"
	if err := os.WriteFile(tmpFile, []byte(hash), BackupFileMode); err == nil {
		os.Rename(tmpFile, hashFile)
	}
}
