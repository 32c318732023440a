package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Yat-Muk/lumen/internal/pkg/crypto"
)

func newTestManager(t *testing.T, maxFiles int) (*Manager, string) {
	t.Helper()

	tempDir := t.TempDir()
	backupDir := filepath.Join(tempDir, "backups")
	keyDir := filepath.Join(tempDir, "keys")
	if err := os.MkdirAll(keyDir, 0700); err != nil {
		t.Fatal(err)
	}

	// 密鑰文件不存在時由加密器首次運行自動生成
	encryptor, err := crypto.NewEncryptor(filepath.Join(keyDir, "master.key"))
	if err != nil {
		t.Fatalf("NewEncryptor failed: %v", err)
	}

	policy := RetentionPolicy{
		MaxFiles: maxFiles,
		MaxAge:   30 * 24 * time.Hour,
	}
	mgr, err := NewManager(backupDir, encryptor, policy)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return mgr, tempDir
}

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBackupManager(t *testing.T) {
	mgr, tempDir := newTestManager(t, 5)

	originalContent := "{\n  \"dependencies\": {\n    \"com.lumen.bootstrap\": \"1.4.0\"\n  }\n}\n"
	manifestPath := writeManifest(t, tempDir, originalContent)

	t.Log("Creating backup...")
	if err := mgr.Backup(manifestPath, "pre-install"); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	list, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(list))
	}
	if !strings.HasPrefix(list[0].Name, "manifest-") {
		t.Errorf("backup name should derive from the source file, got %s", list[0].Name)
	}
	if !strings.Contains(list[0].Name, "pre-install") {
		t.Errorf("backup name should carry the tag, got %s", list[0].Name)
	}
	if !list[0].Verified {
		t.Error("fresh backup should pass verification")
	}

	// 備份保持原始字節，可直接用肉眼或 diff 檢查
	raw, err := os.ReadFile(list[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != originalContent {
		t.Error("backup should keep the source bytes untouched")
	}

	// 模擬清單被寫壞後恢復
	if err := os.WriteFile(manifestPath, []byte("corrupted data"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Logf("Restoring from %s...", list[0].Name)
	if err := mgr.Restore(list[0].Name, manifestPath); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	restored, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != originalContent {
		t.Errorf("content mismatch after restore\nwant: %q\ngot:  %q", originalContent, string(restored))
	}

	info, err := os.Stat(manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("restore should keep the target permissions, got %o", info.Mode().Perm())
	}
}

func TestBackupManager_DeduplicatesUnchangedContent(t *testing.T) {
	mgr, tempDir := newTestManager(t, 5)
	manifestPath := writeManifest(t, tempDir, `{"dependencies": {}}`)

	if err := mgr.Backup(manifestPath, "first"); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Backup(manifestPath, "second"); err != nil {
		t.Fatal(err)
	}

	list, err := mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("unchanged content should not create a second backup, got %d", len(list))
	}

	// 去重按源文件分組：另一個源文件不受清單的哈希影響
	configPath := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("version: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Backup(configPath, ""); err != nil {
		t.Fatal(err)
	}

	list, err = mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("expected manifest + config backups, got %d", len(list))
	}
}

func TestBackupManager_Rotation(t *testing.T) {
	mgr, tempDir := newTestManager(t, 2)

	manifestPath := filepath.Join(tempDir, "manifest.json")
	for i := 0; i < 4; i++ {
		content := fmt.Sprintf(`{"rev": %d}`, i)
		if err := os.WriteFile(manifestPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if err := mgr.Backup(manifestPath, fmt.Sprintf("rev%d", i)); err != nil {
			t.Fatalf("Backup rev%d failed: %v", i, err)
		}
	}

	list, err := mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("rotation should keep 2 backups, got %d", len(list))
	}
	if !strings.Contains(list[0].Name, "rev3") {
		t.Errorf("newest backup should survive, got %s", list[0].Name)
	}
	if !strings.Contains(list[1].Name, "rev2") {
		t.Errorf("second newest should survive, got %s", list[1].Name)
	}

	// 被輪替掉的備份連同校驗旁文件一起清理
	entries, err := os.ReadDir(filepath.Join(tempDir, "backups"))
	if err != nil {
		t.Fatal(err)
	}
	checksums := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ChecksumSuffix) {
			checksums++
		}
	}
	if checksums != 2 {
		t.Errorf("expected 2 checksum files after rotation, got %d", checksums)
	}
}

func TestBackupManager_TamperDetection(t *testing.T) {
	mgr, tempDir := newTestManager(t, 5)

	originalContent := `{"dependencies": {"com.lumen.bootstrap": "1.4.0"}}`
	manifestPath := writeManifest(t, tempDir, originalContent)

	if err := mgr.Backup(manifestPath, ""); err != nil {
		t.Fatal(err)
	}

	list, err := mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(list))
	}

	// 篡改備份內容
	if err := os.WriteFile(list[0].Path, []byte(`{"dependencies": {"evil": "1.0.0"}}`), 0600); err != nil {
		t.Fatal(err)
	}

	list, err = mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if list[0].Verified {
		t.Error("tampered backup should fail verification")
	}

	err = mgr.Restore(list[0].Name, manifestPath)
	if err == nil {
		t.Fatal("restore of a tampered backup must fail")
	}
	if !strings.Contains(err.Error(), "校驗") {
		t.Errorf("error should mention integrity check, got: %v", err)
	}

	// 恢復失敗時目標文件保持原樣
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != originalContent {
		t.Error("failed restore must not touch the target file")
	}
}

func TestBackupManager_Delete(t *testing.T) {
	mgr, tempDir := newTestManager(t, 5)
	manifestPath := writeManifest(t, tempDir, `{"dependencies": {}}`)

	if err := mgr.Backup(manifestPath, ""); err != nil {
		t.Fatal(err)
	}
	list, err := mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(list))
	}

	if err := mgr.Delete(list[0].Name); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	list, err = mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("backup should be gone, got %d entries", len(list))
	}

	// 校驗旁文件一併清理
	entries, err := os.ReadDir(filepath.Join(tempDir, "backups"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ChecksumSuffix) {
			t.Errorf("checksum sidecar left behind: %s", e.Name())
		}
	}

	// 重複刪除視爲成功
	if err := mgr.Delete("manifest-20200101-000000.bak"); err != nil {
		t.Errorf("deleting an absent backup should be a no-op, got %v", err)
	}

	// 路徑遍歷被拒絕
	if err := mgr.Delete("../escape.bak"); err == nil {
		t.Error("path traversal in backup name must be rejected")
	}
}

func TestBackupManager_RestoreRejectsUnsafeName(t *testing.T) {
	mgr, tempDir := newTestManager(t, 5)
	manifestPath := writeManifest(t, tempDir, `{"dependencies": {}}`)

	err := mgr.Restore("../escape.bak", manifestPath)
	if err == nil || !strings.Contains(err.Error(), "不合法") {
		t.Errorf("path traversal must fail name validation, got: %v", err)
	}
}
