package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

// TestNewEncryptor 測試密鑰加載與初始化
func TestNewEncryptor(t *testing.T) {
	tempDir := t.TempDir()
	keyPath := filepath.Join(tempDir, "test.key")

	rawKey := make([]byte, 32)
	rand.Read(rawKey)
	keyHex := hex.EncodeToString(rawKey)

	if err := os.WriteFile(keyPath, []byte(keyHex), 0600); err != nil {
		t.Fatal(err)
	}

	enc, err := NewEncryptor(keyPath)
	if err != nil {
		t.Fatalf("Failed to create encryptor with valid key: %v", err)
	}
	if enc == nil {
		t.Fatal("Encryptor instance is nil")
	}

	// 無效密鑰 (長度錯誤)
	badKeyPath := filepath.Join(tempDir, "bad.key")
	os.WriteFile(badKeyPath, []byte("short-key"), 0600)

	_, err = NewEncryptor(badKeyPath)
	if err == nil {
		t.Error("NewEncryptor should fail with invalid key length")
	}
}

// TestNewEncryptor_AutoGenerate 測試首次運行自動生成密鑰
func TestNewEncryptor_AutoGenerate(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "auto.key")

	enc, err := NewEncryptor(keyPath)
	if err != nil {
		t.Fatalf("NewEncryptor should auto-generate a key: %v", err)
	}
	if enc == nil {
		t.Fatal("Encryptor instance is nil")
	}

	// 密鑰文件應已落盤且可被重新加載
	if _, err := os.Stat(keyPath); err != nil {
		t.Fatalf("key file was not persisted: %v", err)
	}
	if _, err := NewEncryptor(keyPath); err != nil {
		t.Fatalf("persisted key should load back: %v", err)
	}
}

// TestNewEncryptor_EnvKey 測試環境變量密鑰優先
func TestNewEncryptor_EnvKey(t *testing.T) {
	rawKey := make([]byte, 32)
	rand.Read(rawKey)
	t.Setenv("LUMEN_MASTER_KEY", hex.EncodeToString(rawKey))

	// keyPath 指向不存在的文件也應成功
	enc, err := NewEncryptor(filepath.Join(t.TempDir(), "nonexistent.key"))
	if err != nil {
		t.Fatalf("env key should take priority: %v", err)
	}
	if enc == nil {
		t.Fatal("Encryptor instance is nil")
	}
}

// TestEncryptDecrypt 測試加密解密完整流程
func TestEncryptDecrypt(t *testing.T) {
	tempDir := t.TempDir()
	keyPath := filepath.Join(tempDir, "enc.key")

	rawKey := make([]byte, 32)
	rand.Read(rawKey)
	os.WriteFile(keyPath, []byte(hex.EncodeToString(rawKey)), 0600)

	enc, _ := NewEncryptor(keyPath)

	plainText := "ghp_exampleAccessToken0123456789"

	// 1. 加密
	cipherText, err := enc.Encrypt(plainText)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if cipherText == plainText {
		t.Error("Ciphertext should not match plaintext")
	}
	if !IsEncrypted(cipherText) {
		t.Errorf("Ciphertext should carry the %q prefix", EncryptedPrefix)
	}

	// 2. 解密
	decrypted, err := enc.Decrypt(cipherText)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	if decrypted != plainText {
		t.Errorf("Decryption mismatch.\nWant: %s\nGot: %s", plainText, decrypted)
	}
}

// TestHMAC 測試完整性校驗
func TestHMAC(t *testing.T) {
	tempDir := t.TempDir()
	keyPath := filepath.Join(tempDir, "hmac.key")

	rawKey := make([]byte, 32)
	rand.Read(rawKey)
	os.WriteFile(keyPath, []byte(hex.EncodeToString(rawKey)), 0600)

	enc, _ := NewEncryptor(keyPath)

	data := []byte(`{"dependencies":{}}`)

	// 1. 計算 HMAC
	signature := enc.ComputeHMAC(data)
	if signature == "" {
		t.Fatal("HMAC signature is empty")
	}

	// 2. 驗證正確的簽名
	if !enc.VerifyHMAC(data, signature) {
		t.Error("HMAC verification failed for valid data")
	}

	// 3. 驗證被篡改的數據
	tamperedData := []byte(`{"dependencies":{"evil":"1"}}`)
	if enc.VerifyHMAC(tamperedData, signature) {
		t.Error("HMAC verification should fail for tampered data")
	}

	// 4. 驗證錯誤的簽名
	if enc.VerifyHMAC(data, "invalid-signature") {
		t.Error("HMAC verification should fail for invalid signature")
	}
}

// TestIsEncrypted 測試加密標識判斷
func TestIsEncrypted(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"Plain text", false},
		{"", false},
		{"enc:abcdef", true},
	}

	for _, tt := range tests {
		if got := IsEncrypted(tt.input); got != tt.expected {
			t.Errorf("IsEncrypted(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
