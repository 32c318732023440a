package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EncryptedPrefix 加密值的前綴標識
	EncryptedPrefix = "enc:"
	// KeySize AES-256 密鑰長度
	KeySize = 32

	masterKeyEnv = "LUMEN_MASTER_KEY"
)

// Encryptor 主密鑰加密器
// 配置文件裏的 git 憑證加密和備份文件的 HMAC 校驗共用這一把密鑰
type Encryptor struct {
	key []byte
}

// NewEncryptor 創建加密器
// 密鑰來源優先級：LUMEN_MASTER_KEY 環境變量 > 密鑰文件 > 首次運行自動生成
func NewEncryptor(keyPath string) (*Encryptor, error) {
	if keyHex := os.Getenv(masterKeyEnv); keyHex != "" {
		key, err := decodeKey(keyHex)
		if err != nil {
			return nil, fmt.Errorf("環境變量 %s 格式錯誤: %w", masterKeyEnv, err)
		}
		return &Encryptor{key: key}, nil
	}

	if _, err := os.Stat(keyPath); err == nil {
		key, err := keyFromFile(keyPath)
		if err != nil {
			return nil, err
		}
		return &Encryptor{key: key}, nil
	}

	key, err := generateKey(keyPath)
	if err != nil {
		return nil, err
	}
	return &Encryptor{key: key}, nil
}

// keyFromFile 讀取並解析已有的密鑰文件
func keyFromFile(keyPath string) ([]byte, error) {
	content, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("無法讀取密鑰文件: %w", err)
	}
	key, err := decodeKey(strings.TrimSpace(string(content)))
	if err != nil {
		return nil, fmt.Errorf("密鑰文件內容無效: %w", err)
	}
	return key, nil
}

// generateKey 首次運行生成隨機密鑰並落盤
func generateKey(keyPath string) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("生成隨機密鑰失敗: %w", err)
	}
	if err := writeKeyFile(keyPath, key); err != nil {
		return nil, fmt.Errorf("保存新密鑰失敗: %w", err)
	}
	return key, nil
}

// writeKeyFile 原子寫入密鑰文件，Hex 編碼，權限 0600
func writeKeyFile(filename string, key []byte) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	tmpFile, err := os.CreateTemp(dir, ".masterkey.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(hex.EncodeToString(key)); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}
	tmpFile.Close()

	if err := os.Chmod(tmpFile.Name(), 0600); err != nil {
		return err
	}

	return os.Rename(tmpFile.Name(), filename)
}

// decodeKey 接受 Hex 或 Base64 編碼的 32 字節密鑰
func decodeKey(input string) ([]byte, error) {
	key, err := hex.DecodeString(input)
	if err == nil && len(key) == KeySize {
		return key, nil
	}
	key, err = base64.StdEncoding.DecodeString(input)
	if err == nil && len(key) == KeySize {
		return key, nil
	}
	return nil, errors.New("無效的密鑰格式或長度")
}

// Encrypt AES-GCM 加密，輸出帶 enc: 前綴的 Base64 文本
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedPrefix + base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt 解密 Encrypt 的輸出
func (e *Encryptor) Decrypt(encrypted string) (string, error) {
	if !IsEncrypted(encrypted) {
		return "", errors.New("數據未加密")
	}

	raw := strings.TrimPrefix(encrypted, EncryptedPrefix)
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("密文數據過短")
	}

	nonce, ciphertextBytes := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		return "", fmt.Errorf("解密失敗: %w", err)
	}

	return string(plaintext), nil
}

// IsEncrypted 檢查字符串是否帶加密前綴
func IsEncrypted(text string) bool {
	return strings.HasPrefix(text, EncryptedPrefix)
}

// ComputeHMAC 計算 HMAC-SHA256，備份完整性校驗用
func (e *Encryptor) ComputeHMAC(data []byte) string {
	h := hmac.New(sha256.New, e.key)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMAC 常量時間比較校驗值
func (e *Encryptor) VerifyHMAC(data []byte, expectedHex string) bool {
	actualHex := e.ComputeHMAC(data)
	return subtle.ConstantTimeCompare([]byte(actualHex), []byte(expectedHex)) == 1
}
