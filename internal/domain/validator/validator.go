package validator

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

// 預編譯正則表達式，避免在熱路徑中重複編譯
var (
	// 套件目錄名：字母、數字、點、橫線、下劃線
	rePackageName = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	// 模組名：點分隔的標識符，如 Lumen.Suite.Installer
	reModuleName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)+$`)
	// 清單依賴鍵：反向域名風格，如 com.lumen.bootstrap
	reManifestID = regexp.MustCompile(`^[a-z0-9]+(\.[a-z0-9-]+)+$`)
	// scp 風格 git 地址：git@host:path
	reSCPRepo = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+:[^\s]+$`)
)

// ValidateRepoURL 驗證倉庫地址（https/ssh/git 協議或 scp 簡寫）
func ValidateRepoURL(repo string) bool {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return false
	}

	for _, prefix := range []string{"https://", "http://", "ssh://", "git://"} {
		if strings.HasPrefix(repo, prefix) {
			rest := strings.TrimPrefix(repo, prefix)
			// 協議之後至少要有主機和路徑
			return strings.Contains(rest, "/") && len(rest) > 3
		}
	}

	return reSCPRepo.MatchString(repo)
}

// ValidatePackageName 驗證套件目錄名安全性（防止路徑遍歷）
func ValidatePackageName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return errors.New("套件名不能為空")
	}

	// 路徑遍歷與分隔符
	if strings.Contains(name, "..") {
		return errors.New("套件名不能包含 '..' (路徑遍歷攻擊)")
	}
	if strings.ContainsAny(name, `/\`) {
		return errors.New("套件名不能包含路徑分隔符")
	}
	if strings.Contains(name, "\x00") {
		return errors.New("套件名不能包含空字節")
	}

	if len(name) > 255 {
		return errors.New("套件名過長（最多 255 字符）")
	}

	if !rePackageName.MatchString(name) {
		return errors.New("套件名只能包含字母、數字、點、橫線、下劃線")
	}

	return nil
}

// ValidateModuleName 驗證模組名（點分隔標識符）
func ValidateModuleName(name string) bool {
	return reModuleName.MatchString(strings.TrimSpace(name))
}

// ValidateManifestID 驗證清單依賴鍵（反向域名風格）
func ValidateManifestID(id string) bool {
	return reManifestID.MatchString(strings.TrimSpace(id))
}

// ValidateSafePath 驗證完整路徑安全性
// 確保目標路徑在指定的基礎目錄內，防止路徑遍歷到系統敏感目錄
func ValidateSafePath(baseDir, name string) error {
	// 1. 先驗證名稱本身
	if err := ValidatePackageName(name); err != nil {
		return err
	}

	// 2. 獲取基礎目錄的絕對路徑
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return errors.New("無法解析基礎目錄: " + err.Error())
	}

	// 3. 構建完整路徑並解析絕對路徑
	fullPath := filepath.Join(absBase, name)
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return errors.New("無法解析路徑: " + err.Error())
	}

	// 4. 確保最終路徑在基礎目錄內
	if !strings.HasPrefix(absPath, absBase) {
		return errors.New("路徑不在允許的基礎目錄內")
	}

	return nil
}
