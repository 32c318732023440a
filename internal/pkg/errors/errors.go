package errors

import (
	"errors"
	"fmt"
)

// 預定義錯誤類型，調用方用 errors.Is 跨層識別
var (
	// 環境相關
	ErrWorkspaceInvalid = errors.New("workspace directory is invalid")
	ErrGitNotFound      = errors.New("git executable not found")

	// 清單相關
	ErrManifestNotFound = errors.New("package manifest not found")

	// 套件相關
	ErrModuleNotFound   = errors.New("suite module not found")
	ErrModuleUnresolved = errors.New("suite module not resolved in time")
	ErrHandoffFailed    = errors.New("secondary installer failed")
)

// Error 自定義錯誤類型
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 創建新錯誤
func New(code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap 包裝錯誤
func Wrap(err error, code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf 取出錯誤鏈上第一個帶代碼錯誤的代碼，沒有則返回空字串
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
