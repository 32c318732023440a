package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Yat-Muk/lumen/internal/pkg/errors"
	"github.com/Yat-Muk/lumen/internal/pkg/sanitizer"
)

// Executor 命令執行器接口
type Executor interface {
	// Execute 執行命令
	Execute(ctx context.Context, name string, args ...string) (string, error)

	// ExecuteWithEnv 帶附加環境變量的命令執行
	ExecuteWithEnv(ctx context.Context, env []string, name string, args ...string) (string, error)

	// ExecuteWithTimeout 帶超時的命令執行
	ExecuteWithTimeout(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error)

	// IsAllowed 檢查命令是否在白名單中
	IsAllowed(name string) bool
}

// SafeExecutor 安全的命令執行器
// 安裝器只需要 git 和少量環境探測命令，白名單收得很窄
type SafeExecutor struct {
	allowlist map[string]bool
	logger    *zap.Logger
}

// NewExecutor 創建命令執行器
func NewExecutor(logger *zap.Logger) Executor {
	return &SafeExecutor{
		allowlist: map[string]bool{
			// --- 套件下載 ---
			"git": true,

			// --- 環境探測 ---
			"uname": true,
			"df":    true,
			"du":    true,
			"which": true,
		},
		logger: logger,
	}
}

// Execute 執行命令
func (e *SafeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return e.ExecuteWithEnv(ctx, nil, name, args...)
}

// ExecuteWithEnv 帶附加環境變量的命令執行
// extraEnv 追加在當前進程環境之後，用於諸如 GIT_TERMINAL_PROMPT=0 的場景
func (e *SafeExecutor) ExecuteWithEnv(ctx context.Context, extraEnv []string, name string, args ...string) (string, error) {
	// 檢查命令是否在白名單中
	if !e.IsAllowed(name) {
		return "", errors.New("SYS001", fmt.Sprintf("命令 %q 不在白名單中", name))
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	// 克隆參數裏帶著注入憑證的 URL，日誌字段一律過脫敏
	maskedArgs := sanitizer.Args(args)
	e.logger.Debug("執行命令",
		zap.String("cmd", name),
		zap.Strings("args", maskedArgs),
	)

	output, err := cmd.CombinedOutput()
	outputStr := strings.TrimSpace(string(output))

	if err != nil {
		e.logger.Error("命令執行失敗",
			zap.String("cmd", name),
			zap.Strings("args", maskedArgs),
			zap.String("output", sanitizer.Text(outputStr)),
			zap.Error(err),
		)
		return outputStr, errors.Wrap(err, "SYS002", "命令執行失敗")
	}

	e.logger.Debug("命令執行成功",
		zap.String("cmd", name),
		zap.String("output", sanitizer.Text(outputStr)),
	)

	return outputStr, nil
}

// ExecuteWithTimeout 帶超時的命令執行
func (e *SafeExecutor) ExecuteWithTimeout(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	// 創建帶超時的上下文
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return e.Execute(ctx, name, args...)
}

// IsAllowed 檢查命令是否在白名單中
func (e *SafeExecutor) IsAllowed(name string) bool {
	return e.allowlist[name]
}
