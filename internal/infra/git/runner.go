package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Yat-Muk/lumen/internal/infra/system"
	"github.com/Yat-Muk/lumen/internal/pkg/logger"
)

// Runner git 操作執行器接口
// 克隆選項逐次傳入：克隆深度等參數在偏好設定裏隨時可改，
// 執行器自身不持有配置快照
type Runner interface {
	// Clone 把倉庫克隆到目標目錄
	Clone(ctx context.Context, opts Options, repoURL, branch, targetDir string) error

	// IsRepo 判斷目錄是否已是克隆好的倉庫
	IsRepo(dir string) bool
}

// Options 單次克隆的行爲配置
type Options struct {
	Binary      string        // git 可執行名
	CloneDepth  int           // 淺克隆深度，0 表示完整歷史
	Timeout     time.Duration // 單次克隆超時
	AccessToken string        // 私有倉庫憑證（可空）
}

// withDefaults 補全缺省值
func (o Options) withDefaults() Options {
	if o.Binary == "" {
		o.Binary = "git"
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Minute
	}
	return o
}

// CommandRunner 調用系統 git 的實現
type CommandRunner struct {
	exec   system.Executor
	logger *zap.Logger
}

// NewCommandRunner 創建 git 執行器
func NewCommandRunner(exec system.Executor, log *zap.Logger) *CommandRunner {
	return &CommandRunner{
		exec:   exec,
		logger: log,
	}
}

// Clone 克隆倉庫
// 克隆必須完全非交互：憑證注入 URL，終端提問一律禁用，
// 失敗時把 git 的輸出帶回錯誤鏈供日誌落盤
func (r *CommandRunner) Clone(ctx context.Context, opts Options, repoURL, branch, targetDir string) error {
	opts = opts.withDefaults()

	args := []string{"clone"}
	if opts.CloneDepth > 0 {
		args = append(args, "--depth", strconv.Itoa(opts.CloneDepth), "--single-branch")
	}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, injectToken(repoURL, opts.AccessToken), targetDir)

	r.logger.Info("開始克隆套件",
		logger.SanitizedURL("repo", repoURL),
		zap.String("branch", branch),
		zap.String("target", targetDir),
	)

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	out, err := r.exec.ExecuteWithEnv(ctx, []string{"GIT_TERMINAL_PROMPT=0"}, opts.Binary, args...)
	if err != nil {
		r.logger.Error("克隆失敗",
			logger.SanitizedURL("repo", repoURL),
			logger.SanitizedText("output", tail(out, 500)),
		)
		return fmt.Errorf("克隆 %s 失敗: %w", filepath.Base(targetDir), err)
	}

	r.logger.Info("克隆完成", zap.String("target", targetDir))
	return nil
}

// IsRepo 目錄下存在 .git（目錄或工作樹指針文件）即視爲倉庫
func (r *CommandRunner) IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// injectToken 把訪問憑證注入 https URL 的身份段
// ssh/scp 形式的地址走密鑰認證，不做注入；已帶身份信息的地址原樣保留
func injectToken(repoURL, token string) string {
	if token == "" {
		return repoURL
	}
	for _, scheme := range []string{"https://", "http://"} {
		if !strings.HasPrefix(repoURL, scheme) {
			continue
		}
		rest := strings.TrimPrefix(repoURL, scheme)
		hostPart := rest
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			hostPart = rest[:idx]
		}
		if strings.Contains(hostPart, "@") {
			return repoURL
		}
		return scheme + "x-access-token:" + token + "@" + rest
	}
	return repoURL
}

// tail 取輸出的末尾片段，克隆報錯時真正有用的內容都在最後幾行
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
