package suite

import (
	"context"

	"github.com/Yat-Muk/lumen/internal/pkg/appctx"
)

// 次級安裝器的步驟碼約定：
//   0..10 過程步驟，語義由安裝器自己的 detail 描述
//   11    安裝完成
// 核心流程只認 11，其餘一律按「進行中」處理
const (
	StepCodeFirst    = 0
	StepCodeFinished = 11
)

// ReportFunc 次級安裝器的進度回調
// 每個階段調用一次，detail 是給操作者看的一行描述
type ReportFunc func(code int, detail string)

// Installer 次級安裝器契約
// 引導套件被宿主解析後，核心流程按模組名取出對應的安裝器並把控制權交給它。
// 安裝器在啓動時顯式註冊，拼錯模組名在註冊處即報錯，不會拖到安裝中途纔暴露
type Installer interface {
	// Name 模組名，必須與宿主 modules.json 裏的名字一致
	Name() string

	// Run 在指定工作區執行安裝，通過 report 逐步上報進度
	// 阻塞直到安裝結束；取消通過 ctx 傳遞
	Run(ctx context.Context, ws *appctx.WorkspacePaths, report ReportFunc) error
}
