package host

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Yat-Muk/lumen/internal/pkg/appctx"
	"github.com/Yat-Muk/lumen/internal/pkg/errors"
)

// Module 宿主已解析出的一個模組
type Module struct {
	Name    string `json:"name"`    // 模組名，次級安裝器按這個名字註冊
	ID      string `json:"id"`      // 清單依賴鍵
	Version string `json:"version"` // 已解析版本
}

// modulesDocument modules.json 的頂層結構
type modulesDocument struct {
	SchemaVersion int      `json:"schema_version"`
	ResolvedAt    string   `json:"resolved_at,omitempty"`
	Modules       []Module `json:"modules"`
}

// resolveRequest resolve-request 的內容
type resolveRequest struct {
	RunID       string `json:"run_id"`
	RequestedAt string `json:"requested_at"`
}

// Client 宿主工具客戶端接口
// 工作區逐次傳入：嚮導可以在會話中途改工作區，客戶端自身不留狀態
type Client interface {
	// Resolve 請求宿主重新解析清單
	// fire-and-forget：只負責把請求落盤，從不等待解析完成
	Resolve(ctx context.Context, ws *appctx.WorkspacePaths, runID string) error

	// Remove 同步地把模組從宿主註冊表移除
	Remove(ctx context.Context, ws *appctx.WorkspacePaths, id string) error

	// Modules 列出宿主當前已解析的模組
	// modules.json 尚不存在時返回空列表（解析還沒發生，不是錯誤）
	Modules(ctx context.Context, ws *appctx.WorkspacePaths) ([]Module, error)
}

// FileClient 通過工作區共享文件與 lumen-host 通信的客戶端
// 宿主監聽 packages/.lumen/ 目錄：resolve-request 觸發一次解析，
// modules.json 是解析產物。這層協議沒有完成通知，上層用輪詢推定
type FileClient struct {
	logger *zap.Logger
}

// NewFileClient 創建宿主客戶端
func NewFileClient(logger *zap.Logger) *FileClient {
	return &FileClient{
		logger: logger,
	}
}

// Resolve 寫入解析請求
func (c *FileClient) Resolve(ctx context.Context, ws *appctx.WorkspacePaths, runID string) error {
	if err := os.MkdirAll(ws.StateDir, 0755); err != nil {
		return fmt.Errorf("無法創建宿主狀態目錄: %w", err)
	}

	req := resolveRequest{
		RunID:       runID,
		RequestedAt: time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化解析請求失敗: %w", err)
	}

	if err := os.WriteFile(ws.ResolveRequest, data, 0644); err != nil {
		return fmt.Errorf("寫入解析請求失敗: %w", err)
	}

	c.logger.Info("已向宿主提交解析請求",
		zap.String("run_id", runID),
		zap.String("path", ws.ResolveRequest),
	)
	return nil
}

// Modules 讀取宿主已解析的模組列表
func (c *FileClient) Modules(ctx context.Context, ws *appctx.WorkspacePaths) ([]Module, error) {
	data, err := os.ReadFile(ws.ModulesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("讀取模組列表失敗: %w", err)
	}

	var doc modulesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "REG001", "模組列表格式異常")
	}

	return doc.Modules, nil
}

// Remove 從宿主註冊表移除模組
// 模組列表不存在或模組不在其中時視爲已移除（卸載要可重入）
func (c *FileClient) Remove(ctx context.Context, ws *appctx.WorkspacePaths, id string) error {
	data, err := os.ReadFile(ws.ModulesFile)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Debug("模組列表不存在，無需移除", zap.String("id", id))
			return nil
		}
		return fmt.Errorf("讀取模組列表失敗: %w", err)
	}

	var doc modulesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "REG001", "模組列表格式異常")
	}

	kept := doc.Modules[:0]
	removed := false
	for _, m := range doc.Modules {
		if m.ID == id {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	if !removed {
		c.logger.Debug("模組不在宿主註冊表中", zap.String("id", id))
		return nil
	}
	doc.Modules = kept

	out, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化模組列表失敗: %w", err)
	}
	if err := os.WriteFile(ws.ModulesFile, out, 0644); err != nil {
		return fmt.Errorf("寫入模組列表失敗: %w", err)
	}

	c.logger.Info("模組已從宿主註冊表移除", zap.String("id", id))
	return nil
}
