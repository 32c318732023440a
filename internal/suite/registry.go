package suite

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Yat-Muk/lumen/internal/infra/host"
	"github.com/Yat-Muk/lumen/internal/pkg/appctx"
	"github.com/Yat-Muk/lumen/internal/pkg/errors"
)

// Registry 次級安裝器註冊表
// Register 在啓動時完成；Lookup 只在宿主的 modules.json 也列出該模組時
// 才把安裝器交出去，這樣「宿主還沒解析完」和「根本沒這個模組」是兩種
// 可區分的失敗，輪詢重試只對前者有意義
type Registry struct {
	mu         sync.RWMutex
	installers map[string]Installer
	host       host.Client
	logger     *zap.Logger
}

// NewRegistry 創建註冊表
func NewRegistry(hostClient host.Client, logger *zap.Logger) *Registry {
	return &Registry{
		installers: make(map[string]Installer),
		host:       hostClient,
		logger:     logger,
	}
}

// Register 註冊安裝器，重名直接報錯
func (r *Registry) Register(inst Installer) error {
	if inst == nil || inst.Name() == "" {
		return fmt.Errorf("安裝器為空或缺少模組名")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := inst.Name()
	if _, exists := r.installers[name]; exists {
		return fmt.Errorf("模組 %q 已註冊", name)
	}
	r.installers[name] = inst

	r.logger.Debug("次級安裝器已註冊", zap.String("module", name))
	return nil
}

// Names 已註冊的模組名（排序後）
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.installers))
	for name := range r.installers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup 取出指定工作區內可用的安裝器
// 未註冊 -> ErrModuleNotFound（重試無意義）
// 已註冊但宿主尚未解析 -> ErrModuleUnresolved（可重試）
func (r *Registry) Lookup(ctx context.Context, ws *appctx.WorkspacePaths, name string) (Installer, error) {
	r.mu.RLock()
	inst, registered := r.installers[name]
	r.mu.RUnlock()

	if !registered {
		return nil, errors.Wrap(errors.ErrModuleNotFound, "REG001",
			fmt.Sprintf("模組 %q 未註冊", name))
	}

	modules, err := r.host.Modules(ctx, ws)
	if err != nil {
		return nil, err
	}
	for _, m := range modules {
		if m.Name == name {
			return inst, nil
		}
	}

	return nil, errors.Wrap(errors.ErrModuleUnresolved, "REG001",
		fmt.Sprintf("宿主尚未解析模組 %q", name))
}
