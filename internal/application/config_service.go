package application

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/pkg/logger"
)

// ConfigService 配置服務
// 所有寫路徑共享同一把鎖並以磁盤版本為基底，保證落盤的配置永遠通過驗證
type ConfigService struct {
	repo     config.Repository
	migrator *config.Migrator
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewConfigService 創建配置服務
func NewConfigService(
	repo config.Repository,
	logger *zap.Logger,
) *ConfigService {
	return &ConfigService{
		repo:     repo,
		migrator: config.NewMigrator(),
		logger:   logger,
	}
}

// GetConfig 獲取當前配置
func (s *ConfigService) GetConfig(ctx context.Context) (*config.Config, error) {
	return s.repo.Load(ctx)
}

// ApplySettings 把設定頁的修改合併進磁盤配置並保存
// 只接收可編輯的四段（工作區、套件來源、git、輪詢），其餘段以磁盤為準：
// 即使 TUI 的內存副本過期，也不會把版本號、日誌或備份配置一併回退
func (s *ConfigService) ApplySettings(ctx context.Context, edited *config.Config) (*config.Config, error) {
	if edited == nil {
		return nil, fmt.Errorf("設定內容為空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. 以磁盤配置為基底
	current, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("加載配置失敗: %w", err)
	}

	// 2. 深拷貝來源，保存結果不和 TUI 副本共享切片
	src := edited.DeepCopy()
	merged := current.DeepCopy()
	merged.Workspace = src.Workspace
	merged.Suite = src.Suite
	merged.Git = src.Git
	merged.Resolve = src.Resolve

	// 3. 補全並驗證，壞設定不落盤
	merged.FillDefaults()
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("設定驗證失敗: %w", err)
	}

	// 4. 保存
	if err := s.repo.Save(ctx, merged); err != nil {
		return nil, fmt.Errorf("保存配置失敗: %w", err)
	}

	fields := []zap.Field{
		zap.String("workspace", merged.Workspace.Dir),
		zap.Int("packages", len(merged.Suite.Packages)),
	}
	// 憑證變更留下脫敏痕跡，排查「保存了哪把 token」時用
	if merged.Git.AccessToken != current.Git.AccessToken {
		fields = append(fields, logger.SanitizedToken("access_token", merged.Git.AccessToken))
	}
	s.logger.Info("設定已保存", fields...)
	return merged, nil
}

// LoadWithMigration 加載配置並自動遷移
func (s *ConfigService) LoadWithMigration(ctx context.Context) (*config.Config, error) {
	// 遷移過程持鎖，防止寫路徑並發改動
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("加載配置失敗: %w", err)
	}

	cfg.FillDefaults()

	if !s.migrator.NeedsMigration(cfg) {
		s.logger.Info("配置已是最新版本", zap.Int("version", cfg.Version))
		return cfg, nil
	}

	oldVersion := cfg.Version
	s.logger.Info("開始配置遷移",
		zap.Int("from_version", oldVersion),
		zap.Int("to_version", config.ConfigVersionLatest),
		zap.String("migration_path", s.migrator.GetMigrationPath(oldVersion)),
	)

	newCfg, err := s.migrator.MigrateToLatest(cfg)
	if err != nil {
		return nil, fmt.Errorf("遷移失敗: %w", err)
	}

	// 遷移結果立即落盤，下次啟動不再重復遷移
	if err := s.repo.Save(ctx, newCfg); err != nil {
		return nil, fmt.Errorf("保存遷移後配置失敗: %w", err)
	}

	s.logger.Info("配置遷移完成",
		zap.Int("old_version", oldVersion),
		zap.Int("new_version", newCfg.Version),
	)

	return newCfg, nil
}

// SaveWithDefaults 補全默認值並保存，首次啟動落盤初始配置用
func (s *ConfigService) SaveWithDefaults(ctx context.Context, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("配置驗證失敗: %w", err)
	}
	return s.repo.Save(ctx, cfg)
}
