package suite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Yat-Muk/lumen/internal/pkg/appctx"
	"github.com/Yat-Muk/lumen/internal/pkg/errors"
)

type reportRecord struct {
	code   int
	detail string
}

func newTestWorkspace(t *testing.T, packages ...string) *appctx.WorkspacePaths {
	t.Helper()
	paths, err := appctx.NewWorkspacePaths(t.TempDir())
	require.NoError(t, err)
	for _, name := range packages {
		dir := paths.PackageDir(name)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# "+name+"\n"), 0644))
	}
	return paths
}

func TestBootstrapInstaller_Run(t *testing.T) {
	ws := newTestWorkspace(t, "lumen-core", "lumen-assets")

	// 交接痕跡：解析請求文件應被清理
	require.NoError(t, os.MkdirAll(ws.StateDir, 0755))
	require.NoError(t, os.WriteFile(ws.ResolveRequest, []byte(`{"run_id":"r1"}`), 0644))

	installer := NewBootstrapInstaller("Lumen.Suite.Installer",
		[]string{"lumen-core", "lumen-assets"}, zap.NewNop())

	var reports []reportRecord
	err := installer.Run(context.Background(), ws, func(code int, detail string) {
		reports = append(reports, reportRecord{code, detail})
	})
	require.NoError(t, err)

	// 步驟碼從 0 開始遞增，最後一個必須是完成碼 11
	require.NotEmpty(t, reports)
	assert.Equal(t, StepCodeFirst, reports[0].code)
	for i := 0; i < len(reports)-1; i++ {
		assert.Equal(t, i, reports[i].code)
		assert.Less(t, reports[i].code, StepCodeFinished)
		assert.NotEmpty(t, reports[i].detail)
	}
	assert.Equal(t, StepCodeFinished, reports[len(reports)-1].code)

	// 鎖定文件記錄兩個套件
	data, err := os.ReadFile(LockPath(ws))
	require.NoError(t, err)
	var lock suiteLock
	require.NoError(t, json.Unmarshal(data, &lock))
	require.Len(t, lock.Packages, 2)
	assert.Equal(t, "lumen-core", lock.Packages[0].Name)
	assert.Positive(t, lock.Packages[0].Files)
	assert.NotEmpty(t, lock.InstalledAt)

	// 解析請求已被清理
	_, statErr := os.Stat(ws.ResolveRequest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBootstrapInstaller_MissingPackage(t *testing.T) {
	ws := newTestWorkspace(t, "lumen-core") // lumen-assets 缺失

	installer := NewBootstrapInstaller("Lumen.Suite.Installer",
		[]string{"lumen-core", "lumen-assets"}, zap.NewNop())

	var codes []int
	err := installer.Run(context.Background(), ws, func(code int, detail string) {
		codes = append(codes, code)
	})
	require.Error(t, err)
	assert.Equal(t, "RUN001", errors.CodeOf(err))

	// 失敗路徑絕不能上報完成碼
	assert.NotContains(t, codes, StepCodeFinished)
}

func TestBootstrapInstaller_EmptyPackageDir(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, os.MkdirAll(ws.PackageDir("lumen-core"), 0755))

	installer := NewBootstrapInstaller("Lumen.Suite.Installer",
		[]string{"lumen-core"}, zap.NewNop())

	err := installer.Run(context.Background(), ws, nil)
	require.Error(t, err)
	assert.Equal(t, "RUN001", errors.CodeOf(err))
}

func TestBootstrapInstaller_Cancelled(t *testing.T) {
	ws := newTestWorkspace(t, "lumen-core")

	installer := NewBootstrapInstaller("Lumen.Suite.Installer",
		[]string{"lumen-core"}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := installer.Run(ctx, ws, nil)
	require.Error(t, err)
	assert.Equal(t, "RUN001", errors.CodeOf(err))
}

func TestCountPackageFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "objects"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), 0644))

	// .git 內容不算產物
	count, err := countPackageFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = countPackageFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
