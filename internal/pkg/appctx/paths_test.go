package appctx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	tmpDir := t.TempDir()

	paths, err := NewPaths(tmpDir)
	require.NoError(t, err)

	assert.NotNil(t, paths)
	assert.Equal(t, tmpDir, paths.BaseDir)
	assert.Equal(t, filepath.Join(tmpDir, "config.yaml"), paths.ConfigFile)
}

func TestPaths_Directories(t *testing.T) {
	tmpDir := t.TempDir()

	paths, err := NewPaths(tmpDir)
	require.NoError(t, err)

	// 验证目录路径不为空
	assert.NotEmpty(t, paths.BackupDir)
	assert.NotEmpty(t, paths.ConfigDir)

	// 验证目录已创建
	assert.DirExists(t, paths.BackupDir)
	assert.DirExists(t, paths.ConfigDir)
	assert.DirExists(t, paths.DataDir)
}

func TestNewWorkspacePaths(t *testing.T) {
	ws, err := NewWorkspacePaths("/proj/demo")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/proj/demo", "packages"), ws.PackagesDir)
	assert.Equal(t, filepath.Join("/proj/demo", "packages", "manifest.json"), ws.ManifestFile)
	assert.Equal(t, filepath.Join("/proj/demo", "packages", ".lumen", "modules.json"), ws.ModulesFile)
	assert.Equal(t, filepath.Join("/proj/demo", "packages", ".lumen", "resolve-request"), ws.ResolveRequest)
}

func TestWorkspacePaths_PackageDir(t *testing.T) {
	ws, err := NewWorkspacePaths("/proj/demo")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/proj/demo", "packages", "lumen-core"), ws.PackageDir("lumen-core"))
}

func TestNewWorkspacePaths_Relative(t *testing.T) {
	// 相對路徑應被解析為絕對路徑
	ws, err := NewWorkspacePaths(".")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(ws.Root))
}
