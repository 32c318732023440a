package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/infra/backup"
	"github.com/Yat-Muk/lumen/internal/infra/git"
	"github.com/Yat-Muk/lumen/internal/infra/host"
	"github.com/Yat-Muk/lumen/internal/infra/manifest"
	"github.com/Yat-Muk/lumen/internal/infra/system"
	"github.com/Yat-Muk/lumen/internal/pkg/appctx"
	"github.com/Yat-Muk/lumen/internal/pkg/crypto"
	"github.com/Yat-Muk/lumen/internal/pkg/errors"
	"github.com/Yat-Muk/lumen/internal/suite"
)

// --- 測試替身 ---

type stubHostClient struct {
	modules    []host.Module
	modulesErr error
	resolveErr error
	removeErr  error
	resolved   []string
	removed    []string
}

func (s *stubHostClient) Resolve(ctx context.Context, ws *appctx.WorkspacePaths, runID string) error {
	s.resolved = append(s.resolved, runID)
	return s.resolveErr
}

func (s *stubHostClient) Remove(ctx context.Context, ws *appctx.WorkspacePaths, id string) error {
	s.removed = append(s.removed, id)
	return s.removeErr
}

func (s *stubHostClient) Modules(ctx context.Context, ws *appctx.WorkspacePaths) ([]host.Module, error) {
	return s.modules, s.modulesErr
}

type cloneCall struct {
	url    string
	branch string
	dir    string
	depth  int
}

type stubGitRunner struct {
	repos    map[string]bool
	cloneErr error
	cloned   []cloneCall
}

func (g *stubGitRunner) Clone(ctx context.Context, opts git.Options, repoURL, branch, targetDir string) error {
	g.cloned = append(g.cloned, cloneCall{url: repoURL, branch: branch, dir: targetDir, depth: opts.CloneDepth})
	return g.cloneErr
}

func (g *stubGitRunner) IsRepo(dir string) bool {
	return g.repos[dir]
}

type fakeSecondary struct {
	name   string
	codes  []int
	runErr error
}

func (f *fakeSecondary) Name() string { return f.name }

func (f *fakeSecondary) Run(ctx context.Context, ws *appctx.WorkspacePaths, report suite.ReportFunc) error {
	for _, c := range f.codes {
		report(c, fmt.Sprintf("step %d", c))
	}
	return f.runErr
}

// --- 公共輔助 ---

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available in test environment")
	}
}

func newWorkspace(t *testing.T, manifestContent string) *appctx.WorkspacePaths {
	t.Helper()

	ws, err := appctx.NewWorkspacePaths(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(ws.PackagesDir, 0755); err != nil {
		t.Fatal(err)
	}
	if manifestContent != "" {
		if err := os.WriteFile(ws.ManifestFile, []byte(manifestContent), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return ws
}

func newInstallService(t *testing.T, hostCli host.Client, gitRunner *stubGitRunner, backupMgr *backup.Manager) *InstallService {
	t.Helper()

	logger := zap.NewNop()
	executor := system.NewExecutor(logger)
	return NewInstallService(
		system.NewInspector(executor, logger),
		manifest.NewFileEditor(logger),
		hostCli,
		gitRunner,
		suite.NewRegistry(hostCli, logger),
		backupMgr,
		logger,
	)
}

// --- 環境檢查 ---

func TestInstallService_CheckEnvironment(t *testing.T) {
	requireGit(t)

	ws := newWorkspace(t, `{"dependencies": {}}`)
	cfg := config.DefaultConfig()
	svc := newInstallService(t, &stubHostClient{}, &stubGitRunner{}, nil)
	ctx := context.Background()

	check, err := svc.CheckEnvironment(ctx, cfg, ws)
	if err != nil {
		t.Fatalf("CheckEnvironment failed: %v", err)
	}
	if !check.Report.GitFound() {
		t.Error("git should be detected")
	}
	if !check.ManifestPresent {
		t.Error("manifest should be detected")
	}
	if check.AlreadyInstalled {
		t.Error("fresh workspace must not read as installed")
	}

	// 造出已安裝痕跡：清單含依賴鍵 + 鎖定文件
	manifestWithDep := fmt.Sprintf(`{"dependencies": {"%s": "%s"}}`,
		cfg.Suite.BootstrapID, cfg.Suite.BootstrapVersion)
	if err := os.WriteFile(ws.ManifestFile, []byte(manifestWithDep), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(ws.StateDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(suite.LockPath(ws), []byte(`{"schema_version": 1}`), 0644); err != nil {
		t.Fatal(err)
	}

	check, err = svc.CheckEnvironment(ctx, cfg, ws)
	if err != nil {
		t.Fatalf("CheckEnvironment on installed workspace failed: %v", err)
	}
	if !check.AlreadyInstalled {
		t.Error("lock file + manifest entry should read as already installed")
	}

	// 只有鎖定文件、清單裏沒有依賴 → 殘留，不算已安裝
	if err := os.WriteFile(ws.ManifestFile, []byte(`{"dependencies": {}}`), 0644); err != nil {
		t.Fatal(err)
	}
	check, err = svc.CheckEnvironment(ctx, cfg, ws)
	if err != nil {
		t.Fatal(err)
	}
	if check.AlreadyInstalled {
		t.Error("stale lock without manifest entry must not read as installed")
	}
}

func TestInstallService_CheckEnvironment_GitMissing(t *testing.T) {
	ws := newWorkspace(t, `{"dependencies": {}}`)
	cfg := config.DefaultConfig()
	cfg.Git.Binary = "lumen-no-such-git"

	svc := newInstallService(t, &stubHostClient{}, &stubGitRunner{}, nil)

	check, err := svc.CheckEnvironment(context.Background(), cfg, ws)
	if err == nil {
		t.Fatal("expected git-missing error")
	}
	if !stderrors.Is(err, errors.ErrGitNotFound) {
		t.Errorf("expected ErrGitNotFound, got: %v", err)
	}
	if code := errors.CodeOf(err); code != "ENV002" {
		t.Errorf("expected ENV002, got %q", code)
	}
	// 出錯時結果仍然有效，檢查視圖要展示報告
	if check == nil || check.Report == nil {
		t.Fatal("check result should be returned alongside the error")
	}
}

func TestInstallService_CheckEnvironment_WorkspaceInvalid(t *testing.T) {
	requireGit(t)

	cfg := config.DefaultConfig()
	svc := newInstallService(t, &stubHostClient{}, &stubGitRunner{}, nil)
	ctx := context.Background()

	// 沒有 packages 目錄
	bare, err := appctx.NewWorkspacePaths(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.CheckEnvironment(ctx, cfg, bare)
	if !stderrors.Is(err, errors.ErrWorkspaceInvalid) {
		t.Errorf("expected ErrWorkspaceInvalid for missing packages dir, got: %v", err)
	}
	if code := errors.CodeOf(err); code != "ENV003" {
		t.Errorf("expected ENV003, got %q", code)
	}

	// 有 packages 目錄但沒有清單
	noManifest := newWorkspace(t, "")
	check, err := svc.CheckEnvironment(ctx, cfg, noManifest)
	if !stderrors.Is(err, errors.ErrWorkspaceInvalid) {
		t.Errorf("expected ErrWorkspaceInvalid for missing manifest, got: %v", err)
	}
	if check == nil || check.ManifestPresent {
		t.Error("manifest must be reported absent")
	}
}

// --- 註冊引導依賴 ---

func TestInstallService_RegisterBootstrap(t *testing.T) {
	original := "{\n  \"dependencies\": {\n    \"com.existing\": \"1.0.0\"\n  }\n}\n"
	ws := newWorkspace(t, original)
	cfg := config.DefaultConfig()
	cfg.Backup.Enabled = true

	backupBase := t.TempDir()
	encryptor, err := crypto.NewEncryptor(filepath.Join(backupBase, "master.key"))
	if err != nil {
		t.Fatal(err)
	}
	mgr, err := backup.NewManager(
		filepath.Join(backupBase, "backups"),
		encryptor,
		backup.RetentionPolicy{MaxFiles: 5},
	)
	if err != nil {
		t.Fatal(err)
	}

	hostCli := host.NewFileClient(zap.NewNop())
	svc := newInstallService(t, hostCli, &stubGitRunner{}, mgr)
	ctx := context.Background()

	patched, err := svc.RegisterBootstrap(ctx, cfg, ws, "run-001")
	if err != nil {
		t.Fatalf("RegisterBootstrap failed: %v", err)
	}
	if !patched {
		t.Error("first registration should patch the manifest")
	}

	data, err := os.ReadFile(ws.ManifestFile)
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("%q: %q,", cfg.Suite.BootstrapID, cfg.Suite.BootstrapVersion)
	if !strings.Contains(string(data), want) {
		t.Errorf("manifest missing bootstrap entry %s:\n%s", want, data)
	}
	if !strings.Contains(string(data), `"com.existing": "1.0.0"`) {
		t.Error("existing dependency must survive the patch")
	}

	// 解析請求帶着運行 ID 落盤
	req, err := os.ReadFile(ws.ResolveRequest)
	if err != nil {
		t.Fatalf("resolve request not written: %v", err)
	}
	if !strings.Contains(string(req), "run-001") {
		t.Errorf("resolve request should carry the run id, got: %s", req)
	}

	// 修改前的清單進了備份
	backups, err := mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(backups))
	}
	if !strings.Contains(backups[0].Name, "pre-install") {
		t.Errorf("backup should be tagged pre-install: %s", backups[0].Name)
	}
	saved, err := os.ReadFile(backups[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(saved) != original {
		t.Error("backup must hold the pre-patch manifest bytes")
	}

	// 冪等：第二次不動清單，但解析請求照發
	afterFirst, _ := os.ReadFile(ws.ManifestFile)
	patched, err = svc.RegisterBootstrap(ctx, cfg, ws, "run-002")
	if err != nil {
		t.Fatalf("second RegisterBootstrap failed: %v", err)
	}
	if patched {
		t.Error("second registration must be a no-op on the manifest")
	}
	afterSecond, _ := os.ReadFile(ws.ManifestFile)
	if string(afterFirst) != string(afterSecond) {
		t.Error("manifest bytes changed on an idempotent re-run")
	}
	req, _ = os.ReadFile(ws.ResolveRequest)
	if !strings.Contains(string(req), "run-002") {
		t.Error("resolve request should be refreshed with the new run id")
	}
}

func TestInstallService_RegisterBootstrap_ManifestMissing(t *testing.T) {
	ws := newWorkspace(t, "")
	cfg := config.DefaultConfig()

	svc := newInstallService(t, &stubHostClient{}, &stubGitRunner{}, nil)

	_, err := svc.RegisterBootstrap(context.Background(), cfg, ws, "run-001")
	if err == nil {
		t.Fatal("expected manifest-not-found error")
	}
	if code := errors.CodeOf(err); code != "MAN001" {
		t.Errorf("expected MAN001, got %q", code)
	}
}

// --- 套件克隆 ---

func TestInstallService_ClonePackage(t *testing.T) {
	ws := newWorkspace(t, `{"dependencies": {}}`)
	cfg := config.DefaultConfig()
	cfg.Git.CloneDepth = 3
	gitStub := &stubGitRunner{repos: map[string]bool{}}
	svc := newInstallService(t, &stubHostClient{}, gitStub, nil)
	ctx := context.Background()

	pkg := config.PackageConfig{
		Name:    "lumen-core",
		RepoURL: "https://github.com/Yat-Muk/lumen-core.git",
		Branch:  "main",
	}

	dir, err := svc.ClonePackage(ctx, cfg, ws, pkg)
	if err != nil {
		t.Fatalf("ClonePackage failed: %v", err)
	}
	if dir != ws.PackageDir(pkg.Name) {
		t.Errorf("unexpected target dir: %s", dir)
	}
	if len(gitStub.cloned) != 1 {
		t.Fatalf("expected 1 clone call, got %d", len(gitStub.cloned))
	}
	call := gitStub.cloned[0]
	if call.url != pkg.RepoURL || call.branch != pkg.Branch || call.dir != dir {
		t.Errorf("clone called with wrong arguments: %+v", call)
	}
	// 克隆深度取自當前配置，不是構造時的快照
	if call.depth != 3 {
		t.Errorf("clone depth should come from the passed config, got %d", call.depth)
	}

	// 已是 git 倉庫 → 跳過
	gitStub.repos[dir] = true
	if _, err := svc.ClonePackage(ctx, cfg, ws, pkg); err != nil {
		t.Fatalf("skip path failed: %v", err)
	}
	if len(gitStub.cloned) != 1 {
		t.Error("existing repo must not be cloned again")
	}

	// 克隆失敗原樣上拋
	gitStub.repos = map[string]bool{}
	gitStub.cloneErr = fmt.Errorf("clone exploded")
	if _, err := svc.ClonePackage(ctx, cfg, ws, pkg); err == nil {
		t.Error("clone failure should propagate")
	}
}

// --- 次級安裝器查找與移交 ---

func TestInstallService_LookupInstaller(t *testing.T) {
	moduleName := config.DefaultConfig().Suite.InstallerModule
	ws := newWorkspace(t, `{"dependencies": {}}`)
	hostCli := &stubHostClient{}
	svc := newInstallService(t, hostCli, &stubGitRunner{}, nil)
	ctx := context.Background()

	inst := &fakeSecondary{name: moduleName}
	if err := svc.registry.Register(inst); err != nil {
		t.Fatal(err)
	}

	// 宿主還沒解析 → 可重試的未解析錯誤
	_, err := svc.LookupInstaller(ctx, ws, moduleName)
	if !stderrors.Is(err, errors.ErrModuleUnresolved) {
		t.Errorf("expected ErrModuleUnresolved before resolve, got: %v", err)
	}
	if code := errors.CodeOf(err); code != "REG001" {
		t.Errorf("expected REG001, got %q", code)
	}

	// 宿主解析完成 → 命中
	hostCli.modules = []host.Module{
		{Name: moduleName, ID: "com.lumen.bootstrap", Version: "1.4.0"},
	}
	got, err := svc.LookupInstaller(ctx, ws, moduleName)
	if err != nil {
		t.Fatalf("LookupInstaller failed after resolve: %v", err)
	}
	if got.(*fakeSecondary) != inst {
		t.Error("lookup should return the registered installer")
	}

	// 壓根沒註冊的模組 → 永久性未找到
	_, err = svc.LookupInstaller(ctx, ws, "Lumen.Unknown.Module")
	if !stderrors.Is(err, errors.ErrModuleNotFound) {
		t.Errorf("expected ErrModuleNotFound, got: %v", err)
	}
}

func TestInstallService_RunSecondary(t *testing.T) {
	ws := newWorkspace(t, `{"dependencies": {}}`)
	svc := newInstallService(t, &stubHostClient{}, &stubGitRunner{}, nil)
	ctx := context.Background()

	// 成功：步驟碼原樣流出
	inst := &fakeSecondary{name: "Lumen.Suite.Installer", codes: []int{0, 1, 2, 11}}
	var got []int
	err := svc.RunSecondary(ctx, ws, inst, func(code int, detail string) {
		got = append(got, code)
	})
	if err != nil {
		t.Fatalf("RunSecondary failed: %v", err)
	}
	if len(got) != 4 || got[len(got)-1] != suite.StepCodeFinished {
		t.Errorf("unexpected code stream: %v", got)
	}

	// 安裝器缺失
	err = svc.RunSecondary(ctx, ws, nil, func(int, string) {})
	if !stderrors.Is(err, errors.ErrHandoffFailed) {
		t.Errorf("expected ErrHandoffFailed for nil installer, got: %v", err)
	}
	if code := errors.CodeOf(err); code != "RUN001" {
		t.Errorf("expected RUN001, got %q", code)
	}

	// 裸錯誤包上 RUN001
	bare := &fakeSecondary{name: "X", runErr: fmt.Errorf("boom")}
	err = svc.RunSecondary(ctx, ws, bare, func(int, string) {})
	if code := errors.CodeOf(err); code != "RUN001" {
		t.Errorf("expected RUN001 for uncoded failure, got %q", code)
	}

	// 已帶代碼的錯誤保持原碼
	coded := &fakeSecondary{name: "Y", runErr: errors.New("REG002", "解析超時")}
	err = svc.RunSecondary(ctx, ws, coded, func(int, string) {})
	if code := errors.CodeOf(err); code != "REG002" {
		t.Errorf("coded failure must keep its code, got %q", code)
	}
}
