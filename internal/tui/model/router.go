package model

import (
	stderrors "errors"
	"fmt"
	"time"

	domainConfig "github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/domain/install"
	"github.com/Yat-Muk/lumen/internal/pkg/errors"
	"github.com/Yat-Muk/lumen/internal/pkg/version"
	"github.com/Yat-Muk/lumen/internal/suite"
	"github.com/Yat-Muk/lumen/internal/tui/handlers"
	"github.com/Yat-Muk/lumen/internal/tui/msg"
	"github.com/Yat-Muk/lumen/internal/tui/state"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// TickMsg 全局調度節拍
type TickMsg time.Time

// UninstallExitMsg 卸載完成後的延遲退出
type UninstallExitMsg struct{}

// Router 事件路由器
// 除了分發按鍵與服務消息，還托管安裝序列的運行時骨架：
// 追蹤器、序列器與就緒輪詢器只在一次安裝運行期間存活
type Router struct {
	stateMgr   *state.Manager
	keyHandler *handlers.KeyHandler
	cmdBuilder *handlers.CommandBuilder
	log        *zap.Logger

	// 安裝序列運行時，InstallStartMsg 時構建，收尾或失敗時清空
	tracker     *install.Tracker
	seq         *install.Sequencer
	poller      *install.ReadinessPoller
	pendingDone func()
	pendingCmd  tea.Cmd
	installer   suite.Installer
	secondaryCh chan tea.Msg
	retryCycle  int
}

// NewRouter 創建路由器
func NewRouter(cfg *handlers.Config) *Router {
	cmdBuilder := handlers.NewCommandBuilder(
		cfg.Log,
		cfg.StateMgr,
		cfg.ConfigSvc,
		cfg.InstallSvc,
		cfg.UninstallSvc,
		cfg.BackupMgr,
		cfg.Paths,
	)

	keyHandler := handlers.NewKeyHandler(cfg.StateMgr, cmdBuilder)

	return &Router{
		stateMgr:   cfg.StateMgr,
		keyHandler: keyHandler,
		cmdBuilder: cmdBuilder,
		log:        cfg.Log,
	}
}

// InitModel 用於 Model.Init 調用
func (r *Router) InitModel() tea.Cmd {
	return tea.Batch(
		r.stateMgr.UI().TextInput.Focus(),
		r.stateMgr.UI().Spinner.Tick,
		r.cmdBuilder.LoadConfigCmd(r.stateMgr),
		r.tickCmd(),
	)
}

// Update 適配 bubbletea 的 Update 簽名
func (r *Router) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	if cmd := r.routeMessage(message); cmd != nil {
		return nil, cmd
	}
	return nil, nil
}

// View 適配 bubbletea 的 View 簽名
func (r *Router) View() string {
	return r.stateMgr.Render()
}

// tickCmd 按當前配置的節拍間隔安排下一個 TickMsg
func (r *Router) tickCmd() tea.Cmd {
	interval := r.stateMgr.Config().GetConfig().Resolve.TickInterval()
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// routeMessage 內部路由邏輯
func (r *Router) routeMessage(message tea.Msg) tea.Cmd {
	m := r.stateMgr

	switch msgType := message.(type) {

	// 監聽窗口大小變化消息
	case tea.WindowSizeMsg:
		m.UI().Width = msgType.Width
		m.UI().Height = msgType.Height
		return nil

	case tea.KeyMsg:
		// 卸載最終確認階段：Esc 直接回退，其餘按鍵原樣進入輸入框，
		// 避免確認口令被菜單快捷鍵邏輯截走
		if m.UI().CurrentView == state.UninstallView && m.Uninstall().ConfirmStep == 1 {
			if msgType.Type == tea.KeyEsc {
				m.Uninstall().ConfirmStep = 0
				m.UI().TextInput.Reset()
				m.UI().SetStatus(state.StatusInfo, "已取消確認，請重新選擇", "", false)
				return nil
			}

			if msgType.Type == tea.KeyEnter || msgType.Type == tea.KeyCtrlC {
				_, cmd := r.keyHandler.Handle(msgType, m)
				return cmd
			}

			return m.UI().UpdateInput(message)
		}

		_, cmd := r.keyHandler.Handle(msgType, m)
		return cmd

	case TickMsg:
		var cmds []tea.Cmd
		if r.seq != nil && r.poller != nil && r.poller.Tick() {
			// 本節拍判定解析安定（或到達上限），進入查找
			cmds = append(cmds, r.cmdBuilder.LookupInstallerCmd(m))
		}
		cmds = append(cmds, r.tickCmd())
		return tea.Batch(cmds...)

	// ==================== 安裝序列 ====================

	case msg.InstallStartMsg:
		return r.startInstallSequence()

	case msg.EnvCheckedMsg:
		return r.handleEnvChecked(msgType)

	case msg.BootstrapRegisteredMsg:
		if r.seq == nil {
			return nil
		}
		if msgType.Err != nil {
			r.failInstall(fmt.Sprintf("註冊引導套件失敗: %v", msgType.Err))
			return nil
		}
		if msgType.Patched {
			r.tracker.AddLog("清單已寫入引導依賴")
		} else {
			r.tracker.AddLog("清單已有引導依賴，未做修改")
		}
		return r.advanceStage()

	case msg.PackageClonedMsg:
		if r.seq == nil {
			return nil
		}
		if msgType.Err != nil {
			r.failInstall(fmt.Sprintf("克隆套件 %s 失敗: %v", msgType.Package, msgType.Err))
			return nil
		}
		r.tracker.SetPackageProgress(msgType.Index, msgType.Total, msgType.Package)
		return r.advanceStage()

	case msg.RegistryLookupMsg:
		return r.handleRegistryLookup(msgType)

	case msg.RetryLookupMsg:
		if r.seq == nil {
			return nil
		}
		r.tracker.AddLog(fmt.Sprintf("第 %d 輪重試查找次級安裝器", msgType.Cycle))
		return r.cmdBuilder.LookupInstallerCmd(m)

	case msg.SecondaryStepMsg:
		if r.seq == nil || r.secondaryCh == nil {
			return nil
		}
		if install.MapSecondaryStep(msgType.Code) == install.StepComplete {
			// 代碼 11：安裝器宣告完成，把子進度推到段尾，收尾交給最後一個階段
			r.tracker.SetPackageProgress(install.SecondaryStepFinished, install.SecondaryStepFinished, "安裝器回報完成")
		} else {
			r.tracker.SetPackageProgress(msgType.Code, install.SecondaryStepFinished, msgType.Detail)
		}
		return r.cmdBuilder.ListenSecondaryCmd(r.secondaryCh)

	case msg.SecondaryDoneMsg:
		if r.seq == nil {
			return nil
		}
		if msgType.Err != nil {
			r.failInstall(fmt.Sprintf("次級安裝器執行失敗: %v", msgType.Err))
			return nil
		}
		return r.advanceStage()

	case msg.InstallFinishedMsg:
		m.Install().Finish()
		if msgType.State.Failed {
			m.UI().SetStatus(state.StatusError, "安裝失敗", "按 Enter 返回主菜單", true)
		} else {
			m.UI().SetStatus(state.StatusSuccess, "安裝完成", "按 Enter 查看結果", true)
		}
		r.teardownSequence()
		return nil

	// ==================== 配置 ====================

	case msg.ConfigLoadedMsg:
		m.UI().ConfigReady = true
		if msgType.Err != nil {
			if msgType.Silent {
				r.log.Warn("靜默加載配置失敗", zap.Error(msgType.Err))
				return nil
			}
			m.Config().UpdateConfig(domainConfig.DefaultConfig())
			m.UI().SetStatus(state.StatusFatal,
				fmt.Sprintf("配置加載失敗：%v", msgType.Err),
				"已回退到默認配置，按 Ctrl+C 退出", true)
			return nil
		}

		m.Config().UpdateConfig(msgType.Config)
		if !msgType.Silent {
			m.UI().SetStatus(state.StatusSuccess, "配置加載成功", "", true)
		}
		return nil

	case msg.ConfigUpdateMsg:
		if msgType.Err != nil {
			m.UI().SetStatus(state.StatusError, fmt.Sprintf("保存失敗: %v", msgType.Err), "", true)
			return nil
		}
		if msgType.Applied {
			m.UI().SetStatus(state.StatusSuccess, msgType.Message, "", true)
			// 靜默回讀，讓內存副本與磁盤一致並清掉未保存標記
			return r.cmdBuilder.LoadConfigSilentCmd(m)
		}
		return nil

	case msg.UpdateCheckedMsg:
		if msgType.Err != nil {
			m.UI().SetStatus(state.StatusWarn, "查詢最新版本失敗", msgType.Err.Error(), true)
			return nil
		}
		if msgType.Latest == "" || msgType.Latest == "v"+version.Version {
			m.UI().SetStatus(state.StatusSuccess, "當前已是最新版本", "", true)
			return nil
		}
		m.UI().SetStatus(state.StatusInfo,
			fmt.Sprintf("發現新版本 %s", msgType.Latest),
			"前往 github.com/Yat-Muk/lumen/releases 獲取", true)
		return nil

	// ==================== 備份 ====================

	case msg.BackupListMsg:
		if msgType.Err != nil {
			m.UI().SetStatus(state.StatusError, fmt.Sprintf("讀取備份列表失敗: %v", msgType.Err), "", true)
			return nil
		}
		m.Backup().SetBackupList(msgType.Entries)
		return nil

	case msg.BackupCreateMsg:
		if msgType.Err != nil {
			m.UI().SetStatus(state.StatusError, fmt.Sprintf("備份失敗: %v", msgType.Err), "", true)
			return nil
		}
		m.UI().SetStatus(state.StatusSuccess, "備份創建成功", "", true)
		return r.cmdBuilder.ListBackupsCmd()

	case msg.BackupRestoreMsg:
		if msgType.Err != nil {
			m.UI().SetStatus(state.StatusFatal,
				fmt.Sprintf("恢復備份失敗: %v", msgType.Err),
				"清單文件可能處於不一致狀態，請人工檢查", true)
			return nil
		}
		m.Backup().ResetSelection()
		m.UI().SetStatus(state.StatusSuccess, "備份恢復成功: "+msgType.Name, "", true)
		return nil

	case msg.BackupDeleteMsg:
		if msgType.Err != nil {
			m.UI().SetStatus(state.StatusError, fmt.Sprintf("刪除備份失敗: %v", msgType.Err), "", true)
			return nil
		}
		m.Backup().ResetSelection()
		m.UI().SetStatus(state.StatusSuccess, "備份已刪除: "+msgType.Name, "", true)
		return r.cmdBuilder.ListBackupsCmd()

	// ==================== 卸載 ====================

	case msg.UninstallInfoMsg:
		m.Uninstall().Scanning = false
		if msgType.Err != nil {
			m.UI().SetStatus(state.StatusError, fmt.Sprintf("掃描失敗: %v", msgType.Err), "", true)
			return nil
		}
		m.Uninstall().Info = msgType.Info
		return nil

	case msg.UninstallCompleteMsg:
		u := m.Uninstall()
		u.Uninstalling = false
		u.Steps = msgType.Steps

		if msgType.Err != nil || !msgType.Success {
			detail := "請檢查上方步驟列表"
			if msgType.Err != nil {
				detail = msgType.Err.Error()
			}
			m.UI().SetStatus(state.StatusError, "卸載未完全成功", detail, true)
			return nil
		}

		m.UI().SetStatus(state.StatusSuccess, "卸載完成，3 秒後退出程序", "", true)
		return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return UninstallExitMsg{}
		})

	case UninstallExitMsg:
		return tea.Quit

	default:
		// 剩餘消息（spinner 節拍、輸入框閃爍等）交給組件自己消化
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.UI().Spinner, cmd = m.UI().Spinner.Update(message)
		cmds = append(cmds, cmd)
		cmds = append(cmds, m.UI().UpdateInput(message))
		return tea.Batch(cmds...)
	}
}

// ==================== 安裝序列編排 ====================

// startInstallSequence 構建追蹤器與序列器並啟動第一個階段
func (r *Router) startInstallSequence() tea.Cmd {
	m := r.stateMgr
	cfg := m.Config().GetConfig()

	bands := cfg.Progress.Bands()
	if err := bands.Validate(); err != nil {
		r.log.Warn("進度分段配置無效，改用默認分段", zap.Error(err))
		bands = install.DefaultBands()
	}

	r.teardownSequence()

	// 追蹤器的每次變更同步寫入展示狀態；全程跑在調度循環上，無需加鎖
	r.tracker = install.NewTracker(bands, install.SinkFunc(func(s install.State) {
		m.Install().Apply(s)
	}))

	r.seq = install.NewSequencer(func() {
		r.log.Info("安裝序列結束", zap.String("run_id", r.tracker.State().RunID))
	})

	r.log.Info("啟動安裝序列",
		zap.String("workspace", cfg.Workspace.Dir),
		zap.String("bootstrap", cfg.Suite.BootstrapID))

	r.seq.Run(r.buildStages())

	// Run 已同步執行第一個 Action，取走它停泊的啟動命令
	first := r.pendingCmd
	r.pendingCmd = nil
	return first
}

// buildStages 組裝七個安裝階段
// 每個異步階段的 Action 只做三件事：推進追蹤器、停泊完成回調、停泊啟動命令；
// 真正的 I/O 都發生在命令閉包裏，結果以消息回流
func (r *Router) buildStages() []install.Stage {
	m := r.stateMgr

	return []install.Stage{
		{
			ID:          "check-environment",
			DisplayName: install.StepCheckEnvironment.DisplayName(),
			Action: func(done func()) {
				r.tracker.SetStep(install.StepCheckEnvironment, "檢查主機與工作區")
				r.pendingDone = done
				r.pendingCmd = r.cmdBuilder.EnvCheckCmd(m, true)
			},
		},
		{
			ID:          "register-bootstrap",
			DisplayName: install.StepDownloadPackage.DisplayName(),
			Action: func(done func()) {
				r.tracker.SetStep(install.StepDownloadPackage, "寫入清單並請求宿主解析")
				r.pendingDone = done
				r.pendingCmd = r.cmdBuilder.RegisterBootstrapCmd(m)
			},
		},
		r.cloneStage(install.StepInstallSecondaryA, 0),
		r.cloneStage(install.StepInstallSecondaryB, 1),
		{
			ID:          "await-resolve",
			DisplayName: install.StepLaunchSecondaryInstaller.DisplayName(),
			Action: func(done func()) {
				cfg := m.Config().GetConfig()

				r.tracker.SetStep(install.StepLaunchSecondaryInstaller, "等待宿主解析安定")
				r.pendingDone = done
				r.retryCycle = 0

				// 宿主不提供完成信號，按節拍計數推定安定；
				// 查找由全局 TickMsg 驅動，這裏不需要啟動命令
				r.poller = install.NewReadinessPoller(
					cfg.Resolve.SettleThreshold,
					cfg.Resolve.MaxAttempts,
					func(timedOut bool) {
						if timedOut {
							r.tracker.AddLog("等待解析到達節拍上限，直接嘗試查找")
							return
						}
						r.tracker.AddLog("宿主解析推定安定")
					},
				)
				r.pendingCmd = nil
			},
		},
		{
			ID:          "run-secondary",
			DisplayName: install.StepRunSecondaryInstall.DisplayName(),
			Action: func(done func()) {
				r.tracker.SetStep(install.StepRunSecondaryInstall, "移交次級安裝器")
				r.pendingDone = done
				r.secondaryCh = make(chan tea.Msg, 8)
				r.pendingCmd = r.cmdBuilder.StartSecondaryCmd(m, r.installer, r.secondaryCh)
			},
		},
		{
			ID:          "finalize",
			DisplayName: install.StepComplete.DisplayName(),
			Action: func(done func()) {
				// 唯一的同步階段：蓋上完成戳後立即回報
				r.tracker.SetStep(install.StepComplete, "全部階段執行完畢")
				done()
			},
		},
	}
}

// cloneStage 按配置順位生成套件克隆階段，配置缺位時原地跳過
func (r *Router) cloneStage(step install.Step, index int) install.Stage {
	m := r.stateMgr

	return install.Stage{
		ID:          fmt.Sprintf("clone-package-%d", index+1),
		DisplayName: step.DisplayName(),
		Action: func(done func()) {
			pkgs := m.Config().GetConfig().Suite.Packages

			if index >= len(pkgs) {
				r.tracker.SetStep(step, "未配置對應套件，跳過")
				done()
				return
			}

			r.tracker.SetStep(step, "克隆 "+pkgs[index].Name)
			r.pendingDone = done
			r.pendingCmd = r.cmdBuilder.ClonePackageCmd(m, pkgs[index], index+1, len(pkgs))
		},
	}
}

// handleEnvChecked 環境檢查結果分流：安裝序列第一階段或獨立檢查視圖
func (r *Router) handleEnvChecked(result msg.EnvCheckedMsg) tea.Cmd {
	m := r.stateMgr

	// 兩種用途都把結果回寫環境視圖
	m.Env().Apply(result.Summary)

	if !result.ForInstall {
		if result.Err != nil {
			m.UI().SetStatus(state.StatusError, fmt.Sprintf("環境檢查發現問題: %v", result.Err), "", true)
			return nil
		}
		m.UI().SetStatus(state.StatusSuccess, "環境檢查完成", "", true)
		return nil
	}

	if r.seq == nil {
		return nil
	}

	if result.Err != nil {
		r.failInstall(fmt.Sprintf("環境檢查未通過: %v", result.Err))
		return nil
	}

	// 已安裝不是錯誤：直接蓋完成戳並跳到完成頁，不觸碰工作區
	if result.Summary.AlreadyInstalled {
		r.tracker.SetStep(install.StepComplete, "偵測到既有安裝，未做任何修改")
		m.Install().Finish()
		r.teardownSequence()
		return m.UI().SwitchView(state.InstallCompleteView)
	}

	r.tracker.AddLog("環境檢查通過")
	return r.advanceStage()
}

// handleRegistryLookup 查找結果分流：重試、失敗或進入移交
func (r *Router) handleRegistryLookup(result msg.RegistryLookupMsg) tea.Cmd {
	m := r.stateMgr

	if r.seq == nil {
		return nil
	}

	if result.Err != nil {
		// 宿主尚未解析屬於可重試錯誤，按配置的退避序列重試
		if stderrors.Is(result.Err, errors.ErrModuleUnresolved) {
			cfg := m.Config().GetConfig()
			r.retryCycle++

			if r.retryCycle <= cfg.Resolve.MaxRetryCycles() {
				backoff := cfg.Resolve.RetryBackoff(r.retryCycle)
				r.tracker.AddLog(fmt.Sprintf("模組尚未解析，%s 後重試 (%d/%d)",
					backoff, r.retryCycle, cfg.Resolve.MaxRetryCycles()))

				cycle := r.retryCycle
				return tea.Tick(backoff, func(time.Time) tea.Msg {
					return msg.RetryLookupMsg{Cycle: cycle}
				})
			}

			timeoutErr := errors.New("REG002",
				fmt.Sprintf("重試 %d 輪後宿主仍未解析安裝器模組", cfg.Resolve.MaxRetryCycles()))
			r.failInstall(timeoutErr.Error())
			return nil
		}

		// 未註冊等永久性錯誤，重試沒有意義
		r.failInstall(fmt.Sprintf("查找次級安裝器失敗: %v", result.Err))
		return nil
	}

	r.installer = result.Installer
	r.poller = nil
	r.tracker.AddLog("次級安裝器就緒")
	return r.advanceStage()
}

// advanceStage 調用停泊的完成回調推進序列，並取走下一階段的啟動命令
func (r *Router) advanceStage() tea.Cmd {
	if r.seq == nil || r.pendingDone == nil {
		return nil
	}

	done := r.pendingDone
	r.pendingDone = nil
	r.pendingCmd = nil

	// 同步推進：下一階段的 Action 會重新停泊回調與命令
	done()

	if !r.seq.Running() {
		finalState := r.tracker.State()
		return func() tea.Msg {
			return msg.InstallFinishedMsg{State: finalState}
		}
	}

	next := r.pendingCmd
	r.pendingCmd = nil
	return next
}

// failInstall 記錄錯誤並終止序列；序列器停在原地，不再推進
func (r *Router) failInstall(message string) {
	if r.tracker != nil {
		r.tracker.SetError(message)
	}

	r.log.Error("安裝序列失敗", zap.String("reason", message))

	m := r.stateMgr
	m.Install().Finish()
	m.UI().SetStatus(state.StatusError, "安裝失敗", "按 Enter 返回主菜單", true)
	r.teardownSequence()
}

// teardownSequence 清空安裝序列運行時
func (r *Router) teardownSequence() {
	r.tracker = nil
	r.seq = nil
	r.poller = nil
	r.pendingDone = nil
	r.pendingCmd = nil
	r.installer = nil
	r.secondaryCh = nil
	r.retryCycle = 0
}
