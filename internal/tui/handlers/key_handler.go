package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Yat-Muk/lumen/internal/domain/validator"
	"github.com/Yat-Muk/lumen/internal/pkg/inputvalidator"
	"github.com/Yat-Muk/lumen/internal/tui/constants"
	"github.com/Yat-Muk/lumen/internal/tui/msg"
	"github.com/Yat-Muk/lumen/internal/tui/state"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyHandler 核心處理器：負責全局導航和請求分發
type KeyHandler struct {
	stateMgr   *state.Manager
	cmdBuilder *CommandBuilder
}

func NewKeyHandler(
	stateMgr *state.Manager,
	cmdBuilder *CommandBuilder,
) *KeyHandler {
	return &KeyHandler{
		stateMgr:   stateMgr,
		cmdBuilder: cmdBuilder,
	}
}

// Handle 處理全局按鍵
func (h *KeyHandler) Handle(keyMsg tea.KeyMsg, m *state.Manager) (*state.Manager, tea.Cmd) {
	if keyMsg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	// 安裝進度頁的專用攔截邏輯：序列結束前吞掉所有按鍵
	if m.UI().CurrentView == state.InstallProgressView {
		if m.Install().IsFinished && keyMsg.Type == tea.KeyEnter {
			if m.Install().Snapshot.Failed {
				return m, m.UI().SwitchView(state.MainMenuView)
			}
			return m, m.UI().SwitchView(state.InstallCompleteView)
		}
		return m, nil
	}

	currentView := m.UI().CurrentView

	switch keyMsg.Type {
	case tea.KeyEnter:
		return h.handleInputSubmit(m, currentView)

	case tea.KeyEsc:
		return h.handleInputEscape(m, currentView)

	default:
		// 所有輸入交給組件，UpdateInput 會返回閃爍計時器的 Cmd
		return m, m.UI().UpdateInput(keyMsg)
	}
}

// handleInputSubmit 按回車時分發輸入緩衝區的內容
func (h *KeyHandler) handleInputSubmit(m *state.Manager, currentView state.View) (*state.Manager, tea.Cmd) {
	input := strings.TrimSpace(m.UI().GetInputBuffer())
	input = inputvalidator.SanitizeInput(input)
	input = inputvalidator.TruncateInput(input, inputvalidator.MaxInputBuffer)
	m.UI().ClearInput()

	// 空回車只在這幾個視圖有意義：重試、返回、取消編輯
	if input == "" {
		switch currentView {
		case state.EnvCheckView, state.InstallCompleteView, state.SettingsEditView:
		default:
			return m, nil
		}
	}

	switch currentView {
	case state.MainMenuView:
		return h.submitMainMenu(m, input)

	case state.EnvCheckView:
		return h.submitEnvCheck(m)

	case state.InstallWizardView:
		return h.submitInstallWizard(m, input)

	case state.InstallCompleteView:
		return m, m.UI().SwitchView(state.MainMenuView)

	case state.SettingsView:
		return h.submitSettings(m, input)

	case state.SettingsEditView:
		return h.submitSettingsEdit(m, input)

	case state.BackupMenuView:
		return h.submitBackupMenu(m, input)

	case state.UninstallView:
		return h.submitUninstall(m, input)

	case state.UninstallProgressView:
		// 卸載過程中不響應，結束後由退出計時器收尾
		return m, nil

	case state.AboutView:
		return h.submitAbout(m, input)

	default:
		return m, nil
	}
}

// ========================================
// 各視圖的提交邏輯
// ========================================

func (h *KeyHandler) submitMainMenu(m *state.Manager, input string) (*state.Manager, tea.Cmd) {
	switch strings.ToLower(input) {
	case constants.KeyMain_Install:
		m.Install().Reset()
		return m, m.UI().SwitchView(state.InstallWizardView)

	case constants.KeyMain_EnvCheck:
		m.Env().Begin()
		return m, tea.Batch(
			m.UI().SwitchView(state.EnvCheckView),
			h.cmdBuilder.EnvCheckCmd(m, false),
		)

	case constants.KeyMain_Settings:
		return m, m.UI().SwitchView(state.SettingsView)

	case constants.KeyMain_Backup:
		m.Backup().ResetSelection()
		return m, tea.Batch(
			m.UI().SwitchView(state.BackupMenuView),
			h.cmdBuilder.ListBackupsCmd(),
		)

	case constants.KeyMain_About:
		return m, m.UI().SwitchView(state.AboutView)

	case constants.KeyMain_Uninstall:
		m.Uninstall().Reset()
		return m, tea.Batch(
			m.UI().SwitchView(state.UninstallView),
			h.cmdBuilder.UninstallScanCmd(m),
		)

	case constants.KeyMain_Quit:
		return m, tea.Quit

	default:
		m.UI().SetStatus(state.StatusError, "無效選擇: "+input, "", true)
		return m, nil
	}
}

func (h *KeyHandler) submitEnvCheck(m *state.Manager) (*state.Manager, tea.Cmd) {
	if m.Env().Checking {
		return m, nil
	}

	m.Env().Begin()
	m.UI().SetStatus(state.StatusInfo, "正在重新檢測環境...", "", true)
	return m, h.cmdBuilder.EnvCheckCmd(m, false)
}

// submitAbout 關於頁：u 檢查更新，其餘輸入返回主菜單
func (h *KeyHandler) submitAbout(m *state.Manager, input string) (*state.Manager, tea.Cmd) {
	if strings.EqualFold(input, constants.KeyAbout_CheckUpdate) {
		m.UI().SetStatus(state.StatusInfo, "正在查詢最新版本...", "", true)
		return m, h.cmdBuilder.CheckUpdateCmd()
	}
	return m, m.UI().SwitchView(state.MainMenuView)
}

func (h *KeyHandler) submitInstallWizard(m *state.Manager, input string) (*state.Manager, tea.Cmd) {
	switch strings.ToLower(input) {
	case constants.KeyWizard_Start:
		m.Install().Reset()
		return m, tea.Batch(
			m.UI().SwitchView(state.InstallProgressView),
			func() tea.Msg { return msg.InstallStartMsg{} },
		)

	case constants.KeyWizard_Workspace:
		return h.startFieldEdit(m, state.FieldWorkspaceDir)

	default:
		m.UI().SetStatus(state.StatusError, "無效選擇: "+input, "", true)
		return m, nil
	}
}

func (h *KeyHandler) submitSettings(m *state.Manager, input string) (*state.Manager, tea.Cmd) {
	cfgState := m.Config()

	// 未保存修改的退出確認
	if cfgState.ExitConfirmMode {
		if strings.EqualFold(input, "yes") {
			cfgState.ExitConfirmMode = false
			switchCmd := m.UI().SwitchView(state.MainMenuView)
			m.UI().SetStatus(state.StatusInfo, "已放棄未保存的修改", "", true)
			return m, tea.Batch(switchCmd, h.cmdBuilder.LoadConfigSilentCmd(m))
		}

		cfgState.ExitConfirmMode = false
		m.UI().SetStatus(state.StatusInfo, "已取消，繼續編輯", "", true)
		return m, nil
	}

	switch strings.ToLower(input) {
	case constants.KeySettings_Workspace:
		return h.startFieldEdit(m, state.FieldWorkspaceDir)

	case constants.KeySettings_BootstrapVer:
		return h.startFieldEdit(m, state.FieldBootstrapVersion)

	case constants.KeySettings_CoreRepo:
		return h.startFieldEdit(m, state.FieldCoreRepo)

	case constants.KeySettings_AssetsRepo:
		return h.startFieldEdit(m, state.FieldAssetsRepo)

	case constants.KeySettings_TickInterval:
		return h.startFieldEdit(m, state.FieldTickInterval)

	case constants.KeySettings_SettleTicks:
		return h.startFieldEdit(m, state.FieldSettleThreshold)

	case constants.KeySettings_MaxAttempts:
		return h.startFieldEdit(m, state.FieldMaxAttempts)

	case constants.KeySettings_CloneDepth:
		return h.startFieldEdit(m, state.FieldCloneDepth)

	case constants.KeySettings_Save:
		if !cfgState.HasUnsavedChanges {
			m.UI().SetStatus(state.StatusInfo, "沒有需要保存的修改", "", true)
			return m, nil
		}
		m.UI().SetStatus(state.StatusInfo, "正在保存設定...", "", true)
		return m, h.cmdBuilder.SaveConfigCmd(m)

	case constants.KeySettings_Reset:
		if !cfgState.HasUnsavedChanges {
			m.UI().SetStatus(state.StatusInfo, "沒有未保存的修改", "", true)
			return m, nil
		}
		m.UI().SetStatus(state.StatusSuccess, "已還原為已保存的設定", "", true)
		return m, h.cmdBuilder.LoadConfigSilentCmd(m)

	default:
		m.UI().SetStatus(state.StatusError, "無效選擇: "+input, "", true)
		return m, nil
	}
}

// startFieldEdit 進入單字段編輯視圖
func (h *KeyHandler) startFieldEdit(m *state.Manager, f state.SettingsField) (*state.Manager, tea.Cmd) {
	m.Config().Editing = f
	return m, m.UI().SwitchView(state.SettingsEditView)
}

func (h *KeyHandler) submitSettingsEdit(m *state.Manager, input string) (*state.Manager, tea.Cmd) {
	cfgState := m.Config()
	field := cfgState.Editing

	// 空回車等同取消
	if input == "" {
		cfgState.Editing = state.FieldNone
		switchCmd := m.UI().SwitchView(m.UI().PreviousView)
		m.UI().SetStatus(state.StatusInfo, "已取消修改", "", true)
		return m, switchCmd
	}

	if err := inputvalidator.ValidateLength(input, inputvalidator.MaxFieldLength, field.Label()); err != nil {
		m.UI().SetStatus(state.StatusError, err.Error(), "", true)
		return m, nil
	}

	if err := h.applyFieldEdit(m, field, input); err != nil {
		m.UI().SetStatus(state.StatusError, err.Error(), "", true)
		return m, nil
	}

	cfgState.Editing = state.FieldNone
	cfgState.MarkUnsaved()

	switchCmd := m.UI().SwitchView(m.UI().PreviousView)
	m.UI().SetStatus(state.StatusSuccess, field.Label()+" 已更新 (未保存)", "在偏好設定中按 s 寫入配置文件", true)
	return m, switchCmd
}

// applyFieldEdit 校驗並寫入單個設定項，只改內存副本
func (h *KeyHandler) applyFieldEdit(m *state.Manager, field state.SettingsField, value string) error {
	cfg := m.Config().GetConfig()

	switch field {
	case state.FieldWorkspaceDir:
		cfg.Workspace.Dir = value

	case state.FieldBootstrapVersion:
		cfg.Suite.BootstrapVersion = value

	case state.FieldCoreRepo:
		if !validator.ValidateRepoURL(value) {
			return fmt.Errorf("倉庫地址格式無效: %s", value)
		}
		m.Config().SetPackageRepo("lumen-core", value)

	case state.FieldAssetsRepo:
		if !validator.ValidateRepoURL(value) {
			return fmt.Errorf("倉庫地址格式無效: %s", value)
		}
		m.Config().SetPackageRepo("lumen-assets", value)

	case state.FieldTickInterval:
		n, err := strconv.Atoi(value)
		if err != nil || n < 100 {
			return fmt.Errorf("請輸入不小於 100 的毫秒數")
		}
		cfg.Resolve.TickIntervalMS = n

	case state.FieldSettleThreshold:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("請輸入不小於 1 的整數")
		}
		cfg.Resolve.SettleThreshold = n

	case state.FieldMaxAttempts:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("請輸入不小於 1 的整數")
		}
		cfg.Resolve.MaxAttempts = n

	case state.FieldCloneDepth:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("請輸入不小於 0 的整數")
		}
		cfg.Git.CloneDepth = n

	default:
		return fmt.Errorf("未知設定項")
	}

	return nil
}

func (h *KeyHandler) submitBackupMenu(m *state.Manager, input string) (*state.Manager, tea.Cmd) {
	backupState := m.Backup()

	// 最終確認：恢復/刪除需輸入 YES
	if backupState.ConfirmMode {
		if !strings.EqualFold(input, "yes") {
			backupState.ResetSelection()
			m.UI().SetStatus(state.StatusInfo, "已取消操作", "", true)
			return m, nil
		}

		item, ok := backupState.GetBackupByIndex(backupState.BackupListCursor)
		if !ok {
			backupState.ResetSelection()
			m.UI().SetStatus(state.StatusError, "備份條目已失效，請重新選擇", "", true)
			return m, h.cmdBuilder.ListBackupsCmd()
		}

		op := backupState.PendingOp
		backupState.ConfirmMode = false
		backupState.SelectingIndex = false

		if op == "delete" {
			m.UI().SetStatus(state.StatusInfo, "正在刪除備份...", "", true)
			return m, h.cmdBuilder.DeleteBackupCmd(item.Name)
		}

		m.UI().SetStatus(state.StatusInfo, "正在恢復備份...", "", true)
		return m, h.cmdBuilder.RestoreBackupCmd(m, item.Name)
	}

	// 序號選擇：輸入列表編號後進入確認
	if backupState.SelectingIndex {
		idx, err := inputvalidator.ParseMenuNumber(input, len(backupState.BackupList))
		if err != nil {
			m.UI().SetStatus(state.StatusError, fmt.Sprintf("請輸入 1-%d 之間的編號", len(backupState.BackupList)), "", true)
			return m, nil
		}

		item, _ := backupState.GetBackupByIndex(idx - 1)
		backupState.BackupListCursor = idx - 1
		backupState.SelectedBackup = item.Name
		backupState.SelectingIndex = false
		backupState.ConfirmMode = true
		m.UI().Cursor = idx - 1

		verb := "恢復"
		if backupState.PendingOp == "delete" {
			verb = "刪除"
		}
		m.UI().SetStatus(state.StatusWarn, fmt.Sprintf("即將%s: %s，輸入 YES 確認", verb, item.Name), "", true)
		return m, nil
	}

	switch strings.ToLower(input) {
	case constants.KeyBackup_Create:
		m.UI().SetStatus(state.StatusInfo, "正在備份當前清單...", "", true)
		return m, h.cmdBuilder.CreateBackupCmd(m)

	case constants.KeyBackup_Restore:
		if len(backupState.BackupList) == 0 {
			m.UI().SetStatus(state.StatusError, "沒有可用的備份文件", "", true)
			return m, nil
		}
		backupState.SelectingIndex = true
		backupState.PendingOp = "restore"
		m.UI().SetStatus(state.StatusInfo, fmt.Sprintf("輸入要恢復的備份編號 (1-%d)", len(backupState.BackupList)), "", true)
		return m, nil

	case constants.KeyBackup_Delete:
		if len(backupState.BackupList) == 0 {
			m.UI().SetStatus(state.StatusError, "沒有可用的備份文件", "", true)
			return m, nil
		}
		backupState.SelectingIndex = true
		backupState.PendingOp = "delete"
		m.UI().SetStatus(state.StatusInfo, fmt.Sprintf("輸入要刪除的備份編號 (1-%d)", len(backupState.BackupList)), "", true)
		return m, nil

	default:
		m.UI().SetStatus(state.StatusError, "無效選擇: "+input, "", true)
		return m, nil
	}
}

func (h *KeyHandler) submitUninstall(m *state.Manager, input string) (*state.Manager, tea.Cmd) {
	u := m.Uninstall()

	if u.Info == nil {
		m.UI().SetStatus(state.StatusInfo, "正在掃描，請稍候...", "", true)
		return m, nil
	}

	// 最終確認階段：輸入確認口令後開始卸載
	if u.ConfirmStep == 1 {
		if input != constants.KeyUninstall_ConfirmWord {
			m.UI().SetStatus(state.StatusError, "口令不符，若要卸載請輸入 "+constants.KeyUninstall_ConfirmWord, "", true)
			return m, nil
		}

		u.Uninstalling = true
		u.Steps = nil
		switchCmd := m.UI().SwitchView(state.UninstallProgressView)
		m.UI().SetStatus(state.StatusWarn, "正在卸載，請勿關閉終端...", "", true)
		return m, tea.Batch(switchCmd, h.cmdBuilder.UninstallCmd(m))
	}

	// 保留項切換
	switch strings.ToLower(input) {
	case constants.KeyUninstall_KeepConfig:
		u.KeepConfig = !u.KeepConfig
		return m, nil

	case constants.KeyUninstall_KeepBackup:
		u.KeepBackups = !u.KeepBackups
		return m, nil

	case constants.KeyUninstall_KeepLog:
		u.KeepLogs = !u.KeepLogs
		return m, nil

	case constants.KeyUninstall_ConfirmStep:
		u.NextConfirmStep()
		m.UI().TextInput.Focus()
		m.UI().SetStatus(state.StatusWarn, "請仔細核對即將執行的操作", "", true)
		return m, nil

	default:
		m.UI().SetStatus(state.StatusError, "無效選擇: "+input, "", true)
		return m, nil
	}
}

// handleInputEscape 按 Esc 時的導航與取消邏輯
func (h *KeyHandler) handleInputEscape(m *state.Manager, currentView state.View) (*state.Manager, tea.Cmd) {
	// 先清掉殘留的狀態提示
	m.UI().SetStatus(state.StatusInfo, "", "", false)

	// 輸入框有內容時，Esc 只清空輸入
	if m.UI().GetInputBuffer() != "" {
		m.UI().ClearInput()
		m.UI().TextInput.Focus()
		return m, nil
	}

	switch currentView {
	case state.MainMenuView:
		m.UI().SetStatus(state.StatusInfo, "已在主菜單，按 q 退出程序", "", true)
		return m, nil

	case state.EnvCheckView, state.AboutView, state.InstallWizardView, state.InstallCompleteView:
		return m, m.UI().SwitchView(state.MainMenuView)

	case state.SettingsView:
		cfgState := m.Config()
		if cfgState.ExitConfirmMode {
			cfgState.ExitConfirmMode = false
			m.UI().SetStatus(state.StatusInfo, "已取消，繼續編輯", "", true)
			return m, nil
		}
		if cfgState.HasUnsavedChanges {
			cfgState.ExitConfirmMode = true
			m.UI().SetStatus(state.StatusWarn, "⚠️  設定已修改但未保存，輸入 YES 放棄修改離開", "", true)
			return m, nil
		}
		return m, m.UI().SwitchView(state.MainMenuView)

	case state.SettingsEditView:
		m.Config().Editing = state.FieldNone
		return m, m.UI().SwitchView(m.UI().PreviousView)

	case state.BackupMenuView:
		backupState := m.Backup()
		if backupState.ConfirmMode || backupState.SelectingIndex {
			backupState.ResetSelection()
			m.UI().SetStatus(state.StatusInfo, "已取消選擇", "", true)
			return m, nil
		}
		return m, m.UI().SwitchView(state.MainMenuView)

	case state.UninstallView:
		u := m.Uninstall()
		if u.ConfirmStep == 1 {
			u.ConfirmStep = 0
			m.UI().TextInput.Focus()
			m.UI().SetStatus(state.StatusInfo, "已返回保留項選擇", "", true)
			return m, nil
		}
		return m, m.UI().SwitchView(state.MainMenuView)

	case state.UninstallProgressView:
		if m.Uninstall().Uninstalling {
			return m, nil
		}
		return m, m.UI().SwitchView(state.MainMenuView)

	default:
		return m, m.UI().SwitchView(state.MainMenuView)
	}
}
