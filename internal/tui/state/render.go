package state

import (
	"fmt"

	"github.com/Yat-Muk/lumen/internal/tui/view"
)

// Render - 安全渲染視圖
func (m *Manager) Render() string {
	if !m.ui.ConfigReady {
		return view.RenderLoading("初始化配置中...")
	}

	width := m.ui.Width
	if width == 0 {
		width = 80
	}

	// 獲取全局狀態消息
	statusMsg := m.ui.Status.Message
	if m.ui.Status.Detail != "" {
		statusMsg = fmt.Sprintf("%s\n%s", statusMsg, m.ui.Status.Detail)
	}

	cursor := m.ui.Cursor
	ti := m.ui.TextInput // 獲取完整的 TextInput 模型

	switch m.ui.CurrentView {
	case MainMenuView:
		return view.RenderMainView(
			m.config.GetConfig(),
			m.env.Summary,
			m.appVersion,
			width,
			ti,
			statusMsg,
		)

	case EnvCheckView:
		return view.RenderEnvCheck(
			m.env.Summary,
			m.env.Checking,
			m.ui.Spinner,
			ti,
			statusMsg,
		)

	case InstallWizardView:
		return view.RenderInstallWizard(
			m.config.GetConfig(),
			ti,
			statusMsg,
		)

	case InstallProgressView:
		return view.RenderInstallProgress(
			m.install.LogLines(),
			m.install.Snapshot.Progress,
			m.install.CurrentStageName(),
			m.install.Snapshot.Failed,
			m.install.IsFinished,
			m.ui.Spinner,
		)

	case InstallCompleteView:
		return view.RenderInstallComplete(
			m.config.GetConfig(),
			m.env.Summary.AlreadyInstalled,
			ti,
			statusMsg,
		)

	case SettingsView:
		return view.RenderSettings(
			m.config.GetConfig(),
			m.config.HasUnsavedChanges,
			m.config.ExitConfirmMode,
			ti,
			statusMsg,
		)

	case SettingsEditView:
		return view.RenderSettingsEdit(
			m.config.Editing.Label(),
			m.config.FieldValue(m.config.Editing),
			ti,
			statusMsg,
		)

	case BackupMenuView:
		return view.RenderBackupMenu(
			cursor,
			m.backup.BackupList,
			ti,
			statusMsg,
			m.backup.SelectedBackup,
			m.backup.ConfirmMode,
			m.backup.PendingOp,
		)

	case UninstallView:
		uState := m.Uninstall()
		if uState.Info != nil {
			uState.Info.ConfirmStep = uState.ConfirmStep
			uState.Info.KeepConfig = uState.KeepConfig
			uState.Info.KeepBackup = uState.KeepBackups
			uState.Info.KeepLog = uState.KeepLogs
		}

		return view.RenderUninstall(uState.Info, ti, statusMsg)

	case UninstallProgressView:
		return view.RenderUninstallProgress(m.Uninstall().Steps, ti, statusMsg)

	case AboutView:
		return view.RenderAbout(m.appVersion, ti, statusMsg)

	default:
		return view.RenderMainView(
			m.config.GetConfig(), m.env.Summary, m.appVersion, width, ti, statusMsg)
	}
}
