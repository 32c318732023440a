package view

import (
	"fmt"
	"strings"

	"github.com/Yat-Muk/lumen/internal/tui/constants"
	"github.com/Yat-Muk/lumen/internal/tui/style"
	"github.com/Yat-Muk/lumen/internal/tui/types"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// RenderUninstall 渲染卸載界面
func RenderUninstall(info *types.UninstallInfo, ti textinput.Model, statusMsg string) string {
	header := renderSubpageHeader("解除安裝 Lumen Suite")

	// info 為 nil 說明還在掃描中
	if info == nil {
		loading := lipgloss.NewStyle().
			Foreground(style.Aurora3).
			Padding(2, 0).
			Render(" ⏳ 正在掃描工作區與本機數據，請稍候...")

		return lipgloss.JoinVertical(lipgloss.Left, header, loading)
	}

	desc := lipgloss.NewStyle().
		Foreground(style.Snow2).
		Render(" 從工作區移除套件及清單依賴，可選擇保留本機數據")

	divider := lipgloss.NewStyle().
		Foreground(style.Polar4).
		Render(strings.Repeat("─", 50))

	// 掃描概覽
	labelStyle := lipgloss.NewStyle().Foreground(style.Snow3)
	valueStyle := lipgloss.NewStyle().Foreground(style.Aurora2)

	installedText := "未偵測到安裝"
	if info.Installed {
		installedText = "已安裝"
	}

	lockText := "不存在"
	if info.LockPresent {
		lockText = "存在"
	}

	statusText := fmt.Sprintf(
		" %s%s\n %s%s\n %s%s\n %s%s",
		labelStyle.Render("套件狀態："),
		valueStyle.Render(installedText),
		labelStyle.Render("引導依賴："),
		valueStyle.Render(info.BootstrapID),
		labelStyle.Render("鎖定文件："),
		valueStyle.Render(lockText),
		labelStyle.Render("備份數量："),
		valueStyle.Render(fmt.Sprintf("%d 個", info.BackupCount)),
	)

	var content string

	if info.ConfirmStep == 0 {
		// ========================================================
		// 步驟 1: 選擇保留項
		// ========================================================
		on := lipgloss.NewStyle().Foreground(style.StatusGreen).Render("[保留]")
		off := lipgloss.NewStyle().Foreground(style.StatusRed).Render("[刪除]")

		state := func(keep bool) string {
			if keep {
				return on
			}
			return off
		}

		items := []MenuItem{
			{constants.KeyUninstall_KeepConfig, "設定文件", state(info.KeepConfig), style.Snow1},
			{constants.KeyUninstall_KeepBackup, "備份文件", state(info.KeepBackup), style.Snow1},
			{constants.KeyUninstall_KeepLog, "日誌文件", state(info.KeepLog), style.Snow1},
			{"", "", "", lipgloss.Color("")},
			{constants.KeyUninstall_ConfirmStep, "下一步", "進入最終確認", style.Aurora2},
		}

		menu := renderMenuWithAlignment(items, false)
		instruction := lipgloss.NewStyle().Foreground(style.Snow3).Render(" 💡 輸入選項編號切換保留狀態")
		content = lipgloss.JoinVertical(lipgloss.Left, menu, "", instruction)

	} else {
		// ========================================================
		// 步驟 2: 最終確認 (輸入 UNINSTALL)
		// ========================================================
		confirmTitle := lipgloss.NewStyle().
			Foreground(style.StatusRed).
			Bold(true).
			Render("\n ⚠️  危險操作確認")

		warnStyle := lipgloss.NewStyle().Foreground(style.StatusRed)
		snowStyle := lipgloss.NewStyle().Foreground(style.Snow2)

		var opLines []string
		opLines = append(opLines, "• 從清單移除引導依賴 "+info.BootstrapID)
		opLines = append(opLines, "• 通知宿主工具撤銷模組解析")
		if len(info.PackageDirs) > 0 {
			opLines = append(opLines, fmt.Sprintf("• 刪除套件目錄 (%d 個)", len(info.PackageDirs)))
		}
		if info.LockPresent {
			opLines = append(opLines, "• 移除安裝鎖定文件")
		}
		if !info.KeepConfig {
			opLines = append(opLines, "• 刪除本機設定文件")
		}
		if !info.KeepBackup {
			opLines = append(opLines, "• 刪除所有清單備份")
		}
		if !info.KeepLog {
			opLines = append(opLines, "• 刪除所有日誌")
		}

		headerText := snowStyle.Render(" 即將執行的操作：")

		opsContent := warnStyle.Render(strings.Join(opLines, "\n"))
		opsContent = lipgloss.NewStyle().PaddingLeft(3).Render(opsContent)

		deleteText := lipgloss.JoinVertical(lipgloss.Left, headerText, opsContent)

		yellowStyle := lipgloss.NewStyle().Foreground(style.StatusYellow)
		keywordStyle := lipgloss.NewStyle().Foreground(style.StatusRed)

		warningText := "\n" +
			yellowStyle.Render(" 此操作不可逆！請在下方輸入 ") +
			keywordStyle.Render("UNINSTALL") +
			yellowStyle.Render(" 確認卸載")

		divider2 := lipgloss.NewStyle().
			Foreground(style.Polar4).
			Render(strings.Repeat("═", 50))

		content = lipgloss.JoinVertical(lipgloss.Left, confirmTitle, "", deleteText, warningText, "", divider2)
	}

	statusBlock := RenderStatusMessage(statusMsg)
	footer := RenderInputFooter(ti)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		desc,
		divider,
		statusText,
		divider,
		content,
		statusBlock,
		footer,
	)
}

// RenderUninstallProgress 渲染卸載進度
func RenderUninstallProgress(steps []types.UninstallStep, ti textinput.Model, statusMsg string) string {
	header := renderSubpageHeader("卸載進行中")

	var stepLines []string
	for _, step := range steps {
		var icon string
		switch step.Status {
		case "ok":
			icon = "✓"
		case "fail":
			icon = "✗"
		case "skip":
			icon = "○"
		default:
			icon = "◉"
		}

		statusStyle := lipgloss.NewStyle().Foreground(style.StepStatusColor(step.Status))
		line := fmt.Sprintf(" %s %s", statusStyle.Render(icon), step.Name)

		if step.Message != "" {
			line += " - " + lipgloss.NewStyle().Foreground(style.Snow3).Render(step.Message)
		}
		stepLines = append(stepLines, line)
	}

	content := strings.Join(stepLines, "\n")

	statusBlock := RenderStatusMessage(statusMsg)

	return lipgloss.JoinVertical(lipgloss.Left, header, "", content, statusBlock)
}
