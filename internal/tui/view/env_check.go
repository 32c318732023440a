package view

import (
	"fmt"
	"strings"

	"github.com/Yat-Muk/lumen/internal/tui/style"
	"github.com/Yat-Muk/lumen/internal/tui/types"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// RenderEnvCheck 渲染環境檢查界面
func RenderEnvCheck(env types.EnvSummary, checking bool, sp spinner.Model, ti textinput.Model, statusMsg string) string {
	header := renderSubpageHeader("環境檢查")

	desc := lipgloss.NewStyle().
		Foreground(style.Snow2).
		Render(" 檢測主機環境、Git 工具與工作區狀態")

	divider := lipgloss.NewStyle().
		Foreground(style.Polar4).
		Render(strings.Repeat("─", 50))

	var content string

	if checking {
		// --- 1. 檢測中狀態 ---
		content = fmt.Sprintf("\n\n      %s 正在檢測環境...\n\n", sp.View())
	} else if env.Checked {
		// --- 2. 檢測完成顯示結果 ---

		labelStyle := lipgloss.NewStyle().Foreground(style.Snow3).Width(12)
		valueStyle := lipgloss.NewStyle().Foreground(style.Aurora2)

		gitSection := lipgloss.NewStyle().
			Foreground(style.Snow2).
			PaddingTop(1).
			PaddingBottom(1).
			Render("--- Git 環境 ---")

		workspaceSection := lipgloss.NewStyle().
			Foreground(style.Snow2).
			PaddingTop(1).
			PaddingBottom(1).
			Render("--- 工作區狀態 ---")

		gitPath := env.GitPath
		if gitPath == "" {
			gitPath = "-"
		}

		installedBadge := style.RenderBadge("未安裝", style.BadgeInfo)
		if env.AlreadyInstalled {
			installedBadge = style.RenderBadge("已安裝", style.BadgeWarn)
		}

		content = fmt.Sprintf(
			" %s %s\n %s %s\n %s %s\n %s\n"+
				" %s %s\n"+
				" %s %s\n"+
				" %s\n"+
				" %s %s\n"+
				" %s %s\n"+
				" %s %s\n"+
				" %s %s\n"+
				" %s %s",
			labelStyle.Render("主機名稱:"), valueStyle.Render(env.Hostname),
			labelStyle.Render("操作系統:"), valueStyle.Render(fmt.Sprintf("%s (%s)", env.OS, env.Arch)),
			labelStyle.Render("內核版本:"), valueStyle.Render(env.Kernel),
			gitSection,
			labelStyle.Render("Git 狀態:"), formatCheckItem(env.GitFound, "已安裝 "+env.GitVersion, "未找到 (請先安裝 Git)"),
			labelStyle.Render("Git 路徑:"), valueStyle.Render(gitPath),
			workspaceSection,
			labelStyle.Render("工作區:"), valueStyle.Render(env.WorkspaceDir),
			labelStyle.Render("磁盤空間:"), valueStyle.Render(fmt.Sprintf("%s 可用 / 共 %s", env.DiskFree, env.DiskTotal)),
			labelStyle.Render("寫入權限:"), formatCheckItem(env.Writable, "可寫", "不可寫"),
			labelStyle.Render("清單文件:"), formatCheckItem(env.ManifestPresent, "manifest.json 存在", "manifest.json 不存在"),
			labelStyle.Render("安裝狀態:"), installedBadge,
		)
	} else {
		content = lipgloss.NewStyle().
			Foreground(style.Snow3).
			Padding(2, 0).
			Render(" 尚未檢測，按 Enter 開始")
	}

	bottomSeparator := lipgloss.NewStyle().
		Foreground(style.Snow2).
		Render(strings.Repeat("═", 50))

	navigation := lipgloss.NewStyle().
		Foreground(style.Muted).
		PaddingTop(1).
		Render(" Esc 返回 • Enter 重新檢測")

	statusBlock := RenderStatusMessage(statusMsg)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		desc,
		divider,
		content,
		bottomSeparator,
		statusBlock,
		navigation,
	)
}

// 按檢查結果渲染 ✓/✗ 標記
func formatCheckItem(ok bool, okText, failText string) string {
	green := lipgloss.NewStyle().Foreground(style.StatusGreen).Bold(true)
	red := lipgloss.NewStyle().Foreground(style.StatusRed).Bold(true)

	if ok {
		return green.Render("✓ ") + okText
	}
	return red.Render("✗ ") + failText
}
