package view

import (
	"fmt"
	"strings"

	"github.com/Yat-Muk/lumen/internal/tui/style"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// RenderAbout 渲染關於界面
func RenderAbout(version string, ti textinput.Model, statusMsg string) string {
	header := renderSubpageHeader("關於 Lumen")

	labelStyle := lipgloss.NewStyle().Foreground(style.Snow3).Width(10)
	valueStyle := lipgloss.NewStyle().Foreground(style.Aurora2)

	intro := lipgloss.NewStyle().
		Foreground(style.Snow2).
		Render("Lumen Suite 的終端安裝管理工具。\n負責下載套件倉庫、改寫工作區清單，\n並與宿主工具協同完成模組解析。")

	detail := fmt.Sprintf(
		"%s %s\n%s %s\n%s %s",
		labelStyle.Render("版本:"), valueStyle.Render(version),
		labelStyle.Render("項目地址:"), valueStyle.Render("github.com/Yat-Muk/lumen"),
		labelStyle.Render("反饋:"), valueStyle.Render("github.com/Yat-Muk/lumen/issues"),
	)

	box := style.RenderBox("Lumen 安裝器", intro+"\n\n"+detail, 52)

	bottomSeparator := lipgloss.NewStyle().
		Foreground(style.Snow2).
		Render(strings.Repeat("═", 50))

	navigation := lipgloss.NewStyle().
		Foreground(style.Muted).
		PaddingTop(1).
		Render(" U 檢查更新 | Esc 返回主菜單")

	statusBlock := RenderStatusMessage(statusMsg)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		box,
		bottomSeparator,
		statusBlock,
		navigation,
	)
}
