package view

import (
	"fmt"
	"strings"

	domainConfig "github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/tui/style"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// RenderInstallComplete 渲染安裝完成界面
func RenderInstallComplete(cfg *domainConfig.Config, alreadyInstalled bool, ti textinput.Model, statusMsg string) string {
	header := renderSubpageHeader("安裝完成")

	labelStyle := lipgloss.NewStyle().Foreground(style.Snow3)
	valueStyle := lipgloss.NewStyle().Foreground(style.Aurora2)

	title := "🎉 Lumen Suite 安裝成功"
	note := "套件已寫入工作區清單，宿主工具將在下次啟動時載入"
	if alreadyInstalled {
		title = "偵測到既有安裝"
		note = "工作區中已存在 Lumen Suite，本次未做任何修改"
	}

	var detail string
	if cfg != nil {
		detail = fmt.Sprintf(
			"%s %s\n%s %s\n%s %s",
			labelStyle.Render("引導套件:"),
			valueStyle.Render(fmt.Sprintf("%s@%s", cfg.Suite.BootstrapID, cfg.Suite.BootstrapVersion)),
			labelStyle.Render("安裝器模組:"),
			valueStyle.Render(cfg.Suite.InstallerModule),
			labelStyle.Render("工作區:"),
			valueStyle.Render(cfg.Workspace.Dir),
		)
	}

	noteText := lipgloss.NewStyle().Foreground(style.Snow2).Render(note)

	box := style.RenderBox(title, noteText+"\n\n"+detail, 52)

	navigation := lipgloss.NewStyle().
		Foreground(style.Muted).
		PaddingTop(1).
		Render(" Enter 返回主菜單")

	bottomSeparator := lipgloss.NewStyle().
		Foreground(style.Snow2).
		Render(strings.Repeat("═", 50))

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
