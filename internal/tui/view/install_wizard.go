package view

import (
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"

	domainConfig "github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/tui/constants"
	"github.com/Yat-Muk/lumen/internal/tui/style"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// RenderInstallWizard 渲染安裝嚮導：安裝前確認
func RenderInstallWizard(cfg *domainConfig.Config, ti textinput.Model, statusMsg string) string {
	// 頭部 + 提示
	header := renderSubpageHeader("安裝嚮導 · 確認安裝計劃")

	hint := lipgloss.NewStyle().
		Foreground(style.Snow3).
		Render(" 安裝將按以下計劃執行")

	infoSep := lipgloss.NewStyle().
		Foreground(style.Polar4).
		Render(strings.Repeat("─", 50))

	infoBlock := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		hint,
		infoSep,
	)

	labelStyle := lipgloss.NewStyle().Foreground(style.Snow3)
	valueStyle := lipgloss.NewStyle().Foreground(style.Snow2)
	missingStyle := lipgloss.NewStyle().Foreground(style.StatusRed)

	var lines []string

	workspace := cfg.Workspace.Dir
	if workspace == "" {
		lines = append(lines, labelStyle.Render(" 工作區:    ")+missingStyle.Render("未設定"))
	} else {
		lines = append(lines,
			labelStyle.Render(" 工作區:    ")+valueStyle.Render(workspace),
			labelStyle.Render(" 清單文件:  ")+valueStyle.Render(filepath.Join(workspace, "manifest.json")),
		)
	}

	lines = append(lines,
		labelStyle.Render(" 引導套件:  ")+valueStyle.Render(cfg.Suite.BootstrapID+" @ "+cfg.Suite.BootstrapVersion),
		labelStyle.Render(" 安裝器模組: ")+valueStyle.Render(cfg.Suite.InstallerModule),
	)

	// 套件倉庫列表，名稱欄按最寬套件名對齊
	maxNameWidth := 0
	for _, pkg := range cfg.Suite.Packages {
		if w := runewidth.StringWidth(pkg.Name); w > maxNameWidth {
			maxNameWidth = w
		}
	}

	bulletStyle := lipgloss.NewStyle().Foreground(style.Aurora3)
	lines = append(lines, labelStyle.Render(" 套件倉庫:"))
	for _, pkg := range cfg.Suite.Packages {
		name := pkg.Name
		if w := runewidth.StringWidth(name); w < maxNameWidth {
			name += strings.Repeat(" ", maxNameWidth-w)
		}
		repo := pkg.RepoURL
		if pkg.Branch != "" {
			repo += " (" + pkg.Branch + ")"
		}
		lines = append(lines,
			bulletStyle.Render("   • ")+valueStyle.Render(name)+"  "+lipgloss.NewStyle().Foreground(style.Snow3).Render(repo),
		)
	}

	plan := strings.Join(lines, "\n")

	items := []MenuItem{
		{constants.KeyWizard_Workspace, "修改工作區目錄", "(本次安裝生效並寫回設定)", style.Snow1},
	}
	menu := renderMenuWithAlignment(items, false)

	instruction := lipgloss.NewStyle().
		Foreground(style.Snow3).
		Render(" 💡 輸入 Y 開始安裝，Esc 返回主菜單")

	statusBlock := RenderStatusMessage(statusMsg)
	footer := RenderInputFooter(ti)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		infoBlock,
		plan,
		infoSep,
		menu,
		"",
		instruction,
		statusBlock,
		footer,
	)
}
