package view

import (
	"fmt"
	"strings"

	domainConfig "github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/tui/constants"
	"github.com/Yat-Muk/lumen/internal/tui/style"
	"github.com/Yat-Muk/lumen/internal/tui/types"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// RenderMainView 渲染主視圖
func RenderMainView(
	cfg *domainConfig.Config,
	env types.EnvSummary,
	version string,
	width int,
	ti textinput.Model,
	statusMsg string,
) string {
	if width < 80 {
		width = 80
	}

	var sections []string

	// 1. Logo 和標題
	sections = append(sections, renderHeader(version))

	// 2. 工作區信息面板
	sections = append(sections, renderWorkspacePanel(cfg, env))

	// 3. 菜單選項
	sections = append(sections, renderMainMenu(env))

	// 4. 插入狀態框
	statusBlock := RenderStatusMessage(statusMsg)

	// 5. 底部提示
	promptLine := RenderTextInput(ti)

	// 6. 組合整體佈局
	return lipgloss.JoinVertical(
		lipgloss.Left,
		strings.Join(sections, "\n"),
		statusBlock,
		promptLine,
	)
}

// renderHeader 渲染頭部
func renderHeader(version string) string {
	logo := RenderLogo()

	labelStyle := lipgloss.NewStyle().Foreground(style.Snow3)
	valueStyle := lipgloss.NewStyle().Foreground(style.Snow2)

	subtitle := lipgloss.NewStyle().
		Foreground(style.Aurora3).
		Width(50).
		AlignHorizontal(lipgloss.Center).
		Render(":: Lumen Suite 安裝管理工具 ::")

	versionText := version
	if versionText == "" {
		versionText = "dev"
	} else if !strings.HasPrefix(versionText, "v") {
		versionText = "v" + versionText
	}

	infoContent := lipgloss.JoinHorizontal(
		lipgloss.Left,
		labelStyle.Render("工具版本: "),
		valueStyle.Render(versionText),
	)

	info := lipgloss.NewStyle().
		Width(49).
		AlignHorizontal(lipgloss.Center).
		Render(infoContent)

	projectContent := lipgloss.JoinHorizontal(
		lipgloss.Left,
		labelStyle.Render("項目地址: "),
		valueStyle.Render("https://github.com/Yat-Muk/lumen"),
	)

	projectURL := lipgloss.NewStyle().
		Width(49).
		AlignHorizontal(lipgloss.Center).
		Render(projectContent)

	separator := lipgloss.NewStyle().
		Foreground(style.Snow2).
		Render(strings.Repeat("═", 50))

	return lipgloss.JoinVertical(lipgloss.Left,
		logo,
		"",
		subtitle,
		"",
		info,
		projectURL,
		separator,
	)
}

// renderWorkspacePanel 渲染工作區信息面板
func renderWorkspacePanel(cfg *domainConfig.Config, env types.EnvSummary) string {
	labelStyle := lipgloss.NewStyle().Foreground(style.Snow3)
	valueStyle := lipgloss.NewStyle().Foreground(style.Snow2)
	mutedStyle := lipgloss.NewStyle().Foreground(style.Muted)

	var lines []string

	workspace := ""
	if cfg != nil {
		workspace = cfg.Workspace.Dir
	}
	if workspace == "" {
		lines = append(lines, labelStyle.Render("工作區: ")+mutedStyle.Render("未設定（安裝前請在偏好設定中指定）"))
	} else {
		lines = append(lines, labelStyle.Render("工作區: ")+valueStyle.Render(workspace))
	}

	if cfg != nil {
		bootstrapLine := fmt.Sprintf("%s%s",
			labelStyle.Render("引導套件: "),
			valueStyle.Render(cfg.Suite.BootstrapID+" @ "+cfg.Suite.BootstrapVersion),
		)
		lines = append(lines, bootstrapLine)
	}

	// 環境信息在第一次檢查前顯示占位文案
	if !env.Checked {
		lines = append(lines,
			labelStyle.Render("Git 環境: ")+mutedStyle.Render("未檢查"),
			labelStyle.Render("套件狀態: ")+mutedStyle.Render("未檢查"),
		)
	} else {
		var gitPart string
		if env.GitFound {
			gitPart = style.StatusIndicatorActive.Render("● "+env.GitVersion) + "  " + mutedStyle.Render(env.GitPath)
		} else {
			gitPart = style.StatusIndicatorInactive.Render("○ 未找到 git")
		}
		lines = append(lines, labelStyle.Render("Git 環境: ")+gitPart)

		var suitePart string
		switch {
		case env.AlreadyInstalled:
			suitePart = style.StatusIndicatorActive.Render("● 已安裝")
		case env.ManifestPresent:
			suitePart = style.StatusIndicatorWarning.Render("◐ 未安裝（清單就緒）")
		default:
			suitePart = style.StatusIndicatorInactive.Render("○ 未安裝")
		}
		lines = append(lines, labelStyle.Render("套件狀態: ")+suitePart)
	}

	separator := lipgloss.NewStyle().Foreground(style.Snow2).Render(strings.Repeat("═", 50))
	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.JoinVertical(lipgloss.Left, lines...), separator)
}

func renderMainMenu(env types.EnvSummary) string {
	installText := "安裝 Lumen Suite"
	installColor := style.StatusGreen
	if env.Checked && env.AlreadyInstalled {
		installText = "重新安裝 Lumen Suite"
		installColor = style.StatusRed
	}

	items := []MenuItem{
		{constants.KeyMain_Install, installText, "", installColor},
		{constants.KeyMain_EnvCheck, "環境檢查", "(只讀，不改動任何文件)", style.Snow1},

		{"", "", "", lipgloss.Color("")},

		{constants.KeyMain_Settings, "偏好設定", "(工作區/倉庫地址/輪詢參數)", style.Snow1},
		{constants.KeyMain_Backup, "清單備份", "(備份/恢復/刪除 manifest.json)", style.Snow1},
		{constants.KeyMain_About, "關於 Lumen", "(版本與構建信息)", style.Snow1},

		{"", "", "", lipgloss.Color("")},

		{constants.KeyMain_Uninstall, "解除安裝", "(移除套件與清單依賴)", style.StatusRed},
		{constants.KeyMain_Quit, "退出", "", style.Snow1},
	}

	return renderMenuWithAlignment(items, false)
}
