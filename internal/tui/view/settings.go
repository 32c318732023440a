package view

import (
	"fmt"
	"strconv"
	"strings"

	domainConfig "github.com/Yat-Muk/lumen/internal/domain/config"
	"github.com/Yat-Muk/lumen/internal/tui/constants"
	"github.com/Yat-Muk/lumen/internal/tui/style"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// RenderSettings 渲染偏好設定菜單
func RenderSettings(cfg *domainConfig.Config, hasUnsaved bool, exitConfirm bool, ti textinput.Model, statusMsg string) string {
	header := renderSubpageHeader("偏好設定")

	desc := lipgloss.NewStyle().
		Foreground(style.Snow2).
		Render(" 調整安裝器的工作區、倉庫地址與輪詢參數")

	if hasUnsaved {
		desc += "  " + style.RenderBadge("未保存", style.BadgeWarn)
	}

	infoSep := lipgloss.NewStyle().
		Foreground(style.Polar4).
		Render(strings.Repeat("─", 50))

	// 離開確認模式 (有未保存修改時按 Esc 觸發)
	if exitConfirm {
		warnBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(style.StatusYellow).
			Padding(1, 2).
			Render("⚠️  有未保存的修改，確定要離開嗎？\n   離開後修改將丟失\n\n   [YES] 離開   [Esc] 繼續編輯")

		statusBlock := RenderStatusMessage(statusMsg)
		footer := RenderInputFooter(ti)

		return lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			desc,
			infoSep,
			"\n"+warnBox+"\n",
			statusBlock,
			footer,
		)
	}

	current := func(v string) string {
		return fmt.Sprintf("(當前: %s)", v)
	}

	items := []MenuItem{
		{constants.KeySettings_Workspace, "工作區目錄", current(cfg.Workspace.Dir), style.Snow1},
		{constants.KeySettings_BootstrapVer, "引導套件版本", current(cfg.Suite.BootstrapVersion), style.Snow1},
		{constants.KeySettings_CoreRepo, "Core 倉庫地址", current(packageRepo(cfg, "lumen-core")), style.Snow1},
		{constants.KeySettings_AssetsRepo, "Assets 倉庫地址", current(packageRepo(cfg, "lumen-assets")), style.Snow1},

		{"", "", "", lipgloss.Color("")}, // 分組線

		{constants.KeySettings_TickInterval, "輪詢節拍間隔", current(strconv.Itoa(cfg.Resolve.TickIntervalMS) + " ms"), style.Snow1},
		{constants.KeySettings_SettleTicks, "推定安定節拍數", current(strconv.Itoa(cfg.Resolve.SettleThreshold)), style.Snow1},
		{constants.KeySettings_MaxAttempts, "輪詢節拍上限", current(strconv.Itoa(cfg.Resolve.MaxAttempts)), style.Snow1},
		{constants.KeySettings_CloneDepth, "Git 克隆深度", current(strconv.Itoa(cfg.Git.CloneDepth)), style.Snow1},

		{"", "", "", lipgloss.Color("")}, // 分組線

		{constants.KeySettings_Save, "保存設定", "(寫入配置文件)", style.Aurora2},
		{constants.KeySettings_Reset, "放棄修改", "(還原為已保存的設定)", style.StatusYellow},
	}

	menu := renderMenuWithAlignment(items, true)

	instruction := lipgloss.NewStyle().
		Foreground(style.Snow3).
		Render(" 💡 修改後必須按 s 保存才會寫入配置文件")

	statusBlock := RenderStatusMessage(statusMsg)

	footer := RenderInputFooter(ti)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		desc,
		infoSep,
		menu,
		"",
		instruction,
		statusBlock,
		footer,
	)
}

// RenderSettingsEdit 渲染單個設定項的編輯界面
func RenderSettingsEdit(label, currentValue string, ti textinput.Model, statusMsg string) string {
	header := renderSubpageHeader("修改 " + label)

	if currentValue == "" {
		currentValue = "(尚未設置)"
	}

	currentLine := lipgloss.NewStyle().
		Foreground(style.Snow2).
		Render(fmt.Sprintf(
			" 當前值: %s",
			lipgloss.NewStyle().Foreground(style.Aurora4).Render(currentValue),
		))

	infoSep := lipgloss.NewStyle().
		Foreground(style.Polar4).
		Render(strings.Repeat("─", 50))

	infoBlock := lipgloss.JoinVertical(
		lipgloss.Left,
		currentLine,
		infoSep,
	)

	instruction := lipgloss.NewStyle().
		Foreground(style.Snow3).
		Render(" 💡 輸入新值後按 Enter 確認，Esc 取消修改")

	statusBlock := RenderStatusMessage(statusMsg)

	footer := RenderInputFooter(ti)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		infoBlock,
		"",
		instruction,
		statusBlock,
		footer,
	)
}

// packageRepo 按套件名取倉庫地址
func packageRepo(cfg *domainConfig.Config, name string) string {
	for _, p := range cfg.Suite.Packages {
		if p.Name == name {
			return p.RepoURL
		}
	}
	return ""
}
