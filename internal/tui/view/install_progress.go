package view

import (
	"fmt"
	"strings"

	"github.com/Yat-Muk/lumen/internal/tui/style"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// RenderInstallProgress 渲染安裝進度
func RenderInstallProgress(
	logs []string,
	progress float64,
	stageName string,
	failed bool,
	finished bool,
	spinnerModel spinner.Model,
) string {
	// 1. 渲染頭部 (寬度約 50)
	header := renderSubpageHeader("安裝進行中")

	// 2. 定義樣式
	labelStyle := lipgloss.NewStyle().Foreground(style.Snow3)
	// 高亮樣式 (正在進行的步驟)
	activeStyle := lipgloss.NewStyle().Foreground(style.Snow1).Bold(true)
	// 成功標記樣式 (綠色 ✓)
	checkStyle := lipgloss.NewStyle().Foreground(style.StatusGreen).Bold(true)
	// 失敗標記樣式 (紅色 ✗)
	errorStyle := lipgloss.NewStyle().Foreground(style.StatusRed).Bold(true)
	// 按鍵樣式 (綠色 [Enter])
	keyStyle := lipgloss.NewStyle().Foreground(style.StatusGreen).Bold(true)
	// 容器樣式 (與主菜單寬度一致，左對齊)
	containerStyle := lipgloss.NewStyle().
		Width(52).
		Align(lipgloss.Left).
		PaddingTop(1)

	// 3. 總進度條與當前階段
	progressLine := " " + style.RenderProgressBar(progress, 38)
	stageLine := labelStyle.Render(" 當前階段: ") + activeStyle.Render(stageName)

	// 4. 構建日誌視圖：只顯示最後 10 行，按關鍵字着色
	colored := style.ColorizeInstallLog(logs)
	if len(colored) > 10 {
		colored = colored[len(colored)-10:]
	}

	var logLines []string
	for i, log := range colored {
		isLast := i == len(colored)-1

		// === 最後一行 (活躍狀態) ===
		if isLast && !finished {
			logLines = append(logLines, fmt.Sprintf(" %s%s", spinnerModel.View(), log))
			continue
		}

		// === 已完成的步驟 (歷史記錄) ===
		var prefix string
		if strings.Contains(log, "失敗") || strings.Contains(log, "錯誤") {
			prefix = errorStyle.Render(" ✗")
		} else {
			prefix = checkStyle.Render(" ✓")
		}
		logLines = append(logLines, fmt.Sprintf("%s %s", prefix, log))
	}

	// 補齊高度，避免日誌增長時佈局跳動
	minHeight := 10
	if len(logLines) < minHeight {
		logLines = append(logLines, strings.Repeat("\n", minHeight-len(logLines)))
	}

	// 5. 底部提示
	var footer string
	if finished {
		text := "安裝流程結束，按 [Enter] 返回主菜單"
		if failed {
			text = "安裝失敗，按 [Enter] 返回主菜單"
		}
		parts := strings.SplitN(text, "[Enter]", 2)
		footer = lipgloss.NewStyle().
			Width(50).
			Align(lipgloss.Center).
			Render(activeStyle.Render(parts[0]) + keyStyle.Render("[Enter]") + activeStyle.Render(parts[1]))
	} else {
		footer = lipgloss.NewStyle().
			Foreground(style.Snow3).
			Italic(true).
			Width(50).
			Align(lipgloss.Center).
			Render("請勿關閉程序，正在安裝 Lumen Suite...")
	}

	content := containerStyle.Render(strings.Join(logLines, "\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		progressLine,
		stageLine,
		content,
		"\n",
		footer,
	)
}
