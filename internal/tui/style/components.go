package style

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// 狀態指示器
	StatusIndicatorActive = lipgloss.NewStyle().
				Foreground(StatusGreen).
				Bold(true)

	StatusIndicatorInactive = lipgloss.NewStyle().
				Foreground(StatusRed).
				Bold(true)

	StatusIndicatorWarning = lipgloss.NewStyle().
				Foreground(StatusYellow).
				Bold(true)

	progressFilledStyle = lipgloss.NewStyle().
				Foreground(Aurora2)

	progressEmptyStyle = lipgloss.NewStyle().
				Foreground(Polar4)

	badgeWarnStyle = lipgloss.NewStyle().
			Foreground(Polar1).
			Background(StatusYellow).
			Padding(0, 1).
			Bold(true)

	badgeInfoStyle = lipgloss.NewStyle().
			Foreground(Snow1).
			Background(Aurora3).
			Padding(0, 1).
			Bold(true)
)

// Badge 徽章種類，只保留界面實際使用的兩種
type Badge int

const (
	BadgeInfo Badge = iota
	BadgeWarn
)

// RenderBadge 渲染徽章
func RenderBadge(text string, kind Badge) string {
	switch kind {
	case BadgeWarn:
		return badgeWarnStyle.Render(text)
	default:
		return badgeInfoStyle.Render(text)
	}
}

// RenderProgressBar 渲染進度條，ratio 取 0 到 1
func RenderProgressBar(ratio float64, width int) string {
	if width < 2 {
		width = 20
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	filled := int(float64(width) * ratio)
	bar := progressFilledStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", width-filled))

	return bar + fmt.Sprintf(" %5.1f%%", ratio*100)
}

// RenderBox 渲染帶標題的盒子
func RenderBox(title, content string, width int) string {
	if width < 10 {
		width = 40
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Aurora3).
		Width(width).
		Padding(1, 2)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(Aurora1)

	return boxStyle.Render(
		titleStyle.Render(title) + "\n\n" + content,
	)
}
