package view

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Yat-Muk/lumen/internal/tui/style"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// MenuItem 菜單項結構
type MenuItem struct {
	Num       string         // 序號 (如 "1", "u")
	Text      string         // 選項名稱 (如 "環境檢查")
	Desc      string         // 描述/提示 (如 "(不改動任何文件)") -> 自動渲染為灰色
	TextColor lipgloss.Color // Text 的顏色
}

// renderMenuWithAlignment 渲染自動對齊的菜單列表
// isTableMode 為 true 時所有行都參與對齊（設定頁的鍵值表）；
// 否則只有帶括號描述的行對齊，避免長標題破壞佈局
func renderMenuWithAlignment(items []MenuItem, isTableMode bool) string {
	maxNumWidth := 0
	maxTextWidth := 0

	for _, item := range items {
		// 跳過分隔線
		if item.Num == "" && item.Text == "" {
			continue
		}

		if len(item.Num) > maxNumWidth {
			maxNumWidth = len(item.Num)
		}

		w := runewidth.StringWidth(item.Text)

		updateMax := isTableMode
		if !isTableMode && (strings.Contains(item.Desc, "(") || strings.Contains(item.Desc, "（")) {
			updateMax = true
		}
		if updateMax && w > maxTextWidth {
			maxTextWidth = w
		}
	}

	// 統一的目標寬度 = 最長文本 + 2 個空格間距
	targetWidth := 0
	if maxTextWidth > 0 {
		targetWidth = maxTextWidth + 2
	}

	var rows []string
	for _, item := range items {
		// 處理分隔線
		if item.Num == "" && item.Text == "" {
			separator := lipgloss.NewStyle().
				Foreground(style.Snow2).
				Render(" " + strings.Repeat("┄", 48))
			rows = append(rows, separator)
			continue
		}

		numStyle := lipgloss.NewStyle().Foreground(style.Aurora3)
		textStyle := lipgloss.NewStyle().Foreground(item.TextColor)
		dotStyle := lipgloss.NewStyle().Foreground(style.Snow3)

		prefix := " "
		numStr := fmt.Sprintf("%*s", maxNumWidth, item.Num)
		dotStr := dotStyle.Render(".")

		nameText := item.Text
		currentWidth := runewidth.StringWidth(nameText)
		padding := " " // 默認最小間距

		shouldAlign := isTableMode
		if !isTableMode && (strings.Contains(item.Desc, "(") || strings.Contains(item.Desc, "（")) {
			shouldAlign = true
		}

		if shouldAlign && targetWidth > 0 {
			gap := targetWidth - currentWidth
			if gap < 1 {
				gap = 1 // 至少保留 1 個空格，防止文字粘連
			}
			padding = strings.Repeat(" ", gap)
		}

		displayName := textStyle.Render(nameText) + padding

		// 描述已帶 ANSI 碼時原樣輸出，否則走默認著色
		var descDisplay string
		if strings.Contains(item.Desc, "\x1b") {
			descDisplay = item.Desc
		} else {
			descDisplay = colorizeDescription(item.Desc)
		}

		row := fmt.Sprintf("%s%s%s %s%s",
			prefix,
			numStyle.Render(numStr),
			dotStr,
			displayName,
			descDisplay,
		)
		rows = append(rows, row)
	}

	// 底部雙線
	bottomSeparator := lipgloss.NewStyle().
		Foreground(style.Snow2).
		Render(strings.Repeat("═", 50))
	rows = append(rows, bottomSeparator)

	return strings.Join(rows, "\n")
}

// bracketTagRegex 匹配描述裏的中括號標籤，如 [必填]、[3 項]
var bracketTagRegex = regexp.MustCompile(`\[[^\]]*\]`)

// colorizeDescription 描述默認著色：中括號標籤黃色，其餘（含小括號提示）灰色
func colorizeDescription(desc string) string {
	if desc == "" {
		return ""
	}

	yellow := lipgloss.NewStyle().Foreground(style.StatusYellow)
	grey := lipgloss.NewStyle().Foreground(style.Snow3)

	return renderWithMatches(desc, bracketTagRegex, yellow, grey)
}

// renderWithMatches 分段上色：re 命中的片段用 matched，片段之間用 rest。
// 上色必須在拼接前完成，Render 過的文本再做子串替換會撞上 ANSI 碼。
func renderWithMatches(s string, re *regexp.Regexp, matched, rest lipgloss.Style) string {
	locs := re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return rest.Render(s)
	}

	var sb strings.Builder
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			sb.WriteString(rest.Render(s[last:loc[0]]))
		}
		sb.WriteString(matched.Render(s[loc[0]:loc[1]]))
		last = loc[1]
	}
	if last < len(s) {
		sb.WriteString(rest.Render(s[last:]))
	}
	return sb.String()
}

// RenderLogo 渲染 LUMEN ASCII Logo
func RenderLogo() string {
	logoLines := []string{
		" ██╗     ██╗   ██╗███╗   ███╗███████╗███╗   ██╗",
		" ██║     ██║   ██║████╗ ████║██╔════╝████╗  ██║",
		" ██║     ██║   ██║██╔████╔██║█████╗  ██╔██╗ ██║",
		" ██║     ██║   ██║██║╚██╔╝██║██╔══╝  ██║╚██╗██║",
		" ███████╗╚██████╔╝██║ ╚═╝ ██║███████╗██║ ╚████║",
		" ╚══════╝ ╚═════╝ ╚═╝     ╚═╝╚══════╝╚═╝  ╚═══╝",
	}

	// 琥珀到光子藍的漸變，呼應「光」的主題
	gradientColors := []lipgloss.Color{
		style.LumenAmber,
		lipgloss.Color("#FFD166"),
		style.Citrine,
		lipgloss.Color("#B8E1A8"),
		lipgloss.Color("#7FD1E8"),
		style.PhotonBlue,
	}

	var coloredLines []string
	for i, line := range logoLines {
		coloredLine := lipgloss.NewStyle().
			Foreground(gradientColors[i]).
			Width(50).
			AlignHorizontal(lipgloss.Center).
			Render(line)
		coloredLines = append(coloredLines, coloredLine)
	}

	return lipgloss.JoinVertical(lipgloss.Left, coloredLines...)
}

// renderSubpageHeader 渲染子頁面頭部
func renderSubpageHeader(subTitle string) string {
	logo := RenderLogo()

	mainSubtitle := lipgloss.NewStyle().
		Foreground(style.Aurora3).
		Width(50).
		AlignHorizontal(lipgloss.Center).
		Render(":: Lumen Suite 安裝管理工具 ::")

	subTitleLine := lipgloss.NewStyle().
		Foreground(style.Aurora2).
		Render(fmt.Sprintf(" »»» %s «««", subTitle))

	// 雙線分隔
	separator := lipgloss.NewStyle().
		Foreground(style.Snow2).
		Render(strings.Repeat("═", 50))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		logo,
		"",
		mainSubtitle,
		"",
		subTitleLine,
		separator,
	)
}

// confirmWordRegex 匹配需要用戶原樣敲入的確認口令
var confirmWordRegex = regexp.MustCompile(`YES|UNINSTALL`)

// RenderStatusMessage 把狀態提示渲染成帶內邊距的文本塊。
// 底色跟隨提示語義（警告黃、失敗紅、成功綠），確認口令額外標紅。
func RenderStatusMessage(msg string) string {
	if msg == "" {
		return ""
	}

	base := lipgloss.NewStyle().Foreground(statusBaseColor(msg))
	highlight := lipgloss.NewStyle().Foreground(style.StatusRed)

	lines := strings.Split(msg, "\n")
	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		rendered = append(rendered, renderWithMatches(line, confirmWordRegex, highlight, base))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rendered...)

	return lipgloss.NewStyle().
		Padding(1, 1).
		Width(52).
		Align(lipgloss.Left).
		Render(content)
}

// statusBaseColor 按提示文本裏的語義詞選底色
func statusBaseColor(msg string) lipgloss.Color {
	switch {
	case strings.Contains(msg, "⚠️"),
		strings.Contains(msg, "重置"),
		strings.Contains(msg, "警告"):
		return style.StatusYellow
	case strings.Contains(msg, "失敗"),
		strings.Contains(msg, "錯誤"),
		strings.Contains(msg, "無效"),
		strings.Contains(msg, "✗"):
		return style.StatusRed
	case strings.Contains(msg, "成功"),
		strings.Contains(msg, "完成"),
		strings.Contains(msg, "✓"):
		return style.StatusGreen
	}
	return style.Aurora3
}

// RenderTextInput 只渲染輸入行，不帶底部按鍵提示（供主視圖使用）
func RenderTextInput(ti textinput.Model) string {
	prompt := lipgloss.NewStyle().
		Foreground(style.Snow2).
		Render(" ❯ 請輸入: ")

	return lipgloss.JoinHorizontal(lipgloss.Left, prompt, ti.View())
}

// RenderInputFooter 渲染輸入提示（子菜單使用）
func RenderInputFooter(ti textinput.Model) string {
	inputLine := RenderTextInput(ti)

	snow3 := lipgloss.NewStyle().Foreground(style.Snow3)
	polar4 := lipgloss.NewStyle().Foreground(style.Polar4)

	hints := lipgloss.JoinHorizontal(lipgloss.Left,
		snow3.Render("Esc "), polar4.Render("返回"),
		polar4.Render(" • "),
		snow3.Render("Enter "), polar4.Render("確認"),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		inputLine,
		"\n",
		lipgloss.NewStyle().PaddingLeft(1).Render(hints),
	)
}

// RenderLoading 渲染加載頁面
func RenderLoading(message string) string {
	header := renderSubpageHeader("加載中")
	loadingStyle := lipgloss.NewStyle().Foreground(style.Aurora2)
	loadingText := loadingStyle.Render(fmt.Sprintf("⏳ %s", message))
	return lipgloss.JoinVertical(lipgloss.Left, header, "", loadingText)
}
