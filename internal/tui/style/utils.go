package style

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ansiRegex 用於去除日誌中殘留的顏色代碼
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// timePrefixRegex 匹配安裝日誌行的 [HH:MM:SS] 時間前綴
var timePrefixRegex = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] ?`)

// 安裝日誌配色
var (
	logTimeStyle = lipgloss.NewStyle().Foreground(Muted)
	logErrStyle  = lipgloss.NewStyle().Foreground(Error)
	logWarnStyle = lipgloss.NewStyle().Foreground(Warning)
	logDoneStyle = lipgloss.NewStyle().Foreground(Success)
	logBodyStyle = lipgloss.NewStyle().Foreground(Snow1)
)

// ColorizeInstallLog 按關鍵字為安裝日誌行着色
// 時間前綴弱化顯示；失敗與警告類的行整行標色，便於掃讀長日誌
func ColorizeInstallLog(lines []string) []string {
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		// 先清理殘留的 ANSI 碼，防止疊加干擾
		clean := stripANSI(line)

		prefix := ""
		body := clean
		if ts := timePrefixRegex.FindString(clean); ts != "" {
			prefix = logTimeStyle.Render(strings.TrimRight(ts, " ")) + " "
			body = clean[len(ts):]
		}

		out = append(out, prefix+colorizeLogBody(body))
	}

	return out
}

// colorizeLogBody 依關鍵字選擇整行顏色
func colorizeLogBody(body string) string {
	switch {
	case containsAny(body, "錯誤", "失敗", "超時"):
		return logErrStyle.Render(body)
	case containsAny(body, "警告", "忽略", "跳過"):
		return logWarnStyle.Render(body)
	case containsAny(body, "完成", "成功", "就緒"):
		return logDoneStyle.Render(body)
	default:
		return logBodyStyle.Render(body)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// stripANSI 去除字符串中的 ANSI 轉義碼
func stripANSI(str string) string {
	return ansiRegex.ReplaceAllString(str, "")
}
