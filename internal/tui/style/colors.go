package style

import "github.com/charmbracelet/lipgloss"

// Lumen 配色方案
var (
	// 主色調 - 以光為題的暖冷對比
	LumenAmber  = lipgloss.Color("#FFC145") // 琥珀 - Logo/主要強調
	PhotonBlue  = lipgloss.Color("#4FC1FF") // 光子藍 - 信息/次要強調
	AuroraGreen = lipgloss.Color("#9EF01A") // 極光綠 - 成功/就緒
	Citrine     = lipgloss.Color("#FFE066") // 黃晶 - 警告
	Ember       = lipgloss.Color("#FF8C42") // 餘燼橙 - 中等警告
	Coral       = lipgloss.Color("#FF5D73") // 珊瑚紅 - 錯誤/失敗
	Amethyst    = lipgloss.Color("#C792EA") // 紫晶 - 裝飾性強調

	// 文字顏色
	White    = lipgloss.Color("#F3F3F0") // 純白 - 主要文字
	Gray     = lipgloss.Color("#C0C0C0") // 淺灰 - 次要文字
	DarkGray = lipgloss.Color("#8A8783") // 深灰 - 弱化文字

	// 背景色（暗色背景突出亮色前景）
	BgDark = lipgloss.Color("#1a1a1a") // 深黑背景
)

// 功能顏色映射
var (
	// 狀態色
	StatusGreen  = AuroraGreen // 成功/就緒
	StatusYellow = Citrine     // 警告
	StatusRed    = Coral       // 錯誤/失敗

	// Aurora 系列（主題色）
	Aurora1 = AuroraGreen // 主色
	Aurora2 = PhotonBlue  // 次色
	Aurora3 = Amethyst    // 強調色
	Aurora4 = Ember       // 輔助色

	// Snow 系列（文字）
	Snow1 = White    // 主要文字
	Snow2 = Gray     // 次要文字
	Snow3 = DarkGray // 弱化文字

	// Polar 系列（背景與邊框）
	Polar1 = BgDark   // 最深背景
	Polar4 = DarkGray // 邊框/分隔線

	// 其他
	Muted   = DarkGray    // 弱化文字
	Success = AuroraGreen // 成功
	Error   = Coral       // 錯誤
	Warning = Citrine     // 警告
)

// StepStatusColor 卸載步驟結果用色，狀態取值與 types.UninstallStep 一致
func StepStatusColor(status string) lipgloss.Color {
	switch status {
	case "ok":
		return Success
	case "fail":
		return Error
	case "skip":
		return Warning
	default:
		return Muted
	}
}
