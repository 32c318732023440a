package state

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	ttea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// View 定義視圖枚舉
type View int

const (
	// ===================================
	// 基礎視圖
	// ===================================
	MainMenuView View = iota
	EnvCheckView
	AboutView

	// ===================================
	// 安裝流程
	// ===================================
	InstallWizardView
	InstallProgressView
	InstallCompleteView

	// ===================================
	// 偏好設定與備份
	// ===================================
	SettingsView
	SettingsEditView // 單個設定項的輸入視圖
	BackupMenuView

	// ===================================
	// 卸載流程
	// ===================================
	UninstallView
	UninstallProgressView
)

// StatusType 狀態類型
type StatusType int

const (
	StatusReady StatusType = iota
	StatusSuccess
	StatusError
	StatusFatal
	StatusInfo
	StatusWarn
)

// StatusMsg 狀態欄消息
type StatusMsg struct {
	Type    StatusType
	Message string
	Detail  string
	Show    bool
}

// UIState UI 核心狀態
type UIState struct {
	CurrentView  View
	PreviousView View // 用於返回
	TextInput    textinput.Model
	Spinner      spinner.Model
	Width        int
	Height       int
	Cursor       int
	Status       StatusMsg

	// ConfigReady 首次 ConfigLoadedMsg 到達後置位
	// 置位前主界面只渲染載入提示，加載失敗也會以默認配置置位
	ConfigReady bool
}

// NewUIState 創建 UI 狀態
func NewUIState() *UIState {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.Width = 50
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

	return &UIState{
		CurrentView: MainMenuView,
		TextInput:   ti,
		Width:       80,
		Height:      24,
		Cursor:      0,
		Status:      StatusMsg{Type: StatusReady},
		Spinner:     s,
	}
}

// SwitchView 切換視圖並重置輸入與光標
func (s *UIState) SwitchView(v View) ttea.Cmd {
	s.PreviousView = s.CurrentView // SettingsEditView 這類子頁靠它返回
	s.CurrentView = v
	s.TextInput.Reset()
	s.Cursor = 0

	// 錯誤狀態跨視圖保留，其餘進入新視圖即清空
	if s.Status.Type != StatusError && s.Status.Type != StatusFatal {
		s.Status = StatusMsg{Type: StatusReady}
	}

	return s.TextInput.Focus()
}

// SetStatus 設置狀態欄消息
func (s *UIState) SetStatus(t StatusType, msg, detail string, show bool) {
	s.Status = StatusMsg{
		Type:    t,
		Message: msg,
		Detail:  detail,
		Show:    show,
	}
}

// UpdateInput 更新輸入框
func (s *UIState) UpdateInput(msg ttea.Msg) ttea.Cmd {
	var cmd ttea.Cmd
	s.TextInput, cmd = s.TextInput.Update(msg)
	return cmd
}

func (s *UIState) GetInputBuffer() string {
	return s.TextInput.Value()
}

func (s *UIState) ClearInput() {
	s.TextInput.Reset()
}

// UpdateSize 更新尺寸
func (s *UIState) UpdateSize(w, h int) {
	s.Width = w
	s.Height = h
}
