package model

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Model bubbletea 模型適配層，全部行為委託給 Router
type Model struct {
	router *Router
}

// NewModel 包裝路由器為可運行的 bubbletea 模型
func NewModel(router *Router) *Model {
	return &Model{
		router: router,
	}
}

// Init 啟動時聚焦輸入框、加載配置並啟動調度節拍
func (m *Model) Init() tea.Cmd {
	return m.router.InitModel()
}

// Update 更新循環
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := m.router.Update(msg)
	return m, cmd
}

// View 渲染視圖
func (m *Model) View() string {
	return m.router.View()
}
