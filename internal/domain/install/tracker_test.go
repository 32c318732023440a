package install

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink 記錄每次發佈的狀態快照
type recordingSink struct {
	states []State
}

func (r *recordingSink) Publish(s State) {
	r.states = append(r.states, s)
}

// TestTracker_ProgressMonotonic 任意 SetStep 序列下進度只增不減
func TestTracker_ProgressMonotonic(t *testing.T) {
	sink := &recordingSink{}
	tracker := NewTracker(nil, sink)

	sequence := []Step{
		StepCheckEnvironment,
		StepInstallSecondaryB,
		StepDownloadPackage, // 回退請求，應被忽略
		StepCheckEnvironment,
		StepLaunchSecondaryInstaller,
		StepRunSecondaryInstall,
		StepRunSecondaryInstall, // 同階段重複設置
		StepComplete,
	}

	prev := 0.0
	for _, s := range sequence {
		tracker.SetStep(s, "")
		cur := tracker.State().Progress
		assert.GreaterOrEqual(t, cur, prev, "SetStep(%s) 之後進度不應下降", s)
		prev = cur
	}
}

// TestTracker_ResetClearsState 測試 Reset 清空狀態
func TestTracker_ResetClearsState(t *testing.T) {
	tracker := NewTracker(nil, nil)

	tracker.SetStep(StepInstallSecondaryA, "下載中")
	tracker.SetError("clone 失敗")
	require.True(t, tracker.State().Failed)

	firstRunID := tracker.State().RunID
	tracker.Reset()

	st := tracker.State()
	assert.Equal(t, StepNone, st.CurrentStep)
	assert.Equal(t, 0.0, st.Progress)
	assert.Empty(t, st.Logs)
	assert.False(t, st.Completed)
	assert.False(t, st.Failed)
	assert.Empty(t, st.ErrorMessage)
	assert.NotEqual(t, firstRunID, st.RunID, "每次運行應有新的 RunID")
}

// TestTracker_CompleteForcesFullProgress Complete 無條件拉滿進度
func TestTracker_CompleteForcesFullProgress(t *testing.T) {
	t.Run("從初始狀態直跳", func(t *testing.T) {
		tracker := NewTracker(nil, nil)
		tracker.SetStep(StepComplete, "")

		st := tracker.State()
		assert.Equal(t, 1.0, st.Progress)
		assert.True(t, st.Completed)
	})

	t.Run("錯誤之後仍可完成", func(t *testing.T) {
		tracker := NewTracker(nil, nil)
		tracker.SetStep(StepInstallSecondaryA, "")
		tracker.SetError("某個階段失敗")
		tracker.SetStep(StepComplete, "")

		st := tracker.State()
		assert.Equal(t, 1.0, st.Progress)
		assert.True(t, st.Completed)
		assert.True(t, st.Failed, "錯誤標記不因完成而清除")
	})
}

// TestTracker_LogEviction 101 條日誌只留最後 100 條
func TestTracker_LogEviction(t *testing.T) {
	tracker := NewTracker(nil, nil)

	for i := 1; i <= 101; i++ {
		tracker.AddLog(fmt.Sprintf("第 %d 條", i))
	}

	logs := tracker.State().Logs
	require.Len(t, logs, 100)
	assert.Equal(t, "第 2 條", logs[0].Message, "最舊的第 1 條應被淘汰")
	assert.Equal(t, "第 101 條", logs[99].Message)
}

// TestTracker_PackageProgress 子進度落在所屬階段的獨佔區段內
func TestTracker_PackageProgress(t *testing.T) {
	bands := Bands{
		StepInstallSecondaryA: {Base: 0.20, Span: 0.25},
	}
	tracker := NewTracker(bands, nil)
	tracker.SetStep(StepInstallSecondaryA, "")
	base := tracker.State().Progress

	tracker.SetPackageProgress(1, 2, "lumen-core")
	mid := tracker.State().Progress
	assert.InDelta(t, 0.20+0.5*0.25, mid, 1e-9)
	assert.GreaterOrEqual(t, mid, base)

	tracker.SetPackageProgress(2, 2, "lumen-assets")
	end := tracker.State().Progress
	assert.InDelta(t, 0.45, end, 1e-9)

	st := tracker.State()
	assert.Equal(t, 2, st.PackageIndex)
	assert.Equal(t, 2, st.PackageTotal)
	assert.Equal(t, "lumen-assets", st.Detail)
}

// TestTracker_PackageProgressUnknownBand 無區段配置時不推進進度
func TestTracker_PackageProgressUnknownBand(t *testing.T) {
	tracker := NewTracker(Bands{}, nil)
	tracker.SetStep(StepInstallSecondaryA, "")
	before := tracker.State().Progress

	tracker.SetPackageProgress(1, 2, "lumen-core")
	assert.Equal(t, before, tracker.State().Progress)
}

// TestTracker_SetErrorDoesNotHalt 記錯誤後仍可繼續推進
func TestTracker_SetErrorDoesNotHalt(t *testing.T) {
	tracker := NewTracker(nil, nil)

	tracker.SetStep(StepInstallSecondaryA, "")
	tracker.SetError("git clone 退出碼 128")

	st := tracker.State()
	assert.True(t, st.Failed)
	assert.Equal(t, "git clone 退出碼 128", st.ErrorMessage)

	// 繼續推進不受影響
	tracker.SetStep(StepInstallSecondaryB, "")
	assert.Equal(t, StepInstallSecondaryB, tracker.State().CurrentStep)
}

// TestTracker_SinkNotified 每次變更都通知 sink
func TestTracker_SinkNotified(t *testing.T) {
	sink := &recordingSink{}
	tracker := NewTracker(nil, sink)

	published := len(sink.states) // NewTracker 內的 Reset 已發佈一次
	require.Equal(t, 1, published)

	tracker.SetStep(StepCheckEnvironment, "檢查 git")
	tracker.AddLog("git 2.43.0")
	tracker.SetPackageProgress(1, 2, "lumen-core")
	tracker.SetError("失敗")

	assert.Len(t, sink.states, published+4)

	last := sink.states[len(sink.states)-1]
	assert.True(t, last.Failed)
}

// TestTracker_StateSnapshotIsolated 快照日誌是副本，外部修改不影響內部
func TestTracker_StateSnapshotIsolated(t *testing.T) {
	tracker := NewTracker(nil, nil)
	tracker.AddLog("原始")

	st := tracker.State()
	st.Logs[0].Message = "被篡改"

	assert.Equal(t, "原始", tracker.State().Logs[0].Message)
}
