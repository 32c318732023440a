package install

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// maxLogEntries 安裝日誌上限，超出時淘汰最舊的條目
const maxLogEntries = 100

// LogEntry 安裝日誌條目
type LogEntry struct {
	Time    time.Time
	Message string
}

// State Tracker 對外的狀態快照
type State struct {
	RunID        string
	CurrentStep  Step
	Detail       string
	Progress     float64
	PackageIndex int
	PackageTotal int
	Completed    bool
	Failed       bool
	ErrorMessage string
	Logs         []LogEntry
}

// ProgressSink 接收安裝進度事件（UI 轉接器或測試替身）
type ProgressSink interface {
	Publish(s State)
}

// SinkFunc 函數式 ProgressSink 轉接器
type SinkFunc func(s State)

func (f SinkFunc) Publish(s State) { f(s) }

// NopSink 丟棄所有事件
type NopSink struct{}

func (NopSink) Publish(State) {}

// Tracker 擁有一次安裝運行的全部可變狀態
// 狀態只能經由其方法變更，每次變更都會通知 sink
// 所有方法都在同一個調度循環上調用，不做內部加鎖，也不會阻塞
type Tracker struct {
	bands Bands
	sink  ProgressSink

	runID        string
	currentStep  Step
	detail       string
	progress     float64
	packageIndex int
	packageTotal int
	completed    bool
	failed       bool
	errorMessage string
	logs         []LogEntry
}

// NewTracker 創建追蹤器並立即 Reset 到初始狀態
func NewTracker(bands Bands, sink ProgressSink) *Tracker {
	if bands == nil {
		bands = DefaultBands()
	}
	if sink == nil {
		sink = NopSink{}
	}

	t := &Tracker{bands: bands, sink: sink}
	t.Reset()
	return t
}

// Reset 清空狀態並開始一次新的運行
func (t *Tracker) Reset() {
	t.runID = uuid.New().String()
	t.currentStep = StepNone
	t.detail = ""
	t.progress = 0
	t.packageIndex = 0
	t.packageTotal = 0
	t.completed = false
	t.failed = false
	t.errorMessage = ""
	t.logs = nil
	t.publish()
}

// SetStep 推進到指定階段並更新說明文字
// 進度按階段序數線性重算；StepComplete 強制進度 1.0 並標記完成
// 回退到已經過的階段會被忽略，僅留下一條日誌
func (t *Tracker) SetStep(step Step, detail string) {
	if step < t.currentStep {
		t.appendLog(fmt.Sprintf("忽略階段回退請求: %s", step))
		t.publish()
		return
	}

	t.currentStep = step
	t.detail = detail

	if step == StepComplete {
		t.progress = 1.0
		t.completed = true
	} else {
		t.advanceProgress(step.Fraction())
	}

	msg := step.DisplayName()
	if detail != "" {
		msg += "：" + detail
	}
	t.appendLog(msg)
	t.publish()
}

// SetPackageProgress 更新當前階段內的套件子進度
// 子進度在該階段獨佔的進度區段內線性推進，不影響其他階段的區段
func (t *Tracker) SetPackageProgress(index, total int, name string) {
	t.packageIndex = index
	t.packageTotal = total
	t.detail = name

	if band, ok := t.bands[t.currentStep]; ok && total > 0 {
		frac := float64(index) / float64(total)
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		t.advanceProgress(band.Base + frac*band.Span)
	}

	t.appendLog(fmt.Sprintf("(%d/%d) %s", index, total, name))
	t.publish()
}

// AddLog 追加一條帶時間戳的日誌
func (t *Tracker) AddLog(message string) {
	t.appendLog(message)
	t.publish()
}

// SetError 記錄錯誤，但不中止運行也不清除完成標記
// 是否繼續由調用方決定
func (t *Tracker) SetError(message string) {
	t.failed = true
	t.errorMessage = message
	t.appendLog("錯誤: " + message)
	t.publish()
}

// State 返回當前狀態的快照（日誌為副本）
func (t *Tracker) State() State {
	logs := make([]LogEntry, len(t.logs))
	copy(logs, t.logs)

	return State{
		RunID:        t.runID,
		CurrentStep:  t.currentStep,
		Detail:       t.detail,
		Progress:     t.progress,
		PackageIndex: t.packageIndex,
		PackageTotal: t.packageTotal,
		Completed:    t.completed,
		Failed:       t.failed,
		ErrorMessage: t.errorMessage,
		Logs:         logs,
	}
}

// advanceProgress 進度只增不減
func (t *Tracker) advanceProgress(p float64) {
	if p > t.progress {
		t.progress = p
	}
}

func (t *Tracker) appendLog(message string) {
	t.logs = append(t.logs, LogEntry{Time: time.Now(), Message: message})
	if len(t.logs) > maxLogEntries {
		t.logs = t.logs[len(t.logs)-maxLogEntries:]
	}
}

func (t *Tracker) publish() {
	t.sink.Publish(t.State())
}
